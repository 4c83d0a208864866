package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-builder/internal/models"
)

// NewValidator returns a validator with the timetable rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerValidations(v)
	return v
}

func registerValidations(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClockTime(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.WeekdayIndex(fl.Field().String()) >= 0
	})
}
