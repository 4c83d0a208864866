package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-builder/internal/dto"
	"github.com/noah-isme/timetable-builder/internal/models"
	"github.com/noah-isme/timetable-builder/internal/service"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/response"
)

type timetableService interface {
	Revision() uint64
	CreateTimetable(ctx context.Context, semesterID string, req dto.CreateTimetableRequest) (*models.Timetable, error)
	SaveTimetable(ctx context.Context, semesterID string, timetable models.Timetable) (*models.Timetable, error)
	RenameTimetable(ctx context.Context, semesterID, timetableID string, req dto.RenameRequest) (*models.Timetable, error)
	DuplicateTimetable(ctx context.Context, semesterID, timetableID string) (*models.Timetable, error)
	DeleteTimetable(ctx context.Context, semesterID, timetableID string) error
}

type sheetService interface {
	TimetableSheet(ctx context.Context, semesterID, timetableID, format string) (*service.Document, error)
}

// TimetableHandler exposes timetable endpoints nested under a semester.
type TimetableHandler struct {
	service timetableService
	sheets  sheetService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc timetableService, sheets sheetService) *TimetableHandler {
	return &TimetableHandler{service: svc, sheets: sheets}
}

// Create godoc
// @Summary Create timetable
// @Description Copies the named classes into a new timetable.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body dto.CreateTimetableRequest true "Timetable payload"
// @Success 201 {object} response.Envelope
// @Router /semesters/{id}/timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	timetable, err := h.service.CreateTimetable(ctx, c.Param("id"), req)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Save godoc
// @Summary Upsert timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param timetableId path string true "Timetable ID"
// @Param payload body models.Timetable true "Timetable"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/timetables/{timetableId} [put]
func (h *TimetableHandler) Save(c *gin.Context) {
	var timetable models.Timetable
	if err := c.ShouldBindJSON(&timetable); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id := c.Param("timetableId")
	if timetable.ID == "" {
		timetable.ID = id
	}
	if timetable.ID != id {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "timetable id does not match path"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	saved, err := h.service.SaveTimetable(ctx, c.Param("id"), timetable)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved)
}

// Rename godoc
// @Summary Rename timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param timetableId path string true "Timetable ID"
// @Param payload body dto.RenameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/timetables/{timetableId} [patch]
func (h *TimetableHandler) Rename(c *gin.Context) {
	var req dto.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	timetable, err := h.service.RenameTimetable(ctx, c.Param("id"), c.Param("timetableId"), req)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable)
}

// Duplicate godoc
// @Summary Duplicate timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Semester ID"
// @Param timetableId path string true "Timetable ID"
// @Success 201 {object} response.Envelope
// @Router /semesters/{id}/timetables/{timetableId}/duplicate [post]
func (h *TimetableHandler) Duplicate(c *gin.Context) {
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	timetable, err := h.service.DuplicateTimetable(ctx, c.Param("id"), c.Param("timetableId"))
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Delete godoc
// @Summary Delete timetable
// @Tags Timetables
// @Param id path string true "Semester ID"
// @Param timetableId path string true "Timetable ID"
// @Success 204
// @Router /semesters/{id}/timetables/{timetableId} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	err = h.service.DeleteTimetable(ctx, c.Param("id"), c.Param("timetableId"))
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sheet godoc
// @Summary Download timetable sheet
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Semester ID"
// @Param timetableId path string true "Timetable ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /semesters/{id}/timetables/{timetableId}/sheet [get]
func (h *TimetableHandler) Sheet(c *gin.Context) {
	doc, err := h.sheets.TimetableSheet(c.Request.Context(), c.Param("id"), c.Param("timetableId"), c.DefaultQuery("format", service.SheetFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}
