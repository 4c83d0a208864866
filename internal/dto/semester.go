package dto

// CreateSemesterRequest names a new, empty semester.
type CreateSemesterRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// RenameRequest changes the display name of a semester or timetable.
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// ClassRequest describes one recurring session of a course. ID is optional;
// a fresh identifier is minted when it is empty.
type ClassRequest struct {
	ID         string   `json:"id"`
	Type       string   `json:"type" validate:"required,oneof=lecture lab tutorial"`
	Instructor string   `json:"instructor" validate:"required,max=120"`
	Room       string   `json:"room" validate:"required,max=60"`
	StartTime  string   `json:"startTime" validate:"required,clock"`
	EndTime    string   `json:"endTime" validate:"required,clock"`
	Days       []string `json:"days" validate:"required,min=1,unique,dive,weekday"`
}

// CourseRequest adds a course, optionally with its sessions.
type CourseRequest struct {
	ID      string         `json:"id"`
	Code    string         `json:"code" validate:"required,max=20"`
	Name    string         `json:"name" validate:"required,max=120"`
	Credits int            `json:"credits" validate:"required,gt=0,lte=60"`
	Classes []ClassRequest `json:"classes" validate:"omitempty,dive"`
}

// CreateTimetableRequest builds a timetable from classes currently defined
// in the semester's courses.
type CreateTimetableRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	ClassIDs []string `json:"classIds" validate:"omitempty,dive,required"`
}
