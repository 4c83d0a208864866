package models

import "strings"

// SessionType distinguishes the kind of meeting a Class represents.
type SessionType string

const (
	SessionLecture  SessionType = "lecture"
	SessionLab      SessionType = "lab"
	SessionTutorial SessionType = "tutorial"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	switch t {
	case SessionLecture, SessionLab, SessionTutorial:
		return true
	}
	return false
}

// Weekdays lists the accepted day names in calendar order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayIndex returns the position of day in Weekdays, or -1.
func WeekdayIndex(day string) int {
	for i, d := range Weekdays {
		if strings.EqualFold(d, day) {
			return i
		}
	}
	return -1
}

// Class is one recurring meeting pattern of a Course. CourseID names the
// owning course; it is a back-reference, not an ownership link.
type Class struct {
	ID         string      `json:"id"`
	CourseID   string      `json:"courseId"`
	Type       SessionType `json:"type,omitempty"`
	Instructor string      `json:"instructor,omitempty"`
	Room       string      `json:"room,omitempty"`
	StartTime  string      `json:"startTime,omitempty"`
	EndTime    string      `json:"endTime,omitempty"`
	Days       []string    `json:"days"`
}

// Clone returns a copy that shares no memory with c.
func (c Class) Clone() Class {
	out := c
	out.Days = append([]string{}, c.Days...)
	return out
}

func cloneClasses(in []Class) []Class {
	out := make([]Class, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
