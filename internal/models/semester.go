package models

import (
	"reflect"
	"time"
)

// Course is owned by exactly one Semester.
type Course struct {
	ID      string  `json:"id"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Credits int     `json:"credits"`
	Classes []Class `json:"classes"`
}

// Clone returns a deep copy of the course.
func (c Course) Clone() Course {
	out := c
	out.Classes = cloneClasses(c.Classes)
	return out
}

// FindClass returns the index of the class with id, or -1.
func (c *Course) FindClass(id string) int {
	for i := range c.Classes {
		if c.Classes[i].ID == id {
			return i
		}
	}
	return -1
}

// Timetable is a named selection of class snapshots. Its classes are copies
// taken when they were added and do not follow later course edits.
type Timetable struct {
	ID         string    `json:"id"`
	SemesterID string    `json:"semesterId,omitempty"`
	Name       string    `json:"name"`
	Classes    []Class   `json:"classes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the timetable.
func (t Timetable) Clone() Timetable {
	out := t
	out.Classes = cloneClasses(t.Classes)
	return out
}

// ClassIDs lists the identifiers of the timetable's class snapshots in order.
func (t Timetable) ClassIDs() []string {
	ids := make([]string, 0, len(t.Classes))
	for _, cls := range t.Classes {
		ids = append(ids, cls.ID)
	}
	return ids
}

// Semester is the aggregate root and the unit of persistence.
type Semester struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Courses    []Course    `json:"courses"`
	Timetables []Timetable `json:"timetables"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy of the semester.
func (s Semester) Clone() Semester {
	out := s
	out.Courses = make([]Course, len(s.Courses))
	for i := range s.Courses {
		out.Courses[i] = s.Courses[i].Clone()
	}
	out.Timetables = make([]Timetable, len(s.Timetables))
	for i := range s.Timetables {
		out.Timetables[i] = s.Timetables[i].Clone()
	}
	return out
}

// FindCourse returns the index of the course with id, or -1.
func (s *Semester) FindCourse(id string) int {
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTimetable returns the index of the timetable with id, or -1.
func (s *Semester) FindTimetable(id string) int {
	for i := range s.Timetables {
		if s.Timetables[i].ID == id {
			return i
		}
	}
	return -1
}

// LookupClass returns the first class with classID across the semester's
// courses and how many classes carry that id.
func (s *Semester) LookupClass(classID string) (Class, int) {
	var (
		found   Class
		matches int
	)
	for i := range s.Courses {
		if idx := s.Courses[i].FindClass(classID); idx >= 0 {
			if matches == 0 {
				found = s.Courses[i].Classes[idx]
			}
			matches++
		}
	}
	return found, matches
}

// SameContent reports whether two semesters differ only in their own
// createdAt and updatedAt. Nil and empty collections compare equal.
func (s Semester) SameContent(other Semester) bool {
	a, b := s.Clone(), other.Clone()
	a.Normalize()
	b.Normalize()
	a.CreatedAt, a.UpdatedAt = time.Time{}, time.Time{}
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	if len(a.Timetables) != len(b.Timetables) {
		return false
	}
	for i := range a.Timetables {
		if !a.Timetables[i].CreatedAt.Equal(b.Timetables[i].CreatedAt) || !a.Timetables[i].UpdatedAt.Equal(b.Timetables[i].UpdatedAt) {
			return false
		}
		a.Timetables[i].CreatedAt, a.Timetables[i].UpdatedAt = time.Time{}, time.Time{}
		b.Timetables[i].CreatedAt, b.Timetables[i].UpdatedAt = time.Time{}, time.Time{}
	}
	return reflect.DeepEqual(a, b)
}

// Touch moves UpdatedAt to now, never backwards.
func (s *Semester) Touch(now time.Time) {
	if now.After(s.UpdatedAt) {
		s.UpdatedAt = now
	}
}

// Normalize replaces nil collections with empty ones so that stored
// documents always carry arrays, never nulls.
func (s *Semester) Normalize() {
	if s.Courses == nil {
		s.Courses = []Course{}
	}
	if s.Timetables == nil {
		s.Timetables = []Timetable{}
	}
	for i := range s.Courses {
		if s.Courses[i].Classes == nil {
			s.Courses[i].Classes = []Class{}
		}
		normalizeDays(s.Courses[i].Classes)
	}
	for i := range s.Timetables {
		if s.Timetables[i].Classes == nil {
			s.Timetables[i].Classes = []Class{}
		}
		normalizeDays(s.Timetables[i].Classes)
	}
}

func normalizeDays(classes []Class) {
	for i := range classes {
		if classes[i].Days == nil {
			classes[i].Days = []string{}
		}
	}
}

// CloneSemesters deep-copies a collection.
func CloneSemesters(in []Semester) []Semester {
	out := make([]Semester, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
