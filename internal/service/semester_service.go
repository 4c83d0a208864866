package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-builder/internal/dto"
	"github.com/noah-isme/timetable-builder/internal/models"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
)

type semesterStore interface {
	LoadAll(ctx context.Context) ([]models.Semester, error)
	SaveAll(ctx context.Context, semesters []models.Semester) error
	Revision() uint64
}

// IDGenerator mints identifiers for new entities.
type IDGenerator func() string

// Clock reports the current instant.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// SemesterOption customises a SemesterService or TransferService.
type SemesterOption func(*serviceDeps)

type serviceDeps struct {
	newID IDGenerator
	now   Clock
}

// WithIDGenerator overrides uuid-based identifiers.
func WithIDGenerator(gen IDGenerator) SemesterOption {
	return func(d *serviceDeps) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) SemesterOption {
	return func(d *serviceDeps) {
		if clock != nil {
			d.now = clock
		}
	}
}

func buildDeps(opts []SemesterOption) serviceDeps {
	deps := serviceDeps{newID: uuid.NewString, now: defaultClock}
	for _, opt := range opts {
		opt(&deps)
	}
	return deps
}

// SemesterService owns every read and write of the semester collection.
// Writes are load-modify-save cycles run under the shared WriterLock.
type SemesterService struct {
	store     semesterStore
	lock      *WriterLock
	validator *validator.Validate
	logger    *zap.Logger
	deps      serviceDeps
}

// NewSemesterService constructs the service. lock must be shared with any
// other writer of the same store.
func NewSemesterService(store semesterStore, lock *WriterLock, validate *validator.Validate, logger *zap.Logger, opts ...SemesterOption) *SemesterService {
	if lock == nil {
		lock = NewWriterLock(nil)
	}
	if validate == nil {
		validate = NewValidator()
	} else {
		registerValidations(validate)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{
		store:     store,
		lock:      lock,
		validator: validate,
		logger:    logger,
		deps:      buildDeps(opts),
	}
}

// Revision returns the collection revision readers should compare against.
func (s *SemesterService) Revision() uint64 {
	return s.store.Revision()
}

// ListSemesters returns the whole collection.
func (s *SemesterService) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	return loadTracked(ctx, s.store)
}

// GetSemester returns one semester.
func (s *SemesterService) GetSemester(ctx context.Context, id string) (*models.Semester, error) {
	semesters, err := loadTracked(ctx, s.store)
	if err != nil {
		return nil, err
	}
	for i := range semesters {
		if semesters[i].ID == id {
			return &semesters[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
}

// CreateSemester persists a new empty semester.
func (s *SemesterService) CreateSemester(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	var created models.Semester
	err := s.withCollection(ctx, func(semesters []models.Semester) ([]models.Semester, bool, error) {
		now := s.deps.now()
		created = models.Semester{
			ID:         s.uniqueID(func(id string) bool { return findSemester(semesters, id) >= 0 }),
			Name:       req.Name,
			Courses:    []models.Course{},
			Timetables: []models.Timetable{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return append(semesters, created), true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("semester created", zap.String("semester_id", created.ID))
	return &created, nil
}

// SaveSemester upserts a whole semester by identifier. Saving content equal
// to what is stored writes nothing and keeps the stored timestamps. Otherwise
// UpdatedAt is refreshed and never moves behind the stored value.
func (s *SemesterService) SaveSemester(ctx context.Context, semester models.Semester) (*models.Semester, error) {
	if err := validateSemesterShape(&semester); err != nil {
		return nil, err
	}
	semester = semester.Clone()

	err := s.withCollection(ctx, func(semesters []models.Semester) ([]models.Semester, bool, error) {
		idx := findSemester(semesters, semester.ID)
		if idx < 0 {
			if semester.CreatedAt.IsZero() {
				semester.CreatedAt = s.deps.now()
			}
			if semester.UpdatedAt.IsZero() {
				semester.UpdatedAt = semester.CreatedAt
			}
			return append(semesters, semester), true, nil
		}
		stored := semesters[idx]
		if semester.SameContent(stored) {
			semester = stored.Clone()
			return semesters, false, nil
		}
		if semester.CreatedAt.IsZero() {
			semester.CreatedAt = stored.CreatedAt
		}
		semester.UpdatedAt = latest(semester.UpdatedAt, stored.UpdatedAt)
		semester.Touch(s.deps.now())
		semesters[idx] = semester
		return semesters, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

// RenameSemester changes a semester's display name.
func (s *SemesterService) RenameSemester(ctx context.Context, id string, req dto.RenameRequest) (*models.Semester, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester name")
	}
	return s.mutate(ctx, id, func(sem *models.Semester, _ time.Time) (bool, error) {
		if sem.Name == req.Name {
			return false, nil
		}
		sem.Name = req.Name
		return true, nil
	})
}

// DeleteSemester removes a semester. Deleting an absent semester succeeds.
func (s *SemesterService) DeleteSemester(ctx context.Context, id string) error {
	return s.withCollection(ctx, func(semesters []models.Semester) ([]models.Semester, bool, error) {
		idx := findSemester(semesters, id)
		if idx < 0 {
			return semesters, false, nil
		}
		return append(semesters[:idx], semesters[idx+1:]...), true, nil
	})
}

// AddCourse appends a course, together with any sessions it carries, to a semester.
func (s *SemesterService) AddCourse(ctx context.Context, semesterID string, req dto.CourseRequest) (*models.Course, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	for _, cls := range req.Classes {
		if err := checkSessionWindow(cls); err != nil {
			return nil, err
		}
	}

	var added models.Course
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, _ time.Time) (bool, error) {
		courseID := req.ID
		if courseID == "" {
			courseID = s.uniqueID(func(id string) bool { return sem.FindCourse(id) >= 0 })
		} else if sem.FindCourse(courseID) >= 0 {
			return false, appErrors.Clone(appErrors.ErrConflict, "course id already used in this semester")
		}
		course := models.Course{
			ID:      courseID,
			Code:    req.Code,
			Name:    req.Name,
			Credits: req.Credits,
			Classes: make([]models.Class, 0, len(req.Classes)),
		}
		for _, clsReq := range req.Classes {
			cls, err := s.buildClass(sem, &course, clsReq)
			if err != nil {
				return false, err
			}
			course.Classes = append(course.Classes, cls)
		}
		sem.Courses = append(sem.Courses, course)
		added = course.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// DeleteCourse removes a course. Timetables keep their snapshots of its
// classes. Deleting an absent course succeeds without writing.
func (s *SemesterService) DeleteCourse(ctx context.Context, semesterID, courseID string) error {
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, _ time.Time) (bool, error) {
		idx := sem.FindCourse(courseID)
		if idx < 0 {
			return false, nil
		}
		sem.Courses = append(sem.Courses[:idx], sem.Courses[idx+1:]...)
		return true, nil
	})
	return err
}

// AddClass appends a session to a course.
func (s *SemesterService) AddClass(ctx context.Context, semesterID, courseID string, req dto.ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := checkSessionWindow(req); err != nil {
		return nil, err
	}

	var added models.Class
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, _ time.Time) (bool, error) {
		idx := sem.FindCourse(courseID)
		if idx < 0 {
			return false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		course := &sem.Courses[idx]
		cls, err := s.buildClass(sem, course, req)
		if err != nil {
			return false, err
		}
		course.Classes = append(course.Classes, cls)
		added = cls.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// DeleteClass removes a session from a course. Timetables keep their copies.
func (s *SemesterService) DeleteClass(ctx context.Context, semesterID, courseID, classID string) error {
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, _ time.Time) (bool, error) {
		idx := sem.FindCourse(courseID)
		if idx < 0 {
			return false, nil
		}
		course := &sem.Courses[idx]
		clsIdx := course.FindClass(classID)
		if clsIdx < 0 {
			return false, nil
		}
		course.Classes = append(course.Classes[:clsIdx], course.Classes[clsIdx+1:]...)
		return true, nil
	})
	return err
}

// CreateTimetable builds a timetable from copies of the named classes as
// they are defined right now.
func (s *SemesterService) CreateTimetable(ctx context.Context, semesterID string, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	var created models.Timetable
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, now time.Time) (bool, error) {
		classes := make([]models.Class, 0, len(req.ClassIDs))
		seen := make(map[string]struct{}, len(req.ClassIDs))
		for _, classID := range req.ClassIDs {
			if _, dup := seen[classID]; dup {
				continue
			}
			seen[classID] = struct{}{}
			cls, matches := sem.LookupClass(classID)
			switch {
			case matches == 0:
				return false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found in semester", classID))
			case matches > 1:
				return false, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class id %s is used by %d courses", classID, matches))
			}
			classes = append(classes, cls.Clone())
		}
		created = models.Timetable{
			ID:         s.uniqueID(func(id string) bool { return sem.FindTimetable(id) >= 0 }),
			SemesterID: sem.ID,
			Name:       req.Name,
			Classes:    classes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		sem.Timetables = append(sem.Timetables, created)
		created = created.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SaveTimetable upserts a timetable by identifier within its semester.
func (s *SemesterService) SaveTimetable(ctx context.Context, semesterID string, timetable models.Timetable) (*models.Timetable, error) {
	timetable.Name = strings.TrimSpace(timetable.Name)
	if timetable.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable name is required")
	}
	seen := make(map[string]struct{}, len(timetable.Classes))
	for _, classID := range timetable.ClassIDs() {
		if _, dup := seen[classID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("class %s appears twice in the timetable", classID))
		}
		seen[classID] = struct{}{}
	}
	timetable = timetable.Clone()

	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, now time.Time) (bool, error) {
		timetable.SemesterID = sem.ID
		if timetable.ID == "" {
			timetable.ID = s.uniqueID(func(id string) bool { return sem.FindTimetable(id) >= 0 })
		}
		idx := sem.FindTimetable(timetable.ID)
		if idx < 0 {
			if timetable.CreatedAt.IsZero() {
				timetable.CreatedAt = now
			}
			timetable.UpdatedAt = latest(timetable.UpdatedAt, now)
			sem.Timetables = append(sem.Timetables, timetable)
			return true, nil
		}
		if timetable.CreatedAt.IsZero() {
			timetable.CreatedAt = sem.Timetables[idx].CreatedAt
		}
		timetable.UpdatedAt = latest(sem.Timetables[idx].UpdatedAt, now)
		sem.Timetables[idx] = timetable
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

// RenameTimetable changes a timetable's display name.
func (s *SemesterService) RenameTimetable(ctx context.Context, semesterID, timetableID string, req dto.RenameRequest) (*models.Timetable, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable name")
	}

	var renamed models.Timetable
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, now time.Time) (bool, error) {
		idx := sem.FindTimetable(timetableID)
		if idx < 0 {
			return false, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		tt := &sem.Timetables[idx]
		if tt.Name == req.Name {
			renamed = tt.Clone()
			return false, nil
		}
		tt.Name = req.Name
		tt.UpdatedAt = latest(tt.UpdatedAt, now)
		renamed = tt.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

// DuplicateTimetable copies a timetable under a fresh identifier.
func (s *SemesterService) DuplicateTimetable(ctx context.Context, semesterID, timetableID string) (*models.Timetable, error) {
	var copied models.Timetable
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, now time.Time) (bool, error) {
		idx := sem.FindTimetable(timetableID)
		if idx < 0 {
			return false, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		copied = sem.Timetables[idx].Clone()
		copied.ID = s.uniqueID(func(id string) bool { return sem.FindTimetable(id) >= 0 })
		copied.Name = copied.Name + " (Copy)"
		copied.CreatedAt = now
		copied.UpdatedAt = now
		sem.Timetables = append(sem.Timetables, copied)
		copied = copied.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &copied, nil
}

// DeleteTimetable removes a timetable. Deleting an absent timetable succeeds.
func (s *SemesterService) DeleteTimetable(ctx context.Context, semesterID, timetableID string) error {
	_, err := s.mutate(ctx, semesterID, func(sem *models.Semester, _ time.Time) (bool, error) {
		idx := sem.FindTimetable(timetableID)
		if idx < 0 {
			return false, nil
		}
		sem.Timetables = append(sem.Timetables[:idx], sem.Timetables[idx+1:]...)
		return true, nil
	})
	return err
}

// mutate runs fn against a private copy of one semester under the writer
// lock and saves the collection when fn reports a change. The semester's
// UpdatedAt is refreshed on every saved change.
func (s *SemesterService) mutate(ctx context.Context, semesterID string, fn func(sem *models.Semester, now time.Time) (bool, error)) (*models.Semester, error) {
	var result models.Semester
	err := s.withCollection(ctx, func(semesters []models.Semester) ([]models.Semester, bool, error) {
		idx := findSemester(semesters, semesterID)
		if idx < 0 {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		working := semesters[idx].Clone()
		now := s.deps.now()
		changed, err := fn(&working, now)
		if err != nil {
			return nil, false, err
		}
		if changed {
			working.Touch(now)
			semesters[idx] = working
		}
		result = working
		return semesters, changed, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// withCollection is the single load-modify-save path. fn receives the
// freshly loaded collection and returns the collection to save and whether
// anything changed.
func (s *SemesterService) withCollection(ctx context.Context, fn func([]models.Semester) ([]models.Semester, bool, error)) error {
	if err := s.lock.Acquire(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gave up waiting for the writer lock")
	}
	defer s.lock.Release()
	defer func() { recordRevision(ctx, s.store.Revision()) }()

	if want, ok := ExpectedRevision(ctx); ok {
		if got := s.store.Revision(); got != want {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("collection is at revision %d, not %d", got, want))
		}
	}

	semesters, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	next, changed, err := fn(semesters)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.store.SaveAll(ctx, next); err != nil {
		s.logger.Error("failed to save semesters", zap.Error(err))
		return err
	}
	return nil
}

// buildClass mints a class for course. Class ids are kept unique across the
// whole semester because timetables select classes by id alone.
func (s *SemesterService) buildClass(sem *models.Semester, course *models.Course, req dto.ClassRequest) (models.Class, error) {
	taken := func(id string) bool {
		_, matches := sem.LookupClass(id)
		return matches > 0 || course.FindClass(id) >= 0
	}
	classID := req.ID
	if classID == "" {
		classID = s.uniqueID(taken)
	} else if taken(classID) {
		return models.Class{}, appErrors.Clone(appErrors.ErrConflict, "class id already used in this semester")
	}
	days := make([]string, 0, len(req.Days))
	for _, day := range req.Days {
		days = append(days, models.Weekdays[models.WeekdayIndex(day)])
	}
	return models.Class{
		ID:         classID,
		CourseID:   course.ID,
		Type:       models.SessionType(req.Type),
		Instructor: strings.TrimSpace(req.Instructor),
		Room:       strings.TrimSpace(req.Room),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Days:       days,
	}, nil
}

// uniqueID draws identifiers until taken reports false.
func (s *SemesterService) uniqueID(taken func(string) bool) string {
	for {
		id := s.deps.newID()
		if id != "" && !taken(id) {
			return id
		}
	}
}

func checkSessionWindow(req dto.ClassRequest) error {
	start, err := models.ParseClockTime(req.StartTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := models.ParseClockTime(req.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if end <= start {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return nil
}

// validateSemesterShape checks identifier uniqueness and the courseId
// back-references of a caller-supplied semester.
func validateSemesterShape(sem *models.Semester) error {
	if strings.TrimSpace(sem.ID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "semester id is required")
	}
	if strings.TrimSpace(sem.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "semester name is required")
	}
	courseIDs := make(map[string]struct{}, len(sem.Courses))
	classIDs := make(map[string]struct{})
	for _, course := range sem.Courses {
		if course.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "course id is required")
		}
		if _, dup := courseIDs[course.ID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course id %s is repeated", course.ID))
		}
		courseIDs[course.ID] = struct{}{}
		for _, cls := range course.Classes {
			if cls.CourseID != course.ID {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("class %s does not belong to course %s", cls.ID, course.ID))
			}
			if _, dup := classIDs[cls.ID]; dup || cls.ID == "" {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("class id %q is missing or repeated in the semester", cls.ID))
			}
			classIDs[cls.ID] = struct{}{}
		}
	}
	timetableIDs := make(map[string]struct{}, len(sem.Timetables))
	for _, tt := range sem.Timetables {
		if _, dup := timetableIDs[tt.ID]; dup || tt.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("timetable id %q is missing or repeated", tt.ID))
		}
		timetableIDs[tt.ID] = struct{}{}
	}
	return nil
}

func findSemester(semesters []models.Semester, id string) int {
	for i := range semesters {
		if semesters[i].ID == id {
			return i
		}
	}
	return -1
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
