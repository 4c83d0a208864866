package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-builder/internal/dto"
	"github.com/noah-isme/timetable-builder/internal/models"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/response"
)

type semesterService interface {
	Revision() uint64
	ListSemesters(ctx context.Context) ([]models.Semester, error)
	GetSemester(ctx context.Context, id string) (*models.Semester, error)
	CreateSemester(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error)
	SaveSemester(ctx context.Context, semester models.Semester) (*models.Semester, error)
	RenameSemester(ctx context.Context, id string, req dto.RenameRequest) (*models.Semester, error)
	DeleteSemester(ctx context.Context, id string) error
	AddCourse(ctx context.Context, semesterID string, req dto.CourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, semesterID, courseID string) error
	AddClass(ctx context.Context, semesterID, courseID string, req dto.ClassRequest) (*models.Class, error)
	DeleteClass(ctx context.Context, semesterID, courseID, classID string) error
}

// SemesterHandler exposes semester, course and class endpoints.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc semesterService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	ctx, tracker := readContext(c)
	semesters, err := h.service.ListSemesters(ctx)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, map[string]interface{}{"total": len(semesters)})
}

// Get godoc
// @Summary Get semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	ctx, tracker := readContext(c)
	semester, err := h.service.GetSemester(ctx, c.Param("id"))
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester)
}

// Create godoc
// @Summary Create semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body dto.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	semester, err := h.service.CreateSemester(ctx, req)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Save godoc
// @Summary Upsert semester
// @Description Replaces the semester with the given id, or appends it when absent.
// @Tags Semesters
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param If-Match header string false "Expected collection revision"
// @Param payload body models.Semester true "Semester"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /semesters/{id} [put]
func (h *SemesterHandler) Save(c *gin.Context) {
	var semester models.Semester
	if err := c.ShouldBindJSON(&semester); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id := c.Param("id")
	if semester.ID == "" {
		semester.ID = id
	}
	if semester.ID != id {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester id does not match path"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	saved, err := h.service.SaveSemester(ctx, semester)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved)
}

// Rename godoc
// @Summary Rename semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body dto.RenameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [patch]
func (h *SemesterHandler) Rename(c *gin.Context) {
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
	semester, err := h.service.RenameSemester(ctx, c.Param("id"), req)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester)
}

// Delete godoc
// @Summary Delete semester
// @Tags Semesters
// @Param id path string true "Semester ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	err = h.service.DeleteSemester(ctx, c.Param("id"))
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddCourse godoc
// @Summary Add course to semester
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /semesters/{id}/courses [post]
func (h *SemesterHandler) AddCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.service.AddCourse(ctx, c.Param("id"), req)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// DeleteCourse godoc
// @Summary Delete course
// @Description Timetables keep their copies of the course's classes.
// @Tags Courses
// @Param id path string true "Semester ID"
// @Param courseId path string true "Course ID"
// @Success 204
// @Router /semesters/{id}/courses/{courseId} [delete]
func (h *SemesterHandler) DeleteCourse(c *gin.Context) {
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	err = h.service.DeleteCourse(ctx, c.Param("id"), c.Param("courseId"))
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddClass godoc
// @Summary Add class session to course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param courseId path string true "Course ID"
// @Param payload body dto.ClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /semesters/{id}/courses/{courseId}/classes [post]
func (h *SemesterHandler) AddClass(c *gin.Context) {
	var req dto.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.AddClass(ctx, c.Param("id"), c.Param("courseId"), req)
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// DeleteClass godoc
// @Summary Delete class session
// @Tags Courses
// @Param id path string true "Semester ID"
// @Param courseId path string true "Course ID"
// @Param classId path string true "Class ID"
// @Success 204
// @Router /semesters/{id}/courses/{courseId}/classes/{classId} [delete]
func (h *SemesterHandler) DeleteClass(c *gin.Context) {
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	err = h.service.DeleteClass(ctx, c.Param("id"), c.Param("courseId"), c.Param("classId"))
	stampRevision(c, tracker, h.service)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
