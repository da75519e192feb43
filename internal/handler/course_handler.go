package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/weprep-api/internal/dto"
	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
	"github.com/noah-isme/weprep-api/pkg/response"
)

type courseService interface {
	CreateCourse(ctx context.Context, req dto.CreateCourseRequest, actorID models.UserID, role models.UserRole) (*models.Course, error)
	UpdateCourse(ctx context.Context, id models.CourseID, req dto.UpdateCourseRequest, actor models.Actor) (*models.Course, error)
	GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error)
	ListCourses(ctx context.Context, filter dto.CourseFilter) ([]*models.Course, *models.Pagination, error)
	AssignTutor(ctx context.Context, courseID models.CourseID, req dto.AssignTutorRequest) (*models.Course, error)
	DissociateTutor(ctx context.Context, courseID models.CourseID, req dto.NoteRequest) (*models.Course, error)
	ConfirmCourse(ctx context.Context, courseID models.CourseID, actor models.Actor) (*models.Course, error)
	ReviewCourse(ctx context.Context, courseID models.CourseID, req dto.ReviewCourseRequest, actor models.Actor) (*models.Course, error)
	RefundCourse(ctx context.Context, courseID models.CourseID, req dto.NoteRequest) (*models.Course, error)
	SetCourseStatus(ctx context.Context, courseID models.CourseID, req dto.SetCourseStatusRequest) (*models.Course, error)
}

// CourseHandler exposes course lifecycle endpoints.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Create godoc
// @Summary Post a new course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload"))
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), req, claims.Actor(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCourseResponse(course))
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param learnerId query string false "Filter by learner"
// @Param tutorId query string false "Filter by tutor"
// @Param subjectId query string false "Filter by subject"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := dto.CourseFilter{
		LearnerID: c.Query("learnerId"),
		TutorID:   c.Query("tutorId"),
		SubjectID: c.Query("subjectId"),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if s := strings.ToUpper(strings.TrimSpace(raw)); s != "" {
			filter.Statuses = append(filter.Statuses, models.CourseStatus(s))
		}
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	courses, pagination, err := h.courses.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.NewCourseResponse(course))
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), courseIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCourseResponse(course), nil)
}

// Update godoc
// @Summary Replace the editable fields of a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload"))
		return
	}
	h.respond(c)(h.courses.UpdateCourse(c.Request.Context(), courseIDParam(c), req, claims.Principal()))
}

// Assign godoc
// @Summary Assign a tutor to a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.AssignTutorRequest true "Tutor"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assign [post]
func (h *CourseHandler) Assign(c *gin.Context) {
	var req dto.AssignTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload"))
		return
	}
	h.respond(c)(h.courses.AssignTutor(c.Request.Context(), courseIDParam(c), req))
}

// Dissociate godoc
// @Summary Remove the tutor from a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.NoteRequest false "Note"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/dissociate [post]
func (h *CourseHandler) Dissociate(c *gin.Context) {
	req, ok := bindNote(c)
	if !ok {
		return
	}
	h.respond(c)(h.courses.DissociateTutor(c.Request.Context(), courseIDParam(c), req))
}

// Confirm godoc
// @Summary Confirm the assigned tutor
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/confirm [post]
func (h *CourseHandler) Confirm(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.respond(c)(h.courses.ConfirmCourse(c.Request.Context(), courseIDParam(c), claims.Principal()))
}

// Review godoc
// @Summary Review a confirmed course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ReviewCourseRequest true "Review"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/review [post]
func (h *CourseHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload"))
		return
	}
	h.respond(c)(h.courses.ReviewCourse(c.Request.Context(), courseIDParam(c), req, claims.Principal()))
}

// Refund godoc
// @Summary Refund a confirmed course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.NoteRequest false "Note"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/refund [post]
func (h *CourseHandler) Refund(c *gin.Context) {
	req, ok := bindNote(c)
	if !ok {
		return
	}
	h.respond(c)(h.courses.RefundCourse(c.Request.Context(), courseIDParam(c), req))
}

// SetStatus godoc
// @Summary Override a course status
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.SetCourseStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/status [patch]
func (h *CourseHandler) SetStatus(c *gin.Context) {
	var req dto.SetCourseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload"))
		return
	}
	h.respond(c)(h.courses.SetCourseStatus(c.Request.Context(), courseIDParam(c), req))
}

func (h *CourseHandler) respond(c *gin.Context) func(*models.Course, error) {
	return func(course *models.Course, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dto.NewCourseResponse(course), nil)
	}
}

func bindNote(c *gin.Context) (dto.NoteRequest, bool) {
	var req dto.NoteRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload"))
		return req, false
	}
	return req, true
}

func courseIDParam(c *gin.Context) models.CourseID {
	return models.CourseID(c.Param("id"))
}
