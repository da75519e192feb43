package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
	"github.com/noah-isme/weprep-api/pkg/response"
)

type teachingRequestService interface {
	RequestToTeach(ctx context.Context, courseID models.CourseID, tutorID models.TutorID) (*models.TeachingRequest, error)
	ListTeachingRequests(ctx context.Context, courseID models.CourseID) ([]*models.TeachingRequest, error)
	ListTutorTeachingRequests(ctx context.Context, tutorID models.TutorID) ([]*models.TeachingRequest, error)
}

// TeachingRequestHandler exposes the tutor application endpoints.
type TeachingRequestHandler struct {
	requests teachingRequestService
}

// NewTeachingRequestHandler constructs TeachingRequestHandler.
func NewTeachingRequestHandler(requests teachingRequestService) *TeachingRequestHandler {
	return &TeachingRequestHandler{requests: requests}
}

// Create godoc
// @Summary Apply to teach a course
// @Tags TeachingRequests
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/teaching-requests [post]
func (h *TeachingRequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.requests.RequestToTeach(c.Request.Context(), courseIDParam(c), models.TutorID(claims.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListByCourse godoc
// @Summary List teaching requests of a course
// @Tags TeachingRequests
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/teaching-requests [get]
func (h *TeachingRequestHandler) ListByCourse(c *gin.Context) {
	requests, err := h.requests.ListTeachingRequests(c.Request.Context(), courseIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ListByTutor godoc
// @Summary List a tutor's teaching requests
// @Tags TeachingRequests
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/teaching-requests [get]
func (h *TeachingRequestHandler) ListByTutor(c *gin.Context) {
	requests, err := h.requests.ListTutorTeachingRequests(c.Request.Context(), models.TutorID(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
