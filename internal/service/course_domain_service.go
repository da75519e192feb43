package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

type courseRepository interface {
	GetCourseByID(ctx context.Context, id models.CourseID) (*models.Course, error)
	AddCourse(course *models.Course)
}

type tutorReader interface {
	GetTutorByID(ctx context.Context, id models.TutorID) (*models.Tutor, error)
}

type teachingRequestRepository interface {
	GetTeachingRequest(ctx context.Context, courseID models.CourseID, tutorID models.TutorID) (*models.TeachingRequest, error)
	ListTeachingRequestsByCourse(ctx context.Context, courseID models.CourseID) ([]*models.TeachingRequest, error)
	InsertTeachingRequest(ctx context.Context, request *models.TeachingRequest) error
}

// CourseDomainService coordinates operations spanning a course, its tutor and the teaching requests.
// Changes are tracked by the repositories and persisted when the caller saves the unit of work.
type CourseDomainService struct {
	courses  courseRepository
	tutors   tutorReader
	requests teachingRequestRepository
	logger   *zap.Logger
}

// NewCourseDomainService constructs the domain service.
func NewCourseDomainService(courses courseRepository, tutors tutorReader, requests teachingRequestRepository, logger *zap.Logger) *CourseDomainService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseDomainService{courses: courses, tutors: tutors, requests: requests, logger: logger}
}

// CreateTeachingRequest records tutorID's request to teach an available course.
func (s *CourseDomainService) CreateTeachingRequest(ctx context.Context, courseID models.CourseID, tutorID models.TutorID) (*models.TeachingRequest, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusAvailable {
		return nil, appErrors.ErrCourseUnavailable
	}
	if _, err := s.loadTutor(ctx, tutorID); err != nil {
		return nil, err
	}

	existing, err := s.requests.GetTeachingRequest(ctx, courseID, tutorID)
	switch {
	case err == nil && existing != nil:
		return nil, appErrors.ErrTeachingRequestAlreadyExist
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to check teaching request")
	}

	request := models.NewTeachingRequest(tutorID, courseID)
	if err := s.requests.InsertTeachingRequest(ctx, request); err != nil {
		return nil, appErrors.Internal(err, "failed to add teaching request")
	}
	s.logger.Debug("teaching request created",
		zap.String("course_id", courseID.String()),
		zap.String("tutor_id", tutorID.String()),
	)
	return request, nil
}

// AssignTutorToCourse assigns the tutor and settles every teaching request of the course:
// the tutor's own request is approved and all others are denied.
func (s *CourseDomainService) AssignTutorToCourse(ctx context.Context, courseID models.CourseID, tutorID models.TutorID) error {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if _, err := s.loadTutor(ctx, tutorID); err != nil {
		return err
	}
	if err := course.AssignTutor(tutorID); err != nil {
		return err
	}

	requests, err := s.requests.ListTeachingRequestsByCourse(ctx, courseID)
	if err != nil {
		return appErrors.Internal(err, "failed to list teaching requests")
	}
	approved := 0
	for _, request := range requests {
		if request.TutorID == tutorID {
			request.Approve()
			approved++
			continue
		}
		request.Cancel("")
	}
	s.logger.Debug("tutor assigned",
		zap.String("course_id", courseID.String()),
		zap.String("tutor_id", tutorID.String()),
		zap.Int("requests", len(requests)),
		zap.Int("approved", approved),
	)
	return nil
}

// DissociateTutor removes the current tutor and denies their teaching request with note.
func (s *CourseDomainService) DissociateTutor(ctx context.Context, courseID models.CourseID, note string) error {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return err
	}
	var previous models.TutorID
	if course.TutorID != nil {
		previous = *course.TutorID
	}
	if err := course.DissociateTutor(note); err != nil {
		return err
	}

	request, err := s.requests.GetTeachingRequest(ctx, courseID, previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Internal(err, "failed to load teaching request")
	}
	if request != nil {
		request.Cancel("")
	}
	return nil
}

func (s *CourseDomainService) loadCourse(ctx context.Context, id models.CourseID) (*models.Course, error) {
	course, err := s.courses.GetCourseByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *CourseDomainService) loadTutor(ctx context.Context, id models.TutorID) (*models.Tutor, error) {
	tutor, err := s.tutors.GetTutorByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTutorNotFound
		}
		return nil, appErrors.Internal(err, "failed to load tutor")
	}
	return tutor, nil
}
