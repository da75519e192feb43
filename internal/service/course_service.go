package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/dto"
	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

// Operation names used for logging and transition metrics.
const (
	OpCreateCourse    = "create_course"
	OpUpdateCourse    = "update_course"
	OpRequestToTeach  = "request_to_teach"
	OpAssignTutor     = "assign_tutor"
	OpDissociateTutor = "dissociate_tutor"
	OpConfirmCourse   = "confirm_course"
	OpReviewCourse    = "review_course"
	OpRefundCourse    = "refund_course"
	OpSetCourseStatus = "set_course_status"
)

// UnitOfWork is a transactional view over the course, tutor, subject and teaching request stores.
type UnitOfWork interface {
	courseRepository
	tutorReader
	teachingRequestRepository
	GetSubjectByID(ctx context.Context, id models.SubjectID) (*models.Subject, error)
	SaveChanges(ctx context.Context) (int, error)
	Rollback() error
}

// UnitOfWorkFactory opens a unit of work for one command.
type UnitOfWorkFactory func(ctx context.Context) (UnitOfWork, error)

type courseQueryRepository interface {
	GetByID(ctx context.Context, id models.CourseID, forUpdate bool) (*models.Course, error)
	List(ctx context.Context, filter dto.CourseFilter) ([]*models.Course, int, error)
}

type teachingRequestQueryRepository interface {
	ListByCourse(ctx context.Context, courseID models.CourseID, forUpdate bool) ([]*models.TeachingRequest, error)
	ListByTutor(ctx context.Context, tutorID models.TutorID) ([]*models.TeachingRequest, error)
}

// CourseService runs course commands inside a unit of work and serves course queries.
type CourseService struct {
	begin     UnitOfWorkFactory
	courses   courseQueryRepository
	requests  teachingRequestQueryRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCourseService constructs the course application service.
func NewCourseService(
	begin UnitOfWorkFactory,
	courses courseQueryRepository,
	requests teachingRequestQueryRepository,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		begin:     begin,
		courses:   courses,
		requests:  requests,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateCourse posts a new course. When the caller is a learner the course is linked to their account.
func (s *CourseService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest, actorID models.UserID, role models.UserRole) (*models.Course, error) {
	params, err := s.buildParams(req)
	if err != nil {
		return nil, err
	}
	if role == models.RoleLearner && actorID != "" {
		learner := actorID
		params.LearnerDetail.LearnerID = &learner
	}

	var course *models.Course
	err = s.execute(ctx, OpCreateCourse, "", func(uow UnitOfWork, _ *CourseDomainService) error {
		if err := ensureSubject(ctx, uow, params.SubjectID); err != nil {
			return err
		}
		created, err := models.NewCourse(params)
		if err != nil {
			return err
		}
		uow.AddCourse(created)
		course = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("course created", zap.String("course_id", course.ID.String()), zap.String("actor", actorID.String()))
	return course, nil
}

// UpdateCourse replaces the learner-editable fields of a course.
func (s *CourseService) UpdateCourse(ctx context.Context, id models.CourseID, req dto.UpdateCourseRequest, actor models.Actor) (*models.Course, error) {
	params, err := s.buildParams(req)
	if err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, OpUpdateCourse, id, func(uow UnitOfWork, course *models.Course) error {
		if err := authorizeOwner(actor, course); err != nil {
			return err
		}
		if params.SubjectID != course.SubjectID {
			if err := ensureSubject(ctx, uow, params.SubjectID); err != nil {
				return err
			}
		}
		params.LearnerDetail.LearnerID = course.LearnerDetail.LearnerID
		return course.UpdateCourse(params)
	})
}

// GetCourse returns a course, served from cache when possible.
func (s *CourseService) GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error) {
	if cached := s.cache.GetCourse(ctx, id); cached != nil {
		return cached, nil
	}
	course, err := s.courses.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	s.cache.SetCourse(ctx, course)
	return course, nil
}

// ListCourses returns a page of courses.
func (s *CourseService) ListCourses(ctx context.Context, filter dto.CourseFilter) ([]*models.Course, *models.Pagination, error) {
	for _, status := range filter.Statuses {
		if !status.IsValid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status "+string(status))
		}
	}
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, TotalCount: total}, nil
}

// RequestToTeach records the tutor's request to teach the course.
func (s *CourseService) RequestToTeach(ctx context.Context, courseID models.CourseID, tutorID models.TutorID) (*models.TeachingRequest, error) {
	var request *models.TeachingRequest
	err := s.execute(ctx, OpRequestToTeach, courseID, func(_ UnitOfWork, domain *CourseDomainService) error {
		created, err := domain.CreateTeachingRequest(ctx, courseID, tutorID)
		request = created
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// AssignTutor assigns the tutor and settles the course's teaching requests.
func (s *CourseService) AssignTutor(ctx context.Context, courseID models.CourseID, req dto.AssignTutorRequest) (*models.Course, error) {
	if err := s.validate(req, "invalid assignment payload"); err != nil {
		return nil, err
	}
	return s.runDomain(ctx, OpAssignTutor, courseID, func(domain *CourseDomainService) error {
		return domain.AssignTutorToCourse(ctx, courseID, models.TutorID(req.TutorID))
	})
}

// DissociateTutor removes the course's tutor.
func (s *CourseService) DissociateTutor(ctx context.Context, courseID models.CourseID, req dto.NoteRequest) (*models.Course, error) {
	if err := s.validate(req, "invalid note"); err != nil {
		return nil, err
	}
	return s.runDomain(ctx, OpDissociateTutor, courseID, func(domain *CourseDomainService) error {
		return domain.DissociateTutor(ctx, courseID, req.Note)
	})
}

// ConfirmCourse confirms an in-progress course.
func (s *CourseService) ConfirmCourse(ctx context.Context, courseID models.CourseID, actor models.Actor) (*models.Course, error) {
	return s.mutateCourse(ctx, OpConfirmCourse, courseID, func(_ UnitOfWork, course *models.Course) error {
		if err := authorizeOwner(actor, course); err != nil {
			return err
		}
		return course.ConfirmCourse(s.now())
	})
}

// ReviewCourse records the review of actor.
func (s *CourseService) ReviewCourse(ctx context.Context, courseID models.CourseID, req dto.ReviewCourseRequest, actor models.Actor) (*models.Course, error) {
	return s.mutateCourse(ctx, OpReviewCourse, courseID, func(_ UnitOfWork, course *models.Course) error {
		if err := authorizeOwner(actor, course); err != nil {
			return err
		}
		return course.ReviewCourse(req.Rate, req.Detail, actor.ID.String(), s.now())
	})
}

// RefundCourse refunds a confirmed course.
func (s *CourseService) RefundCourse(ctx context.Context, courseID models.CourseID, req dto.NoteRequest) (*models.Course, error) {
	if err := s.validate(req, "invalid note"); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, OpRefundCourse, courseID, func(_ UnitOfWork, course *models.Course) error {
		return course.RefundCourse(req.Note)
	})
}

// SetCourseStatus overrides the status of a course.
func (s *CourseService) SetCourseStatus(ctx context.Context, courseID models.CourseID, req dto.SetCourseStatusRequest) (*models.Course, error) {
	if err := s.validate(req, "invalid status"); err != nil {
		return nil, err
	}
	course, err := s.mutateCourse(ctx, OpSetCourseStatus, courseID, func(_ UnitOfWork, course *models.Course) error {
		course.SetCourseStatus(models.CourseStatus(req.Status))
		return nil
	})
	if err == nil {
		s.logger.Warn("course status overridden", zap.String("course_id", courseID.String()), zap.String("status", req.Status))
	}
	return course, err
}

// ListTeachingRequests returns the teaching requests of a course.
func (s *CourseService) ListTeachingRequests(ctx context.Context, courseID models.CourseID) ([]*models.TeachingRequest, error) {
	if _, err := s.courses.GetByID(ctx, courseID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	requests, err := s.requests.ListByCourse(ctx, courseID, false)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teaching requests")
	}
	return requests, nil
}

// ListTutorTeachingRequests returns the teaching requests made by a tutor.
func (s *CourseService) ListTutorTeachingRequests(ctx context.Context, tutorID models.TutorID) ([]*models.TeachingRequest, error) {
	requests, err := s.requests.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teaching requests")
	}
	return requests, nil
}

func (s *CourseService) runDomain(ctx context.Context, operation string, courseID models.CourseID, fn func(domain *CourseDomainService) error) (*models.Course, error) {
	var course *models.Course
	err := s.execute(ctx, operation, courseID, func(uow UnitOfWork, domain *CourseDomainService) error {
		if err := fn(domain); err != nil {
			return err
		}
		loaded, err := domain.loadCourse(ctx, courseID)
		course = loaded
		return err
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// authorizeOwner runs against the locked course, so it sees the owner as stored.
func authorizeOwner(actor models.Actor, course *models.Course) error {
	if !actor.MayManage(course) {
		return appErrors.Clone(appErrors.ErrForbidden, "course belongs to another learner")
	}
	return nil
}

func (s *CourseService) mutateCourse(ctx context.Context, operation string, courseID models.CourseID, fn func(uow UnitOfWork, course *models.Course) error) (*models.Course, error) {
	var course *models.Course
	err := s.execute(ctx, operation, courseID, func(uow UnitOfWork, domain *CourseDomainService) error {
		loaded, err := domain.loadCourse(ctx, courseID)
		if err != nil {
			return err
		}
		course = loaded
		return fn(uow, loaded)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// execute runs fn in a fresh unit of work and saves it. Nothing is written when fn fails.
func (s *CourseService) execute(ctx context.Context, operation string, courseID models.CourseID, fn func(uow UnitOfWork, domain *CourseDomainService) error) (err error) {
	defer func() {
		s.metrics.RecordTransition(operation, err)
		if err != nil {
			s.logger.Debug("course operation rejected",
				zap.String("operation", operation),
				zap.String("course_id", courseID.String()),
				zap.Error(err),
			)
		}
	}()

	uow, err := s.begin(ctx)
	if err != nil {
		return appErrors.Internal(err, "failed to begin unit of work")
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.String("operation", operation), zap.Error(rbErr))
		}
	}()

	if err := fn(uow, NewCourseDomainService(uow, uow, uow, s.logger)); err != nil {
		return err
	}

	rows, err := uow.SaveChanges(ctx)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrSaveFailed.Code, appErrors.ErrSaveFailed.Status, appErrors.ErrSaveFailed.Message)
	}
	if rows == 0 {
		return appErrors.ErrSaveFailed
	}
	if courseID != "" {
		s.cache.Invalidate(ctx, courseID)
	}
	return nil
}

func (s *CourseService) validate(payload interface{}, message string) error {
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func (s *CourseService) buildParams(req dto.CreateCourseRequest) (models.CourseParams, error) {
	if err := s.validate(req, "invalid course payload"); err != nil {
		return models.CourseParams{}, err
	}
	session, err := models.NewSession(req.Session.Value, models.DurationUnit(req.Session.Unit), models.SessionFrequency(req.Session.Frequency))
	if err != nil {
		return models.CourseParams{}, err
	}
	mode := models.LearningMode(req.LearningMode)
	var address models.Address
	if mode != models.LearningModeOnline || !req.Address.IsEmpty() {
		address, err = models.NewAddress(req.Address.City, req.Address.District, req.Address.Detail)
		if err != nil {
			return models.CourseParams{}, err
		}
	}
	return models.CourseParams{
		Title:        req.Title,
		Description:  req.Description,
		LearningMode: mode,
		SessionFee:   models.NewFee(req.SessionFee.Amount, req.SessionFee.Currency),
		ChargeFee:    models.NewFee(req.ChargeFee.Amount, req.ChargeFee.Currency),
		Session:      session,
		Address:      address,
		LearnerDetail: models.NewLearnerDetail(
			req.LearnerDetail.Name,
			models.Gender(req.LearnerDetail.Gender),
			req.LearnerDetail.ContactNumber,
			req.LearnerDetail.NumberOfLearners,
			nil,
		),
		TutorSpecification: models.NewTutorSpecification(
			models.GenderOption(req.TutorSpecification.Gender),
			models.AcademicLevel(req.TutorSpecification.AcademicLevel),
		),
		SubjectID: models.SubjectID(req.SubjectID),
	}, nil
}

func ensureSubject(ctx context.Context, uow UnitOfWork, id models.SubjectID) error {
	if _, err := uow.GetSubjectByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrSubjectNotFound
		}
		return appErrors.Internal(err, "failed to load subject")
	}
	return nil
}
