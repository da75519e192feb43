package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/models"
)

// EventPublisher receives domain events once their transaction has committed.
type EventPublisher interface {
	Publish(ctx context.Context, events []models.DomainEvent)
}

// ErrUnitOfWorkDone is returned when a finished unit of work is reused.
var ErrUnitOfWorkDone = errors.New("unit of work already completed")

// UnitOfWorkFactory opens transactional units of work.
type UnitOfWorkFactory struct {
	db        *sqlx.DB
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewUnitOfWorkFactory constructs the factory. publisher may be nil.
func NewUnitOfWorkFactory(db *sqlx.DB, publisher EventPublisher, logger *zap.Logger) *UnitOfWorkFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitOfWorkFactory{
		db:        db,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Begin starts a transaction and returns a unit of work bound to it.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx, err := f.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin unit of work: %w", err)
	}
	return &UnitOfWork{
		tx:         tx,
		courses:    NewCourseRepository(tx),
		requests:   NewTeachingRequestRepository(tx),
		tutors:     NewTutorRepository(tx),
		subjects:   NewSubjectRepository(tx),
		publisher:  f.publisher,
		logger:     f.logger,
		now:        f.now,
		courseMap:  map[models.CourseID]*trackedCourse{},
		requestMap: map[models.TeachingRequestID]*trackedRequest{},
	}, nil
}

type trackedCourse struct {
	course   *models.Course
	snapshot []byte
	isNew    bool
}

type trackedRequest struct {
	request  *models.TeachingRequest
	snapshot []byte
	isNew    bool
}

// UnitOfWork tracks the aggregates loaded or added during one command and writes them in a single transaction.
// Loaded aggregates are locked with SELECT ... FOR UPDATE.
type UnitOfWork struct {
	tx        *sqlx.Tx
	courses   *CourseRepository
	requests  *TeachingRequestRepository
	tutors    *TutorRepository
	subjects  *SubjectRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time

	courseMap    map[models.CourseID]*trackedCourse
	courseOrder  []models.CourseID
	requestMap   map[models.TeachingRequestID]*trackedRequest
	requestOrder []models.TeachingRequestID
	done         bool
}

// GetCourseByID returns the tracked course or loads and locks it.
func (u *UnitOfWork) GetCourseByID(ctx context.Context, id models.CourseID) (*models.Course, error) {
	if tracked, ok := u.courseMap[id]; ok {
		return tracked.course, nil
	}
	course, err := u.courses.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	u.trackCourse(course, false)
	return course, nil
}

// AddCourse schedules a new course for insertion.
func (u *UnitOfWork) AddCourse(course *models.Course) {
	u.trackCourse(course, true)
}

func (u *UnitOfWork) trackCourse(course *models.Course, isNew bool) {
	snapshot, _ := json.Marshal(course)
	u.courseMap[course.ID] = &trackedCourse{course: course, snapshot: snapshot, isNew: isNew}
	u.courseOrder = append(u.courseOrder, course.ID)
}

// GetTutorByID reads a tutor inside the transaction.
func (u *UnitOfWork) GetTutorByID(ctx context.Context, id models.TutorID) (*models.Tutor, error) {
	return u.tutors.GetByID(ctx, id)
}

// GetSubjectByID reads a subject inside the transaction.
func (u *UnitOfWork) GetSubjectByID(ctx context.Context, id models.SubjectID) (*models.Subject, error) {
	return u.subjects.GetByID(ctx, id)
}

// GetTeachingRequest returns the tutor's request for the course, tracked for saving.
func (u *UnitOfWork) GetTeachingRequest(ctx context.Context, courseID models.CourseID, tutorID models.TutorID) (*models.TeachingRequest, error) {
	for _, id := range u.requestOrder {
		tracked := u.requestMap[id]
		if tracked.request.CourseID == courseID && tracked.request.TutorID == tutorID {
			return tracked.request, nil
		}
	}
	request, err := u.requests.GetByCourseAndTutor(ctx, courseID, tutorID, true)
	if err != nil {
		return nil, err
	}
	return u.trackRequest(request, false), nil
}

// ListTeachingRequestsByCourse returns every request for the course, tracked for saving.
func (u *UnitOfWork) ListTeachingRequestsByCourse(ctx context.Context, courseID models.CourseID) ([]*models.TeachingRequest, error) {
	loaded, err := u.requests.ListByCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	out := make([]*models.TeachingRequest, 0, len(loaded))
	seen := make(map[models.TeachingRequestID]struct{}, len(loaded))
	for _, request := range loaded {
		out = append(out, u.trackRequest(request, false))
		seen[request.ID] = struct{}{}
	}
	for _, id := range u.requestOrder {
		tracked := u.requestMap[id]
		if _, ok := seen[id]; !ok && tracked.isNew && tracked.request.CourseID == courseID {
			out = append(out, tracked.request)
		}
	}
	return out, nil
}

// InsertTeachingRequest schedules a new request for insertion.
func (u *UnitOfWork) InsertTeachingRequest(ctx context.Context, request *models.TeachingRequest) error {
	if _, ok := u.requestMap[request.ID]; ok {
		return fmt.Errorf("teaching request %s already tracked", request.ID)
	}
	u.trackRequest(request, true)
	return nil
}

// trackRequest keeps the first tracked instance of an aggregate so every caller mutates the same value.
func (u *UnitOfWork) trackRequest(request *models.TeachingRequest, isNew bool) *models.TeachingRequest {
	if tracked, ok := u.requestMap[request.ID]; ok {
		return tracked.request
	}
	snapshot, _ := json.Marshal(request)
	u.requestMap[request.ID] = &trackedRequest{request: request, snapshot: snapshot, isNew: isNew}
	u.requestOrder = append(u.requestOrder, request.ID)
	return request
}

// SaveChanges writes new and modified aggregates, commits, and publishes the drained domain events.
// It returns the number of rows written.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	if u.done {
		return 0, ErrUnitOfWorkDone
	}
	now := u.now()
	rows := 0

	for _, id := range u.courseOrder {
		tracked := u.courseMap[id]
		n, err := u.saveCourse(ctx, tracked, now)
		if err != nil {
			u.abort()
			return 0, err
		}
		rows += n
	}
	for _, id := range u.requestOrder {
		tracked := u.requestMap[id]
		n, err := u.saveRequest(ctx, tracked, now)
		if err != nil {
			u.abort()
			return 0, err
		}
		rows += n
	}

	if err := u.tx.Commit(); err != nil {
		u.done = true
		return 0, fmt.Errorf("commit unit of work: %w", err)
	}
	u.done = true

	u.publish(ctx, now)
	return rows, nil
}

func (u *UnitOfWork) saveCourse(ctx context.Context, tracked *trackedCourse, now time.Time) (int, error) {
	course := tracked.course
	if tracked.isNew {
		if course.CreatedAt.IsZero() {
			course.CreatedAt = now
		}
		course.UpdatedAt = now
		if course.Version == 0 {
			course.Version = 1
		}
		if err := u.courses.Insert(ctx, course); err != nil {
			return 0, err
		}
		return 1, nil
	}
	current, _ := json.Marshal(course)
	if bytes.Equal(current, tracked.snapshot) && len(course.PendingEvents()) == 0 {
		return 0, nil
	}
	course.UpdatedAt = now
	affected, err := u.courses.Update(ctx, course)
	return int(affected), err
}

func (u *UnitOfWork) saveRequest(ctx context.Context, tracked *trackedRequest, now time.Time) (int, error) {
	request := tracked.request
	if tracked.isNew {
		if request.CreatedAt.IsZero() {
			request.CreatedAt = now
		}
		request.UpdatedAt = now
		if request.Version == 0 {
			request.Version = 1
		}
		if err := u.requests.Insert(ctx, request); err != nil {
			return 0, err
		}
		return 1, nil
	}
	current, _ := json.Marshal(request)
	if bytes.Equal(current, tracked.snapshot) {
		return 0, nil
	}
	request.UpdatedAt = now
	affected, err := u.requests.Update(ctx, request)
	return int(affected), err
}

func (u *UnitOfWork) publish(ctx context.Context, now time.Time) {
	var events []models.DomainEvent
	for _, id := range u.courseOrder {
		events = append(events, u.courseMap[id].course.PullEvents()...)
	}
	for _, id := range u.requestOrder {
		events = append(events, u.requestMap[id].request.PullEvents()...)
	}
	if len(events) == 0 {
		return
	}
	for i := range events {
		if events[i].OccurredAt.IsZero() {
			events[i].OccurredAt = now
		}
	}
	if u.publisher == nil {
		u.logger.Debug("no event publisher configured, dropping events", zap.Int("count", len(events)))
		return
	}
	u.publisher.Publish(ctx, events)
}

func (u *UnitOfWork) abort() {
	if err := u.Rollback(); err != nil {
		u.logger.Warn("rollback unit of work", zap.Error(err))
	}
}

// Rollback discards the transaction. It is a no-op once the unit of work has completed.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback unit of work: %w", err)
	}
	return nil
}
