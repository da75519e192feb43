package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

const teachingRequestColumns = `id, tutor_id, course_id, description, status, version, created_at, updated_at`

type teachingRequestRow struct {
	ID          string    `db:"id"`
	TutorID     string    `db:"tutor_id"`
	CourseID    string    `db:"course_id"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	Version     int       `db:"version"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func newTeachingRequestRow(r *models.TeachingRequest) teachingRequestRow {
	return teachingRequestRow{
		ID:          r.ID.String(),
		TutorID:     r.TutorID.String(),
		CourseID:    r.CourseID.String(),
		Description: r.Description,
		Status:      string(r.Status),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (row teachingRequestRow) toModel() *models.TeachingRequest {
	return &models.TeachingRequest{
		ID:          models.TeachingRequestID(row.ID),
		TutorID:     models.TutorID(row.TutorID),
		CourseID:    models.CourseID(row.CourseID),
		Description: row.Description,
		Status:      models.TeachingRequestStatus(row.Status),
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// TeachingRequestRepository persists teaching requests.
type TeachingRequestRepository struct {
	db sqlx.ExtContext
}

// NewTeachingRequestRepository constructs the repository.
func NewTeachingRequestRepository(db sqlx.ExtContext) *TeachingRequestRepository {
	return &TeachingRequestRepository{db: db}
}

// GetByCourseAndTutor returns the tutor's request for the course.
func (r *TeachingRequestRepository) GetByCourseAndTutor(ctx context.Context, courseID models.CourseID, tutorID models.TutorID, forUpdate bool) (*models.TeachingRequest, error) {
	query := `SELECT ` + teachingRequestColumns + ` FROM teaching_requests WHERE course_id = $1 AND tutor_id = $2` + lockClause(forUpdate)
	var row teachingRequestRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, courseID.String(), tutorID.String()); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// ListByCourse returns every request made for the course.
func (r *TeachingRequestRepository) ListByCourse(ctx context.Context, courseID models.CourseID, forUpdate bool) ([]*models.TeachingRequest, error) {
	query := `SELECT ` + teachingRequestColumns + ` FROM teaching_requests WHERE course_id = $1 ORDER BY created_at ASC` + lockClause(forUpdate)
	return r.list(ctx, "list teaching requests by course", query, courseID.String())
}

// ListByTutor returns every request made by the tutor, newest first.
func (r *TeachingRequestRepository) ListByTutor(ctx context.Context, tutorID models.TutorID) ([]*models.TeachingRequest, error) {
	const query = `SELECT ` + teachingRequestColumns + ` FROM teaching_requests WHERE tutor_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list teaching requests by tutor", query, tutorID.String())
}

func (r *TeachingRequestRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*models.TeachingRequest, error) {
	var rows []teachingRequestRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	requests := make([]*models.TeachingRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toModel())
	}
	return requests, nil
}

// Insert stores a new request.
func (r *TeachingRequestRepository) Insert(ctx context.Context, request *models.TeachingRequest) error {
	const query = `INSERT INTO teaching_requests (id, tutor_id, course_id, description, status, version, created_at, updated_at)
VALUES (:id, :tutor_id, :course_id, :description, :status, :version, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, newTeachingRequestRow(request)); err != nil {
		return fmt.Errorf("insert teaching request: %w", err)
	}
	return nil
}

// Update writes the request status with an optimistic version check.
func (r *TeachingRequestRepository) Update(ctx context.Context, request *models.TeachingRequest) (int64, error) {
	const query = `UPDATE teaching_requests SET description = :description, status = :status, updated_at = :updated_at, version = version + 1
WHERE id = :id AND version = :version`
	result, err := sqlx.NamedExecContext(ctx, r.db, query, newTeachingRequestRow(request))
	if err != nil {
		return 0, fmt.Errorf("update teaching request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check updated teaching request rows: %w", err)
	}
	if affected == 0 {
		return 0, appErrors.Clone(appErrors.ErrConcurrencyConflict, "teaching request was modified by another request")
	}
	request.Version++
	return affected, nil
}
