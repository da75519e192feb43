package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/weprep-api/internal/models"
)

// TutorRepository reads tutor profiles.
type TutorRepository struct {
	db sqlx.ExtContext
}

// NewTutorRepository constructs the repository.
func NewTutorRepository(db sqlx.ExtContext) *TutorRepository {
	return &TutorRepository{db: db}
}

// GetByID loads a tutor, returning sql.ErrNoRows when it does not exist.
func (r *TutorRepository) GetByID(ctx context.Context, id models.TutorID) (*models.Tutor, error) {
	const query = `SELECT id, user_id, full_name, status, academic_level, university, created_at, updated_at FROM tutors WHERE id = $1`
	var tutor models.Tutor
	if err := sqlx.GetContext(ctx, r.db, &tutor, query, id.String()); err != nil {
		return nil, err
	}
	return &tutor, nil
}
