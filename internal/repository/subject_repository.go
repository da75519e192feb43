package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/weprep-api/internal/models"
)

// SubjectRepository reads subjects.
type SubjectRepository struct {
	db sqlx.ExtContext
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db sqlx.ExtContext) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// GetByID loads a subject, returning sql.ErrNoRows when it does not exist.
func (r *SubjectRepository) GetByID(ctx context.Context, id models.SubjectID) (*models.Subject, error) {
	const query = `SELECT id, name, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := sqlx.GetContext(ctx, r.db, &subject, query, id.String()); err != nil {
		return nil, err
	}
	return &subject, nil
}
