package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/weprep-api/internal/dto"
	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var courseColumnNames = strings.Split(strings.Join(strings.Fields(courseColumns), ""), ",")

type courseRowOption func(values []driver.Value)

func withStatus(status models.CourseStatus) courseRowOption {
	return func(values []driver.Value) { values[4] = string(status) }
}

func withTutor(id string) courseRowOption {
	return func(values []driver.Value) { values[24] = id }
}

func courseMockRows(id string, opts ...courseRowOption) *sqlmock.Rows {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	values := []driver.Value{
		id, strings.Repeat("t", models.MinTitleRunes), "desc", "", string(models.CourseStatusAvailable), string(models.LearningModeOnline),
		200000.0, "VND", 50000.0, "VND",
		90.0, "MINUTE", "WEEKLY",
		"Hanoi", "Ba Dinh", "1 Kim Ma",
		"Lan", "FEMALE", "0900000000", 1, "learner-1",
		"NONE", "OPTIONAL", "math", nil,
		nil, nil, nil, nil, nil, nil,
		nil, 3, now, now,
	}
	for _, opt := range opts {
		opt(values)
	}
	return sqlmock.NewRows(courseColumnNames).AddRow(values...)
}

func TestCourseRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(courseMockRows("course-1", withStatus(models.CourseStatusInProgress), withTutor("tutor-1")))

	course, err := repo.GetByID(context.Background(), "course-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusInProgress, course.Status)
	require.NotNil(t, course.TutorID)
	assert.Equal(t, models.TutorID("tutor-1"), *course.TutorID)
	require.NotNil(t, course.LearnerDetail.LearnerID)
	assert.Equal(t, models.UserID("learner-1"), *course.LearnerDetail.LearnerID)
	assert.Equal(t, 3, course.Version)
	assert.Nil(t, course.Review)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing", false)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE status = ANY($1) AND tutor_id = $2")).
		WithArgs(sqlmock.AnyArg(), "tutor-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE status = ANY($1) AND tutor_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs(sqlmock.AnyArg(), "tutor-1", 20, 0).
		WillReturnRows(courseMockRows("course-1", withStatus(models.CourseStatusConfirmed), withTutor("tutor-1")))

	courses, total, err := repo.List(context.Background(), dto.CourseFilter{
		Statuses: []models.CourseStatus{models.CourseStatusConfirmed},
		TutorID:  "tutor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, models.CourseStatusConfirmed, courses[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateDetectsStaleVersion(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCourseRepository(db)
	course := &models.Course{ID: "course-1", Status: models.CourseStatusAvailable, Version: 2}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), course)
	assert.True(t, errors.Is(err, appErrors.ErrConcurrencyConflict))
	assert.Equal(t, 2, course.Version)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), course)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Equal(t, 3, course.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRowRoundTripKeepsReview(t *testing.T) {
	confirmedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tutor := models.TutorID("tutor-1")
	course := &models.Course{
		ID:          "course-1",
		Status:      models.CourseStatusConfirmed,
		TutorID:     &tutor,
		ConfirmedAt: &confirmedAt,
		Review: &models.Review{
			Rate:      4,
			Detail:    "good",
			CreatedBy: "learner-1",
			CreatedAt: confirmedAt.Add(models.ReviewWaitingPeriod),
		},
	}
	restored := newCourseRow(course).toModel()
	require.NotNil(t, restored.Review)
	assert.Equal(t, 4, restored.Review.Rate)
	assert.Equal(t, course.Review.CreatedAt, restored.Review.CreatedAt)
	assert.Equal(t, confirmedAt, *restored.ConfirmedAt)
	assert.Equal(t, tutor, *restored.TutorID)
}
