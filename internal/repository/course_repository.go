package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/weprep-api/internal/dto"
	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

const courseColumns = `id, title, description, note, status, learning_mode,
       session_fee_amount, session_fee_currency, charge_fee_amount, charge_fee_currency,
       session_value, session_unit, session_frequency,
       address_city, address_district, address_detail,
       learner_name, learner_gender, learner_contact, learner_count, learner_id,
       tutor_gender, tutor_academic_level, subject_id, tutor_id,
       review_rate, review_detail, review_created_by, review_created_at, review_modified_by, review_modified_at,
       confirmed_at, version, created_at, updated_at`

type courseRow struct {
	ID                 string     `db:"id"`
	Title              string     `db:"title"`
	Description        string     `db:"description"`
	Note               string     `db:"note"`
	Status             string     `db:"status"`
	LearningMode       string     `db:"learning_mode"`
	SessionFeeAmount   float64    `db:"session_fee_amount"`
	SessionFeeCurrency string     `db:"session_fee_currency"`
	ChargeFeeAmount    float64    `db:"charge_fee_amount"`
	ChargeFeeCurrency  string     `db:"charge_fee_currency"`
	SessionValue       float64    `db:"session_value"`
	SessionUnit        string     `db:"session_unit"`
	SessionFrequency   string     `db:"session_frequency"`
	AddressCity        string     `db:"address_city"`
	AddressDistrict    string     `db:"address_district"`
	AddressDetail      string     `db:"address_detail"`
	LearnerName        string     `db:"learner_name"`
	LearnerGender      string     `db:"learner_gender"`
	LearnerContact     string     `db:"learner_contact"`
	LearnerCount       int        `db:"learner_count"`
	LearnerID          *string    `db:"learner_id"`
	TutorGender        string     `db:"tutor_gender"`
	TutorAcademicLevel string     `db:"tutor_academic_level"`
	SubjectID          string     `db:"subject_id"`
	TutorID            *string    `db:"tutor_id"`
	ReviewRate         *int       `db:"review_rate"`
	ReviewDetail       *string    `db:"review_detail"`
	ReviewCreatedBy    *string    `db:"review_created_by"`
	ReviewCreatedAt    *time.Time `db:"review_created_at"`
	ReviewModifiedBy   *string    `db:"review_modified_by"`
	ReviewModifiedAt   *time.Time `db:"review_modified_at"`
	ConfirmedAt        *time.Time `db:"confirmed_at"`
	Version            int        `db:"version"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func newCourseRow(c *models.Course) courseRow {
	row := courseRow{
		ID:                 c.ID.String(),
		Title:              c.Title,
		Description:        c.Description,
		Note:               c.Note,
		Status:             string(c.Status),
		LearningMode:       string(c.LearningMode),
		SessionFeeAmount:   c.SessionFee.Amount,
		SessionFeeCurrency: c.SessionFee.Currency,
		ChargeFeeAmount:    c.ChargeFee.Amount,
		ChargeFeeCurrency:  c.ChargeFee.Currency,
		SessionValue:       c.Session.Value,
		SessionUnit:        string(c.Session.Unit),
		SessionFrequency:   string(c.Session.Frequency),
		AddressCity:        c.Address.City,
		AddressDistrict:    c.Address.District,
		AddressDetail:      c.Address.Detail,
		LearnerName:        c.LearnerDetail.Name,
		LearnerGender:      string(c.LearnerDetail.Gender),
		LearnerContact:     c.LearnerDetail.ContactNumber,
		LearnerCount:       c.LearnerDetail.NumberOfLearners,
		TutorGender:        string(c.TutorSpecification.Gender),
		TutorAcademicLevel: string(c.TutorSpecification.AcademicLevel),
		SubjectID:          c.SubjectID.String(),
		ConfirmedAt:        c.ConfirmedAt,
		Version:            c.Version,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if c.LearnerDetail.LearnerID != nil {
		id := c.LearnerDetail.LearnerID.String()
		row.LearnerID = &id
	}
	if c.TutorID != nil {
		id := c.TutorID.String()
		row.TutorID = &id
	}
	if r := c.Review; r != nil {
		row.ReviewRate = &r.Rate
		row.ReviewDetail = &r.Detail
		row.ReviewCreatedBy = &r.CreatedBy
		row.ReviewCreatedAt = &r.CreatedAt
		row.ReviewModifiedBy = &r.ModifiedBy
		row.ReviewModifiedAt = &r.ModifiedAt
	}
	return row
}

func (row courseRow) toModel() *models.Course {
	c := &models.Course{
		ID:           models.CourseID(row.ID),
		Title:        row.Title,
		Description:  row.Description,
		Note:         row.Note,
		Status:       models.CourseStatus(row.Status),
		LearningMode: models.LearningMode(row.LearningMode),
		SessionFee:   models.Fee{Amount: row.SessionFeeAmount, Currency: row.SessionFeeCurrency},
		ChargeFee:    models.Fee{Amount: row.ChargeFeeAmount, Currency: row.ChargeFeeCurrency},
		Session: models.Session{
			Value:     row.SessionValue,
			Unit:      models.DurationUnit(row.SessionUnit),
			Frequency: models.SessionFrequency(row.SessionFrequency),
		},
		Address: models.Address{City: row.AddressCity, District: row.AddressDistrict, Detail: row.AddressDetail},
		LearnerDetail: models.LearnerDetail{
			Name:             row.LearnerName,
			Gender:           models.Gender(row.LearnerGender),
			ContactNumber:    row.LearnerContact,
			NumberOfLearners: row.LearnerCount,
		},
		TutorSpecification: models.TutorSpecification{
			Gender:        models.GenderOption(row.TutorGender),
			AcademicLevel: models.AcademicLevel(row.TutorAcademicLevel),
		},
		SubjectID:   models.SubjectID(row.SubjectID),
		ConfirmedAt: row.ConfirmedAt,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.LearnerID != nil {
		id := models.UserID(*row.LearnerID)
		c.LearnerDetail.LearnerID = &id
	}
	if row.TutorID != nil {
		id := models.TutorID(*row.TutorID)
		c.TutorID = &id
	}
	if row.ReviewRate != nil {
		c.Review = &models.Review{
			Rate:       *row.ReviewRate,
			Detail:     deref(row.ReviewDetail),
			CreatedBy:  deref(row.ReviewCreatedBy),
			ModifiedBy: deref(row.ReviewModifiedBy),
		}
		if row.ReviewCreatedAt != nil {
			c.Review.CreatedAt = *row.ReviewCreatedAt
		}
		if row.ReviewModifiedAt != nil {
			c.Review.ModifiedAt = *row.ReviewModifiedAt
		}
	}
	return c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

// CourseRepository persists course aggregates.
type CourseRepository struct {
	db sqlx.ExtContext
}

// NewCourseRepository constructs the repository over a database handle or a transaction.
func NewCourseRepository(db sqlx.ExtContext) *CourseRepository {
	return &CourseRepository{db: db}
}

// GetByID loads a course. Locking reads take a row lock until the surrounding transaction ends.
func (r *CourseRepository) GetByID(ctx context.Context, id models.CourseID, forUpdate bool) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1` + lockClause(forUpdate)
	var row courseRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id.String()); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// List returns courses matching the filter along with the total count.
func (r *CourseRepository) List(ctx context.Context, filter dto.CourseFilter) ([]*models.Course, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.LearnerID != "" {
		args = append(args, filter.LearnerID)
		conditions = append(conditions, fmt.Sprintf("learner_id = $%d", len(args)))
	}
	if filter.TutorID != "" {
		args = append(args, filter.TutorID)
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM courses`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM courses%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, courseColumns, where, len(args)-1, len(args))

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	courses := make([]*models.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toModel())
	}
	return courses, total, nil
}

// Insert stores a new course.
func (r *CourseRepository) Insert(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (id, title, description, note, status, learning_mode,
	session_fee_amount, session_fee_currency, charge_fee_amount, charge_fee_currency,
	session_value, session_unit, session_frequency,
	address_city, address_district, address_detail,
	learner_name, learner_gender, learner_contact, learner_count, learner_id,
	tutor_gender, tutor_academic_level, subject_id, tutor_id,
	review_rate, review_detail, review_created_by, review_created_at, review_modified_by, review_modified_at,
	confirmed_at, version, created_at, updated_at)
VALUES (:id, :title, :description, :note, :status, :learning_mode,
	:session_fee_amount, :session_fee_currency, :charge_fee_amount, :charge_fee_currency,
	:session_value, :session_unit, :session_frequency,
	:address_city, :address_district, :address_detail,
	:learner_name, :learner_gender, :learner_contact, :learner_count, :learner_id,
	:tutor_gender, :tutor_academic_level, :subject_id, :tutor_id,
	:review_rate, :review_detail, :review_created_by, :review_created_at, :review_modified_by, :review_modified_at,
	:confirmed_at, :version, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, newCourseRow(course)); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// Update writes the course if nobody changed it since it was read, then bumps its version.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (int64, error) {
	const query = `UPDATE courses SET title = :title, description = :description, note = :note, status = :status,
	learning_mode = :learning_mode,
	session_fee_amount = :session_fee_amount, session_fee_currency = :session_fee_currency,
	charge_fee_amount = :charge_fee_amount, charge_fee_currency = :charge_fee_currency,
	session_value = :session_value, session_unit = :session_unit, session_frequency = :session_frequency,
	address_city = :address_city, address_district = :address_district, address_detail = :address_detail,
	learner_name = :learner_name, learner_gender = :learner_gender, learner_contact = :learner_contact,
	learner_count = :learner_count, learner_id = :learner_id,
	tutor_gender = :tutor_gender, tutor_academic_level = :tutor_academic_level,
	subject_id = :subject_id, tutor_id = :tutor_id,
	review_rate = :review_rate, review_detail = :review_detail, review_created_by = :review_created_by,
	review_created_at = :review_created_at, review_modified_by = :review_modified_by, review_modified_at = :review_modified_at,
	confirmed_at = :confirmed_at, updated_at = :updated_at, version = version + 1
WHERE id = :id AND version = :version`
	result, err := sqlx.NamedExecContext(ctx, r.db, query, newCourseRow(course))
	if err != nil {
		return 0, fmt.Errorf("update course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check updated course rows: %w", err)
	}
	if affected == 0 {
		return 0, appErrors.Clone(appErrors.ErrConcurrencyConflict, "course was modified by another request")
	}
	course.Version++
	return affected, nil
}
