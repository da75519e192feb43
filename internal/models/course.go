package models

import (
	"strconv"
	"time"
	"unicode/utf8"

	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

// Course constraints.
const (
	MinTitleRunes       = 50
	MaxTitleRunes       = 256
	MaxDescriptionRunes = 512
	MaxNoteRunes        = 256
)

// ReviewWaitingPeriod is how long after confirmation a learner has to wait before reviewing.
const ReviewWaitingPeriod = 30 * 24 * time.Hour

// Course is the aggregate root of the tutoring lifecycle. A tutor is attached exactly when the
// course is in progress, confirmed or refunded.
type Course struct {
	ID                 CourseID           `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Note               string             `json:"note"`
	Status             CourseStatus       `json:"status"`
	LearningMode       LearningMode       `json:"learning_mode"`
	SessionFee         Fee                `json:"session_fee"`
	ChargeFee          Fee                `json:"charge_fee"`
	Session            Session            `json:"session"`
	Address            Address            `json:"address"`
	LearnerDetail      LearnerDetail      `json:"learner_detail"`
	TutorSpecification TutorSpecification `json:"tutor_specification"`
	SubjectID          SubjectID          `json:"subject_id"`
	TutorID            *TutorID           `json:"tutor_id,omitempty"`
	Review             *Review            `json:"review,omitempty"`
	ConfirmedAt        *time.Time         `json:"confirmed_at,omitempty"`
	Version            int                `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	eventRecorder
}

// CourseParams carries the learner-editable fields of a course.
type CourseParams struct {
	Title              string
	Description        string
	LearningMode       LearningMode
	SessionFee         Fee
	ChargeFee          Fee
	Session            Session
	Address            Address
	LearnerDetail      LearnerDetail
	TutorSpecification TutorSpecification
	SubjectID          SubjectID
}

func (p CourseParams) validate() error {
	titleLen := utf8.RuneCountInString(p.Title)
	if titleLen < MinTitleRunes || titleLen > MaxTitleRunes {
		return appErrors.ErrTitleLengthOutOfRange
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionRunes {
		return appErrors.ErrDescriptionLengthOutOfRange
	}
	return nil
}

// NewCourse creates a course awaiting administrator approval. The title is validated and stored as given.
func NewCourse(params CourseParams) (*Course, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	c := &Course{
		ID:     NewCourseID(),
		Status: CourseStatusPendingApproval,
	}
	c.apply(params)
	c.record(EventCourseCreated, c.ID.String(), c.basePayload())
	return c, nil
}

// UpdateCourse overwrites every learner-editable field.
func (c *Course) UpdateCourse(params CourseParams) error {
	if err := params.validate(); err != nil {
		return err
	}
	c.apply(params)
	c.record(EventCourseUpdated, c.ID.String(), c.basePayload())
	return nil
}

func (c *Course) apply(p CourseParams) {
	c.Title = p.Title
	c.Description = p.Description
	c.LearningMode = p.LearningMode
	c.SessionFee = p.SessionFee
	c.ChargeFee = p.ChargeFee
	c.Session = p.Session
	c.Address = p.Address
	c.LearnerDetail = p.LearnerDetail
	c.TutorSpecification = p.TutorSpecification
	c.SubjectID = p.SubjectID
}

// AssignTutor attaches tutorID and moves the course in progress. Learners can not tutor their own course.
func (c *Course) AssignTutor(tutorID TutorID) error {
	if tutorID.SameAs(c.LearnerDetail.LearnerID) {
		return appErrors.ErrTutorAndLearnerShouldNotBeTheSame
	}
	id := tutorID
	c.TutorID = &id
	c.Status = CourseStatusInProgress
	payload := c.basePayload()
	payload[PayloadTutorID] = tutorID.String()
	c.record(EventTutorAssigned, c.ID.String(), payload)
	return nil
}

// ConfirmCourse marks an in-progress course as confirmed by the learner.
func (c *Course) ConfirmCourse(now time.Time) error {
	if c.Status != CourseStatusInProgress || c.TutorID == nil {
		return appErrors.ErrHaveNotBeenAssigned
	}
	confirmedAt := now
	c.Status = CourseStatusConfirmed
	c.ConfirmedAt = &confirmedAt
	c.record(EventCourseConfirmed, c.ID.String(), c.tutorPayload())
	return nil
}

// ReviewCourse records the learner's review, or revises an existing one.
func (c *Course) ReviewCourse(rate int, detail, reviewer string, now time.Time) error {
	if c.Status != CourseStatusConfirmed {
		return appErrors.ErrNotBeenConfirmed
	}
	if c.ConfirmedAt == nil || now.Before(c.ConfirmedAt.Add(ReviewWaitingPeriod)) {
		return appErrors.ErrReviewNotAllowedYet
	}
	review, err := NewReview(rate, detail, reviewer, now)
	if err != nil {
		return err
	}
	if c.Review != nil {
		review.CreatedAt = c.Review.CreatedAt
		review.CreatedBy = c.Review.CreatedBy
	}
	c.Review = review
	payload := c.tutorPayload()
	payload[PayloadRate] = strconv.Itoa(rate)
	c.record(EventCourseReviewed, c.ID.String(), payload)
	return nil
}

// DissociateTutor detaches the current tutor and reopens the course. A confirmation and review
// belong to the tutor's engagement, so both are cleared.
func (c *Course) DissociateTutor(note string) error {
	if !c.Status.AllowsDissociation() {
		return appErrors.ErrStatusInvalidForUnassignment
	}
	if c.TutorID == nil {
		return appErrors.ErrHaveNotBeenAssigned
	}
	payload := c.tutorPayload()
	payload[PayloadNote] = note
	c.TutorID = nil
	c.Review = nil
	c.ConfirmedAt = nil
	c.Note = note
	c.Status = CourseStatusAvailable
	c.record(EventTutorDissociated, c.ID.String(), payload)
	return nil
}

// RefundCourse refunds a confirmed course.
func (c *Course) RefundCourse(note string) error {
	if c.Status != CourseStatusConfirmed {
		return appErrors.ErrCourseUnavailable
	}
	c.Status = CourseStatusRefunded
	c.Note = note
	payload := c.tutorPayload()
	payload[PayloadNote] = note
	c.record(EventCourseRefunded, c.ID.String(), payload)
	return nil
}

// SetCourseStatus is the administrative override; it does not touch the tutor. An override is
// always recorded, even when the status is unchanged.
func (c *Course) SetCourseStatus(status CourseStatus) {
	payload := c.tutorPayload()
	payload[PayloadPreviousStatus] = string(c.Status)
	payload[PayloadStatus] = string(status)
	c.Status = status
	c.record(EventCourseStatusOverridden, c.ID.String(), payload)
}

func (c *Course) basePayload() map[string]string {
	payload := map[string]string{
		PayloadCourseID: c.ID.String(),
		PayloadTitle:    c.Title,
	}
	if c.LearnerDetail.LearnerID != nil {
		payload[PayloadLearnerID] = c.LearnerDetail.LearnerID.String()
	}
	return payload
}

func (c *Course) tutorPayload() map[string]string {
	payload := c.basePayload()
	if c.TutorID != nil {
		payload[PayloadTutorID] = c.TutorID.String()
	}
	return payload
}
