package dto

import "github.com/noah-isme/weprep-api/internal/models"

// FeePayload describes an amount in a currency; the currency defaults to VND.
type FeePayload struct {
	Amount   float64 `json:"amount" validate:"gte=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

// SessionPayload describes a session duration and cadence.
type SessionPayload struct {
	Value     float64 `json:"value" validate:"required,gt=0"`
	Unit      string  `json:"unit" validate:"omitempty,oneof=MINUTE HOUR"`
	Frequency string  `json:"frequency" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY CUSTOM"`
}

// AddressPayload locates offline sessions. It is required unless the course is online.
type AddressPayload struct {
	City     string `json:"city" validate:"omitempty,max=128"`
	District string `json:"district" validate:"omitempty,max=128"`
	Detail   string `json:"detail" validate:"omitempty,max=256"`
}

// IsEmpty reports whether no address component was sent.
func (a AddressPayload) IsEmpty() bool {
	return a.City == "" && a.District == "" && a.Detail == ""
}

// LearnerPayload describes who attends the course.
type LearnerPayload struct {
	Name             string `json:"name" validate:"required,max=128"`
	Gender           string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	ContactNumber    string `json:"contact_number" validate:"required,max=32"`
	NumberOfLearners int    `json:"number_of_learners" validate:"omitempty,min=1,max=100"`
}

// TutorPreferencePayload is the learner's soft preference about the tutor.
type TutorPreferencePayload struct {
	Gender        string `json:"gender" validate:"omitempty,oneof=NONE MALE FEMALE"`
	AcademicLevel string `json:"academic_level" validate:"omitempty,oneof=OPTIONAL UNDERGRADUATE GRADUATED LECTURER"`
}

// CreateCourseRequest is the payload for posting a new course.
type CreateCourseRequest struct {
	Title              string                 `json:"title" validate:"required"`
	Description        string                 `json:"description"`
	LearningMode       string                 `json:"learning_mode" validate:"required,oneof=ONLINE OFFLINE HYBRID"`
	SessionFee         FeePayload             `json:"session_fee"`
	ChargeFee          FeePayload             `json:"charge_fee"`
	Session            SessionPayload         `json:"session"`
	Address            AddressPayload         `json:"address"`
	LearnerDetail      LearnerPayload         `json:"learner_detail"`
	TutorSpecification TutorPreferencePayload `json:"tutor_specification"`
	SubjectID          string                 `json:"subject_id" validate:"required"`
}

// UpdateCourseRequest replaces all learner-editable fields.
type UpdateCourseRequest = CreateCourseRequest

// CourseFilter narrows course listings.
type CourseFilter struct {
	Statuses  []models.CourseStatus
	LearnerID string
	TutorID   string
	SubjectID string
	Limit     int
	Offset    int
}

// NoteRequest carries the administrator note for dissociation and refunds.
type NoteRequest struct {
	Note string `json:"note" validate:"max=256"`
}

// AssignTutorRequest names the tutor to assign.
type AssignTutorRequest struct {
	TutorID string `json:"tutor_id" validate:"required"`
}

// ReviewCourseRequest is the learner's review.
type ReviewCourseRequest struct {
	Rate   int    `json:"rate"`
	Detail string `json:"detail"`
}

// SetCourseStatusRequest overrides a course status.
type SetCourseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING_APPROVAL AVAILABLE IN_PROGRESS CONFIRMED REFUNDED CANCELLED"`
}

// CourseResponse renders a course with derived fields.
type CourseResponse struct {
	*models.Course
	SessionDisplay string `json:"session_display"`
}

// NewCourseResponse wraps a course for output.
func NewCourseResponse(course *models.Course) CourseResponse {
	return CourseResponse{Course: course, SessionDisplay: course.Session.DisplayValue()}
}
