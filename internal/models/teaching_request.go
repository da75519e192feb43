package models

import "time"

// TeachingRequestStatus is the outcome of a tutor's request to teach a course.
type TeachingRequestStatus string

const (
	TeachingRequestStatusInProgress TeachingRequestStatus = "IN_PROGRESS"
	TeachingRequestStatusApproved   TeachingRequestStatus = "APPROVED"
	TeachingRequestStatusDenied     TeachingRequestStatus = "DENIED"
)

// Descriptions shown to the tutor for each request outcome.
const (
	InProgressDescription    = "The request is in progress, please wait for the administrator's approval"
	ApprovedDescription      = "The request has been approved. Please check course's contact information as soon as possible"
	DefaultCancelDescription = "The request has been cancelled"
)

// TeachingRequest is a tutor's application to teach a course.
type TeachingRequest struct {
	ID          TeachingRequestID     `json:"id"`
	TutorID     TutorID               `json:"tutor_id"`
	CourseID    CourseID              `json:"course_id"`
	Description string                `json:"description"`
	Status      TeachingRequestStatus `json:"status"`
	Version     int                   `json:"version"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`

	eventRecorder
}

// NewTeachingRequest opens a pending request from tutorID for courseID.
func NewTeachingRequest(tutorID TutorID, courseID CourseID) *TeachingRequest {
	r := &TeachingRequest{
		ID:          NewTeachingRequestID(),
		TutorID:     tutorID,
		CourseID:    courseID,
		Description: InProgressDescription,
		Status:      TeachingRequestStatusInProgress,
	}
	r.record(EventTeachingRequestCreated, r.ID.String(), map[string]string{
		PayloadCourseID: courseID.String(),
		PayloadTutorID:  tutorID.String(),
	})
	return r
}

// Approve accepts the request.
func (r *TeachingRequest) Approve() {
	r.Status = TeachingRequestStatusApproved
	r.Description = ApprovedDescription
}

// Cancel denies the request. An empty description falls back to DefaultCancelDescription.
func (r *TeachingRequest) Cancel(description string) {
	if description == "" {
		description = DefaultCancelDescription
	}
	r.Status = TeachingRequestStatusDenied
	r.Description = description
}
