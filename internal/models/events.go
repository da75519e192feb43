package models

import "time"

// Domain event names published on the course events topic.
const (
	EventCourseCreated          = "course.created"
	EventCourseUpdated          = "course.updated"
	EventTutorAssigned          = "course.tutor_assigned"
	EventCourseConfirmed        = "course.confirmed"
	EventCourseReviewed         = "course.reviewed"
	EventTutorDissociated       = "course.tutor_dissociated"
	EventCourseRefunded         = "course.refunded"
	EventCourseStatusOverridden = "course.status_overridden"
	EventTeachingRequestCreated = "teaching_request.created"
)

// DomainEvent records something that happened to an aggregate. OccurredAt is stamped when the
// event is drained after commit if the aggregate left it empty.
type DomainEvent struct {
	Name        string            `json:"name"`
	AggregateID string            `json:"aggregate_id"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// Payload keys.
const (
	PayloadCourseID       = "course_id"
	PayloadTutorID        = "tutor_id"
	PayloadLearnerID      = "learner_id"
	PayloadNote           = "note"
	PayloadRate           = "rate"
	PayloadTitle          = "title"
	PayloadStatus         = "status"
	PayloadPreviousStatus = "previous_status"
)

type eventRecorder struct {
	events []DomainEvent
}

func (r *eventRecorder) record(name, aggregateID string, payload map[string]string) {
	r.events = append(r.events, DomainEvent{Name: name, AggregateID: aggregateID, Payload: payload})
}

// PullEvents returns the pending events and clears them.
func (r *eventRecorder) PullEvents() []DomainEvent {
	events := r.events
	r.events = nil
	return events
}

// PendingEvents returns a copy of the pending events without clearing them.
func (r *eventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}
