package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/models"
	"github.com/noah-isme/weprep-api/pkg/messaging"
)

// Notification recipient kinds.
const (
	RecipientLearner = "learner"
	RecipientTutor   = "tutor"
	RecipientAdmins  = "admins"
)

// Notification is a message addressed to one party of a course.
type Notification struct {
	Event         string `json:"event"`
	CourseID      string `json:"course_id"`
	RecipientType string `json:"recipient_type"`
	RecipientID   string `json:"recipient_id,omitempty"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// NotificationSink delivers rendered notifications.
type NotificationSink interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a log-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the notification.
func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	s.logger.Info("notification",
		zap.String("event", n.Event),
		zap.String("course_id", n.CourseID),
		zap.String("recipient_type", n.RecipientType),
		zap.String("recipient_id", n.RecipientID),
		zap.String("subject", n.Subject),
	)
	return nil
}

// NotificationService turns course events read from the broker into notifications.
type NotificationService struct {
	sink   NotificationSink
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(sink NotificationSink, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &NotificationService{sink: sink, logger: logger}
}

// HandleMessage decodes a broker message and delivers its notifications. Malformed messages are
// logged and dropped so they do not block the partition.
func (s *NotificationService) HandleMessage(ctx context.Context, msg messaging.Message) error {
	var event models.DomainEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		s.logger.Warn("drop undecodable event", zap.String("key", msg.Key), zap.Error(err))
		return nil
	}
	for _, n := range Render(event) {
		if err := s.sink.Deliver(ctx, n); err != nil {
			return fmt.Errorf("deliver %s notification: %w", n.Event, err)
		}
	}
	return nil
}

// Render maps an event to the notifications it triggers. Unknown events yield none.
func Render(event models.DomainEvent) []Notification {
	p := event.Payload
	courseID := p[models.PayloadCourseID]
	if courseID == "" {
		courseID = event.AggregateID
	}
	title := p[models.PayloadTitle]

	build := func(kind, id, subject, body string) Notification {
		return Notification{
			Event:         event.Name,
			CourseID:      courseID,
			RecipientType: kind,
			RecipientID:   id,
			Subject:       subject,
			Body:          body,
		}
	}

	var out []Notification
	learner := func(subject, body string) {
		if id := p[models.PayloadLearnerID]; id != "" {
			out = append(out, build(RecipientLearner, id, subject, body))
		}
	}
	tutor := func(subject, body string) {
		if id := p[models.PayloadTutorID]; id != "" {
			out = append(out, build(RecipientTutor, id, subject, body))
		}
	}

	switch event.Name {
	case models.EventCourseCreated:
		out = append(out, build(RecipientAdmins, "", "New course awaiting approval", fmt.Sprintf("Course %q needs review.", title)))
	case models.EventTeachingRequestCreated:
		out = append(out, build(RecipientAdmins, "", "New teaching request", fmt.Sprintf("Tutor %s asked to teach course %s.", p[models.PayloadTutorID], courseID)))
	case models.EventTutorAssigned:
		tutor("You have a new course", fmt.Sprintf("You were assigned to %q.", title))
		learner("Tutor assigned", fmt.Sprintf("A tutor was assigned to %q. Please confirm.", title))
	case models.EventCourseConfirmed:
		tutor("Course confirmed", fmt.Sprintf("The learner confirmed %q.", title))
	case models.EventCourseReviewed:
		tutor("New review", fmt.Sprintf("%q was rated %s.", title, p[models.PayloadRate]))
	case models.EventTutorDissociated:
		tutor("Removed from course", fmt.Sprintf("You were removed from %q: %s", title, p[models.PayloadNote]))
		learner("Tutor removed", fmt.Sprintf("%q is open for a new tutor.", title))
	case models.EventCourseRefunded:
		learner("Course refunded", fmt.Sprintf("%q was refunded: %s", title, p[models.PayloadNote]))
	case models.EventCourseStatusOverridden:
		if p[models.PayloadStatus] != p[models.PayloadPreviousStatus] {
			learner("Course status changed", fmt.Sprintf("%q is now %s.", title, p[models.PayloadStatus]))
		}
	}
	return out
}
