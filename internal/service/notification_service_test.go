package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/weprep-api/internal/models"
	"github.com/noah-isme/weprep-api/pkg/messaging"
)

type sinkStub struct {
	delivered []Notification
	err       error
}

func (s *sinkStub) Deliver(_ context.Context, n Notification) error {
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, n)
	return nil
}

func encodeEvent(t *testing.T, event models.DomainEvent) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return messaging.Message{Key: event.AggregateID, Value: raw}
}

func TestRenderTutorAssignedNotifiesBothParties(t *testing.T) {
	notifications := Render(models.DomainEvent{
		Name:        models.EventTutorAssigned,
		AggregateID: "course-1",
		Payload: map[string]string{
			models.PayloadCourseID:  "course-1",
			models.PayloadTitle:     "Algebra",
			models.PayloadTutorID:   "tutor-1",
			models.PayloadLearnerID: "learner-1",
		},
	})

	require.Len(t, notifications, 2)
	assert.Equal(t, RecipientTutor, notifications[0].RecipientType)
	assert.Equal(t, "tutor-1", notifications[0].RecipientID)
	assert.Equal(t, RecipientLearner, notifications[1].RecipientType)
	assert.Equal(t, "learner-1", notifications[1].RecipientID)
}

func TestRenderSkipsMissingRecipients(t *testing.T) {
	notifications := Render(models.DomainEvent{
		Name:        models.EventCourseRefunded,
		AggregateID: "course-2",
		Payload:     map[string]string{models.PayloadNote: "schedule clash"},
	})
	assert.Empty(t, notifications)

	assert.Empty(t, Render(models.DomainEvent{Name: "course.unknown"}))
}

func TestRenderStatusOverrideOnlyWhenChanged(t *testing.T) {
	payload := map[string]string{
		models.PayloadLearnerID:      "learner-1",
		models.PayloadTitle:          "Algebra",
		models.PayloadPreviousStatus: string(models.CourseStatusAvailable),
		models.PayloadStatus:         string(models.CourseStatusAvailable),
	}
	assert.Empty(t, Render(models.DomainEvent{Name: models.EventCourseStatusOverridden, AggregateID: "course-5", Payload: payload}))

	payload[models.PayloadStatus] = string(models.CourseStatusCancelled)
	notifications := Render(models.DomainEvent{Name: models.EventCourseStatusOverridden, AggregateID: "course-5", Payload: payload})
	require.Len(t, notifications, 1)
	assert.Equal(t, "learner-1", notifications[0].RecipientID)
	assert.Contains(t, notifications[0].Body, string(models.CourseStatusCancelled))
}

func TestRenderCourseCreatedUsesAggregateID(t *testing.T) {
	notifications := Render(models.DomainEvent{Name: models.EventCourseCreated, AggregateID: "course-3"})
	require.Len(t, notifications, 1)
	assert.Equal(t, RecipientAdmins, notifications[0].RecipientType)
	assert.Equal(t, "course-3", notifications[0].CourseID)
}

func TestHandleMessageDeliversNotifications(t *testing.T) {
	sink := &sinkStub{}
	svc := NewNotificationService(sink, nil)

	err := svc.HandleMessage(context.Background(), encodeEvent(t, models.DomainEvent{
		Name:        models.EventCourseConfirmed,
		AggregateID: "course-4",
		Payload:     map[string]string{models.PayloadTutorID: "tutor-4", models.PayloadTitle: "Physics"},
	}))
	require.NoError(t, err)
	require.Len(t, sink.delivered, 1)
	assert.Equal(t, "tutor-4", sink.delivered[0].RecipientID)
	assert.Contains(t, sink.delivered[0].Body, "Physics")
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	sink := &sinkStub{}
	svc := NewNotificationService(sink, nil)

	err := svc.HandleMessage(context.Background(), messaging.Message{Key: "x", Value: []byte("{not json")})
	assert.NoError(t, err)
	assert.Empty(t, sink.delivered)
}

func TestHandleMessageSurfacesSinkFailure(t *testing.T) {
	svc := NewNotificationService(&sinkStub{err: errors.New("smtp down")}, nil)

	err := svc.HandleMessage(context.Background(), encodeEvent(t, models.DomainEvent{
		Name:    models.EventCourseReviewed,
		Payload: map[string]string{models.PayloadTutorID: "tutor-5", models.PayloadRate: "4"},
	}))
	assert.ErrorContains(t, err, "smtp down")
}
