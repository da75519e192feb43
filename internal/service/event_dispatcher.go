package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/models"
	"github.com/noah-isme/weprep-api/pkg/jobs"
	"github.com/noah-isme/weprep-api/pkg/messaging"
)

const (
	eventQueueName  = "domain-events"
	headerEventName = "event"
	headerContent   = "content-type"
	contentTypeJSON = "application/json"
)

type eventSender interface {
	Send(ctx context.Context, msg messaging.Message) error
}

// EventDispatcher forwards committed domain events to the broker through a retrying worker queue.
type EventDispatcher struct {
	sender  eventSender
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue
}

// NewEventDispatcher builds the dispatcher and its queue. Call Start before publishing.
func NewEventDispatcher(sender eventSender, metrics *MetricsService, cfg jobs.QueueConfig, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &EventDispatcher{sender: sender, metrics: metrics, logger: logger}
	cfg.Logger = logger
	cfg.OnGiveUp = func(job jobs.Job, err error) {
		d.metrics.RecordEventPublished(job.Type, err)
	}
	d.queue = jobs.NewQueue(eventQueueName, d.deliver, cfg)
	return d
}

// Start launches the delivery workers.
func (d *EventDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop waits for queued events to be delivered until ctx expires.
func (d *EventDispatcher) Stop(ctx context.Context) error {
	return d.queue.Stop(ctx)
}

// Publish enqueues events for delivery. The transaction has already committed, so failures are logged and counted only.
func (d *EventDispatcher) Publish(_ context.Context, events []models.DomainEvent) {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			d.logger.Error("encode domain event", zap.String("event", event.Name), zap.Error(err))
			d.metrics.RecordEventPublished(event.Name, err)
			continue
		}

		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    event.Name,
			Key:     event.AggregateID,
			Payload: payload,
		}
		if err := d.queue.Enqueue(job); err != nil {
			d.logger.Error("enqueue domain event",
				zap.String("event", event.Name),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err),
			)
			d.metrics.RecordEventPublished(event.Name, err)
		}
	}
}

func (d *EventDispatcher) deliver(ctx context.Context, job jobs.Job) error {
	err := d.sender.Send(ctx, messaging.Message{
		Key:   job.Key,
		Value: job.Payload,
		Headers: map[string]string{
			headerEventName: job.Type,
			headerContent:   contentTypeJSON,
		},
	})
	if err != nil {
		return err
	}
	d.metrics.RecordEventPublished(job.Type, nil)
	d.logger.Debug("domain event published", zap.String("event", job.Type), zap.String("aggregate_id", job.Key))
	return nil
}
