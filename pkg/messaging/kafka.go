package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/pkg/config"
)

// Message is a broker-agnostic record.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// Producer writes messages to the configured events topic.
type Producer struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewProducer builds a synchronous Kafka writer. Messages sharing a key land on the same partition.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.EventsTopic == "" {
		return nil, errors.New("kafka: events topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &Producer{writer: writer, timeout: cfg.WriteTimeout}, nil
}

// Send writes a message and blocks until the broker acknowledges it.
func (p *Producer) Send(ctx context.Context, msg Message) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	record := kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Time:    msg.Time,
		Headers: toHeaders(msg.Headers),
	}
	if record.Time.IsZero() {
		record.Time = time.Now().UTC()
	}

	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Handler consumes a single message. A failing message is retried and never skipped.
type Handler func(context.Context, Message) error

// ErrHandlerFailed is returned by Run when a message kept failing after every retry. Its offset
// stays uncommitted, so the group redelivers it once the consumer rejoins.
var ErrHandlerFailed = errors.New("kafka: message handler failed")

const maxBackoff = 30 * time.Second

type groupReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the events topic as part of a consumer group.
type Consumer struct {
	reader  groupReader
	logger  *zap.Logger
	retries int
	backoff time.Duration
}

// NewConsumer builds a group reader for the events topic.
func NewConsumer(cfg config.KafkaConfig, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka: consumer group is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.EventsTopic,
	})
	return newConsumer(reader, cfg, logger), nil
}

func newConsumer(reader groupReader, cfg config.KafkaConfig, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := cfg.HandlerRetries
	if retries < 0 {
		retries = 0
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Consumer{reader: reader, logger: logger, retries: retries, backoff: backoff}
}

// Run fetches messages until ctx is cancelled or the reader is closed. A message is committed
// only after the handler succeeds. When the handler still fails after the configured retries,
// Run stops with ErrHandlerFailed instead of moving past the message.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	fetchFailures := 0
	for {
		record, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			fetchFailures++
			c.logger.Error("failed to fetch message", zap.Int("failures", fetchFailures), zap.Error(err))
			if !c.wait(ctx, fetchFailures) {
				return nil
			}
			continue
		}
		fetchFailures = 0

		msg := Message{
			Key:     string(record.Key),
			Value:   record.Value,
			Headers: fromHeaders(record.Headers),
			Time:    record.Time,
		}
		if err := c.handle(ctx, handle, record, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, record); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message", zap.Int64("offset", record.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handle Handler, record kafka.Message, msg Message) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 && !c.wait(ctx, attempt) {
			return ctx.Err()
		}
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		c.logger.Warn("message handler failed",
			zap.String("topic", record.Topic),
			zap.Int("partition", record.Partition),
			zap.Int64("offset", record.Offset),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return fmt.Errorf("%w: partition %d offset %d: %v", ErrHandlerFailed, record.Partition, record.Offset, err)
}

// wait sleeps for the exponential backoff of the given attempt and reports false if ctx ended first.
func (c *Consumer) wait(ctx context.Context, attempt int) bool {
	delay := c.backoff
	for i := 1; i < attempt && delay < maxBackoff; i++ {
		delay *= 2
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close releases the reader and leaves the group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func toHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func fromHeaders(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
