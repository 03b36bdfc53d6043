// Package kafkahook publishes committed custody events to Kafka.
//
// Each event is encoded as JSON and keyed by the ledger's program ID, so all
// events of one deployment land on the same partition in commit order.
package kafkahook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/plugin"
)

// DefaultTopic is the topic events are written to when none is configured.
const DefaultTopic = "custody.events"

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Publisher)(nil)
	_ plugin.OnShutdown             = (*Publisher)(nil)
	_ plugin.OnInitialized          = (*Publisher)(nil)
	_ plugin.OnPaymentReceived      = (*Publisher)(nil)
	_ plugin.OnWithdrawn            = (*Publisher)(nil)
	_ plugin.OnOwnershipTransferred = (*Publisher)(nil)
	_ plugin.OnOperationRejected    = (*Publisher)(nil)
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is a plugin that forwards events to Kafka.
type Publisher struct {
	writer   MessageWriter
	topic    string
	rejected bool
	logger   *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic sets the topic messages are written to. It is only applied to
// writers that carry no topic of their own.
func WithTopic(topic string) Option {
	return func(p *Publisher) { p.topic = topic }
}

// WithRejections also publishes rejected operations.
func WithRejections() Option {
	return func(p *Publisher) { p.rejected = true }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New creates a Publisher over an existing writer.
func New(w MessageWriter, opts ...Option) *Publisher {
	p := &Publisher{
		writer: w,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewWriter creates a kafka-go writer for brokers. Topic is left empty when
// the caller wants per-message topics.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-hook" }

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(_ context.Context) error {
	return p.writer.Close()
}

// OnInitialized implements plugin.OnInitialized.
func (p *Publisher) OnInitialized(ctx context.Context, ev *event.Initialized) error {
	return p.publish(ctx, ev)
}

// OnPaymentReceived implements plugin.OnPaymentReceived.
func (p *Publisher) OnPaymentReceived(ctx context.Context, ev *event.PaymentReceived) error {
	return p.publish(ctx, ev)
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (p *Publisher) OnWithdrawn(ctx context.Context, ev *event.Withdrawn) error {
	return p.publish(ctx, ev)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (p *Publisher) OnOwnershipTransferred(ctx context.Context, ev *event.OwnershipTransferred) error {
	return p.publish(ctx, ev)
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (p *Publisher) OnOperationRejected(ctx context.Context, ev *event.Rejected) error {
	if !p.rejected {
		return nil
	}
	return p.publish(ctx, ev)
}

func (p *Publisher) publish(ctx context.Context, ev event.Event) error {
	h := ev.EventHeader()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka_hook: encode %s: %w", h.Kind, err)
	}

	msg := kafka.Message{
		Key:   []byte(h.ProgramID.String()),
		Value: data,
		Time:  h.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_kind", Value: []byte(h.Kind)},
			{Key: "event_id", Value: []byte(h.ID.String())},
		},
	}
	if p.topic != "" && !writerHasTopic(p.writer) {
		msg.Topic = p.topic
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("kafka_hook: failed to publish event",
			"kind", string(h.Kind),
			"event_id", h.ID.String(),
			"error", err,
		)
		return fmt.Errorf("kafka_hook: publish %s: %w", h.Kind, err)
	}
	return nil
}

// writerHasTopic reports whether w is a kafka-go writer with a fixed topic.
// kafka-go rejects messages that set a topic when the writer already has one.
func writerHasTopic(w MessageWriter) bool {
	kw, ok := w.(*kafka.Writer)
	return ok && kw.Topic != ""
}
