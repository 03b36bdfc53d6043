package kafkahook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/event"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(kind event.Kind) event.Header {
	return event.NewHeader(kind, address.DefaultProgramID, time.Unix(1700000000, 0))
}

func TestPublishPayment(t *testing.T) {
	w := &fakeWriter{}
	p := New(w, WithTopic("payments"))

	ev := &event.PaymentReceived{Header: header(event.KindPaymentReceived), PaymentID: 3, Amount: 500}
	if err := p.OnPaymentReceived(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != "payments" {
		t.Errorf("topic = %q", msg.Topic)
	}
	if string(msg.Key) != address.DefaultProgramID.String() {
		t.Errorf("key = %q", msg.Key)
	}
	if string(msg.Headers[0].Value) != string(event.KindPaymentReceived) {
		t.Errorf("kind header = %q", msg.Headers[0].Value)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["payment_id"] != float64(3) {
		t.Errorf("payment_id = %v", decoded["payment_id"])
	}
	if decoded["kind"] != string(event.KindPaymentReceived) {
		t.Errorf("kind = %v", decoded["kind"])
	}
}

func TestRejectionsAreOptIn(t *testing.T) {
	ctx := context.Background()
	ev := &event.Rejected{Header: header(event.KindRejected), Op: "withdraw", Reason: "custody: unauthorized"}

	w := &fakeWriter{}
	if err := New(w).OnOperationRejected(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 0 {
		t.Errorf("rejection published without opt-in")
	}

	if err := New(w, WithRejections()).OnOperationRejected(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Errorf("wrote %d messages, want 1", len(w.msgs))
	}
}

func TestWriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := New(w, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	err := p.OnWithdrawn(context.Background(), &event.Withdrawn{Header: header(event.KindWithdrawn)})
	if err == nil || !errors.Is(err, w.err) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}

func TestWriterTopicWins(t *testing.T) {
	if !writerHasTopic(NewWriter([]string{"localhost:9092"}, "fixed")) {
		t.Error("writer with topic not detected")
	}
	if writerHasTopic(NewWriter([]string{"localhost:9092"}, "")) {
		t.Error("writer without topic detected as fixed")
	}
	if writerHasTopic(&fakeWriter{}) {
		t.Error("fake writer has no topic")
	}
}

func TestShutdownClosesWriter(t *testing.T) {
	w := &fakeWriter{}
	if err := New(w).OnShutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
}
