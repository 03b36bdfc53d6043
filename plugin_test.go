package custody_test

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xraph/custody"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/instruction"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *eventRecorder) Name() string { return "recorder" }

func (r *eventRecorder) add(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) OnInitialized(_ context.Context, ev *event.Initialized) error {
	return r.add(ev)
}

func (r *eventRecorder) OnPaymentReceived(_ context.Context, ev *event.PaymentReceived) error {
	return r.add(ev)
}

func (r *eventRecorder) OnWithdrawn(_ context.Context, ev *event.Withdrawn) error {
	return r.add(ev)
}

func (r *eventRecorder) OnOwnershipTransferred(_ context.Context, ev *event.OwnershipTransferred) error {
	return r.add(ev)
}

func (r *eventRecorder) OnOperationRejected(_ context.Context, ev *event.Rejected) error {
	return r.add(ev)
}

func (r *eventRecorder) kinds() []event.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventHeader().Kind
	}
	return out
}

func TestPluginsReceiveEvents(t *testing.T) {
	rec := &eventRecorder{}
	h := newHarness(t, custody.WithPlugin(rec))
	a, b, p := h.keypair(), h.keypair(), h.keypair()
	h.fund(p, 100)

	h.initialize(a)
	if err := h.pay(p, 100); err != nil {
		t.Fatal(err)
	}
	_ = h.withdraw(p) // rejected
	if err := h.withdraw(a); err != nil {
		t.Fatal(err)
	}
	if err := h.transfer(a, b.Identity()); err != nil {
		t.Fatal(err)
	}

	want := []event.Kind{
		event.KindInitialized,
		event.KindPaymentReceived,
		event.KindRejected,
		event.KindWithdrawn,
		event.KindOwnershipTransferred,
	}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	paid := rec.events[1].(*event.PaymentReceived)
	if paid.PaymentID != 1 || paid.Amount != 100 || paid.Payer != p.Identity() || paid.VaultBalance != 100 {
		t.Errorf("unexpected payment event %+v", paid)
	}
	moved := rec.events[4].(*event.OwnershipTransferred)
	if moved.Previous != a.Identity() || moved.Next != b.Identity() {
		t.Errorf("unexpected ownership event %+v", moved)
	}
	rejected := rec.events[2].(*event.Rejected)
	if rejected.Op != string(instruction.OpWithdraw) || !custody.IsUnauthorized(rejected.Err) {
		t.Errorf("unexpected rejection %+v", rejected)
	}
}

func TestOperationSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	h := newHarness(t, custody.WithTracerProvider(tp))
	a := h.keypair()
	h.initialize(a)
	_ = h.withdraw(a) // empty vault

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "custody.initialize" || spans[0].Status().Code == codes.Error {
		t.Errorf("span 0: %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "custody.withdraw" || spans[1].Status().Code != codes.Error {
		t.Errorf("span 1: %s %v", spans[1].Name(), spans[1].Status())
	}
}

func TestPaymentEventsArriveInCommitOrder(t *testing.T) {
	rec := &eventRecorder{}
	h := newHarness(t, custody.WithPlugin(rec))
	h.initialize(h.keypair())

	const payers, each = 8, 4
	var wg sync.WaitGroup
	for range payers {
		p := h.keypair()
		h.fund(p, each)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				c, err := h.l.Sign(h.ctx, p, instruction.ReceivePayment(1))
				if err == nil {
					_, err = h.l.ReceivePayment(h.ctx, c, 1)
				}
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var next uint64 = 1
	for _, ev := range rec.events {
		paid, ok := ev.(*event.PaymentReceived)
		if !ok {
			continue
		}
		if paid.PaymentID != next {
			t.Fatalf("event for payment %d arrived when %d was due", paid.PaymentID, next)
		}
		next++
	}
	if next != payers*each+1 {
		t.Errorf("saw %d payment events, want %d", next-1, payers*each)
	}
}
