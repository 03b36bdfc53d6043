package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/custody/event"
)

type recordingPlugin struct {
	name     string
	payments atomic.Int32
	rejects  atomic.Int32
	fail     bool
	block    time.Duration
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) OnPaymentReceived(_ context.Context, _ *event.PaymentReceived) error {
	time.Sleep(p.block)
	p.payments.Add(1)
	if p.fail {
		return errors.New("hook failed")
	}
	return nil
}

func (p *recordingPlugin) OnOperationRejected(_ context.Context, _ *event.Rejected) error {
	p.rejects.Add(1)
	return nil
}

type namedOnly struct{ name string }

func (p namedOnly) Name() string { return p.name }

func quietRegistry() *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterDuplicate(t *testing.T) {
	r := quietRegistry()
	if err := r.Register(namedOnly{"audit"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(namedOnly{"audit"}); err == nil {
		t.Error("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d", r.Count())
	}
	if r.Get("audit") == nil || r.Get("missing") != nil {
		t.Error("Get returned wrong plugin")
	}
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	r := quietRegistry()
	p := &recordingPlugin{name: "rec"}
	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(namedOnly{"plain"}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	r.EmitPaymentReceived(ctx, &event.PaymentReceived{PaymentID: 1})
	r.EmitOperationRejected(ctx, &event.Rejected{Op: "withdraw"})
	r.EmitWithdrawn(ctx, &event.Withdrawn{})

	if got := p.payments.Load(); got != 1 {
		t.Errorf("payments = %d, want 1", got)
	}
	if got := p.rejects.Load(); got != 1 {
		t.Errorf("rejects = %d, want 1", got)
	}
}

func TestEmitSurvivesFailureAndTimeout(t *testing.T) {
	r := quietRegistry().WithTimeout(10 * time.Millisecond)
	failing := &recordingPlugin{name: "failing", fail: true}
	slow := &recordingPlugin{name: "slow", block: 100 * time.Millisecond}
	ok := &recordingPlugin{name: "ok"}
	for _, p := range []Plugin{failing, slow, ok} {
		if err := r.Register(p); err != nil {
			t.Fatal(err)
		}
	}

	r.EmitPaymentReceived(context.Background(), &event.PaymentReceived{})

	if ok.payments.Load() != 1 {
		t.Error("healthy plugin must still receive the event")
	}
}
