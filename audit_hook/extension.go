// Package audithook bridges custody events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnInitialized          = (*Extension)(nil)
	_ plugin.OnPaymentReceived      = (*Extension)(nil)
	_ plugin.OnWithdrawn            = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred = (*Extension)(nil)
	_ plugin.OnOperationRejected    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	EventID    string         `json:"event_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges custody events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnInitialized implements plugin.OnInitialized.
func (e *Extension) OnInitialized(ctx context.Context, ev *event.Initialized) error {
	return e.record(ctx, ev.Header, ActionLedgerInitialized, SeverityInfo, OutcomeSuccess,
		ResourceLedger, ev.State.String(), CategoryCustody, ev.Payer.String(), nil,
		"authority", ev.Authority.String(),
		"vault", ev.Vault.String(),
	)
}

// OnPaymentReceived implements plugin.OnPaymentReceived.
func (e *Extension) OnPaymentReceived(ctx context.Context, ev *event.PaymentReceived) error {
	return e.record(ctx, ev.Header, ActionPaymentReceived, SeverityInfo, OutcomeSuccess,
		ResourcePayment, strconv.FormatUint(ev.PaymentID, 10), CategoryPayment, ev.Payer.String(), nil,
		"amount", uint64(ev.Amount),
		"record", ev.Record.String(),
		"timestamp", ev.Timestamp,
	)
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (e *Extension) OnWithdrawn(ctx context.Context, ev *event.Withdrawn) error {
	return e.record(ctx, ev.Header, ActionVaultWithdrawn, SeverityWarning, OutcomeSuccess,
		ResourceVault, ev.Vault.String(), CategoryPayment, ev.Authority.String(), nil,
		"amount", uint64(ev.Amount),
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, ev *event.OwnershipTransferred) error {
	return e.record(ctx, ev.Header, ActionOwnershipTransferred, SeverityCritical, OutcomeSuccess,
		ResourceLedger, "", CategoryAccess, ev.Previous.String(), nil,
		"previous", ev.Previous.String(),
		"next", ev.Next.String(),
	)
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (e *Extension) OnOperationRejected(ctx context.Context, ev *event.Rejected) error {
	return e.record(ctx, ev.Header, ActionOperationRejected, SeverityWarning, OutcomeFailure,
		ResourceLedger, "", CategoryAccess, ev.Caller.String(), ev.Err,
		"op", ev.Op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	h event.Header,
	action, severity, outcome string,
	resource, resourceID, category, actor string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}
	meta["program_id"] = h.ProgramID.String()

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		EventID:    h.ID.String(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Actor:      actor,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
