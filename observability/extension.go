// Package observability provides a metrics extension for the custody ledger
// that records transition counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/custody"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnInitialized          = (*MetricsExtension)(nil)
	_ plugin.OnPaymentReceived      = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawn            = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger transition metrics.
// Register it as a ledger plugin to track custody activity.
type MetricsExtension struct {
	factory MetricFactory

	// Lifecycle metrics
	Started     Counter
	Initialized Counter

	// Payment metrics
	PaymentsReceived Counter
	PaymentAmount    Histogram
	AmountReceived   Counter

	// Vault metrics
	Withdrawals     Counter
	AmountWithdrawn Counter

	// Authority metrics
	OwnershipTransfers Counter

	// Rejection metrics
	Rejected     Counter
	Unauthorized Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		Started:     factory.Counter("custody.ledger.started"),
		Initialized: factory.Counter("custody.ledger.initialized"),

		PaymentsReceived: factory.Counter("custody.payment.received"),
		PaymentAmount:    factory.Histogram("custody.payment.amount"),
		AmountReceived:   factory.Counter("custody.payment.amount_total"),

		Withdrawals:     factory.Counter("custody.vault.withdrawals"),
		AmountWithdrawn: factory.Counter("custody.vault.amount_withdrawn"),

		OwnershipTransfers: factory.Counter("custody.ownership.transferred"),

		Rejected:     factory.Counter("custody.operation.rejected"),
		Unauthorized: factory.Counter("custody.operation.unauthorized"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	m.Started.Inc()
	return nil
}

// OnInitialized implements plugin.OnInitialized.
func (m *MetricsExtension) OnInitialized(_ context.Context, _ *event.Initialized) error {
	m.Initialized.Inc()
	return nil
}

// OnPaymentReceived implements plugin.OnPaymentReceived.
func (m *MetricsExtension) OnPaymentReceived(_ context.Context, ev *event.PaymentReceived) error {
	amount := float64(ev.Amount)
	m.PaymentsReceived.Inc()
	m.PaymentAmount.Observe(amount)
	m.AmountReceived.Add(amount)
	return nil
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (m *MetricsExtension) OnWithdrawn(_ context.Context, ev *event.Withdrawn) error {
	m.Withdrawals.Inc()
	m.AmountWithdrawn.Add(float64(ev.Amount))
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, _ *event.OwnershipTransferred) error {
	m.OwnershipTransfers.Inc()
	return nil
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, ev *event.Rejected) error {
	m.Rejected.Inc()
	if custody.IsUnauthorized(ev.Err) {
		m.Unauthorized.Inc()
	}
	return nil
}
