// Package plugin provides an extensible plugin system for custody.
// Plugins hook into the ledger lifecycle and into committed state
// transitions. Hooks run after commit; a failing hook is logged and never
// affects the transition.
package plugin

import (
	"context"

	"github.com/xraph/custody/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Transition hooks
// ──────────────────────────────────────────────────

// OnInitialized is called after the ledger state is created.
type OnInitialized interface {
	Plugin
	OnInitialized(ctx context.Context, ev *event.Initialized) error
}

// OnPaymentReceived is called after a payment receipt is recorded.
type OnPaymentReceived interface {
	Plugin
	OnPaymentReceived(ctx context.Context, ev *event.PaymentReceived) error
}

// OnWithdrawn is called after the vault is drained.
type OnWithdrawn interface {
	Plugin
	OnWithdrawn(ctx context.Context, ev *event.Withdrawn) error
}

// OnOwnershipTransferred is called after the authority changes.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, ev *event.OwnershipTransferred) error
}

// OnOperationRejected is called when an operation fails without effect.
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, ev *event.Rejected) error
}
