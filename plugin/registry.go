package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/custody/event"
)

// DefaultTimeout bounds each hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onInitialized          []OnInitialized
	onPaymentReceived      []OnPaymentReceived
	onWithdrawn            []OnWithdrawn
	onOwnershipTransferred []OnOwnershipTransferred
	onOperationRejected    []OnOperationRejected
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnInitialized); ok {
		r.onInitialized = append(r.onInitialized, v)
		hooks = append(hooks, "OnInitialized")
	}
	if v, ok := p.(OnPaymentReceived); ok {
		r.onPaymentReceived = append(r.onPaymentReceived, v)
		hooks = append(hooks, "OnPaymentReceived")
	}
	if v, ok := p.(OnWithdrawn); ok {
		r.onWithdrawn = append(r.onWithdrawn, v)
		hooks = append(hooks, "OnWithdrawn")
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
		hooks = append(hooks, "OnOwnershipTransferred")
	}
	if v, ok := p.(OnOperationRejected); ok {
		r.onOperationRejected = append(r.onOperationRejected, v)
		hooks = append(hooks, "OnOperationRejected")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls hook for every plugin in list, logging failures.
func emit[T Plugin](ctx context.Context, r *Registry, list *[]T, hook string, call func(T) error) {
	r.mu.RLock()
	plugins := *list
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	emit(ctx, r, &r.onInit, "OnInit", func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, &r.onShutdown, "OnShutdown", func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitInitialized emits a ledger initialized event.
func (r *Registry) EmitInitialized(ctx context.Context, ev *event.Initialized) {
	emit(ctx, r, &r.onInitialized, "OnInitialized", func(p OnInitialized) error {
		return p.OnInitialized(ctx, ev)
	})
}

// EmitPaymentReceived emits a payment received event.
func (r *Registry) EmitPaymentReceived(ctx context.Context, ev *event.PaymentReceived) {
	emit(ctx, r, &r.onPaymentReceived, "OnPaymentReceived", func(p OnPaymentReceived) error {
		return p.OnPaymentReceived(ctx, ev)
	})
}

// EmitWithdrawn emits a withdrawal event.
func (r *Registry) EmitWithdrawn(ctx context.Context, ev *event.Withdrawn) {
	emit(ctx, r, &r.onWithdrawn, "OnWithdrawn", func(p OnWithdrawn) error {
		return p.OnWithdrawn(ctx, ev)
	})
}

// EmitOwnershipTransferred emits an ownership transfer event.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, ev *event.OwnershipTransferred) {
	emit(ctx, r, &r.onOwnershipTransferred, "OnOwnershipTransferred", func(p OnOwnershipTransferred) error {
		return p.OnOwnershipTransferred(ctx, ev)
	})
}

// EmitOperationRejected emits a rejected operation event.
func (r *Registry) EmitOperationRejected(ctx context.Context, ev *event.Rejected) {
	emit(ctx, r, &r.onOperationRejected, "OnOperationRejected", func(p OnOperationRejected) error {
		return p.OnOperationRejected(ctx, ev)
	})
}

// callWithTimeout executes a function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
