package custody

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/lock"
	"github.com/xraph/custody/plugin"
	"github.com/xraph/custody/store"
)

// tracerName is the instrumentation scope of the engine's spans.
const tracerName = "github.com/xraph/custody"

// deriveState derives the singleton state address.
var deriveState = address.State

// ZeroAmountPolicy decides how receive_payment treats an amount of zero.
type ZeroAmountPolicy int

const (
	// RejectZeroAmount fails the payment with ErrInvalidAmount.
	RejectZeroAmount ZeroAmountPolicy = iota

	// RecordZeroAmount records a receipt with amount 0 and moves no funds.
	RecordZeroAmount
)

// String returns the policy name.
func (p ZeroAmountPolicy) String() string {
	switch p {
	case RecordZeroAmount:
		return "record"
	default:
		return "reject"
	}
}

// Ledger is the custody engine. It runs the four operations as atomic
// transitions over a store.Store.
type Ledger struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	locker   lock.Locker
	verifier identity.Verifier
	tracer   trace.Tracer
	clock    func() time.Time

	programID      address.Address
	minimumBalance uint64
	zeroAmount     ZeroAmountPolicy
	skipMigrate    bool

	addrOnce sync.Once
	addrs    Addresses
	addrErr  error
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		locker:    lock.NewLocal(),
		verifier:  identity.Ed25519,
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		clock:     time.Now,
		programID: address.DefaultProgramID,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithProgramID sets the program identity all addresses derive from.
func WithProgramID(programID address.Address) Option {
	return func(l *Ledger) {
		l.programID = programID
	}
}

// WithClock sets the time source for receipt timestamps and events.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithLocker sets the lock taken on the state address around every
// transition. The default is an in-process lock.
func WithLocker(locker lock.Locker) Option {
	return func(l *Ledger) {
		l.locker = locker
	}
}

// WithVerifier replaces the ed25519 signature verifier.
func WithVerifier(v identity.Verifier) Option {
	return func(l *Ledger) {
		l.verifier = v
	}
}

// WithMinimumBalance sets the balance a payer must retain after paying.
func WithMinimumBalance(amount uint64) Option {
	return func(l *Ledger) {
		l.minimumBalance = amount
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Ledger) {
		l.tracer = tp.Tracer(tracerName)
	}
}

// WithZeroAmountPolicy sets how zero-amount payments are handled.
func WithZeroAmountPolicy(p ZeroAmountPolicy) Option {
	return func(l *Ledger) {
		l.zeroAmount = p
	}
}

// WithoutMigrate makes Start leave the store schema alone. Call Migrate
// separately when the schema is managed elsewhere.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Migrate brings the store schema up to date.
func (l *Ledger) Migrate(ctx context.Context) error {
	return l.store.Migrate(ctx)
}

// Start migrates the store unless WithoutMigrate was given, derives the
// program addresses and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.skipMigrate {
		if err := l.Migrate(ctx); err != nil {
			return err
		}
	}

	addrs, err := l.Addresses()
	if err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("custody ledger started",
		"program_id", addrs.ProgramID.String(),
		"state", addrs.State.String(),
		"vault", addrs.Vault.String(),
		"zero_amount_policy", l.zeroAmount.String(),
		"plugins", l.plugins.Count(),
	)
	return nil
}

// Stop notifies plugins and closes the store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// ProgramID returns the program identity addresses derive from.
func (l *Ledger) ProgramID() address.Address { return l.programID }

// ──────────────────────────────────────────────────
// Addresses
// ──────────────────────────────────────────────────

// Addresses are the fixed derived addresses of one deployment.
type Addresses struct {
	ProgramID address.Address `json:"program_id"`
	State     address.Address `json:"state"`
	StateBump uint8           `json:"state_bump"`
	Vault     address.Address `json:"vault"`
	VaultBump uint8           `json:"vault_bump"`
}

// Addresses derives the state and vault addresses. The result is computed
// once per Ledger.
func (l *Ledger) Addresses() (Addresses, error) {
	l.addrOnce.Do(func() {
		state, stateBump, err := deriveState(l.programID)
		if err != nil {
			l.addrErr = ErrAddressDerivationFailed
			return
		}
		vault, vaultBump, err := address.Vault(l.programID, state)
		if err != nil {
			l.addrErr = ErrAddressDerivationFailed
			return
		}
		l.addrs = Addresses{
			ProgramID: l.programID,
			State:     state,
			StateBump: stateBump,
			Vault:     vault,
			VaultBump: vaultBump,
		}
	})
	return l.addrs, l.addrErr
}

// PaymentAddress derives the address of the receipt for paymentID.
func (l *Ledger) PaymentAddress(paymentID uint64) (address.Address, uint8, error) {
	addr, bump, err := address.Payment(l.programID, paymentID)
	if err != nil {
		return address.Zero, 0, ErrAddressDerivationFailed
	}
	return addr, bump, nil
}

// vaultSeal re-derives the vault capability from its bump.
func (l *Ledger) vaultSeal(addrs Addresses) (address.Seal, error) {
	seal, err := address.VaultSeal(l.programID, addrs.State, addrs.VaultBump)
	if err != nil {
		return address.Seal{}, ErrAddressDerivationFailed
	}
	if err := seal.Authorizes(addrs.Vault); err != nil {
		return address.Seal{}, ErrAddressDerivationFailed
	}
	return seal, nil
}
