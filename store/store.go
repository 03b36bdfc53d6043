// Package store defines the host record store the custody engine runs on.
//
// A store holds accounts keyed by address. Each account has opaque record
// data and a native balance; the vault is an account with a balance and no
// data. Every state transition runs inside Atomic, which commits all writes
// or none of them.
package store

import (
	"context"
	"errors"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/types"
)

// MaxBalance is the largest balance any backend will hold.
const MaxBalance = uint64(types.MaxBalance)

// Store errors. Backends map their driver errors onto these.
var (
	ErrAccountNotFound   = errors.New("store: account not found")
	ErrAccountExists     = errors.New("store: account already exists")
	ErrInsufficientFunds = errors.New("store: insufficient funds")
	ErrBalanceOverflow   = errors.New("store: balance overflow")
	ErrInvalidTransfer   = errors.New("store: invalid transfer")
)

// Account is one addressed entry in the store.
type Account struct {
	Address address.Address `json:"address"`
	Data    []byte          `json:"data,omitempty"`
	Balance uint64          `json:"balance"`
	types.Entity
}

// Tx is the view of the store inside an atomic transition.
type Tx interface {
	// Account returns the account at addr or ErrAccountNotFound.
	Account(ctx context.Context, addr address.Address) (*Account, error)

	// CreateAccount stores data at addr. It fails with ErrAccountExists if
	// the address already holds record data. An address that so far only
	// holds a balance is upgraded in place.
	CreateAccount(ctx context.Context, addr address.Address, data []byte) error

	// UpdateAccount replaces the data at an existing account.
	UpdateAccount(ctx context.Context, addr address.Address, data []byte) error

	// Balance returns the balance at addr, zero when absent.
	Balance(ctx context.Context, addr address.Address) (uint64, error)

	// Transfer moves amount from one address to another. The destination is
	// created when absent.
	Transfer(ctx context.Context, from, to address.Address, amount uint64) error
}

// Store is the storage interface for custody accounts.
type Store interface {
	// Atomic runs fn in a transaction. If fn returns an error, no write made
	// through the Tx is observable.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Account reads a committed account.
	Account(ctx context.Context, addr address.Address) (*Account, error)

	// Balance reads a committed balance, zero when absent.
	Balance(ctx context.Context, addr address.Address) (uint64, error)

	// Credit mints amount into addr. It backs the development faucet and
	// test fixtures; the engine never calls it.
	Credit(ctx context.Context, addr address.Address, amount uint64) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// CheckTransfer validates transfer arguments common to all backends.
func CheckTransfer(from, to address.Address, amount uint64) error {
	if from == to {
		return ErrInvalidTransfer
	}
	if amount > MaxBalance {
		return ErrBalanceOverflow
	}
	return nil
}
