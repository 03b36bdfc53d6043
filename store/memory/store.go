// Package memory provides an in-memory store for tests and development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store keeps accounts in a map. Transactions are serialized and buffer their
// writes in a private overlay that is merged on commit.
type Store struct {
	txMu sync.Mutex // one transaction at a time

	mu       sync.RWMutex
	accounts map[address.Address]*store.Account
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[address.Address]*store.Account),
	}
}

// Atomic runs fn against an overlay and merges it only if fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &tx{base: s, dirty: make(map[address.Address]*store.Account)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, acct := range tx.dirty {
		s.accounts[addr] = acct
	}
	return nil
}

// Account returns a copy of the committed account at addr.
func (s *Store) Account(_ context.Context, addr address.Address) (*store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[addr]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return clone(acct), nil
}

// Balance returns the committed balance at addr.
func (s *Store) Balance(_ context.Context, addr address.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.accounts[addr]; ok {
		return acct.Balance, nil
	}
	return 0, nil
}

// Credit mints amount into addr.
func (s *Store) Credit(ctx context.Context, addr address.Address, amount uint64) error {
	return s.Atomic(ctx, func(ctx context.Context, t store.Tx) error {
		return t.(*tx).credit(addr, amount)
	})
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// Len returns the number of committed accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// ──────────────────────────────────────────────────
// Transaction overlay
// ──────────────────────────────────────────────────

type tx struct {
	base  *Store
	dirty map[address.Address]*store.Account
}

// lookup returns a writable copy of the account at addr, or nil.
func (t *tx) lookup(addr address.Address) *store.Account {
	if acct, ok := t.dirty[addr]; ok {
		return acct
	}
	t.base.mu.RLock()
	acct, ok := t.base.accounts[addr]
	t.base.mu.RUnlock()
	if !ok {
		return nil
	}
	cp := clone(acct)
	t.dirty[addr] = cp
	return cp
}

func (t *tx) Account(_ context.Context, addr address.Address) (*store.Account, error) {
	acct := t.lookup(addr)
	if acct == nil {
		return nil, store.ErrAccountNotFound
	}
	return clone(acct), nil
}

func (t *tx) CreateAccount(_ context.Context, addr address.Address, data []byte) error {
	acct := t.lookup(addr)
	if acct != nil && len(acct.Data) > 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountExists, addr)
	}
	if acct == nil {
		acct = &store.Account{Address: addr, Entity: types.NewEntity()}
		t.dirty[addr] = acct
	}
	acct.Data = append([]byte(nil), data...)
	acct.Touch()
	return nil
}

func (t *tx) UpdateAccount(_ context.Context, addr address.Address, data []byte) error {
	acct := t.lookup(addr)
	if acct == nil || len(acct.Data) == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, addr)
	}
	acct.Data = append([]byte(nil), data...)
	acct.Touch()
	return nil
}

func (t *tx) Balance(_ context.Context, addr address.Address) (uint64, error) {
	if acct := t.lookup(addr); acct != nil {
		return acct.Balance, nil
	}
	return 0, nil
}

func (t *tx) Transfer(_ context.Context, from, to address.Address, amount uint64) error {
	if err := store.CheckTransfer(from, to, amount); err != nil {
		return err
	}
	src := t.lookup(from)
	if src == nil || src.Balance < amount {
		return store.ErrInsufficientFunds
	}
	dst := t.lookup(to)
	if dst != nil && dst.Balance > store.MaxBalance-amount {
		return store.ErrBalanceOverflow
	}
	if dst == nil {
		dst = &store.Account{Address: to, Entity: types.NewEntity()}
		t.dirty[to] = dst
	}
	src.Balance -= amount
	dst.Balance += amount
	src.Touch()
	dst.Touch()
	return nil
}

func (t *tx) credit(addr address.Address, amount uint64) error {
	if amount > store.MaxBalance {
		return store.ErrBalanceOverflow
	}
	acct := t.lookup(addr)
	if acct == nil {
		acct = &store.Account{Address: addr, Entity: types.NewEntity()}
		t.dirty[addr] = acct
	}
	if acct.Balance > store.MaxBalance-amount {
		return store.ErrBalanceOverflow
	}
	acct.Balance += amount
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(a *store.Account) *store.Account {
	cp := *a
	cp.Data = append([]byte(nil), a.Data...)
	return &cp
}
