// Package storetest is a conformance suite run against every store backend.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
)

var errAbort = errors.New("storetest: abort")

// Factory returns a fresh, migrated, empty store.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndRead", testCreateAndRead},
		{"CreateExisting", testCreateExisting},
		{"CreateOverBalance", testCreateOverBalance},
		{"UpdateMissing", testUpdateMissing},
		{"Transfer", testTransfer},
		{"TransferInsufficient", testTransferInsufficient},
		{"TransferOverflow", testTransferOverflow},
		{"Rollback", testRollback},
		{"ReadYourWrites", testReadYourWrites},
		{"CreditOverflow", testCreditOverflow},
		{"ConcurrentTransfers", testConcurrentTransfers},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// Addr returns a deterministic test address.
func Addr(b byte) address.Address {
	var a address.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func testCreateAndRead(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Addr(1)

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateAccount(ctx, a, []byte{1, 2, 3})
	})
	require.NoError(t, err)

	acct, err := s.Account(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, a, acct.Address)
	assert.Equal(t, []byte{1, 2, 3}, acct.Data)
	assert.Zero(t, acct.Balance)

	_, err = s.Account(ctx, Addr(2))
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	bal, err := s.Balance(ctx, Addr(2))
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func testCreateExisting(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Addr(1)

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateAccount(ctx, a, []byte{1})
	}))

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateAccount(ctx, a, []byte{2})
	})
	assert.ErrorIs(t, err, store.ErrAccountExists)

	acct, err := s.Account(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, acct.Data)
}

func testCreateOverBalance(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Addr(1)

	require.NoError(t, s.Credit(ctx, a, 50))
	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateAccount(ctx, a, []byte{7})
	}))

	acct, err := s.Account(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, acct.Data)
	assert.Equal(t, uint64(50), acct.Balance)
}

func testUpdateMissing(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateAccount(ctx, Addr(9), []byte{1})
	})
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func testTransfer(t *testing.T, s store.Store) {
	ctx := context.Background()
	from, to := Addr(1), Addr(2)

	require.NoError(t, s.Credit(ctx, from, 100))
	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, from, to, 40)
	}))

	fb, err := s.Balance(ctx, from)
	require.NoError(t, err)
	tb, err := s.Balance(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), fb)
	assert.Equal(t, uint64(40), tb)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, from, from, 1)
	})
	assert.ErrorIs(t, err, store.ErrInvalidTransfer)
}

func testTransferInsufficient(t *testing.T, s store.Store) {
	ctx := context.Background()
	from, to := Addr(1), Addr(2)

	require.NoError(t, s.Credit(ctx, from, 10))
	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, from, to, 11)
	})
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, Addr(3), to, 1)
	})
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)

	fb, _ := s.Balance(ctx, from)
	assert.Equal(t, uint64(10), fb)
}

func testTransferOverflow(t *testing.T, s store.Store) {
	ctx := context.Background()
	from, to := Addr(1), Addr(2)

	require.NoError(t, s.Credit(ctx, from, 10))
	require.NoError(t, s.Credit(ctx, to, store.MaxBalance-5))

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Transfer(ctx, from, to, 10)
	})
	assert.ErrorIs(t, err, store.ErrBalanceOverflow)

	fb, _ := s.Balance(ctx, from)
	tb, _ := s.Balance(ctx, to)
	assert.Equal(t, uint64(10), fb)
	assert.Equal(t, store.MaxBalance-5, tb)
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	from, to, rec := Addr(1), Addr(2), Addr(3)

	require.NoError(t, s.Credit(ctx, from, 100))

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateAccount(ctx, rec, []byte{1}); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, from, to, 100); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = s.Account(ctx, rec)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
	fb, _ := s.Balance(ctx, from)
	tb, _ := s.Balance(ctx, to)
	assert.Equal(t, uint64(100), fb)
	assert.Zero(t, tb)
}

func testReadYourWrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, b := Addr(1), Addr(2)

	require.NoError(t, s.Credit(ctx, a, 5))
	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateAccount(ctx, b, []byte{4}); err != nil {
			return err
		}
		if err := tx.UpdateAccount(ctx, b, []byte{5}); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, a, b, 5); err != nil {
			return err
		}

		acct, err := tx.Account(ctx, b)
		if err != nil {
			return err
		}
		assert.Equal(t, []byte{5}, acct.Data)
		assert.Equal(t, uint64(5), acct.Balance)

		bal, err := tx.Balance(ctx, a)
		assert.NoError(t, err)
		assert.Zero(t, bal)
		return nil
	})
	require.NoError(t, err)
}

func testCreditOverflow(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Addr(1)

	require.NoError(t, s.Credit(ctx, a, store.MaxBalance))
	assert.ErrorIs(t, s.Credit(ctx, a, 1), store.ErrBalanceOverflow)

	bal, _ := s.Balance(ctx, a)
	assert.Equal(t, store.MaxBalance, bal)
}

func testConcurrentTransfers(t *testing.T, s store.Store) {
	ctx := context.Background()
	from, to := Addr(1), Addr(2)
	const workers = 8

	require.NoError(t, s.Credit(ctx, from, workers))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
				return tx.Transfer(ctx, from, to, 1)
			}))
		}()
	}
	wg.Wait()

	fb, _ := s.Balance(ctx, from)
	tb, _ := s.Balance(ctx, to)
	assert.Zero(t, fb)
	assert.Equal(t, uint64(workers), tb)
}

func testPing(t *testing.T, s store.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
