// Package sqlite implements the custody store on SQLite via Grove ORM.
//
// Open the database with "_txlock=immediate" so every transaction takes the
// write lock up front; Open adds it for you.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // registers the "sqlite" migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open opens the SQLite database at dsn with immediate transactions, a busy
// timeout and a single connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sdb := sqlitedriver.New()
	if err := sdb.Open(ctx, withDefaults(dsn), driver.WithPoolSize(1)); err != nil {
		return nil, fmt.Errorf("custody/sqlite: open: %w", err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("custody/sqlite: open grove: %w", err)
	}
	return New(db), nil
}

func withDefaults(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "_txlock=") {
		dsn += sep + "_txlock=immediate"
		sep = "&"
	}
	if !strings.Contains(dsn, "busy_timeout") {
		dsn += sep + "_pragma=busy_timeout(5000)"
	}
	return dsn
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("custody/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("custody/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Atomic runs fn inside a grove transaction.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("custody/sqlite: begin: %w", err)
	}
	defer func() { _ = gtx.Rollback() }()

	dtx, ok := gtx.Raw().(driver.Tx)
	if !ok {
		return fmt.Errorf("custody/sqlite: unexpected transaction type %T", gtx.Raw())
	}

	if err := fn(ctx, &tx{q: dtx}); err != nil {
		return err
	}
	if err := gtx.Commit(); err != nil {
		return fmt.Errorf("custody/sqlite: commit: %w", err)
	}
	return nil
}

// Account reads a committed account.
func (s *Store) Account(ctx context.Context, addr address.Address) (*store.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).Where("address = ?", addr.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("custody/sqlite: get account: %w", err)
	}
	return fromAccountModel(m)
}

// Balance reads a committed balance.
func (s *Store) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	acct, err := s.Account(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Credit mints amount into addr.
func (s *Store) Credit(ctx context.Context, addr address.Address, amount uint64) error {
	return s.Atomic(ctx, func(ctx context.Context, t store.Tx) error {
		return t.(*tx).credit(ctx, addr, amount)
	})
}

// ==================== Transaction ====================

type tx struct {
	q driver.Tx
}

func (t *tx) Account(ctx context.Context, addr address.Address) (*store.Account, error) {
	m := &accountModel{Address: addr.String()}
	err := t.q.QueryRow(ctx,
		`SELECT data, balance, created_at, updated_at FROM custody_accounts WHERE address = ?`, m.Address,
	).Scan(&m.Data, &m.Balance, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("custody/sqlite: get account: %w", err)
	}
	return fromAccountModel(m)
}

func (t *tx) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	var balance int64
	err := t.q.QueryRow(ctx,
		`SELECT balance FROM custody_accounts WHERE address = ?`, addr.String(),
	).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("custody/sqlite: get balance: %w", err)
	}
	return uint64(balance), nil
}

func (t *tx) CreateAccount(ctx context.Context, addr address.Address, data []byte) error {
	ts := now()
	res, err := t.q.Exec(ctx, `
INSERT INTO custody_accounts (address, data, balance, created_at, updated_at) VALUES (?, ?, 0, ?, ?)
ON CONFLICT (address) DO UPDATE SET
    data = excluded.data,
    updated_at = excluded.updated_at
WHERE custody_accounts.data IS NULL OR length(custody_accounts.data) = 0`,
		addr.String(), data, ts, ts)
	if err != nil {
		return fmt.Errorf("custody/sqlite: create account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("custody/sqlite: create account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountExists, addr)
	}
	return nil
}

func (t *tx) UpdateAccount(ctx context.Context, addr address.Address, data []byte) error {
	res, err := t.q.Exec(ctx, `
UPDATE custody_accounts SET data = ?, updated_at = ?
WHERE address = ? AND data IS NOT NULL AND length(data) > 0`,
		data, now(), addr.String())
	if err != nil {
		return fmt.Errorf("custody/sqlite: update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("custody/sqlite: update account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, addr)
	}
	return nil
}

func (t *tx) Transfer(ctx context.Context, from, to address.Address, amount uint64) error {
	if err := store.CheckTransfer(from, to, amount); err != nil {
		return err
	}

	src, err := t.Balance(ctx, from)
	if err != nil {
		return err
	}
	if src < amount {
		return store.ErrInsufficientFunds
	}
	dst, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	if dst > store.MaxBalance-amount {
		return store.ErrBalanceOverflow
	}

	if _, err := t.q.Exec(ctx,
		`UPDATE custody_accounts SET balance = balance - ?, updated_at = ? WHERE address = ?`,
		int64(amount), now(), from.String()); err != nil {
		return fmt.Errorf("custody/sqlite: debit: %w", err)
	}
	return t.addBalance(ctx, to, amount)
}

func (t *tx) credit(ctx context.Context, addr address.Address, amount uint64) error {
	if amount > store.MaxBalance {
		return store.ErrBalanceOverflow
	}
	bal, err := t.Balance(ctx, addr)
	if err != nil {
		return err
	}
	if bal > store.MaxBalance-amount {
		return store.ErrBalanceOverflow
	}
	return t.addBalance(ctx, addr, amount)
}

// addBalance upserts addr and adds amount to its balance.
func (t *tx) addBalance(ctx context.Context, addr address.Address, amount uint64) error {
	ts := now()
	_, err := t.q.Exec(ctx, `
INSERT INTO custody_accounts (address, balance, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (address) DO UPDATE SET
    balance = custody_accounts.balance + excluded.balance,
    updated_at = excluded.updated_at`,
		addr.String(), int64(amount), ts, ts)
	if err != nil {
		return fmt.Errorf("custody/sqlite: credit: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() int64 {
	return types.Now().UnixNano()
}
