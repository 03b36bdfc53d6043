// Package postgres implements the custody store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the "pg" migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// numericOutOfRange is the SQLSTATE raised when a BIGINT overflows.
const numericOutOfRange = "22003"

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// Open connects a pgdriver pool to dsn and wraps it in a grove handle.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pgdb := pgdriver.New()
	if err := pgdb.Open(ctx, dsn); err != nil {
		return nil, fmt.Errorf("custody/postgres: connect: %w", err)
	}
	db, err := grove.Open(pgdb)
	if err != nil {
		_ = pgdb.Close()
		return nil, fmt.Errorf("custody/postgres: open grove: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("custody/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("custody/postgres: migration failed: %w", err)
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

// Atomic runs fn inside a grove transaction. Rows read through the Tx are
// locked until commit.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("custody/postgres: begin: %w", err)
	}
	defer func() { _ = gtx.Rollback() }()

	dtx, ok := gtx.Raw().(driver.Tx)
	if !ok {
		return fmt.Errorf("custody/postgres: unexpected transaction type %T", gtx.Raw())
	}

	if err := fn(ctx, &tx{q: dtx}); err != nil {
		return err
	}
	if err := gtx.Commit(); err != nil {
		return fmt.Errorf("custody/postgres: commit: %w", err)
	}
	return nil
}

// Account reads a committed account.
func (s *Store) Account(ctx context.Context, addr address.Address) (*store.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).Where("address = $1", addr.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("custody/postgres: get account: %w", err)
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

// tx runs hand-written SQL on the driver transaction. Every read takes a
// row lock.
type tx struct {
	q driver.Tx
}

func (t *tx) Account(ctx context.Context, addr address.Address) (*store.Account, error) {
	m := &accountModel{Address: addr.String()}
	err := t.q.QueryRow(ctx,
		`SELECT data, balance, created_at, updated_at FROM custody_accounts WHERE address = $1 FOR UPDATE`,
		m.Address,
	).Scan(&m.Data, &m.Balance, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("custody/postgres: get account: %w", err)
	}
	return fromAccountModel(m)
}

func (t *tx) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	var balance int64
	err := t.q.QueryRow(ctx,
		`SELECT balance FROM custody_accounts WHERE address = $1 FOR UPDATE`,
		addr.String(),
	).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("custody/postgres: get balance: %w", err)
	}
	return uint64(balance), nil
}

func (t *tx) CreateAccount(ctx context.Context, addr address.Address, data []byte) error {
	ts := now()
	res, err := t.q.Exec(ctx, `
INSERT INTO custody_accounts (address, data, balance, created_at, updated_at) VALUES ($1, $2, 0, $3, $3)
ON CONFLICT (address) DO UPDATE SET
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at
WHERE custody_accounts.data IS NULL OR length(custody_accounts.data) = 0`,
		addr.String(), data, ts)
	if err != nil {
		return fmt.Errorf("custody/postgres: create account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // pgx always reports a count
		return fmt.Errorf("%w: %s", store.ErrAccountExists, addr)
	}
	return nil
}

func (t *tx) UpdateAccount(ctx context.Context, addr address.Address, data []byte) error {
	res, err := t.q.Exec(ctx, `
UPDATE custody_accounts SET data = $1, updated_at = $2
WHERE address = $3 AND data IS NOT NULL AND length(data) > 0`,
		data, now(), addr.String())
	if err != nil {
		return fmt.Errorf("custody/postgres: update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // pgx always reports a count
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
		`UPDATE custody_accounts SET balance = balance - $1, updated_at = $2 WHERE address = $3`,
		int64(amount), now(), from.String()); err != nil {
		return fmt.Errorf("custody/postgres: debit: %w", err)
	}
	return t.addBalance(ctx, to, amount)
}

func (t *tx) credit(ctx context.Context, addr address.Address, amount uint64) error {
	if amount > store.MaxBalance {
		return store.ErrBalanceOverflow
	}
	return t.addBalance(ctx, addr, amount)
}

// addBalance upserts addr and adds amount to its balance.
func (t *tx) addBalance(ctx context.Context, addr address.Address, amount uint64) error {
	ts := now()
	_, err := t.q.Exec(ctx, `
INSERT INTO custody_accounts (address, balance, created_at, updated_at) VALUES ($1, $2, $3, $3)
ON CONFLICT (address) DO UPDATE SET
    balance = custody_accounts.balance + EXCLUDED.balance,
    updated_at = EXCLUDED.updated_at`,
		addr.String(), int64(amount), ts)
	if err != nil {
		if isOutOfRange(err) {
			return store.ErrBalanceOverflow
		}
		return fmt.Errorf("custody/postgres: credit: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange
}

func now() time.Time {
	return types.Now()
}
