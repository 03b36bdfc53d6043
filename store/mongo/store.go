// Package mongo implements the custody store on MongoDB via Grove ORM.
// Atomic runs inside a multi-document session transaction, so the server
// must be a replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// Collection name constants.
const (
	colAccounts = "custody_accounts"
)

// namespaceExists is the server error code for an existing collection.
const namespaceExists = 48

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(ctx, uri, mongodriver.WithDatabase(database)); err != nil {
		return nil, fmt.Errorf("custody/mongo: connect: %w", err)
	}
	db, err := grove.Open(mdb)
	if err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("custody/mongo: open grove: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

func (s *Store) accounts() *mongo.Collection { return s.mdb.Collection(colAccounts) }

// Migrate creates the accounts collection and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.mdb.Database().CreateCollection(ctx, colAccounts); err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExists {
			return fmt.Errorf("custody/mongo: create %s: %w", colAccounts, err)
		}
	}

	_, err := s.accounts().Indexes().CreateMany(ctx, migrationIndexes())
	if err != nil {
		return fmt.Errorf("custody/mongo: migrate %s indexes: %w", colAccounts, err)
	}
	return nil
}

func migrationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// sessionTx is the part of the mongodriver transaction Atomic relies on.
type sessionTx interface {
	SessionContext(ctx context.Context) context.Context
}

// Atomic runs fn inside a grove session transaction. The context handed to
// fn carries the session, so every collection call made with it joins the
// transaction.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("custody/mongo: begin: %w", err)
	}
	defer func() { _ = gtx.Rollback() }()

	st, ok := gtx.Raw().(sessionTx)
	if !ok {
		return fmt.Errorf("custody/mongo: unexpected transaction type %T", gtx.Raw())
	}

	if err := fn(st.SessionContext(ctx), &tx{col: s.accounts()}); err != nil {
		return err
	}
	if err := gtx.Commit(); err != nil {
		return fmt.Errorf("custody/mongo: commit: %w", err)
	}
	return nil
}

// Account reads a committed account.
func (s *Store) Account(ctx context.Context, addr address.Address) (*store.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("custody/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
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

// ==================== Queries ====================

func getAccount(ctx context.Context, col *mongo.Collection, addr address.Address) (*store.Account, error) {
	var m accountModel
	err := col.FindOne(ctx, bson.M{"_id": addr.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrAccountNotFound
		}
		return nil, fmt.Errorf("custody/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func getBalance(ctx context.Context, col *mongo.Collection, addr address.Address) (uint64, error) {
	acct, err := getAccount(ctx, col, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func addBalance(ctx context.Context, col *mongo.Collection, addr address.Address, amount uint64) error {
	t := now()
	_, err := col.UpdateOne(ctx,
		bson.M{"_id": addr.String()},
		bson.M{
			"$inc":         bson.M{"balance": int64(amount)},
			"$set":         bson.M{"updated_at": t},
			"$setOnInsert": bson.M{"created_at": t},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("custody/mongo: credit: %w", err)
	}
	return nil
}

// ==================== Transaction ====================

type tx struct {
	col *mongo.Collection
}

func (t *tx) Account(ctx context.Context, addr address.Address) (*store.Account, error) {
	return getAccount(ctx, t.col, addr)
}

func (t *tx) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	return getBalance(ctx, t.col, addr)
}

// CreateAccount upserts on a filter that only matches data-less documents.
// When the address already holds data the upsert collides on _id.
func (t *tx) CreateAccount(ctx context.Context, addr address.Address, data []byte) error {
	ts := now()
	_, err := t.col.UpdateOne(ctx,
		bson.M{"_id": addr.String(), "data": bson.M{"$exists": false}},
		bson.M{
			"$set":         bson.M{"data": data, "updated_at": ts},
			"$setOnInsert": bson.M{"balance": int64(0), "created_at": ts},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", store.ErrAccountExists, addr)
		}
		return fmt.Errorf("custody/mongo: create account: %w", err)
	}
	return nil
}

func (t *tx) UpdateAccount(ctx context.Context, addr address.Address, data []byte) error {
	res, err := t.col.UpdateOne(ctx,
		bson.M{"_id": addr.String(), "data": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{"data": data, "updated_at": now()}},
	)
	if err != nil {
		return fmt.Errorf("custody/mongo: update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, addr)
	}
	return nil
}

func (t *tx) Transfer(ctx context.Context, from, to address.Address, amount uint64) error {
	if err := store.CheckTransfer(from, to, amount); err != nil {
		return err
	}

	dst, err := getBalance(ctx, t.col, to)
	if err != nil {
		return err
	}
	if dst > store.MaxBalance-amount {
		return store.ErrBalanceOverflow
	}

	res, err := t.col.UpdateOne(ctx,
		bson.M{"_id": from.String(), "balance": bson.M{"$gte": int64(amount)}},
		bson.M{
			"$inc": bson.M{"balance": -int64(amount)},
			"$set": bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return fmt.Errorf("custody/mongo: debit: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrInsufficientFunds
	}
	return addBalance(ctx, t.col, to, amount)
}

func (t *tx) credit(ctx context.Context, addr address.Address, amount uint64) error {
	if amount > store.MaxBalance {
		return store.ErrBalanceOverflow
	}
	bal, err := getBalance(ctx, t.col, addr)
	if err != nil {
		return err
	}
	if bal > store.MaxBalance-amount {
		return store.ErrBalanceOverflow
	}
	return addBalance(ctx, t.col, addr, amount)
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func now() time.Time {
	return types.Now()
}
