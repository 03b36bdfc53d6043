package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/postgres"
	"github.com/xraph/custody/store/storetest"
)

// TestConformance runs against the database named by CUSTODY_POSTGRES_DSN.
func TestConformance(t *testing.T) {
	dsn := os.Getenv("CUSTODY_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CUSTODY_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := postgres.Open(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Migrate(ctx))
		_, err = pgdriver.Unwrap(s.DB()).Exec(ctx, `TRUNCATE custody_accounts`)
		require.NoError(t, err)
		return s
	})
}
