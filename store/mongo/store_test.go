package mongo_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/mongo"
	"github.com/xraph/custody/store/storetest"
)

// TestConformance runs against the replica set named by CUSTODY_MONGO_URI.
func TestConformance(t *testing.T) {
	uri := os.Getenv("CUSTODY_MONGO_URI")
	if uri == "" {
		t.Skip("CUSTODY_MONGO_URI not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := mongo.Open(ctx, uri, "custody_test")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, mongodriver.Unwrap(s.DB()).Database().Drop(ctx))
		require.NoError(t, s.Migrate(ctx))
		return s
	})
}
