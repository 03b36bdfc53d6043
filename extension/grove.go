package extension

import (
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/mongo"
	"github.com/xraph/custody/store/postgres"
	"github.com/xraph/custody/store/sqlite"
)

// resolveGroveDB looks up the named grove.DB, or the default one when name
// is empty.
func resolveGroveDB(fapp forge.App, name string) (*grove.DB, error) {
	var (
		db  *grove.DB
		err error
	)
	if name == "" {
		db, err = vessel.Inject[*grove.DB](fapp.Container())
	} else {
		db, err = vessel.InjectNamed[*grove.DB](fapp.Container(), name)
	}
	if err != nil {
		return nil, fmt.Errorf("custody: resolve grove database %q: %w", name, err)
	}
	return db, nil
}

// storeForGrove builds the store backend matching db's driver.
func storeForGrove(db *grove.DB) (store.Store, error) {
	switch name := db.Driver().Name(); name {
	case "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("custody: unsupported grove driver %q", name)
	}
}
