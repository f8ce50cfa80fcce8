package postgreswrapper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/config"
)

const (
	// EnvDSN holds the connection string of the test database. Integration tests skip without it.
	EnvDSN = "CIRCULATION_TEST_DSN"

	// EnvAdapterType selects the driver: pgx (default), sqldb or sqlx.
	EnvAdapterType = "ADAPTER_TYPE"

	testMaxConns = 20
)

// Wrapper is a store on a private set of tables plus the connection it runs on.
type Wrapper struct {
	Store  *postgresengine.Store
	Driver string
	close  func()
}

// New connects to the test database, creates a fresh schema and registers its removal with t.Cleanup.
func New(t testing.TB, opts ...postgresengine.Option) *Wrapper {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", EnvDSN)
	}

	ctx := context.Background()
	prefix := "t" + uuid.NewString()[:8] + "_"
	opts = append(opts, postgresengine.WithTablePrefix(prefix))

	w := &Wrapper{Driver: strings.ToLower(os.Getenv(EnvAdapterType))}

	switch w.Driver {
	case config.DriverSQLDB:
		db, err := config.PostgresSQLDB(ctx, dsn, testMaxConns)
		require.NoError(t, err, "error connecting via database/sql in test setup")

		w.Store, err = postgresengine.NewStoreFromSQLDB(db, opts...)
		require.NoError(t, err)

		w.close = func() { _ = db.Close() }

	case config.DriverSQLX:
		db, err := config.PostgresSQLX(ctx, dsn, testMaxConns)
		require.NoError(t, err, "error connecting via sqlx in test setup")

		w.Store, err = postgresengine.NewStoreFromSQLX(db, opts...)
		require.NoError(t, err)

		w.close = func() { _ = db.Close() }

	case config.DriverPGX, "":
		w.Driver = config.DriverPGX

		pool, err := config.PostgresPGXPool(ctx, dsn, testMaxConns)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		w.Store, err = postgresengine.NewStoreFromPGXPool(pool, opts...)
		require.NoError(t, err)

		w.close = pool.Close

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", w.Driver))
	}

	require.NoError(t, w.Store.CreateSchema(ctx), "error creating the test schema")

	t.Cleanup(func() {
		if err := w.Store.DropSchema(context.Background()); err != nil {
			t.Logf("dropping test schema failed: %v", err)
		}

		w.close()
	})

	return w
}
