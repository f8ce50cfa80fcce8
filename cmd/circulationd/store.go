package main

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/library/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell/config"
)

type openedStore struct {
	store *postgresengine.Store
	ping  func(ctx context.Context) error
	close func()
}

func storeOptions(cfg config.DatabaseConfig, wiring httpapi.Wiring) []postgresengine.Option {
	var opts []postgresengine.Option

	if cfg.TablePrefix != "" {
		opts = append(opts, postgresengine.WithTablePrefix(cfg.TablePrefix))
	}

	if wiring.Logger != nil {
		opts = append(opts, postgresengine.WithLogger(wiring.Logger))
	}

	if wiring.ContextualLogger != nil {
		opts = append(opts, postgresengine.WithContextualLogger(wiring.ContextualLogger))
	}

	if wiring.Metrics != nil {
		opts = append(opts, postgresengine.WithMetrics(wiring.Metrics))
	}

	if wiring.Tracing != nil {
		opts = append(opts, postgresengine.WithTracing(wiring.Tracing))
	}

	return opts
}

// openStore connects with the configured driver and builds the store on top of it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, wiring httpapi.Wiring) (openedStore, error) {
	opts := storeOptions(cfg, wiring)

	switch cfg.Driver {
	case config.DriverSQLDB:
		db, err := config.PostgresSQLDB(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return openedStore{}, fmt.Errorf("database/sql: %w", err)
		}

		store, err := postgresengine.NewStoreFromSQLDB(db, opts...)
		if err != nil {
			_ = db.Close()
			return openedStore{}, err
		}

		return openedStore{store: store, ping: db.PingContext, close: func() { _ = db.Close() }}, nil

	case config.DriverSQLX:
		db, err := config.PostgresSQLX(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return openedStore{}, fmt.Errorf("sqlx: %w", err)
		}

		store, err := postgresengine.NewStoreFromSQLX(db, opts...)
		if err != nil {
			_ = db.Close()
			return openedStore{}, err
		}

		return openedStore{store: store, ping: db.PingContext, close: func() { _ = db.Close() }}, nil

	default:
		return openPGXStore(ctx, cfg, opts)
	}
}

func openPGXStore(ctx context.Context, cfg config.DatabaseConfig, opts []postgresengine.Option) (openedStore, error) {
	primary, err := config.PostgresPGXPool(ctx, cfg.DSN, cfg.MaxConns)
	if err != nil {
		return openedStore{}, fmt.Errorf("pgx primary: %w", err)
	}

	if cfg.ReplicaDSN == "" {
		store, storeErr := postgresengine.NewStoreFromPGXPool(primary, opts...)
		if storeErr != nil {
			primary.Close()
			return openedStore{}, storeErr
		}

		return openedStore{store: store, ping: primary.Ping, close: primary.Close}, nil
	}

	replica, err := config.PostgresPGXPool(ctx, cfg.ReplicaDSN, cfg.MaxConns)
	if err != nil {
		primary.Close()
		return openedStore{}, fmt.Errorf("pgx replica: %w", err)
	}

	store, err := postgresengine.NewStoreFromPGXPoolAndReplica(primary, replica, opts...)
	if err != nil {
		primary.Close()
		replica.Close()

		return openedStore{}, err
	}

	return openedStore{
		store: store,
		ping:  primary.Ping,
		close: func() {
			replica.Close()
			primary.Close()
		},
	}, nil
}
