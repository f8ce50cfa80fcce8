// Package postgresengine provides a PostgreSQL implementation of the circulation.Store interface.
//
// It supports multiple database adapters (pgx, sql.DB, sqlx) behind one transactional
// contract. Every Transact call runs one READ COMMITTED transaction; write paths lock the
// involved book rows with SELECT ... FOR UPDATE before reading supply or queue state, and
// physical copies are allocated with FOR UPDATE SKIP LOCKED. All SQL is built with goqu.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX), optional pgx read replica
//   - Guarded single-row status updates with rows-affected conflict detection
//   - Serialization failures and deadlocks mapped to circulation.ErrConcurrencyConflict
//   - Configurable table prefix, dual-logger support, metrics and tracing hooks
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(
//		db,
//		postgresengine.WithLogger(logger),
//		postgresengine.WithMetrics(metricsCollector),
//	)
//	_ = store.CreateSchema(ctx)
//
//	err := store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
//		_, err := tx.LockBooks(ctx, bookID)
//		return err
//	})
package postgresengine
