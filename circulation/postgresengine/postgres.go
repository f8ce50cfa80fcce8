package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	logMsgBeginFailed         = "failed to begin transaction"
	logMsgCommitFailed        = "failed to commit transaction"
	logMsgRollbackFailed      = "failed to roll back transaction"
	logMsgBuildQueryFailed    = "failed to build query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database statement execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgTransactionDone     = "transaction committed"
	logMsgTransactionAborted  = "transaction rolled back"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "circulation store operation: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrDurationMS         = "duration_ms"
	logAttrStatements         = "statements"
	logAttrMode               = "mode"
	logAttrConsistency        = "consistency"
	logActionQuery            = "query"
	logActionExec             = "exec"
	modeReadWrite             = "read_write"
	modeReadOnly              = "read_only"
	dialectPostgres           = "postgres"
)

// Store is the PostgreSQL implementation of circulation.Store.
// It leverages a database adapter and supports customizable logging, metrics, tracing and table names.
type Store struct {
	db               adapters.DBAdapter
	tables           tableNames
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
	metricsCollector circulation.MetricsCollector
	tracingCollector circulation.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolAndReplica creates a new Store using a primary pgx Pool and a replica pool.
// ReadOnly units of work run on the replica when the context requests EventualConsistency.
func NewStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil || replica == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:     db,
		tables: newTableNames(""),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Transact runs fn inside a READ COMMITTED read-write transaction on the primary.
// Serialization failures and deadlocks surface as circulation.ErrConcurrencyConflict.
func (s *Store) Transact(ctx context.Context, fn circulation.TxFunc) error {
	return s.run(ctx, false, fn)
}

// ReadOnly runs fn inside a read-only transaction, on the replica when one is configured
// and the context carries circulation.EventualConsistency.
func (s *Store) ReadOnly(ctx context.Context, fn circulation.TxFunc) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn circulation.TxFunc) error {
	mode := modeReadWrite
	if readOnly {
		mode = modeReadOnly
	}

	consistency := circulation.GetConsistencyLevel(ctx)
	useReplica := consistency == circulation.EventualConsistency

	tracer, ctx := s.startTransactionTracing(ctx, mode, consistency)
	metrics := s.startTransactionMetrics(ctx, mode)
	start := time.Now()

	dbTx, beginErr := s.db.Begin(ctx, readOnly, useReplica)
	if beginErr != nil {
		err := classify(errors.Join(circulation.ErrBeginTransactionFailed, beginErr))
		s.logError(ctx, logMsgBeginFailed, err)
		tracer.finishError(errorTypeOf(err), time.Since(start))
		metrics.recordError(errorTypeOf(err), time.Since(start))

		return err
	}

	tx := &pgTx{store: s, db: dbTx}

	if fnErr := fn(ctx, tx); fnErr != nil {
		s.rollback(ctx, dbTx)
		duration := time.Since(start)
		s.logOperation(ctx, logMsgTransactionAborted, logAttrMode, mode, logAttrError, fnErr.Error(),
			logAttrDurationMS, toMilliseconds(duration))

		if errors.Is(fnErr, circulation.ErrConcurrencyConflict) {
			s.logOperation(ctx, logMsgConcurrencyConflict, logAttrMode, mode)
			metrics.recordConcurrencyConflict()
		}

		tracer.finishError(errorTypeOf(fnErr), duration)
		metrics.recordError(errorTypeOf(fnErr), duration)

		return fnErr
	}

	if commitErr := dbTx.Commit(ctx); commitErr != nil {
		err := classify(errors.Join(circulation.ErrCommitTransactionFailed, commitErr))
		s.rollback(ctx, dbTx)
		duration := time.Since(start)
		s.logError(ctx, logMsgCommitFailed, err)

		if errors.Is(err, circulation.ErrConcurrencyConflict) {
			metrics.recordConcurrencyConflict()
		}

		tracer.finishError(errorTypeOf(err), duration)
		metrics.recordError(errorTypeOf(err), duration)

		return err
	}

	duration := time.Since(start)
	s.logOperation(ctx, logMsgTransactionDone,
		logAttrMode, mode,
		logAttrConsistency, consistency.String(),
		logAttrStatements, tx.statements,
		logAttrDurationMS, toMilliseconds(duration))
	tracer.finishSuccess(tx.statements, duration)
	metrics.recordSuccess(tx.statements, duration)

	return nil
}

func (s *Store) rollback(ctx context.Context, dbTx adapters.DBTx) {
	// The caller's context may already be cancelled; the rollback must still reach the server.
	if err := dbTx.Rollback(context.WithoutCancel(ctx)); err != nil {
		s.logWarn(ctx, logMsgRollbackFailed, logAttrError, err.Error())
	}
}
