package adapters

import "context"

// DBAdapter defines the interface for opening transactions needed by the circulation store.
type DBAdapter interface {
	// Begin opens a transaction on the primary. With readOnly and useReplica set,
	// adapters that have a replica configured open it there instead.
	Begin(ctx context.Context, readOnly bool, useReplica bool) (DBTx, error)
}

// DBTx defines the interface for statements inside one transaction.
type DBTx interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
