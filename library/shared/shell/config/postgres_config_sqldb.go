package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresSQLDB opens, configures and pings a *sql.DB using the lib/pq driver.
func PostgresSQLDB(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	configurePool(db, maxConns)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// poolSettings is implemented by *sql.DB and *sqlx.DB.
type poolSettings interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	SetConnMaxIdleTime(d time.Duration)
}

func configurePool(db poolSettings, maxConns int) {
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(max(1, maxConns/5))
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}
