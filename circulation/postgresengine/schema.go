package postgresengine

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// The single requested item of a borrow request lives inline on borrow_requests (book_id, quantity),
// which lets the partial unique index enforce one active request per user and book.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	has_ebook  BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id         UUID PRIMARY KEY,
	book_id    UUID NOT NULL REFERENCES %[1]s (id),
	status     TEXT NOT NULL,
	deleted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS %[2]s_book_status_idx ON %[2]s (book_id, status) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS %[3]s (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL,
	book_id     UUID NOT NULL REFERENCES %[1]s (id),
	quantity    INTEGER NOT NULL CHECK (quantity > 0),
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	approved_at TIMESTAMPTZ,
	deleted_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS %[3]s_queue_idx ON %[3]s (book_id, status, created_at, id) WHERE deleted_at IS NULL;

CREATE UNIQUE INDEX IF NOT EXISTS %[7]s ON %[3]s (user_id, book_id)
	WHERE status IN ('PENDING', 'APPROVED') AND deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS %[4]s (
	id                 UUID PRIMARY KEY,
	user_id            UUID NOT NULL,
	request_id         UUID REFERENCES %[3]s (id),
	borrow_date        DATE NOT NULL,
	return_date        DATE NOT NULL,
	actual_return_date TIMESTAMPTZ,
	status             TEXT NOT NULL,
	renewal_count      INTEGER NOT NULL DEFAULT 0,
	deleted_at         TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS %[4]s_status_due_idx ON %[4]s (status, return_date) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS %[5]s (
	record_id    UUID NOT NULL REFERENCES %[4]s (id),
	book_item_id UUID NOT NULL REFERENCES %[2]s (id),
	book_id      UUID NOT NULL REFERENCES %[1]s (id),
	PRIMARY KEY (record_id, book_item_id)
);

CREATE TABLE IF NOT EXISTS %[6]s (
	record_id  UUID NOT NULL REFERENCES %[4]s (id),
	book_id    UUID NOT NULL REFERENCES %[1]s (id),
	deleted_at TIMESTAMPTZ,
	PRIMARY KEY (record_id, book_id)
);
`

// CreateSchema creates the circulation tables and indexes if they do not exist yet.
func (s *Store) CreateSchema(ctx context.Context) error {
	return s.execDDL(ctx, s.schemaSQL())
}

// DropSchema drops all circulation tables. Intended for tests.
func (s *Store) DropSchema(ctx context.Context) error {
	t := s.tables

	return s.execDDL(ctx, fmt.Sprintf(
		"DROP TABLE IF EXISTS %s, %s, %s, %s, %s, %s",
		t.borrowEbooks, t.borrowBooks, t.borrowRecords, t.borrowRequests, t.bookItems, t.books,
	))
}

func (s *Store) schemaSQL() string {
	t := s.tables

	return fmt.Sprintf(schemaTemplate,
		t.books, t.bookItems, t.borrowRequests, t.borrowRecords, t.borrowBooks, t.borrowEbooks, t.activeRequestIndex)
}

func (s *Store) execDDL(ctx context.Context, ddl string) error {
	return s.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
		pg, ok := tx.(*pgTx)
		if !ok {
			return circulation.ErrExecutingFailed
		}

		_, err := pg.execRaw(ctx, ddl)

		return err
	})
}
