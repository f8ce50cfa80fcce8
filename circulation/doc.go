// Package circulation provides the core abstractions and types for borrow-request
// admission, queueing and loan renewal in a library circulation system.
//
// This package defines the records, statuses, error classes and the transactional
// storage contract (Store / Tx) shared by the storage engines, the command handlers
// and the transport layer.
//
// The storage contract is shaped around one rule: every write transaction locks the
// involved books first (LockBooks, ascending ID order) and only then reads supply,
// reservations and queue state. Everything read after the lock reflects the latest
// committed state, which is what keeps the admission decision race-free.
//
// Key types:
//   - Book, BookItem: catalog and physical copies (read by this package's users)
//   - BorrowRequest, BorrowRequestItem: a reader's intent to borrow, queued or approved
//   - BorrowRecord, BorrowBook, BorrowEbook: an actual loan
//   - Store, Tx: the transactional storage contract implemented by the engines
//
// Common usage pattern:
//
//	err := store.Transact(ctx, func(ctx context.Context, tx circulation.Tx) error {
//		books, err := tx.LockBooks(ctx, bookID)
//		if err != nil {
//			return err
//		}
//
//		available, err := tx.AvailableItemCount(ctx, bookID)
//		// ... decide, then write through tx
//	})
package circulation
