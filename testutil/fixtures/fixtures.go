package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// Reader returns a new reader actor.
func Reader() circulation.Actor {
	return circulation.Actor{UserID: uuid.New(), Role: circulation.RoleReader}
}

// Librarian returns a new librarian actor.
func Librarian() circulation.Actor {
	return circulation.Actor{UserID: uuid.New(), Role: circulation.RoleLibrarian}
}

// Today returns the current date.
func Today() time.Time {
	return circulation.DateOf(time.Now())
}

// BookOption changes the seeded book.
type BookOption func(*circulation.Book)

// WithEbook gives the book a digital edition.
func WithEbook() BookOption {
	return func(b *circulation.Book) { b.HasEbook = true }
}

// WithTitle sets the title.
func WithTitle(title string) BookOption {
	return func(b *circulation.Book) { b.Title = title }
}

// GivenBook inserts a book with the given number of AVAILABLE copies and returns its ID and the copy IDs.
func GivenBook(t *testing.T, store circulation.Store, copies int, opts ...BookOption) (uuid.UUID, []uuid.UUID) {
	t.Helper()

	book := circulation.Book{ID: uuid.New(), Title: "The Left Hand of Darkness"}
	for _, opt := range opts {
		opt(&book)
	}

	itemIDs := make([]uuid.UUID, 0, copies)
	items := make([]circulation.BookItem, 0, copies)

	for range copies {
		item := circulation.BookItem{ID: uuid.New(), BookID: book.ID, Status: circulation.BookItemAvailable}
		items = append(items, item)
		itemIDs = append(itemIDs, item.ID)
	}

	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		if err := tx.InsertBook(ctx, book); err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		return tx.InsertBookItems(ctx, items...)
	})
	require.NoError(t, err)

	return book.ID, itemIDs
}

// GivenCopies adds AVAILABLE copies to an existing book and returns their IDs.
func GivenCopies(t *testing.T, store circulation.Store, bookID uuid.UUID, copies int) []uuid.UUID {
	t.Helper()

	itemIDs := make([]uuid.UUID, 0, copies)
	items := make([]circulation.BookItem, 0, copies)

	for range copies {
		item := circulation.BookItem{ID: uuid.New(), BookID: bookID, Status: circulation.BookItemAvailable}
		items = append(items, item)
		itemIDs = append(itemIDs, item.ID)
	}

	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		return tx.InsertBookItems(ctx, items...)
	})
	require.NoError(t, err)

	return itemIDs
}

// GivenRequest inserts a request for the user in the given status, created at createdAt.
func GivenRequest(
	t *testing.T,
	store circulation.Store,
	userID uuid.UUID,
	bookID uuid.UUID,
	quantity int,
	status circulation.RequestStatus,
	createdAt time.Time,
) uuid.UUID {
	t.Helper()

	start := circulation.DateOf(createdAt)
	end := start.AddDate(0, 0, 14)

	request := circulation.BorrowRequest{
		ID:        uuid.New(),
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Item: circulation.BorrowRequestItem{
			BookID:    bookID,
			Quantity:  quantity,
			StartDate: start,
			EndDate:   end,
		},
	}

	if status == circulation.RequestApproved {
		approvedAt := createdAt
		request.ApprovedAt = &approvedAt
	}

	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		return tx.InsertBorrowRequest(ctx, request)
	})
	require.NoError(t, err)

	return request.ID
}

// GivenLoan inserts a BORROWED physical loan of the given copies.
func GivenLoan(
	t *testing.T,
	store circulation.Store,
	userID uuid.UUID,
	bookID uuid.UUID,
	itemIDs []uuid.UUID,
	borrowDate time.Time,
	returnDate time.Time,
) uuid.UUID {
	t.Helper()

	record := circulation.BorrowRecord{
		ID:         uuid.New(),
		UserID:     userID,
		BorrowDate: circulation.DateOf(borrowDate),
		ReturnDate: circulation.DateOf(returnDate),
		Status:     circulation.LoanBorrowed,
	}

	for _, itemID := range itemIDs {
		record.Books = append(record.Books, circulation.BorrowBook{BookItemID: itemID, BookID: bookID})
	}

	err := store.Transact(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		for _, itemID := range itemIDs {
			if _, err := tx.SetItemStatus(ctx, itemID, circulation.BookItemOnBorrow); err != nil {
				return err
			}
		}

		return tx.InsertBorrowRecord(ctx, record)
	})
	require.NoError(t, err)

	return record.ID
}

// Request reads a request.
func Request(t *testing.T, store circulation.Store, requestID uuid.UUID) circulation.BorrowRequest {
	t.Helper()

	var request circulation.BorrowRequest

	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var err error
		request, err = tx.BorrowRequest(ctx, requestID)

		return err
	})
	require.NoError(t, err)

	return request
}

// Record reads a loan.
func Record(t *testing.T, store circulation.Store, recordID uuid.UUID) circulation.BorrowRecord {
	t.Helper()

	var record circulation.BorrowRecord

	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var err error
		record, err = tx.BorrowRecord(ctx, recordID)

		return err
	})
	require.NoError(t, err)

	return record
}

// Item reads a copy.
func Item(t *testing.T, store circulation.Store, itemID uuid.UUID) circulation.BookItem {
	t.Helper()

	var item circulation.BookItem

	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var err error
		item, err = tx.BookItem(ctx, itemID)

		return err
	})
	require.NoError(t, err)

	return item
}

// Supply reads the supply counters of a book.
func Supply(t *testing.T, store circulation.Store, bookID uuid.UUID) core.Supply {
	t.Helper()

	supply := core.Supply{BookID: bookID}

	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var err error
		if supply.Available, err = tx.AvailableItemCount(ctx, bookID); err != nil {
			return err
		}

		supply.Reserved, err = tx.ReservedQuantity(ctx, bookID)

		return err
	})
	require.NoError(t, err)

	return supply
}

// Queue reads the PENDING queue of a book.
func Queue(t *testing.T, store circulation.Store, bookID uuid.UUID) circulation.Queue {
	t.Helper()

	var queue circulation.Queue

	err := store.ReadOnly(context.Background(), func(ctx context.Context, tx circulation.Tx) error {
		var err error
		queue, err = tx.PendingQueue(ctx, bookID)

		return err
	})
	require.NoError(t, err)

	return queue
}

// RequireSupplyInvariant fails the test if the book's reservations exceed its available copies.
func RequireSupplyInvariant(t *testing.T, store circulation.Store, bookID uuid.UUID) {
	t.Helper()

	require.NoError(t, core.CheckSupplyInvariant(Supply(t, store, bookID)))
}
