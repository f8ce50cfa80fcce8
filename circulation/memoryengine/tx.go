package memoryengine

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// memTx implements circulation.Tx on a working copy of the state.
// The Store mutex is held for the whole transaction, so LockBooks only has to validate.
type memTx struct {
	st *state
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func (t *memTx) LockBooks(_ context.Context, bookIDs ...uuid.UUID) ([]circulation.Book, error) {
	ordered := slices.Clone(bookIDs)
	slices.SortFunc(ordered, compareIDs)
	ordered = slices.Compact(ordered)

	books := make([]circulation.Book, 0, len(ordered))
	for _, id := range ordered {
		book, ok := t.st.books[id]
		if !ok || book.DeletedAt != nil {
			return nil, circulation.ErrBookNotFound
		}

		books = append(books, book)
	}

	return books, nil
}

func (t *memTx) Book(_ context.Context, bookID uuid.UUID) (circulation.Book, error) {
	book, ok := t.st.books[bookID]
	if !ok || book.DeletedAt != nil {
		return circulation.Book{}, circulation.ErrBookNotFound
	}

	return book, nil
}

func (t *memTx) InsertBook(_ context.Context, book circulation.Book) error {
	t.st.books[book.ID] = book
	return nil
}

func (t *memTx) AvailableItemCount(_ context.Context, bookID uuid.UUID) (int, error) {
	total := 0
	for _, item := range t.st.items {
		if item.BookID == bookID && item.Status == circulation.BookItemAvailable && item.DeletedAt == nil {
			total++
		}
	}

	return total, nil
}

func (t *memTx) ReservedQuantity(_ context.Context, bookID uuid.UUID) (int, error) {
	return t.sumQuantity(bookID, circulation.RequestApproved), nil
}

func (t *memTx) OutstandingDemand(_ context.Context, bookID uuid.UUID) (int, error) {
	return t.sumQuantity(bookID, circulation.RequestPending, circulation.RequestApproved), nil
}

func (t *memTx) sumQuantity(bookID uuid.UUID, statuses ...circulation.RequestStatus) int {
	total := 0
	for _, r := range t.st.requests {
		if r.BookID() == bookID && r.DeletedAt == nil && slices.Contains(statuses, r.Status) {
			total += r.Item.Quantity
		}
	}

	return total
}

func (t *memTx) PendingQueue(_ context.Context, bookID uuid.UUID) (circulation.Queue, error) {
	queue := make(circulation.Queue, 0)
	for _, r := range t.st.requests {
		if r.BookID() == bookID && r.Status == circulation.RequestPending && r.DeletedAt == nil {
			queue = append(queue, circulation.QueueEntry{
				RequestID: r.ID,
				UserID:    r.UserID,
				Quantity:  r.Item.Quantity,
				CreatedAt: r.CreatedAt,
			})
		}
	}

	slices.SortFunc(queue, func(a, b circulation.QueueEntry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return compareIDs(a.RequestID, b.RequestID)
	})

	return queue, nil
}

func (t *memTx) CountActiveRequests(_ context.Context, userID uuid.UUID, bookID uuid.UUID) (int, error) {
	total := 0
	for _, r := range t.st.requests {
		if r.UserID == userID && r.BookID() == bookID && r.Status.IsActive() && r.DeletedAt == nil {
			total++
		}
	}

	return total, nil
}

func (t *memTx) InsertBorrowRequest(ctx context.Context, request circulation.BorrowRequest) error {
	if request.Status.IsActive() && request.DeletedAt == nil {
		active, err := t.CountActiveRequests(ctx, request.UserID, request.BookID())
		if err != nil {
			return err
		}

		if active > 0 {
			return circulation.ErrDuplicateActive
		}
	}

	t.st.requests[request.ID] = request

	return nil
}

func (t *memTx) BorrowRequest(_ context.Context, requestID uuid.UUID) (circulation.BorrowRequest, error) {
	r, ok := t.st.requests[requestID]
	if !ok || r.DeletedAt != nil {
		return circulation.BorrowRequest{}, circulation.ErrRequestNotFound
	}

	return r, nil
}

func (t *memTx) TransitionRequest(_ context.Context, transition circulation.RequestTransition) error {
	r, ok := t.st.requests[transition.RequestID]
	if !ok || r.DeletedAt != nil {
		return circulation.ErrRequestNotFound
	}

	if !slices.Contains(transition.From, r.Status) {
		return circulation.ErrRequestStatusConflict
	}

	r.Status = transition.To
	r.UpdatedAt = transition.At

	if transition.To == circulation.RequestApproved {
		at := transition.At
		r.ApprovedAt = &at
	}

	t.st.requests[r.ID] = r

	return nil
}

func (t *memTx) ApprovedRequestsBefore(_ context.Context, cutoff time.Time, limit int) ([]circulation.BorrowRequest, error) {
	approved := make([]circulation.BorrowRequest, 0)
	for _, r := range t.st.requests {
		if r.Status == circulation.RequestApproved && r.DeletedAt == nil && r.ApprovedAt != nil && r.ApprovedAt.Before(cutoff) {
			approved = append(approved, r)
		}
	}

	slices.SortFunc(approved, func(a, b circulation.BorrowRequest) int {
		if c := a.ApprovedAt.Compare(*b.ApprovedAt); c != 0 {
			return c
		}

		return compareIDs(a.ID, b.ID)
	})

	if limit > 0 && len(approved) > limit {
		approved = approved[:limit]
	}

	return approved, nil
}

func (t *memTx) InsertBookItems(_ context.Context, items ...circulation.BookItem) error {
	for _, item := range items {
		t.st.items[item.ID] = item
	}

	return nil
}

func (t *memTx) BookItem(_ context.Context, itemID uuid.UUID) (circulation.BookItem, error) {
	item, ok := t.st.items[itemID]
	if !ok || item.DeletedAt != nil {
		return circulation.BookItem{}, circulation.ErrBookItemNotFound
	}

	return item, nil
}

func (t *memTx) SetItemStatus(ctx context.Context, itemID uuid.UUID, status circulation.BookItemStatus) (circulation.BookItem, error) {
	previous, err := t.BookItem(ctx, itemID)
	if err != nil {
		return circulation.BookItem{}, err
	}

	updated := previous
	updated.Status = status
	t.st.items[itemID] = updated

	return previous, nil
}

func (t *memTx) AllocateAvailableItems(_ context.Context, bookID uuid.UUID, quantity int) ([]uuid.UUID, error) {
	if quantity <= 0 {
		return nil, circulation.ErrNonPositiveQuantity
	}

	candidates := make([]uuid.UUID, 0)
	for id, item := range t.st.items {
		if item.BookID == bookID && item.Status == circulation.BookItemAvailable && item.DeletedAt == nil {
			candidates = append(candidates, id)
		}
	}

	if len(candidates) < quantity {
		return nil, circulation.ErrInsufficientCopies
	}

	slices.SortFunc(candidates, compareIDs)
	allocated := candidates[:quantity]

	for _, id := range allocated {
		item := t.st.items[id]
		item.Status = circulation.BookItemOnBorrow
		t.st.items[id] = item
	}

	return allocated, nil
}

func (t *memTx) ReleaseItems(_ context.Context, itemIDs ...uuid.UUID) error {
	for _, id := range itemIDs {
		item, ok := t.st.items[id]
		if !ok || item.DeletedAt != nil || item.Status != circulation.BookItemOnBorrow {
			return circulation.ErrItemStatusConflict
		}

		item.Status = circulation.BookItemAvailable
		t.st.items[id] = item
	}

	return nil
}

func (t *memTx) InsertBorrowRecord(_ context.Context, record circulation.BorrowRecord) error {
	record.Books = append([]circulation.BorrowBook(nil), record.Books...)
	record.Ebooks = append([]circulation.BorrowEbook(nil), record.Ebooks...)
	t.st.records[record.ID] = record

	return nil
}

func (t *memTx) BorrowRecord(_ context.Context, recordID uuid.UUID) (circulation.BorrowRecord, error) {
	record, ok := t.st.records[recordID]
	if !ok || record.DeletedAt != nil {
		return circulation.BorrowRecord{}, circulation.ErrBorrowRecordNotFound
	}

	record.Books = append([]circulation.BorrowBook(nil), record.Books...)
	record.Ebooks = append([]circulation.BorrowEbook(nil), record.Ebooks...)

	return record, nil
}

func (t *memTx) RenewBorrowRecord(
	ctx context.Context,
	recordID uuid.UUID,
	expectedRenewalCount int,
	newReturnDate time.Time,
) error {
	record, err := t.BorrowRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if record.Status != circulation.LoanBorrowed || record.RenewalCount != expectedRenewalCount {
		return circulation.ErrRecordStatusConflict
	}

	record.ReturnDate = circulation.DateOf(newReturnDate)
	record.RenewalCount++
	t.st.records[recordID] = record

	return nil
}

func (t *memTx) CloseBorrowRecord(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) error {
	record, err := t.BorrowRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if record.Status != circulation.LoanBorrowed && record.Status != circulation.LoanOverdue {
		return circulation.ErrRecordStatusConflict
	}

	record.Status = circulation.LoanReturned
	record.ActualReturnDate = &returnedAt

	for i := range record.Ebooks {
		if record.Ebooks[i].DeletedAt == nil {
			record.Ebooks[i].DeletedAt = &returnedAt
		}
	}

	t.st.records[recordID] = record

	return nil
}

func (t *memTx) HasActiveEbookLoan(_ context.Context, userID uuid.UUID, bookID uuid.UUID) (bool, error) {
	for _, record := range t.st.records {
		if record.UserID != userID || record.DeletedAt != nil {
			continue
		}

		if record.Status != circulation.LoanBorrowed && record.Status != circulation.LoanOverdue {
			continue
		}

		for _, e := range record.Ebooks {
			if e.BookID == bookID && e.DeletedAt == nil {
				return true, nil
			}
		}
	}

	return false, nil
}

func (t *memTx) MarkOverdue(_ context.Context, today time.Time) (int64, error) {
	var marked int64
	today = circulation.DateOf(today)

	for id, record := range t.st.records {
		if record.Status == circulation.LoanBorrowed && record.DeletedAt == nil && record.ReturnDate.Before(today) {
			record.Status = circulation.LoanOverdue
			t.st.records[id] = record
			marked++
		}
	}

	return marked, nil
}
