package postgresengine

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine/internal/adapters"
)

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// pgTx implements circulation.Tx on top of one database transaction.
type pgTx struct {
	store      *Store
	db         adapters.DBTx
	statements int
}

func (t *pgTx) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (t *pgTx) toSQL(ctx context.Context, b sqlBuilder) (string, error) {
	sqlQuery, _, err := b.ToSQL()
	if err != nil {
		t.store.logError(ctx, logMsgBuildQueryFailed, err)
		return "", errors.Join(circulation.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// collect runs the query and hands every row to scan.
func (t *pgTx) collect(ctx context.Context, b sqlBuilder, scan func(row adapters.DBRows) error) error {
	sqlQuery, err := t.toSQL(ctx, b)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, queryErr := t.db.Query(ctx, sqlQuery)
	t.statements++
	t.store.logQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))

	if queryErr != nil {
		t.store.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return classify(errors.Join(circulation.ErrQueryingFailed, queryErr))
	}
	defer t.closeRows(ctx, rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			t.store.logError(ctx, logMsgScanRowFailed, scanErr)
			return errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		t.store.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)
		return classify(errors.Join(circulation.ErrQueryingFailed, rowsErr))
	}

	return nil
}

func (t *pgTx) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		t.store.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// count runs a query selecting a single integer.
func (t *pgTx) count(ctx context.Context, b sqlBuilder) (int, error) {
	var total int64

	err := t.collect(ctx, b, func(row adapters.DBRows) error {
		return row.Scan(&total)
	})

	return int(total), err
}

func (t *pgTx) exec(ctx context.Context, b sqlBuilder) (int64, error) {
	sqlQuery, err := t.toSQL(ctx, b)
	if err != nil {
		return 0, err
	}

	return t.execRaw(ctx, sqlQuery)
}

func (t *pgTx) execRaw(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := t.db.Exec(ctx, sqlQuery)
	t.statements++
	t.store.logQueryWithDuration(ctx, sqlQuery, logActionExec, time.Since(start))

	if execErr != nil {
		t.store.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, classify(errors.Join(circulation.ErrExecutingFailed, execErr))
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		t.store.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(circulation.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// exists reports whether a non-deleted row with the given id is in table.
func (t *pgTx) exists(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	total, err := t.count(ctx, t.builder().From(table).
		Select(goqu.COUNT(goqu.Star()).As(aliasTotal)).
		Where(goqu.C(colID).Eq(id.String()), goqu.C(colDeletedAt).IsNull()))

	return total > 0, err
}

// === Books ===

func (t *pgTx) LockBooks(ctx context.Context, bookIDs ...uuid.UUID) ([]circulation.Book, error) {
	ordered := sortedUnique(bookIDs)
	if len(ordered) == 0 {
		return nil, nil
	}

	ds := t.selectBooks().
		Where(goqu.C(colID).In(uuidStrings(ordered)), goqu.C(colDeletedAt).IsNull()).
		Order(goqu.C(colID).Asc()).
		ForUpdate(exp.Wait)

	books, err := t.scanBooks(ctx, ds)
	if err != nil {
		return nil, err
	}

	if len(books) != len(ordered) {
		return nil, circulation.ErrBookNotFound
	}

	return books, nil
}

func (t *pgTx) Book(ctx context.Context, bookID uuid.UUID) (circulation.Book, error) {
	books, err := t.scanBooks(ctx, t.selectBooks().
		Where(goqu.C(colID).Eq(bookID.String()), goqu.C(colDeletedAt).IsNull()))
	if err != nil {
		return circulation.Book{}, err
	}

	if len(books) == 0 {
		return circulation.Book{}, circulation.ErrBookNotFound
	}

	return books[0], nil
}

func (t *pgTx) InsertBook(ctx context.Context, book circulation.Book) error {
	_, err := t.exec(ctx, t.builder().Insert(t.store.tables.books).Rows(goqu.Record{
		colID:        book.ID.String(),
		colTitle:     book.Title,
		colHasEbook:  book.HasEbook,
		colDeletedAt: nullableTime(book.DeletedAt),
	}))

	return err
}

func (t *pgTx) selectBooks() *goqu.SelectDataset {
	return t.builder().From(t.store.tables.books).Select(colID, colTitle, colHasEbook, colDeletedAt)
}

func (t *pgTx) scanBooks(ctx context.Context, ds *goqu.SelectDataset) ([]circulation.Book, error) {
	books := make([]circulation.Book, 0)

	err := t.collect(ctx, ds, func(row adapters.DBRows) error {
		var b circulation.Book
		if err := row.Scan(&b.ID, &b.Title, &b.HasEbook, &b.DeletedAt); err != nil {
			return err
		}

		books = append(books, b)

		return nil
	})

	return books, err
}

// === Supply and demand ===

func (t *pgTx) AvailableItemCount(ctx context.Context, bookID uuid.UUID) (int, error) {
	return t.count(ctx, t.builder().From(t.store.tables.bookItems).
		Select(goqu.COUNT(goqu.Star()).As(aliasTotal)).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colStatus).Eq(string(circulation.BookItemAvailable)),
			goqu.C(colDeletedAt).IsNull(),
		))
}

func (t *pgTx) ReservedQuantity(ctx context.Context, bookID uuid.UUID) (int, error) {
	return t.sumQuantity(ctx, bookID, circulation.RequestApproved)
}

func (t *pgTx) OutstandingDemand(ctx context.Context, bookID uuid.UUID) (int, error) {
	return t.sumQuantity(ctx, bookID, circulation.RequestPending, circulation.RequestApproved)
}

func (t *pgTx) sumQuantity(ctx context.Context, bookID uuid.UUID, statuses ...circulation.RequestStatus) (int, error) {
	return t.count(ctx, t.builder().From(t.store.tables.borrowRequests).
		Select(goqu.COALESCE(goqu.SUM(colQuantity), 0).As(aliasTotal)).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colStatus).In(statusStrings(statuses)),
			goqu.C(colDeletedAt).IsNull(),
		))
}

func (t *pgTx) PendingQueue(ctx context.Context, bookID uuid.UUID) (circulation.Queue, error) {
	ds := t.builder().From(t.store.tables.borrowRequests).
		Select(colID, colUserID, colQuantity, colCreatedAt).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colStatus).Eq(string(circulation.RequestPending)),
			goqu.C(colDeletedAt).IsNull(),
		).
		Order(goqu.C(colCreatedAt).Asc(), goqu.C(colID).Asc())

	queue := make(circulation.Queue, 0)

	err := t.collect(ctx, ds, func(row adapters.DBRows) error {
		var entry circulation.QueueEntry
		if err := row.Scan(&entry.RequestID, &entry.UserID, &entry.Quantity, &entry.CreatedAt); err != nil {
			return err
		}

		entry.CreatedAt = entry.CreatedAt.UTC()
		queue = append(queue, entry)

		return nil
	})

	return queue, err
}

// === Borrow requests ===

func (t *pgTx) CountActiveRequests(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (int, error) {
	return t.count(ctx, t.builder().From(t.store.tables.borrowRequests).
		Select(goqu.COUNT(goqu.Star()).As(aliasTotal)).
		Where(
			goqu.C(colUserID).Eq(userID.String()),
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colStatus).In(string(circulation.RequestPending), string(circulation.RequestApproved)),
			goqu.C(colDeletedAt).IsNull(),
		))
}

func (t *pgTx) InsertBorrowRequest(ctx context.Context, request circulation.BorrowRequest) error {
	_, err := t.exec(ctx, t.builder().Insert(t.store.tables.borrowRequests).Rows(goqu.Record{
		colID:         request.ID.String(),
		colUserID:     request.UserID.String(),
		colBookID:     request.Item.BookID.String(),
		colQuantity:   request.Item.Quantity,
		colStartDate:  dateValue(request.StartDate),
		colEndDate:    dateValue(request.EndDate),
		colStatus:     string(request.Status),
		colCreatedAt:  request.CreatedAt,
		colUpdatedAt:  request.UpdatedAt,
		colApprovedAt: nullableTime(request.ApprovedAt),
		colDeletedAt:  nullableTime(request.DeletedAt),
	}))

	return err
}

func (t *pgTx) BorrowRequest(ctx context.Context, requestID uuid.UUID) (circulation.BorrowRequest, error) {
	requests, err := t.scanRequests(ctx, t.selectRequests().
		Where(goqu.C(colID).Eq(requestID.String()), goqu.C(colDeletedAt).IsNull()))
	if err != nil {
		return circulation.BorrowRequest{}, err
	}

	if len(requests) == 0 {
		return circulation.BorrowRequest{}, circulation.ErrRequestNotFound
	}

	return requests[0], nil
}

func (t *pgTx) TransitionRequest(ctx context.Context, transition circulation.RequestTransition) error {
	record := goqu.Record{
		colStatus:    string(transition.To),
		colUpdatedAt: transition.At,
	}

	if transition.To == circulation.RequestApproved {
		record[colApprovedAt] = transition.At
	}

	rowsAffected, err := t.exec(ctx, t.builder().Update(t.store.tables.borrowRequests).
		Set(record).
		Where(
			goqu.C(colID).Eq(transition.RequestID.String()),
			goqu.C(colStatus).In(statusStrings(transition.From)),
			goqu.C(colDeletedAt).IsNull(),
		))
	if err != nil {
		return err
	}

	if rowsAffected == 1 {
		return nil
	}

	found, existsErr := t.exists(ctx, t.store.tables.borrowRequests, transition.RequestID)
	if existsErr != nil {
		return existsErr
	}

	if !found {
		return circulation.ErrRequestNotFound
	}

	return circulation.ErrRequestStatusConflict
}

func (t *pgTx) ApprovedRequestsBefore(ctx context.Context, cutoff time.Time, limit int) ([]circulation.BorrowRequest, error) {
	ds := t.selectRequests().
		Where(
			goqu.C(colStatus).Eq(string(circulation.RequestApproved)),
			goqu.C(colApprovedAt).Lt(cutoff),
			goqu.C(colDeletedAt).IsNull(),
		).
		Order(goqu.C(colApprovedAt).Asc(), goqu.C(colID).Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	return t.scanRequests(ctx, ds)
}

func (t *pgTx) selectRequests() *goqu.SelectDataset {
	return t.builder().From(t.store.tables.borrowRequests).Select(
		colID, colUserID, colBookID, colQuantity, colStartDate, colEndDate,
		colStatus, colCreatedAt, colUpdatedAt, colApprovedAt, colDeletedAt,
	)
}

func (t *pgTx) scanRequests(ctx context.Context, ds *goqu.SelectDataset) ([]circulation.BorrowRequest, error) {
	requests := make([]circulation.BorrowRequest, 0)

	err := t.collect(ctx, ds, func(row adapters.DBRows) error {
		var r circulation.BorrowRequest
		var status string

		scanErr := row.Scan(
			&r.ID, &r.UserID, &r.Item.BookID, &r.Item.Quantity, &r.StartDate, &r.EndDate,
			&status, &r.CreatedAt, &r.UpdatedAt, &r.ApprovedAt, &r.DeletedAt,
		)
		if scanErr != nil {
			return scanErr
		}

		r.Status = circulation.RequestStatus(status)
		r.StartDate = circulation.DateOf(r.StartDate)
		r.EndDate = circulation.DateOf(r.EndDate)
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		r.Item.StartDate = r.StartDate
		r.Item.EndDate = r.EndDate
		requests = append(requests, r)

		return nil
	})

	return requests, err
}

// === Book items ===

func (t *pgTx) InsertBookItems(ctx context.Context, items ...circulation.BookItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, goqu.Record{
			colID:        item.ID.String(),
			colBookID:    item.BookID.String(),
			colStatus:    string(item.Status),
			colDeletedAt: nullableTime(item.DeletedAt),
		})
	}

	_, err := t.exec(ctx, t.builder().Insert(t.store.tables.bookItems).Rows(rows...))

	return err
}

func (t *pgTx) BookItem(ctx context.Context, itemID uuid.UUID) (circulation.BookItem, error) {
	return t.bookItem(ctx, itemID, false)
}

func (t *pgTx) SetItemStatus(ctx context.Context, itemID uuid.UUID, status circulation.BookItemStatus) (circulation.BookItem, error) {
	previous, err := t.bookItem(ctx, itemID, true)
	if err != nil {
		return circulation.BookItem{}, err
	}

	_, err = t.exec(ctx, t.builder().Update(t.store.tables.bookItems).
		Set(goqu.Record{colStatus: string(status)}).
		Where(goqu.C(colID).Eq(itemID.String())))
	if err != nil {
		return circulation.BookItem{}, err
	}

	return previous, nil
}

func (t *pgTx) bookItem(ctx context.Context, itemID uuid.UUID, forUpdate bool) (circulation.BookItem, error) {
	ds := t.builder().From(t.store.tables.bookItems).
		Select(colID, colBookID, colStatus, colDeletedAt).
		Where(goqu.C(colID).Eq(itemID.String()), goqu.C(colDeletedAt).IsNull())

	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}

	var item circulation.BookItem
	found := false

	err := t.collect(ctx, ds, func(row adapters.DBRows) error {
		var status string
		if scanErr := row.Scan(&item.ID, &item.BookID, &status, &item.DeletedAt); scanErr != nil {
			return scanErr
		}

		item.Status = circulation.BookItemStatus(status)
		found = true

		return nil
	})
	if err != nil {
		return circulation.BookItem{}, err
	}

	if !found {
		return circulation.BookItem{}, circulation.ErrBookItemNotFound
	}

	return item, nil
}

func (t *pgTx) AllocateAvailableItems(ctx context.Context, bookID uuid.UUID, quantity int) ([]uuid.UUID, error) {
	if quantity <= 0 {
		return nil, circulation.ErrNonPositiveQuantity
	}

	ds := t.builder().From(t.store.tables.bookItems).
		Select(colID).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colStatus).Eq(string(circulation.BookItemAvailable)),
			goqu.C(colDeletedAt).IsNull(),
		).
		Order(goqu.C(colID).Asc()).
		Limit(uint(quantity)).
		ForUpdate(exp.SkipLocked)

	itemIDs := make([]uuid.UUID, 0, quantity)

	err := t.collect(ctx, ds, func(row adapters.DBRows) error {
		var id uuid.UUID
		if scanErr := row.Scan(&id); scanErr != nil {
			return scanErr
		}

		itemIDs = append(itemIDs, id)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(itemIDs) < quantity {
		return nil, circulation.ErrInsufficientCopies
	}

	rowsAffected, err := t.exec(ctx, t.builder().Update(t.store.tables.bookItems).
		Set(goqu.Record{colStatus: string(circulation.BookItemOnBorrow)}).
		Where(
			goqu.C(colID).In(uuidStrings(itemIDs)),
			goqu.C(colStatus).Eq(string(circulation.BookItemAvailable)),
		))
	if err != nil {
		return nil, err
	}

	if rowsAffected != int64(len(itemIDs)) {
		return nil, circulation.ErrInsufficientCopies
	}

	return itemIDs, nil
}

func (t *pgTx) ReleaseItems(ctx context.Context, itemIDs ...uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}

	rowsAffected, err := t.exec(ctx, t.builder().Update(t.store.tables.bookItems).
		Set(goqu.Record{colStatus: string(circulation.BookItemAvailable)}).
		Where(
			goqu.C(colID).In(uuidStrings(itemIDs)),
			goqu.C(colStatus).Eq(string(circulation.BookItemOnBorrow)),
			goqu.C(colDeletedAt).IsNull(),
		))
	if err != nil {
		return err
	}

	if rowsAffected != int64(len(itemIDs)) {
		return circulation.ErrItemStatusConflict
	}

	return nil
}

// === Borrow records ===

func (t *pgTx) InsertBorrowRecord(ctx context.Context, record circulation.BorrowRecord) error {
	var requestID any
	if record.RequestID != nil {
		requestID = record.RequestID.String()
	}

	_, err := t.exec(ctx, t.builder().Insert(t.store.tables.borrowRecords).Rows(goqu.Record{
		colID:               record.ID.String(),
		colUserID:           record.UserID.String(),
		colRequestID:        requestID,
		colBorrowDate:       dateValue(record.BorrowDate),
		colReturnDate:       dateValue(record.ReturnDate),
		colActualReturnDate: nullableTime(record.ActualReturnDate),
		colStatus:           string(record.Status),
		colRenewalCount:     record.RenewalCount,
		colDeletedAt:        nullableTime(record.DeletedAt),
	}))
	if err != nil {
		return err
	}

	if len(record.Books) > 0 {
		rows := make([]any, 0, len(record.Books))
		for _, b := range record.Books {
			rows = append(rows, goqu.Record{
				colRecordID:   record.ID.String(),
				colBookItemID: b.BookItemID.String(),
				colBookID:     b.BookID.String(),
			})
		}

		if _, err = t.exec(ctx, t.builder().Insert(t.store.tables.borrowBooks).Rows(rows...)); err != nil {
			return err
		}
	}

	if len(record.Ebooks) > 0 {
		rows := make([]any, 0, len(record.Ebooks))
		for _, e := range record.Ebooks {
			rows = append(rows, goqu.Record{
				colRecordID:  record.ID.String(),
				colBookID:    e.BookID.String(),
				colDeletedAt: nullableTime(e.DeletedAt),
			})
		}

		if _, err = t.exec(ctx, t.builder().Insert(t.store.tables.borrowEbooks).Rows(rows...)); err != nil {
			return err
		}
	}

	return nil
}

func (t *pgTx) BorrowRecord(ctx context.Context, recordID uuid.UUID) (circulation.BorrowRecord, error) {
	ds := t.builder().From(t.store.tables.borrowRecords).
		Select(colID, colUserID, colRequestID, colBorrowDate, colReturnDate, colActualReturnDate,
			colStatus, colRenewalCount, colDeletedAt).
		Where(goqu.C(colID).Eq(recordID.String()), goqu.C(colDeletedAt).IsNull())

	var record circulation.BorrowRecord
	found := false

	err := t.collect(ctx, ds, func(row adapters.DBRows) error {
		var requestID uuid.NullUUID
		var status string

		scanErr := row.Scan(&record.ID, &record.UserID, &requestID, &record.BorrowDate, &record.ReturnDate,
			&record.ActualReturnDate, &status, &record.RenewalCount, &record.DeletedAt)
		if scanErr != nil {
			return scanErr
		}

		if requestID.Valid {
			id := requestID.UUID
			record.RequestID = &id
		}

		record.Status = circulation.LoanStatus(status)
		record.BorrowDate = circulation.DateOf(record.BorrowDate)
		record.ReturnDate = circulation.DateOf(record.ReturnDate)
		found = true

		return nil
	})
	if err != nil {
		return circulation.BorrowRecord{}, err
	}

	if !found {
		return circulation.BorrowRecord{}, circulation.ErrBorrowRecordNotFound
	}

	booksDS := t.builder().From(t.store.tables.borrowBooks).
		Select(colBookItemID, colBookID).
		Where(goqu.C(colRecordID).Eq(recordID.String())).
		Order(goqu.C(colBookItemID).Asc())

	err = t.collect(ctx, booksDS, func(row adapters.DBRows) error {
		var b circulation.BorrowBook
		if scanErr := row.Scan(&b.BookItemID, &b.BookID); scanErr != nil {
			return scanErr
		}

		record.Books = append(record.Books, b)

		return nil
	})
	if err != nil {
		return circulation.BorrowRecord{}, err
	}

	ebooksDS := t.builder().From(t.store.tables.borrowEbooks).
		Select(colBookID, colDeletedAt).
		Where(goqu.C(colRecordID).Eq(recordID.String())).
		Order(goqu.C(colBookID).Asc())

	err = t.collect(ctx, ebooksDS, func(row adapters.DBRows) error {
		var e circulation.BorrowEbook
		if scanErr := row.Scan(&e.BookID, &e.DeletedAt); scanErr != nil {
			return scanErr
		}

		record.Ebooks = append(record.Ebooks, e)

		return nil
	})
	if err != nil {
		return circulation.BorrowRecord{}, err
	}

	return record, nil
}

func (t *pgTx) RenewBorrowRecord(
	ctx context.Context,
	recordID uuid.UUID,
	expectedRenewalCount int,
	newReturnDate time.Time,
) error {

	rowsAffected, err := t.exec(ctx, t.builder().Update(t.store.tables.borrowRecords).
		Set(goqu.Record{
			colReturnDate:   dateValue(newReturnDate),
			colRenewalCount: goqu.L("? + 1", goqu.C(colRenewalCount)),
		}).
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colStatus).Eq(string(circulation.LoanBorrowed)),
			goqu.C(colRenewalCount).Eq(expectedRenewalCount),
			goqu.C(colDeletedAt).IsNull(),
		))
	if err != nil {
		return err
	}

	return t.guardRecordUpdate(ctx, recordID, rowsAffected)
}

func (t *pgTx) CloseBorrowRecord(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) error {
	rowsAffected, err := t.exec(ctx, t.builder().Update(t.store.tables.borrowRecords).
		Set(goqu.Record{
			colStatus:           string(circulation.LoanReturned),
			colActualReturnDate: returnedAt,
		}).
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colStatus).In(string(circulation.LoanBorrowed), string(circulation.LoanOverdue)),
			goqu.C(colDeletedAt).IsNull(),
		))
	if err != nil {
		return err
	}

	if guardErr := t.guardRecordUpdate(ctx, recordID, rowsAffected); guardErr != nil {
		return guardErr
	}

	_, err = t.exec(ctx, t.builder().Update(t.store.tables.borrowEbooks).
		Set(goqu.Record{colDeletedAt: returnedAt}).
		Where(goqu.C(colRecordID).Eq(recordID.String()), goqu.C(colDeletedAt).IsNull()))

	return err
}

func (t *pgTx) guardRecordUpdate(ctx context.Context, recordID uuid.UUID, rowsAffected int64) error {
	if rowsAffected == 1 {
		return nil
	}

	found, err := t.exists(ctx, t.store.tables.borrowRecords, recordID)
	if err != nil {
		return err
	}

	if !found {
		return circulation.ErrBorrowRecordNotFound
	}

	return circulation.ErrRecordStatusConflict
}

func (t *pgTx) HasActiveEbookLoan(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (bool, error) {
	ebooks := t.store.tables.borrowEbooks
	records := t.store.tables.borrowRecords

	total, err := t.count(ctx, t.builder().From(goqu.T(ebooks).As("e")).
		Join(goqu.T(records).As("r"), goqu.On(goqu.I("r."+colID).Eq(goqu.I("e."+colRecordID)))).
		Select(goqu.COUNT(goqu.Star()).As(aliasTotal)).
		Where(
			goqu.I("e."+colBookID).Eq(bookID.String()),
			goqu.I("e."+colDeletedAt).IsNull(),
			goqu.I("r."+colUserID).Eq(userID.String()),
			goqu.I("r."+colStatus).In(string(circulation.LoanBorrowed), string(circulation.LoanOverdue)),
			goqu.I("r."+colDeletedAt).IsNull(),
		))

	return total > 0, err
}

func (t *pgTx) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	return t.exec(ctx, t.builder().Update(t.store.tables.borrowRecords).
		Set(goqu.Record{colStatus: string(circulation.LoanOverdue)}).
		Where(
			goqu.C(colStatus).Eq(string(circulation.LoanBorrowed)),
			goqu.C(colReturnDate).Lt(dateValue(today)),
			goqu.C(colDeletedAt).IsNull(),
		))
}

// === helpers ===

// sortedUnique returns the distinct ids in ascending byte order, which is the order PostgreSQL sorts UUIDs in.
func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	return slices.Compact(ordered)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}

func statusStrings(statuses []circulation.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}

	return out
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}

func dateValue(t time.Time) exp.LiteralExpression {
	return goqu.L("?::date", circulation.DateOf(t).Format(time.DateOnly))
}
