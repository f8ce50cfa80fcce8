package postgresengine

const (
	colID               = "id"
	colTitle            = "title"
	colHasEbook         = "has_ebook"
	colDeletedAt        = "deleted_at"
	colBookID           = "book_id"
	colStatus           = "status"
	colUserID           = "user_id"
	colQuantity         = "quantity"
	colStartDate        = "start_date"
	colEndDate          = "end_date"
	colCreatedAt        = "created_at"
	colUpdatedAt        = "updated_at"
	colApprovedAt       = "approved_at"
	colRequestID        = "request_id"
	colRecordID         = "record_id"
	colBookItemID       = "book_item_id"
	colBorrowDate       = "borrow_date"
	colReturnDate       = "return_date"
	colActualReturnDate = "actual_return_date"
	colRenewalCount     = "renewal_count"
	aliasTotal          = "total"
	activeRequestIndex  = "borrow_requests_one_active_idx"
)

type tableNames struct {
	books              string
	bookItems          string
	borrowRequests     string
	borrowRecords      string
	borrowBooks        string
	borrowEbooks       string
	activeRequestIndex string
}

func newTableNames(prefix string) tableNames {
	return tableNames{
		books:              prefix + "books",
		bookItems:          prefix + "book_items",
		borrowRequests:     prefix + "borrow_requests",
		borrowRecords:      prefix + "borrow_records",
		borrowBooks:        prefix + "borrow_books",
		borrowEbooks:       prefix + "borrow_ebooks",
		activeRequestIndex: prefix + activeRequestIndex,
	}
}
