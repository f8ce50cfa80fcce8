// Package createborrowrequest implements the Create Borrow Request use case.
//
// A reader asks for a quantity of copies of one book for a date range. With the book locked,
// the request is either approved at once (the remaining supply covers it) or queued as PENDING
// behind earlier requests for the same book. The reply carries the queue position for PENDING
// requests.
//
// A reader may hold at most one active (PENDING or APPROVED) request per book. Approved requests
// reserve supply, and the handler re-checks the supply bound before the transaction commits.
package createborrowrequest
