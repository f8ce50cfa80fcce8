// Package rejectrequest implements the Reject Borrow Request use case.
//
// A librarian rejects a PENDING or APPROVED request. Rejecting an APPROVED request frees its
// reservation, so the book's queue is promoted in the same transaction.
package rejectrequest
