// Package renewloan implements the Renew Loan use case with its renewal guard.
//
// A reader extends the due date of their own physical loan by the policy's extension days, capped
// at the borrow date plus the maximum borrow period. The renewal is refused when the loan is not
// active, is already past due, was renewed the maximum number of times, or when any book of the
// loan is wanted by a PENDING or APPROVED request. In the last case the whole loan is blocked and
// the refusal names the first blocking book.
//
// All books of the loan are locked before the demand is read, so a request created concurrently
// either sees the renewed loan or blocks the renewal.
package renewloan
