// Package cancelrequest implements the Cancel Borrow Request use case.
//
// A reader withdraws their own PENDING or APPROVED request. Readers queued behind it move up,
// and cancelling an APPROVED request promotes the queue in the same transaction.
package cancelrequest
