// Package fulfillrequest implements the Fulfill Borrow Request use case: the pickup.
//
// A librarian hands out the copies of an APPROVED request. The request becomes FULFILLED, the
// requested number of AVAILABLE copies move to ON_BORROW, and a BorrowRecord is opened. Because
// the request's reservation and the allocated copies cancel out, the remaining supply of the book
// does not change.
package fulfillrequest
