// Package approverequest implements the Approve Borrow Request use case.
//
// A librarian approves a PENDING request, possibly out of queue order. The approval reserves
// the requested quantity, so it is refused when the remaining supply of the book does not cover it.
// The readers still waiting behind the approved request are told their new positions.
package approverequest
