// Package borrowebook implements the instant digital loan.
//
// Digital editions are not limited by copies, so an ebook borrow bypasses the queue and the
// supply bound. One transaction records a FULFILLED request, an active loan and its BorrowEbook row.
// A reader may hold one active digital loan per book.
package borrowebook
