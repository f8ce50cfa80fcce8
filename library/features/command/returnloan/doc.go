// Package returnloan implements the Return Loan use case for physical loans.
//
// A librarian checks in the copies of a BORROWED or OVERDUE loan. The copies become AVAILABLE
// again, and the queue of every book of the loan is promoted in the same transaction.
package returnloan
