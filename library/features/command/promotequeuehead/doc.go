// Package promotequeuehead implements the explicit queue promotion of one book.
//
// Every write that frees supply already promotes the queue in its own transaction. This command
// lets a librarian re-run the same step, e.g. after supply was changed outside the application.
package promotequeuehead
