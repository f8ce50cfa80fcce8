// Package addbook implements adding a title with its physical copies to the catalog.
//
// The caller chooses the book ID, which makes the command safe to repeat: adding a book that
// already exists changes nothing.
package addbook
