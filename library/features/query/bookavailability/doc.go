// Package bookavailability implements the book availability query: how many copies of a title
// are on the shelf, how many are promised to approved requests and how long the queue is.
// It may be served from a replica.
package bookavailability
