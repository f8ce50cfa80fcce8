// Package queueposition implements the queue position query.
//
// The position of a PENDING request is its 1-based rank among the PENDING requests of the same
// book in arrival order. It is never stored: every read ranks the current queue, so it is always
// gapless after other requests leave. Requests in any other status have no position.
//
// The query may be served from a replica; a position that is a moment behind is acceptable.
package queueposition
