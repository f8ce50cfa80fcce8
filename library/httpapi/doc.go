// Package httpapi exposes the circulation command and query handlers over HTTP using gin.
//
// Identity is supplied by an upstream authentication proxy in the X-User-ID and X-User-Role
// headers. Error classes map to status codes:
//
//	validation             400
//	forbidden              403
//	not found              404
//	conflict               409
//	renewal rejected       422
//	invariant violation    500
//	concurrency conflict   503 (retries exhausted)
//
// Requests are rate limited per caller with golang.org/x/time/rate.
package httpapi
