// Package expireapprovedrequests implements the pickup window sweep.
//
// APPROVED requests that were not picked up within the policy's pickup window become EXPIRED.
// Each expiry frees a reservation, so the queue of every affected book is promoted in the same
// transaction. The sweep works in batches; the sweeper calls it until nothing is left to expire.
package expireapprovedrequests
