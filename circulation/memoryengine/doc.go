// Package memoryengine provides an in-memory implementation of circulation.Store.
//
// Transactions are serialized by one mutex and run against a copy of the state, which
// replaces the live state only when the unit of work succeeds. That gives the same
// all-or-nothing and lock-first guarantees as the PostgreSQL engine, without a database.
// Useful for tests, demos and development; not intended for production.
package memoryengine
