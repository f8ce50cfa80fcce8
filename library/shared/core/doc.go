// Package core contains the pure business rules of borrow-request circulation:
// admission, queue ranking, request lifecycle transitions, the renewal guard and
// the invariant checks that protect supply.
//
// Nothing in this package performs I/O. Every function takes the state it needs
// (supply counters, a queue, a loan record) and returns a decision, so the rules can
// be tested exhaustively without a database.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
