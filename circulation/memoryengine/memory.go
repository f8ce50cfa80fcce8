package memoryengine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Store is the in-memory circulation.Store.
type Store struct {
	mu    sync.Mutex
	state state

	injectedConflicts int
	transactions      int
}

// Option defines a functional option for configuring Store.
type Option func(*Store)

// WithInjectedConcurrencyConflicts makes the next n Transact calls fail with
// circulation.ErrConcurrencyConflict before running their unit of work.
func WithInjectedConcurrencyConflicts(n int) Option {
	return func(s *Store) { s.injectedConflicts = n }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{state: newState()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Transact runs fn against a copy of the state and publishes the copy if fn succeeds.
func (s *Store) Transact(ctx context.Context, fn circulation.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions++

	if s.injectedConflicts > 0 {
		s.injectedConflicts--
		return circulation.ErrConcurrencyConflict
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(ctx, &memTx{st: &working}); err != nil {
		return err
	}

	s.state = working

	return nil
}

// ReadOnly runs fn against a copy of the state and discards it afterwards.
func (s *Store) ReadOnly(ctx context.Context, fn circulation.TxFunc) error {
	s.mu.Lock()
	working := s.state.clone()
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(ctx, &memTx{st: &working})
}

// InjectConcurrencyConflicts makes the next n Transact calls fail with circulation.ErrConcurrencyConflict.
func (s *Store) InjectConcurrencyConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.injectedConflicts = n
}

// TransactionCount returns how many times Transact was called, including injected failures.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transactions
}

type state struct {
	books    map[uuid.UUID]circulation.Book
	items    map[uuid.UUID]circulation.BookItem
	requests map[uuid.UUID]circulation.BorrowRequest
	records  map[uuid.UUID]circulation.BorrowRecord
}

func newState() state {
	return state{
		books:    make(map[uuid.UUID]circulation.Book),
		items:    make(map[uuid.UUID]circulation.BookItem),
		requests: make(map[uuid.UUID]circulation.BorrowRequest),
		records:  make(map[uuid.UUID]circulation.BorrowRecord),
	}
}

func (s state) clone() state {
	c := newState()

	for k, v := range s.books {
		c.books[k] = v
	}

	for k, v := range s.items {
		c.items[k] = v
	}

	for k, v := range s.requests {
		c.requests[k] = v
	}

	for k, v := range s.records {
		v.Books = append([]circulation.BorrowBook(nil), v.Books...)
		v.Ebooks = append([]circulation.BorrowEbook(nil), v.Ebooks...)
		c.records[k] = v
	}

	return c
}
