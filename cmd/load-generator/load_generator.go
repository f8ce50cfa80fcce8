// Package main implements a load generator that hammers a small set of books with concurrent
// borrow requests, cancellations, pickups and returns while verifying that no book is ever oversold.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/cancelrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/createborrowrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/fulfillrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/returnloan"
	"github.com/AntonStoeckl/library-circulation-go/library/features/query/bookavailability"
	"github.com/AntonStoeckl/library-circulation-go/library/httpapi"
)

const (
	scenarioRequest = "request"
	scenarioCancel  = "cancel"
	scenarioFulfill = "fulfill"
	scenarioReturn  = "return"

	operationTimeout = 5 * time.Second
)

var scenarios = []string{scenarioRequest, scenarioCancel, scenarioFulfill, scenarioReturn}

type trackedRequest struct {
	id    uuid.UUID
	actor circulation.Actor
}

// LoadGenerator drives the command handlers at a fixed rate and periodically checks the supply bound.
type LoadGenerator struct {
	handlers httpapi.Handlers
	config   Config
	limiter  *rate.Limiter

	librarian circulation.Actor
	readers   []circulation.Actor
	bookIDs   []uuid.UUID

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.RWMutex
	requests     []trackedRequest
	loans        []uuid.UUID
	requestCount int64
	errorCount   int64
	refusedCount int64
	violations   int64
	startTime    time.Time
}

// NewLoadGenerator creates a LoadGenerator with freshly generated readers.
func NewLoadGenerator(handlers httpapi.Handlers, config Config) *LoadGenerator {
	readers := make([]circulation.Actor, config.Readers)
	for i := range readers {
		readers[i] = circulation.Actor{UserID: uuid.New(), Role: circulation.RoleReader}
	}

	return &LoadGenerator{
		handlers:  handlers,
		config:    config,
		limiter:   rate.NewLimiter(rate.Limit(config.Rate), 1),
		librarian: circulation.Actor{UserID: uuid.New(), Role: circulation.RoleLibrarian},
		readers:   readers,
		stopChan:  make(chan struct{}),
	}
}

// Start seeds the books and generates load until the context is cancelled or Stop() is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	if err := lg.seedBooks(ctx); err != nil {
		return err
	}

	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.mu.Unlock()

	log.Printf("Load generator starting with %.1f requests/second, initial goroutines: %d", lg.config.Rate, runtime.NumGoroutine())

	lg.wg.Add(2)
	go lg.metricsReporter(ctx)
	go lg.supplyVerifier(ctx)

	for {
		if err := lg.limiter.Wait(ctx); err != nil {
			log.Printf("Load generator stopping due to context cancellation")
			return ctx.Err()
		}

		select {
		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil
		default:
		}

		lg.wg.Add(1)
		go lg.executeScenario(ctx)
	}
}

// Stop gracefully shuts down the load generator.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	lg.stopOnce.Do(func() { close(lg.stopChan) })

	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logStats("Final Stats")
		return nil
	case <-ctx.Done():
		lg.logStats("Final Stats")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// Violations returns how many times a book was observed with more reserved than available copies.
func (lg *LoadGenerator) Violations() int64 {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	return lg.violations
}

func (lg *LoadGenerator) seedBooks(ctx context.Context) error {
	lg.bookIDs = make([]uuid.UUID, 0, lg.config.Books)

	for i := 0; i < lg.config.Books; i++ {
		bookID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("load-book-%d", i+1)))

		command := addbook.BuildCommand(lg.librarian, bookID, fmt.Sprintf("Load Test Book %d", i+1), i%4 == 0, lg.config.CopiesPerBook, time.Now())
		if _, _, err := lg.handlers.AddBook.Handle(ctx, command); err != nil {
			return fmt.Errorf("seeding book %d: %w", i+1, err)
		}

		lg.bookIDs = append(lg.bookIDs, bookID)
	}

	log.Printf("Seeded %d books with %d copies each", lg.config.Books, lg.config.CopiesPerBook)

	return nil
}

// executeScenario runs a single scenario based on configured weights.
func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	scenario := lg.selectScenario()

	var err error
	switch scenario {
	case scenarioRequest:
		err = lg.runRequestScenario(opCtx)
	case scenarioCancel:
		err = lg.runCancelScenario(opCtx)
	case scenarioFulfill:
		err = lg.runFulfillScenario(opCtx)
	case scenarioReturn:
		err = lg.runReturnScenario(opCtx)
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	lg.requestCount++

	switch {
	case err == nil:
	case isBusinessRefusal(err):
		lg.refusedCount++
	default:
		lg.errorCount++
		log.Printf("Scenario error (%s): %v", scenario, err)
	}
}

// isBusinessRefusal separates expected rule outcomes under contention from real failures.
func isBusinessRefusal(err error) bool {
	return errors.Is(err, circulation.ErrValidation) ||
		errors.Is(err, circulation.ErrConflict) ||
		errors.Is(err, circulation.ErrNotFound) ||
		errors.Is(err, circulation.ErrForbidden)
}

func (lg *LoadGenerator) selectScenario() string {
	r := rand.Intn(100) //nolint:gosec // Test code - weak random is acceptable

	for i, weight := range lg.config.ScenarioWeights {
		if r < weight {
			return scenarios[i]
		}

		r -= weight
	}

	return scenarioRequest
}

func (lg *LoadGenerator) runRequestScenario(ctx context.Context) error {
	reader := lg.readers[rand.Intn(len(lg.readers))] //nolint:gosec // Test code - weak random is acceptable
	bookID := lg.bookIDs[rand.Intn(len(lg.bookIDs))] //nolint:gosec // Test code - weak random is acceptable
	quantity := 1 + rand.Intn(2)                     //nolint:gosec // Test code - weak random is acceptable

	start := circulation.DateOf(time.Now())
	command := createborrowrequest.BuildCommand(reader, bookID, quantity, start, start.AddDate(0, 0, 14), time.Now())

	result, _, err := lg.handlers.CreateBorrowRequest.Handle(ctx, command)
	if err != nil {
		return err
	}

	lg.mu.Lock()
	lg.requests = append(lg.requests, trackedRequest{id: result.RequestID, actor: reader})
	lg.mu.Unlock()

	return nil
}

func (lg *LoadGenerator) runCancelScenario(ctx context.Context) error {
	request, ok := lg.takeRequest()
	if !ok {
		return nil
	}

	_, _, err := lg.handlers.CancelRequest.Handle(ctx, cancelrequest.BuildCommand(request.actor, request.id, time.Now()))

	return err
}

func (lg *LoadGenerator) runFulfillScenario(ctx context.Context) error {
	request, ok := lg.takeRequest()
	if !ok {
		return nil
	}

	result, _, err := lg.handlers.FulfillRequest.Handle(ctx, fulfillrequest.BuildCommand(lg.librarian, request.id, time.Now()))
	if err != nil {
		if errors.Is(err, circulation.ErrRequestStatusConflict) {
			// still queued, try again later
			lg.mu.Lock()
			lg.requests = append(lg.requests, request)
			lg.mu.Unlock()
		}

		return err
	}

	lg.mu.Lock()
	lg.loans = append(lg.loans, result.BorrowRecordID)
	lg.mu.Unlock()

	return nil
}

func (lg *LoadGenerator) runReturnScenario(ctx context.Context) error {
	lg.mu.Lock()
	if len(lg.loans) == 0 {
		lg.mu.Unlock()
		return nil
	}

	i := rand.Intn(len(lg.loans)) //nolint:gosec // Test code - weak random is acceptable
	loanID := lg.loans[i]
	lg.loans = append(lg.loans[:i], lg.loans[i+1:]...)
	lg.mu.Unlock()

	_, _, err := lg.handlers.ReturnLoan.Handle(ctx, returnloan.BuildCommand(lg.librarian, loanID, time.Now()))

	return err
}

func (lg *LoadGenerator) takeRequest() (trackedRequest, bool) {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if len(lg.requests) == 0 {
		return trackedRequest{}, false
	}

	i := rand.Intn(len(lg.requests)) //nolint:gosec // Test code - weak random is acceptable
	request := lg.requests[i]
	lg.requests = append(lg.requests[:i], lg.requests[i+1:]...)

	return request, true
}

// supplyVerifier periodically reads the availability of every book and counts oversold books.
func (lg *LoadGenerator) supplyVerifier(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(lg.config.VerifyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.verifySupply(ctx)
		}
	}
}

func (lg *LoadGenerator) verifySupply(ctx context.Context) {
	for _, bookID := range lg.bookIDs {
		availability, err := lg.handlers.BookAvailability.Handle(ctx, bookavailability.BuildQuery(bookID))
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Supply verification failed for book %s: %v", bookID, err)
			}

			continue
		}

		if availability.Reserved > availability.Available {
			lg.mu.Lock()
			lg.violations++
			lg.mu.Unlock()

			log.Printf("OVERSOLD: book %s has %d reserved but only %d available", bookID, availability.Reserved, availability.Available)
		}
	}
}

func (lg *LoadGenerator) metricsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logStats("Stats")
		}
	}
}

func (lg *LoadGenerator) logStats(prefix string) {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	failures := lg.errorCount
	refused := lg.refusedCount
	violations := lg.violations
	lg.mu.RUnlock()

	if duration <= 0 || requests == 0 {
		return
	}

	log.Printf("%s: %d requests in %v (%.1f req/s), %d refused, %d errors, %d oversold observations, %d goroutines",
		prefix, requests, duration.Truncate(time.Second), float64(requests)/duration.Seconds(),
		refused, failures, violations, runtime.NumGoroutine())
}
