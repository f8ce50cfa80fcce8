package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/memoryengine"
	"github.com/AntonStoeckl/library-circulation-go/library/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
	"github.com/AntonStoeckl/library-circulation-go/testutil/fixtures"
)

type apiFixture struct {
	store  *memoryengine.Store
	router *gin.Engine
	today  time.Time
}

func newAPI(t *testing.T, cfg httpapi.RouterConfig) apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memoryengine.NewStore()
	handlers, err := httpapi.NewHandlers(store, circulation.DefaultPolicy(), httpapi.Wiring{})
	require.NoError(t, err)

	today := fixtures.Today()
	tick := 0
	cfg.Clock = func() time.Time {
		tick++
		return today.Add(9*time.Hour + time.Duration(tick)*time.Second)
	}

	return apiFixture{store: store, router: httpapi.NewRouter(handlers, cfg), today: today}
}

func (f apiFixture) do(t *testing.T, method, path string, actor *circulation.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")

	if actor != nil {
		req.Header.Set(httpapi.HeaderUserID, actor.UserID.String())
		req.Header.Set(httpapi.HeaderUserRole, string(actor.Role))
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func (f apiFixture) borrowBody(bookID uuid.UUID, quantity int) map[string]any {
	return map[string]any{
		"bookId":    bookID,
		"quantity":  quantity,
		"startDate": f.today.Format(time.DateOnly),
		"endDate":   f.today.AddDate(0, 0, 14).Format(time.DateOnly),
	}
}

func Test_Router_CreateBorrowRequest_ApprovesThenQueuesInArrivalOrder(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	bookID, _ := fixtures.GivenBook(t, api.store, 1)
	first, second, third := fixtures.Reader(), fixtures.Reader(), fixtures.Reader()

	// act
	approved := api.do(t, http.MethodPost, "/api/borrow-requests", &first, api.borrowBody(bookID, 1))
	queuedFirst := api.do(t, http.MethodPost, "/api/borrow-requests", &second, api.borrowBody(bookID, 1))
	queuedSecond := api.do(t, http.MethodPost, "/api/borrow-requests", &third, api.borrowBody(bookID, 1))

	// assert
	require.Equal(t, http.StatusCreated, approved.Code, approved.Body.String())
	assert.Equal(t, "APPROVED", decode(t, approved)["status"])
	assert.Nil(t, decode(t, approved)["queuePosition"])

	require.Equal(t, http.StatusCreated, queuedFirst.Code)
	assert.Equal(t, "PENDING", decode(t, queuedFirst)["status"])
	assert.EqualValues(t, 1, decode(t, queuedFirst)["queuePosition"])

	require.Equal(t, http.StatusCreated, queuedSecond.Code)
	assert.EqualValues(t, 2, decode(t, queuedSecond)["queuePosition"])

	requestID := decode(t, queuedSecond)["requestId"]
	position := api.do(t, http.MethodGet, fmt.Sprintf("/api/borrow-requests/%s/queue-position", requestID), &third, nil)
	require.Equal(t, http.StatusOK, position.Code)
	assert.EqualValues(t, 2, decode(t, position)["position"])
	assert.EqualValues(t, 2, decode(t, position)["queueLength"])
}

func Test_Router_ErrorMapping(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	bookID, _ := fixtures.GivenBook(t, api.store, 1)
	reader := fixtures.Reader()
	librarian := fixtures.Librarian()

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/borrow-requests", &reader, api.borrowBody(bookID, 1)).Code)

	testCases := []struct {
		name       string
		method     string
		path       string
		actor      *circulation.Actor
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing identity",
			method:     http.MethodPost,
			path:       "/api/borrow-requests",
			body:       api.borrowBody(bookID, 1),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthenticated",
		},
		{
			name:       "second active request",
			method:     http.MethodPost,
			path:       "/api/borrow-requests",
			actor:      &reader,
			body:       api.borrowBody(bookID, 1),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
		},
		{
			name:       "malformed date",
			method:     http.MethodPost,
			path:       "/api/borrow-requests",
			actor:      &reader,
			body:       map[string]any{"bookId": bookID, "quantity": 1, "startDate": "tomorrow", "endDate": "later"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
		},
		{
			name:       "malformed id",
			method:     http.MethodPost,
			path:       "/api/borrow-requests/not-a-uuid/approve",
			actor:      &librarian,
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
		},
		{
			name:       "reader may not approve",
			method:     http.MethodPost,
			path:       fmt.Sprintf("/api/borrow-requests/%s/approve", uuid.New()),
			actor:      &reader,
			wantStatus: http.StatusForbidden,
			wantCode:   "forbidden",
		},
		{
			name:       "unknown request",
			method:     http.MethodPost,
			path:       fmt.Sprintf("/api/borrow-requests/%s/approve", uuid.New()),
			actor:      &librarian,
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "unknown book",
			method:     http.MethodGet,
			path:       fmt.Sprintf("/api/books/%s/availability", uuid.New()),
			actor:      &reader,
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			rec := api.do(t, tc.method, tc.path, tc.actor, tc.body)

			// assert
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tc.wantCode, decode(t, rec)["code"])
		})
	}
}

func Test_Router_RenewLoan_RejectedWithReasonAndTitle(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	bookID, itemIDs := fixtures.GivenBook(t, api.store, 1, fixtures.WithTitle("Dune"))
	reader := fixtures.Reader()
	recordID := fixtures.GivenLoan(t, api.store, reader.UserID, bookID, itemIDs, api.today.AddDate(0, 0, -2), api.today.AddDate(0, 0, 5))
	fixtures.GivenRequest(t, api.store, uuid.New(), bookID, 1, circulation.RequestPending, api.today)

	// act
	rec := api.do(t, http.MethodPost, fmt.Sprintf("/api/loans/%s/renew", recordID), &reader, nil)

	// assert
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "renewal_rejected", body["code"])
	assert.Equal(t, core.RenewalReasonRequested, body["reason"])
	assert.Equal(t, "Dune", body["bookTitle"])
}

func Test_Router_RenewLoan_ExtendsDueDate(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	bookID, itemIDs := fixtures.GivenBook(t, api.store, 1)
	reader := fixtures.Reader()
	recordID := fixtures.GivenLoan(t, api.store, reader.UserID, bookID, itemIDs, api.today.AddDate(0, 0, -2), api.today.AddDate(0, 0, 5))

	// act
	rec := api.do(t, http.MethodPost, fmt.Sprintf("/api/loans/%s/renew", recordID), &reader, nil)

	// assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, api.today.AddDate(0, 0, 12).Format(time.DateOnly), decode(t, rec)["newReturnDate"])
	assert.EqualValues(t, 1, decode(t, rec)["renewalCount"])
}

func Test_Router_CancelRequest_SecondCancelIsConflict(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	bookID, _ := fixtures.GivenBook(t, api.store, 0)
	reader := fixtures.Reader()
	requestID := fixtures.GivenRequest(t, api.store, reader.UserID, bookID, 1, circulation.RequestPending, api.today)
	path := fmt.Sprintf("/api/borrow-requests/%s/cancel", requestID)

	// act
	first := api.do(t, http.MethodPost, path, &reader, nil)
	second := api.do(t, http.MethodPost, path, &reader, nil)

	// assert
	assert.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, http.StatusConflict, second.Code, second.Body.String())
	assert.Equal(t, "conflict", decode(t, second)["code"])
	assert.Equal(t, circulation.RequestCancelled, fixtures.Request(t, api.store, requestID).Status)
}

func Test_Router_ReturnLoan_IdempotentReplay(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	bookID, itemIDs := fixtures.GivenBook(t, api.store, 1)
	librarian := fixtures.Librarian()
	recordID := fixtures.GivenLoan(t, api.store, uuid.New(), bookID, itemIDs, api.today.AddDate(0, 0, -2), api.today.AddDate(0, 0, 5))
	path := fmt.Sprintf("/api/loans/%s/return", recordID)

	// act
	first := api.do(t, http.MethodPost, path, &librarian, nil)
	second := api.do(t, http.MethodPost, path, &librarian, nil)

	// assert
	assert.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get(httpapi.HeaderIdempotentReplay))
	assert.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get(httpapi.HeaderIdempotentReplay))
}

func Test_Router_LibrarianFlow_AddBookApproveFulfillReturn(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{})
	librarian := fixtures.Librarian()
	reader := fixtures.Reader()

	// act
	added := api.do(t, http.MethodPost, "/api/books", &librarian, map[string]any{"title": "Solaris", "copies": 2})
	require.Equal(t, http.StatusCreated, added.Code, added.Body.String())
	bookID, err := uuid.Parse(decode(t, added)["bookId"].(string))
	require.NoError(t, err)

	created := api.do(t, http.MethodPost, "/api/borrow-requests", &reader, api.borrowBody(bookID, 2))
	require.Equal(t, http.StatusCreated, created.Code)
	requestID := decode(t, created)["requestId"]

	fulfilled := api.do(t, http.MethodPost, fmt.Sprintf("/api/borrow-requests/%s/fulfill", requestID), &librarian, nil)
	require.Equal(t, http.StatusCreated, fulfilled.Code, fulfilled.Body.String())
	recordID := decode(t, fulfilled)["borrowRecordId"]

	returned := api.do(t, http.MethodPost, fmt.Sprintf("/api/loans/%s/return", recordID), &librarian, nil)

	// assert
	require.Equal(t, http.StatusOK, returned.Code, returned.Body.String())
	assert.Len(t, decode(t, returned)["returnedItems"], 2)

	availability := api.do(t, http.MethodGet, fmt.Sprintf("/api/books/%s/availability", bookID), &reader, nil)
	require.Equal(t, http.StatusOK, availability.Code)
	assert.EqualValues(t, 2, decode(t, availability)["available"])
	assert.EqualValues(t, 0, decode(t, availability)["reserved"])
}

func Test_Router_RateLimitPerCaller(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})
	bookID, _ := fixtures.GivenBook(t, api.store, 1)
	reader := fixtures.Reader()
	other := fixtures.Reader()
	path := fmt.Sprintf("/api/books/%s/availability", bookID)

	// act
	first := api.do(t, http.MethodGet, path, &reader, nil)
	limited := api.do(t, http.MethodGet, path, &reader, nil)
	otherCaller := api.do(t, http.MethodGet, path, &other, nil)

	// assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, otherCaller.Code)
}

func Test_Router_Readiness(t *testing.T) {
	// setup
	api := newAPI(t, httpapi.RouterConfig{Ready: func(context.Context) error { return errors.New("database unreachable") }})

	// act
	ready := api.do(t, http.MethodGet, "/ready", nil, nil)
	health := api.do(t, http.MethodGet, "/health", nil, nil)

	// assert
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
	assert.Equal(t, http.StatusOK, health.Code)
}

func Test_StatusFor(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{err: circulation.ErrActiveRequestExists, want: http.StatusBadRequest},
		{err: circulation.ErrNotOwner, want: http.StatusForbidden},
		{err: circulation.ErrBorrowRecordNotFound, want: http.StatusNotFound},
		{err: circulation.ErrRequestStatusConflict, want: http.StatusConflict},
		{err: &core.RenewalRejection{Reason: core.RenewalReasonOverdue}, want: http.StatusUnprocessableEntity},
		{err: circulation.ErrSupplyOversold, want: http.StatusInternalServerError},
		{err: circulation.ErrConcurrencyConflict, want: http.StatusServiceUnavailable},
		{err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			// act
			status, _ := httpapi.StatusFor(tc.err)

			// assert
			assert.Equal(t, tc.want, status)
		})
	}
}
