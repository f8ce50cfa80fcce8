package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/approverequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/borrowebook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/cancelrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/changeitemstatus"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/createborrowrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/fulfillrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/promotequeuehead"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/rejectrequest"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/renewloan"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/returnebook"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/returnloan"
	"github.com/AntonStoeckl/library-circulation-go/library/features/query/bookavailability"
	"github.com/AntonStoeckl/library-circulation-go/library/features/query/queueposition"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// HeaderIdempotentReplay is set to "true" when a command changed nothing because its outcome was already in place.
const HeaderIdempotentReplay = "Idempotent-Replay"

type createBorrowRequestBody struct {
	BookID    uuid.UUID `json:"bookId" binding:"required"`
	Quantity  int       `json:"quantity"`
	StartDate string    `json:"startDate" binding:"required"`
	EndDate   string    `json:"endDate" binding:"required"`
}

type addBookBody struct {
	BookID   *uuid.UUID `json:"bookId"`
	Title    string     `json:"title"`
	HasEbook bool       `json:"hasEbook"`
	Copies   int        `json:"copies"`
}

type borrowEbookBody struct {
	EndDate string `json:"endDate"`
}

type changeItemStatusBody struct {
	Status string `json:"status" binding:"required"`
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "malformed id")
		return uuid.Nil, false
	}

	return id, true
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func respond(c *gin.Context, status int, result shell.HandlerResult, body any) {
	if result.Idempotent {
		c.Header(HeaderIdempotentReplay, "true")
		status = http.StatusOK
	}

	c.JSON(status, body)
}

func (s server) createBorrowRequest(c *gin.Context) {
	var body createBorrowRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	startDate, err := parseDate(body.StartDate)
	if err != nil {
		badRequest(c, "startDate must be YYYY-MM-DD")
		return
	}

	endDate, err := parseDate(body.EndDate)
	if err != nil {
		badRequest(c, "endDate must be YYYY-MM-DD")
		return
	}

	command := createborrowrequest.BuildCommand(actorFrom(c), body.BookID, body.Quantity, startDate, endDate, s.now())

	output, result, err := s.handlers.CreateBorrowRequest.Handle(c.Request.Context(), command)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, result, gin.H{
		"requestId":     output.RequestID,
		"status":        output.Status,
		"queuePosition": output.QueuePosition,
	})
}

func (s server) approveRequest(c *gin.Context) {
	requestID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.ApproveRequest.Handle(c.Request.Context(), approverequest.BuildCommand(actorFrom(c), requestID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"requestId": output.RequestID, "status": output.Status})
}

func (s server) rejectRequest(c *gin.Context) {
	requestID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.RejectRequest.Handle(c.Request.Context(), rejectrequest.BuildCommand(actorFrom(c), requestID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"requestId": output.RequestID, "status": circulation.RequestRejected, "promoted": output.Promoted})
}

func (s server) cancelRequest(c *gin.Context) {
	requestID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.CancelRequest.Handle(c.Request.Context(), cancelrequest.BuildCommand(actorFrom(c), requestID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"requestId": output.RequestID, "status": circulation.RequestCancelled, "promoted": output.Promoted})
}

func (s server) fulfillRequest(c *gin.Context) {
	requestID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.FulfillRequest.Handle(c.Request.Context(), fulfillrequest.BuildCommand(actorFrom(c), requestID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, result, gin.H{
		"borrowRecordId": output.BorrowRecordID,
		"itemIds":        output.ItemIDs,
		"borrowDate":     formatDate(output.BorrowDate),
		"returnDate":     formatDate(output.ReturnDate),
	})
}

func (s server) queuePosition(c *gin.Context) {
	requestID, ok := pathID(c)
	if !ok {
		return
	}

	output, err := s.handlers.QueuePosition.Handle(c.Request.Context(), queueposition.BuildQuery(actorFrom(c), requestID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requestId":   output.RequestID,
		"bookId":      output.BookID,
		"status":      output.Status,
		"position":    output.Position,
		"queueLength": output.QueueLength,
	})
}

func (s server) renewLoan(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.RenewLoan.Handle(c.Request.Context(), renewloan.BuildCommand(actorFrom(c), recordID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{
		"newReturnDate": formatDate(output.NewReturnDate),
		"renewalCount":  output.RenewalCount,
	})
}

func (s server) returnLoan(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.ReturnLoan.Handle(c.Request.Context(), returnloan.BuildCommand(actorFrom(c), recordID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"returnedItems": output.ReturnedItems, "promoted": output.Promoted})
}

func (s server) returnEbook(c *gin.Context) {
	recordID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.ReturnEbook.Handle(c.Request.Context(), returnebook.BuildCommand(actorFrom(c), recordID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"returnedAt": output.ReturnedAt})
}

func (s server) addBook(c *gin.Context) {
	var body addBookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	var bookID uuid.UUID
	if body.BookID != nil {
		bookID = *body.BookID
	} else {
		generated, err := uuid.NewV7()
		if err != nil {
			respondError(c, err)
			return
		}

		bookID = generated
	}

	command := addbook.BuildCommand(actorFrom(c), bookID, body.Title, body.HasEbook, body.Copies, s.now())

	output, result, err := s.handlers.AddBook.Handle(c.Request.Context(), command)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, result, gin.H{"bookId": output.BookID, "itemIds": output.ItemIDs})
}

func (s server) bookAvailability(c *gin.Context) {
	bookID, ok := pathID(c)
	if !ok {
		return
	}

	output, err := s.handlers.BookAvailability.Handle(c.Request.Context(), bookavailability.BuildQuery(bookID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookId":      output.BookID,
		"title":       output.Title,
		"hasEbook":    output.HasEbook,
		"available":   output.Available,
		"reserved":    output.Reserved,
		"remaining":   output.Remaining,
		"queueLength": output.QueueLength,
	})
}

func (s server) promoteQueueHead(c *gin.Context) {
	bookID, ok := pathID(c)
	if !ok {
		return
	}

	output, result, err := s.handlers.PromoteQueueHead.Handle(c.Request.Context(), promotequeuehead.BuildCommand(actorFrom(c), bookID, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"promoted": output.Promoted})
}

func (s server) borrowEbook(c *gin.Context) {
	bookID, ok := pathID(c)
	if !ok {
		return
	}

	var body borrowEbookBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	var endDate time.Time
	if body.EndDate != "" {
		parsed, err := parseDate(body.EndDate)
		if err != nil {
			badRequest(c, "endDate must be YYYY-MM-DD")
			return
		}

		endDate = parsed
	}

	output, result, err := s.handlers.BorrowEbook.Handle(c.Request.Context(), borrowebook.BuildCommand(actorFrom(c), bookID, endDate, s.now()))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, result, gin.H{
		"requestId":      output.RequestID,
		"borrowRecordId": output.BorrowRecordID,
		"returnDate":     formatDate(output.ReturnDate),
	})
}

func (s server) changeItemStatus(c *gin.Context) {
	itemID, ok := pathID(c)
	if !ok {
		return
	}

	var body changeItemStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	command := changeitemstatus.BuildCommand(actorFrom(c), itemID, circulation.BookItemStatus(strings.ToUpper(body.Status)), s.now())

	output, result, err := s.handlers.ChangeItemStatus.Handle(c.Request.Context(), command)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, result, gin.H{"previous": output.Previous, "promoted": output.Promoted})
}
