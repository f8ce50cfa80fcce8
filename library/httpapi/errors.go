package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Reason    string `json:"reason,omitempty"`
	BookTitle string `json:"bookTitle,omitempty"`
}

// StatusFor maps an error returned by a handler to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, circulation.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, circulation.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, circulation.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, circulation.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, circulation.ErrRenewalRejected):
		return http.StatusUnprocessableEntity, "renewal_rejected"
	case errors.Is(err, circulation.ErrInvariantViolation):
		return http.StatusInternalServerError, "invariant_violation"
	case errors.Is(err, circulation.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable, "concurrency_conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	body := errorBody{Error: err.Error(), Code: code}

	var rejection *core.RenewalRejection
	if errors.As(err, &rejection) {
		body.Reason = rejection.Reason
		body.BookTitle = rejection.BookTitle
	}

	// infrastructure details stay in the logs
	if status == http.StatusInternalServerError && code == "internal" {
		body.Error = "internal error"
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg, Code: "validation"})
}
