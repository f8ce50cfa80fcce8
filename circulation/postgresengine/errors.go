package postgresengine

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	errorTypeConcurrencyConflict = "concurrency_conflict"
	errorTypeValidation          = "validation"
	errorTypeNotFound            = "not_found"
	errorTypeConflict            = "conflict"
	errorTypeInvariantViolation  = "invariant_violation"
	errorTypeForbidden           = "forbidden"
	errorTypeRenewalRejected     = "renewal_rejected"
	errorTypeDatabase            = "database_error"
)

// classify maps driver errors onto the circulation error classes.
// Serialization failures, deadlocks and lock timeouts become retryable concurrency conflicts.
// A unique violation on the active request index means two active requests for one user and book.
func classify(err error) error {
	if err == nil {
		return nil
	}

	code, constraint := sqlState(err)

	switch code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return errors.Join(circulation.ErrConcurrencyConflict, err)

	case pgerrcode.UniqueViolation:
		if strings.HasSuffix(constraint, activeRequestIndex) {
			return errors.Join(circulation.ErrDuplicateActive, err)
		}
	}

	return err
}

// sqlState extracts the SQLSTATE code and constraint name from pgx or lib/pq errors.
func sqlState(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}

	return "", ""
}

// errorTypeOf returns a low-cardinality label for metrics and spans.
func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, circulation.ErrConcurrencyConflict):
		return errorTypeConcurrencyConflict
	case errors.Is(err, circulation.ErrValidation):
		return errorTypeValidation
	case errors.Is(err, circulation.ErrNotFound):
		return errorTypeNotFound
	case errors.Is(err, circulation.ErrConflict):
		return errorTypeConflict
	case errors.Is(err, circulation.ErrInvariantViolation):
		return errorTypeInvariantViolation
	case errors.Is(err, circulation.ErrForbidden):
		return errorTypeForbidden
	case errors.Is(err, circulation.ErrRenewalRejected):
		return errorTypeRenewalRejected
	default:
		return errorTypeDatabase
	}
}
