package circulation

import (
	"errors"
	"time"
)

const (
	defaultMaxRenewals        = 2
	defaultExtensionDays      = 7
	defaultMaxBorrowDays      = 30
	defaultMaxRequestSpanDays = 30
	defaultPickupWindow       = 72 * time.Hour
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid circulation policy")

// Policy holds the circulation limits.
type Policy struct {
	MaxRenewals        int
	ExtensionDays      int
	MaxBorrowDays      int
	MaxRequestSpanDays int

	// PickupWindow is how long an APPROVED request waits for collection before it expires.
	PickupWindow time.Duration
}

// DefaultPolicy returns the standard limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxRenewals:        defaultMaxRenewals,
		ExtensionDays:      defaultExtensionDays,
		MaxBorrowDays:      defaultMaxBorrowDays,
		MaxRequestSpanDays: defaultMaxRequestSpanDays,
		PickupWindow:       defaultPickupWindow,
	}
}

// Validate checks that all limits are usable.
func (p Policy) Validate() error {
	switch {
	case p.MaxRenewals < 0:
		return errors.Join(ErrInvalidPolicy, errors.New("max renewals must not be negative"))
	case p.ExtensionDays <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("extension days must be positive"))
	case p.MaxBorrowDays <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("max borrow days must be positive"))
	case p.MaxRequestSpanDays <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("max request span days must be positive"))
	case p.PickupWindow <= 0:
		return errors.Join(ErrInvalidPolicy, errors.New("pickup window must be positive"))
	}

	return nil
}
