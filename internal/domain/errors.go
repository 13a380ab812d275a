package domain

import (
	"errors"
	"fmt"
)

// Row-terminal errors deactivate the row and produce a notification; the
// poll cycle itself is never aborted. Transient errors skip the row for the
// current cycle only.

// ParseError reports a malformed numeric or date field in a row.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotHeldError: a percent-of-cost target needs a cost basis, which only
// exists for held assets.
type NotHeldError struct {
	Currency string
}

func (e *NotHeldError) Error() string {
	return fmt.Sprintf("%s is not held, no cost basis for percent target", e.Currency)
}

// NoDataError: required market data was empty after the strategy's own
// lookback.
type NoDataError struct {
	Market string
	What   string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no %s available for %s", e.What, e.Market)
}

// RangeError: a percent value fell outside (0, 100] after scaling.
type RangeError struct {
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("percent value %.4f outside (0, 100]", e.Value)
}

// BelowMinimumError: the computed order value is under the exchange minimum;
// no order is attempted.
type BelowMinimumError struct {
	Amount  float64
	Minimum float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order amount %.0f KRW below exchange minimum %.0f KRW", e.Amount, e.Minimum)
}

// ExceedsHoldingsError: a count-unit sell asked for more than is held. Such
// requests are rejected outright, never clamped.
type ExceedsHoldingsError struct {
	Requested float64
	Held      float64
}

func (e *ExceedsHoldingsError) Error() string {
	return fmt.Sprintf("sell of %.8f exceeds held %.8f", e.Requested, e.Held)
}

// TransientError wraps a price/candle/account fetch failure. The row stays
// active and is retried next cycle.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// OrderSubmissionError: the exchange rejected the order or the transport
// failed after retries. The row is deactivated regardless.
type OrderSubmissionError struct {
	Market string
	Err    error
}

func (e *OrderSubmissionError) Error() string {
	return fmt.Sprintf("order submission for %s failed: %v", e.Market, e.Err)
}

func (e *OrderSubmissionError) Unwrap() error { return e.Err }

// ErrUnknownCondition marks a row whose comparison operator is not
// recognized. The row is skipped but intentionally left active.
var ErrUnknownCondition = errors.New("unknown watch condition")

// ErrSkipOrder marks a zero-quantity sizing result: no order, row done.
var ErrSkipOrder = errors.New("order skipped")

// IsTransient reports whether err should leave the row active for a retry
// next cycle instead of deactivating it.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, ErrUnknownCondition)
}
