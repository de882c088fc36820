package domain

import (
	"errors"
	"fmt"
)

// Trade validation and pipeline errors. Validation failures are terminal
// for the attempt and never retried; transient failures are retried only
// by the next scheduled cycle.
var (
	ErrInvalidQuantity        = errors.New("quantity must be a positive whole number")
	ErrInvalidSymbol          = errors.New("symbol must not be empty")
	ErrPriceUnavailable       = errors.New("execution price unavailable")
	ErrInsufficientCash       = errors.New("insufficient cash")
	ErrInsufficientShares     = errors.New("insufficient shares")
	ErrMarketClosed           = errors.New("market closed")
	ErrNoDecision             = errors.New("no valid decision in model reply")
	ErrUnknownSymbol          = errors.New("symbol not in quoted context")
	ErrStoreUnavailable       = errors.New("ledger store unavailable")
	ErrConflictRetryExhausted = errors.New("concurrent update conflict, retries exhausted")
)

// InsufficientCashError reports a BUY whose cost exceeds available cash.
// It matches ErrInsufficientCash under errors.Is.
type InsufficientCashError struct {
	Required  float64
	Available float64
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash: need $%.2f, have $%.2f", e.Required, e.Available)
}

func (e *InsufficientCashError) Is(target error) bool {
	return target == ErrInsufficientCash
}

// InsufficientSharesError reports a SELL beyond the held quantity.
// It matches ErrInsufficientShares under errors.Is.
type InsufficientSharesError struct {
	Symbol    string
	Requested int64
	Held      int64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares: tried to sell %d %s, holding %d", e.Requested, e.Symbol, e.Held)
}

func (e *InsufficientSharesError) Is(target error) bool {
	return target == ErrInsufficientShares
}

// IsValidationError reports whether err is a terminal validation failure
// (as opposed to a transient store/provider failure).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidSymbol) ||
		errors.Is(err, ErrPriceUnavailable) ||
		errors.Is(err, ErrInsufficientCash) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrUnknownSymbol)
}
