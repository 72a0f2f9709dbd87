// Package finance holds the reconciliation and payroll arithmetic of the back
// office. Every function here is pure: it takes entity snapshots and returns
// derived values or a sentinel error, and never touches storage.
package finance

import "errors"

var (
	ErrUnsupportedCurrency = errors.New("currency not supported by store")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInterval     = errors.New("check-out must be after check-in")
	ErrMissingRate         = errors.New("missing wage rate")
	ErrInvalidWageType     = errors.New("invalid wage type")
	ErrInvalidStatus       = errors.New("invalid expense status")
	ErrAlreadyPaid         = errors.New("expense already paid")
)
