package domain

import "strings"

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Currencies lists every currency the back office tracks.
var Currencies = []Currency{CurrencyEUR, CurrencyGBP}

func (c Currency) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyGBP:
		return true
	default:
		return false
	}
}

func ParseCurrency(raw string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	return c, c.Valid()
}

type WageType string

const (
	WageTypeHourly WageType = "HOURLY"
	WageTypeFixed  WageType = "FIXED"
)

func (w WageType) Valid() bool {
	switch w {
	case WageTypeHourly, WageTypeFixed:
		return true
	default:
		return false
	}
}

type ExpenseStatus string

const (
	ExpenseStatusRaised ExpenseStatus = "RAISED"
	ExpenseStatusPaid   ExpenseStatus = "PAID"
)

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseStatusRaised, ExpenseStatusPaid:
		return true
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodAccount PaymentMethod = "ACCOUNT"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodAccount:
		return true
	default:
		return false
	}
}

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// EntityKind names the parent entities whose deletion is guarded by
// dependent-row checks.
type EntityKind string

const (
	EntityStore    EntityKind = "store"
	EntityEmployee EntityKind = "employee"
	EntityDriver   EntityKind = "driver"
	EntityVendor   EntityKind = "vendor"
)
