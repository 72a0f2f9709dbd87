package finance

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"retailops/backend/internal/domain"
)

// HoursPrecision is the number of decimal places kept for hours worked.
const HoursPrecision int32 = 4

var (
	hourNanos = decimal.NewFromInt(int64(time.Hour))
	maxAmount = decimal.NewFromInt(math.MaxInt64)
)

// ComputeHours returns the length of [checkIn, checkOut) in hours.
func ComputeHours(checkIn time.Time, checkOut time.Time) (decimal.Decimal, error) {
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return decimal.Zero, fmt.Errorf("%w: check-in %s, check-out %s", ErrInvalidInterval,
			checkIn.UTC().Format(time.RFC3339), checkOut.UTC().Format(time.RFC3339))
	}
	d := checkOut.Sub(checkIn)
	return decimal.NewFromInt(int64(d)).Div(hourNanos).Round(HoursPrecision), nil
}

// RoundHalfUp rounds to the nearest integer, ties away from zero.
func RoundHalfUp(d decimal.Decimal) (int64, error) {
	r := d.Round(0)
	if r.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidAmount, d.String())
	}
	return r.IntPart(), nil
}

// WageCalculator turns an employee's wage configuration into amounts owed.
// Scale converts rate units into the integer unit amounts are stored in.
type WageCalculator struct {
	scale decimal.Decimal
}

func NewWageCalculator(scale int64) *WageCalculator {
	if scale < 1 {
		scale = 1
	}
	return &WageCalculator{scale: decimal.NewFromInt(scale)}
}

func (c *WageCalculator) Scale() int64 {
	return c.scale.IntPart()
}

// AmountToPay computes the pay stored on one attendance record.
//
// HOURLY pays hours x rate. FIXED stores the full weekly wage on every row
// regardless of hours; PayrollAggregator counts it once per ISO week.
func (c *WageCalculator) AmountToPay(employee domain.Employee, currency domain.Currency, hoursWorked decimal.Decimal) (int64, error) {
	if !currency.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if hoursWorked.IsNegative() {
		return 0, fmt.Errorf("%w: negative hours %s", ErrInvalidInterval, hoursWorked.String())
	}

	switch employee.WageType {
	case domain.WageTypeHourly:
		rate, ok := employee.HourlyRate(currency)
		if !ok {
			return 0, fmt.Errorf("%w: employee %s has no hourly %s rate", ErrMissingRate, employee.ID, currency)
		}
		if rate.IsNegative() {
			return 0, fmt.Errorf("%w: hourly rate %s", ErrInvalidAmount, rate.String())
		}
		return RoundHalfUp(hoursWorked.Mul(rate).Mul(c.scale))
	case domain.WageTypeFixed:
		wage, ok := employee.WeeklyWage(currency)
		if !ok {
			return 0, fmt.Errorf("%w: employee %s has no weekly %s wage", ErrMissingRate, employee.ID, currency)
		}
		if wage.IsNegative() {
			return 0, fmt.Errorf("%w: weekly wage %s", ErrInvalidAmount, wage.String())
		}
		return RoundHalfUp(wage.Mul(c.scale))
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWageType, employee.WageType)
	}
}

// ValidateWageConfig checks an employee record before it is written. Missing
// rates are allowed here; they surface as ErrMissingRate when pay is computed.
func ValidateWageConfig(employee domain.Employee) error {
	if !employee.WageType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWageType, employee.WageType)
	}
	for _, rate := range []decimal.NullDecimal{
		employee.HourlyRateEUR, employee.HourlyRateGBP,
		employee.WeeklyWageEUR, employee.WeeklyWageGBP,
	} {
		if rate.Valid && rate.Decimal.IsNegative() {
			return fmt.Errorf("%w: negative rate %s", ErrInvalidAmount, rate.Decimal.String())
		}
	}
	return nil
}
