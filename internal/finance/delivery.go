package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailops/backend/internal/domain"
)

// ValidateDelivery checks a driver's shift log and returns its hours worked.
// Delivery count and expense are caller inputs; hours is the only derived field.
func ValidateDelivery(checkIn time.Time, checkOut time.Time, numberOfDeliveries int, expenseAmount int64) (decimal.Decimal, error) {
	hours, err := ComputeHours(checkIn, checkOut)
	if err != nil {
		return decimal.Zero, err
	}
	if numberOfDeliveries < 0 {
		return decimal.Zero, fmt.Errorf("%w: negative delivery count %d", ErrInvalidAmount, numberOfDeliveries)
	}
	if expenseAmount < 0 {
		return decimal.Zero, fmt.Errorf("%w: negative expense %d", ErrInvalidAmount, expenseAmount)
	}
	return hours, nil
}

// SummarizeDeliveries totals a driver's logged shifts in one currency.
func SummarizeDeliveries(deliveries []domain.Delivery) domain.DriverSummary {
	summary := domain.DriverSummary{HoursWorked: decimal.Zero}
	for _, d := range deliveries {
		summary.Shifts++
		summary.Deliveries += d.NumberOfDeliveries
		summary.HoursWorked = summary.HoursWorked.Add(d.HoursWorked)
		summary.ExpenseAmount += d.ExpenseAmount
	}
	return summary
}
