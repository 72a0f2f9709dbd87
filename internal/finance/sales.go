package finance

import (
	"fmt"
	"math"

	"retailops/backend/internal/domain"
)

// Reconcile derives a day's total takings and the till discrepancy.
//
// Only the cash channel is expected in the physical till, so
// difference = cashInTill - cash. A negative difference means the till is
// short, a positive one that it is over; both are reported as-is.
func Reconcile(channels domain.SalesChannels, cashInTill int64) (domain.Reconciliation, error) {
	if cashInTill < 0 {
		return domain.Reconciliation{}, fmt.Errorf("%w: cash in till %d", ErrInvalidAmount, cashInTill)
	}

	var total int64
	for _, amount := range channels.Amounts() {
		if amount < 0 {
			return domain.Reconciliation{}, fmt.Errorf("%w: negative channel amount %d", ErrInvalidAmount, amount)
		}
		if total > math.MaxInt64-amount {
			return domain.Reconciliation{}, fmt.Errorf("%w: channel total overflows", ErrInvalidAmount)
		}
		total += amount
	}

	return domain.Reconciliation{
		Total:      total,
		Difference: cashInTill - channels.Cash,
	}, nil
}

// SummarizeSales adds up reconciled sales rows. Rows are expected to share a
// currency; the caller fills in store and range labels. A sum that leaves the
// int64 range is rejected with ErrInvalidAmount instead of wrapping.
func SummarizeSales(sales []domain.Sale) (domain.SalesSummary, error) {
	var summary domain.SalesSummary
	for _, sale := range sales {
		current := summary.Channels.Amounts()
		for i, amount := range sale.SalesChannels.Amounts() {
			if _, ok := addInt64(current[i], amount); !ok {
				return domain.SalesSummary{}, fmt.Errorf("%w: channel sum overflows", ErrInvalidAmount)
			}
		}
		total, okTotal := addInt64(summary.Total, sale.Total)
		till, okTill := addInt64(summary.CashInTill, sale.CashInTill)
		diff, okDiff := addInt64(summary.Difference, sale.Difference)
		if !okTotal || !okTill || !okDiff {
			return domain.SalesSummary{}, fmt.Errorf("%w: sales sum overflows", ErrInvalidAmount)
		}

		summary.Days++
		summary.Channels = summary.Channels.Add(sale.SalesChannels)
		summary.Total = total
		summary.CashInTill = till
		summary.Difference = diff
		switch {
		case sale.Difference < 0:
			summary.ShortDays++
		case sale.Difference > 0:
			summary.OverDays++
		}
	}
	return summary, nil
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
