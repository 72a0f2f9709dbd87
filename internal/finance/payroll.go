package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailops/backend/internal/domain"
)

// Period is a half-open time range [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// PeriodFromDates turns an inclusive calendar range into [from 00:00, to+1 00:00) UTC.
func PeriodFromDates(from time.Time, to time.Time) (Period, error) {
	start := DateOf(from)
	end := DateOf(to).AddDate(0, 0, 1)
	if !end.After(start) {
		return Period{}, fmt.Errorf("%w: period ends before it starts", ErrInvalidInterval)
	}
	return Period{From: start, To: end}, nil
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

type PayrollInput struct {
	Employee   domain.Employee
	Currency   domain.Currency
	Period     Period
	Attendance []domain.Attendance
	Payments   []domain.Payment
}

type isoWeek struct {
	year int
	week int
}

// Summarize computes what an employee earned and was paid in one currency
// over a period.
//
// Every FIXED attendance row stores the whole weekly wage, so FIXED rows are
// grouped by the ISO week of their check-in and the wage is counted once per
// week (the largest amount in the week wins, covering a mid-week raise).
// HOURLY rows are summed as stored. Rows outside the employee, currency or
// period are ignored.
func Summarize(in PayrollInput) (domain.PayrollTotals, error) {
	if !in.Currency.Valid() {
		return domain.PayrollTotals{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, in.Currency)
	}
	if !in.Period.To.After(in.Period.From) {
		return domain.PayrollTotals{}, fmt.Errorf("%w: empty payroll period", ErrInvalidInterval)
	}

	totals := domain.PayrollTotals{HoursWorked: decimal.Zero}
	fixedByWeek := make(map[isoWeek]int64)

	for _, row := range in.Attendance {
		if row.EmployeeID != in.Employee.ID || row.Currency != in.Currency || !in.Period.Contains(row.CheckIn) {
			continue
		}
		if row.AmountToPay < 0 {
			return domain.PayrollTotals{}, fmt.Errorf("%w: attendance %s amount %d", ErrInvalidAmount, row.ID, row.AmountToPay)
		}

		wageType := row.WageType
		if wageType == "" {
			wageType = in.Employee.WageType
		}

		totals.AttendanceCount++
		totals.HoursWorked = totals.HoursWorked.Add(row.HoursWorked)

		switch wageType {
		case domain.WageTypeHourly:
			totals.HourlyEarned += row.AmountToPay
		case domain.WageTypeFixed:
			year, week := row.CheckIn.UTC().ISOWeek()
			key := isoWeek{year: year, week: week}
			if current, ok := fixedByWeek[key]; !ok || row.AmountToPay > current {
				fixedByWeek[key] = row.AmountToPay
			}
		default:
			return domain.PayrollTotals{}, fmt.Errorf("%w: attendance %s has %q", ErrInvalidWageType, row.ID, wageType)
		}
	}

	for _, amount := range fixedByWeek {
		totals.FixedEarned += amount
	}
	totals.FixedWeeks = len(fixedByWeek)
	totals.Earned = totals.HourlyEarned + totals.FixedEarned

	for _, p := range in.Payments {
		if p.EmployeeID != in.Employee.ID || p.Currency != in.Currency || !in.Period.Contains(p.PaidDate) {
			continue
		}
		if p.AmountPaid < 0 {
			return domain.PayrollTotals{}, fmt.Errorf("%w: payment %s amount %d", ErrInvalidAmount, p.ID, p.AmountPaid)
		}
		totals.Paid += p.AmountPaid
		totals.PaymentCount++
	}

	totals.Balance = totals.Earned - totals.Paid
	return totals, nil
}
