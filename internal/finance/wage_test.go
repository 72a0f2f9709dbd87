package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retailops/backend/internal/domain"
)

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestComputeHoursRejectsEmptyAndReversedIntervals(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	if _, err := ComputeHours(start, start); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for equal times, got %v", err)
	}
	if _, err := ComputeHours(start, start.Add(-time.Minute)); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for reversed times, got %v", err)
	}
	if _, err := ComputeHours(time.Time{}, start); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for zero check-in, got %v", err)
	}
}

func TestComputeHours(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		dur  time.Duration
		want string
	}{
		{dur: time.Hour, want: "1"},
		{dur: 7*time.Hour + 30*time.Minute, want: "7.5"},
		{dur: 20 * time.Minute, want: "0.3333"},
		{dur: 40 * time.Minute, want: "0.6667"},
		{dur: 26 * time.Hour, want: "26"},
	}

	for _, tc := range cases {
		got, err := ComputeHours(start, start.Add(tc.dur))
		if err != nil {
			t.Fatalf("compute hours %s: %v", tc.dur, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("duration %s: expected %s hours, got %s", tc.dur, tc.want, got)
		}
	}
}

func TestComputeHoursAcrossTimeZones(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	in := time.Date(2024, 6, 1, 9, 0, 0, 0, london)
	out := in.UTC().Add(2 * time.Hour)

	got, err := ComputeHours(in, out)
	if err != nil {
		t.Fatalf("compute hours: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected 2 hours, got %s", got)
	}
}

func TestAmountToPayHourly(t *testing.T) {
	calc := NewWageCalculator(1)
	emp := domain.Employee{ID: "emp-1", WageType: domain.WageTypeHourly, HourlyRateEUR: rate("15.00")}

	got, err := calc.AmountToPay(emp, domain.CurrencyEUR, decimal.NewFromInt(6))
	if err != nil {
		t.Fatalf("amount to pay: %v", err)
	}
	if got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
}

func TestAmountToPayRoundsHalfUp(t *testing.T) {
	calc := NewWageCalculator(1)
	cases := []struct {
		rate  string
		hours string
		want  int64
	}{
		// 2.5 must round to 3; banker's rounding would give 2.
		{rate: "5", hours: "0.5", want: 3},
		{rate: "9", hours: "0.5", want: 5},
		{rate: "10", hours: "0.44", want: 4},
		{rate: "10", hours: "0.46", want: 5},
		{rate: "12.50", hours: "7.5", want: 94},
		{rate: "11.99", hours: "0.3333", want: 4},
	}

	for _, tc := range cases {
		emp := domain.Employee{WageType: domain.WageTypeHourly, HourlyRateGBP: rate(tc.rate)}
		got, err := calc.AmountToPay(emp, domain.CurrencyGBP, decimal.RequireFromString(tc.hours))
		if err != nil {
			t.Fatalf("rate %s hours %s: %v", tc.rate, tc.hours, err)
		}
		if got != tc.want {
			t.Fatalf("rate %s hours %s: expected %d, got %d", tc.rate, tc.hours, tc.want, got)
		}
	}
}

func TestAmountToPayAppliesScale(t *testing.T) {
	calc := NewWageCalculator(100)
	emp := domain.Employee{WageType: domain.WageTypeHourly, HourlyRateEUR: rate("15.25")}

	got, err := calc.AmountToPay(emp, domain.CurrencyEUR, decimal.RequireFromString("1.3333"))
	if err != nil {
		t.Fatalf("amount to pay: %v", err)
	}
	// 15.25 * 1.3333 = 20.332825 -> 2033.2825 cents
	if got != 2033 {
		t.Fatalf("expected 2033, got %d", got)
	}
	if calc.Scale() != 100 {
		t.Fatalf("expected scale 100, got %d", calc.Scale())
	}
}

func TestAmountToPayFixedIgnoresHours(t *testing.T) {
	calc := NewWageCalculator(1)
	emp := domain.Employee{WageType: domain.WageTypeFixed, WeeklyWageEUR: rate("500")}

	for _, hours := range []string{"1", "8", "40.25"} {
		got, err := calc.AmountToPay(emp, domain.CurrencyEUR, decimal.RequireFromString(hours))
		if err != nil {
			t.Fatalf("amount to pay: %v", err)
		}
		if got != 500 {
			t.Fatalf("hours %s: expected flat 500, got %d", hours, got)
		}
	}
}

func TestAmountToPayMissingRate(t *testing.T) {
	calc := NewWageCalculator(1)
	cases := []struct {
		name     string
		employee domain.Employee
		currency domain.Currency
	}{
		{
			name:     "hourly eur unset",
			employee: domain.Employee{WageType: domain.WageTypeHourly},
			currency: domain.CurrencyEUR,
		},
		{
			name:     "hourly only gbp configured",
			employee: domain.Employee{WageType: domain.WageTypeHourly, HourlyRateGBP: rate("12")},
			currency: domain.CurrencyEUR,
		},
		{
			name:     "fixed with hourly rate only",
			employee: domain.Employee{WageType: domain.WageTypeFixed, HourlyRateEUR: rate("12")},
			currency: domain.CurrencyEUR,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.AmountToPay(tc.employee, tc.currency, decimal.NewFromInt(4))
			if !errors.Is(err, ErrMissingRate) {
				t.Fatalf("expected ErrMissingRate, got %v", err)
			}
		})
	}
}

func TestAmountToPayRejectsUnknownWageType(t *testing.T) {
	calc := NewWageCalculator(1)
	_, err := calc.AmountToPay(domain.Employee{WageType: "DAILY"}, domain.CurrencyEUR, decimal.NewFromInt(1))
	if !errors.Is(err, ErrInvalidWageType) {
		t.Fatalf("expected ErrInvalidWageType, got %v", err)
	}
}

func TestValidateWageConfig(t *testing.T) {
	if err := ValidateWageConfig(domain.Employee{WageType: domain.WageTypeHourly}); err != nil {
		t.Fatalf("expected config without rates to pass, got %v", err)
	}
	err := ValidateWageConfig(domain.Employee{WageType: domain.WageTypeFixed, WeeklyWageGBP: rate("-1")})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative wage, got %v", err)
	}
	if err := ValidateWageConfig(domain.Employee{WageType: "hourly"}); !errors.Is(err, ErrInvalidWageType) {
		t.Fatalf("expected ErrInvalidWageType for lowercase type, got %v", err)
	}
}

func TestValidateDelivery(t *testing.T) {
	in := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)

	hours, err := ValidateDelivery(in, in.Add(4*time.Hour+15*time.Minute), 12, 850)
	if err != nil {
		t.Fatalf("validate delivery: %v", err)
	}
	if !hours.Equal(decimal.RequireFromString("4.25")) {
		t.Fatalf("expected 4.25 hours, got %s", hours)
	}

	if _, err := ValidateDelivery(in, in, 1, 0); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := ValidateDelivery(in, in.Add(time.Hour), -1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative count, got %v", err)
	}
	if _, err := ValidateDelivery(in, in.Add(time.Hour), 1, -5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative expense, got %v", err)
	}
}

func TestSummarizeDeliveries(t *testing.T) {
	summary := SummarizeDeliveries([]domain.Delivery{
		{NumberOfDeliveries: 10, HoursWorked: decimal.RequireFromString("4.5"), ExpenseAmount: 300},
		{NumberOfDeliveries: 3, HoursWorked: decimal.RequireFromString("1.25"), ExpenseAmount: 120},
	})
	if summary.Shifts != 2 || summary.Deliveries != 13 || summary.ExpenseAmount != 420 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.HoursWorked.Equal(decimal.RequireFromString("5.75")) {
		t.Fatalf("expected 5.75 hours, got %s", summary.HoursWorked)
	}
}
