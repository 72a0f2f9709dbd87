package finance

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"retailops/backend/internal/domain"
)

func TestReconcileTotalIsSumOfAllChannels(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		ch := domain.SalesChannels{
			Cash:       rng.Int63n(100000),
			Online:     rng.Int63n(100000),
			Delivery:   rng.Int63n(100000),
			JustEat:    rng.Int63n(100000),
			MyLocal:    rng.Int63n(100000),
			CreditCard: rng.Int63n(100000),
			Deliveroo:  rng.Int63n(100000),
			UberEats:   rng.Int63n(100000),
		}
		till := rng.Int63n(100000)

		got, err := Reconcile(ch, till)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		want := ch.Cash + ch.Online + ch.Delivery + ch.JustEat + ch.MyLocal + ch.CreditCard + ch.Deliveroo + ch.UberEats
		if got.Total != want {
			t.Fatalf("expected total %d, got %d", want, got.Total)
		}
		if got.Difference != till-ch.Cash {
			t.Fatalf("expected difference %d, got %d", till-ch.Cash, got.Difference)
		}
	}
}

func TestReconcileDifferenceSign(t *testing.T) {
	cases := []struct {
		name string
		cash int64
		till int64
		want int64
	}{
		{name: "short", cash: 100, till: 95, want: -5},
		{name: "balanced", cash: 100, till: 100, want: 0},
		{name: "over", cash: 100, till: 112, want: 12},
		{name: "no cash sales", cash: 0, till: 0, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reconcile(domain.SalesChannels{Cash: tc.cash, Online: 40, UberEats: 7}, tc.till)
			if err != nil {
				t.Fatalf("reconcile failed: %v", err)
			}
			if got.Difference != tc.want {
				t.Fatalf("expected difference %d, got %d", tc.want, got.Difference)
			}
			if got.Total != tc.cash+47 {
				t.Fatalf("expected total %d, got %d", tc.cash+47, got.Total)
			}
		})
	}
}

func TestReconcileRejectsNegativeAmounts(t *testing.T) {
	if _, err := Reconcile(domain.SalesChannels{Cash: 10, Deliveroo: -1}, 10); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative channel, got %v", err)
	}
	if _, err := Reconcile(domain.SalesChannels{Cash: 10}, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative till, got %v", err)
	}
}

func TestReconcileRejectsOverflow(t *testing.T) {
	_, err := Reconcile(domain.SalesChannels{Cash: math.MaxInt64, Online: 1}, 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount on overflow, got %v", err)
	}
}

func TestSummarizeSalesCountsShortAndOverDays(t *testing.T) {
	sales := []domain.Sale{
		{SalesChannels: domain.SalesChannels{Cash: 100, Online: 50}, Total: 150, CashInTill: 95, Difference: -5},
		{SalesChannels: domain.SalesChannels{Cash: 80}, Total: 80, CashInTill: 80, Difference: 0},
		{SalesChannels: domain.SalesChannels{Cash: 60, JustEat: 20}, Total: 80, CashInTill: 70, Difference: 10},
	}

	summary, err := SummarizeSales(sales)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Days != 3 {
		t.Fatalf("expected 3 days, got %d", summary.Days)
	}
	if summary.Total != 310 || summary.Channels.Cash != 240 || summary.Channels.JustEat != 20 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.Difference != 5 {
		t.Fatalf("expected net difference 5, got %d", summary.Difference)
	}
	if summary.ShortDays != 1 || summary.OverDays != 1 {
		t.Fatalf("expected 1 short and 1 over day, got %d/%d", summary.ShortDays, summary.OverDays)
	}
}

func TestSummarizeSalesRejectsOverflow(t *testing.T) {
	cases := map[string][]domain.Sale{
		"total": {
			{SalesChannels: domain.SalesChannels{Cash: math.MaxInt64}, Total: math.MaxInt64, CashInTill: 0, Difference: -math.MaxInt64},
			{SalesChannels: domain.SalesChannels{Online: 1}, Total: 1},
		},
		"channel": {
			{SalesChannels: domain.SalesChannels{Cash: math.MaxInt64}},
			{SalesChannels: domain.SalesChannels{Cash: 1}},
		},
		"negative difference": {
			{Difference: -math.MaxInt64},
			{Difference: -2},
		},
	}
	for name, sales := range cases {
		if _, err := SummarizeSales(sales); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%s: expected ErrInvalidAmount, got %v", name, err)
		}
	}
}
