package finance

import (
	"errors"
	"testing"

	"retailops/backend/internal/domain"
)

func TestNormalizeCurrencies(t *testing.T) {
	got, err := NormalizeCurrencies([]domain.Currency{domain.CurrencyGBP, domain.CurrencyEUR, domain.CurrencyGBP}, domain.CurrencyEUR)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got) != 2 || got[0] != domain.CurrencyGBP || got[1] != domain.CurrencyEUR {
		t.Fatalf("expected deduplicated [GBP EUR], got %v", got)
	}

	cases := []struct {
		name      string
		supported []domain.Currency
		def       domain.Currency
		want      error
	}{
		{name: "empty set", supported: nil, def: domain.CurrencyEUR, want: ErrInvalidCurrency},
		{name: "unknown member", supported: []domain.Currency{"USD"}, def: domain.CurrencyEUR, want: ErrInvalidCurrency},
		{name: "default outside set", supported: []domain.Currency{domain.CurrencyEUR}, def: domain.CurrencyGBP, want: ErrUnsupportedCurrency},
		{name: "unknown default", supported: []domain.Currency{domain.CurrencyEUR}, def: "", want: ErrInvalidCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeCurrencies(tc.supported, tc.def); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateCurrencyGatesByStore(t *testing.T) {
	store := domain.Store{ID: "store-eur", SupportedCurrencies: []domain.Currency{domain.CurrencyEUR}, DefaultCurrency: domain.CurrencyEUR}

	if err := ValidateCurrency(store, domain.CurrencyEUR); err != nil {
		t.Fatalf("expected EUR to be accepted, got %v", err)
	}
	if err := ValidateCurrency(store, domain.CurrencyGBP); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
	if err := ValidateCurrency(store, "JPY"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestValidateCurrencyAny(t *testing.T) {
	eur := domain.Store{ID: "a", SupportedCurrencies: []domain.Currency{domain.CurrencyEUR}}
	gbp := domain.Store{ID: "b", SupportedCurrencies: []domain.Currency{domain.CurrencyGBP}}

	if err := ValidateCurrencyAny(nil, domain.CurrencyGBP); err != nil {
		t.Fatalf("expected unassigned employee to pass enum check, got %v", err)
	}
	if err := ValidateCurrencyAny([]domain.Store{eur, gbp}, domain.CurrencyGBP); err != nil {
		t.Fatalf("expected GBP accepted by second store, got %v", err)
	}
	if err := ValidateCurrencyAny([]domain.Store{eur}, domain.CurrencyGBP); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}
