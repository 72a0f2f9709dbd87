package finance

import (
	"fmt"

	"retailops/backend/internal/domain"
)

// NormalizeCurrencies validates a store's currency configuration and returns
// the supported set without duplicates, in first-seen order.
func NormalizeCurrencies(supported []domain.Currency, defaultCurrency domain.Currency) ([]domain.Currency, error) {
	if len(supported) == 0 {
		return nil, fmt.Errorf("%w: store must support at least one currency", ErrInvalidCurrency)
	}

	seen := make(map[domain.Currency]struct{}, len(supported))
	out := make([]domain.Currency, 0, len(supported))
	for _, c := range supported {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, c)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	if !defaultCurrency.Valid() {
		return nil, fmt.Errorf("%w: default %q", ErrInvalidCurrency, defaultCurrency)
	}
	if _, ok := seen[defaultCurrency]; !ok {
		return nil, fmt.Errorf("%w: default %s is not in the supported set", ErrUnsupportedCurrency, defaultCurrency)
	}
	return out, nil
}

// ValidateCurrency gates a currency-carrying write against the store it is
// scoped to.
func ValidateCurrency(store domain.Store, currency domain.Currency) error {
	if !currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if !store.Supports(currency) {
		return fmt.Errorf("%w: store %s does not accept %s", ErrUnsupportedCurrency, store.ID, currency)
	}
	return nil
}

// ValidateCurrencyAny accepts currency if at least one of stores supports it.
// An empty store list only checks the enum.
func ValidateCurrencyAny(stores []domain.Store, currency domain.Currency) error {
	if !currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if len(stores) == 0 {
		return nil
	}
	for _, s := range stores {
		if s.Supports(currency) {
			return nil
		}
	}
	return fmt.Errorf("%w: no assigned store accepts %s", ErrUnsupportedCurrency, currency)
}
