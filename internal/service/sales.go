package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/store"
)

func saleLockKey(storeID string, currency domain.Currency, date string) string {
	return fmt.Sprintf("sale:%s:%s:%s", storeID, currency, date)
}

// RecordSales reconciles one day's takings for a store and currency. The
// first call for a (store, currency, date) creates the sale; later calls
// correct it in place.
func (s *Service) RecordSales(ctx context.Context, req domain.SalesRequest) (domain.SalesResponse, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.SalesResponse{}, err
	}
	if err := s.check(req); err != nil {
		return domain.SalesResponse{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return domain.SalesResponse{}, err
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.SalesResponse{}, err
	}
	st, err := s.repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return domain.SalesResponse{}, err
	}
	if err := finance.ValidateCurrency(*st, currency); err != nil {
		return domain.SalesResponse{}, err
	}
	rec, err := finance.Reconcile(req.SalesChannels, req.CashInTill)
	if err != nil {
		return domain.SalesResponse{}, err
	}

	sale := domain.Sale{
		StoreID:       st.ID,
		Date:          date,
		Currency:      currency,
		SalesChannels: req.SalesChannels,
		Total:         rec.Total,
		CashInTill:    req.CashInTill,
		Difference:    rec.Difference,
		Notes:         strings.TrimSpace(req.Notes),
	}

	var resp domain.SalesResponse
	key := saleLockKey(st.ID, currency, date.Format(domain.DateLayout))
	err = s.withLock(ctx, key, func() error {
		existing, err := s.repo.FindSaleByKey(ctx, st.ID, currency, date)
		switch {
		case err == nil:
			updated, err := s.overwriteSale(ctx, *existing, sale)
			if err != nil {
				return err
			}
			resp = domain.SalesResponse{Sale: *updated}
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		created, err := s.repo.CreateSale(ctx, sale)
		if errors.Is(err, store.ErrUniqueConflict) {
			// Another writer created the key between lookup and insert.
			existing, findErr := s.repo.FindSaleByKey(ctx, st.ID, currency, date)
			if findErr != nil {
				return findErr
			}
			updated, err := s.overwriteSale(ctx, *existing, sale)
			if err != nil {
				return err
			}
			resp = domain.SalesResponse{Sale: *updated}
			return nil
		}
		if err != nil {
			return err
		}
		resp = domain.SalesResponse{Sale: *created, Created: true}
		return nil
	})
	if err != nil {
		return domain.SalesResponse{}, err
	}

	action := "update"
	if resp.Created {
		action = "create"
	}
	s.logWrite(ctx, action, "sale", resp.Sale.ID, logrus.Fields{
		"store_id":   resp.Sale.StoreID,
		"currency":   resp.Sale.Currency,
		"date":       date.Format(domain.DateLayout),
		"total":      resp.Sale.Total,
		"difference": resp.Sale.Difference,
	})
	return resp, nil
}

func (s *Service) overwriteSale(ctx context.Context, existing domain.Sale, next domain.Sale) (*domain.Sale, error) {
	next.ID = existing.ID
	next.CreatedAt = existing.CreatedAt
	return s.repo.UpdateSale(ctx, next)
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, storeID string, currency string, from string, to string, limit int) ([]domain.Sale, error) {
	r, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	f := store.SaleFilter{StoreID: storeID, Range: r, Limit: limit}
	if currency != "" {
		c, err := parseCurrency(domain.Currency(currency))
		if err != nil {
			return nil, err
		}
		f.Currency = c
	}
	return s.repo.ListSales(ctx, f)
}

// SalesSummary aggregates reconciled sales over an inclusive date range in
// one currency, optionally for a single store.
func (s *Service) SalesSummary(ctx context.Context, storeID string, currency string, from string, to string) (domain.SalesSummary, error) {
	c, err := parseCurrency(domain.Currency(currency))
	if err != nil {
		return domain.SalesSummary{}, err
	}
	fromDate, err := parseDate("from", from)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	toDate, err := parseDate("to", to)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	period, err := finance.PeriodFromDates(fromDate, toDate)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	if storeID != "" {
		if _, err := s.repo.GetStore(ctx, storeID); err != nil {
			return domain.SalesSummary{}, err
		}
	}

	sales, err := s.repo.ListSales(ctx, store.SaleFilter{
		StoreID:  storeID,
		Currency: c,
		Range:    store.Range{From: period.From, To: period.To},
	})
	if err != nil {
		return domain.SalesSummary{}, err
	}

	summary, err := finance.SummarizeSales(sales)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	summary.StoreID = storeID
	summary.Currency = c
	summary.From = fromDate.Format(domain.DateLayout)
	summary.To = toDate.Format(domain.DateLayout)
	return summary, nil
}
