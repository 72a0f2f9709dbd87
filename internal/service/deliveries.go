package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/store"
)

func (s *Service) buildDelivery(ctx context.Context, d domain.Delivery, req domain.DeliveryRequest) (domain.Delivery, error) {
	if err := s.check(req); err != nil {
		return domain.Delivery{}, err
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.Delivery{}, err
	}
	drv, err := s.repo.GetDriver(ctx, req.DriverID)
	if err != nil {
		return domain.Delivery{}, err
	}
	st, err := s.repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if err := finance.ValidateCurrency(*st, currency); err != nil {
		return domain.Delivery{}, err
	}
	hours, err := finance.ValidateDelivery(req.CheckIn, req.CheckOut, req.NumberOfDeliveries, req.ExpenseAmount)
	if err != nil {
		return domain.Delivery{}, err
	}

	date := finance.DateOf(req.CheckIn)
	if strings.TrimSpace(req.DeliveryDate) != "" {
		if date, err = parseDate("delivery_date", req.DeliveryDate); err != nil {
			return domain.Delivery{}, err
		}
	}

	d.DriverID = drv.ID
	d.StoreID = st.ID
	d.DeliveryDate = date
	d.CheckIn = req.CheckIn.UTC()
	d.CheckOut = req.CheckOut.UTC()
	d.HoursWorked = hours
	d.NumberOfDeliveries = req.NumberOfDeliveries
	d.Currency = currency
	d.ExpenseAmount = req.ExpenseAmount
	d.Notes = strings.TrimSpace(req.Notes)
	return d, nil
}

func (s *Service) RecordDelivery(ctx context.Context, req domain.DeliveryRequest) (domain.Delivery, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.Delivery{}, err
	}
	d, err := s.buildDelivery(ctx, domain.Delivery{}, req)
	if err != nil {
		return domain.Delivery{}, err
	}

	created, err := s.repo.CreateDelivery(ctx, d)
	if err != nil {
		return domain.Delivery{}, err
	}
	s.logWrite(ctx, "create", "delivery", created.ID, logrus.Fields{
		"driver_id":  created.DriverID,
		"deliveries": created.NumberOfDeliveries,
	})
	return *created, nil
}

func (s *Service) UpdateDelivery(ctx context.Context, id string, req domain.DeliveryRequest) (domain.Delivery, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.Delivery{}, err
	}
	existing, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return domain.Delivery{}, err
	}
	d, err := s.buildDelivery(ctx, *existing, req)
	if err != nil {
		return domain.Delivery{}, err
	}

	updated, err := s.repo.UpdateDelivery(ctx, d)
	if err != nil {
		return domain.Delivery{}, err
	}
	s.logWrite(ctx, "update", "delivery", updated.ID, nil)
	return *updated, nil
}

func (s *Service) GetDelivery(ctx context.Context, id string) (domain.Delivery, error) {
	d, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return domain.Delivery{}, err
	}
	return *d, nil
}

func (s *Service) ListDeliveries(ctx context.Context, f store.DeliveryFilter, from string, to string) ([]domain.Delivery, error) {
	r, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	f.Range = r
	if f.Currency != "" {
		if f.Currency, err = parseCurrency(f.Currency); err != nil {
			return nil, err
		}
	}
	return s.repo.ListDeliveries(ctx, f)
}

// DriverSummary totals a driver's shifts in one currency over an inclusive
// date range.
func (s *Service) DriverSummary(ctx context.Context, driverID string, currency string, from string, to string) (domain.DriverSummary, error) {
	c, err := parseCurrency(domain.Currency(currency))
	if err != nil {
		return domain.DriverSummary{}, err
	}
	fromDate, err := parseDate("from", from)
	if err != nil {
		return domain.DriverSummary{}, err
	}
	toDate, err := parseDate("to", to)
	if err != nil {
		return domain.DriverSummary{}, err
	}
	period, err := finance.PeriodFromDates(fromDate, toDate)
	if err != nil {
		return domain.DriverSummary{}, err
	}
	if _, err := s.repo.GetDriver(ctx, driverID); err != nil {
		return domain.DriverSummary{}, err
	}

	deliveries, err := s.repo.ListDeliveries(ctx, store.DeliveryFilter{
		DriverID: driverID,
		Currency: c,
		Range:    store.Range{From: period.From, To: period.To},
	})
	if err != nil {
		return domain.DriverSummary{}, err
	}

	summary := finance.SummarizeDeliveries(deliveries)
	summary.DriverID = driverID
	summary.Currency = c
	summary.From = fromDate.Format(domain.DateLayout)
	summary.To = toDate.Format(domain.DateLayout)
	return summary, nil
}
