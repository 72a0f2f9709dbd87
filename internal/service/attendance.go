package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/store"
)

// buildAttendance resolves the employee and store of req and derives hours
// and pay. Derived fields are never taken from the caller.
func (s *Service) buildAttendance(ctx context.Context, a domain.Attendance, req domain.AttendanceRequest) (domain.Attendance, error) {
	if err := s.check(req); err != nil {
		return domain.Attendance{}, err
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.Attendance{}, err
	}
	emp, err := s.repo.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return domain.Attendance{}, err
	}
	st, err := s.repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return domain.Attendance{}, err
	}
	if err := finance.ValidateCurrency(*st, currency); err != nil {
		return domain.Attendance{}, err
	}
	hours, err := finance.ComputeHours(req.CheckIn, req.CheckOut)
	if err != nil {
		return domain.Attendance{}, err
	}
	amount, err := s.wages.AmountToPay(*emp, currency, hours)
	if err != nil {
		return domain.Attendance{}, err
	}

	a.EmployeeID = emp.ID
	a.StoreID = st.ID
	a.CheckIn = req.CheckIn.UTC()
	a.CheckOut = req.CheckOut.UTC()
	a.HoursWorked = hours
	a.Currency = currency
	a.AmountToPay = amount
	a.WageType = emp.WageType
	a.Notes = strings.TrimSpace(req.Notes)
	return a, nil
}

func (s *Service) RecordAttendance(ctx context.Context, req domain.AttendanceRequest) (domain.Attendance, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.Attendance{}, err
	}
	a, err := s.buildAttendance(ctx, domain.Attendance{}, req)
	if err != nil {
		return domain.Attendance{}, err
	}

	created, err := s.repo.CreateAttendance(ctx, a)
	if err != nil {
		return domain.Attendance{}, err
	}
	s.invalidatePayroll(ctx, created.EmployeeID)
	s.logWrite(ctx, "create", "attendance", created.ID, logrus.Fields{
		"employee_id":   created.EmployeeID,
		"hours_worked":  created.HoursWorked.String(),
		"amount_to_pay": created.AmountToPay,
	})
	return *created, nil
}

// UpdateAttendance replaces the source fields of a row and recomputes hours
// and pay from the employee's current wage configuration.
func (s *Service) UpdateAttendance(ctx context.Context, id string, req domain.AttendanceRequest) (domain.Attendance, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.Attendance{}, err
	}
	existing, err := s.repo.GetAttendance(ctx, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	a, err := s.buildAttendance(ctx, *existing, req)
	if err != nil {
		return domain.Attendance{}, err
	}

	updated, err := s.repo.UpdateAttendance(ctx, a)
	if err != nil {
		return domain.Attendance{}, err
	}
	s.invalidatePayroll(ctx, existing.EmployeeID, updated.EmployeeID)
	s.logWrite(ctx, "update", "attendance", updated.ID, logrus.Fields{
		"employee_id":   updated.EmployeeID,
		"hours_worked":  updated.HoursWorked.String(),
		"amount_to_pay": updated.AmountToPay,
	})
	return *updated, nil
}

func (s *Service) GetAttendance(ctx context.Context, id string) (domain.Attendance, error) {
	a, err := s.repo.GetAttendance(ctx, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	return *a, nil
}

func (s *Service) ListAttendance(ctx context.Context, f store.AttendanceFilter, from string, to string) ([]domain.Attendance, error) {
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
	return s.repo.ListAttendance(ctx, f)
}
