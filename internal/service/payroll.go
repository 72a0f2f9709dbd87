package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/cache"
	"retailops/backend/internal/domain"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/store"
)

// gatePaymentCurrency checks a payment's currency. Payments carry no store:
// a named store must have the employee assigned and accept the currency,
// otherwise any store the employee is assigned to must accept it. Unassigned
// employees only get the enum check.
func (s *Service) gatePaymentCurrency(ctx context.Context, employeeID string, storeID string, currency domain.Currency) error {
	if storeID != "" {
		st, err := s.repo.GetStore(ctx, storeID)
		if err != nil {
			return err
		}
		if _, err := s.repo.FindStoreEmployee(ctx, storeID, employeeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: employee %s is not assigned to store %s", store.ErrInvalid, employeeID, storeID)
			}
			return err
		}
		return finance.ValidateCurrency(*st, currency)
	}

	links, err := s.repo.ListEmployeeStores(ctx, employeeID)
	if err != nil {
		return err
	}
	stores := make([]domain.Store, 0, len(links))
	for _, link := range links {
		st, err := s.repo.GetStore(ctx, link.StoreID)
		if err != nil {
			return err
		}
		stores = append(stores, *st)
	}
	return finance.ValidateCurrencyAny(stores, currency)
}

func (s *Service) RecordPayment(ctx context.Context, req domain.PaymentRequest) (domain.Payment, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Payment{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Payment{}, err
	}
	if req.AmountPaid < 0 {
		return domain.Payment{}, fmt.Errorf("%w: payment amount %d", finance.ErrInvalidAmount, req.AmountPaid)
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.PaymentMethod))))
	if !method.Valid() {
		return domain.Payment{}, fmt.Errorf("%w: payment method %q", store.ErrInvalid, req.PaymentMethod)
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.Payment{}, err
	}
	paidDate, err := parseDate("paid_date", req.PaidDate)
	if err != nil {
		return domain.Payment{}, err
	}
	emp, err := s.repo.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.gatePaymentCurrency(ctx, emp.ID, req.StoreID, currency); err != nil {
		return domain.Payment{}, err
	}

	created, err := s.repo.CreatePayment(ctx, domain.Payment{
		EmployeeID:    emp.ID,
		AmountPaid:    req.AmountPaid,
		Currency:      currency,
		PaymentMethod: method,
		PaidDate:      paidDate,
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.Payment{}, err
	}
	s.invalidatePayroll(ctx, created.EmployeeID)
	s.logWrite(ctx, "create", "payment", created.ID, logrus.Fields{
		"employee_id": created.EmployeeID,
		"amount_paid": created.AmountPaid,
		"currency":    created.Currency,
	})
	return *created, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	return *p, nil
}

func (s *Service) ListPayments(ctx context.Context, f store.PaymentFilter, from string, to string) ([]domain.Payment, error) {
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
	return s.repo.ListPayments(ctx, f)
}

// payrollQuery is a parsed payroll request over an inclusive date range.
type payrollQuery struct {
	currency domain.Currency
	from     string
	to       string
	period   finance.Period
}

func parsePayrollQuery(currency string, from string, to string) (payrollQuery, error) {
	c, err := parseCurrency(domain.Currency(currency))
	if err != nil {
		return payrollQuery{}, err
	}
	fromDate, err := parseDate("from", from)
	if err != nil {
		return payrollQuery{}, err
	}
	toDate, err := parseDate("to", to)
	if err != nil {
		return payrollQuery{}, err
	}
	period, err := finance.PeriodFromDates(fromDate, toDate)
	if err != nil {
		return payrollQuery{}, err
	}
	return payrollQuery{
		currency: c,
		from:     fromDate.Format(domain.DateLayout),
		to:       toDate.Format(domain.DateLayout),
		period:   period,
	}, nil
}

// PayrollSummary reports what an employee earned and was paid in one
// currency between from and to, both inclusive.
func (s *Service) PayrollSummary(ctx context.Context, employeeID string, currency string, from string, to string) (domain.PayrollSummary, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.PayrollSummary{}, err
	}
	q, err := parsePayrollQuery(currency, from, to)
	if err != nil {
		return domain.PayrollSummary{}, err
	}
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return domain.PayrollSummary{}, err
	}
	return s.summarizeEmployee(ctx, *emp, q)
}

func (s *Service) summarizeEmployee(ctx context.Context, emp domain.Employee, q payrollQuery) (domain.PayrollSummary, error) {
	log := s.logger.WithFields(logrus.Fields{"module": "service", "employee_id": emp.ID})

	version, err := s.payroll.Version(ctx, emp.ID)
	cacheable := err == nil
	if err != nil {
		log.WithError(err).Warn("payroll cache version unavailable")
	}
	key := cache.PayrollKey(emp.ID, version, q.currency, q.from, q.to)
	if cacheable {
		if cached, ok, err := s.payroll.Get(ctx, key); err != nil {
			log.WithError(err).Warn("payroll cache read failed")
		} else if ok {
			return *cached, nil
		}
	}

	r := store.Range{From: q.period.From, To: q.period.To}
	attendance, err := s.repo.ListAttendance(ctx, store.AttendanceFilter{EmployeeID: emp.ID, Currency: q.currency, Range: r})
	if err != nil {
		return domain.PayrollSummary{}, err
	}
	payments, err := s.repo.ListPayments(ctx, store.PaymentFilter{EmployeeID: emp.ID, Currency: q.currency, Range: r})
	if err != nil {
		return domain.PayrollSummary{}, err
	}

	totals, err := finance.Summarize(finance.PayrollInput{
		Employee:   emp,
		Currency:   q.currency,
		Period:     q.period,
		Attendance: attendance,
		Payments:   payments,
	})
	if err != nil {
		return domain.PayrollSummary{}, err
	}

	summary := domain.PayrollSummary{
		EmployeeID:    emp.ID,
		EmployeeName:  emp.Name,
		WageType:      emp.WageType,
		Currency:      q.currency,
		From:          q.from,
		To:            q.to,
		PayrollTotals: totals,
	}
	if cacheable {
		if err := s.payroll.Set(ctx, key, &summary, s.payrollTTL); err != nil {
			log.WithError(err).Warn("payroll cache write failed")
		}
	}
	return summary, nil
}

// PayrollRun summarizes every employee, or only those assigned to storeID.
// Each summary covers the employee's rows across all stores.
func (s *Service) PayrollRun(ctx context.Context, currency string, from string, to string, storeID string) (domain.PayrollRunResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.PayrollRunResponse{}, err
	}
	q, err := parsePayrollQuery(currency, from, to)
	if err != nil {
		return domain.PayrollRunResponse{}, err
	}

	var employees []domain.Employee
	if storeID == "" {
		if employees, err = s.repo.ListEmployees(ctx); err != nil {
			return domain.PayrollRunResponse{}, err
		}
	} else {
		links, err := s.ListStoreEmployees(ctx, storeID)
		if err != nil {
			return domain.PayrollRunResponse{}, err
		}
		for _, link := range links {
			emp, err := s.repo.GetEmployee(ctx, link.EmployeeID)
			if err != nil {
				return domain.PayrollRunResponse{}, err
			}
			employees = append(employees, *emp)
		}
	}

	resp := domain.PayrollRunResponse{
		Currency:  q.currency,
		StoreID:   storeID,
		From:      q.from,
		To:        q.to,
		Summaries: make([]domain.PayrollSummary, 0, len(employees)),
	}
	for _, emp := range employees {
		summary, err := s.summarizeEmployee(ctx, emp, q)
		if err != nil {
			return domain.PayrollRunResponse{}, fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		resp.Summaries = append(resp.Summaries, summary)
		resp.TotalEarned += summary.Earned
		resp.TotalPaid += summary.Paid
		resp.TotalBalance += summary.Balance
	}
	slices.SortFunc(resp.Summaries, func(a, b domain.PayrollSummary) int {
		return cmp.Or(cmp.Compare(a.EmployeeName, b.EmployeeName), cmp.Compare(a.EmployeeID, b.EmployeeID))
	})
	return resp, nil
}
