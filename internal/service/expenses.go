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

// applyExpense validates req against its store and vendor and copies the
// editable fields onto e.
func (s *Service) applyExpense(ctx context.Context, e domain.Expense, req domain.ExpenseRequest) (domain.Expense, error) {
	if err := s.check(req); err != nil {
		return domain.Expense{}, err
	}
	if req.Amount < 0 {
		return domain.Expense{}, fmt.Errorf("%w: expense amount %d", finance.ErrInvalidAmount, req.Amount)
	}
	date, err := parseDate("expense_date", req.ExpenseDate)
	if err != nil {
		return domain.Expense{}, err
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.Expense{}, err
	}
	st, err := s.repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return domain.Expense{}, err
	}
	if _, err := s.repo.GetVendor(ctx, req.VendorID); err != nil {
		return domain.Expense{}, err
	}
	if err := finance.ValidateCurrency(*st, currency); err != nil {
		return domain.Expense{}, err
	}

	e.StoreID = st.ID
	e.VendorID = req.VendorID
	e.Currency = currency
	e.Amount = req.Amount
	e.Description = strings.TrimSpace(req.Description)
	e.ExpenseDate = date
	return e, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseRequest) (domain.Expense, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.Expense{}, err
	}
	e, err := s.applyExpense(ctx, domain.Expense{Status: domain.ExpenseStatusRaised}, req)
	if err != nil {
		return domain.Expense{}, err
	}

	created, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return domain.Expense{}, err
	}
	s.logWrite(ctx, "create", "expense", created.ID, logrus.Fields{"amount": created.Amount, "currency": created.Currency})
	return *created, nil
}

// UpdateExpense edits a RAISED expense. Settled expenses are immutable.
func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseRequest) (domain.Expense, error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.Expense{}, err
	}

	var updated *domain.Expense
	err := s.withLock(ctx, "expense:"+id, func() error {
		existing, err := s.repo.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		if err := finance.EnsureEditable(*existing); err != nil {
			return err
		}
		e, err := s.applyExpense(ctx, *existing, req)
		if err != nil {
			return err
		}
		updated, err = s.repo.UpdateExpense(ctx, e)
		return err
	})
	if err != nil {
		return domain.Expense{}, err
	}
	s.logWrite(ctx, "update", "expense", updated.ID, nil)
	return *updated, nil
}

// PayExpense settles an expense. With idempotent set, paying an already PAID
// expense returns it unchanged; otherwise it fails with ErrAlreadyPaid.
func (s *Service) PayExpense(ctx context.Context, id string, req domain.ExpensePayRequest) (domain.Expense, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Expense{}, err
	}

	var (
		result  domain.Expense
		changed bool
	)
	err := s.withLock(ctx, "expense:"+id, func() error {
		existing, err := s.repo.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		paid, err := finance.MarkPaid(*existing)
		if errors.Is(err, finance.ErrAlreadyPaid) && req.Idempotent {
			result = *existing
			return nil
		}
		if err != nil {
			return err
		}
		updated, err := s.repo.UpdateExpense(ctx, paid)
		if err != nil {
			return err
		}
		result, changed = *updated, true
		return nil
	})
	if err != nil {
		return domain.Expense{}, err
	}
	if changed {
		s.logWrite(ctx, "pay", "expense", result.ID, logrus.Fields{"amount": result.Amount, "currency": result.Currency})
	}
	return result, nil
}

func (s *Service) GetExpense(ctx context.Context, id string) (domain.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return domain.Expense{}, err
	}
	return *e, nil
}

func (s *Service) ListExpenses(ctx context.Context, f store.ExpenseFilter, from string, to string) ([]domain.Expense, error) {
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
	if f.Status != "" {
		f.Status = domain.ExpenseStatus(strings.ToUpper(string(f.Status)))
		if !f.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", finance.ErrInvalidStatus, f.Status)
		}
	}
	return s.repo.ListExpenses(ctx, f)
}
