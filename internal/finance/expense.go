package finance

import (
	"fmt"

	"retailops/backend/internal/domain"
)

// MarkPaid moves an expense from RAISED to PAID. PAID is terminal.
func MarkPaid(expense domain.Expense) (domain.Expense, error) {
	switch expense.Status {
	case domain.ExpenseStatusRaised:
		expense.Status = domain.ExpenseStatusPaid
		return expense, nil
	case domain.ExpenseStatusPaid:
		return expense, fmt.Errorf("%w: %s", ErrAlreadyPaid, expense.ID)
	default:
		return expense, fmt.Errorf("%w: %q", ErrInvalidStatus, expense.Status)
	}
}

// EnsureEditable rejects changes to a settled expense.
func EnsureEditable(expense domain.Expense) error {
	switch expense.Status {
	case domain.ExpenseStatusRaised:
		return nil
	case domain.ExpenseStatusPaid:
		return fmt.Errorf("%w: %s cannot be modified", ErrAlreadyPaid, expense.ID)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, expense.Status)
	}
}
