package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateSaleRejectsDuplicateKey(t *testing.T) {
	repo := New()
	ctx := context.Background()

	first := domain.Sale{StoreID: "s1", Currency: domain.CurrencyEUR, Date: day(2024, 3, 1), Total: 100}
	if _, err := repo.CreateSale(ctx, first); err != nil {
		t.Fatalf("create first sale: %v", err)
	}

	_, err := repo.CreateSale(ctx, first)
	if !errors.Is(err, store.ErrUniqueConflict) {
		t.Fatalf("expected ErrUniqueConflict, got %v", err)
	}

	other := first
	other.Currency = domain.CurrencyGBP
	if _, err := repo.CreateSale(ctx, other); err != nil {
		t.Fatalf("expected other currency on same day to be accepted, got %v", err)
	}
}

func TestFindSaleByKeyAndUpdateReindexes(t *testing.T) {
	repo := New()
	ctx := context.Background()

	created, err := repo.CreateSale(ctx, domain.Sale{StoreID: "s1", Currency: domain.CurrencyEUR, Date: day(2024, 3, 1)})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	found, err := repo.FindSaleByKey(ctx, "s1", domain.CurrencyEUR, day(2024, 3, 1).Add(15*time.Hour))
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, found.ID)
	}

	moved := *created
	moved.Date = day(2024, 3, 2)
	if _, err := repo.UpdateSale(ctx, moved); err != nil {
		t.Fatalf("update sale: %v", err)
	}
	if _, err := repo.FindSaleByKey(ctx, "s1", domain.CurrencyEUR, day(2024, 3, 1)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected old key to be released, got %v", err)
	}
	if _, err := repo.FindSaleByKey(ctx, "s1", domain.CurrencyEUR, day(2024, 3, 2)); err != nil {
		t.Fatalf("expected new key to resolve, got %v", err)
	}
}

func TestStoreEmployeeLinkIsUnique(t *testing.T) {
	repo := New()
	ctx := context.Background()

	link := domain.StoreEmployee{StoreID: "s1", EmployeeID: "e1"}
	if _, err := repo.CreateStoreEmployee(ctx, link); err != nil {
		t.Fatalf("create link: %v", err)
	}
	if _, err := repo.CreateStoreEmployee(ctx, link); !errors.Is(err, store.ErrUniqueConflict) {
		t.Fatalf("expected ErrUniqueConflict, got %v", err)
	}

	stores, err := repo.ListEmployeeStores(ctx, "e1")
	if err != nil {
		t.Fatalf("list employee stores: %v", err)
	}
	if len(stores) != 1 || stores[0].StoreID != "s1" {
		t.Fatalf("expected one link to s1, got %+v", stores)
	}

	if err := repo.DeleteStoreEmployee(ctx, "s1", "e1"); err != nil {
		t.Fatalf("delete link: %v", err)
	}
	if err := repo.DeleteStoreEmployee(ctx, "s1", "e1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCountDependents(t *testing.T) {
	repo := New()
	ctx := context.Background()

	checkIn := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := repo.CreateAttendance(ctx, domain.Attendance{
		EmployeeID: "e1", StoreID: "s1", Currency: domain.CurrencyEUR,
		CheckIn: checkIn, CheckOut: checkIn.Add(4 * time.Hour),
	}); err != nil {
		t.Fatalf("create attendance: %v", err)
	}
	if _, err := repo.CreateExpense(ctx, domain.Expense{
		StoreID: "s1", VendorID: "v1", Currency: domain.CurrencyEUR, Status: domain.ExpenseStatusRaised, Amount: 10,
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := repo.CreateStoreDriver(ctx, domain.StoreDriver{StoreID: "s1", DriverID: "d1"}); err != nil {
		t.Fatalf("create driver link: %v", err)
	}

	cases := map[domain.EntityKind]map[string]int{
		domain.EntityStore:    {"s1": 3, "s2": 0},
		domain.EntityEmployee: {"e1": 1},
		domain.EntityVendor:   {"v1": 1},
		domain.EntityDriver:   {"d1": 1, "d2": 0},
	}
	for kind, ids := range cases {
		for id, want := range ids {
			got, err := repo.CountDependents(ctx, kind, id)
			if err != nil {
				t.Fatalf("count %s %s: %v", kind, id, err)
			}
			if got != want {
				t.Fatalf("expected %d dependents for %s %s, got %d", want, kind, id, got)
			}
		}
	}

	if _, err := repo.CountDependents(ctx, domain.EntityKind("widget"), "x"); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown kind, got %v", err)
	}
}

func TestDeleteRefusesReferencedParents(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	if err := repo.DeleteStore(ctx, "store-dublin"); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse for a linked store, got %v", err)
	}
	if _, err := repo.GetStore(ctx, "store-dublin"); err != nil {
		t.Fatalf("expected store to survive a refused delete, got %v", err)
	}
	if err := repo.DeleteEmployee(ctx, "emp-fixed"); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse for a linked employee, got %v", err)
	}

	if err := repo.DeleteStoreEmployee(ctx, "store-dublin", "emp-fixed"); err != nil {
		t.Fatalf("delete link: %v", err)
	}
	if err := repo.DeleteEmployee(ctx, "emp-fixed"); err != nil {
		t.Fatalf("expected unreferenced employee to delete, got %v", err)
	}
	if err := repo.DeleteEmployee(ctx, "emp-fixed"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListAttendanceFiltersHalfOpenRange(t *testing.T) {
	repo := New()
	ctx := context.Background()

	for _, start := range []time.Time{
		time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	} {
		if _, err := repo.CreateAttendance(ctx, domain.Attendance{
			EmployeeID: "e1", StoreID: "s1", Currency: domain.CurrencyEUR,
			CheckIn: start, CheckOut: start.Add(time.Hour),
		}); err != nil {
			t.Fatalf("create attendance: %v", err)
		}
	}

	rows, err := repo.ListAttendance(ctx, store.AttendanceFilter{
		EmployeeID: "e1",
		Range:      store.Range{From: day(2024, 2, 1), To: day(2024, 3, 1)},
	})
	if err != nil {
		t.Fatalf("list attendance: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in February, got %d", len(rows))
	}
	if !rows[0].CheckIn.Before(rows[1].CheckIn) {
		t.Fatalf("expected rows ordered by check-in")
	}
}

func TestStoreCurrenciesAreNotAliased(t *testing.T) {
	repo := New()
	ctx := context.Background()

	currencies := []domain.Currency{domain.CurrencyEUR}
	created, err := repo.CreateStore(ctx, domain.Store{Name: "Cork", SupportedCurrencies: currencies, DefaultCurrency: domain.CurrencyEUR})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	currencies[0] = domain.CurrencyGBP

	got, err := repo.GetStore(ctx, created.ID)
	if err != nil {
		t.Fatalf("get store: %v", err)
	}
	if got.SupportedCurrencies[0] != domain.CurrencyEUR {
		t.Fatalf("expected stored currencies to be isolated from caller slice, got %v", got.SupportedCurrencies)
	}
}

func TestNewSeededHasUsersAndAssignments(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(users))
	}

	links, err := repo.ListEmployeeStores(ctx, "emp-hourly")
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected hourly employee in 2 stores, got %d", len(links))
	}
}
