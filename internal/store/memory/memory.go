package memory

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/store"
	"retailops/backend/internal/xid"
)

// Store is an in-process Repository. It enforces the same unique keys as the
// postgres schema so service code sees identical conflict behaviour.
type Store struct {
	mu              sync.RWMutex
	stores          map[string]domain.Store
	employees       map[string]domain.Employee
	drivers         map[string]domain.Driver
	vendors         map[string]domain.Vendor
	storeEmployees  map[string]domain.StoreEmployee
	storeDrivers    map[string]domain.StoreDriver
	sales           map[string]domain.Sale
	saleIDByKey     map[string]string
	expenses        map[string]domain.Expense
	attendance      map[string]domain.Attendance
	deliveries      map[string]domain.Delivery
	payments        map[string]domain.Payment
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		stores:          make(map[string]domain.Store),
		employees:       make(map[string]domain.Employee),
		drivers:         make(map[string]domain.Driver),
		vendors:         make(map[string]domain.Vendor),
		storeEmployees:  make(map[string]domain.StoreEmployee),
		storeDrivers:    make(map[string]domain.StoreDriver),
		sales:           make(map[string]domain.Sale),
		saleIDByKey:     make(map[string]string),
		expenses:        make(map[string]domain.Expense),
		attendance:      make(map[string]domain.Attendance),
		deliveries:      make(map[string]domain.Delivery),
		payments:        make(map[string]domain.Payment),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_USER_PASSWORD; if
// unset, dev defaults are used with a warning. The postgres store never
// seeds credentials.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	userPwd := envOr("SEED_USER_PASSWORD", "user12345")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_USER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_USER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     domain.UserRole
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"staff", userPwd, domain.RoleUser},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with dev users, one EUR store, one GBP store and
// one employee of each wage type assigned to them.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()

	now := time.Now().UTC()
	for _, st := range []domain.Store{
		{ID: "store-dublin", Name: "Dublin", SupportedCurrencies: []domain.Currency{domain.CurrencyEUR}, DefaultCurrency: domain.CurrencyEUR},
		{ID: "store-belfast", Name: "Belfast", SupportedCurrencies: []domain.Currency{domain.CurrencyGBP, domain.CurrencyEUR}, DefaultCurrency: domain.CurrencyGBP},
	} {
		st.CreatedAt, st.UpdatedAt = now, now
		s.stores[st.ID] = st
	}

	for _, emp := range []domain.Employee{
		{ID: "emp-hourly", Name: "Aoife Byrne", WageType: domain.WageTypeHourly,
			HourlyRateEUR: decimal.NewNullDecimal(decimal.RequireFromString("13.50")),
			HourlyRateGBP: decimal.NewNullDecimal(decimal.RequireFromString("11.90"))},
		{ID: "emp-fixed", Name: "Ciaran Walsh", WageType: domain.WageTypeFixed,
			WeeklyWageEUR: decimal.NewNullDecimal(decimal.RequireFromString("520"))},
	} {
		emp.CreatedAt, emp.UpdatedAt = now, now
		s.employees[emp.ID] = emp
	}

	for _, link := range []domain.StoreEmployee{
		{ID: "se-1", StoreID: "store-dublin", EmployeeID: "emp-hourly", AssignedAt: now},
		{ID: "se-2", StoreID: "store-belfast", EmployeeID: "emp-hourly", AssignedAt: now},
		{ID: "se-3", StoreID: "store-dublin", EmployeeID: "emp-fixed", AssignedAt: now},
	} {
		s.storeEmployees[pairKey(link.StoreID, link.EmployeeID)] = link
	}

	return s
}

func pairKey(a string, b string) string {
	return a + "|" + b
}

func saleKey(storeID string, currency domain.Currency, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", storeID, currency, date.UTC().Format(domain.DateLayout))
}

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func limited[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func cloneStore(s domain.Store) domain.Store {
	s.SupportedCurrencies = slices.Clone(s.SupportedCurrencies)
	return s
}

// --- stores ---

func (s *Store) CreateStore(_ context.Context, st domain.Store) (*domain.Store, error) {
	if st.Name == "" || len(st.SupportedCurrencies) == 0 {
		return nil, store.ErrInvalid
	}
	if st.ID == "" {
		st.ID = xid.New("store")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[st.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&st.CreatedAt, &st.UpdatedAt)
	st = cloneStore(st)
	s.stores[st.ID] = st

	out := cloneStore(st)
	return &out, nil
}

func (s *Store) GetStore(_ context.Context, id string) (*domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneStore(st)
	return &out, nil
}

func (s *Store) UpdateStore(_ context.Context, st domain.Store) (*domain.Store, error) {
	if st.Name == "" || len(st.SupportedCurrencies) == 0 {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.stores[st.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	st.CreatedAt = existing.CreatedAt
	stamp(&st.CreatedAt, &st.UpdatedAt)
	st = cloneStore(st)
	s.stores[st.ID] = st

	out := cloneStore(st)
	return &out, nil
}

func (s *Store) DeleteStore(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteParentLocked(s, s.stores, domain.EntityStore, id)
}

func (s *Store) ListStores(_ context.Context) ([]domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, cloneStore(st))
	}
	slices.SortFunc(out, func(a, b domain.Store) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// --- employees ---

func (s *Store) CreateEmployee(_ context.Context, e domain.Employee) (*domain.Employee, error) {
	if e.Name == "" || !e.WageType.Valid() {
		return nil, store.ErrInvalid
	}
	if e.ID == "" {
		e.ID = xid.New("emp")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[e.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.employees[e.ID] = e
	return &e, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e domain.Employee) (*domain.Employee, error) {
	if e.Name == "" || !e.WageType.Valid() {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.employees[e.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.employees[e.ID] = e
	return &e, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteParentLocked(s, s.employees, domain.EntityEmployee, id)
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b domain.Employee) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// --- drivers ---

func (s *Store) CreateDriver(_ context.Context, d domain.Driver) (*domain.Driver, error) {
	if d.Name == "" {
		return nil, store.ErrInvalid
	}
	if d.ID == "" {
		d.ID = xid.New("drv")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drivers[d.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.drivers[d.ID] = d
	return &d, nil
}

func (s *Store) GetDriver(_ context.Context, id string) (*domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drivers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *Store) UpdateDriver(_ context.Context, d domain.Driver) (*domain.Driver, error) {
	if d.Name == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.drivers[d.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	d.CreatedAt = existing.CreatedAt
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.drivers[d.ID] = d
	return &d, nil
}

func (s *Store) DeleteDriver(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteParentLocked(s, s.drivers, domain.EntityDriver, id)
}

func (s *Store) ListDrivers(_ context.Context) ([]domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Driver) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// --- vendors ---

func (s *Store) CreateVendor(_ context.Context, v domain.Vendor) (*domain.Vendor, error) {
	if v.Name == "" {
		return nil, store.ErrInvalid
	}
	if v.ID == "" {
		v.ID = xid.New("vnd")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vendors[v.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&v.CreatedAt, &v.UpdatedAt)
	s.vendors[v.ID] = v
	return &v, nil
}

func (s *Store) GetVendor(_ context.Context, id string) (*domain.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (s *Store) UpdateVendor(_ context.Context, v domain.Vendor) (*domain.Vendor, error) {
	if v.Name == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.vendors[v.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	stamp(&v.CreatedAt, &v.UpdatedAt)
	s.vendors[v.ID] = v
	return &v, nil
}

func (s *Store) DeleteVendor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteParentLocked(s, s.vendors, domain.EntityVendor, id)
}

func (s *Store) ListVendors(_ context.Context) ([]domain.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b domain.Vendor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// --- assignments ---

func (s *Store) CreateStoreEmployee(_ context.Context, link domain.StoreEmployee) (*domain.StoreEmployee, error) {
	if link.StoreID == "" || link.EmployeeID == "" {
		return nil, store.ErrInvalid
	}
	if link.ID == "" {
		link.ID = xid.New("se")
	}
	if link.AssignedAt.IsZero() {
		link.AssignedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(link.StoreID, link.EmployeeID)
	if _, exists := s.storeEmployees[key]; exists {
		return nil, store.ErrUniqueConflict
	}
	s.storeEmployees[key] = link
	return &link, nil
}

func (s *Store) FindStoreEmployee(_ context.Context, storeID string, employeeID string) (*domain.StoreEmployee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.storeEmployees[pairKey(storeID, employeeID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &link, nil
}

func (s *Store) ListStoreEmployees(_ context.Context, storeID string) ([]domain.StoreEmployee, error) {
	return s.filterStoreEmployees(func(l domain.StoreEmployee) bool { return l.StoreID == storeID }), nil
}

func (s *Store) ListEmployeeStores(_ context.Context, employeeID string) ([]domain.StoreEmployee, error) {
	return s.filterStoreEmployees(func(l domain.StoreEmployee) bool { return l.EmployeeID == employeeID }), nil
}

func (s *Store) filterStoreEmployees(keep func(domain.StoreEmployee) bool) []domain.StoreEmployee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoreEmployee, 0)
	for _, link := range s.storeEmployees {
		if keep(link) {
			out = append(out, link)
		}
	}
	slices.SortFunc(out, func(a, b domain.StoreEmployee) int {
		return cmp.Or(a.AssignedAt.Compare(b.AssignedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (s *Store) DeleteStoreEmployee(_ context.Context, storeID string, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(storeID, employeeID)
	if _, ok := s.storeEmployees[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.storeEmployees, key)
	return nil
}

func (s *Store) CreateStoreDriver(_ context.Context, link domain.StoreDriver) (*domain.StoreDriver, error) {
	if link.StoreID == "" || link.DriverID == "" {
		return nil, store.ErrInvalid
	}
	if link.ID == "" {
		link.ID = xid.New("sd")
	}
	if link.AssignedAt.IsZero() {
		link.AssignedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(link.StoreID, link.DriverID)
	if _, exists := s.storeDrivers[key]; exists {
		return nil, store.ErrUniqueConflict
	}
	s.storeDrivers[key] = link
	return &link, nil
}

func (s *Store) FindStoreDriver(_ context.Context, storeID string, driverID string) (*domain.StoreDriver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.storeDrivers[pairKey(storeID, driverID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &link, nil
}

func (s *Store) ListStoreDrivers(_ context.Context, storeID string) ([]domain.StoreDriver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoreDriver, 0)
	for _, link := range s.storeDrivers {
		if link.StoreID == storeID {
			out = append(out, link)
		}
	}
	slices.SortFunc(out, func(a, b domain.StoreDriver) int {
		return cmp.Or(a.AssignedAt.Compare(b.AssignedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) DeleteStoreDriver(_ context.Context, storeID string, driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(storeID, driverID)
	if _, ok := s.storeDrivers[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.storeDrivers, key)
	return nil
}

// --- sales ---

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.StoreID == "" || !sale.Currency.Valid() || sale.Date.IsZero() {
		return nil, store.ErrInvalid
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := saleKey(sale.StoreID, sale.Currency, sale.Date)
	if _, taken := s.saleIDByKey[key]; taken {
		return nil, store.ErrUniqueConflict
	}
	stamp(&sale.CreatedAt, &sale.UpdatedAt)
	s.sales[sale.ID] = sale
	s.saleIDByKey[key] = sale.ID
	return &sale, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.StoreID == "" || !sale.Currency.Valid() || sale.Date.IsZero() {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sales[sale.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	oldKey := saleKey(existing.StoreID, existing.Currency, existing.Date)
	newKey := saleKey(sale.StoreID, sale.Currency, sale.Date)
	if oldKey != newKey {
		if _, taken := s.saleIDByKey[newKey]; taken {
			return nil, store.ErrUniqueConflict
		}
		delete(s.saleIDByKey, oldKey)
		s.saleIDByKey[newKey] = sale.ID
	}

	sale.CreatedAt = existing.CreatedAt
	stamp(&sale.CreatedAt, &sale.UpdatedAt)
	s.sales[sale.ID] = sale
	return &sale, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

func (s *Store) FindSaleByKey(_ context.Context, storeID string, currency domain.Currency, date time.Time) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.saleIDByKey[saleKey(storeID, currency, date)]
	if !ok {
		return nil, store.ErrNotFound
	}
	sale := s.sales[id]
	return &sale, nil
}

func (s *Store) ListSales(_ context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0)
	for _, sale := range s.sales {
		if filter.StoreID != "" && sale.StoreID != filter.StoreID {
			continue
		}
		if filter.Currency != "" && sale.Currency != filter.Currency {
			continue
		}
		if !filter.Range.Contains(sale.Date) {
			continue
		}
		out = append(out, sale)
	}
	slices.SortFunc(out, func(a, b domain.Sale) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.StoreID, b.StoreID), cmp.Compare(a.Currency, b.Currency))
	})
	return limited(out, filter.Limit), nil
}

// --- expenses ---

func (s *Store) CreateExpense(_ context.Context, e domain.Expense) (*domain.Expense, error) {
	if e.StoreID == "" || e.VendorID == "" || !e.Currency.Valid() || !e.Status.Valid() {
		return nil, store.ErrInvalid
	}
	if e.ID == "" {
		e.ID = xid.New("exp")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[e.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.expenses[e.ID] = e
	return &e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e domain.Expense) (*domain.Expense, error) {
	if e.StoreID == "" || e.VendorID == "" || !e.Currency.Valid() || !e.Status.Valid() {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[e.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	stamp(&e.CreatedAt, &e.UpdatedAt)
	s.expenses[e.ID] = e
	return &e, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (s *Store) ListExpenses(_ context.Context, filter store.ExpenseFilter) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0)
	for _, e := range s.expenses {
		if filter.StoreID != "" && e.StoreID != filter.StoreID {
			continue
		}
		if filter.VendorID != "" && e.VendorID != filter.VendorID {
			continue
		}
		if filter.Currency != "" && e.Currency != filter.Currency {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if !filter.Range.Contains(e.ExpenseDate) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b domain.Expense) int {
		return cmp.Or(a.ExpenseDate.Compare(b.ExpenseDate), a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return limited(out, filter.Limit), nil
}

// --- attendance ---

func (s *Store) CreateAttendance(_ context.Context, a domain.Attendance) (*domain.Attendance, error) {
	if a.EmployeeID == "" || a.StoreID == "" || !a.Currency.Valid() || !a.CheckOut.After(a.CheckIn) {
		return nil, store.ErrInvalid
	}
	if a.ID == "" {
		a.ID = xid.New("att")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.attendance[a.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	s.attendance[a.ID] = a
	return &a, nil
}

func (s *Store) UpdateAttendance(_ context.Context, a domain.Attendance) (*domain.Attendance, error) {
	if a.EmployeeID == "" || a.StoreID == "" || !a.Currency.Valid() || !a.CheckOut.After(a.CheckIn) {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.attendance[a.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	stamp(&a.CreatedAt, &a.UpdatedAt)
	s.attendance[a.ID] = a
	return &a, nil
}

func (s *Store) GetAttendance(_ context.Context, id string) (*domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attendance[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAttendance(_ context.Context, filter store.AttendanceFilter) ([]domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Attendance, 0)
	for _, a := range s.attendance {
		if filter.EmployeeID != "" && a.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.StoreID != "" && a.StoreID != filter.StoreID {
			continue
		}
		if filter.Currency != "" && a.Currency != filter.Currency {
			continue
		}
		if !filter.Range.Contains(a.CheckIn) {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y domain.Attendance) int {
		return cmp.Or(x.CheckIn.Compare(y.CheckIn), cmp.Compare(x.ID, y.ID))
	})
	return limited(out, filter.Limit), nil
}

// --- deliveries ---

func (s *Store) CreateDelivery(_ context.Context, d domain.Delivery) (*domain.Delivery, error) {
	if d.DriverID == "" || d.StoreID == "" || !d.Currency.Valid() || !d.CheckOut.After(d.CheckIn) {
		return nil, store.ErrInvalid
	}
	if d.ID == "" {
		d.ID = xid.New("dlv")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deliveries[d.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.deliveries[d.ID] = d
	return &d, nil
}

func (s *Store) UpdateDelivery(_ context.Context, d domain.Delivery) (*domain.Delivery, error) {
	if d.DriverID == "" || d.StoreID == "" || !d.Currency.Valid() || !d.CheckOut.After(d.CheckIn) {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deliveries[d.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	d.CreatedAt = existing.CreatedAt
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.deliveries[d.ID] = d
	return &d, nil
}

func (s *Store) GetDelivery(_ context.Context, id string) (*domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deliveries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *Store) ListDeliveries(_ context.Context, filter store.DeliveryFilter) ([]domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Delivery, 0)
	for _, d := range s.deliveries {
		if filter.DriverID != "" && d.DriverID != filter.DriverID {
			continue
		}
		if filter.StoreID != "" && d.StoreID != filter.StoreID {
			continue
		}
		if filter.Currency != "" && d.Currency != filter.Currency {
			continue
		}
		if !filter.Range.Contains(d.DeliveryDate) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Delivery) int {
		return cmp.Or(a.CheckIn.Compare(b.CheckIn), cmp.Compare(a.ID, b.ID))
	})
	return limited(out, filter.Limit), nil
}

// --- payments ---

func (s *Store) CreatePayment(_ context.Context, p domain.Payment) (*domain.Payment, error) {
	if p.EmployeeID == "" || !p.Currency.Valid() || !p.PaymentMethod.Valid() {
		return nil, store.ErrInvalid
	}
	if p.ID == "" {
		p.ID = xid.New("pay")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return nil, store.ErrUniqueConflict
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	s.payments[p.ID] = p
	return &p, nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPayments(_ context.Context, filter store.PaymentFilter) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Payment, 0)
	for _, p := range s.payments {
		if filter.EmployeeID != "" && p.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Currency != "" && p.Currency != filter.Currency {
			continue
		}
		if !filter.Range.Contains(p.PaidDate) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Payment) int {
		return cmp.Or(a.PaidDate.Compare(b.PaidDate), a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return limited(out, filter.Limit), nil
}

// --- dependents ---

func (s *Store) CountDependents(_ context.Context, kind domain.EntityKind, id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countDependentsLocked(kind, id)
}

// deleteParentLocked removes id from m unless rows still reference it. The
// caller holds the write lock, so no dependent can be added in between.
func deleteParentLocked[T any](s *Store, m map[string]T, kind domain.EntityKind, id string) error {
	if _, ok := m[id]; !ok {
		return store.ErrNotFound
	}
	n, err := s.countDependentsLocked(kind, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s %s has %d dependent records", store.ErrInUse, kind, id, n)
	}
	delete(m, id)
	return nil
}

func (s *Store) countDependentsLocked(kind domain.EntityKind, id string) (int, error) {
	n := 0
	switch kind {
	case domain.EntityStore:
		for _, sale := range s.sales {
			if sale.StoreID == id {
				n++
			}
		}
		for _, e := range s.expenses {
			if e.StoreID == id {
				n++
			}
		}
		for _, a := range s.attendance {
			if a.StoreID == id {
				n++
			}
		}
		for _, d := range s.deliveries {
			if d.StoreID == id {
				n++
			}
		}
		for _, l := range s.storeEmployees {
			if l.StoreID == id {
				n++
			}
		}
		for _, l := range s.storeDrivers {
			if l.StoreID == id {
				n++
			}
		}
	case domain.EntityEmployee:
		for _, a := range s.attendance {
			if a.EmployeeID == id {
				n++
			}
		}
		for _, p := range s.payments {
			if p.EmployeeID == id {
				n++
			}
		}
		for _, l := range s.storeEmployees {
			if l.EmployeeID == id {
				n++
			}
		}
	case domain.EntityDriver:
		for _, d := range s.deliveries {
			if d.DriverID == id {
				n++
			}
		}
		for _, l := range s.storeDrivers {
			if l.DriverID == id {
				n++
			}
		}
	case domain.EntityVendor:
		for _, e := range s.expenses {
			if e.VendorID == id {
				n++
			}
		}
	default:
		return 0, fmt.Errorf("%w: unknown entity kind %q", store.ErrInvalid, kind)
	}
	return n, nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" || !user.Role.Valid() {
		return store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrUniqueConflict
	}
	user.Username = username
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
