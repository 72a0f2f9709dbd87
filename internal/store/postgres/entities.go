package postgres

import (
	"context"
	"time"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/store"
	"retailops/backend/internal/xid"
)

const storeColumns = `id, name, COALESCE(address, ''), COALESCE(phone, ''), COALESCE(manager, ''),
	supported_currencies, default_currency, created_at, updated_at`

func scanStore(row rowScanner) (*domain.Store, error) {
	var (
		st         domain.Store
		currencies string
	)
	if err := row.Scan(&st.ID, &st.Name, &st.Address, &st.Phone, &st.Manager,
		&currencies, &st.DefaultCurrency, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	st.SupportedCurrencies = splitCurrencies(currencies)
	st.CreatedAt, st.UpdatedAt = st.CreatedAt.UTC(), st.UpdatedAt.UTC()
	return &st, nil
}

func (s *Store) CreateStore(ctx context.Context, st domain.Store) (*domain.Store, error) {
	if st.Name == "" || len(st.SupportedCurrencies) == 0 {
		return nil, store.ErrInvalid
	}
	if st.ID == "" {
		st.ID = xid.New("store")
	}

	return scanStore(s.db.QueryRowContext(ctx, `
		INSERT INTO stores (id, name, address, phone, manager, supported_currencies, default_currency, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING `+storeColumns,
		st.ID, st.Name, nullIfEmpty(st.Address), nullIfEmpty(st.Phone), nullIfEmpty(st.Manager),
		joinCurrencies(st.SupportedCurrencies), st.DefaultCurrency))
}

func (s *Store) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return scanStore(s.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
}

func (s *Store) UpdateStore(ctx context.Context, st domain.Store) (*domain.Store, error) {
	if st.Name == "" || len(st.SupportedCurrencies) == 0 {
		return nil, store.ErrInvalid
	}

	return scanStore(s.db.QueryRowContext(ctx, `
		UPDATE stores
		SET name = $2, address = $3, phone = $4, manager = $5,
			supported_currencies = $6, default_currency = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+storeColumns,
		st.ID, st.Name, nullIfEmpty(st.Address), nullIfEmpty(st.Phone), nullIfEmpty(st.Manager),
		joinCurrencies(st.SupportedCurrencies), st.DefaultCurrency))
}

func (s *Store) DeleteStore(ctx context.Context, id string) error {
	return s.deleteParent(ctx, `DELETE FROM stores WHERE id = $1`, id)
}

func (s *Store) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Store, 0, 16)
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

const employeeColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), wage_type,
	hourly_rate_eur, hourly_rate_gbp, weekly_wage_eur, weekly_wage_gbp, created_at, updated_at`

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	var e domain.Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.WageType,
		&e.HourlyRateEUR, &e.HourlyRateGBP, &e.WeeklyWageEUR, &e.WeeklyWageGBP,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	e.CreatedAt, e.UpdatedAt = e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	return &e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error) {
	if e.Name == "" || !e.WageType.Valid() {
		return nil, store.ErrInvalid
	}
	if e.ID == "" {
		e.ID = xid.New("emp")
	}

	return scanEmployee(s.db.QueryRowContext(ctx, `
		INSERT INTO employees (id, name, email, phone, wage_type,
			hourly_rate_eur, hourly_rate_gbp, weekly_wage_eur, weekly_wage_gbp, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
		RETURNING `+employeeColumns,
		e.ID, e.Name, nullIfEmpty(e.Email), nullIfEmpty(e.Phone), e.WageType,
		e.HourlyRateEUR, e.HourlyRateGBP, e.WeeklyWageEUR, e.WeeklyWageGBP))
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	return scanEmployee(s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

func (s *Store) UpdateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error) {
	if e.Name == "" || !e.WageType.Valid() {
		return nil, store.ErrInvalid
	}

	return scanEmployee(s.db.QueryRowContext(ctx, `
		UPDATE employees
		SET name = $2, email = $3, phone = $4, wage_type = $5,
			hourly_rate_eur = $6, hourly_rate_gbp = $7, weekly_wage_eur = $8, weekly_wage_gbp = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING `+employeeColumns,
		e.ID, e.Name, nullIfEmpty(e.Email), nullIfEmpty(e.Phone), e.WageType,
		e.HourlyRateEUR, e.HourlyRateGBP, e.WeeklyWageEUR, e.WeeklyWageGBP))
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.deleteParent(ctx, `DELETE FROM employees WHERE id = $1`, id)
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Employee, 0, 32)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

const driverColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), created_at, updated_at`

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var d domain.Driver
	if err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
	return &d, nil
}

func (s *Store) CreateDriver(ctx context.Context, d domain.Driver) (*domain.Driver, error) {
	if d.Name == "" {
		return nil, store.ErrInvalid
	}
	if d.ID == "" {
		d.ID = xid.New("drv")
	}

	return scanDriver(s.db.QueryRowContext(ctx, `
		INSERT INTO drivers (id, name, email, phone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,now(),now())
		RETURNING `+driverColumns,
		d.ID, d.Name, nullIfEmpty(d.Email), nullIfEmpty(d.Phone)))
}

func (s *Store) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	return scanDriver(s.db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
}

func (s *Store) UpdateDriver(ctx context.Context, d domain.Driver) (*domain.Driver, error) {
	if d.Name == "" {
		return nil, store.ErrInvalid
	}

	return scanDriver(s.db.QueryRowContext(ctx, `
		UPDATE drivers
		SET name = $2, email = $3, phone = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+driverColumns,
		d.ID, d.Name, nullIfEmpty(d.Email), nullIfEmpty(d.Phone)))
}

func (s *Store) DeleteDriver(ctx context.Context, id string) error {
	return s.deleteParent(ctx, `DELETE FROM drivers WHERE id = $1`, id)
}

func (s *Store) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Driver, 0, 16)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

const vendorColumns = `id, name, COALESCE(contact, ''), COALESCE(email, ''), COALESCE(phone, ''), created_at, updated_at`

func scanVendor(row rowScanner) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := row.Scan(&v.ID, &v.Name, &v.Contact, &v.Email, &v.Phone, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	v.CreatedAt, v.UpdatedAt = v.CreatedAt.UTC(), v.UpdatedAt.UTC()
	return &v, nil
}

func (s *Store) CreateVendor(ctx context.Context, v domain.Vendor) (*domain.Vendor, error) {
	if v.Name == "" {
		return nil, store.ErrInvalid
	}
	if v.ID == "" {
		v.ID = xid.New("vnd")
	}

	return scanVendor(s.db.QueryRowContext(ctx, `
		INSERT INTO vendors (id, name, contact, email, phone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())
		RETURNING `+vendorColumns,
		v.ID, v.Name, nullIfEmpty(v.Contact), nullIfEmpty(v.Email), nullIfEmpty(v.Phone)))
}

func (s *Store) GetVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	return scanVendor(s.db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
}

func (s *Store) UpdateVendor(ctx context.Context, v domain.Vendor) (*domain.Vendor, error) {
	if v.Name == "" {
		return nil, store.ErrInvalid
	}

	return scanVendor(s.db.QueryRowContext(ctx, `
		UPDATE vendors
		SET name = $2, contact = $3, email = $4, phone = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+vendorColumns,
		v.ID, v.Name, nullIfEmpty(v.Contact), nullIfEmpty(v.Email), nullIfEmpty(v.Phone)))
}

func (s *Store) DeleteVendor(ctx context.Context, id string) error {
	return s.deleteParent(ctx, `DELETE FROM vendors WHERE id = $1`, id)
}

func (s *Store) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Vendor, 0, 16)
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanStoreEmployee(row rowScanner) (*domain.StoreEmployee, error) {
	var link domain.StoreEmployee
	if err := row.Scan(&link.ID, &link.StoreID, &link.EmployeeID, &link.AssignedAt); err != nil {
		return nil, mapError(err)
	}
	link.AssignedAt = link.AssignedAt.UTC()
	return &link, nil
}

func (s *Store) CreateStoreEmployee(ctx context.Context, link domain.StoreEmployee) (*domain.StoreEmployee, error) {
	if link.StoreID == "" || link.EmployeeID == "" {
		return nil, store.ErrInvalid
	}
	if link.ID == "" {
		link.ID = xid.New("se")
	}
	if link.AssignedAt.IsZero() {
		link.AssignedAt = time.Now().UTC()
	}

	return scanStoreEmployee(s.db.QueryRowContext(ctx, `
		INSERT INTO store_employees (id, store_id, employee_id, assigned_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id, store_id, employee_id, assigned_at
	`, link.ID, link.StoreID, link.EmployeeID, link.AssignedAt))
}

func (s *Store) FindStoreEmployee(ctx context.Context, storeID string, employeeID string) (*domain.StoreEmployee, error) {
	return scanStoreEmployee(s.db.QueryRowContext(ctx, `
		SELECT id, store_id, employee_id, assigned_at
		FROM store_employees
		WHERE store_id = $1 AND employee_id = $2
	`, storeID, employeeID))
}

func (s *Store) ListStoreEmployees(ctx context.Context, storeID string) ([]domain.StoreEmployee, error) {
	return s.listStoreEmployees(ctx, "store_id", storeID)
}

func (s *Store) ListEmployeeStores(ctx context.Context, employeeID string) ([]domain.StoreEmployee, error) {
	return s.listStoreEmployees(ctx, "employee_id", employeeID)
}

func (s *Store) listStoreEmployees(ctx context.Context, column string, id string) ([]domain.StoreEmployee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, employee_id, assigned_at
		FROM store_employees
		WHERE `+column+` = $1
		ORDER BY assigned_at, id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.StoreEmployee, 0, 8)
	for rows.Next() {
		link, err := scanStoreEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *link)
	}
	return out, rows.Err()
}

func (s *Store) DeleteStoreEmployee(ctx context.Context, storeID string, employeeID string) error {
	return s.exec(ctx, `DELETE FROM store_employees WHERE store_id = $1 AND employee_id = $2`, storeID, employeeID)
}

func scanStoreDriver(row rowScanner) (*domain.StoreDriver, error) {
	var link domain.StoreDriver
	if err := row.Scan(&link.ID, &link.StoreID, &link.DriverID, &link.AssignedAt); err != nil {
		return nil, mapError(err)
	}
	link.AssignedAt = link.AssignedAt.UTC()
	return &link, nil
}

func (s *Store) CreateStoreDriver(ctx context.Context, link domain.StoreDriver) (*domain.StoreDriver, error) {
	if link.StoreID == "" || link.DriverID == "" {
		return nil, store.ErrInvalid
	}
	if link.ID == "" {
		link.ID = xid.New("sd")
	}
	if link.AssignedAt.IsZero() {
		link.AssignedAt = time.Now().UTC()
	}

	return scanStoreDriver(s.db.QueryRowContext(ctx, `
		INSERT INTO store_drivers (id, store_id, driver_id, assigned_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id, store_id, driver_id, assigned_at
	`, link.ID, link.StoreID, link.DriverID, link.AssignedAt))
}

func (s *Store) FindStoreDriver(ctx context.Context, storeID string, driverID string) (*domain.StoreDriver, error) {
	return scanStoreDriver(s.db.QueryRowContext(ctx, `
		SELECT id, store_id, driver_id, assigned_at
		FROM store_drivers
		WHERE store_id = $1 AND driver_id = $2
	`, storeID, driverID))
}

func (s *Store) ListStoreDrivers(ctx context.Context, storeID string) ([]domain.StoreDriver, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, driver_id, assigned_at
		FROM store_drivers
		WHERE store_id = $1
		ORDER BY assigned_at, id
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.StoreDriver, 0, 8)
	for rows.Next() {
		link, err := scanStoreDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *link)
	}
	return out, rows.Err()
}

func (s *Store) DeleteStoreDriver(ctx context.Context, storeID string, driverID string) error {
	return s.exec(ctx, `DELETE FROM store_drivers WHERE store_id = $1 AND driver_id = $2`, storeID, driverID)
}
