package postgres

import (
	"context"
	"time"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/store"
	"retailops/backend/internal/xid"
)

const saleColumns = `id, store_id, sale_date, currency,
	cash, online, delivery, just_eat, mylocal, credit_card, deliveroo, uber_eats,
	total, cash_in_till, difference, COALESCE(notes, ''), created_at, updated_at`

func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	c := &sale.SalesChannels
	if err := row.Scan(&sale.ID, &sale.StoreID, &sale.Date, &sale.Currency,
		&c.Cash, &c.Online, &c.Delivery, &c.JustEat, &c.MyLocal, &c.CreditCard, &c.Deliveroo, &c.UberEats,
		&sale.Total, &sale.CashInTill, &sale.Difference, &sale.Notes, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	sale.Date = dateUTC(sale.Date)
	sale.CreatedAt, sale.UpdatedAt = sale.CreatedAt.UTC(), sale.UpdatedAt.UTC()
	return &sale, nil
}

func saleArgs(sale domain.Sale) []any {
	c := sale.SalesChannels
	return []any{
		sale.ID, sale.StoreID, dateUTC(sale.Date), sale.Currency,
		c.Cash, c.Online, c.Delivery, c.JustEat, c.MyLocal, c.CreditCard, c.Deliveroo, c.UberEats,
		sale.Total, sale.CashInTill, sale.Difference, nullIfEmpty(sale.Notes),
	}
}

func validSale(sale domain.Sale) bool {
	return sale.StoreID != "" && sale.Currency.Valid() && !sale.Date.IsZero()
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if !validSale(sale) {
		return nil, store.ErrInvalid
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}

	return scanSale(s.db.QueryRowContext(ctx, `
		INSERT INTO sales (id, store_id, sale_date, currency,
			cash, online, delivery, just_eat, mylocal, credit_card, deliveroo, uber_eats,
			total, cash_in_till, difference, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
		RETURNING `+saleColumns, saleArgs(sale)...))
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if !validSale(sale) {
		return nil, store.ErrInvalid
	}

	return scanSale(s.db.QueryRowContext(ctx, `
		UPDATE sales
		SET store_id = $2, sale_date = $3, currency = $4,
			cash = $5, online = $6, delivery = $7, just_eat = $8, mylocal = $9,
			credit_card = $10, deliveroo = $11, uber_eats = $12,
			total = $13, cash_in_till = $14, difference = $15, notes = $16, updated_at = now()
		WHERE id = $1
		RETURNING `+saleColumns, saleArgs(sale)...))
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
}

func (s *Store) FindSaleByKey(ctx context.Context, storeID string, currency domain.Currency, date time.Time) (*domain.Sale, error) {
	return scanSale(s.db.QueryRowContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE store_id = $1 AND currency = $2 AND sale_date = $3
	`, storeID, currency, dateUTC(date)))
}

func (s *Store) ListSales(ctx context.Context, f store.SaleFilter) ([]domain.Sale, error) {
	var q filter
	q.eq("store_id", f.StoreID)
	q.eq("currency", string(f.Currency))
	q.between("sale_date", f.Range)
	query := `SELECT ` + saleColumns + ` FROM sales` + q.where() + ` ORDER BY sale_date, store_id, currency` + q.limit(f.Limit)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Sale, 0, 32)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

const expenseColumns = `id, store_id, vendor_id, currency, status, amount,
	COALESCE(description, ''), expense_date, created_at, updated_at`

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var e domain.Expense
	if err := row.Scan(&e.ID, &e.StoreID, &e.VendorID, &e.Currency, &e.Status, &e.Amount,
		&e.Description, &e.ExpenseDate, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	e.ExpenseDate = dateUTC(e.ExpenseDate)
	e.CreatedAt, e.UpdatedAt = e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	return &e, nil
}

func validExpense(e domain.Expense) bool {
	return e.StoreID != "" && e.VendorID != "" && e.Currency.Valid() && e.Status.Valid()
}

func (s *Store) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	if !validExpense(e) {
		return nil, store.ErrInvalid
	}
	if e.ID == "" {
		e.ID = xid.New("exp")
	}

	return scanExpense(s.db.QueryRowContext(ctx, `
		INSERT INTO expenses (id, store_id, vendor_id, currency, status, amount, description, expense_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		RETURNING `+expenseColumns,
		e.ID, e.StoreID, e.VendorID, e.Currency, e.Status, e.Amount, nullIfEmpty(e.Description), dateUTC(e.ExpenseDate)))
}

func (s *Store) UpdateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	if !validExpense(e) {
		return nil, store.ErrInvalid
	}

	return scanExpense(s.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET store_id = $2, vendor_id = $3, currency = $4, status = $5, amount = $6,
			description = $7, expense_date = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+expenseColumns,
		e.ID, e.StoreID, e.VendorID, e.Currency, e.Status, e.Amount, nullIfEmpty(e.Description), dateUTC(e.ExpenseDate)))
}

func (s *Store) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	return scanExpense(s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
}

func (s *Store) ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]domain.Expense, error) {
	var q filter
	q.eq("store_id", f.StoreID)
	q.eq("vendor_id", f.VendorID)
	q.eq("currency", string(f.Currency))
	q.eq("status", string(f.Status))
	q.between("expense_date", f.Range)
	query := `SELECT ` + expenseColumns + ` FROM expenses` + q.where() + ` ORDER BY expense_date, created_at, id` + q.limit(f.Limit)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Expense, 0, 32)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

const attendanceColumns = `id, employee_id, store_id, check_in, check_out, hours_worked, currency,
	amount_to_pay, COALESCE(wage_type, ''), COALESCE(notes, ''), created_at, updated_at`

func scanAttendance(row rowScanner) (*domain.Attendance, error) {
	var a domain.Attendance
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.StoreID, &a.CheckIn, &a.CheckOut, &a.HoursWorked, &a.Currency,
		&a.AmountToPay, &a.WageType, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	a.CheckIn, a.CheckOut = a.CheckIn.UTC(), a.CheckOut.UTC()
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return &a, nil
}

func validAttendance(a domain.Attendance) bool {
	return a.EmployeeID != "" && a.StoreID != "" && a.Currency.Valid() && a.CheckOut.After(a.CheckIn)
}

func (s *Store) CreateAttendance(ctx context.Context, a domain.Attendance) (*domain.Attendance, error) {
	if !validAttendance(a) {
		return nil, store.ErrInvalid
	}
	if a.ID == "" {
		a.ID = xid.New("att")
	}

	return scanAttendance(s.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, employee_id, store_id, check_in, check_out, hours_worked, currency,
			amount_to_pay, wage_type, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
		RETURNING `+attendanceColumns,
		a.ID, a.EmployeeID, a.StoreID, a.CheckIn.UTC(), a.CheckOut.UTC(), a.HoursWorked, a.Currency,
		a.AmountToPay, nullIfEmpty(string(a.WageType)), nullIfEmpty(a.Notes)))
}

func (s *Store) UpdateAttendance(ctx context.Context, a domain.Attendance) (*domain.Attendance, error) {
	if !validAttendance(a) {
		return nil, store.ErrInvalid
	}

	return scanAttendance(s.db.QueryRowContext(ctx, `
		UPDATE attendance
		SET employee_id = $2, store_id = $3, check_in = $4, check_out = $5, hours_worked = $6,
			currency = $7, amount_to_pay = $8, wage_type = $9, notes = $10, updated_at = now()
		WHERE id = $1
		RETURNING `+attendanceColumns,
		a.ID, a.EmployeeID, a.StoreID, a.CheckIn.UTC(), a.CheckOut.UTC(), a.HoursWorked, a.Currency,
		a.AmountToPay, nullIfEmpty(string(a.WageType)), nullIfEmpty(a.Notes)))
}

func (s *Store) GetAttendance(ctx context.Context, id string) (*domain.Attendance, error) {
	return scanAttendance(s.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id))
}

func (s *Store) ListAttendance(ctx context.Context, f store.AttendanceFilter) ([]domain.Attendance, error) {
	var q filter
	q.eq("employee_id", f.EmployeeID)
	q.eq("store_id", f.StoreID)
	q.eq("currency", string(f.Currency))
	q.between("check_in", f.Range)
	query := `SELECT ` + attendanceColumns + ` FROM attendance` + q.where() + ` ORDER BY check_in, id` + q.limit(f.Limit)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Attendance, 0, 64)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

const deliveryColumns = `id, driver_id, store_id, delivery_date, check_in, check_out, hours_worked,
	number_of_deliveries, currency, expense_amount, COALESCE(notes, ''), created_at, updated_at`

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var d domain.Delivery
	if err := row.Scan(&d.ID, &d.DriverID, &d.StoreID, &d.DeliveryDate, &d.CheckIn, &d.CheckOut, &d.HoursWorked,
		&d.NumberOfDeliveries, &d.Currency, &d.ExpenseAmount, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	d.DeliveryDate = dateUTC(d.DeliveryDate)
	d.CheckIn, d.CheckOut = d.CheckIn.UTC(), d.CheckOut.UTC()
	d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
	return &d, nil
}

func validDelivery(d domain.Delivery) bool {
	return d.DriverID != "" && d.StoreID != "" && d.Currency.Valid() && d.CheckOut.After(d.CheckIn)
}

func (s *Store) CreateDelivery(ctx context.Context, d domain.Delivery) (*domain.Delivery, error) {
	if !validDelivery(d) {
		return nil, store.ErrInvalid
	}
	if d.ID == "" {
		d.ID = xid.New("dlv")
	}

	return scanDelivery(s.db.QueryRowContext(ctx, `
		INSERT INTO deliveries (id, driver_id, store_id, delivery_date, check_in, check_out, hours_worked,
			number_of_deliveries, currency, expense_amount, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
		RETURNING `+deliveryColumns,
		d.ID, d.DriverID, d.StoreID, dateUTC(d.DeliveryDate), d.CheckIn.UTC(), d.CheckOut.UTC(), d.HoursWorked,
		d.NumberOfDeliveries, d.Currency, d.ExpenseAmount, nullIfEmpty(d.Notes)))
}

func (s *Store) UpdateDelivery(ctx context.Context, d domain.Delivery) (*domain.Delivery, error) {
	if !validDelivery(d) {
		return nil, store.ErrInvalid
	}

	return scanDelivery(s.db.QueryRowContext(ctx, `
		UPDATE deliveries
		SET driver_id = $2, store_id = $3, delivery_date = $4, check_in = $5, check_out = $6,
			hours_worked = $7, number_of_deliveries = $8, currency = $9, expense_amount = $10,
			notes = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+deliveryColumns,
		d.ID, d.DriverID, d.StoreID, dateUTC(d.DeliveryDate), d.CheckIn.UTC(), d.CheckOut.UTC(), d.HoursWorked,
		d.NumberOfDeliveries, d.Currency, d.ExpenseAmount, nullIfEmpty(d.Notes)))
}

func (s *Store) GetDelivery(ctx context.Context, id string) (*domain.Delivery, error) {
	return scanDelivery(s.db.QueryRowContext(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
}

func (s *Store) ListDeliveries(ctx context.Context, f store.DeliveryFilter) ([]domain.Delivery, error) {
	var q filter
	q.eq("driver_id", f.DriverID)
	q.eq("store_id", f.StoreID)
	q.eq("currency", string(f.Currency))
	q.between("delivery_date", f.Range)
	query := `SELECT ` + deliveryColumns + ` FROM deliveries` + q.where() + ` ORDER BY check_in, id` + q.limit(f.Limit)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0, 32)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

const paymentColumns = `id, employee_id, amount_paid, currency, payment_method, paid_date,
	COALESCE(notes, ''), created_at, updated_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.EmployeeID, &p.AmountPaid, &p.Currency, &p.PaymentMethod, &p.PaidDate,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	p.PaidDate = dateUTC(p.PaidDate)
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	if p.EmployeeID == "" || !p.Currency.Valid() || !p.PaymentMethod.Valid() {
		return nil, store.ErrInvalid
	}
	if p.ID == "" {
		p.ID = xid.New("pay")
	}

	return scanPayment(s.db.QueryRowContext(ctx, `
		INSERT INTO payments (id, employee_id, amount_paid, currency, payment_method, paid_date, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING `+paymentColumns,
		p.ID, p.EmployeeID, p.AmountPaid, p.Currency, p.PaymentMethod, dateUTC(p.PaidDate), nullIfEmpty(p.Notes)))
}

func (s *Store) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return scanPayment(s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (s *Store) ListPayments(ctx context.Context, f store.PaymentFilter) ([]domain.Payment, error) {
	var q filter
	q.eq("employee_id", f.EmployeeID)
	q.eq("currency", string(f.Currency))
	q.between("paid_date", f.Range)
	query := `SELECT ` + paymentColumns + ` FROM payments` + q.where() + ` ORDER BY paid_date, created_at, id` + q.limit(f.Limit)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Payment, 0, 32)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
