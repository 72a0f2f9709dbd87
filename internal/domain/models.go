package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates (sale day, expense day,
// payment day, payroll period bounds).
const DateLayout = "2006-01-02"

type Store struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Address             string     `json:"address,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Manager             string     `json:"manager,omitempty"`
	SupportedCurrencies []Currency `json:"supported_currencies"`
	DefaultCurrency     Currency   `json:"default_currency"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (s Store) Supports(c Currency) bool {
	for _, supported := range s.SupportedCurrencies {
		if supported == c {
			return true
		}
	}
	return false
}

type StoreRequest struct {
	Name                string     `json:"name" validate:"required,max=200"`
	Address             string     `json:"address,omitempty" validate:"max=500"`
	Phone               string     `json:"phone,omitempty" validate:"max=50"`
	Manager             string     `json:"manager,omitempty" validate:"max=200"`
	SupportedCurrencies []Currency `json:"supported_currencies" validate:"required,min=1"`
	DefaultCurrency     Currency   `json:"default_currency" validate:"required"`
}

type Employee struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email,omitempty"`
	Phone         string              `json:"phone,omitempty"`
	WageType      WageType            `json:"wage_type"`
	HourlyRateEUR decimal.NullDecimal `json:"hourly_rate_eur"`
	HourlyRateGBP decimal.NullDecimal `json:"hourly_rate_gbp"`
	WeeklyWageEUR decimal.NullDecimal `json:"weekly_wage_eur"`
	WeeklyWageGBP decimal.NullDecimal `json:"weekly_wage_gbp"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// HourlyRate returns the configured hourly rate for c, if any.
func (e Employee) HourlyRate(c Currency) (decimal.Decimal, bool) {
	switch c {
	case CurrencyEUR:
		return e.HourlyRateEUR.Decimal, e.HourlyRateEUR.Valid
	case CurrencyGBP:
		return e.HourlyRateGBP.Decimal, e.HourlyRateGBP.Valid
	default:
		return decimal.Zero, false
	}
}

// WeeklyWage returns the configured weekly wage for c, if any.
func (e Employee) WeeklyWage(c Currency) (decimal.Decimal, bool) {
	switch c {
	case CurrencyEUR:
		return e.WeeklyWageEUR.Decimal, e.WeeklyWageEUR.Valid
	case CurrencyGBP:
		return e.WeeklyWageGBP.Decimal, e.WeeklyWageGBP.Valid
	default:
		return decimal.Zero, false
	}
}

type EmployeeRequest struct {
	Name          string              `json:"name" validate:"required,max=200"`
	Email         string              `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string              `json:"phone,omitempty" validate:"max=50"`
	WageType      WageType            `json:"wage_type" validate:"required"`
	HourlyRateEUR decimal.NullDecimal `json:"hourly_rate_eur"`
	HourlyRateGBP decimal.NullDecimal `json:"hourly_rate_gbp"`
	WeeklyWageEUR decimal.NullDecimal `json:"weekly_wage_eur"`
	WeeklyWageGBP decimal.NullDecimal `json:"weekly_wage_gbp"`
}

type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VendorRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Contact string `json:"contact,omitempty" validate:"max=200"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
}

type Driver struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DriverRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"max=50"`
}

type StoreEmployee struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	EmployeeID string    `json:"employee_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type StoreDriver struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	DriverID   string    `json:"driver_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type AssignEmployeeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required"`
}

type StoreEmployeeResponse struct {
	Link      StoreEmployee `json:"link"`
	Duplicate bool          `json:"duplicate"`
}

type StoreDriverResponse struct {
	Link      StoreDriver `json:"link"`
	Duplicate bool        `json:"duplicate"`
}

// SalesChannels is one day's takings split by channel.
type SalesChannels struct {
	Cash       int64 `json:"cash"`
	Online     int64 `json:"online"`
	Delivery   int64 `json:"delivery"`
	JustEat    int64 `json:"just_eat"`
	MyLocal    int64 `json:"mylocal"`
	CreditCard int64 `json:"credit_card"`
	Deliveroo  int64 `json:"deliveroo"`
	UberEats   int64 `json:"uber_eats"`
}

// Amounts returns the channels in a fixed order.
func (c SalesChannels) Amounts() []int64 {
	return []int64{c.Cash, c.Online, c.Delivery, c.JustEat, c.MyLocal, c.CreditCard, c.Deliveroo, c.UberEats}
}

func (c SalesChannels) Add(o SalesChannels) SalesChannels {
	return SalesChannels{
		Cash:       c.Cash + o.Cash,
		Online:     c.Online + o.Online,
		Delivery:   c.Delivery + o.Delivery,
		JustEat:    c.JustEat + o.JustEat,
		MyLocal:    c.MyLocal + o.MyLocal,
		CreditCard: c.CreditCard + o.CreditCard,
		Deliveroo:  c.Deliveroo + o.Deliveroo,
		UberEats:   c.UberEats + o.UberEats,
	}
}

type Sale struct {
	ID       string    `json:"id"`
	StoreID  string    `json:"store_id"`
	Date     time.Time `json:"date"`
	Currency Currency  `json:"currency"`
	SalesChannels
	Total      int64     `json:"total"`
	CashInTill int64     `json:"cash_in_till"`
	Difference int64     `json:"difference"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SalesRequest struct {
	StoreID  string   `json:"store_id" validate:"required"`
	Date     string   `json:"date" validate:"required,datetime=2006-01-02"`
	Currency Currency `json:"currency" validate:"required"`
	SalesChannels
	CashInTill int64  `json:"cash_in_till"`
	Notes      string `json:"notes,omitempty" validate:"max=2000"`
}

type SalesResponse struct {
	Sale    Sale `json:"sale"`
	Created bool `json:"created"`
}

// Reconciliation is the derived part of a Sale.
type Reconciliation struct {
	Total      int64 `json:"total"`
	Difference int64 `json:"difference"`
}

type SalesSummary struct {
	StoreID    string        `json:"store_id"`
	Currency   Currency      `json:"currency"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Days       int           `json:"days"`
	Channels   SalesChannels `json:"channels"`
	Total      int64         `json:"total"`
	CashInTill int64         `json:"cash_in_till"`
	Difference int64         `json:"difference"`
	ShortDays  int           `json:"short_days"`
	OverDays   int           `json:"over_days"`
}

type Expense struct {
	ID          string        `json:"id"`
	StoreID     string        `json:"store_id"`
	VendorID    string        `json:"vendor_id"`
	Currency    Currency      `json:"currency"`
	Status      ExpenseStatus `json:"status"`
	Amount      int64         `json:"amount"`
	Description string        `json:"description,omitempty"`
	ExpenseDate time.Time     `json:"expense_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type ExpenseRequest struct {
	StoreID     string   `json:"store_id" validate:"required"`
	VendorID    string   `json:"vendor_id" validate:"required"`
	Currency    Currency `json:"currency" validate:"required"`
	Amount      int64    `json:"amount"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	ExpenseDate string   `json:"expense_date" validate:"required,datetime=2006-01-02"`
}

type ExpensePayRequest struct {
	// Idempotent turns a repeated settlement into a no-op instead of an error.
	Idempotent bool `json:"idempotent"`
}

type Attendance struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	StoreID     string          `json:"store_id"`
	CheckIn     time.Time       `json:"check_in"`
	CheckOut    time.Time       `json:"check_out"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	Currency    Currency        `json:"currency"`
	AmountToPay int64           `json:"amount_to_pay"`
	// WageType is the employee's wage type when AmountToPay was computed.
	WageType  WageType  `json:"wage_type,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AttendanceRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	StoreID    string    `json:"store_id" validate:"required"`
	CheckIn    time.Time `json:"check_in" validate:"required"`
	CheckOut   time.Time `json:"check_out" validate:"required"`
	Currency   Currency  `json:"currency" validate:"required"`
	Notes      string    `json:"notes,omitempty" validate:"max=2000"`
}

type Delivery struct {
	ID                 string          `json:"id"`
	DriverID           string          `json:"driver_id"`
	StoreID            string          `json:"store_id"`
	DeliveryDate       time.Time       `json:"delivery_date"`
	CheckIn            time.Time       `json:"check_in"`
	CheckOut           time.Time       `json:"check_out"`
	HoursWorked        decimal.Decimal `json:"hours_worked"`
	NumberOfDeliveries int             `json:"number_of_deliveries"`
	Currency           Currency        `json:"currency"`
	ExpenseAmount      int64           `json:"expense_amount"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type DeliveryRequest struct {
	DriverID           string    `json:"driver_id" validate:"required"`
	StoreID            string    `json:"store_id" validate:"required"`
	DeliveryDate       string    `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckIn            time.Time `json:"check_in" validate:"required"`
	CheckOut           time.Time `json:"check_out" validate:"required"`
	NumberOfDeliveries int       `json:"number_of_deliveries"`
	Currency           Currency  `json:"currency" validate:"required"`
	ExpenseAmount      int64     `json:"expense_amount"`
	Notes              string    `json:"notes,omitempty" validate:"max=2000"`
}

type DriverSummary struct {
	DriverID      string          `json:"driver_id"`
	Currency      Currency        `json:"currency"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Shifts        int             `json:"shifts"`
	Deliveries    int             `json:"deliveries"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	ExpenseAmount int64           `json:"expense_amount"`
}

type Payment struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employee_id"`
	AmountPaid    int64         `json:"amount_paid"`
	Currency      Currency      `json:"currency"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaidDate      time.Time     `json:"paid_date"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type PaymentRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	// StoreID optionally scopes the currency check to one store.
	StoreID       string        `json:"store_id,omitempty"`
	AmountPaid    int64         `json:"amount_paid"`
	Currency      Currency      `json:"currency" validate:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required"`
	PaidDate      string        `json:"paid_date" validate:"required,datetime=2006-01-02"`
	Notes         string        `json:"notes,omitempty" validate:"max=2000"`
}

// PayrollTotals is the aggregated position of one employee in one currency.
type PayrollTotals struct {
	Earned          int64           `json:"earned"`
	Paid            int64           `json:"paid"`
	Balance         int64           `json:"balance"`
	HourlyEarned    int64           `json:"hourly_earned"`
	FixedEarned     int64           `json:"fixed_earned"`
	FixedWeeks      int             `json:"fixed_weeks"`
	AttendanceCount int             `json:"attendance_count"`
	PaymentCount    int             `json:"payment_count"`
	HoursWorked     decimal.Decimal `json:"hours_worked"`
}

type PayrollSummary struct {
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	WageType     WageType `json:"wage_type"`
	Currency     Currency `json:"currency"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	PayrollTotals
}

type PayrollRunResponse struct {
	Currency     Currency         `json:"currency"`
	StoreID      string           `json:"store_id,omitempty"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	Summaries    []PayrollSummary `json:"summaries"`
	TotalEarned  int64            `json:"total_earned"`
	TotalPaid    int64            `json:"total_paid"`
	TotalBalance int64            `json:"total_balance"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	Role        UserRole `json:"role"`
	ExpiresAt   string   `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     UserRole
}

type UserCreateRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

type User struct {
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      UserRole
	Active    bool
	CreatedAt time.Time
}
