package store

import (
	"context"
	"errors"
	"time"

	"retailops/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUniqueConflict signals that an insert collided with a unique key.
	ErrUniqueConflict = errors.New("unique constraint conflict")
	ErrInvalid        = errors.New("invalid record")
	// ErrInUse rejects deleting a parent that rows still reference.
	ErrInUse = errors.New("entity is still referenced")
)

// Range is a half-open [From, To) filter; a zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

type SaleFilter struct {
	StoreID  string
	Currency domain.Currency
	Range    Range
	Limit    int
}

type ExpenseFilter struct {
	StoreID  string
	VendorID string
	Currency domain.Currency
	Status   domain.ExpenseStatus
	Range    Range
	Limit    int
}

type AttendanceFilter struct {
	EmployeeID string
	StoreID    string
	Currency   domain.Currency
	// Range applies to CheckIn.
	Range Range
	Limit int
}

type DeliveryFilter struct {
	DriverID string
	StoreID  string
	Currency domain.Currency
	// Range applies to DeliveryDate.
	Range Range
	Limit int
}

type PaymentFilter struct {
	EmployeeID string
	Currency   domain.Currency
	// Range applies to PaidDate.
	Range Range
	Limit int
}

type StoreRepository interface {
	CreateStore(ctx context.Context, s domain.Store) (*domain.Store, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	UpdateStore(ctx context.Context, s domain.Store) (*domain.Store, error)
	DeleteStore(ctx context.Context, id string) error
	ListStores(ctx context.Context) ([]domain.Store, error)
}

type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, e domain.Employee) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
}

type DriverRepository interface {
	CreateDriver(ctx context.Context, d domain.Driver) (*domain.Driver, error)
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
	UpdateDriver(ctx context.Context, d domain.Driver) (*domain.Driver, error)
	DeleteDriver(ctx context.Context, id string) error
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
}

type VendorRepository interface {
	CreateVendor(ctx context.Context, v domain.Vendor) (*domain.Vendor, error)
	GetVendor(ctx context.Context, id string) (*domain.Vendor, error)
	UpdateVendor(ctx context.Context, v domain.Vendor) (*domain.Vendor, error)
	DeleteVendor(ctx context.Context, id string) error
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
}

// AssignmentRepository stores the store/employee and store/driver links.
// Creating a link whose pair already exists returns ErrUniqueConflict.
type AssignmentRepository interface {
	CreateStoreEmployee(ctx context.Context, link domain.StoreEmployee) (*domain.StoreEmployee, error)
	FindStoreEmployee(ctx context.Context, storeID string, employeeID string) (*domain.StoreEmployee, error)
	ListStoreEmployees(ctx context.Context, storeID string) ([]domain.StoreEmployee, error)
	ListEmployeeStores(ctx context.Context, employeeID string) ([]domain.StoreEmployee, error)
	DeleteStoreEmployee(ctx context.Context, storeID string, employeeID string) error

	CreateStoreDriver(ctx context.Context, link domain.StoreDriver) (*domain.StoreDriver, error)
	FindStoreDriver(ctx context.Context, storeID string, driverID string) (*domain.StoreDriver, error)
	ListStoreDrivers(ctx context.Context, storeID string) ([]domain.StoreDriver, error)
	DeleteStoreDriver(ctx context.Context, storeID string, driverID string) error
}

// SaleRepository keeps at most one sale per (store, currency, date).
// CreateSale returns ErrUniqueConflict when that key is taken.
type SaleRepository interface {
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	FindSaleByKey(ctx context.Context, storeID string, currency domain.Currency, date time.Time) (*domain.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
}

type ExpenseRepository interface {
	CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error)
	GetExpense(ctx context.Context, id string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]domain.Expense, error)
}

type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, a domain.Attendance) (*domain.Attendance, error)
	UpdateAttendance(ctx context.Context, a domain.Attendance) (*domain.Attendance, error)
	GetAttendance(ctx context.Context, id string) (*domain.Attendance, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]domain.Attendance, error)
}

type DeliveryRepository interface {
	CreateDelivery(ctx context.Context, d domain.Delivery) (*domain.Delivery, error)
	UpdateDelivery(ctx context.Context, d domain.Delivery) (*domain.Delivery, error)
	GetDelivery(ctx context.Context, id string) (*domain.Delivery, error)
	ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]domain.Delivery, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	StoreRepository
	EmployeeRepository
	DriverRepository
	VendorRepository
	AssignmentRepository
	SaleRepository
	ExpenseRepository
	AttendanceRepository
	DeliveryRepository
	PaymentRepository
	UserRepository

	// CountDependents reports how many rows reference the given parent.
	CountDependents(ctx context.Context, kind domain.EntityKind, id string) (int, error)
}
