package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/store"
)

func (s *Service) ListStores(ctx context.Context) ([]domain.Store, error) {
	return s.repo.ListStores(ctx)
}

func (s *Service) GetStore(ctx context.Context, id string) (domain.Store, error) {
	st, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return domain.Store{}, err
	}
	return *st, nil
}

func (s *Service) buildStore(req domain.StoreRequest) (domain.Store, error) {
	if err := s.check(req); err != nil {
		return domain.Store{}, err
	}
	defaultCurrency, err := parseCurrency(req.DefaultCurrency)
	if err != nil {
		return domain.Store{}, err
	}
	supported := make([]domain.Currency, 0, len(req.SupportedCurrencies))
	for _, raw := range req.SupportedCurrencies {
		c, err := parseCurrency(raw)
		if err != nil {
			return domain.Store{}, err
		}
		supported = append(supported, c)
	}
	supported, err = finance.NormalizeCurrencies(supported, defaultCurrency)
	if err != nil {
		return domain.Store{}, err
	}

	return domain.Store{
		Name:                strings.TrimSpace(req.Name),
		Address:             strings.TrimSpace(req.Address),
		Phone:               strings.TrimSpace(req.Phone),
		Manager:             strings.TrimSpace(req.Manager),
		SupportedCurrencies: supported,
		DefaultCurrency:     defaultCurrency,
	}, nil
}

func (s *Service) CreateStore(ctx context.Context, req domain.StoreRequest) (domain.Store, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Store{}, err
	}
	st, err := s.buildStore(req)
	if err != nil {
		return domain.Store{}, err
	}

	created, err := s.repo.CreateStore(ctx, st)
	if err != nil {
		return domain.Store{}, err
	}
	s.logWrite(ctx, "create", "store", created.ID, nil)
	return *created, nil
}

func (s *Service) UpdateStore(ctx context.Context, id string, req domain.StoreRequest) (domain.Store, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Store{}, err
	}
	st, err := s.buildStore(req)
	if err != nil {
		return domain.Store{}, err
	}
	existing, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return domain.Store{}, err
	}
	st.ID = existing.ID
	st.CreatedAt = existing.CreatedAt

	updated, err := s.repo.UpdateStore(ctx, st)
	if err != nil {
		return domain.Store{}, err
	}
	s.logWrite(ctx, "update", "store", updated.ID, nil)
	return *updated, nil
}

func (s *Service) DeleteStore(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.repo.GetStore(ctx, id); err != nil {
		return err
	}
	if err := s.ensureNoDependents(ctx, domain.EntityStore, id); err != nil {
		return err
	}
	if err := s.repo.DeleteStore(ctx, id); err != nil {
		return err
	}
	s.logWrite(ctx, "delete", "store", id, nil)
	return nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	e, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	return *e, nil
}

func (s *Service) buildEmployee(req domain.EmployeeRequest) (domain.Employee, error) {
	if err := s.check(req); err != nil {
		return domain.Employee{}, err
	}
	e := domain.Employee{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		WageType:      domain.WageType(strings.ToUpper(strings.TrimSpace(string(req.WageType)))),
		HourlyRateEUR: req.HourlyRateEUR,
		HourlyRateGBP: req.HourlyRateGBP,
		WeeklyWageEUR: req.WeeklyWageEUR,
		WeeklyWageGBP: req.WeeklyWageGBP,
	}
	if err := finance.ValidateWageConfig(e); err != nil {
		return domain.Employee{}, err
	}
	return e, nil
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeRequest) (domain.Employee, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Employee{}, err
	}
	e, err := s.buildEmployee(req)
	if err != nil {
		return domain.Employee{}, err
	}

	created, err := s.repo.CreateEmployee(ctx, e)
	if err != nil {
		return domain.Employee{}, err
	}
	s.logWrite(ctx, "create", "employee", created.ID, logrus.Fields{"wage_type": created.WageType})
	return *created, nil
}

// UpdateEmployee changes wage configuration going forward. Attendance rows
// already written keep the amount and wage type they were computed with.
func (s *Service) UpdateEmployee(ctx context.Context, id string, req domain.EmployeeRequest) (domain.Employee, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Employee{}, err
	}
	e, err := s.buildEmployee(req)
	if err != nil {
		return domain.Employee{}, err
	}
	existing, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt

	updated, err := s.repo.UpdateEmployee(ctx, e)
	if err != nil {
		return domain.Employee{}, err
	}
	s.invalidatePayroll(ctx, updated.ID)
	s.logWrite(ctx, "update", "employee", updated.ID, logrus.Fields{"wage_type": updated.WageType})
	return *updated, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.repo.GetEmployee(ctx, id); err != nil {
		return err
	}
	if err := s.ensureNoDependents(ctx, domain.EntityEmployee, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.invalidatePayroll(ctx, id)
	s.logWrite(ctx, "delete", "employee", id, nil)
	return nil
}

func (s *Service) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	return s.repo.ListDrivers(ctx)
}

func (s *Service) GetDriver(ctx context.Context, id string) (domain.Driver, error) {
	d, err := s.repo.GetDriver(ctx, id)
	if err != nil {
		return domain.Driver{}, err
	}
	return *d, nil
}

func (s *Service) CreateDriver(ctx context.Context, req domain.DriverRequest) (domain.Driver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Driver{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Driver{}, err
	}

	created, err := s.repo.CreateDriver(ctx, domain.Driver{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return domain.Driver{}, err
	}
	s.logWrite(ctx, "create", "driver", created.ID, nil)
	return *created, nil
}

func (s *Service) UpdateDriver(ctx context.Context, id string, req domain.DriverRequest) (domain.Driver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Driver{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Driver{}, err
	}
	existing, err := s.repo.GetDriver(ctx, id)
	if err != nil {
		return domain.Driver{}, err
	}

	d := *existing
	d.Name = strings.TrimSpace(req.Name)
	d.Email = strings.TrimSpace(req.Email)
	d.Phone = strings.TrimSpace(req.Phone)
	updated, err := s.repo.UpdateDriver(ctx, d)
	if err != nil {
		return domain.Driver{}, err
	}
	s.logWrite(ctx, "update", "driver", updated.ID, nil)
	return *updated, nil
}

func (s *Service) DeleteDriver(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.repo.GetDriver(ctx, id); err != nil {
		return err
	}
	if err := s.ensureNoDependents(ctx, domain.EntityDriver, id); err != nil {
		return err
	}
	if err := s.repo.DeleteDriver(ctx, id); err != nil {
		return err
	}
	s.logWrite(ctx, "delete", "driver", id, nil)
	return nil
}

func (s *Service) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return s.repo.ListVendors(ctx)
}

func (s *Service) GetVendor(ctx context.Context, id string) (domain.Vendor, error) {
	v, err := s.repo.GetVendor(ctx, id)
	if err != nil {
		return domain.Vendor{}, err
	}
	return *v, nil
}

func (s *Service) CreateVendor(ctx context.Context, req domain.VendorRequest) (domain.Vendor, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Vendor{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Vendor{}, err
	}

	created, err := s.repo.CreateVendor(ctx, domain.Vendor{
		Name:    strings.TrimSpace(req.Name),
		Contact: strings.TrimSpace(req.Contact),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return domain.Vendor{}, err
	}
	s.logWrite(ctx, "create", "vendor", created.ID, nil)
	return *created, nil
}

func (s *Service) UpdateVendor(ctx context.Context, id string, req domain.VendorRequest) (domain.Vendor, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Vendor{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Vendor{}, err
	}
	existing, err := s.repo.GetVendor(ctx, id)
	if err != nil {
		return domain.Vendor{}, err
	}

	v := *existing
	v.Name = strings.TrimSpace(req.Name)
	v.Contact = strings.TrimSpace(req.Contact)
	v.Email = strings.TrimSpace(req.Email)
	v.Phone = strings.TrimSpace(req.Phone)
	updated, err := s.repo.UpdateVendor(ctx, v)
	if err != nil {
		return domain.Vendor{}, err
	}
	s.logWrite(ctx, "update", "vendor", updated.ID, nil)
	return *updated, nil
}

func (s *Service) DeleteVendor(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.repo.GetVendor(ctx, id); err != nil {
		return err
	}
	if err := s.ensureNoDependents(ctx, domain.EntityVendor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteVendor(ctx, id); err != nil {
		return err
	}
	s.logWrite(ctx, "delete", "vendor", id, nil)
	return nil
}

// AssignEmployee links an employee to a store. Assigning an existing pair
// returns the stored link with Duplicate set rather than an error.
func (s *Service) AssignEmployee(ctx context.Context, storeID string, req domain.AssignEmployeeRequest) (domain.StoreEmployeeResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.StoreEmployeeResponse{}, err
	}
	if err := s.check(req); err != nil {
		return domain.StoreEmployeeResponse{}, err
	}
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return domain.StoreEmployeeResponse{}, err
	}
	if _, err := s.repo.GetEmployee(ctx, req.EmployeeID); err != nil {
		return domain.StoreEmployeeResponse{}, err
	}

	var resp domain.StoreEmployeeResponse
	err := s.withLock(ctx, "store-employee:"+storeID+":"+req.EmployeeID, func() error {
		existing, err := s.repo.FindStoreEmployee(ctx, storeID, req.EmployeeID)
		if err == nil {
			resp = domain.StoreEmployeeResponse{Link: *existing, Duplicate: true}
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		created, err := s.repo.CreateStoreEmployee(ctx, domain.StoreEmployee{StoreID: storeID, EmployeeID: req.EmployeeID})
		if errors.Is(err, store.ErrUniqueConflict) {
			existing, findErr := s.repo.FindStoreEmployee(ctx, storeID, req.EmployeeID)
			if findErr != nil {
				return findErr
			}
			resp = domain.StoreEmployeeResponse{Link: *existing, Duplicate: true}
			return nil
		}
		if err != nil {
			return err
		}
		resp = domain.StoreEmployeeResponse{Link: *created}
		return nil
	})
	if err != nil {
		return domain.StoreEmployeeResponse{}, err
	}
	if !resp.Duplicate {
		s.logWrite(ctx, "assign", "store_employee", resp.Link.ID, logrus.Fields{"store_id": storeID, "employee_id": req.EmployeeID})
	}
	return resp, nil
}

func (s *Service) UnassignEmployee(ctx context.Context, storeID string, employeeID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteStoreEmployee(ctx, storeID, employeeID); err != nil {
		return err
	}
	s.logWrite(ctx, "unassign", "store_employee", storeID+"/"+employeeID, nil)
	return nil
}

func (s *Service) ListStoreEmployees(ctx context.Context, storeID string) ([]domain.StoreEmployee, error) {
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListStoreEmployees(ctx, storeID)
}

// AssignDriver mirrors AssignEmployee for drivers.
func (s *Service) AssignDriver(ctx context.Context, storeID string, req domain.AssignDriverRequest) (domain.StoreDriverResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.StoreDriverResponse{}, err
	}
	if err := s.check(req); err != nil {
		return domain.StoreDriverResponse{}, err
	}
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return domain.StoreDriverResponse{}, err
	}
	if _, err := s.repo.GetDriver(ctx, req.DriverID); err != nil {
		return domain.StoreDriverResponse{}, err
	}

	var resp domain.StoreDriverResponse
	err := s.withLock(ctx, "store-driver:"+storeID+":"+req.DriverID, func() error {
		existing, err := s.repo.FindStoreDriver(ctx, storeID, req.DriverID)
		if err == nil {
			resp = domain.StoreDriverResponse{Link: *existing, Duplicate: true}
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		created, err := s.repo.CreateStoreDriver(ctx, domain.StoreDriver{StoreID: storeID, DriverID: req.DriverID})
		if errors.Is(err, store.ErrUniqueConflict) {
			existing, findErr := s.repo.FindStoreDriver(ctx, storeID, req.DriverID)
			if findErr != nil {
				return findErr
			}
			resp = domain.StoreDriverResponse{Link: *existing, Duplicate: true}
			return nil
		}
		if err != nil {
			return err
		}
		resp = domain.StoreDriverResponse{Link: *created}
		return nil
	})
	if err != nil {
		return domain.StoreDriverResponse{}, err
	}
	if !resp.Duplicate {
		s.logWrite(ctx, "assign", "store_driver", resp.Link.ID, logrus.Fields{"store_id": storeID, "driver_id": req.DriverID})
	}
	return resp, nil
}

func (s *Service) UnassignDriver(ctx context.Context, storeID string, driverID string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteStoreDriver(ctx, storeID, driverID); err != nil {
		return err
	}
	s.logWrite(ctx, "unassign", "store_driver", storeID+"/"+driverID, nil)
	return nil
}

func (s *Service) ListStoreDrivers(ctx context.Context, storeID string) ([]domain.StoreDriver, error) {
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListStoreDrivers(ctx, storeID)
}
