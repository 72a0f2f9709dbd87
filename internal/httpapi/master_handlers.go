package httpapi

import (
	"context"
	"errors"
	"net/http"

	"retailops/backend/internal/domain"
)

// entityRoutes binds the CRUD endpoints of one master-data entity.
type entityRoutes[T any, R any] struct {
	single string
	plural string
	list   func(ctx context.Context) ([]T, error)
	get    func(ctx context.Context, id string) (T, error)
	create func(ctx context.Context, req R) (T, error)
	update func(ctx context.Context, id string, req R) (T, error)
	remove func(ctx context.Context, id string) error
}

func serveCollection[T any, R any](a *API, w http.ResponseWriter, r *http.Request, routes entityRoutes[T, R]) {
	switch r.Method {
	case http.MethodGet:
		items, err := routes.list(r.Context())
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{routes.plural: items})
	case http.MethodPost:
		var req R
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := routes.create(r.Context(), req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{routes.single: created})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func serveItem[T any, R any](a *API, w http.ResponseWriter, r *http.Request, id string, routes entityRoutes[T, R]) {
	switch r.Method {
	case http.MethodGet:
		item, err := routes.get(r.Context(), id)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{routes.single: item})
	case http.MethodPut:
		var req R
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := routes.update(r.Context(), id, req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{routes.single: updated})
	case http.MethodDelete:
		if err := routes.remove(r.Context(), id); err != nil {
			a.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) storeRoutes() entityRoutes[domain.Store, domain.StoreRequest] {
	return entityRoutes[domain.Store, domain.StoreRequest]{
		single: "store", plural: "stores",
		list: a.service.ListStores, get: a.service.GetStore,
		create: a.service.CreateStore, update: a.service.UpdateStore, remove: a.service.DeleteStore,
	}
}

func (a *API) employeeRoutes() entityRoutes[domain.Employee, domain.EmployeeRequest] {
	return entityRoutes[domain.Employee, domain.EmployeeRequest]{
		single: "employee", plural: "employees",
		list: a.service.ListEmployees, get: a.service.GetEmployee,
		create: a.service.CreateEmployee, update: a.service.UpdateEmployee, remove: a.service.DeleteEmployee,
	}
}

func (a *API) driverRoutes() entityRoutes[domain.Driver, domain.DriverRequest] {
	return entityRoutes[domain.Driver, domain.DriverRequest]{
		single: "driver", plural: "drivers",
		list: a.service.ListDrivers, get: a.service.GetDriver,
		create: a.service.CreateDriver, update: a.service.UpdateDriver, remove: a.service.DeleteDriver,
	}
}

func (a *API) vendorRoutes() entityRoutes[domain.Vendor, domain.VendorRequest] {
	return entityRoutes[domain.Vendor, domain.VendorRequest]{
		single: "vendor", plural: "vendors",
		list: a.service.ListVendors, get: a.service.GetVendor,
		create: a.service.CreateVendor, update: a.service.UpdateVendor, remove: a.service.DeleteVendor,
	}
}

func (a *API) handleStores(w http.ResponseWriter, r *http.Request) {
	serveCollection(a, w, r, a.storeRoutes())
}

func (a *API) handleStoreActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"stores/")
	switch {
	case len(parts) == 0 || parts[0] == "":
		a.writeError(w, http.StatusBadRequest, errors.New("store id required"))
	case len(parts) == 1:
		serveItem(a, w, r, parts[0], a.storeRoutes())
	case parts[1] == "employees" && len(parts) <= 3:
		a.handleStoreEmployees(w, r, parts[0], parts[2:])
	case parts[1] == "drivers" && len(parts) <= 3:
		a.handleStoreDrivers(w, r, parts[0], parts[2:])
	default:
		a.writeError(w, http.StatusNotFound, errors.New("unknown store action"))
	}
}

func (a *API) handleStoreEmployees(w http.ResponseWriter, r *http.Request, storeID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		links, err := a.service.ListStoreEmployees(r.Context(), storeID)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"employees": links})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req domain.AssignEmployeeRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.AssignEmployee(r.Context(), storeID, req)
		if err != nil {
			a.fail(w, err)
			return
		}
		status := http.StatusCreated
		if resp.Duplicate {
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := a.service.UnassignEmployee(r.Context(), storeID, rest[0]); err != nil {
			a.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleStoreDrivers(w http.ResponseWriter, r *http.Request, storeID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		links, err := a.service.ListStoreDrivers(r.Context(), storeID)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"drivers": links})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req domain.AssignDriverRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.AssignDriver(r.Context(), storeID, req)
		if err != nil {
			a.fail(w, err)
			return
		}
		status := http.StatusCreated
		if resp.Duplicate {
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := a.service.UnassignDriver(r.Context(), storeID, rest[0]); err != nil {
			a.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleEmployees(w http.ResponseWriter, r *http.Request) {
	serveCollection(a, w, r, a.employeeRoutes())
}

func (a *API) handleEmployeeActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"employees/")
	if len(parts) != 1 || parts[0] == "" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown employee action"))
		return
	}
	serveItem(a, w, r, parts[0], a.employeeRoutes())
}

func (a *API) handleDrivers(w http.ResponseWriter, r *http.Request) {
	serveCollection(a, w, r, a.driverRoutes())
}

func (a *API) handleDriverActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"drivers/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		serveItem(a, w, r, parts[0], a.driverRoutes())
	case len(parts) == 2 && parts[1] == "summary":
		if r.Method != http.MethodGet {
			a.writeMethodNotAllowed(w)
			return
		}
		q := r.URL.Query()
		summary, err := a.service.DriverSummary(r.Context(), parts[0], q.Get("currency"), q.Get("from"), q.Get("to"))
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
	default:
		a.writeError(w, http.StatusNotFound, errors.New("unknown driver action"))
	}
}

func (a *API) handleVendors(w http.ResponseWriter, r *http.Request) {
	serveCollection(a, w, r, a.vendorRoutes())
}

func (a *API) handleVendorActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"vendors/")
	if len(parts) != 1 || parts[0] == "" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown vendor action"))
		return
	}
	serveItem(a, w, r, parts[0], a.vendorRoutes())
}
