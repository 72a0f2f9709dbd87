package httpapi

import (
	"errors"
	"io"
	"net/http"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		limit := parsePositiveLimit(q.Get("limit"), defaultListLimit, maxListLimit)
		sales, err := a.service.ListSales(r.Context(), q.Get("store_id"), q.Get("currency"), q.Get("from"), q.Get("to"), limit)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
	case http.MethodPost:
		var req domain.SalesRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.RecordSales(r.Context(), req)
		if err != nil {
			a.fail(w, err)
			return
		}
		status := http.StatusOK
		if resp.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, resp)
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"sales/")
	if len(parts) != 1 || parts[0] == "" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown sales action"))
		return
	}
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	if parts[0] == "summary" {
		summary, err := a.service.SalesSummary(r.Context(), q.Get("store_id"), q.Get("currency"), q.Get("from"), q.Get("to"))
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
		return
	}

	sale, err := a.service.GetSale(r.Context(), parts[0])
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		expenses, err := a.service.ListExpenses(r.Context(), store.ExpenseFilter{
			StoreID:  q.Get("store_id"),
			VendorID: q.Get("vendor_id"),
			Currency: domain.Currency(q.Get("currency")),
			Status:   domain.ExpenseStatus(q.Get("status")),
			Limit:    parsePositiveLimit(q.Get("limit"), defaultListLimit, maxListLimit),
		}, q.Get("from"), q.Get("to"))
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
	case http.MethodPost:
		var req domain.ExpenseRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		expense, err := a.service.CreateExpense(r.Context(), req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleExpenseActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"expenses/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		switch r.Method {
		case http.MethodGet:
			expense, err := a.service.GetExpense(r.Context(), parts[0])
			if err != nil {
				a.fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"expense": expense})
		case http.MethodPut:
			var req domain.ExpenseRequest
			if err := decodeJSON(r, &req); err != nil {
				a.writeError(w, http.StatusBadRequest, err)
				return
			}
			expense, err := a.service.UpdateExpense(r.Context(), parts[0], req)
			if err != nil {
				a.fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"expense": expense})
		default:
			a.writeMethodNotAllowed(w)
		}
	case len(parts) == 2 && parts[1] == "pay":
		if r.Method != http.MethodPost {
			a.writeMethodNotAllowed(w)
			return
		}
		// The body is optional; an empty one means a strict settlement.
		var req domain.ExpensePayRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		expense, err := a.service.PayExpense(r.Context(), parts[0], req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expense": expense})
	default:
		a.writeError(w, http.StatusNotFound, errors.New("unknown expense action"))
	}
}

func (a *API) handleAttendance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rows, err := a.service.ListAttendance(r.Context(), store.AttendanceFilter{
			EmployeeID: q.Get("employee_id"),
			StoreID:    q.Get("store_id"),
			Currency:   domain.Currency(q.Get("currency")),
			Limit:      parsePositiveLimit(q.Get("limit"), defaultListLimit, maxListLimit),
		}, q.Get("from"), q.Get("to"))
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attendance": rows})
	case http.MethodPost:
		var req domain.AttendanceRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		row, err := a.service.RecordAttendance(r.Context(), req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"attendance": row})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleAttendanceActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"attendance/")
	if len(parts) != 1 || parts[0] == "" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown attendance action"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		row, err := a.service.GetAttendance(r.Context(), parts[0])
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attendance": row})
	case http.MethodPut:
		var req domain.AttendanceRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		row, err := a.service.UpdateAttendance(r.Context(), parts[0], req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attendance": row})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rows, err := a.service.ListDeliveries(r.Context(), store.DeliveryFilter{
			DriverID: q.Get("driver_id"),
			StoreID:  q.Get("store_id"),
			Currency: domain.Currency(q.Get("currency")),
			Limit:    parsePositiveLimit(q.Get("limit"), defaultListLimit, maxListLimit),
		}, q.Get("from"), q.Get("to"))
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deliveries": rows})
	case http.MethodPost:
		var req domain.DeliveryRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := a.service.RecordDelivery(r.Context(), req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"delivery": d})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleDeliveryActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"deliveries/")
	if len(parts) != 1 || parts[0] == "" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown delivery action"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		d, err := a.service.GetDelivery(r.Context(), parts[0])
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"delivery": d})
	case http.MethodPut:
		var req domain.DeliveryRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := a.service.UpdateDelivery(r.Context(), parts[0], req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"delivery": d})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		payments, err := a.service.ListPayments(r.Context(), store.PaymentFilter{
			EmployeeID: q.Get("employee_id"),
			Currency:   domain.Currency(q.Get("currency")),
			Limit:      parsePositiveLimit(q.Get("limit"), defaultListLimit, maxListLimit),
		}, q.Get("from"), q.Get("to"))
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
	case http.MethodPost:
		var req domain.PaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		payment, err := a.service.RecordPayment(r.Context(), req)
		if err != nil {
			a.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"payment": payment})
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handlePaymentActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r, apiPrefix+"payments/")
	if len(parts) != 1 || parts[0] == "" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown payment action"))
		return
	}
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	payment, err := a.service.GetPayment(r.Context(), parts[0])
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
}

func (a *API) handlePayrollSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	summary, err := a.service.PayrollSummary(r.Context(), q.Get("employee_id"), q.Get("currency"), q.Get("from"), q.Get("to"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (a *API) handlePayrollRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	run, err := a.service.PayrollRun(r.Context(), q.Get("currency"), q.Get("from"), q.Get("to"), q.Get("store_id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
