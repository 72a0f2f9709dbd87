package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/service"
	"retailops/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil, nil, time.Minute, logger)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*", logger)
}

func login(t *testing.T, api *API, username string, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("login as %s failed, status %d", username, res.Code)
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return payload.AccessToken
}

func loginAsAdmin(t *testing.T, api *API) string {
	return login(t, api, "admin", "admin123")
}

func loginAsStaff(t *testing.T, api *API) string {
	return login(t, api, "staff", "user12345")
}

// call sends an authenticated JSON request and returns the recorder.
func call(t *testing.T, api *API, token string, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	res := call(t, api, "", http.MethodGet, "/healthz", nil)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	res := call(t, api, "", http.MethodPost, "/api/v1/auth/login", domain.LoginRequest{Username: "admin", Password: "wrongpassword"})

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestStoresRequireAuth(t *testing.T) {
	api := newTestAPI(t)
	res := call(t, api, "", http.MethodGet, "/api/v1/stores", nil)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}
}

func TestStaffCannotManageMasterData(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsStaff(t, api)

	res := call(t, api, token, http.MethodGet, "/api/v1/stores", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected staff to read stores, got %d", res.Code)
	}

	res = call(t, api, token, http.MethodPost, "/api/v1/vendors", domain.VendorRequest{Name: "Fresh Foods"})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff vendor create, got %d (body: %s)", res.Code, res.Body.String())
	}

	res = call(t, api, token, http.MethodGet, "/api/v1/payroll/run?currency=EUR&from=2026-01-01&to=2026-01-31", nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff payroll run, got %d", res.Code)
	}
}

func TestRecordSalesUpsertsPerDay(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsStaff(t, api)

	req := domain.SalesRequest{
		StoreID:       "store-dublin",
		Date:          "2026-03-02",
		Currency:      domain.CurrencyEUR,
		SalesChannels: domain.SalesChannels{Cash: 500, Online: 300},
		CashInTill:    480,
	}
	res := call(t, api, token, http.MethodPost, "/api/v1/sales", req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	req.CashInTill = 520
	res = call(t, api, token, http.MethodPost, "/api/v1/sales", req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 on overwrite, got %d (body: %s)", res.Code, res.Body.String())
	}
	var payload domain.SalesResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode sales response: %v", err)
	}
	if payload.Created {
		t.Fatalf("expected second post to update the existing row")
	}
	if payload.Sale.Difference != 20 {
		t.Fatalf("expected difference 20, got %d", payload.Sale.Difference)
	}

	res = call(t, api, token, http.MethodGet, "/api/v1/sales?store_id=store-dublin&currency=EUR", nil)
	var listed struct {
		Sales []domain.Sale `json:"sales"`
	}
	if err := json.NewDecoder(res.Body).Decode(&listed); err != nil {
		t.Fatalf("decode sales list: %v", err)
	}
	if len(listed.Sales) != 1 {
		t.Fatalf("expected one sales row, got %d", len(listed.Sales))
	}
}

func TestRecordSalesRejectsUnsupportedCurrency(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsStaff(t, api)

	res := call(t, api, token, http.MethodPost, "/api/v1/sales", domain.SalesRequest{
		StoreID:  "store-dublin",
		Date:     "2026-03-02",
		Currency: domain.CurrencyGBP,
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for GBP at a EUR-only store, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestAttendanceAndPayrollSummary(t *testing.T) {
	api := newTestAPI(t)
	staff := loginAsStaff(t, api)
	admin := loginAsAdmin(t, api)

	checkIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	res := call(t, api, staff, http.MethodPost, "/api/v1/attendance", domain.AttendanceRequest{
		EmployeeID: "emp-hourly",
		StoreID:    "store-dublin",
		CheckIn:    checkIn,
		CheckOut:   checkIn.Add(8 * time.Hour),
		Currency:   domain.CurrencyEUR,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	res = call(t, api, admin, http.MethodPost, "/api/v1/payments", domain.PaymentRequest{
		EmployeeID:    "emp-hourly",
		AmountPaid:    50,
		Currency:      domain.CurrencyEUR,
		PaymentMethod: domain.PaymentMethodCash,
		PaidDate:      "2026-03-06",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 for payment, got %d (body: %s)", res.Code, res.Body.String())
	}

	res = call(t, api, admin, http.MethodGet, "/api/v1/payroll/summary?employee_id=emp-hourly&currency=EUR&from=2026-03-01&to=2026-03-31", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}
	var payload struct {
		Summary domain.PayrollSummary `json:"summary"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if payload.Summary.Earned != 108 || payload.Summary.Paid != 50 || payload.Summary.Balance != 58 {
		t.Fatalf("unexpected totals %+v", payload.Summary.PayrollTotals)
	}
}

func TestAttendanceMissingRateIsUnprocessable(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsStaff(t, api)

	checkIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	res := call(t, api, token, http.MethodPost, "/api/v1/attendance", domain.AttendanceRequest{
		EmployeeID: "emp-fixed",
		StoreID:    "store-belfast",
		CheckIn:    checkIn,
		CheckOut:   checkIn.Add(4 * time.Hour),
		Currency:   domain.CurrencyGBP,
	})
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing GBP wage, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestExpensePayLifecycle(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAsAdmin(t, api)

	res := call(t, api, admin, http.MethodPost, "/api/v1/vendors", domain.VendorRequest{Name: "Fresh Foods"})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 for vendor, got %d (body: %s)", res.Code, res.Body.String())
	}
	var vendor struct {
		Vendor domain.Vendor `json:"vendor"`
	}
	_ = json.NewDecoder(res.Body).Decode(&vendor)

	res = call(t, api, admin, http.MethodPost, "/api/v1/expenses", domain.ExpenseRequest{
		StoreID:     "store-dublin",
		VendorID:    vendor.Vendor.ID,
		Currency:    domain.CurrencyEUR,
		Amount:      120,
		ExpenseDate: "2026-03-02",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 for expense, got %d (body: %s)", res.Code, res.Body.String())
	}
	var expense struct {
		Expense domain.Expense `json:"expense"`
	}
	_ = json.NewDecoder(res.Body).Decode(&expense)
	payPath := "/api/v1/expenses/" + expense.Expense.ID + "/pay"

	res = call(t, api, admin, http.MethodPost, payPath, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 on first pay, got %d (body: %s)", res.Code, res.Body.String())
	}

	res = call(t, api, admin, http.MethodPost, payPath, nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second pay, got %d", res.Code)
	}

	res = call(t, api, admin, http.MethodPost, payPath, domain.ExpensePayRequest{Idempotent: true})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 on idempotent pay, got %d", res.Code)
	}

	res = call(t, api, admin, http.MethodDelete, "/api/v1/vendors/"+vendor.Vendor.ID, nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting a vendor with expenses, got %d", res.Code)
	}
}

func TestAssignEmployeeTwiceReportsDuplicate(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAsAdmin(t, api)

	res := call(t, api, admin, http.MethodPost, "/api/v1/stores/store-belfast/employees", domain.AssignEmployeeRequest{EmployeeID: "emp-fixed"})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	res = call(t, api, admin, http.MethodPost, "/api/v1/stores/store-belfast/employees", domain.AssignEmployeeRequest{EmployeeID: "emp-fixed"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate assignment, got %d", res.Code)
	}
	var payload domain.StoreEmployeeResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode assignment: %v", err)
	}
	if !payload.Duplicate {
		t.Fatalf("expected duplicate flag to be set")
	}

	res = call(t, api, admin, http.MethodDelete, "/api/v1/stores/store-belfast/employees/emp-fixed", nil)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on unassign, got %d", res.Code)
	}
}

func TestGetUnknownStoreReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsStaff(t, api)

	res := call(t, api, token, http.MethodGet, "/api/v1/stores/nope", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
