package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/repository/memory"
	"github.com/mamadbah2/salestracker/internal/service/tracker"
)

type brokenLedger struct{}

func (brokenLedger) ListAll(context.Context) ([]models.RawSale, error) {
	return nil, &models.TransportError{Op: "list", Err: errors.New("connection refused")}
}

func (brokenLedger) Append(context.Context, models.SaleRecord) error {
	return errors.New("connection refused")
}

func (brokenLedger) Remove(context.Context, int64) error {
	return errors.New("connection refused")
}

func seedSales() []models.SaleRecord {
	return []models.SaleRecord{
		{ID: 1, Date: "2024-01-01", ItemName: "Bag", CashPrice: 10, Capital: 4, Quantity: 3},
		{ID: 2, Date: "2024-01-02", ItemName: "Hat", CashPrice: 20, OnlinePrice: 5, Capital: 10, Quantity: 2},
	}
}

func newTestEngine(t *testing.T, ledger tracker.Ledger) (*gin.Engine, *tracker.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := tracker.NewService(ledger, 0, time.UTC, nil)
	_, _ = svc.Refresh(context.Background())
	h := NewSalesHandler(svc, 5*time.Second, nil)

	r := gin.New()
	r.SetHTMLTemplate(Templates())
	r.GET("/", h.Page)
	r.POST("/sales", h.CreateForm)
	r.POST("/sales/:id/delete", h.DeleteForm)
	r.POST("/refresh", h.RefreshForm)
	r.GET("/api/sales", h.ListSales)
	r.POST("/api/sales", h.CreateSale)
	r.DELETE("/api/sales/:id", h.DeleteSale)
	r.POST("/api/refresh", h.Refresh)
	r.GET("/api/totals", h.Totals)
	return r, svc
}

func perform(r http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPage_RendersTotalsAndRows(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodGet, "/?date=2024-01-02", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "Today (2024-01-02)")
	assert.Contains(t, page, "$80.00")
	assert.Contains(t, page, "$50.00")
	assert.Contains(t, page, `action="/sales/1/delete"`)
	assert.Contains(t, page, "confirm(")
}

func TestCreateForm_RedirectsAfterSettle(t *testing.T) {
	r, svc := newTestEngine(t, memory.NewLedger(nil))

	form := url.Values{
		"date":      {"2024-01-03"},
		"itemName":  {"Scarf"},
		"cashPrice": {"12"},
		"capital":   {"7"},
		"quantity":  {"2"},
	}
	w := perform(r, http.MethodPost, "/sales", "application/x-www-form-urlencoded", form.Encode())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	st := svc.Snapshot()
	require.Len(t, st.Sales, 1)
	assert.Equal(t, "Scarf", st.Sales[0].ItemName)
	assert.Equal(t, 10.0, st.Sales[0].Profit)
	assert.Equal(t, "Sale added successfully!", st.Message)
}

func TestCreateForm_ValidationRendersPage(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(nil))

	form := url.Values{"itemName": {"Scarf"}, "capital": {"7"}}
	w := perform(r, http.MethodPost, "/sales", "application/x-www-form-urlencoded", form.Encode())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter at least one price (cash or online)")
}

func TestDeleteForm(t *testing.T) {
	r, svc := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodPost, "/sales/1/delete", "", "")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	st := svc.Snapshot()
	require.Len(t, st.Sales, 1)
	assert.Equal(t, int64(2), st.Sales[0].ID)
	assert.Equal(t, "Sale deleted successfully!", st.Message)
}

func TestDeleteForm_InvalidID(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodPost, "/sales/abc/delete", "", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), tracker.ErrInvalidID.Error())
}

func TestRefreshForm_LedgerDown(t *testing.T) {
	r, _ := newTestEngine(t, brokenLedger{})

	w := perform(r, http.MethodPost, "/refresh", "", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error loading data:")
}

func TestAPI_ListSalesByDate(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodGet, "/api/sales?date=2024-01-02", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeState(t, w)
	sales := body["sales"].([]interface{})
	require.Len(t, sales, 1)
	assert.Equal(t, "Hat", sales[0].(map[string]interface{})["itemName"])
	assert.Equal(t, 50.0, body["dailyTotals"].(map[string]interface{})["totalSales"])
	assert.Equal(t, 80.0, body["totals"].(map[string]interface{})["totalSales"])
}

func TestAPI_ListSalesNoMatch(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodGet, "/api/sales?date=1999-01-01", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeState(t, w)
	assert.Empty(t, body["sales"])
	assert.NotNil(t, body["sales"])
}

func TestAPI_Totals(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodGet, "/api/totals?date=2024-01-01", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"date": "2024-01-01",
		"totals": {"totalSales":80,"totalCapital":32,"totalProfit":48,"totalCash":70,"totalOnline":10},
		"daily": {"totalSales":30,"totalCapital":12,"totalProfit":18,"totalCash":30,"totalOnline":0}
	}`, w.Body.String())
}

func TestAPI_CreateSale(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(nil))

	w := perform(r, http.MethodPost, "/api/sales", "application/json",
		`{"date":"2024-01-01","itemName":"Bag","cashPrice":10,"onlinePrice":"","capital":"4","quantity":3}`)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeState(t, w)
	assert.NotZero(t, body["id"])
	assert.Equal(t, "Sale added successfully!", body["message"])
	assert.Equal(t, 18.0, body["totals"].(map[string]interface{})["totalProfit"])
}

func TestAPI_CreateSaleValidation(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(nil))

	w := perform(r, http.MethodPost, "/api/sales", "application/json", `{"cashPrice":10}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeState(t, w)
	assert.Equal(t, "Please fill in item name and capital", body["error"])
	assert.Equal(t, "itemName", body["field"])
}

func TestAPI_CreateSaleMalformedBody(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(nil))

	w := perform(r, http.MethodPost, "/api/sales", "application/json", `{"itemName":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_CreateSaleLedgerDown(t *testing.T) {
	r, _ := newTestEngine(t, brokenLedger{})

	w := perform(r, http.MethodPost, "/api/sales", "application/json",
		`{"itemName":"Bag","cashPrice":10,"capital":4}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAPI_DeleteSale(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	w := perform(r, http.MethodDelete, "/api/sales/2", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeState(t, w)
	assert.Len(t, body["sales"], 1)
	assert.Equal(t, "Sale deleted successfully!", body["message"])
}

func TestAPI_DeleteSaleInvalidID(t *testing.T) {
	r, _ := newTestEngine(t, memory.NewLedger(seedSales()))

	for _, target := range []string{"/api/sales/abc", "/api/sales/0"} {
		w := perform(r, http.MethodDelete, target, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestAPI_RefreshLedgerDown(t *testing.T) {
	r, _ := newTestEngine(t, brokenLedger{})

	w := perform(r, http.MethodPost, "/api/refresh", "", "")

	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeState(t, w)
	assert.Contains(t, body["error"], "connection refused")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&models.ValidationError{Field: "capital", Message: "x"}))
	assert.Equal(t, http.StatusBadRequest, statusFor(tracker.ErrInvalidID))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusBadGateway, statusFor(&models.TransportError{Op: "list", Err: errors.New("eof")}))
}
