package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/aggregation"
	"github.com/mamadbah2/salestracker/internal/service/tracker"
)

const pageTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the HTML pages served by SalesHandler.
func Templates() *template.Template {
	return template.Must(template.New(pageTemplate).
		Funcs(template.FuncMap{"amount": models.FormatAmount}).
		ParseFS(templateFS, "templates/*.html"))
}

// Tracker is the sales state the handlers read and drive.
type Tracker interface {
	Snapshot() tracker.State
	SelectDate(date string) tracker.State
	Refresh(ctx context.Context) (tracker.State, error)
	AddSale(ctx context.Context, form models.SaleForm) (tracker.Pending, error)
	DeleteSale(ctx context.Context, id int64) (tracker.Pending, error)
	Settle(ctx context.Context, p tracker.Pending) (tracker.State, error)
}

// SalesHandler serves the sales page, its form actions and the JSON API.
type SalesHandler struct {
	tracker       Tracker
	settleTimeout time.Duration
	logger        *zap.Logger
}

// NewSalesHandler constructs the HTTP handler adapter. settleTimeout bounds
// the wait-and-reload that follows every write.
func NewSalesHandler(t Tracker, settleTimeout time.Duration, logger *zap.Logger) *SalesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesHandler{tracker: t, settleTimeout: settleTimeout, logger: logger}
}

type pageView struct {
	SelectedDate string
	Sales        []models.DerivedSale
	Totals       models.Totals
	Daily        models.Totals
	Loading      bool
	Status       string
	Failed       bool
	LoadedAt     time.Time
}

func newPageView(st tracker.State) pageView {
	return pageView{
		SelectedDate: st.SelectedDate,
		Sales:        st.Sales,
		Totals:       st.Totals(),
		Daily:        st.DailyTotals(),
		Loading:      st.Loading(),
		Status:       st.Message,
		Failed:       st.Err != "",
		LoadedAt:     st.LoadedAt,
	}
}

// Page renders the sales page. A date query selects the day for the daily totals.
func (h *SalesHandler) Page(c *gin.Context) {
	st := h.tracker.Snapshot()
	if date, ok := c.GetQuery("date"); ok {
		st = h.tracker.SelectDate(date)
	}
	c.HTML(http.StatusOK, pageTemplate, newPageView(st))
}

// CreateForm handles the add-sale form and redirects back to the page once the write settled.
func (h *SalesHandler) CreateForm(c *gin.Context) {
	var form models.SaleForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Warn("invalid sale form", zap.Error(err))
		h.renderError(c, http.StatusBadRequest, "invalid form submission")
		return
	}

	p, err := h.tracker.AddSale(c.Request.Context(), form)
	if err != nil {
		h.renderError(c, statusFor(err), err.Error())
		return
	}

	h.settle(c, p)
	c.Redirect(http.StatusSeeOther, "/")
}

// DeleteForm handles the per-row delete button.
func (h *SalesHandler) DeleteForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, http.StatusBadRequest, tracker.ErrInvalidID.Error())
		return
	}

	p, err := h.tracker.DeleteSale(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, statusFor(err), err.Error())
		return
	}

	h.settle(c, p)
	c.Redirect(http.StatusSeeOther, "/")
}

// RefreshForm reloads the ledger and redirects back to the page.
func (h *SalesHandler) RefreshForm(c *gin.Context) {
	if _, err := h.tracker.Refresh(c.Request.Context()); err != nil {
		h.renderError(c, statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ListSales returns the cached sales, restricted to one day when date is given.
func (h *SalesHandler) ListSales(c *gin.Context) {
	st := h.tracker.Snapshot()
	resp := newStateResponse(st)

	if date := c.Query("date"); date != "" {
		resp.SelectedDate = date
		resp.Sales = aggregation.FilterByDate(st.Sales, date)
		resp.DailyTotals = aggregation.Aggregate(resp.Sales)
		if resp.Sales == nil {
			resp.Sales = []models.DerivedSale{}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Totals returns the grand totals and the totals of one day.
func (h *SalesHandler) Totals(c *gin.Context) {
	st := h.tracker.Snapshot()
	date := c.Query("date")
	if date == "" {
		date = st.SelectedDate
	}

	c.JSON(http.StatusOK, totalsResponse{
		Date:   date,
		Totals: st.Totals(),
		Daily:  aggregation.AggregateByDate(st.Sales, date),
	})
}

// CreateSale accepts a JSON sale, waits for it to settle and returns the reloaded state.
func (h *SalesHandler) CreateSale(c *gin.Context) {
	var form models.SaleForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.tracker.AddSale(c.Request.Context(), form)
	if err != nil {
		h.writeError(c, err)
		return
	}

	st, err := h.settle(c, p)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := newStateResponse(st)
	resp.ID = p.ID
	c.JSON(http.StatusCreated, resp)
}

// DeleteSale removes a sale by id and returns the reloaded state.
func (h *SalesHandler) DeleteSale(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.writeError(c, tracker.ErrInvalidID)
		return
	}

	p, err := h.tracker.DeleteSale(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	st, err := h.settle(c, p)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newStateResponse(st))
}

// Refresh reloads the ledger and returns the new state.
func (h *SalesHandler) Refresh(c *gin.Context) {
	st, err := h.tracker.Refresh(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(st))
}

// settle waits for p outside the request's cancellation so a client that
// disconnects does not leave the write pending.
func (h *SalesHandler) settle(c *gin.Context, p tracker.Pending) (tracker.State, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.settleTimeout)
	defer cancel()

	st, err := h.tracker.Settle(ctx, p)
	if err != nil {
		h.logger.Warn("write did not settle", zap.String("op", string(p.Op)), zap.Int64("id", p.ID), zap.Error(err))
	}
	return st, err
}

// renderError shows the page with the tracker's own error line, or fallback
// when the failure never reached the tracker state.
func (h *SalesHandler) renderError(c *gin.Context, status int, fallback string) {
	view := newPageView(h.tracker.Snapshot())
	if !view.Failed {
		view.Failed = true
		view.Status = fallback
	}
	c.HTML(status, pageTemplate, view)
}

func (h *SalesHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body["error"] = verr.Message
		body["field"] = verr.Field
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("sales request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, tracker.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type stateResponse struct {
	ID           int64                `json:"id,omitempty"`
	SelectedDate string               `json:"selectedDate"`
	Sales        []models.DerivedSale `json:"sales"`
	Totals       models.Totals        `json:"totals"`
	DailyTotals  models.Totals        `json:"dailyTotals"`
	Loading      bool                 `json:"loading"`
	Message      string               `json:"message,omitempty"`
	Error        string               `json:"error,omitempty"`
	LoadedAt     time.Time            `json:"loadedAt"`
}

func newStateResponse(st tracker.State) stateResponse {
	sales := st.Sales
	if sales == nil {
		sales = []models.DerivedSale{}
	}
	return stateResponse{
		SelectedDate: st.SelectedDate,
		Sales:        sales,
		Totals:       st.Totals(),
		DailyTotals:  st.DailyTotals(),
		Loading:      st.Loading(),
		Message:      st.Message,
		Error:        st.Err,
		LoadedAt:     st.LoadedAt,
	}
}

type totalsResponse struct {
	Date   string        `json:"date"`
	Totals models.Totals `json:"totals"`
	Daily  models.Totals `json:"daily"`
}
