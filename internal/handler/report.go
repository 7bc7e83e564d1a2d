package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/money"
	"github.com/matteoriva/cinecassa/internal/service"
)

// ReportHandler exposes the cash report lifecycle.
type ReportHandler struct {
	Lifecycle *service.ReportLifecycle
}

func NewReportHandler(lifecycle *service.ReportLifecycle) *ReportHandler {
	if lifecycle == nil {
		panic("nil lifecycle passed to NewReportHandler")
	}
	return &ReportHandler{Lifecycle: lifecycle}
}

// OpenReport handles POST /v1/shows/:id/report. The counted opening cash is
// validated against the expected float before anything is written.
func (h *ReportHandler) OpenReport(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		OpeningCash money.Breakdown `json:"opening_cash"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	report, err := h.Lifecycle.Open(c.Request().Context(), p, showID, body.OpeningCash)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, reportResponse(report))
}

// reportResponse shapes a cash report for the wire. Closing fields appear
// only once the report is closed.
func reportResponse(r *model.CashReport) echo.Map {
	resp := echo.Map{
		"id":            r.ID,
		"show_id":       r.ShowID,
		"operator_id":   r.OperatorID,
		"opening_cash":  r.OpeningCash,
		"opening_total": r.OpeningCash.Total(),
		"opening_at":    r.OpeningAt,
		"closed":        r.Closed(),
	}
	if r.Closed() {
		resp["closing_cash"] = r.ClosingCash
		resp["closing_total"] = r.ClosingCash.Total()
		resp["closing_at"] = r.ClosingAt
		resp["pos_total"] = r.POSTotal.Decimal
		resp["ticket_total"] = r.TicketTotal.Decimal
		resp["subscription_total"] = r.SubscriptionTotal.Decimal
	}
	return resp
}

// CloseReport handles POST /v1/reports/:id/close. The reconciliation is
// returned in the response; only the raw figures are persisted.
func (h *ReportHandler) CloseReport(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reportID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report id"})
	}
	var body struct {
		ClosingCash       money.Breakdown `json:"closing_cash"`
		POSTotal          decimal.Decimal `json:"pos_total"`
		TicketTotal       decimal.Decimal `json:"ticket_total"`
		SubscriptionTotal decimal.Decimal `json:"subscription_total"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	rec, err := h.Lifecycle.Close(c.Request().Context(), p, reportID,
		body.ClosingCash, body.POSTotal, body.TicketTotal, body.SubscriptionTotal)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// GetReport handles GET /v1/shows/:id/report.
func (h *ReportHandler) GetReport(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	report, err := h.Lifecycle.Report(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, reportResponse(report))
}

// SuggestFigures handles GET /v1/shows/:id/report/suggest and pre-fills the
// opening/closing forms with the expected float and the scraped sales
// totals. A scrape failure is reported as manual_entry_required, never as a
// request failure.
func (h *ReportHandler) SuggestFigures(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	s, err := h.Lifecycle.Suggest(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
