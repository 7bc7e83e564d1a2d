package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/service"
)

// TreasuryHandler exposes the withdrawal and bank deposit ledger. All its
// routes sit behind the admin middleware.
type TreasuryHandler struct {
	Treasury *service.Treasury
}

func NewTreasuryHandler(treasury *service.Treasury) *TreasuryHandler {
	if treasury == nil {
		panic("nil treasury passed to NewTreasuryHandler")
	}
	return &TreasuryHandler{Treasury: treasury}
}

// CreateWithdrawal handles POST /v1/treasury/withdrawals.
func (h *TreasuryHandler) CreateWithdrawal(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Amount decimal.Decimal `json:"amount"`
		Notes  *string         `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	w, err := h.Treasury.RecordWithdrawal(c.Request().Context(), p, body.Amount, body.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, withdrawalResponse(w))
}

func withdrawalResponse(w *model.Withdrawal) echo.Map {
	return echo.Map{
		"id":         w.ID,
		"amount":     w.Amount,
		"admin_id":   w.AdminID,
		"notes":      w.Notes,
		"created_at": w.CreatedAt,
		"deposit_id": w.DepositID,
	}
}

func depositResponse(d *model.BankDeposit) echo.Map {
	return echo.Map{
		"id":        d.ID,
		"amount":    d.Amount,
		"date":      d.Date,
		"reference": d.Reference,
		"admin_id":  d.AdminID,
		"notes":     d.Notes,
	}
}

// CreateDeposit handles POST /v1/treasury/deposits: the deposit and the
// links to its withdrawals are created atomically.
func (h *TreasuryHandler) CreateDeposit(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Amount        decimal.Decimal `json:"amount"`
		Date          time.Time       `json:"date"`
		WithdrawalIDs []uint64        `json:"withdrawal_ids"`
		Reference     *string         `json:"reference"`
		Notes         *string         `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	d, err := h.Treasury.RecordDeposit(c.Request().Context(), p, body.Amount, body.Date,
		body.WithdrawalIDs, body.Reference, body.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, depositResponse(d))
}

// ListDeposits handles GET /v1/treasury/deposits.
func (h *TreasuryHandler) ListDeposits(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	deposits, err := h.Treasury.Deposits(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]echo.Map, 0, len(deposits))
	for i := range deposits {
		items = append(items, depositResponse(&deposits[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// PendingWithdrawals handles GET /v1/treasury/withdrawals/pending. The
// total is the outstanding-cash KPI: money out of the drawer but not yet in
// the bank.
func (h *TreasuryHandler) PendingWithdrawals(c echo.Context) error {
	pending, total, err := h.Treasury.Pending(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	items := make([]echo.Map, 0, len(pending))
	for i := range pending {
		items = append(items, withdrawalResponse(&pending[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
	})
}
