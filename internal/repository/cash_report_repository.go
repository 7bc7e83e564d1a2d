package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/money"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// CashReportRepo manages persistence for cash reports. Denomination
// breakdowns are stored as JSON documents; monetary totals as DECIMAL
// columns, never floats.
type CashReportRepo struct {
	db *sql.DB
}

// NewCashReportRepo constructs a CashReportRepo with the given DB handle.
func NewCashReportRepo(db *sql.DB) *CashReportRepo {
	return &CashReportRepo{db: db}
}

const reportColumns = `id, show_id, operator_id, opening_cash, opening_at,
	closing_cash, closing_at, pos_total, ticket_total, subscription_total`

func scanReport(row interface{ Scan(...any) error }) (*model.CashReport, error) {
	var (
		r          model.CashReport
		openingRaw []byte
		closingRaw []byte
	)
	err := row.Scan(&r.ID, &r.ShowID, &r.OperatorID, &openingRaw, &r.OpeningAt,
		&closingRaw, &r.ClosingAt, &r.POSTotal, &r.TicketTotal, &r.SubscriptionTotal)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(openingRaw, &r.OpeningCash); err != nil {
		return nil, err
	}
	if closingRaw != nil {
		var closing money.Breakdown
		if err := json.Unmarshal(closingRaw, &closing); err != nil {
			return nil, err
		}
		r.ClosingCash = &closing
	}
	return &r, nil
}

// Open inserts a new open report for a show, enforcing the single-drawer
// invariant at the database: the conditional insert only succeeds when no
// report anywhere has a null closing time. This makes the check safe across
// concurrent requests and across server instances; no in-process lock is
// involved. A unique key on show_id rejects a second report for the same
// show even after the first one closed.
func (r *CashReportRepo) Open(ctx context.Context, report *model.CashReport) error {
	openingRaw, err := json.Marshal(report.OpeningCash)
	if err != nil {
		return err
	}
	const q = `INSERT INTO cash_reports (show_id, operator_id, opening_cash, opening_at)
               SELECT ?, ?, ?, ?
               FROM DUAL
               WHERE NOT EXISTS (SELECT 1 FROM cash_reports WHERE closing_at IS NULL)`
	res, err := r.db.ExecContext(ctx, q, report.ShowID, report.OperatorID, openingRaw, report.OpeningAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrShowHasReport
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOpenReportExists
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	report.ID = uint64(id)
	return nil
}

// GetByID retrieves a report by its ID, returning ErrReportNotFound when
// absent.
func (r *CashReportRepo) GetByID(ctx context.Context, id uint64) (*model.CashReport, error) {
	const q = `SELECT ` + reportColumns + ` FROM cash_reports WHERE id = ?`
	report, err := scanReport(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return report, err
}

// GetByShowID retrieves the report belonging to a show.
func (r *CashReportRepo) GetByShowID(ctx context.Context, showID uint64) (*model.CashReport, error) {
	const q = `SELECT ` + reportColumns + ` FROM cash_reports WHERE show_id = ?`
	report, err := scanReport(r.db.QueryRowContext(ctx, q, showID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return report, err
}

// Close sets all closing fields in a single guarded UPDATE so the terminal
// transition is atomic. When no row changes, the report is either missing or
// already closed, distinguished by a follow-up read.
func (r *CashReportRepo) Close(ctx context.Context, id uint64, closing money.Breakdown,
	posTotal, ticketTotal, subscriptionTotal decimal.Decimal, closedAt time.Time) error {

	closingRaw, err := json.Marshal(closing)
	if err != nil {
		return err
	}
	const q = `UPDATE cash_reports
               SET closing_cash = ?, closing_at = ?, pos_total = ?, ticket_total = ?, subscription_total = ?
               WHERE id = ? AND closing_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, closingRaw, closedAt, posTotal, ticketTotal, subscriptionTotal, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM cash_reports WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReportNotFound
	}
	if err != nil {
		return err
	}
	return ErrReportClosed
}

// LastClosedByShowTime returns the closed report of the most recently
// scheduled show, together with that show's start time — the anchor for the
// expected opening float. Ordering is by the show's scheduled datetime, not
// by closing timestamp: withdrawals are anchored to show time because cash
// can leave the drawer between the show ending and the report being closed.
// When no closed report exists it returns (nil, zero, nil) and the opening
// is unconstrained.
func (r *CashReportRepo) LastClosedByShowTime(ctx context.Context) (*model.CashReport, time.Time, error) {
	const q = `SELECT cr.id, cr.show_id, cr.operator_id, cr.opening_cash, cr.opening_at,
                      cr.closing_cash, cr.closing_at, cr.pos_total, cr.ticket_total, cr.subscription_total,
                      s.starts_at
               FROM cash_reports cr
               JOIN shows s ON s.id = cr.show_id
               WHERE cr.closing_at IS NOT NULL
               ORDER BY s.starts_at DESC
               LIMIT 1`
	row := r.db.QueryRowContext(ctx, q)

	var (
		report     model.CashReport
		openingRaw []byte
		closingRaw []byte
		showTime   time.Time
	)
	err := row.Scan(&report.ID, &report.ShowID, &report.OperatorID, &openingRaw, &report.OpeningAt,
		&closingRaw, &report.ClosingAt, &report.POSTotal, &report.TicketTotal, &report.SubscriptionTotal,
		&showTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := json.Unmarshal(openingRaw, &report.OpeningCash); err != nil {
		return nil, time.Time{}, err
	}
	var closing money.Breakdown
	if err := json.Unmarshal(closingRaw, &closing); err != nil {
		return nil, time.Time{}, err
	}
	report.ClosingCash = &closing
	return &report, showTime, nil
}
