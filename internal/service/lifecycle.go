// Package service implements the business operations of the cash subsystem:
// the cash report state machine, the withdrawal/deposit treasury and the
// schedule-change notifier. Services depend on narrow store interfaces so
// tests can substitute in-memory fakes for the MySQL repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/ledger"
	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/money"
	"github.com/matteoriva/cinecassa/internal/repository"
	"github.com/matteoriva/cinecassa/internal/scraper"
)

// ValidationError rejects bad input before any mutation. Field names the
// offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ReportStore is the persistence surface the lifecycle needs for reports.
type ReportStore interface {
	Open(ctx context.Context, report *model.CashReport) error
	GetByID(ctx context.Context, id uint64) (*model.CashReport, error)
	GetByShowID(ctx context.Context, showID uint64) (*model.CashReport, error)
	Close(ctx context.Context, id uint64, closing money.Breakdown,
		posTotal, ticketTotal, subscriptionTotal decimal.Decimal, closedAt time.Time) error
	LastClosedByShowTime(ctx context.Context) (*model.CashReport, time.Time, error)
}

// ShowStore is the persistence surface the lifecycle needs for shows.
type ShowStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
	AssignOperatorIfUnassigned(ctx context.Context, showID, operatorID uint64) error
}

// WithdrawalSummer sums withdrawals taken since a point in time.
type WithdrawalSummer interface {
	SumSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
}

// SalesFetcher pulls authoritative sales figures from the ticketing
// back-office.
type SalesFetcher interface {
	FetchSalesWindow(ctx context.Context, showTime time.Time) (*scraper.SalesFigures, error)
}

// ReportLifecycle drives a cash report through NotOpened -> Opened ->
// Closed. Opened is globally exclusive; Closed is terminal.
type ReportLifecycle struct {
	reports     ReportStore
	shows       ShowStore
	withdrawals WithdrawalSummer
	sales       SalesFetcher
	now         func() time.Time
}

func NewReportLifecycle(reports ReportStore, shows ShowStore, withdrawals WithdrawalSummer, sales SalesFetcher) *ReportLifecycle {
	return &ReportLifecycle{
		reports:     reports,
		shows:       shows,
		withdrawals: withdrawals,
		sales:       sales,
		now:         time.Now,
	}
}

// expectedOpening derives the float that should be in the drawer from the
// previous closed report and the withdrawals taken since that show. The
// second return is false when no closed report exists and the opening is
// unconstrained.
func (l *ReportLifecycle) expectedOpening(ctx context.Context) (decimal.Decimal, bool, error) {
	prev, showTime, err := l.reports.LastClosedByShowTime(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	if prev == nil {
		return decimal.Zero, false, nil
	}
	withdrawn, err := l.withdrawals.SumSince(ctx, showTime)
	if err != nil {
		return decimal.Zero, false, err
	}
	return ledger.ExpectedOpening(prev.ClosingCash.Total(), []decimal.Decimal{withdrawn}), true, nil
}

// Open creates the cash report for a show. It fails with ErrShowNotFound
// when the show does not exist, with ErrOpenReportExists while any other
// report is open, and with an OpeningMismatchError when the counted float
// disagrees with the expected one beyond the tolerance. On success the
// opening operator claims the show if nobody had it yet.
func (l *ReportLifecycle) Open(ctx context.Context, p model.Principal, showID uint64, counted money.Breakdown) (*model.CashReport, error) {
	show, err := l.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	expected, constrained, err := l.expectedOpening(ctx)
	if err != nil {
		return nil, err
	}
	if constrained {
		if err := ledger.ValidateOpening(counted, expected); err != nil {
			return nil, err
		}
	}

	report := &model.CashReport{
		ShowID:      show.ID,
		OperatorID:  p.UserID,
		OpeningCash: counted,
		OpeningAt:   l.now(),
	}
	if err := l.reports.Open(ctx, report); err != nil {
		return nil, err
	}

	// First to open claims the show. Failure here must not undo the report:
	// the assignment is a convenience, not an invariant.
	if show.OperatorID == nil {
		if err := l.shows.AssignOperatorIfUnassigned(ctx, show.ID, p.UserID); err != nil {
			log.Printf("lifecycle: could not assign operator %d to show %d: %v", p.UserID, show.ID, err)
		}
	}
	return report, nil
}

// Close reconciles and closes a report. Authorization runs before any
// mutation: only the report's operator or an admin may close it. The
// reconciliation figures are returned but not persisted; they are derivable
// from the stored fields.
func (l *ReportLifecycle) Close(ctx context.Context, p model.Principal, reportID uint64,
	counted money.Breakdown, posTotal, ticketTotal, subscriptionTotal decimal.Decimal) (ledger.Reconciliation, error) {

	report, err := l.reports.GetByID(ctx, reportID)
	if err != nil {
		return ledger.Reconciliation{}, err
	}
	if !p.CanClose(report) {
		return ledger.Reconciliation{}, repository.ErrForbidden
	}
	if report.Closed() {
		return ledger.Reconciliation{}, repository.ErrReportClosed
	}

	rec := ledger.Reconcile(report.OpeningCash, counted, posTotal, ticketTotal, subscriptionTotal)
	if err := l.reports.Close(ctx, reportID, counted, posTotal, ticketTotal, subscriptionTotal, l.now()); err != nil {
		return ledger.Reconciliation{}, err
	}
	return rec, nil
}

// Report returns the cash report attached to a show, ErrReportNotFound when
// the show has none yet.
func (l *ReportLifecycle) Report(ctx context.Context, showID uint64) (*model.CashReport, error) {
	if _, err := l.shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}
	return l.reports.GetByShowID(ctx, showID)
}

// Suggestion pre-fills the opening and closing forms: the expected float and
// the scraped sales totals. A scrape failure flips ManualEntryRequired
// instead of failing, so the operator can always type the numbers by hand.
type Suggestion struct {
	ExpectedOpening     *decimal.Decimal      `json:"expected_opening"`
	Sales               *scraper.SalesFigures `json:"sales"`
	ManualEntryRequired bool                  `json:"manual_entry_required"`
}

// Suggest computes the suggestion for a show.
func (l *ReportLifecycle) Suggest(ctx context.Context, showID uint64) (*Suggestion, error) {
	show, err := l.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	s := &Suggestion{}
	expected, constrained, err := l.expectedOpening(ctx)
	if err != nil {
		return nil, err
	}
	if constrained {
		s.ExpectedOpening = &expected
	}

	figures, err := l.sales.FetchSalesWindow(ctx, show.StartsAt)
	if err != nil {
		if errors.Is(err, scraper.ErrUpstreamAuth) || errors.Is(err, scraper.ErrUpstreamUnavailable) || errors.Is(err, scraper.ErrParse) {
			log.Printf("lifecycle: sales scrape for show %d failed, manual entry required: %v", showID, err)
			s.ManualEntryRequired = true
			return s, nil
		}
		return nil, err
	}
	s.Sales = figures
	return s, nil
}
