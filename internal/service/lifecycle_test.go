package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matteoriva/cinecassa/internal/ledger"
	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/money"
	"github.com/matteoriva/cinecassa/internal/repository"
	"github.com/matteoriva/cinecassa/internal/scraper"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeReportStore enforces the single-open invariant the way the SQL
// conditional insert does.
type fakeReportStore struct {
	reports map[uint64]*model.CashReport
	nextID  uint64
	// anchor for LastClosedByShowTime
	lastClosed   *model.CashReport
	lastShowTime time.Time
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: map[uint64]*model.CashReport{}, nextID: 1}
}

func (s *fakeReportStore) Open(ctx context.Context, report *model.CashReport) error {
	for _, r := range s.reports {
		if !r.Closed() {
			return repository.ErrOpenReportExists
		}
		if r.ShowID == report.ShowID {
			return repository.ErrShowHasReport
		}
	}
	report.ID = s.nextID
	s.nextID++
	s.reports[report.ID] = report
	return nil
}

func (s *fakeReportStore) GetByID(ctx context.Context, id uint64) (*model.CashReport, error) {
	r, ok := s.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	return r, nil
}

func (s *fakeReportStore) GetByShowID(ctx context.Context, showID uint64) (*model.CashReport, error) {
	for _, r := range s.reports {
		if r.ShowID == showID {
			return r, nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (s *fakeReportStore) Close(ctx context.Context, id uint64, closing money.Breakdown,
	posTotal, ticketTotal, subscriptionTotal decimal.Decimal, closedAt time.Time) error {
	r, ok := s.reports[id]
	if !ok {
		return repository.ErrReportNotFound
	}
	if r.Closed() {
		return repository.ErrReportClosed
	}
	r.ClosingCash = &closing
	r.ClosingAt = &closedAt
	r.POSTotal = decimal.NewNullDecimal(posTotal)
	r.TicketTotal = decimal.NewNullDecimal(ticketTotal)
	r.SubscriptionTotal = decimal.NewNullDecimal(subscriptionTotal)
	return nil
}

func (s *fakeReportStore) LastClosedByShowTime(ctx context.Context) (*model.CashReport, time.Time, error) {
	return s.lastClosed, s.lastShowTime, nil
}

type fakeShowStore struct {
	shows    map[uint64]*model.Show
	assigned map[uint64]uint64
}

func newFakeShowStore(shows ...*model.Show) *fakeShowStore {
	m := map[uint64]*model.Show{}
	for _, s := range shows {
		m[s.ID] = s
	}
	return &fakeShowStore{shows: m, assigned: map[uint64]uint64{}}
}

func (s *fakeShowStore) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	show, ok := s.shows[id]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	return show, nil
}

func (s *fakeShowStore) AssignOperatorIfUnassigned(ctx context.Context, showID, operatorID uint64) error {
	if show, ok := s.shows[showID]; ok && show.OperatorID == nil {
		s.assigned[showID] = operatorID
	}
	return nil
}

type fakeWithdrawalSummer struct{ sum decimal.Decimal }

func (s fakeWithdrawalSummer) SumSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	return s.sum, nil
}

type fakeSalesFetcher struct {
	figures *scraper.SalesFigures
	err     error
}

func (f fakeSalesFetcher) FetchSalesWindow(ctx context.Context, showTime time.Time) (*scraper.SalesFigures, error) {
	return f.figures, f.err
}

func closedReport(closingTotalOnes int64) *model.CashReport {
	closing := money.Breakdown{One: closingTotalOnes}
	at := time.Now().Add(-24 * time.Hour)
	return &model.CashReport{
		ID:          99,
		ShowID:      9,
		OperatorID:  1,
		OpeningCash: money.Breakdown{One: 50},
		ClosingCash: &closing,
		ClosingAt:   &at,
	}
}

func TestOpenFirstReportUnconstrained(t *testing.T) {
	reports := newFakeReportStore()
	shows := newFakeShowStore(&model.Show{ID: 5, StartsAt: time.Now()})
	l := NewReportLifecycle(reports, shows, fakeWithdrawalSummer{}, fakeSalesFetcher{})

	report, err := l.Open(context.Background(), model.Principal{UserID: 7}, 5, money.Breakdown{Fifty: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), report.OperatorID)
	assert.Equal(t, uint64(7), shows.assigned[5], "first opener claims the show")
}

func TestOpenValidatesAgainstExpectedFloat(t *testing.T) {
	reports := newFakeReportStore()
	reports.lastClosed = closedReport(100) // closing 100.00
	reports.lastShowTime = time.Now().Add(-24 * time.Hour)
	shows := newFakeShowStore(&model.Show{ID: 5, StartsAt: time.Now()})
	// withdrawals since the anchor show sum to 30.00 -> expected 70.00
	l := NewReportLifecycle(reports, shows, fakeWithdrawalSummer{sum: dec("30.00")}, fakeSalesFetcher{})

	// 70.02 counted is outside the one-cent tolerance.
	_, err := l.Open(context.Background(), model.Principal{UserID: 7}, 5,
		money.Breakdown{One: 70, Other: dec("0.02")})
	var mismatch *ledger.OpeningMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, mismatch.Expected.Equal(dec("70.00")))

	// 70.01 is the boundary and passes.
	_, err = l.Open(context.Background(), model.Principal{UserID: 7}, 5,
		money.Breakdown{One: 70, Other: dec("0.01")})
	require.NoError(t, err)
}

func TestOpenConflictsWhileAnotherReportIsOpen(t *testing.T) {
	reports := newFakeReportStore()
	shows := newFakeShowStore(
		&model.Show{ID: 5, StartsAt: time.Now()},
		&model.Show{ID: 6, StartsAt: time.Now().Add(3 * time.Hour)},
	)
	l := NewReportLifecycle(reports, shows, fakeWithdrawalSummer{}, fakeSalesFetcher{})

	_, err := l.Open(context.Background(), model.Principal{UserID: 7}, 5, money.Breakdown{Fifty: 2})
	require.NoError(t, err)

	// Any show, any operator: the drawer is one physical till.
	_, err = l.Open(context.Background(), model.Principal{UserID: 8}, 6, money.Breakdown{Fifty: 2})
	assert.ErrorIs(t, err, repository.ErrOpenReportExists)
}

func TestOpenUnknownShow(t *testing.T) {
	l := NewReportLifecycle(newFakeReportStore(), newFakeShowStore(), fakeWithdrawalSummer{}, fakeSalesFetcher{})
	_, err := l.Open(context.Background(), model.Principal{UserID: 7}, 42, money.Breakdown{})
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestCloseReconcilesAndPersists(t *testing.T) {
	reports := newFakeReportStore()
	shows := newFakeShowStore(&model.Show{ID: 5, StartsAt: time.Now()})
	l := NewReportLifecycle(reports, shows, fakeWithdrawalSummer{}, fakeSalesFetcher{})

	report, err := l.Open(context.Background(), model.Principal{UserID: 7}, 5, money.Breakdown{Fifty: 1, Twenty: 1}) // 70.00
	require.NoError(t, err)

	rec, err := l.Close(context.Background(), model.Principal{UserID: 7}, report.ID,
		money.Breakdown{Fifty: 5}, dec("40.00"), dec("180.00"), dec("30.00"))
	require.NoError(t, err)

	assert.True(t, rec.CashDifference.Equal(dec("180.00")))
	assert.True(t, rec.ActualIncome.Equal(dec("220.00")))
	assert.True(t, rec.DeclaredIncome.Equal(dec("210.00")))
	assert.True(t, rec.BalanceDifference.Equal(dec("-10.00")))
	assert.False(t, rec.Balanced)

	stored, err := reports.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.True(t, stored.Closed())
	assert.True(t, stored.TicketTotal.Decimal.Equal(dec("180.00")))
}

func TestCloseAuthorization(t *testing.T) {
	reports := newFakeReportStore()
	shows := newFakeShowStore(&model.Show{ID: 5, StartsAt: time.Now()})
	l := NewReportLifecycle(reports, shows, fakeWithdrawalSummer{}, fakeSalesFetcher{})

	report, err := l.Open(context.Background(), model.Principal{UserID: 7}, 5, money.Breakdown{Fifty: 1})
	require.NoError(t, err)

	// A different non-admin operator may not close it.
	_, err = l.Close(context.Background(), model.Principal{UserID: 8}, report.ID,
		money.Breakdown{Fifty: 2}, dec("0"), dec("0"), dec("0"))
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// An admin may.
	_, err = l.Close(context.Background(), model.Principal{UserID: 8, Admin: true}, report.ID,
		money.Breakdown{Fifty: 2}, dec("0"), dec("0"), dec("0"))
	require.NoError(t, err)

	// Closing twice is a conflict.
	_, err = l.Close(context.Background(), model.Principal{UserID: 7}, report.ID,
		money.Breakdown{Fifty: 2}, dec("0"), dec("0"), dec("0"))
	assert.ErrorIs(t, err, repository.ErrReportClosed)
}

func TestSuggestDegradesToManualEntry(t *testing.T) {
	reports := newFakeReportStore()
	reports.lastClosed = closedReport(100)
	reports.lastShowTime = time.Now().Add(-24 * time.Hour)
	shows := newFakeShowStore(&model.Show{ID: 5, StartsAt: time.Now()})
	l := NewReportLifecycle(reports, shows, fakeWithdrawalSummer{sum: dec("30.00")},
		fakeSalesFetcher{err: scraper.ErrUpstreamUnavailable})

	s, err := l.Suggest(context.Background(), 5)
	require.NoError(t, err, "a scrape failure must not fail the workflow")
	assert.True(t, s.ManualEntryRequired)
	assert.Nil(t, s.Sales)
	require.NotNil(t, s.ExpectedOpening)
	assert.True(t, s.ExpectedOpening.Equal(dec("70.00")))
}

func TestSuggestWithSales(t *testing.T) {
	shows := newFakeShowStore(&model.Show{ID: 5, StartsAt: time.Now()})
	figures := &scraper.SalesFigures{TicketCount: 12, TicketTotal: dec("120.00")}
	l := NewReportLifecycle(newFakeReportStore(), shows, fakeWithdrawalSummer{}, fakeSalesFetcher{figures: figures})

	s, err := l.Suggest(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, s.ManualEntryRequired)
	assert.Nil(t, s.ExpectedOpening, "no closed report means the opening is unconstrained")
	assert.Equal(t, figures, s.Sales)
}
