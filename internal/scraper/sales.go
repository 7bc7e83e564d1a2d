package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// salesWindow is the slack applied on both sides of a show's scheduled time
// when querying the sales report: tickets are sold before the start and the
// back-office clock does not always match ours.
const salesWindow = 30 * time.Minute

// Section labels of the pre-formatted sales report. The layout is a fixed
// upstream contract with no version marker: when it changes, these constants
// and parseSalesReport are the single place to fix.
const (
	labelTickets       = "BIGLIETTI"
	labelSubscriptions = "ABBONAMENTI"
	labelGrandTotal    = "TOTALI COMPLESSIVI"
)

// Back-office date and time formats: DD/MM/YYYY and HH.MM.
const (
	bolDateFormat = "02/01/2006"
	bolTimeFormat = "15.04"
)

// SalesFigures are the parsed totals of one sales-report window.
type SalesFigures struct {
	TicketCount       int             `json:"ticket_count"`
	TicketTotal       decimal.Decimal `json:"ticket_total"`
	SubscriptionCount int             `json:"subscription_count"`
	SubscriptionTotal decimal.Decimal `json:"subscription_total"`
}

// FetchSalesWindow requests the sales report for a ±30 minute window around
// the show's scheduled time and parses it into typed figures.
func (c *Client) FetchSalesWindow(ctx context.Context, showTime time.Time) (*SalesFigures, error) {
	from := showTime.Add(-salesWindow)
	to := showTime.Add(salesWindow)

	// Fixed parameter set required by the report endpoint: the window plus
	// channel and report-type flags that never vary for this purpose.
	form := url.Values{}
	form.Set("ID_Teatro", c.theatreID)
	form.Set("data_da", from.Format(bolDateFormat))
	form.Set("ora_da", from.Format(bolTimeFormat))
	form.Set("data_a", to.Format(bolDateFormat))
	form.Set("ora_a", to.Format(bolTimeFormat))
	form.Set("canale", "0")
	form.Set("tipo", "incassi")
	form.Set("dettaglio", "S")

	body, err := c.do(ctx, "/report/incassi.asp", form)
	if err != nil {
		return nil, err
	}
	return parseSalesReport(string(body))
}

// parseSalesReport extracts counts and amounts from the fixed-layout text
// report. It locates the lines beginning with the known section labels and
// splits them on whitespace: the amount is the last column, the count the one
// before it. When the declared grand total disagrees with the sum of the
// subtotals by more than a cent the subtotals win and a warning is logged.
func parseSalesReport(report string) (*SalesFigures, error) {
	figures := &SalesFigures{}
	var grandTotal decimal.Decimal
	var foundTickets, foundSubscriptions, foundGrand bool

	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, labelGrandTotal):
			// Checked before BIGLIETTI/ABBONAMENTI since labels share no
			// prefix, but keep the grand total first in case of future
			// upstream renames that do.
			if foundGrand {
				continue
			}
			_, amount, err := parseSectionLine(line, labelGrandTotal)
			if err != nil {
				return nil, err
			}
			grandTotal = amount
			foundGrand = true
		case strings.HasPrefix(line, labelTickets):
			if foundTickets {
				continue
			}
			count, amount, err := parseSectionLine(line, labelTickets)
			if err != nil {
				return nil, err
			}
			figures.TicketCount = count
			figures.TicketTotal = amount
			foundTickets = true
		case strings.HasPrefix(line, labelSubscriptions):
			if foundSubscriptions {
				continue
			}
			count, amount, err := parseSectionLine(line, labelSubscriptions)
			if err != nil {
				return nil, err
			}
			figures.SubscriptionCount = count
			figures.SubscriptionTotal = amount
			foundSubscriptions = true
		}
	}

	if !foundTickets && !foundSubscriptions {
		return nil, fmt.Errorf("%w: no %s or %s section in sales report", ErrParse, labelTickets, labelSubscriptions)
	}

	if foundGrand {
		sum := figures.TicketTotal.Add(figures.SubscriptionTotal)
		if sum.Sub(grandTotal).Abs().GreaterThan(decimal.New(1, -2)) {
			// The parsed subtotals are authoritative; the grand total line
			// includes channels we do not query.
			log.Printf("scraper: sales report grand total %s disagrees with tickets+subscriptions %s",
				grandTotal.StringFixed(2), sum.StringFixed(2))
		}
	}
	return figures, nil
}

// parseSectionLine splits a section line on whitespace and reads the count
// and amount from its two last columns.
func parseSectionLine(line, label string) (int, decimal.Decimal, error) {
	fields := strings.Fields(strings.TrimPrefix(line, label))
	if len(fields) < 2 {
		return 0, decimal.Zero, fmt.Errorf("%w: malformed %s line %q", ErrParse, label, line)
	}
	count, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("%w: bad count in %s line %q", ErrParse, label, line)
	}
	amount, err := parseAmount(fields[len(fields)-1])
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("%w: bad amount in %s line %q", ErrParse, label, line)
	}
	return count, amount, nil
}

// parseAmount reads a monetary amount in the report's Italian notation
// (dot thousands separator, comma decimal separator).
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}
