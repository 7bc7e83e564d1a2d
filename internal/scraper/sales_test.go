package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// salesReportFixture mirrors the layout of a captured back-office report.
const salesReportFixture = `RAPPORTO INCASSI                     TEATRO 12
PERIODO 14/03/2026 20.30 - 14/03/2026 21.30

BIGLIETTI                     123      1.230,00
ABBONAMENTI                    10         90,00
OMAGGI                          4          0,00

TOTALI COMPLESSIVI            137      1.320,00
`

// newBackofficeServer serves a login endpoint plus the given handler for
// every other path, and returns a client wired against it.
func newBackofficeServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "ASPSESSIONID", Value: "abc123"})
			return
		}
		require.NoError(t, r.ParseForm())
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	session := NewSession(srv.URL+"/login", "operator", "secret", NewMemorySessionStore(), time.Minute, srv.Client())
	return NewClient(srv.URL, "12", session, WithHTTPClient(srv.Client()), WithRateLimit(100))
}

func TestFetchSalesWindow(t *testing.T) {
	var gotForm map[string]string
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotForm = map[string]string{
			"data_da": r.PostFormValue("data_da"),
			"ora_da":  r.PostFormValue("ora_da"),
			"data_a":  r.PostFormValue("data_a"),
			"ora_a":   r.PostFormValue("ora_a"),
		}
		if c, err := r.Cookie("ASPSESSIONID"); assert.NoError(t, err) {
			assert.Equal(t, "abc123", c.Value)
		}
		w.Write([]byte(salesReportFixture))
	})

	showTime := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	figures, err := client.FetchSalesWindow(context.Background(), showTime)
	require.NoError(t, err)

	// The query window is the show time ±30 minutes in DD/MM/YYYY + HH.MM.
	assert.Equal(t, "14/03/2026", gotForm["data_da"])
	assert.Equal(t, "20.30", gotForm["ora_da"])
	assert.Equal(t, "14/03/2026", gotForm["data_a"])
	assert.Equal(t, "21.30", gotForm["ora_a"])

	assert.Equal(t, 123, figures.TicketCount)
	assert.True(t, figures.TicketTotal.Equal(decimal.RequireFromString("1230.00")))
	assert.Equal(t, 10, figures.SubscriptionCount)
	assert.True(t, figures.SubscriptionTotal.Equal(decimal.RequireFromString("90.00")))
}

func TestFetchSalesWindowUpstreamError(t *testing.T) {
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.FetchSalesWindow(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestParseSalesReportGrandTotalMismatch(t *testing.T) {
	// Grand total off by more than a cent: subtotals stay authoritative.
	report := `BIGLIETTI            100      1.000,00
ABBONAMENTI            5         50,00
TOTALI COMPLESSIVI   105      1.100,00
`
	figures, err := parseSalesReport(report)
	require.NoError(t, err)
	assert.True(t, figures.TicketTotal.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, figures.SubscriptionTotal.Equal(decimal.RequireFromString("50.00")))
}

func TestParseSalesReportMissingSections(t *testing.T) {
	_, err := parseSalesReport("RAPPORTO VUOTO\n")
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseSalesReportMalformedLine(t *testing.T) {
	_, err := parseSalesReport("BIGLIETTI\n")
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseAmountItalianNotation(t *testing.T) {
	got, err := parseAmount("1.234,56")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1234.56")))
}
