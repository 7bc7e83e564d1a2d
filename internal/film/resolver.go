// Package film resolves free-text film titles against the MyMovies site,
// which exposes a JSON search endpoint and server-rendered detail pages but
// no API contract. Every operation degrades to empty results or zero-valued
// fields on failure so the surrounding form stays editable.
package film

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnreachable reports that a detail page could not be fetched or read.
// Callers that persist metadata must not confuse it with a page that simply
// carries no data.
var ErrUnreachable = errors.New("film page unreachable")

// sponsoredMarker is the highlight color the search endpoint uses to flag
// paid placements; those entries are not real search results.
const sponsoredMarker = "#dcdcdc"

// filmURLPattern is the expected shape of a film detail URL. Entries whose
// URL does not match are aggregations (actor pages, news) and are dropped.
var filmURLPattern = regexp.MustCompile(`/film/(\d{4})/[^/]+/?$`)

// Candidate is one ranked search result.
type Candidate struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Year     string `json:"year"`
	Director string `json:"director"`
}

// Metadata is the structured information scraped from a film detail page.
// Zero-valued fields mean the page did not carry them.
type Metadata struct {
	Director           string     `json:"director"`
	Genre              string     `json:"genre"`
	ItalianReleaseDate *time.Time `json:"italian_release_date"`
	CanonicalURL       string     `json:"canonical_url"`
}

// Resolver queries the search endpoint and detail pages. No session is
// required; the site is public.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
}

func NewResolver(baseURL string, httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Resolver{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// searchResponse is the strict result type for the search endpoint; nothing
// of the raw payload leaves this package.
type searchResponse struct {
	Esito     string `json:"esito"`
	Risultati struct {
		Film struct {
			Elenco []struct {
				Titolo      string `json:"titolo"`
				URL         string `json:"url"`
				Descrizione string `json:"descrizione"`
				BgColor     string `json:"bgcolor"`
			} `json:"elenco"`
		} `json:"film"`
	} `json:"risultati"`
}

// Search returns the candidates for a title. Sponsored entries and entries
// whose URL is not a film detail page are filtered out. Network and decode
// failures yield an empty list, never an error: the operator can always fill
// the form by hand.
func (r *Resolver) Search(ctx context.Context, title string) []Candidate {
	endpoint := fmt.Sprintf("%s/ricerca/json.php?titolo=%s", r.baseURL, url.QueryEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("film: search %q failed: %v", title, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("film: search %q returned status %d", title, resp.StatusCode)
		return nil
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("film: search %q returned malformed JSON: %v", title, err)
		return nil
	}

	var candidates []Candidate
	for _, entry := range payload.Risultati.Film.Elenco {
		if strings.EqualFold(entry.BgColor, sponsoredMarker) {
			continue
		}
		if !filmURLPattern.MatchString(entry.URL) {
			continue
		}
		year, director := splitDescription(entry.Descrizione)
		candidates = append(candidates, Candidate{
			Title:    strings.TrimSpace(entry.Titolo),
			URL:      entry.URL,
			Year:     year,
			Director: director,
		})
	}
	return candidates
}

// splitDescription splits the combined "year - director" field on the first
// " - ". A description without the separator is treated as a bare year.
func splitDescription(desc string) (year, director string) {
	desc = strings.TrimSpace(desc)
	if i := strings.Index(desc, " - "); i >= 0 {
		return strings.TrimSpace(desc[:i]), strings.TrimSpace(desc[i+3:])
	}
	return desc, ""
}

// Detail page row labels, first match per label only.
const (
	labelDirector = "Regia di"
	labelRelease  = "Uscita"
	labelGenre    = "Genere"
)

// ResolveDetail scrapes a film detail page. The URL is normalized to carry
// a trailing slash. When the page cannot be fetched or read it returns the
// partial Metadata together with ErrUnreachable, so mutating callers can
// refuse to overwrite stored values with the blanks.
func (r *Resolver) ResolveDetail(ctx context.Context, rawURL string) (Metadata, error) {
	canonical := normalizeURL(rawURL)
	meta := Metadata{CanonicalURL: canonical}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, canonical, nil)
	if err != nil {
		return meta, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("film: detail %s failed: %v", canonical, err)
		return meta, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("film: detail %s returned status %d", canonical, resp.StatusCode)
		return meta, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return meta, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.First().Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		switch {
		case strings.HasPrefix(label, labelDirector) && meta.Director == "":
			meta.Director = value
		case strings.HasPrefix(label, labelGenre) && meta.Genre == "":
			meta.Genre = value
		case strings.HasPrefix(label, labelRelease) && meta.ItalianReleaseDate == nil:
			if d, ok := parseItalianDate(value); ok {
				meta.ItalianReleaseDate = &d
			}
		}
	})
	return meta, nil
}

// FetchDetail is ResolveDetail for display paths: failures of any kind
// return a Metadata with only CanonicalURL set, never an error, keeping the
// surrounding form editable.
func (r *Resolver) FetchDetail(ctx context.Context, rawURL string) Metadata {
	meta, _ := r.ResolveDetail(ctx, rawURL)
	return meta
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

var italianMonths = map[string]time.Month{
	"gennaio":   time.January,
	"febbraio":  time.February,
	"marzo":     time.March,
	"aprile":    time.April,
	"maggio":    time.May,
	"giugno":    time.June,
	"luglio":    time.July,
	"agosto":    time.August,
	"settembre": time.September,
	"ottobre":   time.October,
	"novembre":  time.November,
	"dicembre":  time.December,
}

var italianDatePattern = regexp.MustCompile(`(\d{1,2})\s+([a-zà-ù]+)\s+(\d{4})`)

// parseItalianDate reads dates written as "<day> <month-name> <year>",
// e.g. "24 ottobre 2024". Anything else is reported as unparseable.
func parseItalianDate(s string) (time.Time, bool) {
	m := italianDatePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := italianMonths[m[2]]
	if !ok {
		return time.Time{}, false
	}
	var day, year int
	fmt.Sscanf(m[1], "%d", &day)
	fmt.Sscanf(m[3], "%d", &year)
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}
