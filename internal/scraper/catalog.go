package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// externalIDPattern extracts the numeric show id from a catalog anchor's
// query string, e.g. "scheda.asp?ID_Teatro=12&ID=4521".
var externalIDPattern = regexp.MustCompile(`[?&]ID=(\d+)`)

// CatalogEntry is one show listed on the back-office catalog page.
type CatalogEntry struct {
	BolID int64  `json:"bol_id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ShowDetail holds the editable fields of a back-office show page.
type ShowDetail struct {
	BolID       int64  `json:"bol_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PosterURL   string `json:"poster_url"`
}

// FetchCatalog lists the shows currently configured in the back-office by
// scanning the catalog page for anchors carrying an ID query parameter.
func (c *Client) FetchCatalog(ctx context.Context) ([]CatalogEntry, error) {
	body, err := c.do(ctx, "/spettacoli/elenco.asp?ID_Teatro="+url.QueryEscape(c.theatreID), nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: catalog page: %v", ErrParse, err)
	}

	var entries []CatalogEntry
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := externalIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}
		entries = append(entries, CatalogEntry{BolID: id, Title: title, URL: c.absoluteURL(href)})
	})

	if entries == nil {
		return nil, fmt.Errorf("%w: no show anchors on catalog page", ErrParse)
	}
	return entries, nil
}

// FetchShowDetail reads the labeled form fields of one show's detail page.
func (c *Client) FetchShowDetail(ctx context.Context, bolID int64) (*ShowDetail, error) {
	path := fmt.Sprintf("/spettacoli/scheda.asp?ID_Teatro=%s&ID=%d", url.QueryEscape(c.theatreID), bolID)
	body, err := c.do(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: show detail page: %v", ErrParse, err)
	}

	detail := &ShowDetail{BolID: bolID}
	detail.Title = strings.TrimSpace(doc.Find(`input[name="Titolo"]`).AttrOr("value", ""))
	detail.Description = strings.TrimSpace(doc.Find(`textarea[name="Descrizione"]`).Text())
	if poster, ok := doc.Find(`input[name="Locandina"]`).Attr("value"); ok {
		detail.PosterURL = c.absoluteURL(strings.TrimSpace(poster))
	}

	if detail.Title == "" {
		return nil, fmt.Errorf("%w: show %d detail page has no Titolo field", ErrParse, bolID)
	}
	return detail, nil
}

// absoluteURL resolves a possibly relative back-office URL against the base.
func (c *Client) absoluteURL(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return c.baseURL + "/" + strings.TrimLeft(raw, "/")
}
