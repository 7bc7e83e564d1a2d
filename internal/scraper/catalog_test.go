package scraper

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogFixture = `<html><body>
<a href="/spettacoli/scheda.asp?ID_Teatro=12&ID=4521">IL GATTOPARDO</a>
<a href="scheda.asp?ID_Teatro=12&amp;ID=4522">PERFECT DAYS</a>
<a href="/altro/pagina.asp">link senza id</a>
</body></html>`

func TestFetchCatalog(t *testing.T) {
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogFixture))
	})

	entries, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4521), entries[0].BolID)
	assert.Equal(t, "IL GATTOPARDO", entries[0].Title)
	assert.Equal(t, int64(4522), entries[1].BolID)
	assert.Equal(t, "PERFECT DAYS", entries[1].Title)
}

func TestFetchCatalogNoAnchors(t *testing.T) {
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>manutenzione in corso</body></html>"))
	})
	_, err := client.FetchCatalog(context.Background())
	assert.ErrorIs(t, err, ErrParse)
}

func TestFetchShowDetail(t *testing.T) {
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("ID_Teatro"))
		assert.Equal(t, "4521", r.URL.Query().Get("ID"))
		w.Write([]byte(`<html><body><form>
<input name="Titolo" value="IL GATTOPARDO">
<textarea name="Descrizione">Restauro in 4K.</textarea>
<input name="Locandina" value="/locandine/gattopardo.jpg">
</form></body></html>`))
	})

	detail, err := client.FetchShowDetail(context.Background(), 4521)
	require.NoError(t, err)
	assert.Equal(t, "IL GATTOPARDO", detail.Title)
	assert.Equal(t, "Restauro in 4K.", detail.Description)
	// Relative poster paths are resolved against the base URL.
	assert.Contains(t, detail.PosterURL, "://")
	assert.Contains(t, detail.PosterURL, "/locandine/gattopardo.jpg")
}

func TestFetchShowDetailAbsolutePoster(t *testing.T) {
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<input name="Titolo" value="PERFECT DAYS">
<input name="Locandina" value="https://cdn.example.com/p.jpg">
</body></html>`))
	})

	detail, err := client.FetchShowDetail(context.Background(), 4522)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/p.jpg", detail.PosterURL)
}

func TestFetchShowDetailMissingTitle(t *testing.T) {
	client := newBackofficeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>pagina non trovata</body></html>"))
	})
	_, err := client.FetchShowDetail(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrParse)
}
