package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matteoriva/cinecassa/internal/film"
	"github.com/matteoriva/cinecassa/internal/repository"
)

// ApplyMetadata must refuse to persist when the film site is down: writing
// the blank fields would erase previously stored metadata. The repo carries
// a nil handle, so any write attempt crashes the test.
func TestApplyMetadataRejectsUnreachableSite(t *testing.T) {
	down := httptest.NewServer(nil)
	down.Close()

	h := NewFilmHandler(film.NewResolver(down.URL, nil), repository.NewFilmRepo(nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/films/1/metadata",
		strings.NewReader(`{"url":"`+down.URL+`/film/2024/x/"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.ApplyMetadata(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "manual_entry_required")
}
