package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matteoriva/cinecassa/internal/film"
	"github.com/matteoriva/cinecassa/internal/repository"
)

// FilmHandler exposes the film metadata resolution flow: search, detail
// preview and applying a chosen result to a stored film.
type FilmHandler struct {
	Resolver *film.Resolver
	Films    *repository.FilmRepo
}

func NewFilmHandler(resolver *film.Resolver, films *repository.FilmRepo) *FilmHandler {
	if resolver == nil || films == nil {
		panic("nil dependency passed to NewFilmHandler")
	}
	return &FilmHandler{Resolver: resolver, Films: films}
}

// SearchMetadata handles GET /v1/films/metadata/search?title=&auto=.
// Disambiguation is the caller's: zero candidates means manual entry, one is
// auto-selectable, several are presented to the operator. With auto=true
// (batch import mode) a single candidate is resolved to its full metadata in
// the same round trip.
func (h *FilmHandler) SearchMetadata(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	candidates := h.Resolver.Search(c.Request().Context(), title)

	resp := echo.Map{"candidates": candidates}
	if c.QueryParam("auto") == "true" && len(candidates) == 1 {
		meta := h.Resolver.FetchDetail(c.Request().Context(), candidates[0].URL)
		resp["selected"] = meta
	}
	return c.JSON(http.StatusOK, resp)
}

// MetadataDetail handles GET /v1/films/metadata/detail?url= and previews the
// metadata behind one candidate URL. Unreachable or unparseable pages come
// back with null fields, keeping the form editable.
func (h *FilmHandler) MetadataDetail(c echo.Context) error {
	rawURL := strings.TrimSpace(c.QueryParam("url"))
	if rawURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url is required"})
	}
	return c.JSON(http.StatusOK, h.Resolver.FetchDetail(c.Request().Context(), rawURL))
}

// ApplyMetadata handles POST /v1/films/:id/metadata: it fetches the detail
// page of the chosen candidate and persists the result on the film. Unlike
// the display paths, an unreachable page rejects the request: persisting the
// blank fields would wipe previously stored metadata.
func (h *FilmHandler) ApplyMetadata(c echo.Context) error {
	filmID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid film id"})
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.URL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url is required"})
	}

	meta, err := h.Resolver.ResolveDetail(c.Request().Context(), body.URL)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":                 "film site unreachable",
			"manual_entry_required": true,
		})
	}

	var director, genre *string
	if meta.Director != "" {
		director = &meta.Director
	}
	if meta.Genre != "" {
		genre = &meta.Genre
	}
	err = h.Films.UpdateMetadata(c.Request().Context(), filmID,
		&meta.CanonicalURL, director, genre, meta.ItalianReleaseDate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, meta)
}
