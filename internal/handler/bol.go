package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/matteoriva/cinecassa/internal/scraper"
)

// BolHandler exposes read-only views over the ticketing back-office: the
// show catalog and single show details. The import scripts and the show
// forms consume these instead of scraping on their own.
type BolHandler struct {
	Client *scraper.Client
}

func NewBolHandler(client *scraper.Client) *BolHandler {
	if client == nil {
		panic("nil client passed to NewBolHandler")
	}
	return &BolHandler{Client: client}
}

// Catalog handles GET /v1/bol/shows.
func (h *BolHandler) Catalog(c echo.Context) error {
	entries, err := h.Client.FetchCatalog(c.Request().Context())
	if err != nil {
		return writeUpstreamError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

// ShowDetail handles GET /v1/bol/shows/:id.
func (h *BolHandler) ShowDetail(c echo.Context) error {
	bolID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bol id"})
	}
	detail, err := h.Client.FetchShowDetail(c.Request().Context(), int64(bolID))
	if err != nil {
		return writeUpstreamError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// writeUpstreamError maps scraper failures onto responses that tell the
// caller to fall back to manual entry instead of blocking the workflow.
func writeUpstreamError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, scraper.ErrUpstreamAuth):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":                 "back-office login failed",
			"manual_entry_required": true,
		})
	case errors.Is(err, scraper.ErrUpstreamUnavailable), errors.Is(err, scraper.ErrParse):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":                 "back-office unavailable",
			"manual_entry_required": true,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
