// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/matteoriva/cinecassa/internal/handler"
	"github.com/matteoriva/cinecassa/internal/middleware"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Report   *handler.ReportHandler
	Treasury *handler.TreasuryHandler
	Film     *handler.FilmHandler
	Show     *handler.ShowHandler
	Bol      *handler.BolHandler
}

// Register sets up all routes. Everything except the health probe requires
// a valid access token; treasury routes additionally require an admin.
// Routes that fan out into back-office scrapes get a per-user rate limit.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	// Cash report lifecycle.
	v1.POST("/shows/:id/report", h.Report.OpenReport)
	v1.GET("/shows/:id/report", h.Report.GetReport)
	v1.POST("/reports/:id/close", h.Report.CloseReport)

	// Scrape-backed routes, rate limited to protect the legacy upstream.
	scrape := middleware.RateLimit(rdb, 10, time.Minute)
	v1.GET("/shows/:id/report/suggest", h.Report.SuggestFigures, scrape)
	v1.GET("/bol/shows", h.Bol.Catalog, scrape)
	v1.GET("/bol/shows/:id", h.Bol.ShowDetail, scrape)
	v1.GET("/films/metadata/search", h.Film.SearchMetadata, scrape)
	v1.GET("/films/metadata/detail", h.Film.MetadataDetail, scrape)
	v1.POST("/films/:id/metadata", h.Film.ApplyMetadata, scrape)

	// Scheduling surface of the cash subsystem.
	v1.GET("/shows", h.Show.ListShows)
	v1.PATCH("/shows/:id/schedule", h.Show.UpdateSchedule)
	v1.DELETE("/shows/:id", h.Show.DeleteShow)

	// Treasury: admin only.
	treasury := v1.Group("/treasury", middleware.RequireAdmin())
	treasury.POST("/withdrawals", h.Treasury.CreateWithdrawal)
	treasury.GET("/withdrawals/pending", h.Treasury.PendingWithdrawals)
	treasury.POST("/deposits", h.Treasury.CreateDeposit)
	treasury.GET("/deposits", h.Treasury.ListDeposits)
}
