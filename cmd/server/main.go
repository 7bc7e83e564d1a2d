package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/matteoriva/cinecassa/internal/config"
	"github.com/matteoriva/cinecassa/internal/database"
	"github.com/matteoriva/cinecassa/internal/film"
	"github.com/matteoriva/cinecassa/internal/handler"
	"github.com/matteoriva/cinecassa/internal/repository"
	"github.com/matteoriva/cinecassa/internal/router"
	"github.com/matteoriva/cinecassa/internal/scraper"
	"github.com/matteoriva/cinecassa/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is optional: without it the session cache is process-local and
	// the API rate limiter is disabled.
	rdb := config.NewRedisClient()
	var sessionStore scraper.SessionStore
	if rdb != nil {
		sessionStore = scraper.NewRedisSessionStore(rdb, cfg.BolSessionTTL)
	} else {
		log.Printf("redis unavailable, using in-process session cache")
		sessionStore = scraper.NewMemorySessionStore()
	}

	httpClient := &http.Client{Timeout: cfg.ScrapeTimeout}
	session := scraper.NewSession(cfg.BolBaseURL+"/login", cfg.BolUsername, cfg.BolPassword,
		sessionStore, cfg.BolSessionTTL, httpClient)
	bolClient := scraper.NewClient(cfg.BolBaseURL, cfg.BolTheatreID, session,
		scraper.WithTimeout(cfg.ScrapeTimeout))
	resolver := film.NewResolver(cfg.MyMoviesBaseURL, httpClient)

	showRepo := repository.NewShowRepo(db)
	filmRepo := repository.NewFilmRepo(db)
	reportRepo := repository.NewCashReportRepo(db)
	withdrawalRepo := repository.NewWithdrawalRepo(db)
	depositRepo := repository.NewDepositRepo(db, withdrawalRepo)

	lifecycle := service.NewReportLifecycle(reportRepo, showRepo, withdrawalRepo, bolClient)
	treasury := service.NewTreasury(withdrawalRepo, depositRepo)
	notifier := service.NewNotifier(cfg.RabbitURL)

	e := echo.New()
	router.Register(e, router.Handlers{
		Report:   handler.NewReportHandler(lifecycle),
		Treasury: handler.NewTreasuryHandler(treasury),
		Film:     handler.NewFilmHandler(resolver, filmRepo),
		Show:     handler.NewShowHandler(showRepo, filmRepo, notifier),
		Bol:      handler.NewBolHandler(bolClient),
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
