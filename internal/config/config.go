// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	JWTSecret string // secret used to verify access tokens issued by the auth service

	// Ticketing back-office (BOL) scraping.
	BolBaseURL    string
	BolUsername   string
	BolPassword   string
	BolTheatreID  string
	BolSessionTTL time.Duration // cached login lifetime
	ScrapeTimeout time.Duration // per-request upstream timeout

	MyMoviesBaseURL string

	RabbitURL string // optional; empty disables schedule notifications
}

// Load reads configuration from the environment. Required variables are
// enforced by must() and missing values cause the process to exit.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret: must("JWT_SECRET"),

		BolBaseURL:    must("BOL_BASE_URL"),
		BolUsername:   must("BOL_USERNAME"),
		BolPassword:   must("BOL_PASSWORD"),
		BolTheatreID:  must("BOL_THEATRE_ID"),
		BolSessionTTL: minutes("BOL_SESSION_TTL_MIN", 15),
		ScrapeTimeout: seconds("SCRAPE_TIMEOUT_SEC", 20),

		MyMoviesBaseURL: getenv("MYMOVIES_BASE_URL", "https://www.mymovies.it"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func minutes(key string, def int) time.Duration {
	return time.Duration(intOr(key, def)) * time.Minute
}

func seconds(key string, def int) time.Duration {
	return time.Duration(intOr(key, def)) * time.Second
}

func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
