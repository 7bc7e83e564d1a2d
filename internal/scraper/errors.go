// Package scraper talks to the external ticketing back-office. The system
// exposes no API: a form login yields session cookies and every report is
// server-rendered HTML or pre-formatted text, so this package is a set of
// authenticated fetch-and-parse operations with typed failure modes.
package scraper

import "errors"

// ErrUpstreamAuth means the back-office login did not yield a session
// cookie. The requested scrape cannot proceed; callers surface the error
// instead of retrying silently.
var ErrUpstreamAuth = errors.New("back-office login rejected")

// ErrUpstreamUnavailable covers network failures, timeouts and non-2xx
// responses. Callers degrade to manual data entry rather than failing the
// surrounding workflow.
var ErrUpstreamUnavailable = errors.New("back-office unavailable")

// ErrParse means the response arrived but did not contain the expected
// markup or report layout.
var ErrParse = errors.New("unexpected back-office response format")
