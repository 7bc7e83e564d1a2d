// Package model holds the persisted domain records of the cash subsystem.
package model

import "time"

// Show is one scheduled screening. BolID links it to the external ticketing
// back-office when known; OperatorID is claimed by the first operator who
// opens its cash report. A show can be deleted only while it has no report.
type Show struct {
	ID         uint64
	FilmID     uint64
	StartsAt   time.Time
	BolID      *int64
	OperatorID *uint64
	Status     string // SCHEDULED or CANCELLED
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Show status values.
const (
	ShowScheduled = "SCHEDULED"
	ShowCancelled = "CANCELLED"
)

// Film is a screened title, optionally enriched with external metadata
// resolved from MyMovies.
type Film struct {
	ID                 uint64
	Title              string
	MyMoviesURL        *string
	Director           *string
	Genre              *string
	ItalianReleaseDate *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
