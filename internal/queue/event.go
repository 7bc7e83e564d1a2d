// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification is published when a show's schedule changes or the show is
// cancelled. It carries everything the push-delivery collaborator needs to
// build and route the message; this service never waits on delivery.
type Notification struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	Priority string `json:"priority"` // "normal" or "high"
	SentAt   string `json:"sent_at"`
}

// Notification priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// NotificationQueue is the broker queue notifications are published to.
const NotificationQueue = "show.schedule"
