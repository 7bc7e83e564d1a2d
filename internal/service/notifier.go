package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matteoriva/cinecassa/internal/model"
	"github.com/matteoriva/cinecassa/internal/queue"
)

// Notifier publishes schedule-change notifications to RabbitMQ. Publishing
// is fire-and-forget: errors are logged and returned so callers can ignore
// them without interrupting the request that changed the schedule. An empty
// broker URL disables publishing entirely.
type Notifier struct {
	url string
}

func NewNotifier(url string) *Notifier {
	return &Notifier{url: url}
}

// ShowRescheduled announces a moved show.
func (n *Notifier) ShowRescheduled(ctx context.Context, show *model.Show, filmTitle string, oldStart time.Time) error {
	return n.publish(ctx, queue.Notification{
		ID:       uuid.NewString(),
		Title:    fmt.Sprintf("Spettacolo spostato: %s", filmTitle),
		Body:     fmt.Sprintf("Da %s a %s", oldStart.Format("02/01 15:04"), show.StartsAt.Format("02/01 15:04")),
		URL:      fmt.Sprintf("/shows/%d", show.ID),
		Priority: queue.PriorityNormal,
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ShowCancelled announces a cancelled show. Cancellations go out with high
// priority so push delivery does not batch them.
func (n *Notifier) ShowCancelled(ctx context.Context, show *model.Show, filmTitle string) error {
	return n.publish(ctx, queue.Notification{
		ID:       uuid.NewString(),
		Title:    fmt.Sprintf("Spettacolo annullato: %s", filmTitle),
		Body:     fmt.Sprintf("Lo spettacolo del %s è stato annullato", show.StartsAt.Format("02/01 15:04")),
		URL:      fmt.Sprintf("/shows/%d", show.ID),
		Priority: queue.PriorityHigh,
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) publish(ctx context.Context, event queue.Notification) error {
	if n.url == "" {
		return nil
	}
	conn, err := amqp.Dial(n.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so notifications survive broker restarts.
	if _, err := ch.QueueDeclare(queue.NotificationQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.NotificationQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
