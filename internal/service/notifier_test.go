package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matteoriva/cinecassa/internal/model"
)

// Without a broker URL the notifier publishes nothing and never dials:
// schedule changes on broker-less deployments must stay silent, not log a
// failed connection attempt for every change.
func TestNotifierDisabledWithoutBrokerURL(t *testing.T) {
	n := NewNotifier("")
	show := &model.Show{ID: 1, StartsAt: time.Date(2026, time.March, 7, 21, 0, 0, 0, time.UTC)}

	assert.NoError(t, n.ShowCancelled(context.Background(), show, "Il Gattopardo"))
	assert.NoError(t, n.ShowRescheduled(context.Background(), show, "Il Gattopardo", show.StartsAt.Add(-time.Hour)))
}
