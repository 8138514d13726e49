package store

import (
	"context"
	"errors"
	"time"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// Store is the persistence interface used by the API server. Runs are
// immutable once saved; there is no update path.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, error)
	LatestRun(ctx context.Context, wardNo string) (model.Run, error)
	ListRuns(ctx context.Context, wardNo, cursor string, limit int) (items []model.Run, nextCursor string, err error)

	// Webhook subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook delivery queue
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, status string, limit int) ([]map[string]any, error)
}

var ErrNotFound = errors.New("not found")
