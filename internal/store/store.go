package store

import (
    "context"
    "errors"
    "time"

    "notifyhub/internal/model"
)

// Store is the persistence interface used by the API server. Notifications
// are the source of truth; live delivery never depends on anything here
// having succeeded except the original write.
type Store interface {
    // Users
    CreateUser(ctx context.Context, u model.User) error
    GetUserByName(ctx context.Context, username string) (model.User, error)
    GetUserByID(ctx context.Context, id string) (model.User, error)

    // Notifications
    CreateNotification(ctx context.Context, n model.Notification) error
    GetNotification(ctx context.Context, id string) (model.Notification, error)
    UpdateNotification(ctx context.Context, n model.Notification) error
    ListNotificationsByOwner(ctx context.Context, owner string, unreadOnly bool) ([]model.Notification, error)
    MarkAllRead(ctx context.Context, owner string) (int, error)

    // Webhook subscriptions & delivery queue
    CreateWebhookSubscription(ctx context.Context, sub model.WebhookSubscription) error
    ListWebhookSubscriptions(ctx context.Context, owner, eventType string) ([]model.WebhookSubscription, error)
    DeleteWebhookSubscription(ctx context.Context, owner, id string) error
    EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error

    // Health
    Ping(ctx context.Context) error
}

var (
    ErrNotFound = errors.New("not found")
    ErrExists   = errors.New("already exists")
)
