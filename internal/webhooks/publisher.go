package webhooks

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "notifyhub/internal/store"
)

// Event types emitted by the ingestion path.
const (
    EventNotificationCreated = "notification.created"
    EventNotificationUpdated = "notification.updated"
)

type Publisher struct {
    Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
    return &Publisher{Store: s}
}

// Emit enqueues the event for every subscription the owner registered for
// this event type. Best-effort: enqueue failures are ignored here, the queue
// worker handles delivery failures.
func (p *Publisher) Emit(ctx context.Context, owner, eventType string, data any) {
    subs, err := p.Store.ListWebhookSubscriptions(ctx, owner, eventType)
    if err != nil || len(subs) == 0 {
        return
    }
    payload := map[string]any{
        "id":    fmt.Sprintf("evt_%d", time.Now().UnixNano()),
        "type":  eventType,
        "owner": owner,
        "ts":    time.Now().UTC().Format(time.RFC3339),
        "data":  data,
    }
    body, _ := json.Marshal(payload)
    for _, s := range subs {
        _, _ = p.Store.EnqueueWebhook(ctx, s.ID, eventType, s.URL, s.Secret, body)
    }
}
