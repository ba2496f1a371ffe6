package store

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"

    "notifyhub/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu       sync.Mutex
    users    map[string]model.User         // id -> user
    byName   map[string]string             // username -> id
    notifs   map[string]model.Notification // id -> notification
    byOwner  map[string][]string           // owner -> notification ids, insertion order
    subs     map[string]model.WebhookSubscription
    subOwner map[string][]string // owner -> subscription ids
    // Webhook queue state
    deliveries map[string]*memDelivery
}

func NewMemory() *Memory {
    return &Memory{
        users:      map[string]model.User{},
        byName:     map[string]string{},
        notifs:     map[string]model.Notification{},
        byOwner:    map[string][]string{},
        subs:       map[string]model.WebhookSubscription{},
        subOwner:   map[string][]string{},
        deliveries: map[string]*memDelivery{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

func (m *Memory) CreateUser(ctx context.Context, u model.User) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.byName[u.Username]; ok { return ErrExists }
    m.users[u.ID] = u
    m.byName[u.Username] = u.ID
    return nil
}

func (m *Memory) GetUserByName(ctx context.Context, username string) (model.User, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id, ok := m.byName[username]
    if !ok { return model.User{}, ErrNotFound }
    return m.users[id], nil
}

func (m *Memory) GetUserByID(ctx context.Context, id string) (model.User, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    u, ok := m.users[id]
    if !ok { return model.User{}, ErrNotFound }
    return u, nil
}

func (m *Memory) CreateNotification(ctx context.Context, n model.Notification) error {
    m.mu.Lock(); defer m.mu.Unlock()
    m.notifs[n.ID] = n
    m.byOwner[n.Owner] = append(m.byOwner[n.Owner], n.ID)
    return nil
}

func (m *Memory) GetNotification(ctx context.Context, id string) (model.Notification, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    n, ok := m.notifs[id]
    if !ok { return model.Notification{}, ErrNotFound }
    return n, nil
}

func (m *Memory) UpdateNotification(ctx context.Context, n model.Notification) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.notifs[n.ID]; !ok { return ErrNotFound }
    m.notifs[n.ID] = n
    return nil
}

// ListNotificationsByOwner returns the owner's notifications newest first.
func (m *Memory) ListNotificationsByOwner(ctx context.Context, owner string, unreadOnly bool) ([]model.Notification, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.Notification{}
    for _, id := range m.byOwner[owner] {
        n := m.notifs[id]
        if unreadOnly && n.Read { continue }
        out = append(out, n)
    }
    sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
    return out, nil
}

func (m *Memory) MarkAllRead(ctx context.Context, owner string) (int, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    updated := 0
    for _, id := range m.byOwner[owner] {
        n := m.notifs[id]
        if !n.Read {
            n.Read = true
            m.notifs[id] = n
            updated++
        }
    }
    return updated, nil
}

func (m *Memory) CreateWebhookSubscription(ctx context.Context, sub model.WebhookSubscription) error {
    m.mu.Lock(); defer m.mu.Unlock()
    m.subs[sub.ID] = sub
    m.subOwner[sub.Owner] = append(m.subOwner[sub.Owner], sub.ID)
    return nil
}

func (m *Memory) ListWebhookSubscriptions(ctx context.Context, owner, eventType string) ([]model.WebhookSubscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.WebhookSubscription{}
    for _, id := range m.subOwner[owner] {
        s, ok := m.subs[id]
        if !ok { continue }
        if eventType == "" {
            out = append(out, s)
            continue
        }
        for _, e := range s.Events {
            if e == eventType { out = append(out, s); break }
        }
    }
    return out, nil
}

func (m *Memory) DeleteWebhookSubscription(ctx context.Context, owner, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    s, ok := m.subs[id]
    if !ok || s.Owner != owner { return ErrNotFound }
    delete(m.subs, id)
    ids := m.subOwner[owner]
    for i, sid := range ids {
        if sid == id { m.subOwner[owner] = append(ids[:i], ids[i+1:]...); break }
    }
    return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    m.deliveries[id] = &memDelivery{
        WebhookDelivery: WebhookDelivery{ID: id, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending"},
        NextAttemptAt:   time.Now(),
    }
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, d := range m.deliveries {
        if d.Status != "pending" || d.NextAttemptAt.After(now) { continue }
        out = append(out, d.WebhookDelivery)
        if limit > 0 && len(out) >= limit { break }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok { return ErrNotFound }
    d.Attempts++
    d.LastError = lastError
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
        now := time.Now()
        d.DeliveredAt = &now
    } else if nextAttemptAt != nil {
        d.NextAttemptAt = *nextAttemptAt
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d, ok := m.deliveries[id]
    if !ok { return ErrNotFound }
    d.Attempts++
    d.Status = "failed"
    d.LastError = lastError
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
