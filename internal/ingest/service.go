// Package ingest is the write path: persist a notification, then attempt its
// live delivery. Persistence is the source of truth; the live push is
// best-effort and its failures never surface to the caller.
package ingest

import (
    "context"
    "errors"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"

    "notifyhub/internal/bus"
    "notifyhub/internal/model"
    "notifyhub/internal/store"
    "notifyhub/internal/webhooks"
)

var (
    ErrValidation       = errors.New("invalid input")
    ErrPermissionDenied = errors.New("permission denied")
    ErrNotFound         = errors.New("not found")
)

type Service struct {
    store  store.Store
    broker bus.Broker
    hooks  *webhooks.Publisher
    now    func() time.Time
}

func NewService(s store.Store, b bus.Broker, hooks *webhooks.Publisher) *Service {
    return &Service{store: s, broker: b, hooks: hooks, now: time.Now}
}

// Create persists a notification for owner and pushes it to the owner's
// private topic, plus the global broadcast topic when broadcast is set.
func (s *Service) Create(ctx context.Context, owner, message string, broadcast bool) (model.Notification, error) {
    if strings.TrimSpace(owner) == "" || strings.TrimSpace(message) == "" {
        return model.Notification{}, ErrValidation
    }
    n := model.Notification{
        ID:        uuid.New().String(),
        Owner:     owner,
        Message:   message,
        CreatedAt: s.now().UTC(),
    }
    if err := s.store.CreateNotification(ctx, n); err != nil {
        return model.Notification{}, err
    }
    p := model.PayloadFrom(n)
    s.publish(bus.UserTopic(owner), p)
    if broadcast {
        s.publish(bus.BroadcastTopic, p)
    }
    s.emit(ctx, owner, webhooks.EventNotificationCreated, p)
    return n, nil
}

// Update applies an owner-authorized patch. A message change is re-pushed to
// the owner's private topic; read-state flips are not.
func (s *Service) Update(ctx context.Context, id, caller string, patch model.NotificationPatch) (model.Notification, error) {
    n, err := s.store.GetNotification(ctx, id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) { return model.Notification{}, ErrNotFound }
        return model.Notification{}, err
    }
    if n.Owner != caller {
        return model.Notification{}, ErrPermissionDenied
    }
    messageChanged := false
    if patch.Message != nil && *patch.Message != n.Message {
        if strings.TrimSpace(*patch.Message) == "" { return model.Notification{}, ErrValidation }
        n.Message = *patch.Message
        messageChanged = true
    }
    if patch.Read != nil {
        n.Read = *patch.Read
    }
    if err := s.store.UpdateNotification(ctx, n); err != nil {
        return model.Notification{}, err
    }
    if messageChanged {
        s.publish(bus.UserTopic(n.Owner), model.PayloadFrom(n))
    }
    s.emit(ctx, n.Owner, webhooks.EventNotificationUpdated, model.PayloadFrom(n))
    return n, nil
}

// Send persists a notification for targetOwner on behalf of caller. The
// target must be a known user.
func (s *Service) Send(ctx context.Context, caller, targetOwner, message string) (model.Notification, error) {
    if strings.TrimSpace(message) == "" {
        return model.Notification{}, ErrValidation
    }
    if _, err := s.store.GetUserByName(ctx, targetOwner); err != nil {
        if errors.Is(err, store.ErrNotFound) { return model.Notification{}, ErrNotFound }
        return model.Notification{}, err
    }
    n := model.Notification{
        ID:        uuid.New().String(),
        Owner:     targetOwner,
        Message:   message,
        CreatedAt: s.now().UTC(),
    }
    if err := s.store.CreateNotification(ctx, n); err != nil {
        return model.Notification{}, err
    }
    p := model.PayloadFrom(n)
    s.publish(bus.UserTopic(targetOwner), p)
    s.emit(ctx, targetOwner, webhooks.EventNotificationCreated, p)
    return n, nil
}

// publish isolates live-delivery faults: a failing or panicking broker is
// logged and swallowed so the durable write's success stands.
func (s *Service) publish(topic string, p model.Payload) {
    defer func() {
        if r := recover(); r != nil {
            log.Printf("ingest: live publish to %s panicked: %v", topic, r)
        }
    }()
    if err := s.broker.Publish(topic, p); err != nil {
        log.Printf("ingest: live publish to %s failed: %v", topic, err)
    }
}

func (s *Service) emit(ctx context.Context, owner, eventType string, data any) {
    if s.hooks == nil {
        return
    }
    s.hooks.Emit(ctx, owner, eventType, data)
}
