package webhooks

import (
    "context"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "notifyhub/internal/model"
    "notifyhub/internal/store"
)

type recordStore struct {
    *store.Memory
    mu    sync.Mutex
    marks []MarkRec
    fails []FailRec
}
type MarkRec struct {
    ID            string
    Success       bool
    Code, Latency int
    LastErr       string
}
type FailRec struct {
    ID            string
    Code, Latency int
    LastErr       string
}

func (r *recordStore) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    r.mu.Lock()
    r.marks = append(r.marks, MarkRec{ID: id, Success: success, Code: responseCode, Latency: latencyMs, LastErr: lastError})
    r.mu.Unlock()
    return r.Memory.MarkWebhookDelivery(ctx, id, success, nextAttemptAt, lastError, responseCode, latencyMs)
}
func (r *recordStore) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    r.mu.Lock()
    r.fails = append(r.fails, FailRec{ID: id, Code: responseCode, Latency: latencyMs, LastErr: lastError})
    r.mu.Unlock()
    return r.Memory.FailWebhookDelivery(ctx, id, lastError, responseCode, latencyMs)
}

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
    var gotSig, gotType string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotSig = r.Header.Get("X-Signature")
        gotType = r.Header.Get("X-Event-Type")
        w.WriteHeader(200)
    }))
    defer srv.Close()

    rs := &recordStore{Memory: store.NewMemory()}
    w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 3}
    id, err := rs.Memory.EnqueueWebhook(context.Background(), "", EventNotificationCreated, srv.URL, "secret", []byte(`{"id":"evt1"}`))
    if err != nil || id == "" {
        t.Fatalf("enqueue failed: %v", err)
    }

    w.processOnce()

    if gotSig == "" || gotType != EventNotificationCreated {
        t.Fatalf("missing signature/type headers: sig=%q type=%q", gotSig, gotType)
    }
    if !VerifyHMAC("secret", []byte(`{"id":"evt1"}`), gotSig) {
        t.Fatalf("signature does not verify: %q", gotSig)
    }
    if len(rs.marks) == 0 || !rs.marks[0].Success {
        t.Fatalf("expected mark success, got: %+v", rs.marks)
    }
}

func TestWorkerProcessOnce_Fail(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }))
    defer srv.Close()
    rs := &recordStore{Memory: store.NewMemory()}
    w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 1}
    _, _ = rs.Memory.EnqueueWebhook(context.Background(), "", EventNotificationCreated, srv.URL, "", []byte(`{}`))
    w.processOnce()
    if len(rs.fails) == 0 {
        t.Fatalf("expected fail recorded")
    }
}

func TestPublisherEmitMatchesSubscriptions(t *testing.T) {
    m := store.NewMemory()
    ctx := context.Background()
    _ = m.CreateWebhookSubscription(ctx, model.WebhookSubscription{ID: "s1", Owner: "alice", URL: "https://example.invalid/a", Events: []string{EventNotificationCreated}})
    _ = m.CreateWebhookSubscription(ctx, model.WebhookSubscription{ID: "s2", Owner: "alice", URL: "https://example.invalid/b", Events: []string{EventNotificationUpdated}})

    p := NewPublisher(m)
    p.Emit(ctx, "alice", EventNotificationCreated, map[string]any{"id": "n1"})

    due, err := m.FetchDueWebhookDeliveries(ctx, 10)
    if err != nil { t.Fatalf("fetch: %v", err) }
    if len(due) != 1 || due[0].SubscriptionID != "s1" {
        t.Fatalf("expected one delivery for s1, got %+v", due)
    }
}

func TestNextBackoffCaps(t *testing.T) {
    if nextBackoff(0) != time.Second { t.Fatalf("attempt 0: %v", nextBackoff(0)) }
    if nextBackoff(2) != 4*time.Second { t.Fatalf("attempt 2: %v", nextBackoff(2)) }
    if nextBackoff(11) != 2048*time.Second { t.Fatalf("attempt 11: %v", nextBackoff(11)) }
    if nextBackoff(12) != time.Hour { t.Fatalf("attempt 12: %v", nextBackoff(12)) }
    if nextBackoff(100) != time.Hour { t.Fatalf("large attempts: %v", nextBackoff(100)) }
    if nextBackoff(-5) != time.Second { t.Fatalf("negative attempts: %v", nextBackoff(-5)) }
}
