package bus

import (
    "sync"

    "notifyhub/internal/model"
)

// Subscriber is a live delivery target. Deliver must not block: it queues the
// payload or reports it dropped (closed or stalled receiver).
type Subscriber interface {
    ID() string
    Deliver(p model.Payload) bool
}

// Registry maps topic names to the set of currently joined subscribers.
// A topic exists only while at least one subscriber is joined.
type Registry struct {
    mu     sync.Mutex
    topics map[string]map[Subscriber]struct{}
}

func NewRegistry() *Registry {
    return &Registry{topics: map[string]map[Subscriber]struct{}{}}
}

// Join adds s to the topic's member set. Joining twice is a no-op.
func (r *Registry) Join(topic string, s Subscriber) {
    r.mu.Lock()
    if r.topics[topic] == nil { r.topics[topic] = map[Subscriber]struct{}{} }
    r.topics[topic][s] = struct{}{}
    r.mu.Unlock()
}

// Leave removes s from the topic's member set. Leaving a topic s never joined
// is a no-op.
func (r *Registry) Leave(topic string, s Subscriber) {
    r.mu.Lock()
    if m := r.topics[topic]; m != nil {
        delete(m, s)
        if len(m) == 0 { delete(r.topics, topic) }
    }
    r.mu.Unlock()
}

// Members returns a snapshot of the topic's subscribers at call time.
func (r *Registry) Members(topic string) []Subscriber {
    r.mu.Lock()
    m := r.topics[topic]
    out := make([]Subscriber, 0, len(m))
    for s := range m {
        out = append(out, s)
    }
    r.mu.Unlock()
    return out
}

// Count reports the topic's current member count.
func (r *Registry) Count(topic string) int {
    r.mu.Lock()
    n := len(r.topics[topic])
    r.mu.Unlock()
    return n
}
