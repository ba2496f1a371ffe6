package bus

import (
    "strings"

    "notifyhub/internal/metrics"
    "notifyhub/internal/model"
)

// Broker fans a payload out to every current member of a topic. Publishing to
// a topic with no members is a successful no-op; there is no replay for late
// joiners.
type Broker interface {
    Subscribe(topic string, s Subscriber)
    Unsubscribe(topic string, s Subscriber)
    Publish(topic string, p model.Payload) error
}

// Memory is the in-process broker backed by a Registry.
type Memory struct {
    reg *Registry
}

func NewMemory() *Memory {
    return &Memory{reg: NewRegistry()}
}

// Registry exposes the membership registry, mainly for introspection.
func (b *Memory) Registry() *Registry { return b.reg }

func (b *Memory) Subscribe(topic string, s Subscriber)   { b.reg.Join(topic, s) }
func (b *Memory) Unsubscribe(topic string, s Subscriber) { b.reg.Leave(topic, s) }

// Publish hands the payload to every current member. Each handoff is
// non-blocking: a stalled or closed session drops its own copy and never
// delays the others.
func (b *Memory) Publish(topic string, p model.Payload) error {
    metrics.PublishedPayloads.WithLabelValues(topicClass(topic)).Inc()
    for _, s := range b.reg.Members(topic) {
        if !s.Deliver(p) {
            metrics.DroppedDeliveries.Inc()
        }
    }
    return nil
}

func topicClass(topic string) string {
    if i := strings.IndexByte(topic, ':'); i > 0 {
        return topic[:i]
    }
    return topic
}
