package bus

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"

    "notifyhub/internal/metrics"
    "notifyhub/internal/model"
)

// Redis implements Broker over Redis pub/sub, one Redis channel per topic.
// Local fan-out still goes through the in-process registry, so delivery
// semantics downstream of the bridge match the memory broker.
type Redis struct {
    rdb   *redis.Client
    reg   *Registry
    mu    sync.Mutex
    chans map[string]*redis.PubSub // topic -> active subscription
}

func NewRedis(url string) (*Redis, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    return &Redis{rdb: redis.NewClient(opt), reg: NewRegistry(), chans: map[string]*redis.PubSub{}}, nil
}

func (b *Redis) Registry() *Registry { return b.reg }

func (b *Redis) Subscribe(topic string, s Subscriber) {
    b.reg.Join(topic, s)
    b.mu.Lock()
    defer b.mu.Unlock()
    if _, ok := b.chans[topic]; ok {
        return
    }
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, topic)
    // initial consume to ensure the subscription is live
    _, _ = ps.Receive(ctx)
    b.chans[topic] = ps
    go b.bridge(topic, ps)
}

func (b *Redis) bridge(topic string, ps *redis.PubSub) {
    for msg := range ps.Channel() {
        var p model.Payload
        if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
            log.Printf("bus: bad payload on %s: %v", topic, err)
            continue
        }
        for _, s := range b.reg.Members(topic) {
            if !s.Deliver(p) {
                metrics.DroppedDeliveries.Inc()
            }
        }
    }
}

func (b *Redis) Unsubscribe(topic string, s Subscriber) {
    b.reg.Leave(topic, s)
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.reg.Count(topic) == 0 {
        if ps, ok := b.chans[topic]; ok {
            _ = ps.Close()
            delete(b.chans, topic)
        }
    }
}

func (b *Redis) Publish(topic string, p model.Payload) error {
    metrics.PublishedPayloads.WithLabelValues(topicClass(topic)).Inc()
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    data, _ := json.Marshal(p)
    return b.rdb.Publish(ctx, topic, data).Err()
}
