package bus

import (
    "fmt"
    "sync"
    "testing"
    "time"

    "notifyhub/internal/model"
)

type chanSub struct {
    id string
    ch chan model.Payload
}

func newChanSub(id string, depth int) *chanSub {
    return &chanSub{id: id, ch: make(chan model.Payload, depth)}
}

func (s *chanSub) ID() string { return s.id }

func (s *chanSub) Deliver(p model.Payload) bool {
    select {
    case s.ch <- p:
        return true
    default:
        return false
    }
}

func TestRegistryJoinLeaveIdempotent(t *testing.T) {
    r := NewRegistry()
    a := newChanSub("a", 1)
    b := newChanSub("b", 1)

    r.Join("user:alice", a)
    r.Join("user:alice", a) // duplicate join must not double-count
    r.Join("user:alice", b)
    if got := r.Count("user:alice"); got != 2 { t.Fatalf("count after joins: got %d, want 2", got) }

    r.Leave("user:alice", a)
    r.Leave("user:alice", a) // duplicate leave is a no-op
    if got := r.Count("user:alice"); got != 1 { t.Fatalf("count after leaves: got %d, want 1", got) }

    r.Leave("user:alice", b)
    if got := r.Count("user:alice"); got != 0 { t.Fatalf("count after all left: got %d, want 0", got) }
    if members := r.Members("user:alice"); len(members) != 0 {
        t.Fatalf("members of empty topic: %v", members)
    }
}

func TestRegistryLeaveUnknownTopic(t *testing.T) {
    r := NewRegistry()
    r.Leave("user:ghost", newChanSub("x", 1)) // must not panic or error
    if got := r.Count("user:ghost"); got != 0 { t.Fatalf("got %d, want 0", got) }
}

func TestPublishNoMembersIsNoop(t *testing.T) {
    b := NewMemory()
    b.Publish("user:nobody", model.Payload{Owner: "nobody", Message: "hi"})
    // nothing to assert beyond not panicking; steady state for offline users
}

func TestPublishFanout(t *testing.T) {
    b := NewMemory()
    a := newChanSub("a", 4)
    c := newChanSub("c", 4)
    b.Subscribe("broadcast:global", a)
    b.Subscribe("broadcast:global", c)

    b.Publish("broadcast:global", model.Payload{Owner: "sys", Message: "notice"})

    for _, s := range []*chanSub{a, c} {
        select {
        case p := <-s.ch:
            if p.Message != "notice" { t.Fatalf("sub %s: got %q", s.id, p.Message) }
        case <-time.After(time.Second):
            t.Fatalf("sub %s: no delivery", s.id)
        }
    }
}

func TestPublishPreservesPerTopicOrder(t *testing.T) {
    b := NewMemory()
    s := newChanSub("a", 64)
    b.Subscribe("user:alice", s)

    for i := 0; i < 50; i++ {
        b.Publish("user:alice", model.Payload{Owner: "alice", Message: fmt.Sprintf("m%d", i)})
        // interleave publishes on an unrelated topic
        b.Publish("user:bob", model.Payload{Owner: "bob", Message: "noise"})
    }
    for i := 0; i < 50; i++ {
        select {
        case p := <-s.ch:
            if want := fmt.Sprintf("m%d", i); p.Message != want {
                t.Fatalf("position %d: got %q, want %q", i, p.Message, want)
            }
        case <-time.After(time.Second):
            t.Fatalf("missing delivery %d", i)
        }
    }
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
    b := NewMemory()
    stalled := newChanSub("stalled", 1)
    healthy := newChanSub("healthy", 8)
    b.Subscribe("user:alice", stalled)
    b.Subscribe("user:alice", healthy)

    // Fill the stalled subscriber's queue; later publishes drop its copies
    // but must still reach the healthy subscriber.
    for i := 0; i < 5; i++ {
        b.Publish("user:alice", model.Payload{Owner: "alice", Message: fmt.Sprintf("m%d", i)})
    }
    for i := 0; i < 5; i++ {
        select {
        case <-healthy.ch:
        case <-time.After(time.Second):
            t.Fatalf("healthy subscriber missed delivery %d", i)
        }
    }
    if len(stalled.ch) != 1 {
        t.Fatalf("stalled queue: got %d, want 1", len(stalled.ch))
    }
}

func TestUnsubscribedSessionReceivesNothing(t *testing.T) {
    b := NewMemory()
    s := newChanSub("a", 4)
    b.Subscribe("user:alice", s)
    b.Subscribe("broadcast:global", s)

    b.Unsubscribe("user:alice", s)
    b.Unsubscribe("broadcast:global", s)
    b.Publish("user:alice", model.Payload{Owner: "alice", Message: "late"})
    b.Publish("broadcast:global", model.Payload{Owner: "sys", Message: "late"})

    select {
    case p := <-s.ch:
        t.Fatalf("delivery after unsubscribe: %+v", p)
    case <-time.After(50 * time.Millisecond):
    }
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
    b := NewMemory()
    var wg sync.WaitGroup
    for i := 0; i < 16; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            s := newChanSub(fmt.Sprintf("s%d", i), 8)
            topic := UserTopic(fmt.Sprintf("u%d", i%4))
            for j := 0; j < 100; j++ {
                b.Subscribe(topic, s)
                b.Publish(topic, model.Payload{Owner: "x", Message: "m"})
                b.Unsubscribe(topic, s)
            }
        }(i)
    }
    wg.Wait()
    for i := 0; i < 4; i++ {
        if got := b.Registry().Count(UserTopic(fmt.Sprintf("u%d", i))); got != 0 {
            t.Fatalf("topic u%d not empty: %d", i, got)
        }
    }
}

func TestTopicHelpers(t *testing.T) {
    if got := UserTopic("alice"); got != "user:alice" { t.Fatalf("got %s", got) }
    if BroadcastTopic != "broadcast:global" { t.Fatalf("got %s", BroadcastTopic) }
    if got := topicClass("user:alice"); got != "user" { t.Fatalf("got %s", got) }
    if got := topicClass("plain"); got != "plain" { t.Fatalf("got %s", got) }
}
