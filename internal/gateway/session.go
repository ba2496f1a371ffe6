package gateway

import (
    "bytes"
    "encoding/json"
    "log"
    "sync"
    "sync/atomic"
    "time"

    "github.com/gorilla/websocket"
    "golang.org/x/time/rate"

    "notifyhub/internal/bus"
    "notifyhub/internal/metrics"
    "notifyhub/internal/model"
)

const (
    writeWait      = 10 * time.Second
    pongWait       = 60 * time.Second
    pingPeriod     = (pongWait * 9) / 10
    maxMessageSize = 4096
    sendQueueDepth = 64
)

// Session lifecycle. Transitions are one-way; Closed is terminal.
const (
    stateConnecting int32 = iota
    stateJoined
    stateActive
    stateClosed
)

// Session is the live state of one connected client: its identity, its topic
// memberships, and its outbound queue. The gateway owns the lifetime; the
// registry only holds non-owning references that are dropped during close.
type Session struct {
    id      string
    owner   string
    conn    *websocket.Conn
    broker  bus.Broker
    send    chan model.Payload
    topics  []string
    limiter *rate.Limiter
    state   atomic.Int32

    mu        sync.RWMutex
    closed    bool
    closeOnce sync.Once
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.owner }

// Deliver queues a payload for the write pump. Non-blocking: false means the
// session is closed or its queue is full, and the payload is dropped for this
// session only.
func (s *Session) Deliver(p model.Payload) bool {
    if s.state.Load() == stateClosed {
        return false
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    if s.closed {
        return false
    }
    select {
    case s.send <- p:
        return true
    default:
        return false
    }
}

// join registers the session with its topics and moves it to Active.
func (s *Session) join() {
    for _, t := range s.topics {
        s.broker.Subscribe(t, s)
    }
    s.state.Store(stateJoined)
    metrics.LiveSessions.Inc()
    s.state.Store(stateActive)
}

// close tears the session down exactly once, from whichever pump (or the
// server) gets there first: leave every topic, then close the queue and the
// transport. Unregistering before closing the queue keeps Deliver safe
// against concurrent publishes.
func (s *Session) close() {
    s.closeOnce.Do(func() {
        s.state.Store(stateClosed)
        for _, t := range s.topics {
            s.broker.Unsubscribe(t, s)
        }
        s.mu.Lock()
        s.closed = true
        close(s.send)
        s.mu.Unlock()
        _ = s.conn.Close()
        metrics.LiveSessions.Dec()
    })
}

// readPump consumes inbound frames until the transport drops or the client
// violates the protocol. Each valid frame is relayed to the session's own
// private topic (multi-device sync for the same user).
func (s *Session) readPump() {
    defer s.close()
    s.conn.SetReadLimit(maxMessageSize)
    _ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
    s.conn.SetPongHandler(func(string) error {
        return s.conn.SetReadDeadline(time.Now().Add(pongWait))
    })
    for {
        _, raw, err := s.conn.ReadMessage()
        if err != nil {
            return
        }
        if !s.limiter.Allow() {
            s.closeWith(4429, "message rate exceeded")
            return
        }
        frame, ok := decodeInbound(raw)
        if !ok {
            s.closeWith(websocket.ClosePolicyViolation, "expected {\"message\": string}")
            return
        }
        if err := s.broker.Publish(bus.UserTopic(s.owner), model.Payload{Owner: s.owner, Message: frame.Message}); err != nil {
            log.Printf("gateway: relay for %s failed: %v", s.owner, err)
        }
    }
}

// writePump serializes queued payloads onto the transport in handoff order
// and keeps the connection alive with pings.
func (s *Session) writePump() {
    ticker := time.NewTicker(pingPeriod)
    defer func() {
        ticker.Stop()
        s.close()
    }()
    for {
        select {
        case p, ok := <-s.send:
            _ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if !ok {
                _ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
                return
            }
            if err := s.conn.WriteJSON(model.OutboundFrame{Notification: p}); err != nil {
                return
            }
        case <-ticker.C:
            _ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}

// closeWith sends a close frame from the read side. WriteControl is safe to
// call while writePump holds the data-message writer.
func (s *Session) closeWith(code int, reason string) {
    msg := websocket.FormatCloseMessage(code, reason)
    _ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// decodeInbound enforces the one allowed inbound shape. Unknown fields or a
// non-string message are protocol errors.
func decodeInbound(raw []byte) (model.InboundFrame, bool) {
    dec := json.NewDecoder(bytes.NewReader(raw))
    dec.DisallowUnknownFields()
    var f model.InboundFrame
    if err := dec.Decode(&f); err != nil {
        return model.InboundFrame{}, false
    }
    return f, true
}
