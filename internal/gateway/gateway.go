// Package gateway accepts live connections, authenticates them, and runs one
// Session per connection against the bus.
package gateway

import (
    "net/http"
    "strings"

    "github.com/google/uuid"
    "github.com/gorilla/websocket"
    "golang.org/x/time/rate"

    "notifyhub/internal/auth"
    "notifyhub/internal/bus"
    "notifyhub/internal/model"
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    CheckOrigin:     func(_ *http.Request) bool { return true },
}

type Gateway struct {
    Broker bus.Broker
    Auth   *auth.Service
    // Inbound frame budget per session; zero means the defaults below.
    InboundRate  float64
    InboundBurst int
}

const (
    defaultInboundRate  = 20
    defaultInboundBurst = 40
)

func New(b bus.Broker, a *auth.Service) *Gateway {
    return &Gateway{Broker: b, Auth: a}
}

// Handler upgrades /ws/notifications connections. Authentication happens
// before the upgrade; a bad token never produces a session.
func (g *Gateway) Handler(w http.ResponseWriter, r *http.Request) {
    pr, err := g.Auth.Verify(bearerToken(r))
    if err != nil {
        http.Error(w, "invalid or missing token", http.StatusUnauthorized)
        return
    }
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        return
    }

    rl := g.InboundRate
    if rl <= 0 { rl = defaultInboundRate }
    burst := g.InboundBurst
    if burst <= 0 { burst = defaultInboundBurst }

    s := &Session{
        id:      uuid.New().String(),
        owner:   pr.Username,
        conn:    conn,
        broker:  g.Broker,
        send:    make(chan model.Payload, sendQueueDepth),
        topics:  []string{bus.UserTopic(pr.Username), bus.BroadcastTopic},
        limiter: rate.NewLimiter(rate.Limit(rl), burst),
    }
    s.join()
    go s.writePump()
    s.readPump()
}

// bearerToken pulls the credential from the Authorization header, or from
// the token query parameter for browser clients that cannot set headers.
func bearerToken(r *http.Request) string {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
        return strings.TrimSpace(authz[len("Bearer "):])
    }
    return r.URL.Query().Get("token")
}
