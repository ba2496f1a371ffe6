package api

import (
    "encoding/json"
    "net/http"
    "time"

    "notifyhub/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "PORT":                 s.Cfg.Port,
            "WEBHOOK_MAX_ATTEMPTS": s.Cfg.WebhookMaxAttempts,
            "WS_INBOUND_RATE":      s.Cfg.InboundRate,
            "WS_INBOUND_BURST":     s.Cfg.InboundBurst,
            "HAS_DATABASE_URL":     s.Cfg.DatabaseURL != "",
            "HAS_REDIS_URL":        s.Cfg.RedisURL != "",
        },
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(info)
}
