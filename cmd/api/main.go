package main

import (
    "bufio"
    "errors"
    "log"
    "net"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "notifyhub/internal/api"
    "notifyhub/internal/config"
    "notifyhub/internal/metrics"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }

    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }

    metrics.RegisterDefault()

    mux := http.NewServeMux()

    // Accounts
    mux.HandleFunc("/v1/register", srvDeps.RegisterHandler)
    mux.HandleFunc("/v1/login", srvDeps.LoginHandler)
    mux.HandleFunc("/v1/refresh-token", srvDeps.RefreshHandler)

    // Notifications
    mux.HandleFunc("/v1/notifications", srvDeps.NotificationsHandler)
    mux.HandleFunc("/v1/notifications/", srvDeps.NotificationByIDHandler) // includes /read-all
    mux.HandleFunc("/v1/send-message", srvDeps.SendMessageHandler)

    // Webhook subscriptions
    mux.HandleFunc("/v1/webhook-subscriptions", srvDeps.WebhookSubscriptionsHandler)
    mux.HandleFunc("/v1/webhook-subscriptions/", srvDeps.WebhookSubscriptionByIDHandler)

    // Live delivery
    mux.HandleFunc("/ws/notifications", srvDeps.Gateway.Handler)

    // Health
    mux.HandleFunc("/healthz", srvDeps.HealthHandler)
    mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

    // Observability
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
    mux.HandleFunc("/debug/info", srvDeps.DebugJSON)

    addr := ":" + cfg.Port

    srv := &http.Server{
        Addr:              addr,
        Handler:           logMiddleware(metricsMiddleware(mux)),
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on %s", addr)
    worker := srvDeps.NewWebhookWorker()
    worker.Start()
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        dur := time.Since(start)
        log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
    })
}

func metricsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(sw, r)
        status := strconv.Itoa(sw.status)
        path := routeLabel(r.URL.Path)
        metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
    })
}

// routeLabel collapses ID-bearing paths to templates so metric label
// cardinality stays bounded.
func routeLabel(path string) string {
    switch {
    case path == "/v1/notifications/read-all":
        return path
    case strings.HasPrefix(path, "/v1/notifications/"):
        return "/v1/notifications/{id}"
    case strings.HasPrefix(path, "/v1/webhook-subscriptions/"):
        return "/v1/webhook-subscriptions/{id}"
    }
    return path
}

type statusWriter struct {
    http.ResponseWriter
    status int
}

func (w *statusWriter) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    hj, ok := w.ResponseWriter.(http.Hijacker)
    if !ok {
        return nil, nil, errors.New("response writer does not support hijacking")
    }
    return hj.Hijack()
}
