package api

import (
    "context"

    "notifyhub/internal/auth"
    "notifyhub/internal/bus"
    "notifyhub/internal/config"
    "notifyhub/internal/gateway"
    "notifyhub/internal/ingest"
    "notifyhub/internal/store"
    "notifyhub/internal/webhooks"
)

type Server struct {
    Store   store.Store
    Broker  bus.Broker
    Auth    *auth.Service
    Ingest  *ingest.Service
    Hooks   *webhooks.Publisher
    Gateway *gateway.Gateway
    Cfg     config.Config
}

// NewServer wires the service. No DATABASE_URL means the in-memory store;
// no REDIS_URL means the in-process broker.
func NewServer(cfg config.Config) (*Server, error) {
    var st store.Store
    if cfg.DatabaseURL == "" {
        st = store.NewMemory()
    } else {
        pg, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if err := pg.Migrate(context.Background()); err != nil {
            return nil, err
        }
        st = pg
    }

    var broker bus.Broker
    if cfg.RedisURL != "" {
        rb, err := bus.NewRedis(cfg.RedisURL)
        if err != nil {
            return nil, err
        }
        broker = rb
    } else {
        broker = bus.NewMemory()
    }

    authSvc := auth.NewService(st, cfg.JWTSecret)
    hooks := webhooks.NewPublisher(st)
    gw := gateway.New(broker, authSvc)
    gw.InboundRate = cfg.InboundRate
    gw.InboundBurst = cfg.InboundBurst

    return &Server{
        Store:   st,
        Broker:  broker,
        Auth:    authSvc,
        Ingest:  ingest.NewService(st, broker, hooks),
        Hooks:   hooks,
        Gateway: gw,
        Cfg:     cfg,
    }, nil
}

// NewWebhookWorker creates the background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store, s.Cfg.WebhookMaxAttempts)
}
