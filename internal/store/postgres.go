package store

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "notifyhub/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

// Migrate applies the schema. Safe to run repeatedly (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
        `CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY,
            owner TEXT NOT NULL,
            message TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            read BOOLEAN NOT NULL DEFAULT FALSE
        )`,
        `CREATE INDEX IF NOT EXISTS idx_notifications_owner ON notifications(owner, created_at DESC)`,
        `CREATE TABLE IF NOT EXISTS webhook_subscriptions (
            id UUID PRIMARY KEY,
            owner TEXT NOT NULL,
            url TEXT NOT NULL,
            events TEXT[] NOT NULL,
            secret TEXT NOT NULL DEFAULT ''
        )`,
        `CREATE TABLE IF NOT EXISTS webhook_deliveries (
            id UUID PRIMARY KEY,
            subscription_id UUID,
            event_type TEXT NOT NULL,
            url TEXT NOT NULL,
            secret TEXT NOT NULL DEFAULT '',
            payload JSONB NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            attempts INT NOT NULL DEFAULT 0,
            next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            last_error TEXT NOT NULL DEFAULT '',
            response_code INT NOT NULL DEFAULT 0,
            latency_ms INT NOT NULL DEFAULT 0,
            delivered_at TIMESTAMPTZ
        )`,
        `CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_due ON webhook_deliveries(status, next_attempt_at)`,
    }
    for _, s := range stmts {
        if _, err := p.db.ExecContext(ctx, s); err != nil { return err }
    }
    return nil
}

func (p *Postgres) CreateUser(ctx context.Context, u model.User) error {
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
        u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
    if err != nil && isUniqueViolation(err) { return ErrExists }
    return err
}

func (p *Postgres) GetUserByName(ctx context.Context, username string) (model.User, error) {
    return p.scanUser(p.db.QueryRowContext(ctx,
        `SELECT id::text, username, email, password_hash, created_at FROM users WHERE username=$1`, username))
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (model.User, error) {
    return p.scanUser(p.db.QueryRowContext(ctx,
        `SELECT id::text, username, email, password_hash, created_at FROM users WHERE id=$1`, id))
}

func (p *Postgres) scanUser(row *sql.Row) (model.User, error) {
    var u model.User
    err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.User{}, ErrNotFound }
    return u, err
}

func (p *Postgres) CreateNotification(ctx context.Context, n model.Notification) error {
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO notifications (id, owner, message, created_at, read) VALUES ($1,$2,$3,$4,$5)`,
        n.ID, n.Owner, n.Message, n.CreatedAt, n.Read)
    return err
}

func (p *Postgres) GetNotification(ctx context.Context, id string) (model.Notification, error) {
    var n model.Notification
    err := p.db.QueryRowContext(ctx,
        `SELECT id::text, owner, message, created_at, read FROM notifications WHERE id=$1`, id).
        Scan(&n.ID, &n.Owner, &n.Message, &n.CreatedAt, &n.Read)
    if errors.Is(err, sql.ErrNoRows) { return model.Notification{}, ErrNotFound }
    return n, err
}

func (p *Postgres) UpdateNotification(ctx context.Context, n model.Notification) error {
    res, err := p.db.ExecContext(ctx,
        `UPDATE notifications SET message=$2, read=$3 WHERE id=$1`, n.ID, n.Message, n.Read)
    if err != nil { return err }
    if rows, _ := res.RowsAffected(); rows == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) ListNotificationsByOwner(ctx context.Context, owner string, unreadOnly bool) ([]model.Notification, error) {
    q := `SELECT id::text, owner, message, created_at, read FROM notifications WHERE owner=$1`
    if unreadOnly { q += ` AND read=FALSE` }
    q += ` ORDER BY created_at DESC`
    rows, err := p.db.QueryContext(ctx, q, owner)
    if err != nil { return nil, err }
    defer func() { _ = rows.Close() }()
    out := []model.Notification{}
    for rows.Next() {
        var n model.Notification
        if err := rows.Scan(&n.ID, &n.Owner, &n.Message, &n.CreatedAt, &n.Read); err != nil { return nil, err }
        out = append(out, n)
    }
    return out, rows.Err()
}

func (p *Postgres) MarkAllRead(ctx context.Context, owner string) (int, error) {
    res, err := p.db.ExecContext(ctx,
        `UPDATE notifications SET read=TRUE WHERE owner=$1 AND read=FALSE`, owner)
    if err != nil { return 0, err }
    rows, _ := res.RowsAffected()
    return int(rows), nil
}

func (p *Postgres) CreateWebhookSubscription(ctx context.Context, sub model.WebhookSubscription) error {
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO webhook_subscriptions (id, owner, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
        sub.ID, sub.Owner, sub.URL, pqStringArray(sub.Events), sub.Secret)
    return err
}

func (p *Postgres) ListWebhookSubscriptions(ctx context.Context, owner, eventType string) ([]model.WebhookSubscription, error) {
    q := `SELECT id::text, owner, url, array_to_string(events, ','), secret FROM webhook_subscriptions WHERE owner=$1`
    args := []any{owner}
    if eventType != "" {
        q += ` AND $2 = ANY(events)`
        args = append(args, eventType)
    }
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer func() { _ = rows.Close() }()
    out := []model.WebhookSubscription{}
    for rows.Next() {
        var s model.WebhookSubscription
        var joined string
        if err := rows.Scan(&s.ID, &s.Owner, &s.URL, &joined, &s.Secret); err != nil { return nil, err }
        s.Events = splitEvents(joined)
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) DeleteWebhookSubscription(ctx context.Context, owner, id string) error {
    res, err := p.db.ExecContext(ctx,
        `DELETE FROM webhook_subscriptions WHERE id=$1 AND owner=$2`, id, owner)
    if err != nil { return err }
    if rows, _ := res.RowsAffected(); rows == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New().String()
    var subID any
    if subscriptionID != "" { subID = subscriptionID }
    _, err := p.db.ExecContext(ctx,
        `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
        id, subID, eventType, url, secret, payload)
    if err != nil { return "", err }
    return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 50 }
    rows, err := p.db.QueryContext(ctx,
        `SELECT id::text, COALESCE(subscription_id::text, ''), event_type, url, secret, payload, status, attempts
         FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now()
         ORDER BY next_attempt_at LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer func() { _ = rows.Close() }()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil { return nil, err }
        out = append(out, d)
    }
    return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    if success {
        _, err := p.db.ExecContext(ctx,
            `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4, delivered_at=now() WHERE id=$1`,
            id, lastError, responseCode, latencyMs)
        return err
    }
    next := time.Now()
    if nextAttemptAt != nil { next = *nextAttemptAt }
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET attempts=attempts+1, next_attempt_at=$2, last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1`,
        id, next, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    _, err := p.db.ExecContext(ctx,
        `UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
        id, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// pqStringArray renders nil for empty slices so the driver inserts NULL-free
// empty arrays consistently.
func pqStringArray(in []string) any {
    if len(in) == 0 { return nil }
    return in
}

func splitEvents(joined string) []string {
    if joined == "" { return nil }
    return strings.Split(joined, ",")
}

func isUniqueViolation(err error) bool {
    // pgx wraps server errors; SQLSTATE 23505 is unique_violation
    type coder interface{ SQLState() string }
    var c coder
    if errors.As(err, &c) { return c.SQLState() == "23505" }
    return false
}
