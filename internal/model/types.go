package model

import "time"

// Notification is the durable record. ID and Owner are fixed at creation;
// Message and Read are owner-mutable.
type Notification struct {
    ID        string    `json:"id"`
    Owner     string    `json:"owner"`
    Message   string    `json:"message"`
    CreatedAt time.Time `json:"createdAt"`
    Read      bool      `json:"read"`
}

// User is an account known to the auth service.
type User struct {
    ID           string    `json:"id"`
    Username     string    `json:"username"`
    Email        string    `json:"email,omitempty"`
    PasswordHash string    `json:"-"`
    CreatedAt    time.Time `json:"createdAt"`
}

// Payload is what travels over the bus and out to live clients. For persisted
// notifications it mirrors the record's public fields; for relayed client
// messages only Owner and Message are set.
type Payload struct {
    ID        string     `json:"id,omitempty"`
    Owner     string     `json:"owner"`
    Message   string     `json:"message"`
    CreatedAt *time.Time `json:"createdAt,omitempty"`
    Read      *bool      `json:"read,omitempty"`
}

// PayloadFrom builds the delivery payload for a persisted notification.
func PayloadFrom(n Notification) Payload {
    created := n.CreatedAt
    read := n.Read
    return Payload{ID: n.ID, Owner: n.Owner, Message: n.Message, CreatedAt: &created, Read: &read}
}

// InboundFrame is the only message shape clients may send over a live
// connection. Anything else is a protocol error and closes the session.
type InboundFrame struct {
    Message string `json:"message"`
}

// OutboundFrame wraps every payload written to a live connection.
type OutboundFrame struct {
    Notification Payload `json:"notification"`
}

// NotificationPatch carries an owner-authorized partial update.
type NotificationPatch struct {
    Message *string `json:"message,omitempty"`
    Read    *bool   `json:"read,omitempty"`
}

// WebhookSubscription registers an HTTP endpoint for notification events.
type WebhookSubscription struct {
    ID     string   `json:"id"`
    Owner  string   `json:"owner"`
    URL    string   `json:"url"`
    Events []string `json:"events"`
    Secret string   `json:"-"`
}
