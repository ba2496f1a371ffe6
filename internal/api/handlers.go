package api

import (
    "encoding/json"
    "net/http"
    "strings"

    "notifyhub/internal/model"
)

// RegisterHandler handles POST /v1/register
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        Username  string `json:"username"`
        Password  string `json:"password"`
        Password2 string `json:"password2"`
        Email     string `json:"email"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateRegister(req.Username, req.Password, req.Password2); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid registration", err.Error(), r.URL.Path)
        return
    }
    u, err := s.Auth.Register(r.Context(), req.Username, req.Email, req.Password)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    pair, err := s.Auth.Issue(u)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    writeJSON(w, http.StatusCreated, map[string]any{
        "userId":       u.ID,
        "username":     u.Username,
        "email":        u.Email,
        "accessToken":  pair.Access,
        "refreshToken": pair.Refresh,
    })
}

// LoginHandler handles POST /v1/login
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        Username string `json:"username"`
        Password string `json:"password"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    u, err := s.Auth.Authenticate(r.Context(), req.Username, req.Password)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    pair, err := s.Auth.Issue(u)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "userId":       u.ID,
        "username":     u.Username,
        "accessToken":  pair.Access,
        "refreshToken": pair.Refresh,
    })
}

// RefreshHandler handles POST /v1/refresh-token
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        RefreshToken string `json:"refreshToken"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    access, err := s.Auth.Refresh(r.Context(), req.RefreshToken)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"accessToken": access})
}

// NotificationsHandler handles GET/POST /v1/notifications
func (s *Server) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
    pr, err := s.principal(r)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    switch r.Method {
    case http.MethodGet:
        unreadOnly := r.URL.Query().Get("unread") == "true"
        items, err := s.Store.ListNotificationsByOwner(r.Context(), pr.Username, unreadOnly)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case http.MethodPost:
        var req struct {
            Message   string `json:"message"`
            Broadcast bool   `json:"broadcast"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        n, err := s.Ingest.Create(r.Context(), pr.Username, req.Message, req.Broadcast)
        if err != nil {
            writeErr(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, n)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// NotificationByIDHandler handles /v1/notifications/{id} and the read-all
// subresource.
func (s *Server) NotificationByIDHandler(w http.ResponseWriter, r *http.Request) {
    pr, err := s.principal(r)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    rest := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
    if rest == "read-all" {
        if r.Method != http.MethodPost {
            w.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        updated, err := s.Store.MarkAllRead(r.Context(), pr.Username)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Mark all read failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
        return
    }
    id := strings.TrimSuffix(rest, "/")
    switch r.Method {
    case http.MethodGet:
        n, err := s.Store.GetNotification(r.Context(), id)
        if err != nil {
            writeErr(w, err, r.URL.Path)
            return
        }
        if n.Owner != pr.Username {
            writeProblem(w, http.StatusForbidden, "Forbidden", "not the owner", r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, n)
    case http.MethodPatch:
        var patch model.NotificationPatch
        if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        n, err := s.Ingest.Update(r.Context(), id, pr.Username, patch)
        if err != nil {
            writeErr(w, err, r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, n)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SendMessageHandler handles POST /v1/send-message
func (s *Server) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    pr, err := s.principal(r)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    var req struct {
        Target  string `json:"target"`
        Message string `json:"message"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    n, err := s.Ingest.Send(r.Context(), pr.Username, req.Target, req.Message)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"status": "success", "notificationId": n.ID})
}

// WebhookSubscriptionsHandler handles POST/GET /v1/webhook-subscriptions
func (s *Server) WebhookSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    pr, err := s.principal(r)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    switch r.Method {
    case http.MethodPost:
        var req struct {
            URL    string   `json:"url"`
            Events []string `json:"events"`
            Secret string   `json:"secret"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateSubscription(req.URL, req.Events); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
            return
        }
        sub := model.WebhookSubscription{ID: newID(), Owner: pr.Username, URL: req.URL, Events: req.Events, Secret: req.Secret}
        if err := s.Store.CreateWebhookSubscription(r.Context(), sub); err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        subs, err := s.Store.ListWebhookSubscriptions(r.Context(), pr.Username, "")
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": subs})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// WebhookSubscriptionByIDHandler handles DELETE /v1/webhook-subscriptions/{id}
func (s *Server) WebhookSubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodDelete {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    pr, err := s.principal(r)
    if err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    id := strings.TrimPrefix(r.URL.Path, "/v1/webhook-subscriptions/")
    if err := s.Store.DeleteWebhookSubscription(r.Context(), pr.Username, id); err != nil {
        writeErr(w, err, r.URL.Path)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    if err := s.Store.Ping(r.Context()); err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
