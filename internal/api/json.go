package api

import (
    "encoding/json"
    "errors"
    "net/http"

    "notifyhub/internal/auth"
    "notifyhub/internal/ingest"
    "notifyhub/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
    Type     string `json:"type"`
    Title    string `json:"title"`
    Status   int    `json:"status"`
    Detail   string `json:"detail,omitempty"`
    Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
    writeJSON(w, status, Problem{
        Type:     "about:blank",
        Title:    title,
        Status:   status,
        Detail:   detail,
        Instance: instance,
    })
}

// writeErr maps the service error taxonomy onto HTTP statuses. Delivery
// faults never reach here; they are swallowed inside ingestion.
func writeErr(w http.ResponseWriter, err error, instance string) {
    switch {
    case errors.Is(err, ingest.ErrValidation):
        writeProblem(w, http.StatusBadRequest, "Invalid input", err.Error(), instance)
    case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
        writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), instance)
    case errors.Is(err, ingest.ErrPermissionDenied):
        writeProblem(w, http.StatusForbidden, "Forbidden", err.Error(), instance)
    case errors.Is(err, ingest.ErrNotFound), errors.Is(err, store.ErrNotFound):
        writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), instance)
    case errors.Is(err, auth.ErrUserExists):
        writeProblem(w, http.StatusConflict, "Conflict", err.Error(), instance)
    default:
        writeProblem(w, http.StatusInternalServerError, "Internal error", err.Error(), instance)
    }
}
