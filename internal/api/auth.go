// Package api implements the HTTP surface of the notification service.
package api

import (
    "net/http"
    "strings"

    "notifyhub/internal/auth"
)

// principal extracts and verifies the bearer token. Every /v1 endpoint except
// register/login/refresh requires one.
func (s *Server) principal(r *http.Request) (auth.Principal, error) {
    authz := r.Header.Get("Authorization")
    if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
        return auth.Principal{}, auth.ErrInvalidToken
    }
    return s.Auth.Verify(strings.TrimSpace(authz[len("Bearer "):]))
}
