package main

import "testing"

func TestRouteLabel(t *testing.T) {
    cases := []struct {
        path string
        want string
    }{
        {"/v1/notifications", "/v1/notifications"},
        {"/v1/notifications/read-all", "/v1/notifications/read-all"},
        {"/v1/notifications/6b9f3a2e-1c4d-4e8f-9a0b-2d3c4e5f6a7b", "/v1/notifications/{id}"},
        {"/v1/webhook-subscriptions", "/v1/webhook-subscriptions"},
        {"/v1/webhook-subscriptions/abc123", "/v1/webhook-subscriptions/{id}"},
        {"/healthz", "/healthz"},
    }
    for _, tc := range cases {
        if got := routeLabel(tc.path); got != tc.want {
            t.Fatalf("routeLabel(%q) = %q, want %q", tc.path, got, tc.want)
        }
    }
}
