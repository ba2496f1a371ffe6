package api

import (
    "errors"
    "net/url"
    "strings"

    "github.com/google/uuid"
)

func newID() string { return uuid.NewString() }

func validateRegister(username, password, password2 string) error {
    if strings.TrimSpace(username) == "" {
        return errors.New("username is required")
    }
    if len(password) < 8 {
        return errors.New("password must be at least 8 characters")
    }
    if password != password2 {
        return errors.New("passwords do not match")
    }
    return nil
}

func validateSubscription(rawURL string, events []string) error {
    u, err := url.Parse(rawURL)
    if err != nil || u.Scheme == "" || u.Host == "" {
        return errors.New("url must be absolute")
    }
    if u.Scheme != "http" && u.Scheme != "https" {
        return errors.New("url scheme must be http or https")
    }
    if len(events) == 0 {
        return errors.New("at least one event is required")
    }
    for _, e := range events {
        if strings.TrimSpace(e) == "" {
            return errors.New("event names must be non-empty")
        }
    }
    return nil
}
