// Package config loads service configuration from an optional YAML file with
// environment variables taking precedence.
package config

import (
    "fmt"
    "os"
    "strconv"

    "gopkg.in/yaml.v3"
)

type Config struct {
    Port               string  `yaml:"port"`
    DatabaseURL        string  `yaml:"database_url"`
    RedisURL           string  `yaml:"redis_url"`
    JWTSecret          string  `yaml:"jwt_secret"`
    WebhookMaxAttempts int     `yaml:"webhook_max_attempts"`
    InboundRate        float64 `yaml:"inbound_rate"`
    InboundBurst       int     `yaml:"inbound_burst"`
}

func defaults() Config {
    return Config{
        Port:               "8080",
        JWTSecret:          "dev-secret",
        WebhookMaxAttempts: 10,
        InboundRate:        20,
        InboundBurst:       40,
    }
}

// Load reads CONFIG_FILE (when set) and then applies env overrides.
func Load() (Config, error) {
    cfg := defaults()
    if path := os.Getenv("CONFIG_FILE"); path != "" {
        data, err := os.ReadFile(path)
        if err != nil {
            return Config{}, fmt.Errorf("read config: %w", err)
        }
        if err := yaml.Unmarshal(data, &cfg); err != nil {
            return Config{}, fmt.Errorf("parse config: %w", err)
        }
    }
    if v := os.Getenv("PORT"); v != "" { cfg.Port = v }
    if v := os.Getenv("DATABASE_URL"); v != "" { cfg.DatabaseURL = v }
    if v := os.Getenv("REDIS_URL"); v != "" { cfg.RedisURL = v }
    if v := os.Getenv("JWT_SECRET"); v != "" { cfg.JWTSecret = v }
    if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 { cfg.WebhookMaxAttempts = n }
    }
    if v := os.Getenv("WS_INBOUND_RATE"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 { cfg.InboundRate = f }
    }
    if v := os.Getenv("WS_INBOUND_BURST"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 { cfg.InboundBurst = n }
    }
    return cfg, nil
}
