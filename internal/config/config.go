package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Marketplace backend
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	WSBaseURL  string `env:"WS_BASE_URL"`

	// Session revalidation against the backend, at most once per interval
	LivenessIntervalSec int `env:"LIVENESS_INTERVAL_SECONDS" envDefault:"60"`

	// Chat reconnect policy
	ReconnectMaxRetries int `env:"CHAT_RECONNECT_MAX_RETRIES" envDefault:"8"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	if cfg.WSBaseURL == "" {
		ws, err := deriveWSBaseURL(cfg.APIBaseURL)
		if err != nil {
			return nil, err
		}
		cfg.WSBaseURL = ws
	}
	cfg.WSBaseURL = strings.TrimSuffix(cfg.WSBaseURL, "/")

	return cfg, nil
}

// deriveWSBaseURL maps the REST origin to the websocket origin (http -> ws).
func deriveWSBaseURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported api scheme %q", u.Scheme)
	}
	return u.String(), nil
}
