package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveWSBaseURL(t *testing.T) {
	tests := []struct {
		api  string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000"},
		{"https://market.example.com", "wss://market.example.com"},
		{"https://market.example.com/api", "wss://market.example.com/api"},
	}
	for _, tt := range tests {
		got, err := deriveWSBaseURL(tt.api)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := deriveWSBaseURL("ftp://market.example.com")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/rentbot")
	t.Setenv("API_BASE_URL", "https://market.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://market.example.com", cfg.APIBaseURL)
	require.Equal(t, "wss://market.example.com", cfg.WSBaseURL)
	require.Equal(t, 60, cfg.LivenessIntervalSec)
	require.Equal(t, 8, cfg.ReconnectMaxRetries)
}

func TestLoad_ExplicitWSBaseURL(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/rentbot")
	t.Setenv("WS_BASE_URL", "wss://ws.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "wss://ws.example.com", cfg.WSBaseURL)
}
