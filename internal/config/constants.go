package config

import "time"

const (
	// API request timeout
	RequestTimeout = 30 * time.Second

	// Token store keys
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"

	// Chat websocket timings
	WriteWait  = 10 * time.Second
	PongWait   = 60 * time.Second
	PingPeriod = (PongWait * 9) / 10

	// Chat reconnect backoff
	ReconnectInitialInterval = 500 * time.Millisecond
	ReconnectMaxInterval     = 30 * time.Second

	// Inbound chat event queue per session
	ChatEventBuffer = 64

	// Pagination
	OffersPerPage = 5

	// Rate limits (per minute, per chat)
	RateLimitPerMinute = 20
)
