package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vilatvok/rentbot/internal/api"
	"github.com/vilatvok/rentbot/internal/config"
	"github.com/vilatvok/rentbot/internal/domain"
	"github.com/vilatvok/rentbot/internal/repository"
)

// Session holds the marketplace session of one Telegram account. It owns the
// token lifecycle: login, resume, silent refresh, logout. Handlers receive it
// explicitly; there is no ambient lookup.
type Session struct {
	telegramID       int64
	store            repository.TokenStore
	client           *api.Client
	livenessInterval time.Duration
	now              func() time.Time

	mu            sync.Mutex
	claims        *domain.Claims
	lastLiveCheck time.Time
}

func newSession(ctx context.Context, telegramID int64, store repository.TokenStore, apiBaseURL string, livenessInterval time.Duration) *Session {
	s := &Session{
		telegramID:       telegramID,
		store:            store,
		livenessInterval: livenessInterval,
		now:              time.Now,
	}
	s.client = api.New(apiBaseURL, s)

	// Resume whatever token sits in the store; expiry is re-checked on the
	// first protected call.
	if access, err := store.Get(ctx, telegramID, config.AccessTokenKey); err == nil && access != "" {
		if claims, err := DecodeToken(access); err == nil {
			s.claims = claims
		}
	}
	return s
}

// Token implements api.TokenSource: the bearer attached to every outgoing
// request, read from the store so a refresh is picked up immediately.
func (s *Session) Token(ctx context.Context) string {
	access, err := s.store.Get(ctx, s.telegramID, config.AccessTokenKey)
	if err != nil {
		slog.Warn("token store read failed", "error", err, "telegram_id", s.telegramID)
		return ""
	}
	return access
}

// API exposes the client bound to this session's credentials.
func (s *Session) API() *api.Client { return s.client }

func (s *Session) TelegramID() int64 { return s.telegramID }

// Claims returns the current identity claims, or nil for an anonymous
// session.
func (s *Session) Claims() *domain.Claims {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	return &c
}

// GoogleHandoff is the federated-auth outcome of a login attempt: the backend
// wants the user to finish registration with the linked profile fields.
type GoogleHandoff struct {
	URL      string
	Email    string
	GoogleID string
	Avatar   string
}

// LoginResult is the typed outcome of Login. Exactly one field is set.
type LoginResult struct {
	Claims  *domain.Claims
	Handoff *GoogleHandoff
}

// Login posts credentials to the given auth route. On success the returned
// token pair is persisted exactly as issued and the session switches to the
// decoded identity. A handoff payload establishes no session.
func (s *Session) Login(ctx context.Context, route, username, password string) (*LoginResult, error) {
	resp, err := s.client.Login(ctx, route, username, password)
	if err != nil {
		return nil, err
	}
	return s.adoptLogin(ctx, resp)
}

// LoginGoogle exchanges a federated consent code for a session, or a handoff
// asking the user to finish registration first.
func (s *Session) LoginGoogle(ctx context.Context, code string) (*LoginResult, error) {
	resp, err := s.client.GoogleLogin(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.adoptLogin(ctx, resp)
}

func (s *Session) adoptLogin(ctx context.Context, resp *api.LoginResponse) (*LoginResult, error) {
	if resp.GoogleURL != "" {
		return &LoginResult{Handoff: &GoogleHandoff{
			URL:      resp.GoogleURL,
			Email:    resp.Email,
			GoogleID: resp.GoogleID,
			Avatar:   resp.Avatar,
		}}, nil
	}

	claims, err := DecodeToken(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	if err := s.storeTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.claims = claims
	s.lastLiveCheck = s.now()
	s.mu.Unlock()

	return &LoginResult{Claims: claims}, nil
}

// Register posts a registration form. The caller prompts for login on
// success.
func (s *Session) Register(ctx context.Context, route string, fields map[string]string) error {
	return s.client.Register(ctx, route, fields)
}

// Logout clears the store and unsets the session. The server-side blacklist
// call is best-effort.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		slog.Debug("server-side logout failed", "error", err, "telegram_id", s.telegramID)
	}
	if err := s.store.Clear(ctx, s.telegramID); err != nil {
		return fmt.Errorf("clear token store: %w", err)
	}
	s.mu.Lock()
	s.claims = nil
	s.mu.Unlock()
	return nil
}

// EnsureValid is the guard in front of protected operations. Anonymous
// sessions fail with ErrNoSession. An expired session gets exactly one silent
// refresh; refresh failure wipes the store. A still-valid session is
// revalidated against the backend at most once per liveness interval, since
// local expiry cannot see server-side invalidation.
func (s *Session) EnsureValid(ctx context.Context) error {
	s.mu.Lock()
	claims := s.claims
	s.mu.Unlock()

	if claims == nil {
		return domain.ErrNoSession
	}

	if !claims.Valid(s.now()) {
		if err := s.refresh(ctx); err != nil {
			return err
		}
		return nil
	}

	return s.checkLiveness(ctx, claims.Username)
}

// refresh exchanges the stored refresh token for a new access token. Any
// failure clears the store entirely, dropping the session to anonymous.
func (s *Session) refresh(ctx context.Context) error {
	refreshToken, err := s.store.Get(ctx, s.telegramID, config.RefreshTokenKey)
	if err != nil || refreshToken == "" {
		s.drop(ctx)
		return domain.ErrNoSession
	}

	pair, err := s.client.RefreshToken(ctx, refreshToken, "")
	if err != nil {
		s.drop(ctx)
		return fmt.Errorf("%w: %v", domain.ErrSessionExpired, err)
	}

	if err := s.store.Set(ctx, s.telegramID, config.AccessTokenKey, pair.AccessToken); err != nil {
		return err
	}
	if pair.RefreshToken != "" {
		if err := s.store.Set(ctx, s.telegramID, config.RefreshTokenKey, pair.RefreshToken); err != nil {
			return err
		}
	}

	claims, err := DecodeToken(pair.AccessToken)
	if err != nil {
		s.drop(ctx)
		return fmt.Errorf("decode refreshed token: %w", err)
	}

	s.mu.Lock()
	s.claims = claims
	s.mu.Unlock()
	return nil
}

// RefreshWithUsername reissues the token pair under a new username after a
// profile rename, so the displayed identity matches the server-confirmed
// value.
func (s *Session) RefreshWithUsername(ctx context.Context, username string) error {
	refreshToken, err := s.store.Get(ctx, s.telegramID, config.RefreshTokenKey)
	if err != nil || refreshToken == "" {
		return domain.ErrNoSession
	}

	pair, err := s.client.RefreshToken(ctx, refreshToken, username)
	if err != nil {
		return fmt.Errorf("refresh with username: %w", err)
	}
	if err := s.storeTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}

	claims, err := DecodeToken(pair.AccessToken)
	if err != nil {
		return fmt.Errorf("decode refreshed token: %w", err)
	}

	s.mu.Lock()
	s.claims = claims
	s.mu.Unlock()
	return nil
}

// checkLiveness performs the rate-limited best-effort backend check. A typed
// backend rejection means the account no longer exists or the token was
// invalidated server-side; transport failures are ignored.
func (s *Session) checkLiveness(ctx context.Context, username string) error {
	s.mu.Lock()
	due := s.now().Sub(s.lastLiveCheck) >= s.livenessInterval
	if due {
		s.lastLiveCheck = s.now()
	}
	s.mu.Unlock()

	if !due {
		return nil
	}

	if _, err := s.client.GetUser(ctx, username); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			s.drop(ctx)
			return fmt.Errorf("%w: account check returned %d", domain.ErrUnauthorized, apiErr.Status)
		}
		slog.Debug("liveness check unreachable", "error", err, "telegram_id", s.telegramID)
	}
	return nil
}

func (s *Session) storeTokens(ctx context.Context, access, refresh string) error {
	if err := s.store.Set(ctx, s.telegramID, config.AccessTokenKey, access); err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.telegramID, config.RefreshTokenKey, refresh); err != nil {
		return err
	}
	return nil
}

func (s *Session) drop(ctx context.Context) {
	if err := s.store.Clear(ctx, s.telegramID); err != nil {
		slog.Warn("token store clear failed", "error", err, "telegram_id", s.telegramID)
	}
	s.mu.Lock()
	s.claims = nil
	s.mu.Unlock()
}
