package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vilatvok/rentbot/internal/config"
	"github.com/vilatvok/rentbot/internal/domain"
	"github.com/vilatvok/rentbot/internal/repository"
)

// fakeBackend is a minimal marketplace API for session lifecycle tests.
type fakeBackend struct {
	mux *http.ServeMux

	loginAccess   string
	loginRefresh  string
	loginHandoff  bool
	refreshCalls  int
	refreshFails  bool
	refreshPair   domain.TokenPair
	userCalls     int
	userRejects   bool
	logoutCalls   int
	refreshedWith []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{mux: http.NewServeMux()}

	f.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if f.loginHandoff {
			json.NewEncoder(w).Encode(map[string]string{
				"google_url": "https://accounts.example/consent",
				"email":      "alice@example.com",
				"google_id":  "g-123",
			})
			return
		}
		if r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  f.loginAccess,
			"refresh_token": f.loginRefresh,
		})
	})

	f.mux.HandleFunc("POST /auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls++
		var payload struct {
			RefreshToken string `json:"refresh_token"`
			Username     string `json:"username"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.refreshedWith = append(f.refreshedWith, payload.Username)
		if f.refreshFails {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "refresh token blacklisted"})
			return
		}
		json.NewEncoder(w).Encode(f.refreshPair)
	})

	f.mux.HandleFunc("GET /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		f.userCalls++
		if f.userRejects {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "account gone"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":       1,
			"username": r.PathValue("username"),
		})
	})

	f.mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logoutCalls++
		w.WriteHeader(http.StatusOK)
	})

	return f
}

func newTestSession(t *testing.T, backend *fakeBackend) (*Session, *repository.MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(backend.mux)
	t.Cleanup(srv.Close)
	store := repository.NewMemoryTokenStore()
	s := newSession(context.Background(), 100, store, srv.URL, time.Minute)
	return s, store
}

func TestSessionLogin_PersistsIssuedPair(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(time.Hour))
	backend.loginRefresh = "refresh-1"
	s, store := newTestSession(t, backend)

	result, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)
	require.Nil(t, result.Handoff)
	require.Equal(t, "alice", result.Claims.Username)

	access, _ := store.Get(ctx, 100, config.AccessTokenKey)
	refresh, _ := store.Get(ctx, 100, config.RefreshTokenKey)
	require.Equal(t, backend.loginAccess, access)
	require.Equal(t, "refresh-1", refresh)

	require.NoError(t, s.EnsureValid(ctx))
	require.Zero(t, backend.refreshCalls)
}

func TestSessionLogin_BadCredentials(t *testing.T) {
	backend := newFakeBackend(t)
	s, store := newTestSession(t, backend)

	_, err := s.Login(context.Background(), "/auth/login", "alice", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Nil(t, s.Claims())
	require.Zero(t, store.Keys(100))
}

func TestSessionLogin_GoogleHandoff(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginHandoff = true
	s, store := newTestSession(t, backend)

	result, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)
	require.Nil(t, result.Claims)
	require.Equal(t, "alice@example.com", result.Handoff.Email)
	require.Equal(t, "g-123", result.Handoff.GoogleID)

	// A handoff never establishes a session.
	require.Nil(t, s.Claims())
	require.Zero(t, store.Keys(100))
	require.ErrorIs(t, s.EnsureValid(ctx), domain.ErrNoSession)
}

func TestSessionEnsureValid_ExpiredRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(-time.Minute))
	backend.loginRefresh = "refresh-1"
	newAccess := signToken(t, 1, "alice", time.Now().Add(time.Hour))
	backend.refreshPair = domain.TokenPair{AccessToken: newAccess}
	s, store := newTestSession(t, backend)

	_, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, s.EnsureValid(ctx))
	require.Equal(t, 1, backend.refreshCalls)

	access, _ := store.Get(ctx, 100, config.AccessTokenKey)
	refresh, _ := store.Get(ctx, 100, config.RefreshTokenKey)
	require.Equal(t, newAccess, access)
	// No reissued refresh token means the stored one stays.
	require.Equal(t, "refresh-1", refresh)

	// The session is valid now; no second refresh.
	require.NoError(t, s.EnsureValid(ctx))
	require.Equal(t, 1, backend.refreshCalls)
}

func TestSessionEnsureValid_RefreshFailureDropsSession(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(-time.Minute))
	backend.loginRefresh = "refresh-1"
	backend.refreshFails = true
	s, store := newTestSession(t, backend)

	_, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)

	err = s.EnsureValid(ctx)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	require.Nil(t, s.Claims())
	require.Zero(t, store.Keys(100))

	require.ErrorIs(t, s.EnsureValid(ctx), domain.ErrNoSession)
}

func TestSessionEnsureValid_MissingRefreshToken(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	s, store := newTestSession(t, backend)

	// Seed an expired access token without a refresh token.
	expired := signToken(t, 1, "alice", time.Now().Add(-time.Minute))
	require.NoError(t, store.Set(ctx, 100, config.AccessTokenKey, expired))
	s.mu.Lock()
	claims, err := DecodeToken(expired)
	require.NoError(t, err)
	s.claims = claims
	s.mu.Unlock()

	require.ErrorIs(t, s.EnsureValid(ctx), domain.ErrNoSession)
	require.Zero(t, backend.refreshCalls)
	require.Zero(t, store.Keys(100))
}

func TestSessionLivenessCheck_RateLimited(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(time.Hour))
	backend.loginRefresh = "refresh-1"
	s, _ := newTestSession(t, backend)

	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)

	// Within the interval nothing hits the backend.
	require.NoError(t, s.EnsureValid(ctx))
	require.Zero(t, backend.userCalls)

	// Past the interval exactly one check goes out.
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.EnsureValid(ctx))
	require.NoError(t, s.EnsureValid(ctx))
	require.Equal(t, 1, backend.userCalls)
}

func TestSessionLivenessCheck_BackendRejectionDropsSession(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(time.Hour))
	backend.loginRefresh = "refresh-1"
	backend.userRejects = true
	s, store := newTestSession(t, backend)

	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	err = s.EnsureValid(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Nil(t, s.Claims())
	require.Zero(t, store.Keys(100))
}

func TestSessionLogout_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(time.Hour))
	backend.loginRefresh = "refresh-1"
	s, store := newTestSession(t, backend)

	_, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	require.Equal(t, 1, backend.logoutCalls)
	require.Nil(t, s.Claims())
	require.Zero(t, store.Keys(100))
	require.ErrorIs(t, s.EnsureValid(ctx), domain.ErrNoSession)
}

func TestSessionRefreshWithUsername(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	backend.loginAccess = signToken(t, 1, "alice", time.Now().Add(time.Hour))
	backend.loginRefresh = "refresh-1"
	newAccess := signToken(t, 1, "alicia", time.Now().Add(time.Hour))
	backend.refreshPair = domain.TokenPair{AccessToken: newAccess, RefreshToken: "refresh-2"}
	s, store := newTestSession(t, backend)

	_, err := s.Login(ctx, "/auth/login", "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, s.RefreshWithUsername(ctx, "alicia"))
	require.Equal(t, []string{"alicia"}, backend.refreshedWith)
	require.Equal(t, "alicia", s.Claims().Username)

	refresh, _ := store.Get(ctx, 100, config.RefreshTokenKey)
	require.Equal(t, "refresh-2", refresh)
}

func TestSessionResume_FromStore(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend.mux)
	t.Cleanup(srv.Close)

	store := repository.NewMemoryTokenStore()
	access := signToken(t, 7, "carol", time.Now().Add(time.Hour))
	require.NoError(t, store.Set(ctx, 200, config.AccessTokenKey, access))

	s := newSession(ctx, 200, store, srv.URL, time.Minute)
	claims := s.Claims()
	require.NotNil(t, claims)
	require.Equal(t, "carol", claims.Username)
	require.Equal(t, access, s.Token(ctx))
}

func TestManager_ReusesSessions(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenStore()
	m := NewManager(store, "http://localhost:1", time.Minute)

	a := m.Session(ctx, 1)
	b := m.Session(ctx, 1)
	c := m.Session(ctx, 2)
	require.Same(t, a, b)
	require.NotSame(t, a, c)
	require.True(t, errors.Is(a.EnsureValid(ctx), domain.ErrNoSession))
}
