package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"github.com/vilatvok/rentbot/internal/auth"
	"github.com/vilatvok/rentbot/internal/config"
	"github.com/vilatvok/rentbot/internal/middleware"
	"github.com/vilatvok/rentbot/internal/repository"
)

// recordingServer captures every request's method, path and body.
type recordingServer struct {
	srv *httptest.Server

	mu    sync.Mutex
	calls []string
	body  []string
}

func newRecordingServer(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.calls = append(rs.calls, r.Method+" "+r.URL.Path)
		rs.body = append(rs.body, string(data))
		rs.mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *recordingServer) snapshot() ([]string, []string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.calls...), append([]string(nil), rs.body...)
}

// newDispatchBot wires a real bot instance with the production middleware
// chain and handler registrations against recording fakes, so tests exercise
// the actual command routing.
func newDispatchBot(t *testing.T) (*bot.Bot, *recordingServer, *recordingServer) {
	t.Helper()

	telegram := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":42}}}`))
	})
	backend := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"username":"alice"}`))
	})

	sessions := auth.NewManager(repository.NewMemoryTokenStore(), backend.srv.URL, time.Minute)

	b, err := bot.New("123:test",
		bot.WithServerURL(telegram.srv.URL),
		bot.WithSkipGetMe(),
		bot.WithNotAsyncHandlers(),
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(),
			middleware.SessionLoader(sessions),
		),
	)
	require.NoError(t, err)

	h := New(Deps{
		Bot:      b,
		Cfg:      &config.Config{APIBaseURL: backend.srv.URL, WSBaseURL: "ws://unused", ReconnectMaxRetries: 1},
		Sessions: sessions,
	})
	h.Register()
	return b, telegram, backend
}

func commandUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   1,
			Text: text,
			Chat: models.Chat{ID: 42, Type: "private"},
			From: &models.User{ID: 42},
		},
	}
}

func TestDispatch_ConfirmReset(t *testing.T) {
	b, telegram, backend := newDispatchBot(t)

	b.ProcessUpdate(context.Background(), commandUpdate("/confirmreset sometoken newpass newpass"))

	calls, _ := backend.snapshot()
	require.Equal(t, []string{"PATCH /auth/password-reset/sometoken"}, calls)

	tgCalls, tgBodies := telegram.snapshot()
	require.Len(t, tgCalls, 1)
	require.True(t, strings.HasSuffix(tgCalls[0], "/sendMessage"))
	require.Contains(t, tgBodies[0], "Password reset")
}

func TestDispatch_ConfirmRegistration(t *testing.T) {
	b, telegram, backend := newDispatchBot(t)

	b.ProcessUpdate(context.Background(), commandUpdate("/confirm sometoken"))

	calls, _ := backend.snapshot()
	require.Equal(t, []string{"GET /auth/register-confirm/sometoken"}, calls)

	_, tgBodies := telegram.snapshot()
	require.Len(t, tgBodies, 1)
	require.Contains(t, tgBodies[0], "alice")
}

func TestDispatch_ConfirmResetUsageReply(t *testing.T) {
	b, telegram, backend := newDispatchBot(t)

	// Wrong arity still reaches the reset handler, never the registration one.
	b.ProcessUpdate(context.Background(), commandUpdate("/confirmreset sometoken"))

	calls, _ := backend.snapshot()
	require.Empty(t, calls)

	_, tgBodies := telegram.snapshot()
	require.Len(t, tgBodies, 1)
	require.Contains(t, tgBodies[0], "Usage: /confirmreset")
}
