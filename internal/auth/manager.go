package auth

import (
	"context"
	"sync"
	"time"

	"github.com/vilatvok/rentbot/internal/repository"
)

// Manager constructs and owns one Session per Telegram account. It is built
// once at the application root and handed to everything that needs session
// state.
type Manager struct {
	store            repository.TokenStore
	apiBaseURL       string
	livenessInterval time.Duration

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(store repository.TokenStore, apiBaseURL string, livenessInterval time.Duration) *Manager {
	return &Manager{
		store:            store,
		apiBaseURL:       apiBaseURL,
		livenessInterval: livenessInterval,
		sessions:         make(map[int64]*Session),
	}
}

// Session returns the account's session, constructing and resuming it from
// the token store on first access.
func (m *Manager) Session(ctx context.Context, telegramID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[telegramID]; ok {
		return s
	}
	s := newSession(ctx, telegramID, m.store, m.apiBaseURL, m.livenessInterval)
	m.sessions[telegramID] = s
	return s
}
