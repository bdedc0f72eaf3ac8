package repository

import (
	"context"
	"sync"
)

// MemoryTokenStore is a non-durable TokenStore. Sessions stored here do not
// survive a restart; it backs tests and ephemeral deployments without a
// database.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	data map[int64]map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{data: make(map[int64]map[string]string)}
}

func (s *MemoryTokenStore) Get(_ context.Context, telegramID int64, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[telegramID][key], nil
}

func (s *MemoryTokenStore) Set(_ context.Context, telegramID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[telegramID] == nil {
		s.data[telegramID] = make(map[string]string)
	}
	s.data[telegramID][key] = value
	return nil
}

func (s *MemoryTokenStore) Clear(_ context.Context, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, telegramID)
	return nil
}

// Keys reports how many keys are stored for an account.
func (s *MemoryTokenStore) Keys(telegramID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[telegramID])
}
