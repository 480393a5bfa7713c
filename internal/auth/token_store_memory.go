package auth

import (
	"context"
	"sync"
)

// NewInMemoryTokenStore returns a TokenStore backed by an in-memory map.
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{tokens: make(map[string]string)}
}

// InMemoryTokenStore implements TokenStore for tests and local development.
type InMemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

// SetRefreshToken stores the active refresh token for the user.
func (s *InMemoryTokenStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.tokens[userID] = token
	s.mu.Unlock()
	return nil
}

// SwapRefreshToken replaces the stored token only when it matches presented.
func (s *InMemoryTokenStore) SwapRefreshToken(_ context.Context, userID, presented, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tokens[userID]
	if !ok || current != presented {
		return ErrTokenStale
	}
	s.tokens[userID] = replacement
	return nil
}

// ClearRefreshToken removes the stored token for the user.
func (s *InMemoryTokenStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
	return nil
}

// Current returns the stored token for a user. Useful for tests.
func (s *InMemoryTokenStore) Current(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[userID]
	return token, ok
}
