package tripletex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/settings"
)

// SessionBuffer is the minimum remaining lifetime a cached session token needs to be reused
const SessionBuffer = 10 * time.Minute

// SettingsKeySession is the settings key the shared session token is persisted under
const SettingsKeySession = "tripletex_session"

// SessionToken represents a Tripletex session token and its expiry
type SessionToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Usable reports whether the token may still be used at the given time
func (token *SessionToken) Usable(now time.Time) bool {
	return token != nil && token.Token != "" && token.ExpiresAt.After(now.Add(SessionBuffer))
}

// TokenCache persists the current session token.
// Implementations replace token and expiry together.
type TokenCache interface {
	// Get retrieves the cached token; nil if there is none
	Get(ctx context.Context) (*SessionToken, error)

	// Set replaces the cached token
	Set(ctx context.Context, token SessionToken) error

	// Clear removes the cached token
	Clear(ctx context.Context) error
}

// MemoryTokenCache keeps the session token in process memory
type MemoryTokenCache struct {
	mu    sync.RWMutex
	token *SessionToken
}

var _ TokenCache = (*MemoryTokenCache)(nil)

// NewMemoryTokenCache creates a new empty in-memory token cache
func NewMemoryTokenCache() *MemoryTokenCache {
	return new(MemoryTokenCache)
}

func (cache *MemoryTokenCache) Get(_ context.Context) (*SessionToken, error) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.token == nil {
		return nil, nil
	}
	token := *cache.token
	return &token, nil
}

func (cache *MemoryTokenCache) Set(_ context.Context, token SessionToken) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.token = &token
	return nil
}

func (cache *MemoryTokenCache) Clear(_ context.Context) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.token = nil
	return nil
}

// SettingsTokenCache persists the session token in the settings store so several instances can share it
type SettingsTokenCache struct {
	repo settings.Repository
}

var _ TokenCache = (*SettingsTokenCache)(nil)

// NewSettingsTokenCache creates a new token cache backed by the given settings repository
func NewSettingsTokenCache(repo settings.Repository) *SettingsTokenCache {
	return &SettingsTokenCache{repo: repo}
}

func (cache *SettingsTokenCache) Get(ctx context.Context) (*SessionToken, error) {
	raw, ok, err := cache.repo.Get(ctx, SettingsKeySession)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	token := new(SessionToken)
	if err := json.Unmarshal([]byte(raw), token); err != nil {
		// A corrupt entry is treated like a missing one; the next refresh overwrites it
		return nil, nil
	}
	return token, nil
}

func (cache *SettingsTokenCache) Set(ctx context.Context, token SessionToken) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode session token: %w", err)
	}
	return cache.repo.Set(ctx, SettingsKeySession, string(raw))
}

func (cache *SettingsTokenCache) Clear(ctx context.Context) error {
	return cache.repo.Set(ctx, SettingsKeySession, "")
}
