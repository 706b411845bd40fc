package tokenstore

import (
	"context"
	"sync"

	"github.com/kroma-labs/sentinel-auth/httpclient"
)

var _ httpclient.TokenStore = (*Memory)(nil)

// Memory is an in-process TokenStore. Writes are last-write-wins.
type Memory struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewMemory creates a Memory store seeded with the given tokens.
func NewMemory(accessToken, refreshToken string) *Memory {
	return &Memory{creds: Credentials{AccessToken: accessToken, RefreshToken: refreshToken}}
}

// AccessToken implements httpclient.TokenStore.
func (m *Memory) AccessToken(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken, nil
}

// RefreshToken implements httpclient.TokenStore.
func (m *Memory) RefreshToken(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.RefreshToken, nil
}

// SetTokens implements httpclient.TokenStore.
func (m *Memory) SetTokens(_ context.Context, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{AccessToken: accessToken, RefreshToken: refreshToken}
	return nil
}

// Load returns both tokens.
func (m *Memory) Load(context.Context) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

// Clear removes both tokens.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}
