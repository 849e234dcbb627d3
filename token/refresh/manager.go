package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-exam-client/internal/config"
)

// ErrInvalidRefreshToken is returned for unknown and expired refresh tokens
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.ServerConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.ServerConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token for userID, replacing any it already holds
func (m *Manager) Create(userID string) (string, error) {
	// Single refresh token per user
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Validate returns the stored metadata for a live token. Expired tokens are
// removed and reported as ErrInvalidRefreshToken.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil || rt == nil {
		return nil, ErrInvalidRefreshToken
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, ErrInvalidRefreshToken
	}
	return rt, nil
}

// Rotate invalidates token and issues a replacement for the same user
func (m *Manager) Rotate(token string) (string, error) {
	rt, err := m.Validate(token)
	if err != nil {
		return "", err
	}
	return m.Create(rt.UserID)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
