package auth

import (
	"github.com/jrsteele09/go-exam-client/internal/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = tokenSource{}

type tokenSource struct {
	m *Manager
}

// TokenSource exposes the current access token to code built on golang.org/x/oauth2.
// It does not renew; renewal stays with the manager and the request interceptor.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSource{m: m}
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	s := t.m.Snapshot()
	if !s.IsAuthenticated {
		return nil, errors.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		Expiry:      s.ExpiresAt,
	}, nil
}
