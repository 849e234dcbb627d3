package auth

import (
	"context"

	"github.com/jrsteele09/go-exam-client/oauthmodel"
)

// Authenticator is the server side of the session lifecycle: it exchanges
// credentials for tokens and refresh tokens for new access tokens.
type Authenticator interface {
	// Login reports bad credentials itself (errors.ErrInvalidCredentials)
	Login(ctx context.Context, req oauthmodel.LoginRequest) (*oauthmodel.LoginResponse, error)

	// Refresh returns errors.ErrRefreshRejected when the refresh token is no longer valid
	Refresh(ctx context.Context, req oauthmodel.RefreshRequest) (*oauthmodel.RefreshResponse, error)
}
