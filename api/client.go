package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-exam-client/auth"
	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LoginPath   = "/login"
	RefreshPath = "/refresh"
	SignupPath  = "/signup"

	maxErrorBody = 1024
)

var _ auth.Authenticator = (*Client)(nil)

// Client calls the unauthenticated endpoints of the exam server: login,
// token renewal and signup. It must not be built on the request interceptor,
// the renewal call would otherwise recurse into itself.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(cl *Client) {
		cl.log = logger
	}
}

// NewClient creates a Client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.Logger.With().Str("component", "api").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token pair and profile
func (c *Client) Login(ctx context.Context, req oauthmodel.LoginRequest) (*oauthmodel.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp oauthmodel.LoginResponse
	status, err := c.postJSON(ctx, LoginPath, req, &resp)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, errors.ErrInvalidCredentials
	case err != nil && success(status):
		return nil, fmt.Errorf("Client.Login: %w: %w", errors.ErrInvalidLoginResponse, err)
	case err != nil:
		return nil, errors.Wrapf(err, "Client.Login")
	}
	return &resp, nil
}

// Refresh exchanges the refresh token for a new access token. A 401 means the
// refresh token is no longer accepted.
func (c *Client) Refresh(ctx context.Context, req oauthmodel.RefreshRequest) (*oauthmodel.RefreshResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp oauthmodel.RefreshResponse
	status, err := c.postJSON(ctx, RefreshPath, req, &resp)
	switch {
	case status == http.StatusUnauthorized:
		return nil, errors.ErrRefreshRejected
	case err != nil && success(status):
		return nil, fmt.Errorf("Client.Refresh: %w: %w", errors.ErrInvalidRefreshResponse, err)
	case err != nil:
		return nil, errors.Wrapf(err, "Client.Refresh")
	}
	return &resp, nil
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, req oauthmodel.SignupRequest) error {
	if req.Username == "" || req.Password == "" {
		return oauthmodel.ErrMissingCredentials
	}
	_, err := c.postJSON(ctx, SignupPath, req, nil)
	return errors.Wrapf(err, "Client.Signup")
}

// postJSON posts body and decodes a 2xx response into out. The status code is
// returned whenever a response was received.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Request failed")
		return 0, fmt.Errorf("%w: POST %s: %w", errors.ErrNetwork, path, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Server rejected request")
		return resp.StatusCode, err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// statusError returns a *errors.StatusError for any non-2xx response
func statusError(resp *http.Response) error {
	if success(resp.StatusCode) {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &errors.StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

func success(status int) bool {
	return status >= 200 && status < 300
}
