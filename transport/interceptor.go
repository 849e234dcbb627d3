package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
	bearerPrefix        = "Bearer "
)

// Session is the part of the session manager the interceptor depends on
type Session interface {
	AccessToken() string
	Renew(ctx context.Context) error
}

var _ http.RoundTripper = (*Interceptor)(nil)

// Interceptor attaches the current access token to outgoing requests. A 401
// response triggers one renewal and, if that succeeds, one retry with the
// new token. A request is never dispatched more than twice.
type Interceptor struct {
	session Session
	base    http.RoundTripper
	log     zerolog.Logger
}

// InterceptorOption defines a function type to modify the Interceptor instance.
type InterceptorOption func(*Interceptor)

// WithBase sets the wrapped transport (http.DefaultTransport by default)
func WithBase(base http.RoundTripper) InterceptorOption {
	return func(i *Interceptor) {
		i.base = base
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) InterceptorOption {
	return func(i *Interceptor) {
		i.log = logger
	}
}

// NewInterceptor creates an Interceptor over session
func NewInterceptor(session Session, options ...InterceptorOption) *Interceptor {
	i := &Interceptor{
		session: session,
		base:    http.DefaultTransport,
		log:     log.Logger.With().Str("component", "transport").Logger(),
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// NewClient returns an *http.Client that sends every request through an Interceptor
func NewClient(session Session, options ...InterceptorOption) *http.Client {
	return &http.Client{Transport: NewInterceptor(session, options...)}
}

// RoundTrip implements http.RoundTripper. The caller's request is never modified.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	token := i.session.AccessToken()
	if token == "" {
		closeBody(req)
		return nil, errors.Wrapf(errors.ErrNotAuthenticated, "%s %s", req.Method, req.URL.Path)
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	first := authorize(req.Clone(req.Context()), token, requestID)
	resp, err := i.base.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	logger := i.log.With().Str("request_id", requestID).Str("method", req.Method).Str("path", req.URL.Path).Logger()

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		logger.Warn().Msg("Received 401 for a request whose body cannot be replayed, not retrying")
		return resp, nil
	}

	if err := i.session.Renew(req.Context()); err != nil {
		logger.Info().Err(err).Msg("Renewal after 401 failed")
		return resp, nil
	}

	renewed := i.session.AccessToken()
	if renewed == "" {
		logger.Info().Msg("Session ended after renewal, not retrying")
		return resp, nil
	}

	retry := authorize(req.Clone(req.Context()), renewed, requestID)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			logger.Error().Err(err).Msg("Unable to rebuild request body for retry")
			return resp, nil
		}
		retry.Body = body
	}

	drainBody(resp)
	logger.Debug().Msg("Retrying request with renewed access token")
	return i.base.RoundTrip(retry)
}

func authorize(req *http.Request, token, requestID string) *http.Request {
	req.Header.Set(AuthorizationHeader, bearerPrefix+token)
	req.Header.Set(RequestIDHeader, requestID)
	return req
}

func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
