package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/jrsteele09/go-exam-client/sessions"
	"github.com/jrsteele09/go-exam-client/token/jwt"
	"github.com/jrsteele09/go-exam-client/token/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Manager owns the process-wide session. It is the only writer of the
// session state and the token store; everything else reads snapshots.
type Manager struct {
	authenticator  Authenticator
	store          store.Repo
	clock          clockwork.Clock
	scheduler      *Scheduler
	renewals       singleflight.Group
	leadTime       time.Duration
	requestTimeout time.Duration
	registerer     prometheus.Registerer
	metrics        *metrics
	log            zerolog.Logger

	lock       sync.Mutex // protects the below fields
	state      sessions.State
	generation uint64 // bumped on every login and logout
	watchers   map[int]chan sessions.State
	nextWatch  int
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithClock sets the time source (primarily for testing)
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithLeadTime sets how long before expiry the access token is renewed
func WithLeadTime(leadTime time.Duration) ManagerOption {
	return func(m *Manager) {
		m.leadTime = leadTime
	}
}

// WithRequestTimeout bounds each renewal call to the server
func WithRequestTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.requestTimeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = logger
	}
}

// WithRegisterer registers the session metrics on reg
func WithRegisterer(reg prometheus.Registerer) ManagerOption {
	return func(m *Manager) {
		m.registerer = reg
	}
}

// WithSessionConfig applies the lead time and request timeout from configuration
func WithSessionConfig(cfg config.SessionConfig) ManagerOption {
	return func(m *Manager) {
		m.leadTime = cfg.GetRenewalLeadTime()
		m.requestTimeout = cfg.GetRequestTimeout()
	}
}

// NewManager creates an anonymous Manager. Call Initialize to restore a persisted session.
func NewManager(authenticator Authenticator, repo store.Repo, options ...ManagerOption) (*Manager, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("[NewManager] %w", AuthenticatorRequiredErr)
	}
	if repo == nil {
		return nil, fmt.Errorf("[NewManager] %w", StoreRequiredErr)
	}

	m := &Manager{
		authenticator:  authenticator,
		store:          repo,
		clock:          clockwork.NewRealClock(),
		leadTime:       config.DefaultRenewalLeadTime,
		requestTimeout: config.DefaultRequestTimeout,
		log:            log.Logger.With().Str("component", "auth").Logger(),
		state:          sessions.Empty(),
		watchers:       make(map[int]chan sessions.State),
	}

	for _, opt := range options {
		opt(m)
	}

	m.metrics = newMetrics(m.registerer)
	m.scheduler = NewScheduler(m.clock, m.leadTime, m.renewFromTimer, m.log)
	return m, nil
}

// Initialize restores the persisted session. A complete record whose access
// token is still valid becomes the authenticated session; anything else is
// logged out so the process starts from a clean anonymous state.
func (m *Manager) Initialize() error {
	record, err := m.store.Load()
	if err != nil {
		m.Logout()
		return errors.Wrapf(err, "Manager.Initialize Load")
	}

	now := m.clock.Now()
	if record.RefreshToken == "" || !oauthmodel.HasProfile(record.User) || !jwt.IsValid(record.AccessToken, now) {
		if !record.Empty() {
			m.log.Info().Msg("Persisted session is incomplete or expired, starting anonymous")
		}
		m.Logout()
		return nil
	}

	claims, err := jwt.Decode(record.AccessToken)
	if err != nil {
		m.Logout()
		return nil
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.generation++
	m.state = sessions.State{
		Status:          sessions.Authenticated,
		IsAuthenticated: true,
		User:            record.User,
		AccessToken:     record.AccessToken,
		RefreshToken:    record.RefreshToken,
		ExpiresAt:       claims.ExpiresAt,
	}
	m.armLocked()
	m.publishLocked()
	m.log.Info().Time("expires_at", claims.ExpiresAt).Msg("Session restored")
	return nil
}

// Login exchanges credentials for a session. Bad credentials are reported by
// the authenticator; a success response missing any of the access token,
// refresh token or user fails with ErrInvalidLoginResponse.
func (m *Manager) Login(ctx context.Context, req oauthmodel.LoginRequest) error {
	resp, err := m.authenticator.Login(ctx, req)
	if err != nil {
		m.metrics.logins.WithLabelValues(outcomeFailure).Inc()
		m.log.Warn().Err(err).Msg("Login failed")
		return err
	}

	if !resp.Complete() {
		m.metrics.logins.WithLabelValues(outcomeInvalid).Inc()
		m.log.Error().Msg("Login response is missing accessToken, refreshToken or user")
		return errors.Wrapf(errors.ErrInvalidLoginResponse, "Manager.Login")
	}

	claims, err := jwt.Decode(resp.AccessToken)
	if err != nil {
		m.metrics.logins.WithLabelValues(outcomeInvalid).Inc()
		m.log.Error().Err(err).Msg("Login response carries an undecodable access token")
		return fmt.Errorf("Manager.Login: %w: %w", errors.ErrInvalidLoginResponse, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	record := store.Record{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}
	if err := m.store.Save(record); err != nil {
		m.metrics.logins.WithLabelValues(outcomeFailure).Inc()
		m.log.Error().Err(err).Msg("Failed to persist login, logging out")
		m.logoutLocked()
		return errors.Wrapf(err, "Manager.Login Save")
	}

	m.generation++
	m.state = sessions.State{
		Status:          sessions.Authenticated,
		IsAuthenticated: true,
		User:            record.User,
		AccessToken:     record.AccessToken,
		RefreshToken:    record.RefreshToken,
		ExpiresAt:       claims.ExpiresAt,
	}
	m.armLocked()
	m.publishLocked()

	m.metrics.logins.WithLabelValues(outcomeSuccess).Inc()
	m.log.Info().Time("expires_at", claims.ExpiresAt).Msg("Logged in")
	return nil
}

// Logout clears the session, the token store and any pending renewal.
// Calling it while anonymous leaves the same outcome.
func (m *Manager) Logout() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.logoutLocked()
}

// Renew exchanges the refresh token for a new access token. Concurrent
// callers share one server call. Any failure logs the session out before
// returning, except a result that arrives after the session it belongs to
// was replaced: that result is dropped and ErrSessionChanged returned.
func (m *Manager) Renew(ctx context.Context) error {
	m.lock.Lock()
	if m.state.RefreshToken == "" {
		m.lock.Unlock()
		return errors.ErrNoRefreshToken
	}
	generation := m.generation
	m.lock.Unlock()

	ch := m.renewals.DoChan(fmt.Sprintf("renew-%d", generation), func() (any, error) {
		return nil, m.renew(generation)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) renew(generation uint64) error {
	m.lock.Lock()
	if generation != m.generation {
		m.lock.Unlock()
		return errors.ErrSessionChanged
	}
	req := oauthmodel.RefreshRequest{
		RefreshToken: m.state.RefreshToken,
		AccessToken:  m.state.AccessToken,
	}
	m.state.Status = sessions.Renewing
	m.publishLocked()
	m.lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout)
	defer cancel()

	resp, err := m.authenticator.Refresh(ctx, req)
	var claims jwt.Claims
	if err == nil {
		claims, err = validateRefreshResponse(resp)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if generation != m.generation {
		m.metrics.renewals.WithLabelValues(outcomeDiscarded).Inc()
		m.log.Info().Msg("Session changed during renewal, discarding the result")
		return errors.ErrSessionChanged
	}

	if err != nil {
		m.metrics.renewals.WithLabelValues(renewalOutcome(err)).Inc()
		if errors.Is(err, errors.ErrRefreshRejected) {
			m.log.Warn().Msg("Refresh token rejected, logging out")
		} else {
			m.log.Error().Err(err).Msg("Token renewal failed, logging out")
		}
		m.logoutLocked()
		return err
	}

	record := store.Record{
		AccessToken:  resp.AccessToken,
		RefreshToken: m.state.RefreshToken,
		User:         m.state.User,
	}
	if resp.RefreshToken != "" {
		record.RefreshToken = resp.RefreshToken
	}
	if oauthmodel.HasProfile(resp.User) {
		record.User = resp.User
	}

	if err := m.store.Save(record); err != nil {
		m.metrics.renewals.WithLabelValues(outcomeFailure).Inc()
		m.log.Error().Err(err).Msg("Failed to persist renewed tokens, logging out")
		m.logoutLocked()
		return errors.Wrapf(err, "Manager.Renew Save")
	}

	m.state = sessions.State{
		Status:          sessions.Authenticated,
		IsAuthenticated: true,
		User:            record.User,
		AccessToken:     record.AccessToken,
		RefreshToken:    record.RefreshToken,
		ExpiresAt:       claims.ExpiresAt,
	}
	if err := m.scheduler.Rearm(m.state.AccessToken); err != nil {
		m.log.Error().Err(err).Msg("Unable to schedule renewal")
	}
	m.publishLocked()

	m.metrics.renewals.WithLabelValues(outcomeSuccess).Inc()
	m.log.Info().Time("expires_at", claims.ExpiresAt).Msg("Access token renewed")
	return nil
}

func (m *Manager) renewFromTimer() {
	if err := m.Renew(context.Background()); err != nil {
		m.log.Debug().Err(err).Msg("Scheduled renewal did not complete")
	}
}

// Snapshot returns a copy of the current session state
func (m *Manager) Snapshot() sessions.State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state.Clone()
}

// IsAuthenticated reports whether a session is held
func (m *Manager) IsAuthenticated() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state.IsAuthenticated
}

// AccessToken returns the current access token, empty when anonymous
func (m *Manager) AccessToken() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state.AccessToken
}

// NextRenewal returns when the proactive renewal is due, if one is pending
func (m *Manager) NextRenewal() (time.Time, bool) {
	return m.scheduler.Next()
}

// Subscribe returns a channel holding the latest session state. The current
// state is delivered immediately; intermediate states may be skipped when the
// reader is slow, the latest one never is. cancel closes the channel.
func (m *Manager) Subscribe() (<-chan sessions.State, func()) {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.nextWatch
	m.nextWatch++
	ch := make(chan sessions.State, 1)
	ch <- m.state.Clone()
	m.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.lock.Lock()
			defer m.lock.Unlock()
			delete(m.watchers, id)
			close(ch)
		})
	}
}

// Close stops the proactive renewal without touching the persisted session
func (m *Manager) Close() {
	m.scheduler.Cancel()
}

func (m *Manager) logoutLocked() {
	wasAuthenticated := m.state.IsAuthenticated

	m.scheduler.Cancel()
	m.generation++
	m.state = sessions.Empty()
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("Failed to clear token store")
	}

	if wasAuthenticated {
		m.metrics.logouts.Inc()
		m.log.Info().Msg("Logged out")
		m.publishLocked()
	}
}

func (m *Manager) armLocked() {
	if err := m.scheduler.Arm(m.state.AccessToken); err != nil {
		m.log.Error().Err(err).Msg("Unable to schedule renewal")
	}
}

// publishLocked hands the current state to every watcher, replacing any value
// the watcher has not read yet. Sends cannot block: only this method writes
// and it runs under the lock.
func (m *Manager) publishLocked() {
	snapshot := m.state.Clone()
	for _, ch := range m.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot.Clone()
	}
}

func validateRefreshResponse(resp *oauthmodel.RefreshResponse) (jwt.Claims, error) {
	if resp == nil || resp.AccessToken == "" {
		return jwt.Claims{}, errors.Wrapf(errors.ErrInvalidRefreshResponse, "missing accessToken")
	}
	claims, err := jwt.Decode(resp.AccessToken)
	if err != nil {
		return jwt.Claims{}, fmt.Errorf("%w: %w", errors.ErrInvalidRefreshResponse, err)
	}
	return claims, nil
}
