package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-exam-client/api"
	"github.com/jrsteele09/go-exam-client/auth"
	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/jrsteele09/go-exam-client/server"
	"github.com/jrsteele09/go-exam-client/token/store"
	"github.com/jrsteele09/go-exam-client/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type clientFixture struct {
	clock   clockwork.FakeClock
	api     *api.Client
	manager *auth.Manager
	exams   *api.ExamClient
	store   *store.DiskvRepo
}

func newClientFixture(t *testing.T, f *serverFixture, folder string) *clientFixture {
	t.Helper()
	c := &clientFixture{
		clock: clockwork.NewFakeClockAt(startTime),
		api:   api.NewClient(f.http.URL, 5*time.Second, api.WithLogger(zerolog.Nop())),
		store: store.NewDiskvRepo(folder),
	}

	m, err := auth.NewManager(c.api, c.store,
		auth.WithClock(c.clock),
		auth.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	c.manager = m

	c.exams = api.NewExamClient(f.http.URL, transport.NewClient(m, transport.WithLogger(zerolog.Nop()))).
		WithLogger(zerolog.Nop())
	return c
}

func (c *clientFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, c.manager.Login(context.Background(), oauthmodel.LoginRequest{Username: testUsername, Password: testPassword}))
}

func TestSessionLifecycleAgainstServer(t *testing.T) {
	f := newServerFixture(t)
	c := newClientFixture(t, f, t.TempDir())
	ctx := context.Background()

	c.login(t)
	first := c.manager.AccessToken()

	questions, err := c.exams.FetchQuestions(ctx, 2024, 5)
	require.NoError(t, err)
	require.Len(t, questions, 5)

	// The server's clock moves past the access token expiry while the client
	// has not noticed yet: the 401 is answered by one renewal and one retry.
	f.clock.Advance(20 * time.Minute)
	questions, err = c.exams.FetchQuestions(ctx, 2024, 5)
	require.NoError(t, err)
	require.Len(t, questions, 5)
	require.NotEqual(t, first, c.manager.AccessToken())

	profile, err := oauthmodel.ParseProfile(c.manager.Snapshot().User)
	require.NoError(t, err)
	result, err := c.exams.SubmitAnswers(ctx, oauthmodel.Submission{
		UserID:      profile.ID,
		Year:        2024,
		Month:       5,
		UserAnswers: []string{"2", "4", "1", "3", "2"},
		Time:        300,
	})
	require.NoError(t, err)
	require.Equal(t, "submitted", result.Message)
	require.Len(t, f.server.Submissions(), 1)

	_, err = c.exams.FetchQuestions(ctx, 2019, 1)
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	require.True(t, c.manager.IsAuthenticated())
}

func TestRejectedRefreshLogsOutAgainstServer(t *testing.T) {
	f := newServerFixture(t)
	c := newClientFixture(t, f, t.TempDir())
	c.login(t)

	updates, cancel := c.manager.Subscribe()
	defer cancel()
	require.True(t, (<-updates).IsAuthenticated)

	// A second login for the same user replaces the refresh token held by c
	f.login(t)
	f.clock.Advance(20 * time.Minute)

	_, err := c.exams.FetchQuestions(context.Background(), 2024, 5)
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
	require.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))

	require.False(t, c.manager.IsAuthenticated())
	require.False(t, (<-updates).IsAuthenticated)

	record, err := c.store.Load()
	require.NoError(t, err)
	require.True(t, record.Empty())

	_, err = c.exams.FetchQuestions(context.Background(), 2024, 5)
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
}

func TestSessionSurvivesRestart(t *testing.T) {
	f := newServerFixture(t, server.WithRefreshRotation(true))
	folder := t.TempDir()

	first := newClientFixture(t, f, folder)
	first.login(t)
	require.NoError(t, first.manager.Renew(context.Background()))
	renewed := first.manager.Snapshot()
	first.manager.Close()

	restarted := newClientFixture(t, f, folder)
	require.NoError(t, restarted.manager.Initialize())

	s := restarted.manager.Snapshot()
	require.True(t, s.IsAuthenticated)
	require.Equal(t, renewed.AccessToken, s.AccessToken)
	require.Equal(t, renewed.RefreshToken, s.RefreshToken)
	require.JSONEq(t, string(renewed.User), string(s.User))

	_, err := restarted.exams.FetchQuestions(context.Background(), 2023, 11)
	require.NoError(t, err)
}

func TestInvalidCredentialsAgainstServer(t *testing.T) {
	f := newServerFixture(t)
	c := newClientFixture(t, f, t.TempDir())

	err := c.manager.Login(context.Background(), oauthmodel.LoginRequest{Username: testUsername, Password: "wrong"})
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	require.False(t, c.manager.IsAuthenticated())
}
