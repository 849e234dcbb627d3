package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/jrsteele09/go-exam-client/server"
	"github.com/jrsteele09/go-exam-client/token/jwt"
	refreshrepofake "github.com/jrsteele09/go-exam-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-exam-client/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "student01"
	testPassword = "password123"
	tokenSecret  = "server-test-secret"
)

var startTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type serverFixture struct {
	clock  clockwork.FakeClock
	server *server.Server
	http   *httptest.Server
	userID string
}

func newServerFixture(t *testing.T, options ...server.ServerOption) *serverFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(startTime)
	creator := jwt.NewCreator(jwt.NewHMACSigner(tokenSecret), 15*time.Minute, jwt.WithNowFunc(clock.Now))

	options = append([]server.ServerOption{server.WithTokenCreator(creator), server.WithLogger(zerolog.Nop())}, options...)
	srv, err := server.New(config.New(), fakeuserrepo.NewFakeUserRepo(), refreshrepofake.NewFakeRefreshTokenRepo(), options...)
	require.NoError(t, err)

	_, err = srv.SeedUser(testUsername, testPassword, "Kim")
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	f := &serverFixture{clock: clock, server: srv, http: ts}
	login := f.login(t)
	profile, err := oauthmodel.ParseProfile(login.User)
	require.NoError(t, err)
	f.userID = profile.ID
	return f
}

func (f *serverFixture) post(t *testing.T, path string, body any, bearer string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.http.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *serverFixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.http.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *serverFixture) login(t *testing.T) oauthmodel.LoginResponse {
	t.Helper()
	resp := f.post(t, server.RouteLogin, oauthmodel.LoginRequest{Username: testUsername, Password: testPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login oauthmodel.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.True(t, login.Complete())
	return login
}

func TestLoginHandler(t *testing.T) {
	f := newServerFixture(t)

	login := f.login(t)
	exp, ok := jwt.ExpiresAt(login.AccessToken)
	require.True(t, ok)
	require.Equal(t, startTime.Add(15*time.Minute), exp)

	resp := f.post(t, server.RouteLogin, oauthmodel.LoginRequest{Username: testUsername, Password: "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.post(t, server.RouteLogin, oauthmodel.LoginRequest{Username: "nobody", Password: testPassword}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.post(t, server.RouteLogin, oauthmodel.LoginRequest{Username: testUsername}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefreshHandler(t *testing.T) {
	f := newServerFixture(t)
	login := f.login(t)

	f.clock.Advance(20 * time.Minute)
	resp := f.post(t, server.RouteRefresh, oauthmodel.RefreshRequest{RefreshToken: login.RefreshToken, AccessToken: login.AccessToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var renewed oauthmodel.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&renewed))
	require.NotEmpty(t, renewed.AccessToken)
	require.Empty(t, renewed.RefreshToken)
	require.True(t, oauthmodel.HasProfile(renewed.User))
	exp, ok := jwt.ExpiresAt(renewed.AccessToken)
	require.True(t, ok)
	require.Equal(t, startTime.Add(35*time.Minute), exp)

	resp = f.post(t, server.RouteRefresh, oauthmodel.RefreshRequest{RefreshToken: "unknown", AccessToken: login.AccessToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged := jwt.NewCreator(jwt.NewHMACSigner("other"), time.Minute)
	forgedToken, err := forged.CreateAccessToken(f.userID, testUsername)
	require.NoError(t, err)
	resp = f.post(t, server.RouteRefresh, oauthmodel.RefreshRequest{RefreshToken: login.RefreshToken, AccessToken: forgedToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshHandlerRotation(t *testing.T) {
	f := newServerFixture(t, server.WithRefreshRotation(true))
	login := f.login(t)

	resp := f.post(t, server.RouteRefresh, oauthmodel.RefreshRequest{RefreshToken: login.RefreshToken, AccessToken: login.AccessToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var renewed oauthmodel.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&renewed))
	require.NotEmpty(t, renewed.RefreshToken)
	require.NotEqual(t, login.RefreshToken, renewed.RefreshToken)

	resp = f.post(t, server.RouteRefresh, oauthmodel.RefreshRequest{RefreshToken: login.RefreshToken, AccessToken: login.AccessToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupHandler(t *testing.T) {
	f := newServerFixture(t)

	resp := f.post(t, server.RouteSignup, oauthmodel.SignupRequest{Username: "student02", Password: "password456", Name: "Lee"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.post(t, server.RouteSignup, oauthmodel.SignupRequest{Username: "student02", Password: "password456"}, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.post(t, server.RouteSignup, oauthmodel.SignupRequest{Username: "student03", Password: "weak"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, server.RouteLogin, oauthmodel.LoginRequest{Username: "student02", Password: "password456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuestionsHandler(t *testing.T) {
	f := newServerFixture(t)
	login := f.login(t)

	resp := f.get(t, "/question/2024/5", login.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var questions []oauthmodel.Question
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&questions))
	require.Len(t, questions, 5)
	require.Equal(t, 1, questions[0].Number)

	require.Equal(t, http.StatusUnauthorized, f.get(t, "/question/2024/5", "").StatusCode)
	require.Equal(t, http.StatusUnauthorized, f.get(t, "/question/2024/5", "garbage").StatusCode)
	require.Equal(t, http.StatusNotFound, f.get(t, "/question/2020/1", login.AccessToken).StatusCode)
	require.Equal(t, http.StatusBadRequest, f.get(t, "/question/2024/13", login.AccessToken).StatusCode)

	f.clock.Advance(16 * time.Minute)
	require.Equal(t, http.StatusUnauthorized, f.get(t, "/question/2024/5", login.AccessToken).StatusCode)
}

func TestSubmitHandler(t *testing.T) {
	f := newServerFixture(t)
	login := f.login(t)

	submission := oauthmodel.Submission{UserID: f.userID, Year: 2024, Month: 5, UserAnswers: []string{"1", "3"}, Time: 95}
	resp := f.post(t, server.RouteSubmit, submission, login.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []oauthmodel.Submission{submission}, f.server.Submissions())

	other := submission
	other.UserID = "someone-else"
	resp = f.post(t, server.RouteSubmit, other, login.AccessToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	empty := submission
	empty.UserAnswers = nil
	resp = f.post(t, server.RouteSubmit, empty, login.AccessToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, server.RouteSubmit, submission, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, f.server.Submissions(), 1)
}

func TestSeedUserGeneratesPassword(t *testing.T) {
	srv, err := server.New(config.New(), fakeuserrepo.NewFakeUserRepo(), refreshrepofake.NewFakeRefreshTokenRepo(), server.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	generated, err := srv.SeedUser("student", "", "Student")
	require.NoError(t, err)
	require.Len(t, generated, 12)

	again, err := srv.SeedUser("student", "", "Student")
	require.NoError(t, err)
	require.Empty(t, again)
}
