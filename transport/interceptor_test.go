package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/jrsteele09/go-exam-client/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	lock     sync.Mutex
	token    string
	next     string
	renewErr error
	renews   int
}

func (s *fakeSession) AccessToken() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.token
}

func (s *fakeSession) Renew(context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.renews++
	if s.renewErr != nil {
		s.token = ""
		return s.renewErr
	}
	s.token = s.next
	return nil
}

type recorded struct {
	auth      string
	requestID string
	body      string
}

// tokenServer answers 200 only for the accepted bearer token and records every hit
type tokenServer struct {
	accept string
	lock   sync.Mutex
	hits   []recorded
}

func (ts *tokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	ts.lock.Lock()
	ts.hits = append(ts.hits, recorded{
		auth:      r.Header.Get(transport.AuthorizationHeader),
		requestID: r.Header.Get(transport.RequestIDHeader),
		body:      string(body),
	})
	ts.lock.Unlock()

	if r.Header.Get(transport.AuthorizationHeader) != "Bearer "+ts.accept {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (ts *tokenServer) recorded() []recorded {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	return append([]recorded(nil), ts.hits...)
}

func newClient(session transport.Session) *http.Client {
	return transport.NewClient(session, transport.WithLogger(zerolog.Nop()))
}

func TestInterceptorAttachesBearerToken(t *testing.T) {
	ts := &tokenServer{accept: "T1"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	session := &fakeSession{token: "T1"}
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/question/2024/5", nil)
	require.NoError(t, err)

	resp, err := newClient(session).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	hits := ts.recorded()
	require.Len(t, hits, 1)
	require.Equal(t, "Bearer T1", hits[0].auth)
	require.NotEmpty(t, hits[0].requestID)
	require.Empty(t, req.Header.Get(transport.AuthorizationHeader))
	require.Zero(t, session.renews)
}

func TestInterceptorRenewsAndRetriesOnce(t *testing.T) {
	ts := &tokenServer{accept: "T2"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	session := &fakeSession{token: "T1", next: "T2"}
	resp, err := newClient(session).Post(srv.URL+"/api/auth/test/submit", "application/json", strings.NewReader(`{"year":2024}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, session.renews)

	hits := ts.recorded()
	require.Len(t, hits, 2)
	require.Equal(t, "Bearer T1", hits[0].auth)
	require.Equal(t, "Bearer T2", hits[1].auth)
	require.Equal(t, `{"year":2024}`, hits[1].body)
	require.Equal(t, hits[0].requestID, hits[1].requestID)
}

func TestInterceptorRetryStillUnauthorized(t *testing.T) {
	ts := &tokenServer{accept: "never"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	session := &fakeSession{token: "T1", next: "T2"}
	resp, err := newClient(session).Get(srv.URL + "/question/2024/5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, ts.recorded(), 2)
	require.Equal(t, 1, session.renews)
}

func TestInterceptorRenewalFailureReturnsOriginalResponse(t *testing.T) {
	ts := &tokenServer{accept: "T2"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	session := &fakeSession{token: "T1", renewErr: errors.ErrRefreshRejected}
	resp, err := newClient(session).Get(srv.URL + "/question/2024/5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "unauthorized")
	require.Len(t, ts.recorded(), 1)
	require.Empty(t, session.AccessToken())
}

func TestInterceptorSessionEndedAfterRenewal(t *testing.T) {
	ts := &tokenServer{accept: "T2"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	// renewal succeeds but the session is gone before the retry
	session := &fakeSession{token: "T1", next: ""}
	resp, err := newClient(session).Get(srv.URL + "/question/2024/5")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, session.renews)
	require.Len(t, ts.recorded(), 1)
}

func TestInterceptorPassesThroughOtherStatuses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	session := &fakeSession{token: "T1", next: "T2"}
	resp, err := newClient(session).Get(srv.URL + "/question/1800/1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.EqualValues(t, 1, hits.Load())
	require.Zero(t, session.renews)
}

func TestInterceptorDoesNotRetryNonReplayableBody(t *testing.T) {
	ts := &tokenServer{accept: "T2"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	session := &fakeSession{token: "T1", next: "T2"}
	// a plain io.Reader gives the request no GetBody
	body := io.MultiReader(strings.NewReader(`{"a":1}`))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/test/submit", body)
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := newClient(session).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, ts.recorded(), 1)
	require.Zero(t, session.renews)
}

func TestInterceptorKeepsCallerRequestID(t *testing.T) {
	ts := &tokenServer{accept: "T1"}
	srv := httptest.NewServer(ts)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/question/2024/5", nil)
	require.NoError(t, err)
	req.Header.Set(transport.RequestIDHeader, "req-42")

	resp, err := newClient(&fakeSession{token: "T1"}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "req-42", ts.recorded()[0].requestID)
}

func TestInterceptorRequiresSession(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := newClient(&fakeSession{}).Get(srv.URL + "/question/2024/5")
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
	require.Zero(t, hits.Load())
}
