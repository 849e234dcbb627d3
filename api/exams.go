package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const SubmitPath = "/api/auth/test/submit"

// QuestionsPath returns the path serving the question set for year/month
func QuestionsPath(year, month int) string {
	return fmt.Sprintf("/question/%d/%d", year, month)
}

// ExamClient calls the authenticated exam endpoints. Its http client is
// expected to carry the request interceptor, which attaches the token and
// handles renewal on 401.
type ExamClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewExamClient creates an ExamClient. httpClient is normally transport.NewClient(manager).
func NewExamClient(baseURL string, httpClient *http.Client) *ExamClient {
	return &ExamClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		log:     log.Logger.With().Str("component", "exams").Logger(),
	}
}

// WithLogger returns a copy of the client using logger
func (c *ExamClient) WithLogger(logger zerolog.Logger) *ExamClient {
	cp := *c
	cp.log = logger
	return &cp
}

// FetchQuestions returns the question set for the given sitting
func (c *ExamClient) FetchQuestions(ctx context.Context, year, month int) ([]oauthmodel.Question, error) {
	if err := oauthmodel.ValidateExamPeriod(year, month); err != nil {
		return nil, err
	}

	path := QuestionsPath(year, month)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "ExamClient.FetchQuestions")
	}
	defer resp.Body.Close()

	var questions []oauthmodel.Question
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		return nil, fmt.Errorf("decoding questions: %w", err)
	}
	return questions, nil
}

// SubmitAnswers posts a completed answer sheet
func (c *ExamClient) SubmitAnswers(ctx context.Context, submission oauthmodel.Submission) (*oauthmodel.SubmissionResult, error) {
	if err := submission.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(submission)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SubmitPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "ExamClient.SubmitAnswers")
	}
	defer resp.Body.Close()

	result := &oauthmodel.SubmissionResult{}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) > 0 {
		// not every server acknowledges with JSON; a plain text body becomes the message
		if err := json.Unmarshal(body, result); err != nil {
			result.Message = strings.TrimSpace(string(body))
		}
	}
	return result, nil
}

// do sends req and turns a non-2xx response into a *errors.StatusError
func (c *ExamClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, errors.ErrNotAuthenticated) {
			return nil, err
		}
		c.log.Warn().Err(err).Str("path", req.URL.Path).Msg("No response from server, check the network")
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrNetwork, req.Method, req.URL.Path, err)
	}

	if err := statusError(resp); err != nil {
		resp.Body.Close()
		c.logStatus(req, resp.StatusCode)
		return nil, err
	}
	return resp, nil
}

func (c *ExamClient) logStatus(req *http.Request, status int) {
	event := c.log.Warn().Int("status", status).Str("method", req.Method).Str("path", req.URL.Path)
	switch status {
	case http.StatusBadRequest:
		event.Msg("Bad request, check the request parameters")
	case http.StatusUnauthorized:
		event.Msg("Not authenticated, log in again")
	case http.StatusForbidden:
		event.Msg("Access denied")
	case http.StatusNotFound:
		event.Msg("Requested resource not found")
	case http.StatusInternalServerError:
		event.Msg("Server error, try again later")
	default:
		event.Msg("Unexpected server response")
	}
}
