package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/jrsteele09/go-exam-client/token/refresh"
	"github.com/jrsteele09/go-exam-client/users"
)

const maxBodyBytes = 1 << 20

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// LoginHandler exchanges credentials for an access token, a refresh token and the user profile
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Malformed request body", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		user, err := s.users.GetByUsername(req.Username)
		if err != nil || user.Blocked || !user.CheckPassword(req.Password) {
			// Same answer for unknown users and wrong passwords
			writeJSONError(w, "invalid_credentials", "Invalid username or password", http.StatusUnauthorized)
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user.ID, user.Username)
		if err != nil {
			s.log.Err(err).Msg("Failed to create access token")
			writeJSONError(w, "server_error", "Unable to issue token", http.StatusInternalServerError)
			return
		}
		refreshToken, err := s.refreshTokens.Create(user.ID)
		if err != nil {
			s.log.Err(err).Msg("Failed to create refresh token")
			writeJSONError(w, "server_error", "Unable to issue token", http.StatusInternalServerError)
			return
		}
		profile, err := user.ProfileJSON()
		if err != nil {
			writeJSONError(w, "server_error", "Unable to encode profile", http.StatusInternalServerError)
			return
		}

		if err := s.users.SetLastLogin(user.ID, time.Now()); err != nil {
			s.log.Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
		}

		writeJSON(w, http.StatusOK, oauthmodel.LoginResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			User:         profile,
		})
	}
}

// RefreshHandler issues a new access token for a live refresh token. The
// presented access token may be expired but must carry this server's
// signature and belong to the refresh token's user.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.RefreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Malformed request body", http.StatusBadRequest)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, "invalid_request", "refreshToken is required", http.StatusBadRequest)
			return
		}

		stored, err := s.refreshTokens.Validate(req.RefreshToken)
		if err != nil {
			writeJSONError(w, "invalid_grant", "Refresh token is invalid or expired", http.StatusUnauthorized)
			return
		}

		if req.AccessToken != "" {
			subject, err := s.tokens.VerifySignature(req.AccessToken)
			if err != nil || subject != stored.UserID {
				writeJSONError(w, "invalid_grant", "Access token does not match refresh token", http.StatusUnauthorized)
				return
			}
		}

		user, err := s.users.GetByID(stored.UserID)
		if err != nil || user.Blocked {
			_ = s.refreshTokens.Delete(req.RefreshToken)
			writeJSONError(w, "invalid_grant", "User is no longer active", http.StatusUnauthorized)
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user.ID, user.Username)
		if err != nil {
			s.log.Err(err).Msg("Failed to create access token")
			writeJSONError(w, "server_error", "Unable to issue token", http.StatusInternalServerError)
			return
		}

		resp := oauthmodel.RefreshResponse{AccessToken: accessToken}
		if profile, err := user.ProfileJSON(); err == nil {
			resp.User = profile
		}
		if s.rotateRefresh {
			rotated, err := s.refreshTokens.Rotate(req.RefreshToken)
			if err != nil {
				if errors.Is(err, refresh.ErrInvalidRefreshToken) {
					writeJSONError(w, "invalid_grant", "Refresh token is invalid or expired", http.StatusUnauthorized)
					return
				}
				writeJSONError(w, "server_error", "Unable to rotate refresh token", http.StatusInternalServerError)
				return
			}
			resp.RefreshToken = rotated
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// SignupHandler registers a new account
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.SignupRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Malformed request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			writeJSONError(w, "invalid_request", oauthmodel.ErrMissingCredentials.Error(), http.StatusBadRequest)
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.createUser(req.Username, req.Password, req.Name, req.Email); err != nil {
			if errors.Is(err, users.ErrUserExists) {
				writeJSONError(w, "conflict", err.Error(), http.StatusConflict)
				return
			}
			s.log.Err(err).Msg("Failed to create user")
			writeJSONError(w, "server_error", "Unable to create user", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// QuestionsHandler serves the question set of one exam sitting
func (s *Server) QuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, yerr := strconv.Atoi(r.PathValue("year"))
		month, merr := strconv.Atoi(r.PathValue("month"))
		if yerr != nil || merr != nil || oauthmodel.ValidateExamPeriod(year, month) != nil {
			writeJSONError(w, "invalid_request", "year and month must identify an exam sitting", http.StatusBadRequest)
			return
		}

		questions, err := s.questions.Questions(year, month)
		if err != nil {
			if errors.Is(err, ErrNoQuestions) {
				writeJSONError(w, "not_found", err.Error(), http.StatusNotFound)
				return
			}
			writeJSONError(w, "server_error", "Unable to load questions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

// SubmitHandler records an answer sheet for the authenticated user
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var submission oauthmodel.Submission
		if err := decodeJSON(w, r, &submission); err != nil {
			writeJSONError(w, "invalid_request", "Malformed request body", http.StatusBadRequest)
			return
		}
		if err := submission.Validate(); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		if submission.UserID != userIDFromContext(r.Context()) {
			writeJSONError(w, "forbidden", "Submission does not belong to the authenticated user", http.StatusForbidden)
			return
		}

		s.submissionsLock.Lock()
		s.submissions = append(s.submissions, submission)
		s.submissionsLock.Unlock()

		writeJSON(w, http.StatusOK, oauthmodel.SubmissionResult{Message: "submitted"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
