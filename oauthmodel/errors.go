package oauthmodel

import "errors"

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrMissingTokens      = errors.New("access token and refresh token are required")
	ErrInvalidExamPeriod  = errors.New("invalid exam year or month")
	ErrEmptySubmission    = errors.New("submission has no answers")
)

// Validate checks the request has both credentials
func (r LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Validate checks the request carries both tokens
func (r RefreshRequest) Validate() error {
	if r.RefreshToken == "" || r.AccessToken == "" {
		return ErrMissingTokens
	}
	return nil
}

// ValidateExamPeriod checks a year/month pair addresses a real exam sitting
func ValidateExamPeriod(year, month int) error {
	if year < 1900 || month < 1 || month > 12 {
		return ErrInvalidExamPeriod
	}
	return nil
}

// Validate checks the submission addresses a valid period and has answers
func (s Submission) Validate() error {
	if err := ValidateExamPeriod(s.Year, s.Month); err != nil {
		return err
	}
	if len(s.UserAnswers) == 0 {
		return ErrEmptySubmission
	}
	return nil
}
