package oauthmodel

import "encoding/json"

// LoginRequest holds the credentials posted to the login endpoint.
type LoginRequest struct {
	// Username identifies the account.
	// Required: Yes
	// Example: "student01"
	Username string `json:"username"`

	// Password is the plain text password, sent only over the login call.
	// Required: Yes
	// Security: Never log or persist this value
	Password string `json:"password"`
}

// LoginResponse is the success body returned by the login endpoint.
// All three fields are required; a response missing any of them is a
// contract violation by the server, not a bad-credentials failure.
type LoginResponse struct {
	// AccessToken is the short lived JWT attached as a bearer credential.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: "Authorization: Bearer <accessToken>"
	AccessToken string `json:"accessToken"`

	// RefreshToken is the long lived opaque credential exchanged at /refresh.
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	RefreshToken string `json:"refreshToken"`

	// User is the identity snapshot of the logged in account. Opaque to the client.
	// Example: {"id":"u-1","username":"student01","name":"Kim"}
	User json.RawMessage `json:"user"`
}

// Complete reports whether all required fields are present
func (r *LoginResponse) Complete() bool {
	return r != nil && r.AccessToken != "" && r.RefreshToken != "" && HasProfile(r.User)
}

// SignupRequest registers a new account.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}
