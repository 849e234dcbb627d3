package oauthmodel

import "encoding/json"

// RefreshRequest is posted to the renewal endpoint.
type RefreshRequest struct {
	// RefreshToken is the opaque token issued at login.
	// Required: Yes
	RefreshToken string `json:"refreshToken"`

	// AccessToken is the current (possibly expired) access token.
	// Required: Yes
	AccessToken string `json:"accessToken"`
}

// RefreshResponse is the success body returned by the renewal endpoint.
type RefreshResponse struct {
	// AccessToken replaces the current access token.
	// Required: Yes
	AccessToken string `json:"accessToken"`

	// User is an updated identity snapshot.
	// Required: No (the previous profile is kept when absent)
	User json.RawMessage `json:"user,omitempty"`

	// RefreshToken is set when the server rotates the refresh token.
	// Required: No (the previous refresh token is kept when absent)
	RefreshToken string `json:"refreshToken,omitempty"`
}
