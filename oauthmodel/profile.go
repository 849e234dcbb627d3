package oauthmodel

import (
	"bytes"
	"encoding/json"
)

// Profile is a best effort typed view over the opaque user snapshot.
// Fields the server does not send stay empty.
type Profile struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// ParseProfile decodes the typed view of a user snapshot
func ParseProfile(raw json.RawMessage) (Profile, error) {
	var p Profile
	if !HasProfile(raw) {
		return p, nil
	}
	err := json.Unmarshal(raw, &p)
	return p, err
}

// DisplayName returns the most human friendly identifier available
func (p Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	}
	return p.ID
}

// HasProfile reports whether raw holds a usable JSON value (not empty, not null)
func HasProfile(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Valid(trimmed)
}
