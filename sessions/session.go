package sessions

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of the process-wide session
type Status int

const (
	// Anonymous means no credentials are held
	Anonymous Status = iota
	// Authenticated means a valid credential pair and profile are held
	Authenticated
	// Renewing is Authenticated with a renewal call in flight
	Renewing
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Renewing:
		return "renewing"
	default:
		return "anonymous"
	}
}

// State is an immutable snapshot of the session. The auth manager is the only
// writer; everyone else receives copies.
type State struct {
	Status          Status
	IsAuthenticated bool
	User            json.RawMessage // nil when anonymous
	AccessToken     string
	RefreshToken    string
	ExpiresAt       time.Time // access token expiry, zero when anonymous
}

// Empty returns the anonymous state
func Empty() State {
	return State{Status: Anonymous}
}

// Clone returns a copy that shares no memory with s
func (s State) Clone() State {
	if s.User != nil {
		s.User = append(json.RawMessage(nil), s.User...)
	}
	return s
}
