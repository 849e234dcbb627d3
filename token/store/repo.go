package store

import "encoding/json"

// Names of the persisted entries
const (
	AccessTokenKey  = "token"
	RefreshTokenKey = "refreshToken"
	UserKey         = "user"
)

// Record is everything the session keeps across restarts: the credential
// pair and the user profile snapshot. Empty fields mean "not stored".
type Record struct {
	AccessToken  string
	RefreshToken string
	User         json.RawMessage
}

// Empty reports whether nothing is stored
func (r Record) Empty() bool {
	return r.AccessToken == "" && r.RefreshToken == "" && len(r.User) == 0
}

// Repo is a durable key-value store for the session record.
// Load never fails for missing entries, only for I/O errors.
// Save replaces all three entries; readers never see a partial write.
type Repo interface {
	Load() (Record, error)
	Save(record Record) error
	Clear() error
}
