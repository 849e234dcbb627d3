package users

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode"

	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Username     string    `json:"username,omitempty"`    // Unique login name
	Email        string    `json:"email,omitempty"`       // User's email address
	Name         string    `json:"name,omitempty"`        // Display name
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last time the user logged in

	Blocked bool `json:"blocked,omitempty"` // Blocked, has the user been blocked from logging in
}

// ValidatePasswordStrength checks if password meets the signup requirements:
// - At least 8 characters long
// - Contains at least one letter and one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// Profile returns the identity snapshot handed to clients on login and renewal
func (u *User) Profile() oauthmodel.Profile {
	return oauthmodel.Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
	}
}

// ProfileJSON returns Profile encoded as JSON
func (u *User) ProfileJSON() (json.RawMessage, error) {
	return json.Marshal(u.Profile())
}
