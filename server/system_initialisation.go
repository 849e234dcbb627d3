package server

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-exam-client/users"
)

const DefaultDevUsername = "student"

// SeedUser creates a user unless one with the same username exists. With an
// empty password a random one is generated and returned.
func (s *Server) SeedUser(username, password, name string) (generatedPassword string, err error) {
	if _, err := s.users.GetByUsername(username); err == nil {
		return "", nil
	}

	if password == "" {
		password = generateRandomString(12)
		generatedPassword = password
	}

	if err := s.createUser(username, password, name, ""); err != nil && !errors.Is(err, users.ErrUserExists) {
		return "", fmt.Errorf("[Server SeedUser] failed to create %s: %w", username, err)
	}
	return generatedPassword, nil
}

func (s *Server) createUser(username, password, name, email string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.Create(&users.User{
		Username:     username,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		DateJoined:   time.Now(),
	})
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}
