package users

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username already taken")
)

type UserRepo interface {
	Create(user *User) error
	GetByUsername(username string) (*User, error)
	GetByID(ID string) (*User, error)
	SetLastLogin(ID string, at time.Time) error
}
