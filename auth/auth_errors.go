package auth

import "errors"

var (
	AuthenticatorRequiredErr = errors.New("authenticator is required")
	StoreRequiredErr         = errors.New("token store is required")
)
