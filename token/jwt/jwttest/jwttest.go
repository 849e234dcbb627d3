// Package jwttest mints signed tokens with chosen claims for tests.
package jwttest

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-exam-client/token/jwt"
	"github.com/stretchr/testify/require"
)

const Secret = "test-secret"

// Token returns an HS256 token for subject expiring at exp
func Token(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	return Sign(t, jwtlib.MapClaims{
		"sub": subject,
		"iat": exp.Add(-time.Hour).Unix(),
		"exp": exp.Unix(),
	})
}

// Sign signs arbitrary claims
func Sign(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token, err := jwt.NewHMACSigner(Secret).Sign(claims)
	require.NoError(t, err)
	return token
}
