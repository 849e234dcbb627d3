package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-exam-client/internal/errors"
)

// Claims are the parts of an access token payload the client reads.
// The signature is never checked here; the server stays authoritative and
// the claims only drive proactive renewal.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Decode extracts the claims from a token without verifying its signature.
// It fails with ErrMalformedToken when the token cannot be parsed or has no exp claim.
func Decode(rawToken string) (Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Claims{}, errors.Wrapf(errors.ErrMalformedToken, "empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, errors.Wrapf(errors.ErrMalformedToken, "parse: %v", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, errors.Wrapf(errors.ErrMalformedToken, "error extracting claims")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, errors.Wrapf(errors.ErrMalformedToken, "token missing exp claim")
	}

	c := Claims{ExpiresAt: exp.Time.UTC()}
	c.Subject, _ = claims.GetSubject()
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time.UTC()
	}
	return c, nil
}

// IsValid reports whether the token decodes and expires strictly after now.
// Decode failures count as invalid and are not reported.
func IsValid(rawToken string, now time.Time) bool {
	claims, err := Decode(rawToken)
	if err != nil {
		return false
	}
	return claims.ExpiresAt.After(now)
}

// ExpiresAt returns the token expiry, or false if the token cannot be decoded
func ExpiresAt(rawToken string) (time.Time, bool) {
	claims, err := Decode(rawToken)
	if err != nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}
