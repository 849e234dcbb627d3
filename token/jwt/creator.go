package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Creator issues signed access tokens. The exam client never creates tokens;
// the development server and tests do.
type Creator struct {
	signer Signer
	issuer string
	expiry time.Duration
	now    func() time.Time
}

type CreatorOption func(*Creator)

func WithIssuer(issuer string) CreatorOption {
	return func(c *Creator) {
		c.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) CreatorOption {
	return func(c *Creator) {
		c.now = now
	}
}

// NewCreator creates a new JWT creator issuing tokens valid for expiry
func NewCreator(signer Signer, expiry time.Duration, options ...CreatorOption) *Creator {
	c := &Creator{
		signer: signer,
		expiry: expiry,
		issuer: "exam-server",
		now:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// CreateAccessToken creates an access token for the user
func (c *Creator) CreateAccessToken(userID, username string) (string, error) {
	now := c.now()
	claims := jwtlib.MapClaims{
		"iss":      c.issuer,
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(c.expiry).Unix(),
		"jti":      uuid.New().String(),
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}

// Verify parses the token, checks its signature and expiry and returns the subject
func (c *Creator) Verify(rawToken string) (string, error) {
	token, err := jwtlib.Parse(rawToken, c.signer.GetVerificationKey, jwtlib.WithTimeFunc(c.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("invalid token subject: %w", err)
	}
	return sub, nil
}

// VerifySignature checks the token was issued by this creator, ignoring its
// expiry, and returns the subject. Renewal accepts expired access tokens.
func (c *Creator) VerifySignature(rawToken string) (string, error) {
	token, err := jwtlib.Parse(rawToken, c.signer.GetVerificationKey, jwtlib.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return token.Claims.GetSubject()
}

// Expiry returns the lifetime of the tokens this creator issues
func (c *Creator) Expiry() time.Duration {
	return c.expiry
}
