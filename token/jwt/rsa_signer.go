package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const RS256 = "RS256"

// RSASigner implements Signer using RSA with RS256. The development server
// uses it to show the client decodes tokens whatever the signing algorithm.
type RSASigner struct {
	keyID      string
	privateKey *rsa.PrivateKey
}

// GenerateRSASigner creates a signer with a fresh RSA key of at least 2048 bits
func GenerateRSASigner(keyID string, bits int) (*RSASigner, error) {
	if bits < 2048 {
		bits = 2048
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return &RSASigner{keyID: keyID, privateKey: privateKey}, nil
}

// LoadRSASignerFromPEM creates a signer from a PKCS1 PEM encoded private key
func LoadRSASignerFromPEM(keyID, privateKeyPEM string) (*RSASigner, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}
	return &RSASigner{keyID: keyID, privateKey: privateKey}, nil
}

// ExportPrivateKeyPEM exports the RSA private key as PEM
func (s *RSASigner) ExportPrivateKeyPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(s.privateKey),
	}))
}

func (s *RSASigner) Sign(claims jwtlib.MapClaims) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with asymmetric key: %w", err)
	}
	return signedToken, nil
}

func (s *RSASigner) GetVerificationKey(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return &s.privateKey.PublicKey, nil
}
