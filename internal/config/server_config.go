package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar             = "SERVER_PORT"
	tokenSecretVar         = "TOKEN_SECRET"
	accessTokenExpiryVar   = "ACCESS_TOKEN_EXPIRY"
	refreshTokenExpiryVar  = "REFRESH_TOKEN_EXPIRY"
	refreshTokenLengthVar  = "REFRESH_TOKEN_LENGTH"
	defaultRefreshTokenLen = 32 // 32 bytes = 256 bits
)

// Server holds the settings of the development exam server
type Server struct {
	source
}

var _ ServerConfig = Server{}

func (s Server) GetPort() string {
	port := s.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (s Server) GetTokenSecret() string {
	return s.get(tokenSecretVar, "dev-secret-change-me")
}

func (s Server) GetAccessTokenExpiry() time.Duration {
	return s.duration(accessTokenExpiryVar, 15*time.Minute)
}

func (s Server) GetRefreshTokenExpiry() time.Duration {
	return s.duration(refreshTokenExpiryVar, 7*24*time.Hour) // 7 days
}

func (s Server) GetRefreshTokenLength() int {
	n, err := strconv.Atoi(s.get(refreshTokenLengthVar, ""))
	if err != nil || n <= 0 {
		return defaultRefreshTokenLen
	}
	return n
}
