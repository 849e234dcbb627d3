package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	SessionConfig
	ServerConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type SessionConfig interface {
	GetRenewalLeadTime() time.Duration
	GetRequestTimeout() time.Duration
}

type ServerConfig interface {
	GetPort() string
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type mainConfig struct {
	EnvVars
	Session
	Server
}

// New returns a Config backed by environment variables only
func New() Config {
	return newConfig(nil)
}

// Load returns a Config that reads environment variables first and falls back
// to the values in the YAML file at path. Keys in the file are the lower case
// environment variable names, e.g. "api_base_url". An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load read %s: %w", path, err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("config.Load parse %s: %w", path, err)
	}

	normalised := make(map[string]string, len(values))
	for k, v := range values {
		normalised[strings.ToLower(k)] = v
	}
	return newConfig(normalised), nil
}

func newConfig(fileValues map[string]string) Config {
	src := source{file: fileValues}
	return mainConfig{
		EnvVars: EnvVars{src},
		Session: Session{src},
		Server:  Server{src},
	}
}

// source resolves a setting from the environment, then the config file, then the default
type source struct {
	file map[string]string
}

func (s source) get(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value, ok := s.file[strings.ToLower(envVar)]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) duration(envVar string, defaultValue time.Duration) time.Duration {
	raw := s.get(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}
