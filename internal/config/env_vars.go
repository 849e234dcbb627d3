package config

import (
	"os"
	"strings"
)

const (
	apiBaseURLVar = "API_BASE_URL"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "FOLDER"
	logLevelVar   = "LOG_LEVEL"
	envVar        = "ENV"
)

type EnvVars struct {
	source
}

var _ EnvConfig = EnvVars{}

// GetAPIBaseURL returns the exam service base URL without a trailing slash
func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.get(apiBaseURLVar, "http://localhost:8080"), "/")
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Exam Practice")
}

// GetDataFolder is where the durable token store keeps its entries
func (e EnvVars) GetDataFolder() string {
	return e.get(folderEnvVar, "./data")
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.get(logLevelVar, "info"))
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.get(envVar, "DEV"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
