package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("RENEWAL_LEAD_TIME", "")
	t.Setenv("SERVER_PORT", "")

	c := config.New()
	require.Equal(t, "http://localhost:8080", c.GetAPIBaseURL())
	require.Equal(t, config.DefaultRenewalLeadTime, c.GetRenewalLeadTime())
	require.Equal(t, config.DefaultRequestTimeout, c.GetRequestTimeout())
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, 32, c.GetRefreshTokenLength())
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://exam.example.com/")
	t.Setenv("RENEWAL_LEAD_TIME", "2m")
	t.Setenv("SERVER_PORT", ":9090")

	c := config.New()
	require.Equal(t, "https://exam.example.com", c.GetAPIBaseURL())
	require.Equal(t, 2*time.Minute, c.GetRenewalLeadTime())
	require.Equal(t, ":9090", c.GetPort())
}

func TestConfig_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	require.Equal(t, config.DefaultRequestTimeout, config.New().GetRequestTimeout())
}

func TestConfig_LoadFile(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("FOLDER", "from-env")

	path := filepath.Join(t.TempDir(), "examclient.yaml")
	payload := "api_base_url: \"http://file.example.com\"\nLOG_LEVEL: \"DEBUG\"\nfolder: \"from-file\"\nrenewal_lead_time: \"30s\"\n"
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://file.example.com", c.GetAPIBaseURL())
	require.Equal(t, "debug", c.GetLogLevel())
	require.Equal(t, "from-env", c.GetDataFolder(), "environment wins over the file")
	require.Equal(t, 30*time.Second, c.GetRenewalLeadTime())
}

func TestConfig_LoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	c, err := config.Load("")
	require.NoError(t, err)
	require.NotNil(t, c)
}
