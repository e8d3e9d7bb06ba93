package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("CATCH_CLI_BASE_API_URL replaces base url", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "http://127.0.0.1:9999")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://127.0.0.1:9999", cfg.BaseURL())
	})

	t.Run("blank base url keeps configured value", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "   ")

		cfg := &Config{API: APIConfig{BaseURL: "https://api.example.com"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "https://api.example.com", cfg.BaseURL())
	})

	t.Run("logging overrides", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvLogFile, "-")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "-", cfg.Logging.File)
	})

	t.Run("padding and temp dir overrides", func(t *testing.T) {
		t.Setenv(EnvRSAPadding, "pkcs1v15")
		t.Setenv(EnvTempDir, "/tmp/markers")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "pkcs1v15", cfg.Crypto.RSAPadding)
		assert.Equal(t, "/tmp/markers", cfg.TempDir())
	})

	t.Run("empty config falls back to default base url", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, DefaultBaseURL, cfg.BaseURL())
	})
}
