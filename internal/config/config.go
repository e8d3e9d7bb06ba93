// Package config holds catch CLI configuration: the YAML file, .env support
// and CATCH_CLI_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the Catch API used when nothing else is configured.
const DefaultBaseURL = "https://api.dev.trycatch.ai"

// Environment variables honoured by the CLI.
const (
	EnvBaseURL    = "CATCH_CLI_BASE_API_URL"
	EnvLogLevel   = "CATCH_CLI_LOG_LEVEL"
	EnvLogFile    = "CATCH_CLI_LOG_FILE"
	EnvRSAPadding = "CATCH_CLI_RSA_PADDING"
	EnvTempDir    = "CATCH_CLI_TEMP_DIR"
)

// Config holds all catch CLI configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Scan     ScanConfig     `yaml:"scan"`
	Crypto   CryptoConfig   `yaml:"crypto"`
	Analysis AnalysisConfig `yaml:"analysis"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// APIConfig configures the HTTP client.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

// SessionConfig configures session marker discovery.
type SessionConfig struct {
	// TempDir overrides os.TempDir() as the marker location.
	TempDir string `yaml:"temp_dir"`
	// WaitTimeout bounds --wait; empty means 2m.
	WaitTimeout string `yaml:"wait_timeout"`
}

// ScanConfig configures the project scanner.
type ScanConfig struct {
	MaxConcurrency int      `yaml:"max_concurrency"`
	IgnoreDirs     []string `yaml:"ignore_dirs"`
}

// CryptoConfig configures client-side encryption.
type CryptoConfig struct {
	// RSAPadding is "oaep-sha256" or "pkcs1v15".
	RSAPadding string `yaml:"rsa_padding"`
}

// AnalysisConfig configures candidate polling.
type AnalysisConfig struct {
	PollInterval string `yaml:"poll_interval"`
	Timeout      string `yaml:"timeout"`
}

// UIConfig configures the terminal surface.
type UIConfig struct {
	TickInterval string `yaml:"tick_interval"`
	NoTTY        bool   `yaml:"no_tty"`
	Preselect    bool   `yaml:"preselect"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is the log destination; "-" writes to stderr, empty uses the user cache dir.
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   "60s",
			UserAgent: "catch-cli",
		},
		Session: SessionConfig{
			WaitTimeout: "2m",
		},
		Scan: ScanConfig{
			MaxConcurrency: 20,
			IgnoreDirs:     []string{},
		},
		Crypto: CryptoConfig{
			RSAPadding: "oaep-sha256",
		},
		Analysis: AnalysisConfig{
			PollInterval: "2s",
			Timeout:      "5m",
		},
		UI: UIConfig{
			TickInterval: "100ms",
			Preselect:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultPath returns the default config location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".catch", "config.yaml")
	}
	return filepath.Join(dir, "catch", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// A .env file in the working directory is loaded first so its values reach
// the environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvRSAPadding); v != "" {
		c.Crypto.RSAPadding = v
	}
	if v := os.Getenv(EnvTempDir); v != "" {
		c.Session.TempDir = v
	}
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Config) BaseURL() string {
	u := strings.TrimRight(c.API.BaseURL, "/")
	if u == "" {
		return DefaultBaseURL
	}
	return u
}

// TempDir returns the directory scanned for session markers.
func (c *Config) TempDir() string {
	if c.Session.TempDir != "" {
		return c.Session.TempDir
	}
	return os.TempDir()
}

// GetAPITimeout returns the HTTP client timeout.
func (c *Config) GetAPITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 60*time.Second)
}

// GetWaitTimeout returns how long --wait blocks for a session marker.
func (c *Config) GetWaitTimeout() time.Duration {
	return parseDuration(c.Session.WaitTimeout, 2*time.Minute)
}

// GetPollInterval returns the candidate polling interval.
func (c *Config) GetPollInterval() time.Duration {
	return parseDuration(c.Analysis.PollInterval, 2*time.Second)
}

// GetAnalysisTimeout returns the overall candidate analysis deadline.
func (c *Config) GetAnalysisTimeout() time.Duration {
	return parseDuration(c.Analysis.Timeout, 5*time.Minute)
}

// GetTickInterval returns the progress redraw interval.
func (c *Config) GetTickInterval() time.Duration {
	return parseDuration(c.UI.TickInterval, 100*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidPaddings lists the accepted crypto.rsa_padding values.
var ValidPaddings = []string{"oaep-sha256", "pkcs1v15"}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL(), "http://") && !strings.HasPrefix(c.BaseURL(), "https://") {
		return fmt.Errorf("invalid api.base_url %q: must be http or https", c.API.BaseURL)
	}
	if !contains(ValidPaddings, strings.ToLower(c.Crypto.RSAPadding)) {
		return fmt.Errorf("invalid crypto.rsa_padding %q (valid: %s)", c.Crypto.RSAPadding, strings.Join(ValidPaddings, ", "))
	}
	if !contains(ValidLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid logging.level %q (valid: %s)", c.Logging.Level, strings.Join(ValidLogLevels, ", "))
	}
	if c.Scan.MaxConcurrency < 1 {
		return fmt.Errorf("scan.max_concurrency must be >= 1, got %d", c.Scan.MaxConcurrency)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
