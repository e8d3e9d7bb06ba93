// Package logging provides categorized zap logging for the catch CLI.
// Logs go to a single file under the user cache dir; each category is a
// named child of the root logger. Before Initialize every category logs
// to a no-op logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup, config
	CategorySession      Category = "session"      // Marker discovery, validation
	CategoryAPI          Category = "api"          // HTTP calls to the Catch API
	CategoryCrypto       Category = "crypto"       // Key generation and wrapping
	CategoryScan         Category = "scan"         // Project scanning
	CategorySelect       Category = "select"       // File selection
	CategoryAnalysis     Category = "analysis"     // Candidate polling
	CategoryUpload       Category = "upload"       // Encrypted upload
	CategoryOrchestrator Category = "orchestrator" // Progress and cancellation
	CategoryPipeline     Category = "pipeline"     // Stage sequencing
)

// StderrFile selects stderr as the log destination.
const StderrFile = "-"

// Config configures Initialize.
type Config struct {
	Level string
	// File is the log path; empty uses DefaultFile(), StderrFile uses stderr.
	File    string
	Format  string // "json" or "console"
	Verbose bool
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
)

// DefaultFile returns <user cache dir>/catch/logs/catch.log.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "catch", "logs", "catch.log")
}

// Initialize builds the root logger and installs it for every category.
func Initialize(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Sampling = nil
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "console" {
		zcfg.Encoding = "console"
	}

	dest := cfg.File
	if dest == "" {
		dest = DefaultFile()
	}
	if dest == StderrFile {
		zcfg.OutputPaths = []string{"stderr"}
	} else {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		zcfg.OutputPaths = []string{dest}
	}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	SetRoot(logger)
	logger.Named(string(CategoryBoot)).Debug("logging initialized",
		zap.String("level", level.String()),
		zap.String("file", dest))
	return logger, nil
}

// SetRoot replaces the root logger and drops cached category loggers.
// A nil logger installs a no-op logger.
func SetRoot(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = l
	loggers = make(map[Category]*zap.Logger)
}

// Root returns the root logger.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes the root logger. Call at shutdown.
func Sync() {
	// Sync on stderr returns EINVAL on some platforms.
	_ = Root().Sync()
}
