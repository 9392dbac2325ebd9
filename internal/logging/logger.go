// Package logging provides config-driven categorized logging for gridcard.
// Every category is a named child of one zap logger; categories can be
// switched off individually in the logging section of the config file.
// Until Initialize is called every logger is a no-op.
package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gridcard/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryTactile Category = "tactile" // Process execution
	CategoryVault   Category = "vault"   // Decryption and temp file lifecycle
	CategoryGrid    Category = "grid"    // Plaintext decoding
	CategoryQuery   Category = "query"   // Coordinate lookups
)

var (
	mu        sync.RWMutex
	settings  config.LoggingConfig
	closeSink func()
)

// base is the root logger. It stays a no-op until Initialize or SetLogger.
var base = zap.NewNop()

// Initialize builds the root logger from cfg. Output goes to sink unless
// cfg.File names a log file, which is opened in append mode.
func Initialize(cfg config.LoggingConfig, sink io.Writer) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console", "text":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return fmt.Errorf("unknown log format %q (expected console or json)", cfg.Format)
	}

	var ws zapcore.WriteSyncer
	var closer func()
	if cfg.File != "" {
		ws, closer, err = zap.Open(cfg.File)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		ws = zapcore.Lock(zapcore.AddSync(sink))
	}

	SetLogger(zap.New(zapcore.NewCore(encoder, ws, level)), cfg.Categories)

	mu.Lock()
	closeSink = closer
	settings = cfg
	mu.Unlock()

	Get(CategoryBoot).Debugf("Logging initialized: level=%s format=%s file=%q", level, cfg.Format, cfg.File)
	return nil
}

// SetLogger installs l as the root logger. enabled toggles categories by
// name; a category missing from the map is enabled.
func SetLogger(l *zap.Logger, enabled map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	settings.Categories = enabled
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return settings.IsCategoryEnabled(string(category))
}

// Get returns the logger for the given category, or a no-op logger if the
// category is disabled.
func Get(category Category) *zap.SugaredLogger {
	if !IsCategoryEnabled(category) {
		return zap.NewNop().Sugar()
	}
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(string(category)).Sugar()
}

// Sync flushes buffered entries and closes the log file, if any. Logging
// falls back to a no-op logger afterwards.
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	_ = base.Sync()
	if closeSink != nil {
		closeSink()
		closeSink = nil
	}
	base = zap.NewNop()
	settings = config.LoggingConfig{}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Infof(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debugf(format, args...)
}

// BootWarn logs a warning to the boot category
func BootWarn(format string, args ...interface{}) {
	Get(CategoryBoot).Warnf(format, args...)
}

// Tactile logs to the tactile category
func Tactile(format string, args ...interface{}) {
	Get(CategoryTactile).Infof(format, args...)
}

// TactileDebug logs debug to the tactile category
func TactileDebug(format string, args ...interface{}) {
	Get(CategoryTactile).Debugf(format, args...)
}

// TactileWarn logs a warning to the tactile category
func TactileWarn(format string, args ...interface{}) {
	Get(CategoryTactile).Warnf(format, args...)
}

// TactileError logs an error to the tactile category
func TactileError(format string, args ...interface{}) {
	Get(CategoryTactile).Errorf(format, args...)
}

// Vault logs to the vault category
func Vault(format string, args ...interface{}) {
	Get(CategoryVault).Infof(format, args...)
}

// VaultDebug logs debug to the vault category
func VaultDebug(format string, args ...interface{}) {
	Get(CategoryVault).Debugf(format, args...)
}

// VaultWarn logs a warning to the vault category
func VaultWarn(format string, args ...interface{}) {
	Get(CategoryVault).Warnf(format, args...)
}

// VaultError logs an error to the vault category
func VaultError(format string, args ...interface{}) {
	Get(CategoryVault).Errorf(format, args...)
}

// GridDebug logs debug to the grid category
func GridDebug(format string, args ...interface{}) {
	Get(CategoryGrid).Debugf(format, args...)
}

// GridWarn logs a warning to the grid category
func GridWarn(format string, args ...interface{}) {
	Get(CategoryGrid).Warnf(format, args...)
}

// Query logs to the query category
func Query(format string, args ...interface{}) {
	Get(CategoryQuery).Infof(format, args...)
}

// QueryDebug logs debug to the query category
func QueryDebug(format string, args ...interface{}) {
	Get(CategoryQuery).Debugf(format, args...)
}

// QueryError logs an error to the query category
func QueryError(format string, args ...interface{}) {
	Get(CategoryQuery).Errorf(format, args...)
}

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugw(t.op+" completed", "elapsed", elapsed)
	return elapsed
}
