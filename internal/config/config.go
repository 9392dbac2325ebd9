package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"gridcard/internal/grid"
)

// RelativeConfigPath is where gridcard looks for its config under the XDG
// config directories.
const RelativeConfigPath = "gridcard/config.yaml"

// Config holds all gridcard configuration.
type Config struct {
	// Decryption tool invocation and temp file
	Decrypt DecryptConfig `yaml:"decrypt"`

	// Plaintext card layout
	Grid GridConfig `yaml:"grid"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DecryptConfig configures the external decryption tool.
type DecryptConfig struct {
	// Binary is the decryption program (looked up on PATH).
	Binary string `yaml:"binary"`

	// OutputFlag precedes the output file name.
	OutputFlag string `yaml:"output_flag"`

	// DecryptFlag precedes the source path.
	DecryptFlag string `yaml:"decrypt_flag"`

	// ExtraArgs are inserted before the output flag (e.g. --quiet).
	ExtraArgs []string `yaml:"extra_args"`

	// OutputFile is the fixed plaintext file name, relative to WorkingDirectory.
	OutputFile string `yaml:"output_file"`

	// WorkingDirectory is where the tool runs and the output file lives.
	WorkingDirectory string `yaml:"working_directory"`

	// Timeout bounds the tool run. Empty waits until the tool exits.
	Timeout string `yaml:"timeout"`

	// AllowedEnvVars restricts the environment passed to the tool.
	// Empty passes the full environment.
	AllowedEnvVars []string `yaml:"allowed_env_vars"`
}

// GridConfig configures the plaintext layout.
type GridConfig struct {
	CellSeparator    string `yaml:"cell_separator"`
	ChannelSeparator string `yaml:"channel_separator"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Decrypt: DecryptConfig{
			Binary:           "gpg",
			OutputFlag:       "--output",
			DecryptFlag:      "--decrypt",
			OutputFile:       "file_dec",
			WorkingDirectory: ".",
		},

		Grid: GridConfig{
			CellSeparator:    grid.DefaultFormat.CellSeparator,
			ChannelSeparator: grid.DefaultFormat.ChannelSeparator,
		},

		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// DefaultPath returns the first existing config file in the XDG config
// directories, or "" when there is none.
func DefaultPath() string {
	path, err := xdg.SearchConfigFile(RelativeConfigPath)
	if err != nil {
		return ""
	}
	return path
}

// InitPath returns the path in the user's XDG config home where a new
// config file should be written, creating parent directories.
func InitPath() (string, error) {
	path, err := xdg.ConfigFile(RelativeConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// Load loads configuration from a YAML file. An empty path or a missing
// file yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// Return defaults if config file doesn't exist
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if bin := os.Getenv("GRIDCARD_GPG"); bin != "" {
		c.Decrypt.Binary = bin
	}
	if out := os.Getenv("GRIDCARD_OUTPUT_FILE"); out != "" {
		c.Decrypt.OutputFile = out
	}
	if dir := os.Getenv("GRIDCARD_WORKDIR"); dir != "" {
		c.Decrypt.WorkingDirectory = dir
	}
	if level := os.Getenv("GRIDCARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetDecryptTimeout returns the decryption timeout; zero means none.
// Validate rejects unparsable values, so this never guesses.
func (c *Config) GetDecryptTimeout() time.Duration {
	if c.Decrypt.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Decrypt.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// GridFormat returns the plaintext layout described by the grid section.
func (c *Config) GridFormat() grid.Format {
	return grid.Format{
		CellSeparator:    c.Grid.CellSeparator,
		ChannelSeparator: c.Grid.ChannelSeparator,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Decrypt.Binary == "" {
		return fmt.Errorf("decrypt.binary must not be empty")
	}
	if c.Decrypt.OutputFile == "" {
		return fmt.Errorf("decrypt.output_file must not be empty")
	}
	if !filepath.IsLocal(c.Decrypt.OutputFile) {
		return fmt.Errorf("decrypt.output_file %q must be a relative path inside the working directory", c.Decrypt.OutputFile)
	}
	if c.Decrypt.WorkingDirectory == "" {
		return fmt.Errorf("decrypt.working_directory must not be empty")
	}
	if c.Decrypt.Timeout != "" {
		d, err := time.ParseDuration(c.Decrypt.Timeout)
		if err != nil {
			return fmt.Errorf("invalid decrypt.timeout %q: %w", c.Decrypt.Timeout, err)
		}
		if d < 0 {
			return fmt.Errorf("decrypt.timeout must not be negative (got %s)", d)
		}
	}

	if err := c.GridFormat().Validate(); err != nil {
		return fmt.Errorf("invalid grid format: %w", err)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	switch c.Logging.Format {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (expected console or json)", c.Logging.Format)
	}

	return nil
}
