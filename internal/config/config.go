// Package config handles the global sg configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/sg/config.yml.
type Config struct {
	APIURL          string  `yaml:"api_url,omitempty"`
	Token           string  `yaml:"token,omitempty"`
	RateLimit       float64 `yaml:"rate_limit,omitempty"` // Requests per second, 0 disables limiting
	LogLevel        string  `yaml:"log_level,omitempty"`
	LogFormat       string  `yaml:"log_format,omitempty"`
	WorkspaceDir    string  `yaml:"workspace_dir,omitempty"`
	ConceptualDedup string  `yaml:"conceptual_dedup,omitempty"` // typed or pair

	LLMProvider string `yaml:"llm_provider,omitempty"`
	LLMAPIKey   string `yaml:"llm_api_key,omitempty"`
	LLMModel    string `yaml:"llm_model,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "sg"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DBFile is the local saved-graph database inside the workspace directory.
	DBFile = "graphs.db"
)

// Defaults applied to unset fields.
const (
	DefaultAPIURL    = "http://localhost:8000"
	DefaultRateLimit = 5.0
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DedupTyped       = "typed"
	DedupPair        = "pair"
)

// Environment variables that override file values.
const (
	EnvAPIURL    = "SG_API_URL"
	EnvToken     = "SG_TOKEN"
	EnvLogLevel  = "SG_LOG_LEVEL"
	EnvLLMAPIKey = "SG_LLM_API_KEY"
	EnvWorkspace = "SG_WORKSPACE_DIR"
)

// Validation errors.
var (
	ErrInvalidLogLevel  = errors.New("log_level must be debug, info, warn or error")
	ErrInvalidLogFormat = errors.New("log_format must be text or json")
	ErrInvalidDedup     = errors.New("conceptual_dedup must be typed or pair")
	ErrInvalidRateLimit = errors.New("rate_limit must not be negative")
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
	validDedup      = []string{DedupTyped, DedupPair}
)

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/sg/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultWorkspaceDir returns $XDG_DATA_HOME/sg, defaulting to
// ~/.local/share/sg.
func DefaultWorkspaceDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ConfigDir
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, ConfigDir)
}

// LoadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadFile reads only the values stored in the config file at path, without
// environment overrides or defaults. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config file at path, applies environment overrides and
// defaults, and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	fileCfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *fileCfg

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.APIURL, EnvAPIURL)
	override(&c.Token, EnvToken)
	override(&c.LogLevel, EnvLogLevel)
	override(&c.LLMAPIKey, EnvLLMAPIKey)
	override(&c.WorkspaceDir, EnvWorkspace)
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.ConceptualDedup == "" {
		c.ConceptualDedup = DedupTyped
	}
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = DefaultWorkspaceDir()
	}
	c.WorkspaceDir = ExpandPath(c.WorkspaceDir)
}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	if c.LogLevel != "" && !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.LogFormat != "" && !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	if c.ConceptualDedup != "" && !slices.Contains(validDedup, c.ConceptualDedup) {
		return fmt.Errorf("%w: %q", ErrInvalidDedup, c.ConceptualDedup)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRateLimit, strconv.FormatFloat(c.RateLimit, 'g', -1, 64))
	}
	return nil
}

// PairOnlyDedup reports whether conceptual edges are keyed by endpoints only.
func (c *Config) PairOnlyDedup() bool {
	return c.ConceptualDedup == DedupPair
}

// DBPath returns the local saved-graph database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.WorkspaceDir, DBFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// The file may hold credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
