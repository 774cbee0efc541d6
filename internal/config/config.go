// Package config is the explicit configuration surface of the
// pipeline. Everything the run needs (labels, sheet identity, model,
// budgets) is constructed here once and passed in; nothing reads
// ambient key-value state mid-run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full jobsift configuration.
type Config struct {
	Gmail  GmailConfig  `yaml:"gmail"`
	Sheet  SheetConfig  `yaml:"sheet"`
	Gemini GeminiConfig `yaml:"gemini"`
	Run    RunConfig    `yaml:"run"`
}

// GmailConfig locates credentials and names the two pipeline labels.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	PendingLabel    string `yaml:"pending_label"`
	DoneLabel       string `yaml:"done_label"`
}

// SheetConfig identifies the destination spreadsheet and tabs.
type SheetConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	RecordsTab    string `yaml:"records_tab"`
	ErrorsTab     string `yaml:"errors_tab"`

	// ErrorRowsTerminal makes error rows count as processed, so a
	// failed message is never reattempted. Off by default: failures
	// are retried through conversation relabeling.
	ErrorRowsTerminal bool `yaml:"error_rows_terminal"`
}

// GeminiConfig configures the primary extraction path. The API key
// itself lives in the environment, never in this file.
type GeminiConfig struct {
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// AllowFallbackOnly lets a run proceed on the deterministic
	// pattern extractor alone when no API key is present.
	AllowFallbackOnly bool `yaml:"allow_fallback_only"`
}

// RunConfig caps and paces one run.
type RunConfig struct {
	MaxConversations    int `yaml:"max_conversations"`
	MaxMessages         int `yaml:"max_messages"`
	MaxRuntimeSeconds   int `yaml:"max_runtime_seconds"`
	MessagePauseMS      int `yaml:"message_pause_ms"`
	MessageJitterMS     int `yaml:"message_jitter_ms"`
	ConversationPauseMS int `yaml:"conversation_pause_ms"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Gmail: GmailConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			PendingLabel:    "JobApps/NeedsProcess",
			DoneLabel:       "JobApps/Done",
		},
		Sheet: SheetConfig{
			RecordsTab: "Applications",
			ErrorsTab:  "Errors",
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			TimeoutSeconds: 60,
		},
		Run: RunConfig{
			MaxConversations:    10,
			MaxMessages:         15,
			MaxRuntimeSeconds:   240,
			MessagePauseMS:      800,
			MessageJitterMS:     700,
			ConversationPauseMS: 250,
		},
	}
}

// GetConfigDir returns the config directory, honoring an explicit
// override (useful for tests and portable installs).
func GetConfigDir() (string, error) {
	if override := os.Getenv("JOBSIFT_CONFIG_DIR"); override != "" {
		return override, nil
	}
	var base string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		base = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "jobsift"), nil
}

// GetDataDir returns the platform-specific data directory (ledger db).
func GetDataDir() (string, error) {
	if override := os.Getenv("JOBSIFT_DATA_DIR"); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Jobsift"), nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "jobsift"), nil
	}
	return filepath.Join(home, ".local", "share", "jobsift"), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads config from path (default location when path is empty),
// overlaying defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate performs the fatal pre-run checks. A run must not start
// when any of these fail; nothing has been committed yet at that
// point.
func (c *Config) Validate() error {
	if c.Sheet.SpreadsheetID == "" {
		return fmt.Errorf("sheet.spreadsheet_id is required")
	}
	if c.Sheet.RecordsTab == "" || c.Sheet.ErrorsTab == "" {
		return fmt.Errorf("sheet.records_tab and sheet.errors_tab are required")
	}
	if c.Gmail.PendingLabel == "" || c.Gmail.DoneLabel == "" {
		return fmt.Errorf("gmail.pending_label and gmail.done_label are required")
	}
	if c.Gmail.CredentialsFile == "" {
		return fmt.Errorf("gmail.credentials_file is required")
	}
	if c.Gemini.APIKeyEnv == "" && !c.Gemini.AllowFallbackOnly {
		return fmt.Errorf("gemini.api_key_env is required unless gemini.allow_fallback_only is set")
	}
	return nil
}

// APIKey reads the Gemini key from the configured environment
// variable. Empty is fatal unless fallback-only mode is allowed.
func (c *Config) APIKey() (string, error) {
	if c.Gemini.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(c.Gemini.APIKeyEnv)
	if key == "" && !c.Gemini.AllowFallbackOnly {
		return "", fmt.Errorf("environment variable %s is empty; set it or enable gemini.allow_fallback_only", c.Gemini.APIKeyEnv)
	}
	return key, nil
}

// GeminiTimeout returns the per-call extraction timeout.
func (c *Config) GeminiTimeout() time.Duration {
	if c.Gemini.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}
