// Package config provides configuration types, defaults, and persistence for enroll.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aben18/enroll/internal/log"
)

// Config holds all configuration options for enroll.
type Config struct {
	// DBPath is the location of the member directory database.
	DBPath string `mapstructure:"db_path"`

	// AutoRefresh re-runs the active organization search when the
	// directory database changes on disk.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	Search  SearchConfig  `mapstructure:"search"`
	Labels  LabelsConfig  `mapstructure:"labels"`
	URLs    URLConfig     `mapstructure:"urls"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// SearchConfig controls organization search behavior.
type SearchConfig struct {
	// DebounceMs is the pause after the last keystroke before a name
	// search is issued.
	DebounceMs int `mapstructure:"debounce_ms"`

	// MinQueryLength is the minimum trimmed query length; shorter queries
	// never issue a request.
	MinQueryLength int `mapstructure:"min_query_length"`

	// Limit caps the number of candidates returned per search.
	Limit int `mapstructure:"limit"`
}

// Debounce returns the search debounce as a duration.
func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// LabelsConfig holds display label overrides. Pure presentation.
type LabelsConfig struct {
	Title        string `mapstructure:"title"`
	FirstName    string `mapstructure:"first_name"`
	LastName     string `mapstructure:"last_name"`
	Email        string `mapstructure:"email"`
	JobTitle     string `mapstructure:"job_title"`
	Organization string `mapstructure:"organization"`
	CreateButton string `mapstructure:"create_button"`
	SubmitButton string `mapstructure:"submit_button"`
	CancelButton string `mapstructure:"cancel_button"`
	ModalTitle   string `mapstructure:"modal_title"`
	ModalName    string `mapstructure:"modal_name"`
}

// URLConfig holds the redirect destinations.
type URLConfig struct {
	// Confirmation is navigated to after a successful registration.
	Confirmation string `mapstructure:"confirmation"`
	// Login is navigated to when the visitor already has an account.
	Login string `mapstructure:"login"`
}

// ThemeConfig holds color customization options.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight"`
	Subtle    string `mapstructure:"subtle"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

// TracingConfig configures span export for directory service calls.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter     string  `mapstructure:"exporter" yaml:"exporter"`           // "none", "file", "stdout", "otlp"
	FilePath     string  `mapstructure:"file_path" yaml:"file_path"`         // output for "file" exporter
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"` // collector endpoint for "otlp"
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name" yaml:"service_name"`
}

// CacheConfig controls the directory lookup cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTLMs   int  `mapstructure:"ttl_ms"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		AutoRefresh: true,
		Search: SearchConfig{
			DebounceMs:     200,
			MinQueryLength: 2,
			Limit:          10,
		},
		Labels: LabelsConfig{
			Title:        "Create an account",
			FirstName:    "First Name",
			LastName:     "Last Name",
			Email:        "Email",
			JobTitle:     "Job Title",
			Organization: "Organization",
			CreateButton: "Create New Organization",
			SubmitButton: "Sign Up",
			CancelButton: "Log In Instead",
			ModalTitle:   "Create a new organization",
			ModalName:    "Organization Name",
		},
		URLs: URLConfig{
			Confirmation: "/CheckPasswordResetEmail",
			Login:        "/login",
		},
		Theme: ThemeConfig{
			Highlight: "#54A0FF",
			Subtle:    "#696969",
			Error:     "#FF6B6B",
			Success:   "#73F59F",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "enroll",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTLMs:   int((5 * time.Minute).Milliseconds()),
		},
	}
}

// Validate checks configuration values that would break the form at runtime.
func Validate(cfg Config) error {
	if cfg.Search.DebounceMs < 0 {
		return fmt.Errorf("search.debounce_ms must not be negative, got %d", cfg.Search.DebounceMs)
	}
	if cfg.Search.MinQueryLength < 1 {
		return fmt.Errorf("search.min_query_length must be at least 1, got %d", cfg.Search.MinQueryLength)
	}
	if cfg.Search.Limit < 1 {
		return fmt.Errorf("search.limit must be at least 1, got %d", cfg.Search.Limit)
	}
	if cfg.URLs.Confirmation == "" {
		return fmt.Errorf("urls.confirmation must not be empty")
	}
	return nil
}

// DefaultConfigTemplate returns the commented YAML written for new installs.
func DefaultConfigTemplate() string {
	return `# enroll configuration

# Path to the member directory database.
# Defaults to .enroll/directory.db next to the config file.
# db_path: .enroll/directory.db

# Re-run the active organization search when the directory database
# changes on disk (default: true)
auto_refresh: true

# Organization search behavior
search:
  debounce_ms: 200      # pause after last keystroke before searching
  min_query_length: 2   # shorter queries never issue a request
  limit: 10             # max candidates per search

# Redirect destinations
urls:
  confirmation: /CheckPasswordResetEmail
  login: /login

# Display labels (all optional; defaults shown)
# labels:
#   title: Create an account
#   first_name: First Name
#   last_name: Last Name
#   email: Email
#   job_title: Job Title
#   organization: Organization
#   create_button: Create New Organization
#   submit_button: Sign Up
#   cancel_button: Log In Instead
#   modal_title: Create a new organization
#   modal_name: Organization Name

# Theme colors
theme:
  highlight: "#54A0FF"
  subtle: "#696969"
  error: "#FF6B6B"
  success: "#73F59F"

# Directory lookup cache
cache:
  enabled: true
  ttl_ms: 300000

# Tracing of directory service calls
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/enroll/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
