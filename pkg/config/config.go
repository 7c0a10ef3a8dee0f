package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable roost reads.
const EnvPrefix = "ROOST_"

// Config holds all configuration options for roost
type Config struct {
	// API endpoints and per-call behaviour
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Optional client-side pacing on top of the server-reported quota
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Backoff between retryable outcomes
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Filter stream collector
	Stream StreamConfig `yaml:"stream" json:"stream"`

	// Credential profile selection
	Profile ProfileConfig `yaml:"profile" json:"profile"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// TwitterConfig holds REST API settings
type TwitterConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	StreamURL      string        `yaml:"stream_url" json:"stream_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	// CapacityWait is the cooldown imposed after the service reports it is over capacity.
	CapacityWait time.Duration `yaml:"capacity_wait" json:"capacity_wait"`
	// MaxWaitJitter bounds the random whole-second jitter added to every forced wait.
	MaxWaitJitter time.Duration `yaml:"max_wait_jitter" json:"max_wait_jitter"`
	// SyncRateLimit seeds the tracker from the rate limit status endpoint on startup.
	SyncRateLimit bool `yaml:"sync_rate_limit" json:"sync_rate_limit"`
}

// RateLimitConfig holds client-side pacing configuration. Zero disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int `yaml:"burst" json:"burst"`
}

// RetryConfig holds the backoff applied between retryable attempts
type RetryConfig struct {
	RateLimitBaseDelay time.Duration `yaml:"rate_limit_base_delay" json:"rate_limit_base_delay"`
	RateLimitMaxDelay  time.Duration `yaml:"rate_limit_max_delay" json:"rate_limit_max_delay"`
	BaseDelay          time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay           time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier         float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor       float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// StreamConfig holds filter stream settings
type StreamConfig struct {
	Track         []string      `yaml:"track" json:"track"`
	OutputFile    string        `yaml:"output_file" json:"output_file"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	MaxReconnects int           `yaml:"max_reconnects" json:"max_reconnects"`
}

// ProfileConfig selects the credential profile
type ProfileConfig struct {
	Name string `yaml:"name" json:"name"`
	Dir  string `yaml:"dir" json:"dir"`
	File string `yaml:"file" json:"file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds the prometheus listener address. Empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// DefaultProfileDir returns ~/.roost, falling back to a relative .roost directory.
func DefaultProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roost"
	}
	return filepath.Join(home, ".roost")
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:        "https://api.twitter.com/1",
			StreamURL:      "https://stream.twitter.com/1/statuses/filter.json",
			RequestTimeout: 30 * time.Second,
			CapacityWait:   60 * time.Second,
			MaxWaitJitter:  10 * time.Second,
			SyncRateLimit:  true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			Burst:             1,
		},
		Retry: RetryConfig{
			RateLimitBaseDelay: 5 * time.Second,
			RateLimitMaxDelay:  5 * time.Minute,
			BaseDelay:          time.Second,
			MaxDelay:           60 * time.Second,
			Multiplier:         2.0,
			JitterFactor:       0.1,
		},
		Stream: StreamConfig{
			Timeout:       3 * time.Hour,
			MaxReconnects: 5,
		},
		Profile: ProfileConfig{
			Name: "default",
			Dir:  DefaultProfileDir(),
		},
		Logging: LoggingConfig{
			Level: "error",
		},
	}
}

// LoadFromEnv loads configuration from ROOST_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("BASE_URL", &c.Twitter.BaseURL)
	str("STREAM_URL", &c.Twitter.StreamURL)
	dur("REQUEST_TIMEOUT", &c.Twitter.RequestTimeout)
	dur("CAPACITY_WAIT", &c.Twitter.CapacityWait)
	dur("MAX_WAIT_JITTER", &c.Twitter.MaxWaitJitter)
	if v := os.Getenv(EnvPrefix + "SYNC_RATE_LIMIT"); v != "" {
		c.Twitter.SyncRateLimit = strings.ToLower(v) == "true" || v == "1"
	}

	num("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	num("BURST", &c.RateLimit.Burst)

	if v := os.Getenv(EnvPrefix + "TRACK"); v != "" {
		c.Stream.Track = splitTerms(v)
	}
	str("STREAM_OUTPUT", &c.Stream.OutputFile)
	dur("STREAM_TIMEOUT", &c.Stream.Timeout)

	str("PROFILE", &c.Profile.Name)
	str("PROFILE_DIR", &c.Profile.Dir)
	str("PROFILE_FILE", &c.Profile.File)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FILE", &c.Logging.File)
	str("METRICS_ADDR", &c.Metrics.Addr)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".roost.yaml",
		".roost.yml",
		filepath.Join(home, ".config", "roost", "config.yaml"),
		filepath.Join(home, ".roost.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Twitter.BaseURL); err != nil || c.Twitter.BaseURL == "" {
		errs = append(errs, fmt.Errorf("invalid base URL %q", c.Twitter.BaseURL))
	}
	if c.Twitter.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Twitter.CapacityWait < 0 {
		errs = append(errs, errors.New("capacity wait cannot be negative"))
	}
	if c.Twitter.MaxWaitJitter < time.Second {
		errs = append(errs, errors.New("max wait jitter must be at least one second"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("burst must be positive when pacing is enabled"))
	}

	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
	}
	if c.Retry.BaseDelay > c.Retry.MaxDelay {
		errs = append(errs, errors.New("retry base delay exceeds max delay"))
	}
	if c.Retry.RateLimitBaseDelay > c.Retry.RateLimitMaxDelay {
		errs = append(errs, errors.New("rate limit base delay exceeds max delay"))
	}

	if c.Stream.MaxReconnects < 0 {
		errs = append(errs, errors.New("max reconnects cannot be negative"))
	}

	if c.Profile.Name == "" && c.Profile.File == "" {
		errs = append(errs, errors.New("a profile name or profile file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Overrides carries command line values. Zero values leave the config untouched.
type Overrides struct {
	Profile     string
	ProfileFile string
	LogLevel    string
	MetricsAddr string
	Track       []string
	StreamOut   string
}

// Apply merges command line overrides into the configuration.
func (c *Config) Apply(o Overrides) {
	if o.Profile != "" {
		c.Profile.Name = o.Profile
	}
	if o.ProfileFile != "" {
		c.Profile.File = o.ProfileFile
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.MetricsAddr != "" {
		c.Metrics.Addr = o.MetricsAddr
	}
	if len(o.Track) > 0 {
		c.Stream.Track = o.Track
	}
	if o.StreamOut != "" {
		c.Stream.OutputFile = o.StreamOut
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, o Overrides) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".roost.env"))
	}

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func splitTerms(s string) []string {
	var terms []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
