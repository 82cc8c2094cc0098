package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pshttp "github.com/ligustah/pageslurp/internal/http"
	"github.com/ligustah/pageslurp/internal/pipeline"
	"github.com/ligustah/pageslurp/internal/progress"
	"github.com/ligustah/pageslurp/internal/transcode"
)

// Progress display styles.
const (
	ProgressBar     = "bar"
	ProgressSpinner = "spinner"
	ProgressLog     = "log"
	ProgressNone    = "none"
)

// Config defines configuration for the pageslurp CLI.
type Config struct {
	OutputDir string        `yaml:"output_dir"`
	Format    string        `yaml:"format"`
	Force     bool          `yaml:"force"`
	Workers   int           `yaml:"workers"`
	Quality   int           `yaml:"quality"`
	Progress  string        `yaml:"progress"`
	LogLevel  string        `yaml:"log_level"`
	Fetch     FetchConfig   `yaml:"fetch"`
	Retry     RetryConfig   `yaml:"retry"`
	Publish   PublishConfig `yaml:"publish"`
}

// FetchConfig defines how images are requested.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxSize   int64         `yaml:"max_size"`
	UserAgent string        `yaml:"user_agent"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// PublishConfig defines where finished works are mirrored.
type PublishConfig struct {
	Bucket string `yaml:"bucket"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		OutputDir: "pageslurp",
		Format:    string(transcode.JPEG),
		Workers:   1,
		Quality:   transcode.DefaultQuality,
		Progress:  ProgressBar,
		LogLevel:  "warn",
		Fetch: FetchConfig{
			Timeout: 10 * time.Second,
			MaxSize: 64 * 1024 * 1024, // 64MB
		},
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    3 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and sizes.
type yamlConfig struct {
	OutputDir string          `yaml:"output_dir"`
	Format    string          `yaml:"format"`
	Force     bool            `yaml:"force"`
	Workers   int             `yaml:"workers"`
	Quality   int             `yaml:"quality"`
	Progress  string          `yaml:"progress"`
	LogLevel  string          `yaml:"log_level"`
	Fetch     yamlFetchConfig `yaml:"fetch"`
	Retry     yamlRetryConfig `yaml:"retry"`
	Publish   PublishConfig   `yaml:"publish"`
}

type yamlFetchConfig struct {
	Timeout   string `yaml:"timeout"`
	MaxSize   string `yaml:"max_size"`
	UserAgent string `yaml:"user_agent"`
}

type yamlRetryConfig struct {
	Attempts *int   `yaml:"attempts"`
	Delay    string `yaml:"delay"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.Format != "" {
		cfg.Format = yc.Format
	}
	cfg.Force = yc.Force
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Quality != 0 {
		cfg.Quality = yc.Quality
	}
	if yc.Progress != "" {
		cfg.Progress = yc.Progress
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	if yc.Fetch.Timeout != "" {
		d, err := time.ParseDuration(yc.Fetch.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse fetch.timeout: %w", err)
		}
		cfg.Fetch.Timeout = d
	}
	if yc.Fetch.MaxSize != "" {
		size, err := progress.ParseBytes(yc.Fetch.MaxSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse fetch.max_size: %w", err)
		}
		cfg.Fetch.MaxSize = size
	}
	if yc.Fetch.UserAgent != "" {
		cfg.Fetch.UserAgent = yc.Fetch.UserAgent
	}
	if yc.Retry.Attempts != nil {
		cfg.Retry.Attempts = *yc.Retry.Attempts
	}
	if yc.Retry.Delay != "" {
		d, err := time.ParseDuration(yc.Retry.Delay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.delay: %w", err)
		}
		cfg.Retry.Delay = d
	}
	if yc.Publish.Bucket != "" {
		cfg.Publish.Bucket = yc.Publish.Bucket
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PAGESLURP_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("PAGESLURP_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("PAGESLURP_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("PAGESLURP_FORCE"); v != "" {
		c.Force = v == "true" || v == "1"
	}
	if v := os.Getenv("PAGESLURP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PAGESLURP_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("PAGESLURP_QUALITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PAGESLURP_QUALITY: %w", err)
		}
		c.Quality = n
	}
	if v := os.Getenv("PAGESLURP_PROGRESS"); v != "" {
		c.Progress = v
	}
	if v := os.Getenv("PAGESLURP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PAGESLURP_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PAGESLURP_FETCH_TIMEOUT: %w", err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("PAGESLURP_FETCH_MAX_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse PAGESLURP_FETCH_MAX_SIZE: %w", err)
		}
		c.Fetch.MaxSize = size
	}
	if v := os.Getenv("PAGESLURP_USER_AGENT"); v != "" {
		c.Fetch.UserAgent = v
	}
	if v := os.Getenv("PAGESLURP_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PAGESLURP_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("PAGESLURP_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PAGESLURP_RETRY_DELAY: %w", err)
		}
		c.Retry.Delay = d
	}
	if v := os.Getenv("PAGESLURP_PUBLISH_BUCKET"); v != "" {
		c.Publish.Bucket = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("config: output_dir is required")
	}
	if _, err := transcode.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return errors.New("config: quality must be between 1 and 100")
	}
	switch c.Progress {
	case ProgressBar, ProgressSpinner, ProgressLog, ProgressNone:
	default:
		return fmt.Errorf("config: unknown progress style %q", c.Progress)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("config: fetch.timeout must be positive")
	}
	if c.Fetch.MaxSize <= 0 {
		return errors.New("config: fetch.max_size must be positive")
	}
	if c.Retry.Attempts < 0 {
		return errors.New("config: retry.attempts must not be negative")
	}
	if c.Retry.Delay <= 0 {
		return errors.New("config: retry.delay must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.Format != "" {
		c.Format = override.Format
	}
	if override.Force {
		c.Force = override.Force
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Quality != 0 {
		c.Quality = override.Quality
	}
	if override.Progress != "" {
		c.Progress = override.Progress
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.Fetch.Timeout != 0 {
		c.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.MaxSize != 0 {
		c.Fetch.MaxSize = override.Fetch.MaxSize
	}
	if override.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Delay != 0 {
		c.Retry.Delay = override.Retry.Delay
	}
	if override.Publish.Bucket != "" {
		c.Publish.Bucket = override.Publish.Bucket
	}
	return c
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
}

// HTTPOptions returns the HTTP client options for c.
func (c *Config) HTTPOptions() pshttp.Options {
	return pshttp.Options{
		MaxIdleConnsPerHost: c.Workers,
		Timeout:             c.Fetch.Timeout,
		MaxBodySize:         c.Fetch.MaxSize,
		UserAgent:           c.Fetch.UserAgent,
	}
}

// RunConfig returns the pipeline configuration for a work resolved from
// sourceURL. Fetcher, Progress and Logger are left for the caller.
func (c *Config) RunConfig(sourceURL string) pipeline.RunConfig {
	return pipeline.RunConfig{
		Format:       c.Format,
		Force:        c.Force,
		SourceURL:    sourceURL,
		OutputDir:    c.OutputDir,
		MaxRetries:   c.Retry.Attempts,
		FetchTimeout: c.Fetch.Timeout,
		RetryDelay:   c.Retry.Delay,
		Quality:      c.Quality,
		Workers:      c.Workers,
	}
}
