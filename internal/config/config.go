// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/design-proxy/config.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config            string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host              string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port              int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	GeminiAPIKey      string `kong:"help='Gemini API key (overrides config).',env='GEMINI_API_KEY'"`
	UnsplashAccessKey string `kong:"help='Unsplash access key (overrides config).',env='UNSPLASH_ACCESS_KEY'"`
	GiphyAPIKey       string `kong:"help='Giphy API key (overrides config).',env='GIPHY_API_KEY'"`
	StaticRoot        string `kong:"help='Static file root directory (overrides config).',env='STATIC_ROOT'"`
	LogLevel          string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Unsplash UnsplashConfig `toml:"unsplash"`
	Giphy    GiphyConfig    `toml:"giphy"`
	Static   StaticConfig   `toml:"static"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8080); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// GeminiConfig holds settings for the content-generation upstream.
type GeminiConfig struct {
	APIKey                 string   `toml:"api_key"`
	BaseURL                string   `toml:"base_url"`
	GenerateModel          string   `toml:"generate_model"`
	DescribeModel          string   `toml:"describe_model"`
	AllowedModels          []string `toml:"allowed_models"`
	TimeoutSeconds         int      `toml:"timeout_seconds"`
	DescribeTimeoutSeconds int      `toml:"describe_timeout_seconds"`
}

// UnsplashConfig holds settings for the image-search upstream.
type UnsplashConfig struct {
	AccessKey      string `toml:"access_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// InsecureSkipVerify disables TLS certificate verification for this
	// upstream only. Development-mode escape hatch for broken local trust
	// stores; never enable in anything resembling production.
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`
}

// GiphyConfig holds settings for the GIF-search upstream.
type GiphyConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StaticConfig holds static file serving settings.
type StaticConfig struct {
	Root string `toml:"root"`
}

// UpstreamConfig holds shared outbound connection settings.
type UpstreamConfig struct {
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/design-proxy/config.toml then configs/config.toml. A missing config
// file is not an error: every field has a development default and secrets
// can arrive via environment variables.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	explicit := path != ""
	if !explicit {
		path = findConfig()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
			cfg.filePath = path
		}
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.GeminiAPIKey != "" {
		c.Gemini.APIKey = cli.GeminiAPIKey
	}
	if cli.UnsplashAccessKey != "" {
		c.Unsplash.AccessKey = cli.UnsplashAccessKey
	}
	if cli.GiphyAPIKey != "" {
		c.Giphy.APIKey = cli.GiphyAPIKey
	}
	if cli.StaticRoot != "" {
		c.Static.Root = cli.StaticRoot
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	for _, key := range []struct{ name, value string }{
		{"gemini.api_key", c.Gemini.APIKey},
		{"unsplash.access_key", c.Unsplash.AccessKey},
		{"giphy.api_key", c.Giphy.APIKey},
	} {
		if key.value == "YOUR_API_KEY_HERE" {
			return fmt.Errorf("%s contains placeholder value; set a real key or leave empty", key.name)
		}
	}

	// Upstream base URLs: must be HTTPS when set (defaults are).
	for _, u := range []struct{ name, value string }{
		{"gemini.base_url", c.Gemini.BaseURL},
		{"unsplash.base_url", c.Unsplash.BaseURL},
		{"giphy.base_url", c.Giphy.BaseURL},
	} {
		if u.value == "" {
			continue
		}
		parsed, err := url.Parse(u.value)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", u.name, err)
		}
		if parsed.Scheme != "https" {
			return fmt.Errorf("%s must use HTTPS; got %q", u.name, u.value)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	for _, t := range []struct {
		name  string
		value int
	}{
		{"gemini.timeout_seconds", c.Gemini.TimeoutSeconds},
		{"gemini.describe_timeout_seconds", c.Gemini.DescribeTimeoutSeconds},
		{"unsplash.timeout_seconds", c.Unsplash.TimeoutSeconds},
		{"giphy.timeout_seconds", c.Giphy.TimeoutSeconds},
	} {
		if t.value < 0 {
			return fmt.Errorf("%s must be non-negative; got %d", t.name, t.value)
		}
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/api", "/healthz", "/proxy/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key. Setting port=0 in
// the config file therefore results in the default port (8080).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.GenerateModel == "" {
		c.Gemini.GenerateModel = "gemini-3-pro-image-preview"
	}
	if c.Gemini.DescribeModel == "" {
		c.Gemini.DescribeModel = "gemini-2.5-flash-lite"
	}
	if len(c.Gemini.AllowedModels) == 0 {
		c.Gemini.AllowedModels = []string{c.Gemini.GenerateModel}
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 120
	}
	if c.Gemini.DescribeTimeoutSeconds == 0 {
		c.Gemini.DescribeTimeoutSeconds = 30
	}
	if c.Unsplash.BaseURL == "" {
		c.Unsplash.BaseURL = "https://api.unsplash.com"
	}
	if c.Unsplash.TimeoutSeconds == 0 {
		c.Unsplash.TimeoutSeconds = 15
	}
	if c.Giphy.BaseURL == "" {
		c.Giphy.BaseURL = "https://api.giphy.com"
	}
	if c.Giphy.TimeoutSeconds == 0 {
		c.Giphy.TimeoutSeconds = 15
	}
	if c.Static.Root == "" {
		c.Static.Root = "."
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
