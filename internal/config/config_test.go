package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(&CLI{Config: ""})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com/v1beta" {
		t.Errorf("Gemini.BaseURL = %q", cfg.Gemini.BaseURL)
	}
	if cfg.Gemini.GenerateModel != "gemini-3-pro-image-preview" {
		t.Errorf("Gemini.GenerateModel = %q", cfg.Gemini.GenerateModel)
	}
	if len(cfg.Gemini.AllowedModels) != 1 || cfg.Gemini.AllowedModels[0] != cfg.Gemini.GenerateModel {
		t.Errorf("Gemini.AllowedModels = %v, want default model only", cfg.Gemini.AllowedModels)
	}
	if cfg.Gemini.TimeoutSeconds != 120 {
		t.Errorf("Gemini.TimeoutSeconds = %d, want 120", cfg.Gemini.TimeoutSeconds)
	}
	if cfg.Gemini.DescribeTimeoutSeconds != 30 {
		t.Errorf("Gemini.DescribeTimeoutSeconds = %d, want 30", cfg.Gemini.DescribeTimeoutSeconds)
	}
	if cfg.Unsplash.TimeoutSeconds != 15 {
		t.Errorf("Unsplash.TimeoutSeconds = %d, want 15", cfg.Unsplash.TimeoutSeconds)
	}
	if cfg.Unsplash.InsecureSkipVerify {
		t.Error("Unsplash.InsecureSkipVerify must default to false")
	}
	if cfg.Giphy.TimeoutSeconds != 15 {
		t.Errorf("Giphy.TimeoutSeconds = %d, want 15", cfg.Giphy.TimeoutSeconds)
	}
	if cfg.Static.Root != "." {
		t.Errorf("Static.Root = %q, want %q", cfg.Static.Root, ".")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(&CLI{Config: filepath.Join(t.TempDir(), "absent.toml")})
	if err == nil {
		t.Fatal("Load() expected error for explicit missing config file")
	}
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9090

[gemini]
api_key = "g-key"
allowed_models = ["gemini-3-pro-image-preview", "gemini-3-flash"]

[unsplash]
access_key = "u-key"
insecure_skip_verify = true

[giphy]
api_key = "gif-key"

[static]
root = "public"

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(&CLI{Config: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Gemini.APIKey != "g-key" {
		t.Errorf("Gemini.APIKey = %q", cfg.Gemini.APIKey)
	}
	if len(cfg.Gemini.AllowedModels) != 2 {
		t.Errorf("AllowedModels = %v, want 2 entries", cfg.Gemini.AllowedModels)
	}
	if !cfg.Unsplash.InsecureSkipVerify {
		t.Error("Unsplash.InsecureSkipVerify = false, want true")
	}
	if cfg.Static.Root != "public" {
		t.Errorf("Static.Root = %q, want public", cfg.Static.Root)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want debug/text", cfg.Log)
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090

[gemini]
api_key = "file-key"
`)

	cfg, err := Load(&CLI{
		Config:            path,
		Host:              "localhost",
		Port:              7070,
		GeminiAPIKey:      "cli-key",
		UnsplashAccessKey: "cli-unsplash",
		GiphyAPIKey:       "cli-giphy",
		StaticRoot:        "dist",
		LogLevel:          "warn",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 7070 {
		t.Errorf("Server = %s, want localhost:7070", cfg.Server.Addr())
	}
	if cfg.Gemini.APIKey != "cli-key" {
		t.Errorf("Gemini.APIKey = %q, want cli-key", cfg.Gemini.APIKey)
	}
	if cfg.Unsplash.AccessKey != "cli-unsplash" {
		t.Errorf("Unsplash.AccessKey = %q", cfg.Unsplash.AccessKey)
	}
	if cfg.Giphy.APIKey != "cli-giphy" {
		t.Errorf("Giphy.APIKey = %q", cfg.Giphy.APIKey)
	}
	if cfg.Static.Root != "dist" {
		t.Errorf("Static.Root = %q, want dist", cfg.Static.Root)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{
			name:    "placeholder key",
			content: "[gemini]\napi_key = \"YOUR_API_KEY_HERE\"\n",
			wantSub: "placeholder",
		},
		{
			name:    "non-https base url",
			content: "[gemini]\nbase_url = \"http://generativelanguage.googleapis.com/v1beta\"\n",
			wantSub: "HTTPS",
		},
		{
			name:    "port out of range",
			content: "[server]\nport = 70000\n",
			wantSub: "server.port",
		},
		{
			name:    "negative body limit",
			content: "[server]\nbody_max_bytes = -1\n",
			wantSub: "body_max_bytes",
		},
		{
			name:    "negative timeout",
			content: "[unsplash]\ntimeout_seconds = -5\n",
			wantSub: "unsplash.timeout_seconds",
		},
		{
			name:    "rate limit enabled without rps",
			content: "[server.rate_limit]\nenabled = true\n",
			wantSub: "requests_per_second",
		},
		{
			name:    "bad log level",
			content: "[log]\nlevel = \"loud\"\n",
			wantSub: "log.level",
		},
		{
			name:    "bad log format",
			content: "[log]\nformat = \"xml\"\n",
			wantSub: "log.format",
		},
		{
			name:    "metrics path without slash",
			content: "[metrics]\nenabled = true\npath = \"metrics\"\n",
			wantSub: "metrics.path",
		},
		{
			name:    "metrics path conflicts with api",
			content: "[metrics]\nenabled = true\npath = \"/api/metrics\"\n",
			wantSub: "reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(&CLI{Config: path})
			if err == nil {
				t.Fatal("Load() expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestFindConfigInPaths(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(existing, []byte(""), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := findConfigInPaths([]string{filepath.Join(dir, "missing.toml"), existing})
	if got != existing {
		t.Errorf("findConfigInPaths() = %q, want %q", got, existing)
	}

	if got := findConfigInPaths([]string{filepath.Join(dir, "missing.toml")}); got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}
