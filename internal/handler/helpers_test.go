package handler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/labstack/echo/v4"

	"design-proxy-go/internal/client"
	"design-proxy-go/internal/config"
	"design-proxy-go/internal/metrics"
	"design-proxy-go/internal/middleware"
	"design-proxy-go/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConfig points every upstream at the given base URL (an httptest
// server) with short timeouts.
func newTestConfig(upstreamURL, staticRoot string) *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{
			APIKey:                 "gemini-test-key",
			BaseURL:                upstreamURL,
			GenerateModel:          "gemini-3-pro-image-preview",
			DescribeModel:          "gemini-2.5-flash-lite",
			AllowedModels:          []string{"gemini-3-pro-image-preview"},
			TimeoutSeconds:         10,
			DescribeTimeoutSeconds: 10,
		},
		Unsplash: config.UnsplashConfig{
			AccessKey:      "unsplash-test-key",
			BaseURL:        upstreamURL,
			TimeoutSeconds: 10,
		},
		Giphy: config.GiphyConfig{
			APIKey:         "giphy-test-key",
			BaseURL:        upstreamURL,
			TimeoutSeconds: 10,
		},
		Static:   config.StaticConfig{Root: staticRoot},
		Upstream: config.UpstreamConfig{IdleConnections: 10},
	}
}

// newTestEcho builds a fully wired Echo instance the way main does, minus
// the lifecycle plumbing.
func newTestEcho(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()

	logger := discardLogger()
	up := client.New(cfg, logger, nil)

	gsvc, err := service.NewGeminiService(cfg)
	if err != nil {
		t.Fatalf("NewGeminiService: %v", err)
	}

	gemini := NewGeminiHandler(gsvc, up, logger)
	search := NewSearchHandler(service.NewUnsplashService(cfg), service.NewGiphyService(cfg), up, logger)
	static := NewStaticHandler(cfg, logger)
	health := NewHealthHandler(cfg, "test")

	e := echo.New()
	e.Use(middleware.CORS())
	RegisterRoutes(e, gemini, search, static, health, metrics.New(), cfg)
	return e
}
