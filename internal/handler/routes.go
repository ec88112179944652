package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"design-proxy-go/internal/config"
	"design-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
//
// Route precedence relies on Echo matching static path segments before the
// catch-alls: the /api/* handlers win over the POST/OPTIONS "/*" 404s, and
// those win over nothing at all. Unclaimed GETs (including unknown /api/
// paths) fall through to the static handler, matching the original
// dev-server behavior.
func RegisterRoutes(e *echo.Echo, gemini *GeminiHandler, search *SearchHandler, static *StaticHandler, health *HealthHandler, m *metrics.Metrics, cfg *config.Config) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.POST("/api/generate", gemini.Generate)
	e.POST("/api/describe-image", gemini.Describe)
	e.POST("/api/gemini/*", gemini.Legacy)

	e.GET("/api/unsplash", search.Unsplash)
	e.GET("/api/unsplash/*", search.Unsplash)
	e.GET("/api/giphy", search.Giphy)
	e.GET("/api/giphy/*", search.Giphy)

	e.OPTIONS("/api/*", Preflight)

	// POST and OPTIONS anywhere else are 404, not 405: only the routes
	// above exist for those methods.
	e.POST("/*", notFound)
	e.OPTIONS("/*", notFound)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	e.GET("/*", static.Serve)
	e.HEAD("/*", static.Serve)
}

// Preflight answers CORS preflight requests for any path under /api/.
// The Access-Control-Allow-Origin header is added by the CORS middleware.
func Preflight(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
	h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type")
	h.Set(echo.HeaderAccessControlMaxAge, "86400")
	return c.NoContent(http.StatusOK)
}

func notFound(echo.Context) error {
	return echo.NewHTTPError(http.StatusNotFound)
}
