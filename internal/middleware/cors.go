package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// CORS returns an Echo middleware that stamps Access-Control-Allow-Origin: *
// on every /api/* response, success or error. The browser front-end may be
// served from a different origin (e.g. a bundler dev server), so the API
// surface is always cross-origin-readable.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
			}
			return next(c)
		}
	}
}
