// Package handler contains the Echo handlers for the proxy and static routes.
package handler

import (
	"log/slog"
	"regexp"

	"github.com/labstack/echo/v4"

	"design-proxy-go/internal/model"
)

// secretParamPattern matches credential query parameter values in URLs
// embedded in error messages (Gemini key=, Unsplash client_id=, Giphy api_key=).
var secretParamPattern = regexp.MustCompile(`(?i)\b(key=|api_key=|client_id=)[^&\s"]+`)

// geminiError writes the error envelope used by the generate/describe/legacy
// route family: {"error":{"message":"..."}}.
//
// The search routes use a flat {"error":"..."} envelope instead. The two
// shapes are deliberately kept different: the deployed front-end parses each
// family's shape and byte-compatibility wins over tidiness.
func geminiError(c echo.Context, status int, message string) error {
	closeAfter(c)
	return c.JSON(status, map[string]map[string]string{
		"error": {"message": message},
	})
}

// searchError writes the flat error envelope used by the search route family.
func searchError(c echo.Context, status int, message string) error {
	closeAfter(c)
	return c.JSON(status, map[string]string{
		"error": message,
	})
}

// relay writes the buffered upstream response back to the client: exact
// status code, upstream content type (JSON when absent) and body bytes.
// A failed write means the client went away mid-response; that is logged at
// low severity and never surfaced as a handler error.
func relay(c echo.Context, logger *slog.Logger, resp *model.UpstreamResponse) error {
	closeAfter(c)
	c.Response().Header().Set(echo.HeaderContentType, resp.ContentType())
	c.Response().WriteHeader(resp.StatusCode)

	if _, err := c.Response().Write(resp.Body); err != nil {
		logger.Info("client disconnected before response sent",
			"status", resp.StatusCode,
			"path", c.Request().URL.Path,
		)
	}

	return nil
}

// closeAfter marks the client connection for close once the response is
// written. No proxied route holds a persistent client connection.
func closeAfter(c echo.Context) {
	c.Response().Header().Set("Connection", "close")
}

// sanitizeError redacts credential query parameters from error messages that
// may embed upstream URLs, so secrets never reach logs or client responses.
func sanitizeError(err error) string {
	return secretParamPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
