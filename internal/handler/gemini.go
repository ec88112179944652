package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"design-proxy-go/internal/client"
	"design-proxy-go/internal/service"
)

// GeminiHandler serves the generate-content, image-description and legacy
// passthrough proxy routes.
type GeminiHandler struct {
	service  *service.GeminiService
	upstream *client.UpstreamClient
	logger   *slog.Logger
}

// NewGeminiHandler creates a GeminiHandler.
func NewGeminiHandler(svc *service.GeminiService, up *client.UpstreamClient, logger *slog.Logger) *GeminiHandler {
	return &GeminiHandler{
		service:  svc,
		upstream: up,
		logger:   logger.With("component", "gemini_handler"),
	}
}

// Generate handles POST /api/generate: validates the JSON body, enforces the
// model allowlist and forwards to the generateContent endpoint.
func (h *GeminiHandler) Generate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.readError(c, err)
	}

	target, err := h.service.Generate(body)
	if err != nil {
		return h.mapError(c, err)
	}

	resp, err := h.upstream.Do(c.Request().Context(), target)
	if err != nil {
		return h.mapError(c, err)
	}

	return relay(c, h.logger, resp)
}

// Describe handles POST /api/describe-image: parses the imageData data URL
// and forwards a keyword-extraction call to the describe model.
func (h *GeminiHandler) Describe(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.readError(c, err)
	}

	target, err := h.service.Describe(body)
	if err != nil {
		return h.mapError(c, err)
	}

	resp, err := h.upstream.Do(c.Request().Context(), target)
	if err != nil {
		return h.mapError(c, err)
	}

	return relay(c, h.logger, resp)
}

// Legacy handles POST /api/gemini/*: raw passthrough of the path suffix and
// body, no validation.
func (h *GeminiHandler) Legacy(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.readError(c, err)
	}

	target := h.service.Legacy("/"+c.Param("*"), c.Request().URL.RawQuery, body)

	resp, err := h.upstream.Do(c.Request().Context(), target)
	if err != nil {
		return h.mapError(c, err)
	}

	return relay(c, h.logger, resp)
}

// readError handles a failed inbound body read: the client went away (or the
// body limit tripped) before the request was complete.
func (h *GeminiHandler) readError(c echo.Context, err error) error {
	h.logger.Info("reading request body",
		"err", err,
		"path", c.Request().URL.Path,
	)
	return geminiError(c, http.StatusBadRequest, "Invalid JSON body")
}

// mapError translates validation and transport failures into the route
// family's error envelope. Validation failures carry their own status; any
// transport failure is a 502 with the sanitized cause as the message.
func (h *GeminiHandler) mapError(c echo.Context, err error) error {
	var reqErr *service.RequestError
	if errors.As(err, &reqErr) {
		return geminiError(c, reqErr.Status, reqErr.Message)
	}

	h.logger.Error("proxy error",
		"err", sanitizeError(err),
		"path", c.Request().URL.Path,
	)
	return geminiError(c, http.StatusBadGateway, sanitizeError(err))
}
