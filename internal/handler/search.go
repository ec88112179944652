package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"design-proxy-go/internal/client"
	"design-proxy-go/internal/service"
)

// SearchHandler serves the image-search and GIF-search proxy routes.
type SearchHandler struct {
	unsplash *service.UnsplashService
	giphy    *service.GiphyService
	upstream *client.UpstreamClient
	logger   *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(unsplash *service.UnsplashService, giphy *service.GiphyService, up *client.UpstreamClient, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		unsplash: unsplash,
		giphy:    giphy,
		upstream: up,
		logger:   logger.With("component", "search_handler"),
	}
}

// Unsplash handles GET /api/unsplash: search photos when a query is given,
// popular photos otherwise.
func (h *SearchHandler) Unsplash(c echo.Context) error {
	target := h.unsplash.Build(c.QueryParams())

	resp, err := h.upstream.Do(c.Request().Context(), target)
	if err != nil {
		return h.mapError(c, err)
	}

	return relay(c, h.logger, resp)
}

// Giphy handles GET /api/giphy: search GIFs when a query is given, trending
// GIFs otherwise.
func (h *SearchHandler) Giphy(c echo.Context) error {
	target := h.giphy.Build(c.QueryParams())

	resp, err := h.upstream.Do(c.Request().Context(), target)
	if err != nil {
		return h.mapError(c, err)
	}

	return relay(c, h.logger, resp)
}

// mapError translates a transport failure into the search family's flat
// error envelope.
func (h *SearchHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", sanitizeError(err),
		"path", c.Request().URL.Path,
	)
	return searchError(c, http.StatusBadGateway, sanitizeError(err))
}
