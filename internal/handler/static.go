package handler

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"design-proxy-go/internal/config"
)

// StaticHandler serves the front-end files for everything the proxy routes
// don't claim.
type StaticHandler struct {
	root   string
	logger *slog.Logger
}

// NewStaticHandler creates a StaticHandler rooted at the configured directory.
func NewStaticHandler(cfg *config.Config, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{
		root:   cfg.Static.Root,
		logger: logger.With("component", "static_handler"),
	}
}

// Serve handles the GET fallback. Directories fall through to their
// index.html. Script, style and markup responses carry Cache-Control:
// no-cache so front-end edits show up on reload during development.
func (h *StaticHandler) Serve(c echo.Context) error {
	// path.Clean on a rooted path strips any ".." traversal.
	reqPath := path.Clean("/" + c.Param("*"))
	name := filepath.Join(h.root, filepath.FromSlash(reqPath))

	if info, err := os.Stat(name); err == nil && info.IsDir() {
		name = filepath.Join(name, "index.html")
	}

	switch path.Ext(reqPath) {
	case ".js", ".css", ".html":
		c.Response().Header().Set("Cache-Control", "no-cache")
	}

	return c.File(name)
}
