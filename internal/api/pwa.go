package api

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// registerPWARoutes serves the worker script and app manifest with headers that
// keep browsers from running a stale worker.
func (s *Server) registerPWARoutes() {
	s.echo.GET("/sw.js", func(c echo.Context) error {
		c.Response().Header().Set("Service-Worker-Allowed", "/")
		return s.servePWAFile(c, "sw.js")
	})
	s.echo.GET("/manifest.json", func(c echo.Context) error {
		return s.servePWAFile(c, "manifest.json")
	})
}

func (s *Server) servePWAFile(c echo.Context, name string) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.File(filepath.Join(s.opts.PublicDir, name))
}
