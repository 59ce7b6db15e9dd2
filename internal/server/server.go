// Package server exposes the mini-app HTTP API: reference data for
// the web form and a submit endpoint that lands in the same Reports
// sheet the bot writes to.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/utkabotron/vibe/internal/cache"
	"github.com/utkabotron/vibe/internal/config"
	"github.com/utkabotron/vibe/internal/report"
)

// Server is the mini-app HTTP server.
type Server struct {
	router   *gin.Engine
	handlers *Handlers
}

// NewServer builds the router over the shared cache and submitter.
func NewServer(cfg *config.AppConfig, refs *cache.Cache, reports *report.Submitter, notifier Notifier) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.Default(),
		handlers: NewHandlers(refs, reports, notifier, cfg.Telegram.Token),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Telegram-Init-Data")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api/miniapp")
	api.Use(s.handlers.RequireInitData())
	{
		api.POST("/init", s.handlers.Init)
		api.GET("/sync", s.handlers.Sync)
		api.POST("/submit", s.handlers.Submit)
	}
}

// Run starts the server on the configured port.
func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}
