package api

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/anycompanyretail/shopbot/pkg/session"
)

// Server is the HTTP API server for the shopbot assistant.
type Server struct {
	config   Config
	sessions *session.Manager
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates the API server. The session manager is injected so the
// serve command can share it with other components.
func NewServer(config Config, sessions *session.Manager, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		sessions: sessions,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/chat", s.handleChat)
	app.Post("/v1/chat/clear", s.handleClearChat)
	app.Get("/v1/sessions/:id/transcript", s.handleTranscript)
	app.Get("/v1/search", s.handleSearchEndpoint)

	return s
}

// MountMCP mounts an MCP handler under /mcp.
func (s *Server) MountMCP(handler http.Handler) {
	s.app.All("/mcp", adaptor.HTTPHandler(handler))
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
