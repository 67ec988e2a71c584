// Package mcp exposes the planvault operations as Model Context Protocol
// tools over streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	pvotel "github.com/planvault/planvault/internal/adapter/otel"
	"github.com/planvault/planvault/internal/dispatch"
	"github.com/planvault/planvault/internal/port/database"
)

// ServerConfig holds the MCP server's identity and listen address.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
}

// ServerDeps are the collaborators the server hands requests to.
type ServerDeps struct {
	Dispatcher *dispatch.Dispatcher
	Store      database.Store
	Identities *IdentityResolver
	Logger     *slog.Logger
}

// Server hosts the MCP tool surface plus health endpoints.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
	tools     map[string]mcpserver.ServerTool
}

// NewServer creates the server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
		tools: make(map[string]mcpserver.ServerTool),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying protocol server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Tools returns the registered tools by name.
func (s *Server) Tools() map[string]mcpserver.ServerTool {
	return s.tools
}

// addTools registers tools on the protocol server and tracks them by name.
func (s *Server) addTools(tools ...mcpserver.ServerTool) {
	s.mcpServer.AddTools(tools...)
	for _, t := range tools {
		s.tools[t.Tool.Name] = t
	}
}

// Handler returns the HTTP handler: the streamable MCP endpoint behind
// identity resolution, plus health probes.
func (s *Server) Handler() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithHTTPContextFunc(s.deps.Identities.HTTPContextFunc()),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(pvotel.HTTPMiddleware(s.cfg.Name))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", s.handleReady)

	r.Handle("/mcp", s.deps.Identities.Middleware(streamable))
	r.Handle("/mcp/*", s.deps.Identities.Middleware(streamable))

	return r
}

// handleReady reports ready only when the store answers a ping. A check
// that cannot fail tells the orchestrator nothing.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.deps.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable","reason":"store not configured"}`))
		return
	}
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.deps.Logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// Start serves until Stop is called or the listener fails. A graceful
// shutdown is not an error.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.deps.Logger.Info("mcp server listening", "addr", s.cfg.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// toolResultJSON wraps a JSON payload as a text tool result.
func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}
