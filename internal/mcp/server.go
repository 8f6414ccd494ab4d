package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cgm-mcp/internal/config"
	"cgm-mcp/internal/eventlog"

	"github.com/gorilla/mux"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName identifies the server to MCP clients.
const ServerName = "cgm-mcp"

// Server exposes the CGM analytics as MCP tools.
type Server struct {
	cfg      *config.AppConfig
	provider *eventlog.LogProvider
	version  string
	server   *sdk.Server
}

// NewServer creates a new MCP server over the given event log provider.
func NewServer(cfg *config.AppConfig, provider *eventlog.LogProvider, version string) *Server {
	s := &Server{
		cfg:      cfg,
		provider: provider,
		version:  version,
		server:   sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: version}, nil),
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol over stdio until the client disconnects or ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("transport", "stdio").Msg("MCP server listening")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Handler returns the HTTP router: the streamable MCP endpoint on /mcp and a
// liveness probe on /healthz.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.PathPrefix("/mcp").Handler(sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.server
	}, nil))
	return r
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("transport", "http").Str("addr", addr).Msg("MCP server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"name":    ServerName,
		"version": s.version,
	})
}
