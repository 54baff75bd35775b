package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sysrecv/db"
	"sysrecv/server/handlers"
	"time"

	"github.com/klauspost/compress/gzhttp"
)

type Server struct {
	port        string
	store       db.Store
	diagnostics handlers.SnapshotProvider
	server      *http.Server
	listener    net.Listener
}

// NewServer creates the retrieval API server. diagnostics may be nil when
// this process does not ingest.
func NewServer(port string, store db.Store, diagnostics handlers.SnapshotProvider) *Server {
	s := &Server{
		port:        port,
		store:       store,
		diagnostics: diagnostics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", handlers.HealthHandler)
	mux.HandleFunc("/api/logs", handlers.LogsHandler(s.store))
	mux.HandleFunc("/api/hostnames", handlers.DistinctValuesHandler(s.store, db.FieldHostname))
	mux.HandleFunc("/api/appnames", handlers.DistinctValuesHandler(s.store, db.FieldAppName))
	mux.HandleFunc("/api/stats", handlers.StatsHandler(s.store))
	if s.diagnostics != nil {
		mux.HandleFunc("/api/diagnostics", handlers.DiagnosticsHandler(s.diagnostics))
	}

	s.server = &http.Server{
		Addr:              ":" + s.port,
		Handler:           gzhttp.GzipHandler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the routed, compressing handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Listen binds the API port. Port "0" picks a free one, see Addr.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	log.Printf("HTTP server is running on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve handles requests on the bound port until Shutdown is called, which
// makes it return nil.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("http server is not bound")
	}
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start binds and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting requests and waits for active ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
