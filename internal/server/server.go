// Package server provides the HTTP front end for the piano games: a small JSON
// API over the store and the MIDI library, a websocket feed of live game state
// and an optional MJPEG camera preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/server/api"
	"github.com/ayusman/pianogames/internal/store"
)

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Every dependency is optional; the
// routes that need a missing one are not registered.
type Config struct {
	StaticDir      string
	AllowedOrigins []string
	Store          *store.Store
	Library        *catalog.Library
	Camera         FrameSource
	Hub            *Hub
	Logger         *zap.Logger
}

// Server is the HTTP server of the piano games.
type Server struct {
	config  Config
	router  *mux.Router
	handler http.Handler
	log     *zap.Logger
	start   time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter().StrictSlash(true),
		log:    logging.OrNop(config.Logger),
		start:  time.Now(),
	}
	s.setupRoutes()

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)
	return s
}

func (s *Server) setupRoutes() {
	r := s.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/games", api.ListGames).Methods(http.MethodGet)

	if s.config.Store != nil {
		h := api.NewStoreHandler(s.config.Store)
		r.HandleFunc("/composers", h.ListComposers).Methods(http.MethodGet)
		r.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)
		r.HandleFunc("/settings/{game}", h.GetSettings).Methods(http.MethodGet)
		r.HandleFunc("/settings/{game}", h.PutSettings).Methods(http.MethodPut)
	}

	if s.config.Library != nil {
		h := api.NewLibraryHandler(*s.config.Library)
		r.HandleFunc("/midi-files", h.ListFiles).Methods(http.MethodGet)
		r.HandleFunc("/midi-file/{key}/{file}", h.ServeFile).Methods(http.MethodGet)
	}

	if s.config.Hub != nil {
		r.Handle("/live", s.config.Hub).Methods(http.MethodGet)
	}

	if s.config.Camera != nil {
		r.Handle("/stream", NewStreamHandler(s.config.Camera, s.log)).Methods(http.MethodGet)
	}

	if s.config.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir))).Methods(http.MethodGet)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Hub != nil {
		response["live_clients"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
