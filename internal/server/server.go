// Package server exposes the splitting sessions over a JSON HTTP API.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dhruvm/splitchat/internal/assist"
	"github.com/dhruvm/splitchat/internal/auth"
	"github.com/dhruvm/splitchat/internal/middleware"
	"github.com/dhruvm/splitchat/internal/session"
	"github.com/dhruvm/splitchat/internal/storage"
)

// Server holds the live sessions and the collaborators they need.
type Server struct {
	router      *mux.Router
	extractor   assist.Extractor
	interpreter assist.Interpreter
	store       storage.Store
	tokens      *auth.TokenManager
	defaultTip  float64

	mu       sync.Mutex
	sessions map[string]*session.Controller
}

// New creates a server. store may be nil to run without persistence.
func New(extractor assist.Extractor, interpreter assist.Interpreter, store storage.Store, tokens *auth.TokenManager, defaultTip float64) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		extractor:   extractor,
		interpreter: interpreter,
		store:       store,
		tokens:      tokens,
		defaultTip:  defaultTip,
		sessions:    make(map[string]*session.Controller),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.handle("POST", "/api/sessions", s.handleCreateSession)
	s.handle("GET", "/api/sessions", s.handleListSessions)
	s.handle("GET", "/api/sessions/{id}", s.handleGetSession)
	s.handle("POST", "/api/sessions/{id}/commands",
		middleware.RequireSession(s.tokens, s.handleSubmitCommand))
	s.handle("PUT", "/api/sessions/{id}/tip",
		middleware.RequireSession(s.tokens, s.handleSetTip))

	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Server) handle(method, route string, h http.HandlerFunc) {
	s.router.Handle(route, middleware.Metrics(route, h)).Methods(method)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return middleware.Logging(c.Handler(s.router))
}

// getSession returns the live controller for an ID, rehydrating it from the
// store when the server has restarted since the session was created.
func (s *Server) getSession(r *http.Request) (*session.Controller, bool) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.sessions[id]; ok {
		return ctrl, true
	}
	if s.store == nil {
		return nil, false
	}

	snapshot, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		return nil, false
	}
	ctrl := session.Restore(s.extractor, s.interpreter, s.store, snapshot)
	s.sessions[id] = ctrl
	slog.Info("Session restored from storage", "session_id", id)
	return ctrl, true
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
