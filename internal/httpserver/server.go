// internal/httpserver/server.go
//
// HTTP server wiring for the Pattern Puzzle backend.
// Responsibilities:
//   - Router + middleware (request IDs, logging, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health", "/levels".
//   - Game endpoints (optional auth): /game/new and /game/{id}/*.
//   - Saved progress and theme flag: /progress.
//   - Accounts and per-player stats: /auth/*, /stats/me, /results/mine.
//   - WebSocket stream of session snapshots: /game/{id}/stream.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every request carries an identity: an account when a valid token is
//     present, otherwise an anonymous cookie id.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/patternpuzzle/internal/auth"
	"github.com/robalobadob/patternpuzzle/internal/levels"
	"github.com/robalobadob/patternpuzzle/internal/progress"
	"github.com/robalobadob/patternpuzzle/internal/store"
)

// Options are the server's dependencies.
type Options struct {
	Store        store.Store
	Progress     *progress.Store
	Auth         *auth.Service
	Levels       *levels.Catalog
	ClientOrigin string           // CORS origin; defaults to http://localhost:5173
	Now          func() time.Time // defaults to time.Now
}

// Server bundles router, session store, progress store and auth.
type Server struct {
	r        *chi.Mux
	store    store.Store
	progress *progress.Store
	auth     *auth.Service
	levels   *levels.Catalog
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		store:    opts.Store,
		progress: opts.Progress,
		auth:     opts.Auth,
		levels:   opts.Levels,
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	origin := opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)   // add X-Request-ID
	s.r.Use(chimw.RealIP)      // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)     // one log line per request
	s.r.Use(chimw.Recoverer)   // recover from panics
	s.r.Use(cors(origin))      // credentials-friendly CORS
	s.r.Use(s.auth.Optional()) // identity for every request

	// WebSocket upgrades must outlive the handler timeout below.
	s.r.Get("/game/{id}/stream", s.handleStream(origin))

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"pattern-puzzle-go","endpoints":["/health","/levels","POST /game/new","/game/{id}","/progress","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/levels", s.handleLevels)

		s.mountGame(r)
		s.mountProgress(r)
		s.mountAuth(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleLevels lists the level catalog.
func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"levels": s.levels.All()})
}

// ------------------------------- helpers ------------------------------------

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers {"error": code}.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// identity returns the caller placed in the context by auth middleware.
func identity(r *http.Request) *auth.Identity {
	if id := auth.FromContext(r.Context()); id != nil {
		return id
	}
	return &auth.Identity{}
}
