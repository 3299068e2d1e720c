// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the letter-tiles backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Word lookup service: GET /api/words/{letters}?dict=
//   - Tile session API: /session/* (session cookie, one controller per browser).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the session cookie works).
//   - The session API reaches the lookup service through its HTTP contract,
//     which may be this same process or a remote one (LOOKUP_URL).

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/store"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/tiles"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/words"
)

// WordIndex is the storage the lookup service searches.
type WordIndex interface {
	Find(ctx context.Context, sources []string, letters string, limit int) ([]string, error)
	Dictionaries(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Options carries the tunables of the server.
type Options struct {
	ClientOrigin       string
	SessionSecret      string
	SecureCookies      bool
	LookupTimeout      time.Duration
	CombinationTimeout time.Duration
	CombinationDepth   int
}

// Server bundles router, session registry, word index and lookup client.
type Server struct {
	r        *chi.Mux
	opts     Options
	sessions store.Store
	index    WordIndex
	lookuper tiles.Lookuper
	flight   singleflight.Group
	combos   words.CombinationOptions
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options, sessions store.Store, index WordIndex, lookuper tiles.Lookuper) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		opts:     opts,
		sessions: sessions,
		index:    index,
		lookuper: lookuper,
		combos: words.CombinationOptions{
			MaxDepth: opts.CombinationDepth,
			Timeout:  opts.CombinationTimeout,
		},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped zerolog logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(15 * time.Second)) // bound handler time
	s.r.Use(corsFor(opts.ClientOrigin))      // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"lettertiles-go","endpoints":["/health","/metrics","GET /api/words/{letters}","/session/*"]}`))
		})
		r.Get("/health", s.handleHealth)
	})
	s.r.Handle("/metrics", promhttp.Handler())

	s.r.With(jsonContentType).Get("/api/words/{letters}", s.handleWords)
	s.mountSession(s.r.With(jsonContentType))

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router (useful for tests and http.Server).
func (s *Server) Handler() http.Handler { return s.r }

// handleHealth reports whether the word index is reachable and seeded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database unreachable"})
		return
	}
	dicts, err := s.index.Dictionaries(r.Context())
	if err != nil || len(dicts) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "no dictionaries loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "dictionaries": dicts, "sessions": s.sessions.Len()})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one zerolog line per request with status and duration.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
