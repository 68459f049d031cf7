// internal/httpserver/server.go
//
// HTTP server wiring for the puzzle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/metrics", "/debug/words".
//   - Puzzle endpoints (optional auth): mounted under /puzzle (routes_daily.go).
//   - Leaderboard endpoint: GET /leaderboard.
//   - Error mapping from domain errors to status codes.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with the player id when a valid token
//     is present; guests get an anonymous cookie instead (auth.go).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/spellbee/internal/daily"
	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/leaderboard"
	"github.com/robalobadob/spellbee/internal/store"
	"github.com/robalobadob/spellbee/internal/words"
)

// Options are the HTTP-facing settings.
type Options struct {
	ClientOrigin     string
	Production       bool
	JWTSecret        string
	CookieName       string
	AnonCookieName   string
	RateRPS          float64
	RateBurst        int
	LeaderboardLimit int
}

// Deps are the collaborators the handlers drive.
type Deps struct {
	Dict    *words.Dictionary
	Puzzles *daily.Service
	Store   store.Store
	Ranks   game.Ranks
	Now     func() time.Time
}

// Server bundles the router with the puzzle, session and leaderboard state.
type Server struct {
	r        *chi.Mux
	opts     Options
	dict     *words.Dictionary
	puzzles  *daily.Service
	store    store.Store
	ranks    game.Ranks
	sessions *game.Registry
	board    *leaderboard.Board
	limiters *limiters
	now      func() time.Time

	hydrated sync.Map // puzzleID → *sync.Once
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Ranks == nil {
		deps.Ranks = game.DefaultRanks()
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = 20
	}
	s := &Server{
		r:        chi.NewRouter(),
		opts:     opts,
		dict:     deps.Dict,
		puzzles:  deps.Puzzles,
		store:    deps.Store,
		ranks:    deps.Ranks,
		sessions: game.NewRegistry(deps.Now),
		board:    leaderboard.New(deps.Now),
		limiters: newLimiters(opts.RateRPS, opts.RateBurst, deps.Now),
		now:      deps.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped zerolog logger
	s.r.Use(accessLog)                       // one debug line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "spellbee-go",
			"endpoints": []string{
				"/health", "/metrics",
				"GET /puzzle/today", "POST /puzzle/start", "POST /puzzle/guess",
				"POST /puzzle/complete", "GET /puzzle/session", "GET /leaderboard",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.dict.Stats())
	})

	// Puzzle endpoints: OPTIONAL AUTH (guests can play)
	s.mountPuzzle(s.r.With(s.withOptionalAuth()))

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Sweep drops state that no longer serves today's puzzle and idle rate
// limiters. Sessions and leaderboard tables for other puzzles are persisted
// and reload on demand.
func (s *Server) Sweep(ctx context.Context, idle time.Duration) {
	p, err := s.puzzles.Today(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sweep: resolve today's puzzle")
		return
	}
	sessions := s.sessions.Prune(p.ID)
	cached := s.puzzles.Forget(p.Seed)
	boards := s.board.Prune(p.ID)
	s.hydrated.Range(func(k, _ any) bool {
		if k.(string) != p.ID {
			s.hydrated.Delete(k)
		}
		return true
	})
	lims := s.limiters.sweep(s.now().Add(-idle))
	if sessions+cached+boards+lims > 0 {
		log.Info().
			Int("sessions", sessions).
			Int("puzzles", cached).
			Int("boards", boards).
			Int("limiters", lims).
			Msg("swept stale state")
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("requestId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("took", d).
		Msg("request")
})

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// fail maps a domain error to a status code and a stable error string.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrSessionCompleted):
		writeError(w, http.StatusConflict, "session_completed")
	case errors.Is(err, game.ErrSessionExists):
		writeError(w, http.StatusConflict, "session_exists")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, daily.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date")
	case errors.Is(err, game.ErrGenerationExhausted):
		hlog.FromRequest(r).Error().Err(err).Msg("no puzzle available")
		writeError(w, http.StatusServiceUnavailable, "puzzle_unavailable")
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
