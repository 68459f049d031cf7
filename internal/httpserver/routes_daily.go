// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily puzzle.
//   - GET  /puzzle/today    → today's letters and totals (never the answers)
//   - POST /puzzle/start    → open (or resume) the caller's session
//   - POST /puzzle/guess    → submit a word; rate limited per player
//   - POST /puzzle/complete → end the session (idempotent)
//   - GET  /puzzle/session  → the caller's current session
//   - GET  /leaderboard     → ranked best scores for today (or ?date=)
//
// Sessions live in the in-process registry and are written through to the
// store after every change, so a restart resumes them. Accepted guesses
// update the leaderboard immediately.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/leaderboard"
	"github.com/robalobadob/spellbee/internal/store"
)

var guessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "spellbee_guesses_total",
	Help: "Guesses by outcome: accepted or the rejection reason",
}, []string{"outcome"})

// mountPuzzle registers the puzzle and leaderboard routes.
func (s *Server) mountPuzzle(r chi.Router) {
	r.Route("/puzzle", func(r chi.Router) {
		r.Get("/today", s.handleToday)
		r.Post("/start", s.handleStart)
		r.With(s.rateLimit).Post("/guess", s.handleGuess)
		r.Post("/complete", s.handleComplete)
		r.Get("/session", s.handleSession)
	})
	r.Get("/leaderboard", s.handleLeaderboard)
}

// -----------------------------------------------------------------------------
// views

// puzzleView is the public face of a puzzle: letters and totals only.
type puzzleView struct {
	ID           string       `json:"id"`
	Date         string       `json:"date"`
	Center       string       `json:"center"`
	Outer        []string     `json:"outer"`
	TotalWords   int          `json:"totalWords"`
	PangramCount int          `json:"pangramCount"`
	MaxScore     int          `json:"maxScore"`
	MinLength    int          `json:"minLength"`
	Ranks        []rankView   `json:"ranks"`
	NextReset    *time.Time   `json:"nextReset,omitempty"`
	Scoring      game.Scoring `json:"scoring"`
}

type rankView struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

func (s *Server) viewPuzzle(p *game.Puzzle) puzzleView {
	th := s.ranks.Thresholds(p.MaxScore)
	ranks := make([]rankView, len(s.ranks))
	for i, rk := range s.ranks {
		ranks[i] = rankView{Name: rk.Name, Threshold: th[i]}
	}
	return puzzleView{
		ID:           p.ID,
		Date:         p.Seed,
		Center:       p.Center,
		Outer:        p.Outer,
		TotalWords:   len(p.ValidWords),
		PangramCount: len(p.Pangrams),
		MaxScore:     p.MaxScore,
		MinLength:    p.Scoring.MinLength,
		Ranks:        ranks,
		Scoring:      p.Scoring,
	}
}

// sessionView is a session snapshot with the player's rank.
type sessionView struct {
	game.SessionState
	Rank game.Level `json:"rank"`
}

func (s *Server) viewSession(p *game.Puzzle, st game.SessionState) sessionView {
	return sessionView{SessionState: st, Rank: s.ranks.For(st.Score, p.MaxScore)}
}

// -----------------------------------------------------------------------------
// session plumbing

// session finds the caller's session for p: live registry first, then the
// store. With create set, a missing session is started and persisted.
func (s *Server) session(ctx context.Context, p *game.Puzzle, uid string, create bool) (*game.Session, bool, error) {
	if sess, ok := s.sessions.Get(p.ID, uid); ok {
		return sess, false, nil
	}
	st, err := s.store.GetSession(ctx, p.ID, uid)
	switch {
	case err == nil:
		sess, err := s.sessions.Restore(p, st)
		return sess, false, err
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	case !create:
		return nil, false, err
	}
	sess, created := s.sessions.Open(p, uid)
	if created {
		s.persist(ctx, sess.Snapshot())
	}
	return sess, created, nil
}

// persist writes a snapshot through to the store. Failures are logged: the
// live registry stays authoritative for this process.
func (s *Server) persist(ctx context.Context, st game.SessionState) {
	if err := s.store.PutSession(ctx, st); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session", st.ID).Msg("persist session")
	}
}

// record pushes a score to the board and, when it improved, to the store.
func (s *Server) record(ctx context.Context, puzzleID, uid string, score int) {
	s.hydrate(ctx, puzzleID)
	e, changed := s.board.Record(puzzleID, uid, score)
	if !changed {
		return
	}
	if err := s.store.RecordScore(ctx, e); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("puzzle", puzzleID).Msg("persist leaderboard entry")
	}
}

// hydrate loads a puzzle's persisted leaderboard into the board once.
func (s *Server) hydrate(ctx context.Context, puzzleID string) {
	v, _ := s.hydrated.LoadOrStore(puzzleID, &sync.Once{})
	v.(*sync.Once).Do(func() {
		entries, err := s.store.Entries(ctx, puzzleID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("puzzle", puzzleID).Msg("load leaderboard")
			s.hydrated.Delete(puzzleID)
			return
		}
		s.board.Load(entries)
	})
}

// -----------------------------------------------------------------------------
// handlers

// handleToday returns today's puzzle letters and totals.
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	p, err := s.puzzles.Today(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	v := s.viewPuzzle(p)
	next := s.puzzles.NextReset()
	v.NextReset = &next
	writeJSON(w, http.StatusOK, v)
}

// startRes is returned by /puzzle/start.
type startRes struct {
	Puzzle  puzzleView  `json:"puzzle"`
	Session sessionView `json:"session"`
	Created bool        `json:"created"`
}

// handleStart opens the caller's session for today, resuming if one exists.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p, err := s.puzzles.Today(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	sess, created, err := s.session(r.Context(), p, uid, true)
	if err != nil {
		fail(w, r, err)
		return
	}
	if created {
		hlog.FromRequest(r).Info().Str("user", uid).Str("puzzle", p.ID).Msg("session started")
	}
	writeJSON(w, http.StatusOK, startRes{
		Puzzle:  s.viewPuzzle(p),
		Session: s.viewSession(p, sess.Snapshot()),
		Created: created,
	})
}

// guessReq is the request payload for /puzzle/guess.
type guessReq struct {
	Word string `json:"word"`
}

// guessRes is the response payload for /puzzle/guess. Rejections are 200s
// with accepted=false and a reason.
type guessRes struct {
	game.Result
	Message string     `json:"message"`
	Score   int        `json:"score"`
	Found   int        `json:"found"`
	Rank    game.Level `json:"rank"`
}

// handleGuess validates and applies one word for today's session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Word == "" {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	uid := s.playerID(w, r)
	p, err := s.puzzles.Today(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	sess, _, err := s.session(r.Context(), p, uid, false)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	res, err := sess.SubmitGuess(req.Word)
	if err != nil {
		fail(w, r, err)
		return
	}
	outcome := "accepted"
	if !res.Accepted {
		outcome = string(res.Reason)
	}
	guessesTotal.WithLabelValues(outcome).Inc()

	st := sess.Snapshot()
	if res.Accepted {
		s.persist(r.Context(), st)
		s.record(r.Context(), p.ID, uid, st.Score)
	}
	writeJSON(w, http.StatusOK, guessRes{
		Result:  res,
		Message: res.Message(p),
		Score:   st.Score,
		Found:   len(st.FoundWords),
		Rank:    s.ranks.For(st.Score, p.MaxScore),
	})
}

// handleComplete ends today's session. Completing twice is not an error.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.knownPlayer(r)
	if !ok {
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	p, err := s.puzzles.Today(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	sess, _, err := s.session(r.Context(), p, uid, false)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	st := sess.Snapshot()
	if sess.Complete() {
		st = sess.Snapshot()
		s.persist(r.Context(), st)
		if len(st.FoundWords) > 0 {
			s.record(r.Context(), p.ID, uid, st.Score)
		}
		hlog.FromRequest(r).Info().Str("user", uid).Int("score", st.Score).Msg("session completed")
	}
	writeJSON(w, http.StatusOK, s.viewSession(p, st))
}

// handleSession returns the caller's session for today.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.knownPlayer(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no_session")
		return
	}
	p, err := s.puzzles.Today(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	sess, _, err := s.session(r.Context(), p, uid, false)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no_session")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewSession(p, sess.Snapshot()))
}

// lbRes is returned by /leaderboard.
type lbRes struct {
	Date     string              `json:"date"`
	PuzzleID string              `json:"puzzleId"`
	MaxScore int                 `json:"maxScore"`
	Top      []leaderboard.Entry `json:"top"`
	Me       *leaderboard.Entry  `json:"me,omitempty"`
}

// handleLeaderboard returns the ranked board for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.LeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = min(n, s.opts.LeaderboardLimit)
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.puzzles.TodayKey()
	}
	p, err := s.puzzles.ForDate(r.Context(), date)
	if err != nil {
		fail(w, r, err)
		return
	}

	s.hydrate(r.Context(), p.ID)
	res := lbRes{Date: date, PuzzleID: p.ID, MaxScore: p.MaxScore, Top: s.board.Top(p.ID, limit)}
	if uid, ok := s.knownPlayer(r); ok {
		if e, ok := s.board.Position(p.ID, uid); ok {
			res.Me = &e
		}
	}
	writeJSON(w, http.StatusOK, res)
}
