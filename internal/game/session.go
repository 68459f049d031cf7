// internal/game/session.go
//
// Player sessions.
// Responsibilities:
//   - Session: one player's attempt at one puzzle, Active → Completed.
//   - Registry: in-process index of live sessions keyed by (puzzle, user).
//
// Concurrency:
//   - Each Session owns a mutex; SubmitGuess and Complete are serialized per
//     session and never contend across sessions.
//   - The Registry lock only guards the index, never a guess.
package game

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// Session is safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	id          string
	puzzle      *Puzzle
	userID      string
	found       []string
	foundSet    map[string]struct{}
	score       int
	status      Status
	startedAt   time.Time
	completedAt *time.Time
	version     int
	now         Clock
}

// NewSession starts an Active session for userID on p.
func NewSession(p *Puzzle, userID string, now Clock) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		id:        uuid.NewString(),
		puzzle:    p,
		userID:    userID,
		foundSet:  make(map[string]struct{}),
		status:    StatusActive,
		startedAt: now().UTC(),
		now:       now,
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) UserID() string  { return s.userID }
func (s *Session) Puzzle() *Puzzle { return s.puzzle }

// SubmitGuess validates raw against the words found so far and, if accepted,
// records it and its points in one step. Rejections are returned as a Result,
// not an error; the only error is ErrSessionCompleted.
func (s *Session) SubmitGuess(raw string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return Result{}, ErrSessionCompleted
	}
	res := Validate(s.puzzle, raw, s.foundSet)
	if res.Accepted {
		s.found = append(s.found, res.Word)
		s.foundSet[res.Word] = struct{}{}
		s.score += res.ScoreDelta
		s.version++
	}
	return res, nil
}

// Complete moves the session to Completed. It reports whether the state
// changed; completing twice is a no-op.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusCompleted {
		return false
	}
	t := s.now().UTC()
	s.status = StatusCompleted
	s.completedAt = &t
	s.version++
	return true
}

// Score is the current total.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Snapshot copies the session state.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{
		ID:            s.id,
		PuzzleID:      s.puzzle.ID,
		UserID:        s.userID,
		FoundWords:    slices.Clone(s.found),
		Score:         s.score,
		Status:        s.status,
		StartedAt:     s.startedAt,
		Remaining:     len(s.puzzle.ValidWords) - len(s.found),
		PangramsFound: make([]string, 0),
		Version:       s.version,
	}
	if st.FoundWords == nil {
		st.FoundWords = make([]string, 0)
	}
	for _, w := range s.found {
		if s.puzzle.IsPangram(w) {
			st.PangramsFound = append(st.PangramsFound, w)
		}
	}
	if s.completedAt != nil {
		t := *s.completedAt
		st.CompletedAt = &t
	}
	return st
}

// Restore rebuilds a session from a stored snapshot. Found words are
// replayed through Validate so the score is recomputed from p rather than
// trusted from storage.
func Restore(p *Puzzle, st SessionState, now Clock) (*Session, error) {
	if st.PuzzleID != p.ID {
		return nil, fmt.Errorf("%w: snapshot %s is for puzzle %s, not %s", ErrPuzzleMismatch, st.ID, st.PuzzleID, p.ID)
	}
	if st.ID == "" || st.UserID == "" {
		return nil, fmt.Errorf("%w: missing id or user", ErrInvalidSnapshot)
	}
	if now == nil {
		now = time.Now
	}
	s := &Session{
		id:        st.ID,
		puzzle:    p,
		userID:    st.UserID,
		foundSet:  make(map[string]struct{}, len(st.FoundWords)),
		status:    StatusActive,
		startedAt: st.StartedAt,
		version:   st.Version,
		now:       now,
	}
	for _, w := range st.FoundWords {
		res := Validate(p, w, s.foundSet)
		if !res.Accepted {
			return nil, fmt.Errorf("%w: word %q: %s", ErrInvalidSnapshot, w, res.Reason)
		}
		s.found = append(s.found, res.Word)
		s.foundSet[res.Word] = struct{}{}
		s.score += res.ScoreDelta
	}
	switch st.Status {
	case StatusActive, "":
	case StatusCompleted:
		s.status = StatusCompleted
		t := st.StartedAt
		if st.CompletedAt != nil {
			t = *st.CompletedAt
		}
		s.completedAt = &t
	default:
		return nil, fmt.Errorf("%w: status %q", ErrInvalidSnapshot, st.Status)
	}
	return s, nil
}

type sessionKey struct {
	puzzleID string
	userID   string
}

// Registry holds at most one session per (puzzle, user).
type Registry struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
	now      Clock
}

// NewRegistry returns an empty registry.
func NewRegistry(now Clock) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{sessions: make(map[sessionKey]*Session), now: now}
}

// Create starts a new session, failing with ErrSessionExists if the user
// already has one for p.
func (r *Registry) Create(p *Puzzle, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := sessionKey{p.ID, userID}
	if _, ok := r.sessions[k]; ok {
		return nil, fmt.Errorf("%w: user %s, puzzle %s", ErrSessionExists, userID, p.ID)
	}
	s := NewSession(p, userID, r.now)
	r.sessions[k] = s
	return s, nil
}

// Open returns the user's session for p, creating it if needed. created is
// true when a new session was started.
func (r *Registry) Open(p *Puzzle, userID string) (s *Session, created bool) {
	k := sessionKey{p.ID, userID}

	r.mu.RLock()
	s, ok := r.sessions[k]
	r.mu.RUnlock()
	if ok {
		return s, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[k]; ok {
		return s, false
	}
	s = NewSession(p, userID, r.now)
	r.sessions[k] = s
	return s, true
}

// Get looks up a live session.
func (r *Registry) Get(puzzleID, userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionKey{puzzleID, userID}]
	return s, ok
}

// Restore registers a session rebuilt from st. An already-live session for
// the same key wins and is returned unchanged.
func (r *Registry) Restore(p *Puzzle, st SessionState) (*Session, error) {
	k := sessionKey{p.ID, st.UserID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[k]; ok {
		return s, nil
	}
	s, err := Restore(p, st, r.now)
	if err != nil {
		return nil, err
	}
	r.sessions[k] = s
	return s, nil
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops every session not on keepPuzzleID and returns how many went.
func (r *Registry) Prune(keepPuzzleID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k := range r.sessions {
		if k.puzzleID != keepPuzzleID {
			delete(r.sessions, k)
			n++
		}
	}
	return n
}
