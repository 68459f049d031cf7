package httpserver

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	lim        *rate.Limiter
	lastAccess time.Time
}

// limiters hands out one token bucket per player.
type limiters struct {
	mu    sync.Mutex
	m     map[string]*limiterEntry
	rps   float64
	burst int
	now   func() time.Time
}

func newLimiters(rps float64, burst int, now func() time.Time) *limiters {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &limiters{m: make(map[string]*limiterEntry), rps: rps, burst: burst, now: now}
}

func (l *limiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.m[key]; ok {
		e.lastAccess = l.now()
		return e.lim
	}
	e := &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.rps), l.burst), lastAccess: l.now()}
	l.m[key] = e
	return e.lim
}

// sweep drops limiters untouched since cutoff.
func (l *limiters) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.m {
		if e.lastAccess.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// rateLimit rejects callers that exceed their bucket. Players are keyed by
// id when known, otherwise by remote address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := s.knownPlayer(r)
		if !ok {
			key = r.RemoteAddr
		}
		if !s.limiters.get(key).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}
