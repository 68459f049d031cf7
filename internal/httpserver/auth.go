// internal/httpserver/auth.go
//
// Player identity.
//   - A valid HS256 JWT (Authorization: Bearer or the auth cookie) names the
//     player via its "id" claim, falling back to "sub".
//   - Otherwise the player is a guest keyed by an anonymous cookie, issued on
//     the first write request.
// Tokens are minted by the account service; this server only verifies them.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// authUser is placed into request context by withOptionalAuth.
type authUser struct {
	ID       string
	Username string
}

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me := s.parseToken(s.bearerOrCookie(r)); me != nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) parseToken(tok string) *authUser {
	if tok == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil
	}
	id, _ := claims["id"].(string)
	if id == "" {
		id, _ = claims["sub"].(string)
	}
	if id == "" {
		return nil
	}
	username, _ := claims["username"].(string)
	return &authUser{ID: id, Username: username}
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// knownPlayer returns the caller's id without issuing a cookie.
func (s *Server) knownPlayer(r *http.Request) (string, bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	if c, err := r.Cookie(s.opts.AnonCookieName); err == nil && c.Value != "" {
		return "anon:" + c.Value, true
	}
	return "", false
}

// playerID returns the caller's id, issuing an anonymous cookie if needed.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.knownPlayer(r); ok {
		return id
	}
	return "anon:" + s.ensureAnonID(w, r)
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.opts.AnonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.AnonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}
