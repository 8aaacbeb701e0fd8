package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const anonCookieName = "pattern_anon"

// Identity is the caller of a request. UserID is empty for guests.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	AnonID   string `json:"-"`
}

// PlayerID is the key progress is stored under.
func (i *Identity) PlayerID() string {
	if i.UserID != "" {
		return i.UserID
	}
	return i.AnonID
}

type ctxKey struct{}

// FromContext returns the identity placed by Optional or Require.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

func (s *Service) sameSite() http.SameSite {
	if s.cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a token from the Authorization header or auth cookie.
func (s *Service) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ensureAnonID returns the anon cookie value, setting a new one if absent.
func (s *Service) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// identify resolves a valid token to a user that still exists.
func (s *Service) identify(r *http.Request) *Identity {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	id, err := s.Parse(tok)
	if err != nil {
		return nil
	}
	if _, err := s.FindByID(r.Context(), id.UserID); err != nil {
		return nil
	}
	return id
}

// Optional attaches an identity to every request: the account when a valid
// token is present, otherwise a guest with an anonymous id. It never rejects.
func (s *Service) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := s.identify(r)
			if id == nil {
				id = &Identity{}
			}
			id.AnonID = s.ensureAnonID(w, r)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}

// Require rejects requests without a valid account token.
func (s *Service) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := s.identify(r)
			if id == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if c, err := r.Cookie(anonCookieName); err == nil {
				id.AnonID = c.Value
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}
