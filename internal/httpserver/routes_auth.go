// internal/httpserver/routes_auth.go
//
// Account and per-player routes:
//   - GET    /progress        → saved level, score and theme flag
//   - PUT    /progress/theme  → {"darkMode": bool}
//   - DELETE /progress        → forget saved level/score
//   - POST   /auth/signup|login|logout, GET /auth/me
//   - GET    /stats/me, /results/mine
//
// Signup and login move the caller's guest progress onto the account.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/patternpuzzle/internal/auth"
	"github.com/robalobadob/patternpuzzle/internal/progress"
)

// credentials is the request payload for signup/login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// themeReq is the request payload for PUT /progress/theme.
type themeReq struct {
	DarkMode *bool `json:"darkMode"`
}

func (s *Server) mountProgress(r chi.Router) {
	r.Get("/progress", s.handleGetProgress)
	r.Put("/progress/theme", s.handleSetTheme)
	r.Delete("/progress", s.handleClearProgress)
	r.Get("/stats/me", s.handleStats)
	r.Get("/results/mine", s.handleResults)
}

func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.auth.Require()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, identity(r))
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	st, err := s.progress.Load(r.Context(), identity(r).PlayerID())
	if err != nil {
		log.Warn().Err(err).Msg("load progress")
		st = progress.Defaults()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DarkMode == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err := s.progress.SetDarkMode(r.Context(), identity(r).PlayerID(), *req.DarkMode); err != nil {
		log.Error().Err(err).Msg("set theme")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"darkMode": *req.DarkMode})
}

func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.progress.Clear(r.Context(), identity(r).PlayerID()); err != nil {
		log.Error().Err(err).Msg("clear progress")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := identity(r)
	tot, err := s.progress.Totals(r.Context(), me.PlayerID())
	if err != nil {
		log.Error().Err(err).Msg("totals")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player":   me.PlayerID(),
		"username": me.Username,
		"totals":   tot,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 200 {
		limit = 200
	}
	rows, err := s.progress.History(r.Context(), identity(r).PlayerID(), limit)
	if err != nil {
		log.Error().Err(err).Msg("history")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleSignup creates a user, signs a JWT, sets the auth cookie and claims guest progress.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.auth.Signup(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.signIn(w, r, u)
}

// handleLogin authenticates a user, sets the cookie and claims guest progress.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.auth.Login(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	case err != nil:
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.signIn(w, r, u)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *auth.User) {
	tok, exp, err := s.auth.Sign(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.auth.SetCookie(w, tok, exp)
	if err := s.progress.Claim(r.Context(), identity(r).AnonID, u.ID); err != nil {
		log.Warn().Err(err).Str("user", u.ID).Msg("claim guest progress")
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "token": tok})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
