// internal/httpserver/routes_game.go
//
// HTTP routes for playing a session:
//   - POST /game/new          → start a session at the player's saved level/score
//   - GET  /game/{id}         → current snapshot (applies elapsed timeouts)
//   - POST /game/{id}/toggle  → flip one cell while selecting
//   - POST /game/{id}/submit  → score the selection
//   - POST /game/{id}/next    → leave feedback and start the next level
//   - POST /game/{id}/restart → back to level 1 with score 0
//
// Sessions live in memory. Scored submissions and level changes are written
// to the progress store after the session lock is released; failures there
// are logged and do not fail the request.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/patternpuzzle/internal/auth"
	"github.com/robalobadob/patternpuzzle/internal/game"
	"github.com/robalobadob/patternpuzzle/internal/pattern"
	"github.com/robalobadob/patternpuzzle/internal/progress"
	"github.com/robalobadob/patternpuzzle/internal/store"
)

// gameRes is the response for every game endpoint.
type gameRes struct {
	game.Snapshot
	Wrapped bool `json:"wrapped,omitempty"` // set by /next after the last level
}

// toggleReq is the request payload for /game/{id}/toggle.
type toggleReq struct {
	Index *int `json:"index"`
}

// mountGame registers the game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Post("/toggle", s.handleToggle)
		r.Post("/submit", s.handleSubmit)
		r.Post("/next", s.handleNext)
		r.Post("/restart", s.handleRestart)
	})
}

// handleNewGame starts a session for the caller, resuming saved progress.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	me := identity(r)
	st, err := s.progress.Load(r.Context(), me.PlayerID())
	if err != nil {
		log.Warn().Err(err).Str("player", me.PlayerID()).Msg("load progress")
		st = progress.Defaults()
	}
	now := s.now()
	g, err := game.New(s.levels, me.PlayerID(), st.Level, st.Score, now)
	if err != nil {
		log.Error().Err(err).Msg("new game")
		writeError(w, http.StatusInternalServerError, "new_game_failed")
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Debug().Str("gameId", g.ID).Str("player", me.PlayerID()).Int("level", g.Level).Msg("game started")
	writeJSON(w, http.StatusOK, gameRes{Snapshot: g.Snapshot(now)})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.serveGame(w, r, nil)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.serveGame(w, r, func(g *game.Game, now time.Time, c *change) error {
		return g.Toggle(now, *req.Index)
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.serveGame(w, r, func(g *game.Game, now time.Time, c *change) error {
		res, err := g.Submit(now)
		if err != nil {
			return err
		}
		c.scored(g, res, false, now)
		return nil
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.serveGame(w, r, func(g *game.Game, now time.Time, c *change) error {
		wrapped, err := g.Next(now)
		if err != nil {
			return err
		}
		c.wrapped = wrapped
		c.save = true
		return nil
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.serveGame(w, r, func(g *game.Game, now time.Time, c *change) error {
		if err := g.Restart(now); err != nil {
			return err
		}
		c.clear = true
		return nil
	})
}

// serveGame runs op (if any) against the caller's session and writes the snapshot.
func (s *Server) serveGame(w http.ResponseWriter, r *http.Request, op gameOp) {
	snap, c, err := s.withGame(r.Context(), chi.URLParam(r, "id"), identity(r), op)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameRes{Snapshot: snap, Wrapped: c.wrapped})
}

// gameOp mutates a session; c collects what must be persisted afterwards.
type gameOp func(g *game.Game, now time.Time, c *change) error

// change records the persistence work produced while the session was locked.
type change struct {
	player  string
	level   int
	score   int
	results []progress.Result
	save    bool // write level/score
	clear   bool // forget saved level/score
	wrapped bool
}

func (c *change) scored(g *game.Game, res pattern.Result, auto bool, at time.Time) {
	c.results = append(c.results, progress.Result{
		PlayerID:      c.player,
		GameID:        g.ID,
		Level:         g.Level,
		Correct:       res.Correct,
		Incorrect:     res.Incorrect,
		Missed:        res.Missed,
		Accuracy:      res.Accuracy,
		Points:        res.Points,
		AutoSubmitted: auto,
		CreatedAt:     at,
	})
	c.save = true
}

// withGame locks the session, applies elapsed timeouts, runs op and returns
// the resulting snapshot. Sessions owned by someone else are reported as
// missing.
func (s *Server) withGame(ctx context.Context, id string, me *auth.Identity, op gameOp) (game.Snapshot, *change, error) {
	now := s.now()
	c := &change{player: me.PlayerID()}
	var snap game.Snapshot
	err := s.store.Update(ctx, id, func(g *game.Game) error {
		if !owns(g, me) {
			return store.ErrNotFound
		}
		g.LastSeen = now
		if res := g.Advance(now); res != nil {
			c.scored(g, *res, true, g.PhaseStart)
		}
		var opErr error
		if op != nil {
			opErr = op(g, now, c)
		}
		c.level, c.score = g.Level, g.Score
		snap = g.Snapshot(now)
		return opErr
	})
	if errors.Is(err, store.ErrNotFound) {
		return snap, c, err
	}
	// Timeouts applied before a rejected op still need saving.
	s.persist(ctx, c)
	return snap, c, err
}

// owns reports whether the caller started the session, either under their
// account or under the guest id they had before logging in.
func owns(g *game.Game, me *auth.Identity) bool {
	if g.Owner == me.PlayerID() {
		return true
	}
	return me.AnonID != "" && g.Owner == me.AnonID
}

// persist writes results and saved progress; errors are logged only.
func (s *Server) persist(ctx context.Context, c *change) {
	for _, res := range c.results {
		if err := s.progress.RecordResult(ctx, res); err != nil {
			log.Warn().Err(err).Str("player", c.player).Str("gameId", res.GameID).Msg("record result")
		}
	}
	switch {
	case c.clear:
		if err := s.progress.Clear(ctx, c.player); err != nil {
			log.Warn().Err(err).Str("player", c.player).Msg("clear progress")
		}
	case c.save:
		if err := s.progress.SaveGame(ctx, c.player, c.level, c.score); err != nil {
			log.Warn().Err(err).Str("player", c.player).Msg("save progress")
		}
	}
}

// writeGameError maps engine and store errors to HTTP responses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrWrongPhase):
		writeError(w, http.StatusConflict, "wrong_phase")
	case errors.Is(err, game.ErrBadIndex):
		writeError(w, http.StatusBadRequest, "bad_index")
	case errors.Is(err, game.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, "empty_selection")
	default:
		log.Error().Err(err).Msg("game op")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
