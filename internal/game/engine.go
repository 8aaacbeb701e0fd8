// internal/game/engine.go
//
// Phase machine for a single pattern puzzle session.
//
//	watching --(WatchDuration)--> selecting --(SelectDuration | Submit)--> feedback --(Next)--> watching
//
// The session owns no timers. Every operation takes the current time and
// timeouts are applied lazily by Advance, so the same code serves HTTP
// polling, the WebSocket stream and tests with a fixed clock.
package game

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/robalobadob/patternpuzzle/internal/levels"
	"github.com/robalobadob/patternpuzzle/internal/pattern"
)

// New starts a session at the given level and score, in the watching phase.
func New(cat *levels.Catalog, owner string, level, score int, now time.Time) (*Game, error) {
	if !cat.Valid(level) {
		level = 1
	}
	if score < 0 {
		score = 0
	}
	g := &Game{
		ID:       randomID(),
		Owner:    owner,
		Level:    level,
		Score:    score,
		LastSeen: now,
		catalog:  cat,
	}
	if err := g.startLevel(now); err != nil {
		return nil, err
	}
	return g, nil
}

// startLevel generates the pattern and resets the round.
func (g *Game) startLevel(now time.Time) error {
	p, err := g.catalog.Pattern(g.Level)
	if err != nil {
		return err
	}
	g.Pattern = p
	g.Selection = pattern.Selection{}
	g.Phase = PhaseWatching
	g.PhaseStart = now
	g.Deadline = now.Add(WatchDuration)
	g.Last = nil
	g.AutoSubmitted = false
	return nil
}

// Advance applies any timeouts that have passed by now.
// It returns the result when the select timeout submitted on the player's
// behalf, and nil otherwise. Callers that persist results should call Advance
// before any other operation.
func (g *Game) Advance(now time.Time) *pattern.Result {
	if g.Phase == PhaseWatching && !now.Before(g.Deadline) {
		g.Phase = PhaseSelecting
		g.PhaseStart = g.Deadline
		g.Deadline = g.Deadline.Add(SelectDuration)
		g.Selection = pattern.Selection{}
	}
	if g.Phase == PhaseSelecting && !now.Before(g.Deadline) {
		res := g.finish(g.Deadline, true)
		return &res
	}
	return nil
}

// Toggle flips one cell of the selection.
func (g *Game) Toggle(now time.Time, index int) error {
	g.Advance(now)
	if g.Phase != PhaseSelecting {
		return ErrWrongPhase
	}
	if index < 0 || index >= pattern.Size {
		return ErrBadIndex
	}
	g.Selection[index] = !g.Selection[index]
	return nil
}

// Submit scores the selection and moves to feedback.
func (g *Game) Submit(now time.Time) (pattern.Result, error) {
	g.Advance(now)
	if g.Phase != PhaseSelecting {
		return pattern.Result{}, ErrWrongPhase
	}
	if !g.Selection.Any() {
		return pattern.Result{}, ErrEmptySelection
	}
	return g.finish(now, false), nil
}

func (g *Game) finish(at time.Time, auto bool) pattern.Result {
	res := pattern.Score(g.Selection, g.Pattern)
	g.Score += res.Points
	g.Rounds++
	g.Phase = PhaseFeedback
	g.PhaseStart = at
	g.Deadline = time.Time{}
	g.Last = &res
	g.AutoSubmitted = auto
	return res
}

// Next leaves feedback and starts the following level.
// wrapped is true when the last level was completed and play restarts at 1.
func (g *Game) Next(now time.Time) (wrapped bool, err error) {
	g.Advance(now)
	if g.Phase != PhaseFeedback {
		return false, ErrWrongPhase
	}
	g.Level, wrapped = g.catalog.Next(g.Level)
	return wrapped, g.startLevel(now)
}

// Restart resets level and score and starts watching level 1.
func (g *Game) Restart(now time.Time) error {
	g.Level = 1
	g.Score = 0
	g.Rounds = 0
	return g.startLevel(now)
}

// TimeLeft reports whole seconds until the current phase times out.
func (g *Game) TimeLeft(now time.Time) int {
	if g.Deadline.IsZero() || !now.Before(g.Deadline) {
		return 0
	}
	rem := g.Deadline.Sub(now)
	secs := int(rem / time.Second)
	if rem%time.Second != 0 {
		secs++
	}
	return secs
}

// flashState reports how many flashes have started and whether the
// pattern is lit at now. The grid is dark for the first interval and for
// FlashBlank at the start of every flash after it.
func (g *Game) flashState(now time.Time) (count int, lit bool) {
	if g.Phase != PhaseWatching {
		return 0, false
	}
	elapsed := now.Sub(g.PhaseStart)
	if elapsed < 0 {
		return 0, false
	}
	count = int(elapsed / FlashInterval)
	if count > FlashCount {
		count = FlashCount
	}
	lit = count >= 1 && elapsed%FlashInterval >= FlashBlank
	return count, lit
}

// Snapshot renders the session at now. It does not apply timeouts.
func (g *Game) Snapshot(now time.Time) Snapshot {
	lv, _ := g.catalog.Get(g.Level)
	s := Snapshot{
		GameID:     g.ID,
		Level:      lv,
		LevelCount: g.catalog.Count(),
		Score:      g.Score,
		Rounds:     g.Rounds,
		Phase:      g.Phase,
		TimeLeft:   g.TimeLeft(now),
		Selection:  g.Selection,
	}
	count, lit := g.flashState(now)
	s.Flash = count
	if lit {
		s.Flashing = g.Pattern
	}
	if g.Phase == PhaseFeedback {
		p := g.Pattern
		s.Pattern = &p
		if g.Last != nil {
			res := *g.Last
			s.Result = &res
		}
		s.AutoSubmitted = g.AutoSubmitted
	}
	return s
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
