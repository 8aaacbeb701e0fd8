// internal/game/types.go
//
// Core type definitions for a pattern puzzle session.
// Defines:
//   - Phase: where the session is in the watch/select/feedback cycle.
//   - Game: state for a single player's session.
//   - Snapshot: the read-only view sent to clients.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/patternpuzzle/internal/levels"
	"github.com/robalobadob/patternpuzzle/internal/pattern"
)

// Phase is one step of the round cycle.
type Phase string

const (
	PhaseWatching  Phase = "watching"  // pattern is flashing, input disabled
	PhaseSelecting Phase = "selecting" // player toggles cells against the clock
	PhaseFeedback  Phase = "feedback"  // result shown until the player advances
)

// Round timing.
const (
	FlashCount     = 10
	FlashInterval  = time.Second
	FlashBlank     = 100 * time.Millisecond // grid goes dark at the start of each flash
	WatchDuration  = FlashCount * FlashInterval
	SelectDuration = 30 * time.Second
)

var (
	ErrWrongPhase     = errors.New("action not allowed in this phase")
	ErrBadIndex       = errors.New("cell index out of range")
	ErrEmptySelection = errors.New("nothing selected")
)

// Game holds the state of one session.
type Game struct {
	ID            string            // Unique game identifier (random hex string).
	Owner         string            // Player id (account or anonymous cookie).
	Level         int               // Current level id.
	Score         int               // Running total.
	Rounds        int               // Submissions so far.
	Phase         Phase             // Current phase.
	Pattern       pattern.Pattern   // Pattern for the current level.
	Selection     pattern.Selection // Cells marked by the player.
	PhaseStart    time.Time         // When the current phase began.
	Deadline      time.Time         // When watching/selecting times out; zero in feedback.
	Last          *pattern.Result   // Result of the latest submission.
	AutoSubmitted bool              // Latest submission came from the select timeout.
	LastSeen      time.Time         // Last time a client touched the session.

	catalog *levels.Catalog
}

// Snapshot is the client-facing view of a Game at an instant.
type Snapshot struct {
	GameID        string            `json:"gameId"`
	Level         levels.Level      `json:"level"`
	LevelCount    int               `json:"levelCount"`
	Score         int               `json:"score"`
	Rounds        int               `json:"rounds"`
	Phase         Phase             `json:"phase"`
	TimeLeft      int               `json:"timeLeft"` // whole seconds until the phase times out
	Flash         int               `json:"flash"`    // flashes shown so far while watching
	Flashing      pattern.Pattern   `json:"flashing"` // cells lit right now
	Selection     pattern.Selection `json:"selection"`
	Pattern       *pattern.Pattern  `json:"pattern,omitempty"` // revealed in feedback
	Result        *pattern.Result   `json:"result,omitempty"`  // latest submission, in feedback
	AutoSubmitted bool              `json:"autoSubmitted,omitempty"`
}
