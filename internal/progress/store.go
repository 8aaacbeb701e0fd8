// internal/progress/store.go
//
// Per-player saved state, backed by SQLite.
//
// The browser client used to keep two local-storage keys; the same keys and
// JSON values now live in the player_state table, one row per (player, key):
//   - patternPuzzle-gameState: {"currentLevel":n,"score":n,"timestamp":ms}
//   - patternPuzzle-darkMode:  true | false
//
// Malformed or missing values fall back to defaults (level 1, score 0,
// light theme). Submissions are appended to the results table.

package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	KeyGameState = "patternPuzzle-gameState"
	KeyDarkMode  = "patternPuzzle-darkMode"
)

// State is a player's saved level, score and theme.
type State struct {
	Level    int       `json:"currentLevel"`
	Score    int       `json:"score"`
	DarkMode bool      `json:"darkMode"`
	SavedAt  time.Time `json:"savedAt,omitempty"`
}

// Defaults is the state of a player with nothing saved.
func Defaults() State { return State{Level: 1} }

type gameState struct {
	CurrentLevel int   `json:"currentLevel"`
	Score        int   `json:"score"`
	Timestamp    int64 `json:"timestamp"`
}

// Store reads and writes player state.
type Store struct {
	db         *sql.DB
	levelCount int
	now        func() time.Time
}

// NewStore returns a Store; saved levels above levelCount are treated as malformed.
func NewStore(db *sql.DB, levelCount int) *Store {
	return &Store{db: db, levelCount: levelCount, now: time.Now}
}

// Load returns the player's saved state. Only database errors are returned;
// unreadable values are logged and replaced by defaults.
func (s *Store) Load(ctx context.Context, playerID string) (State, error) {
	st := Defaults()
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM player_state WHERE player_id=?`, playerID)
	if err != nil {
		return st, fmt.Errorf("load player state: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return st, err
		}
		switch key {
		case KeyGameState:
			var gs gameState
			if err := json.Unmarshal([]byte(value), &gs); err != nil {
				log.Warn().Err(err).Str("player", playerID).Msg("malformed game state, using defaults")
				continue
			}
			if gs.CurrentLevel >= 1 && gs.CurrentLevel <= s.levelCount {
				st.Level = gs.CurrentLevel
			}
			if gs.Score > 0 {
				st.Score = gs.Score
			}
			if gs.Timestamp > 0 {
				st.SavedAt = time.UnixMilli(gs.Timestamp).UTC()
			}
		case KeyDarkMode:
			var dark bool
			if err := json.Unmarshal([]byte(value), &dark); err != nil {
				log.Warn().Err(err).Str("player", playerID).Msg("malformed theme flag, using default")
				continue
			}
			st.DarkMode = dark
		}
	}
	return st, rows.Err()
}

func (s *Store) put(ctx context.Context, playerID, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO player_state (player_id, key, value, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (player_id, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		playerID, key, string(b), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SaveGame stores the player's current level and score.
func (s *Store) SaveGame(ctx context.Context, playerID string, level, score int) error {
	return s.put(ctx, playerID, KeyGameState, gameState{
		CurrentLevel: level,
		Score:        score,
		Timestamp:    s.now().UnixMilli(),
	})
}

// SetDarkMode stores the theme flag.
func (s *Store) SetDarkMode(ctx context.Context, playerID string, on bool) error {
	return s.put(ctx, playerID, KeyDarkMode, on)
}

// Clear forgets saved level and score. The theme flag is kept.
func (s *Store) Clear(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM player_state WHERE player_id=? AND key=?`, playerID, KeyGameState)
	return err
}

// Claim moves a guest's state and results to an account.
// Keys the account already has are not overwritten.
func (s *Store) Claim(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" || anonID == userID {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE player_state SET player_id=? WHERE player_id=?`, userID, anonID); err != nil {
		return fmt.Errorf("claim state: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM player_state WHERE player_id=?`, anonID); err != nil {
		return fmt.Errorf("drop leftover state: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE results SET player_id=? WHERE player_id=?`, userID, anonID); err != nil {
		return fmt.Errorf("claim results: %w", err)
	}
	return tx.Commit()
}
