package progress

import (
	"context"
	"time"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Result is one scored submission.
type Result struct {
	PlayerID      string    `json:"-"`
	GameID        string    `json:"gameId"`
	Level         int       `json:"level"`
	Correct       int       `json:"correct"`
	Incorrect     int       `json:"incorrect"`
	Missed        int       `json:"missed"`
	Accuracy      int       `json:"accuracy"`
	Points        int       `json:"points"`
	AutoSubmitted bool      `json:"autoSubmitted"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Totals aggregates a player's results.
type Totals struct {
	Rounds       int `json:"rounds"`
	Points       int `json:"points"`
	AvgAccuracy  int `json:"avgAccuracy"`
	BestAccuracy int `json:"bestAccuracy"`
	Perfect      int `json:"perfect"`
}

// RecordResult appends a submission to the player's history.
func (s *Store) RecordResult(ctx context.Context, r Result) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO results
            (player_id, game_id, level, correct, incorrect, missed, accuracy, points, auto_submitted, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PlayerID, r.GameID, r.Level, r.Correct, r.Incorrect, r.Missed,
		r.Accuracy, r.Points, r.AutoSubmitted, r.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// History returns the player's most recent results, newest first.
// Default limit is 50 if not specified.
func (s *Store) History(ctx context.Context, playerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT game_id, level, correct, incorrect, missed, accuracy, points, auto_submitted, created_at
        FROM results
        WHERE player_id=?
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		r := Result{PlayerID: playerID}
		var created string
		if err := rows.Scan(&r.GameID, &r.Level, &r.Correct, &r.Incorrect, &r.Missed,
			&r.Accuracy, &r.Points, &r.AutoSubmitted, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Totals sums up every result of the player.
func (s *Store) Totals(ctx context.Context, playerID string) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM(points), 0),
               COALESCE(CAST(ROUND(AVG(accuracy)) AS INTEGER), 0),
               COALESCE(MAX(accuracy), 0),
               COALESCE(SUM(CASE WHEN accuracy = 100 THEN 1 ELSE 0 END), 0)
        FROM results WHERE player_id=?`, playerID,
	).Scan(&t.Rounds, &t.Points, &t.AvgAccuracy, &t.BestAccuracy, &t.Perfect)
	return t, err
}
