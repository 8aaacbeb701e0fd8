package progress

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/patternpuzzle/assets"
	"github.com/robalobadob/patternpuzzle/internal/database"
)

func newStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fsys, err := assets.Migrations()
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, fsys))

	s := NewStore(db, 5)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s, db
}

func rawPut(t *testing.T, db *sql.DB, player, key, value string) {
	t.Helper()
	_, err := db.Exec(`INSERT OR REPLACE INTO player_state (player_id, key, value, updated_at) VALUES (?,?,?,?)`,
		player, key, value, "2024-01-01T00:00:00Z")
	require.NoError(t, err)
}

func TestLoadDefaults(t *testing.T) {
	s, _ := newStore(t)
	st, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), st)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.SaveGame(ctx, "p1", 3, 140))
	require.NoError(t, s.SetDarkMode(ctx, "p1", true))
	require.NoError(t, s.SaveGame(ctx, "p1", 4, 220))

	st, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, st.Level)
	assert.Equal(t, 220, st.Score)
	assert.True(t, st.DarkMode)
	assert.False(t, st.SavedAt.IsZero())

	other, err := s.Load(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), other)
}

func TestLoadMalformedFallsBack(t *testing.T) {
	ctx := context.Background()
	s, db := newStore(t)

	cases := []struct {
		name  string
		state string
		dark  string
		want  State
	}{
		{"garbage", `{not json`, `"yes"`, State{Level: 1}},
		{"level out of range", `{"currentLevel":9,"score":50}`, `true`, State{Level: 1, Score: 50, DarkMode: true}},
		{"zero level", `{"currentLevel":0,"score":-3}`, `false`, State{Level: 1}},
		{"wrong types", `{"currentLevel":"two"}`, `1`, State{Level: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rawPut(t, db, tc.name, KeyGameState, tc.state)
			rawPut(t, db, tc.name, KeyDarkMode, tc.dark)
			st, err := s.Load(ctx, tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, st)
		})
	}
}

func TestClearKeepsTheme(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.SaveGame(ctx, "p", 5, 400))
	require.NoError(t, s.SetDarkMode(ctx, "p", true))

	require.NoError(t, s.Clear(ctx, "p"))
	st, err := s.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, 0, st.Score)
	assert.True(t, st.DarkMode)
}

func TestResultsHistoryAndTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	for i, acc := range []int{100, 48, 76} {
		require.NoError(t, s.RecordResult(ctx, Result{
			PlayerID: "p", GameID: "g", Level: i + 1, Accuracy: acc, Points: acc,
			AutoSubmitted: i == 1,
		}))
	}
	require.NoError(t, s.RecordResult(ctx, Result{PlayerID: "someone-else", Accuracy: 100, Points: 100}))

	hist, err := s.History(ctx, "p", 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 3, hist[0].Level)
	assert.Equal(t, 2, hist[1].Level)
	assert.True(t, hist[1].AutoSubmitted)
	assert.True(t, hist[0].CreatedAt.After(hist[1].CreatedAt))

	tot, err := s.Totals(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, Totals{Rounds: 3, Points: 224, AvgAccuracy: 75, BestAccuracy: 100, Perfect: 1}, tot)

	empty, err := s.Totals(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, Totals{}, empty)
}

func TestClaim(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.SaveGame(ctx, "anon", 3, 90))
	require.NoError(t, s.SetDarkMode(ctx, "anon", true))
	require.NoError(t, s.SetDarkMode(ctx, "user", false))
	require.NoError(t, s.RecordResult(ctx, Result{PlayerID: "anon", GameID: "g", Level: 2, Accuracy: 90, Points: 90}))

	require.NoError(t, s.Claim(ctx, "anon", "user"))

	st, err := s.Load(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Level)
	assert.Equal(t, 90, st.Score)
	assert.False(t, st.DarkMode, "account's own theme wins")

	anon, err := s.Load(ctx, "anon")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), anon)

	tot, err := s.Totals(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 1, tot.Rounds)
}
