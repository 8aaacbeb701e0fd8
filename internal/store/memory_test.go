package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/patternpuzzle/internal/game"
	"github.com/robalobadob/patternpuzzle/internal/levels"
)

func newGame(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.New(levels.Default(), "owner", 1, 0, time.Now())
	require.NoError(t, err)
	return g
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	g := newGame(t)

	_, err := st.Get(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Save(ctx, g))
	got, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	require.NoError(t, st.Delete(ctx, g.ID))
	_, err = st.Get(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	g := newGame(t)
	require.NoError(t, st.Save(ctx, g))

	boom := errors.New("boom")
	err := st.Update(ctx, g.ID, func(g *game.Game) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = st.Update(ctx, "missing", func(g *game.Game) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = st.Update(cancelled, g.ID, func(g *game.Game) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdateSerializes(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	g := newGame(t)
	require.NoError(t, st.Save(ctx, g))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Update(ctx, g.ID, func(g *game.Game) error {
				g.Score++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, g.Score)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	old, fresh := newGame(t), newGame(t)
	now := time.Now()
	old.LastSeen = now.Add(-time.Hour)
	fresh.LastSeen = now
	require.NoError(t, st.Save(ctx, old))
	require.NoError(t, st.Save(ctx, fresh))

	assert.Equal(t, 1, st.Sweep(ctx, now.Add(-30*time.Minute)))
	_, err := st.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
