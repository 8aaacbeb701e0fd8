package levels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	t.Setenv("LEVELS_FILE", "")
	require.NoError(t, Init())
	cat := Default()
	require.NotNil(t, cat)
	require.Equal(t, 5, cat.Count())

	names := []string{"Even Indices", "Diagonals", "Prime Numbers", "Center Cluster", "Modulo Magic"}
	for i, lv := range cat.All() {
		assert.Equal(t, i+1, lv.ID)
		assert.Equal(t, names[i], lv.Name)
		assert.NotEmpty(t, lv.Description)
	}
}

func TestPatternPerLevel(t *testing.T) {
	cat := Default()
	require.NotNil(t, cat)
	counts := map[int]int{1: 13, 2: 9, 3: 9, 4: 9, 5: 8}
	for id, want := range counts {
		p, err := cat.Pattern(id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Count(), "level %d", id)

		again, err := cat.Pattern(id)
		require.NoError(t, err)
		assert.Equal(t, p, again)
	}
}

func TestUnknownLevel(t *testing.T) {
	cat := Default()
	for _, id := range []int{0, 6, -1} {
		_, err := cat.Pattern(id)
		assert.True(t, errors.Is(err, ErrUnknownLevel), "id %d", id)
		assert.False(t, cat.Valid(id))
	}
}

func TestNextWraps(t *testing.T) {
	cat := Default()
	n, wrapped := cat.Next(1)
	assert.Equal(t, 2, n)
	assert.False(t, wrapped)

	n, wrapped = cat.Next(5)
	assert.Equal(t, 1, n)
	assert.True(t, wrapped)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty":        "levels: []",
		"gap":          "levels:\n  - {id: 2, name: X, rule: even}",
		"unknown rule": "levels:\n  - {id: 1, name: X, rule: spiral}",
		"no name":      "levels:\n  - {id: 1, rule: even}",
		"not yaml":     "levels: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	doc := "levels:\n  - {id: 1, name: Only Primes, description: d, rule: prime}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Count())

	n, wrapped := cat.Next(1)
	assert.Equal(t, 1, n)
	assert.True(t, wrapped)
}
