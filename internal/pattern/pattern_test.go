package pattern

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, key string) Rule {
	t.Helper()
	r, err := RuleFor(key)
	require.NoError(t, err)
	return r
}

func TestGenerateRuleCells(t *testing.T) {
	cases := []struct {
		key  string
		want []int
	}{
		{"even", []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24}},
		{"diagonals", []int{0, 4, 6, 8, 12, 16, 18, 20, 24}},
		{"prime", []int{2, 3, 5, 7, 11, 13, 17, 19, 23}},
		{"center", []int{6, 7, 8, 11, 12, 13, 16, 17, 18}},
		{"mod3", []int{0, 3, 7, 11, 14, 15, 18, 22}},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			p := Generate(mustRule(t, tc.key))
			assert.Equal(t, tc.want, p.Indices())
			assert.Equal(t, len(tc.want), p.Count())
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, key := range RuleKeys() {
		r := mustRule(t, key)
		assert.Equal(t, Generate(r), Generate(r), key)
	}
}

func TestRuleForUnknown(t *testing.T) {
	_, err := RuleFor("spiral")
	assert.Error(t, err)
}

func TestScoreExactMatch(t *testing.T) {
	p := Generate(mustRule(t, "prime"))
	res := Score(Selection(p), p)
	assert.Equal(t, Result{Correct: 9, Matches: 25, Accuracy: 100, Points: 100, Tier: TierExcellent}, res)
}

func TestScoreEmptySelection(t *testing.T) {
	p := Generate(mustRule(t, "even"))
	res := Score(Selection{}, p)
	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, 0, res.Incorrect)
	assert.Equal(t, 13, res.Missed)
	assert.Equal(t, 12, res.Matches)
	assert.Equal(t, 48, res.Accuracy)
	assert.Equal(t, 48, res.Points)
	assert.Equal(t, TierKeepTrying, res.Tier)
}

func TestScoreEverythingSelected(t *testing.T) {
	var all Selection
	for i := range all {
		all[i] = true
	}
	res := Score(all, Generate(mustRule(t, "even")))
	assert.Equal(t, 13, res.Correct)
	assert.Equal(t, 12, res.Incorrect)
	assert.Equal(t, 0, res.Missed)
	assert.Equal(t, 52, res.Accuracy)
}

func TestScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := Generate(mustRule(t, "mod3"))
	for n := 0; n < 500; n++ {
		var sel Selection
		for i := range sel {
			sel[i] = rng.Intn(2) == 1
		}
		res := Score(sel, p)
		require.GreaterOrEqual(t, res.Accuracy, 0)
		require.LessOrEqual(t, res.Accuracy, 100)
		require.LessOrEqual(t, res.Points, res.Accuracy)
		require.Equal(t, Size, res.Correct+res.Incorrect+res.Missed+(res.Matches-res.Correct))
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierExcellent, TierFor(80))
	assert.Equal(t, TierGood, TierFor(79))
	assert.Equal(t, TierGood, TierFor(60))
	assert.Equal(t, TierKeepTrying, TierFor(59))
}

func TestSelectionAny(t *testing.T) {
	var s Selection
	assert.False(t, s.Any())
	s[24] = true
	assert.True(t, s.Any())
}
