package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{name: "identical", a: "Store Info", b: "Store Info", min: 100, max: 100},
		{name: "case insensitive", a: "store info", b: "Store Info", min: 100, max: 100},
		{name: "whitespace", a: "  Store Info ", b: "Store Info", min: 100, max: 100},
		{name: "both empty", a: "", b: "", min: 100, max: 100},
		{name: "one char off", a: "Store Infos", b: "Store Info", min: 85, max: 99},
		{name: "unrelated", a: "Delivery", b: "Small talk", min: 0, max: 40},
		{name: "empty vs text", a: "", b: "Store Info", min: 0, max: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			score := Ratio(tt.a, tt.b)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestTokenSortRatio_WordOrderInsensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, TokenSortRatio("Info Store", "Store Info"))
	assert.Equal(t, 100, TokenSortRatio("opening hours store", "store opening hours"))
}

func TestExtractBest(t *testing.T) {
	t.Parallel()

	choices := []string{"Small talk", "Store Info", "Delivery", "Payments"}

	m, ok := ExtractBest("store info", choices)
	require.True(t, ok)
	assert.Equal(t, "Store Info", m.Text)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, 100, m.Score)

	m, ok = ExtractBest("Store Inf", choices)
	require.True(t, ok)
	assert.Equal(t, "Store Info", m.Text)
	assert.GreaterOrEqual(t, m.Score, 90)
}

func TestExtractBest_Empty(t *testing.T) {
	t.Parallel()

	_, ok := ExtractBest("anything", nil)
	assert.False(t, ok)
}

func TestExtract_StableOnTies(t *testing.T) {
	t.Parallel()

	// Two identical choices: original order must be preserved.
	matches := Extract("alpha", []string{"alpha", "alpha"})
	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Index)
	assert.Equal(t, 1, matches[1].Index)
}

func TestExtract_OrderedByScore(t *testing.T) {
	t.Parallel()

	matches := Extract("Store Info", []string{"Delivery", "Store Info", "Store Information"})
	require.Len(t, matches, 3)
	assert.Equal(t, "Store Info", matches[0].Text)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score)
	}
}
