package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("skips NaN cells", func(t *testing.T) {
		s := Summarize([]float64{1, math.NaN(), 3, 5})

		assert.Equal(t, 3, s.Count)
		assert.Equal(t, 1.0, s.Min)
		assert.Equal(t, 5.0, s.Max)
		assert.Equal(t, 3.0, s.Mean)
	})

	t.Run("empty column", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, 0, s.Count)
		assert.True(t, math.IsNaN(s.Min))
		assert.True(t, math.IsNaN(s.Mean))
	})
}

func TestCorrelationMatrix(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}    // perfectly correlated with x
	z := []float64{8, 6, 4, 2}    // perfectly anti-correlated
	c := []float64{5, 5, 5, 5}    // zero variance
	n := []float64{1, math.NaN(), 3, 4}

	m := CorrelationMatrix([][]float64{x, y, z, c, n})

	require.Len(t, m, 5)
	assert.Equal(t, 1.0, m[0][0])
	assert.InDelta(t, 1.0, m[0][1], 1e-12)
	assert.InDelta(t, -1.0, m[0][2], 1e-12)
	assert.True(t, math.IsNaN(m[0][3]), "zero-variance column yields NaN")
	assert.InDelta(t, 1.0, m[0][4], 1e-12, "NaN rows excluded pairwise")

	// Symmetric.
	assert.Equal(t, m[0][1], m[1][0])
	assert.Equal(t, m[1][2], m[2][1])
}

func TestBuildHistogram(t *testing.T) {
	t.Run("even spread", func(t *testing.T) {
		h := BuildHistogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 5)

		require.Len(t, h.Counts, 5)
		require.Len(t, h.BinEdges, 6)
		assert.Equal(t, []int{2, 2, 2, 2, 2}, h.Counts)
		assert.Equal(t, 0.0, h.BinEdges[0])
		assert.Equal(t, 9.0, h.BinEdges[5])
	})

	t.Run("max value lands in last bin", func(t *testing.T) {
		h := BuildHistogram([]float64{0, 10}, 2)
		assert.Equal(t, []int{1, 1}, h.Counts)
	})

	t.Run("constant column", func(t *testing.T) {
		h := BuildHistogram([]float64{3, 3, 3}, 4)
		assert.Equal(t, []int{3}, h.Counts)
		assert.Equal(t, []float64{3, 3}, h.BinEdges)
	})

	t.Run("NaN excluded", func(t *testing.T) {
		h := BuildHistogram([]float64{1, math.NaN(), 2}, 1)
		assert.Equal(t, []int{2}, h.Counts)
	})
}
