package dist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMono(t *testing.T) {
	for _, v := range sampleN(t, Mono{Energy: 1.25}, 1, 10) {
		assert.Equal(t, 1.25, v)
	}
}

func TestLines_BranchingRatios(t *testing.T) {
	l, err := NewLines(Line{Energy: 0.1, Intensity: 75}, Line{Energy: 0.2, Intensity: 25})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, l.TotalIntensity(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, l.BranchingRatios(), 1e-12)

	const n = 100000
	counts := map[float64]int{}
	for _, v := range sampleN(t, l, 9, n) {
		counts[v]++
	}
	require.Len(t, counts, 2)
	assert.InDelta(t, 0.75, float64(counts[0.1])/n, 0.01)
	assert.InDelta(t, 0.25, float64(counts[0.2])/n, 0.01)
}

func TestLines_ZeroIntensityLineNeverDrawn(t *testing.T) {
	l, err := NewLines(Line{Energy: 0.1, Intensity: 0}, Line{Energy: 0.2, Intensity: 1})
	require.NoError(t, err)
	for _, v := range sampleN(t, l, 2, 1000) {
		require.Equal(t, 0.2, v)
	}
}

func TestLines_Errors(t *testing.T) {
	_, err := NewLines()
	assert.ErrorIs(t, err, ErrEmptyDistribution)

	_, err = NewLines(Line{Energy: 1, Intensity: 0})
	assert.ErrorIs(t, err, ErrEmptyDistribution)

	_, err = NewLines(Line{Energy: 1, Intensity: -1})
	assert.Error(t, err)
}

func TestLines_ReturnsCopy(t *testing.T) {
	l, err := NewLines(Line{Energy: 1, Intensity: 1})
	require.NoError(t, err)
	got := l.Lines()
	got[0].Energy = 99
	assert.Equal(t, 1.0, l.Lines()[0].Energy)
}
