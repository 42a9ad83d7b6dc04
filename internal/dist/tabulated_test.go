package dist

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/ndetsrc/internal/testutil"
)

func sampleN(t *testing.T, s Sampler, seed int64, n int) []float64 {
	t.Helper()
	rng := testutil.NewRand(seed)
	out := make([]float64, n)
	for i := range out {
		v, err := s.Sample(rng)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func TestTabulated_EmptyDistribution(t *testing.T) {
	rng := testutil.NewRand(1)

	d := NewTabulated()
	_, err := d.Sample(rng)
	assert.ErrorIs(t, err, ErrEmptyDistribution)

	d.AddPoint(1, 1)
	_, err = d.Sample(rng)
	assert.ErrorIs(t, err, ErrEmptyDistribution)

	zero := NewTabulated()
	zero.AddPoint(0, 0)
	zero.AddPoint(1, 0)
	_, err = zero.Sample(rng)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestTabulated_SamplesStayInRange(t *testing.T) {
	for _, mode := range []Interpolation{Linear, Logarithmic, Exponential, Spline} {
		t.Run(mode.String(), func(t *testing.T) {
			d := NewTabulated()
			d.SetInterpolation(mode)
			for _, p := range [][2]float64{{0.5, 1}, {1, 3}, {2, 2}, {4, 0.5}, {8, 0.1}} {
				d.AddPoint(p[0], p[1])
			}
			for _, v := range sampleN(t, d, 3, 10000) {
				require.GreaterOrEqual(t, v, 0.5)
				require.LessOrEqual(t, v, 8.0)
			}
		})
	}
}

func TestTabulated_TriangleMean(t *testing.T) {
	d := NewTabulated()
	d.AddPoint(0, 0)
	d.AddPoint(1, 1)
	d.AddPoint(2, 0)

	samples := sampleN(t, d, 11, 100000)
	assert.InDelta(t, 1.0, stat.Mean(samples, nil), 0.01)

	mean, err := d.Mean()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean, 1e-9)
}

func TestTabulated_RightTriangleMean(t *testing.T) {
	d := NewTabulated()
	d.AddPoint(0, 0)
	d.AddPoint(1, 1)

	samples := sampleN(t, d, 12, 100000)
	assert.InDelta(t, 2.0/3.0, stat.Mean(samples, nil), 0.005)
}

func TestTabulated_IndependentDraws(t *testing.T) {
	d := NewTabulated()
	d.AddPoint(0, 1)
	d.AddPoint(1, 1)

	samples := sampleN(t, d, 5, 2000)
	distinct := make(map[float64]struct{}, len(samples))
	for _, v := range samples {
		distinct[v] = struct{}{}
	}
	assert.Greater(t, len(distinct), 1990)
}

func TestTabulated_Exponential(t *testing.T) {
	d := NewTabulated()
	d.SetInterpolation(Exponential)
	for x := 0; x <= 5; x++ {
		d.AddPoint(float64(x), math.Exp(-float64(x)))
	}

	integral, err := d.Integral()
	require.NoError(t, err)
	assert.InDelta(t, 1-math.Exp(-5), integral, 1e-9)

	want := 1 - 5*math.Exp(-5)/(1-math.Exp(-5))
	mean, err := d.Mean()
	require.NoError(t, err)
	assert.InDelta(t, want, mean, 0.005)

	samples := sampleN(t, d, 21, 100000)
	assert.InDelta(t, want, stat.Mean(samples, nil), 0.02)
}

func TestTabulated_LogarithmicPowerLaw(t *testing.T) {
	d := NewTabulated()
	d.SetInterpolation(Logarithmic)
	for _, x := range []float64{1, 2, 5, 10} {
		d.AddPoint(x, 1/(x*x))
	}

	integral, err := d.Integral()
	require.NoError(t, err)
	assert.InDelta(t, 0.9, integral, 1e-9)

	samples := sampleN(t, d, 22, 100000)
	assert.InDelta(t, math.Log(10)/0.9, stat.Mean(samples, nil), 0.04)
}

func TestTabulated_Spline(t *testing.T) {
	d := NewTabulated()
	d.SetInterpolation(Spline)
	for x := 0; x <= 4; x++ {
		fx := float64(x)
		d.AddPoint(fx, fx*(4-fx))
	}

	integral, err := d.Integral()
	require.NoError(t, err)
	assert.InEpsilon(t, 32.0/3.0, integral, 0.05)

	samples := sampleN(t, d, 23, 50000)
	assert.InDelta(t, 2.0, stat.Mean(samples, nil), 0.03)
}

func TestTabulated_SetRange(t *testing.T) {
	d := NewTabulated()
	d.AddPoint(0, 1)
	d.AddPoint(2, 1)
	d.SetRange(1.5, 0.5)

	lo, hi := d.Range()
	assert.Equal(t, 0.5, lo)
	assert.Equal(t, 1.5, hi)

	samples := sampleN(t, d, 31, 20000)
	for _, v := range samples {
		require.GreaterOrEqual(t, v, 0.5)
		require.LessOrEqual(t, v, 1.5)
	}
	assert.InDelta(t, 1.0, stat.Mean(samples, nil), 0.01)
}

func TestTabulated_RebuildsAfterMutation(t *testing.T) {
	d := NewTabulated()
	d.AddPoint(0, 1)
	d.AddPoint(1, 1)

	integral, err := d.Integral()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, integral, 1e-12)

	d.AddPoint(2, 0)
	integral, err = d.Integral()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, integral, 1e-12)

	sawAboveOne := false
	for _, v := range sampleN(t, d, 4, 1000) {
		if v > 1 {
			sawAboveOne = true
			break
		}
	}
	assert.True(t, sawAboveOne)
}

func TestParseInterpolation(t *testing.T) {
	tests := map[string]Interpolation{
		"":            Linear,
		"lin":         Linear,
		"LOG":         Logarithmic,
		"exponential": Exponential,
		"spline":      Spline,
	}
	for in, want := range tests {
		got, err := ParseInterpolation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseInterpolation("quadratic")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	in := `# energy weight
0.0 0.0

0.5 2.0
1.0 1.0
`
	d, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	xs, ys := d.Points()
	assert.Equal(t, []float64{0, 0.5, 1}, xs)
	assert.Equal(t, []float64{0, 2, 1}, ys)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"three columns", "0 1 2\n1 1\n"},
		{"bad energy", "x 1\n1 1\n"},
		{"bad weight", "0 y\n1 1\n"},
		{"negative weight", "0 -1\n1 1\n"},
		{"not increasing", "1 1\n1 2\n"},
		{"single point", "1 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := testutil.WriteFile(t, "spectrum.dat", "0 1\n1 1\n")
	d, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	_, err = ReadFile(path + ".missing")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrParse)
}
