package beam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/ndetsrc/internal/testutil"
)

const draws = 10000

func TestParseShape(t *testing.T) {
	assert.Equal(t, Circle, ParseShape("circle"))
	assert.Equal(t, Annulus, ParseShape(" Annulus "))
	assert.Equal(t, VerticalLine, ParseShape("vline"))
	assert.Equal(t, Gaussian2D, ParseShape("gauss"))
}

func TestParseShape_UnknownFallsBackToPoint(t *testing.T) {
	testutil.SilenceLogs(t)
	assert.Equal(t, Point, ParseShape("hexagon"))
}

func TestPoint(t *testing.T) {
	rng := testutil.NewRand(1)
	u, v := Profile{Shape: Point, R1: 5}.Sample(rng)
	assert.Equal(t, 0.0, u)
	assert.Equal(t, 0.0, v)
}

func TestCircle_AreaUniform(t *testing.T) {
	const r = 3.0
	rng := testutil.NewRand(2)
	p := Profile{Shape: Circle, R1: r}

	// r² is uniform on [0, R²]: check the mean and the quartiles.
	r2 := make([]float64, draws)
	below := 0
	for i := range r2 {
		u, v := p.Sample(rng)
		r2[i] = u*u + v*v
		require.LessOrEqual(t, r2[i], r*r+1e-12)
		if r2[i] < r*r/4 {
			below++
		}
	}
	assert.InDelta(t, r*r/2, stat.Mean(r2, nil), 0.1)
	assert.InDelta(t, 0.25, float64(below)/draws, 0.02)
}

func TestAnnulus_StaysInBand(t *testing.T) {
	rng := testutil.NewRand(3)
	for _, p := range []Profile{
		{Shape: Annulus, R1: 5, R2: 2},
		{Shape: Annulus, R1: 2, R2: 5}, // inverted arguments
	} {
		for i := 0; i < draws; i++ {
			u, v := p.Sample(rng)
			rad := math.Hypot(u, v)
			require.GreaterOrEqual(t, rad, 2.0-1e-12)
			require.LessOrEqual(t, rad, 5.0+1e-12)
		}
	}
}

func TestEllipse_Inside(t *testing.T) {
	rng := testutil.NewRand(4)
	p := Profile{Shape: Ellipse, R1: 4, R2: 1}
	var us []float64
	for i := 0; i < draws; i++ {
		u, v := p.Sample(rng)
		require.LessOrEqual(t, (u/4)*(u/4)+v*v, 1+1e-12)
		us = append(us, u)
	}
	// Uniform ellipse: var(u) = R1²/4.
	assert.InDelta(t, 4.0, stat.Variance(us, nil), 0.2)
}

func TestSquareAndRectangle(t *testing.T) {
	rng := testutil.NewRand(5)
	for i := 0; i < draws; i++ {
		u, v := Profile{Shape: Square, R1: 2}.Sample(rng)
		require.LessOrEqual(t, math.Abs(u), 2.0)
		require.LessOrEqual(t, math.Abs(v), 2.0)

		u, v = Profile{Shape: Rectangle, R1: 3, R2: 0.5}.Sample(rng)
		require.LessOrEqual(t, math.Abs(u), 3.0)
		require.LessOrEqual(t, math.Abs(v), 0.5)
	}
}

func TestLines(t *testing.T) {
	rng := testutil.NewRand(6)
	for i := 0; i < 1000; i++ {
		u, v := Profile{Shape: VerticalLine, R1: 2}.Sample(rng)
		require.Equal(t, 0.0, u)
		require.LessOrEqual(t, math.Abs(v), 2.0)

		u, v = Profile{Shape: HorizontalLine, R1: 2}.Sample(rng)
		require.Equal(t, 0.0, v)
		require.LessOrEqual(t, math.Abs(u), 2.0)
	}
}

func TestGaussian2D_Sigma(t *testing.T) {
	rng := testutil.NewRand(7)
	p := Profile{Shape: Gaussian2D, R1: 2.3548200450309493, R2: 4.709640090061899}
	us := make([]float64, 0, draws)
	vs := make([]float64, 0, draws)
	for i := 0; i < draws; i++ {
		u, v := p.Sample(rng)
		us = append(us, u)
		vs = append(vs, v)
	}
	assert.InDelta(t, 1.0, stat.StdDev(us, nil), 0.03)
	assert.InDelta(t, 2.0, stat.StdDev(vs, nil), 0.06)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "point", Profile{}.Describe())
	assert.Equal(t, "circle(5 mm)", Profile{Shape: Circle, R1: 5}.Describe())
	assert.Equal(t, "annulus(5 mm, 2 mm)", Profile{Shape: Annulus, R1: 5, R2: 2}.Describe())
}
