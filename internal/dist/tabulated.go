package dist

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// ErrEmptyDistribution is returned when sampling a distribution that has
// fewer than two points or integrates to zero over its sampling range.
var ErrEmptyDistribution = errors.New("empty distribution")

// Sampler draws one value (an energy, in MeV) per call.
type Sampler interface {
	Sample(rng *rand.Rand) (float64, error)
}

// Interpolation selects how the density is interpolated between two
// tabulated points when the cumulative distribution is built.
type Interpolation int

const (
	Linear Interpolation = iota
	Logarithmic
	Exponential
	Spline
)

// splineSubsteps is the number of linear sub-segments each table interval
// is split into when integrating the cubic spline.
const splineSubsteps = 16

// String implements fmt.Stringer.
func (m Interpolation) String() string {
	switch m {
	case Linear:
		return "lin"
	case Logarithmic:
		return "log"
	case Exponential:
		return "exp"
	case Spline:
		return "spline"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(m))
	}
}

// ParseInterpolation maps a mode name ("lin", "log", "exp", "spline" or the
// long forms) to an Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lin", "linear":
		return Linear, nil
	case "log", "logarithmic":
		return Logarithmic, nil
	case "exp", "exponential":
		return Exponential, nil
	case "spline", "cspline":
		return Spline, nil
	default:
		return Linear, fmt.Errorf("unknown interpolation %q", name)
	}
}

// Tabulated is an arbitrary probability density given as (x, y) points.
//
// Points must be added with strictly increasing x. The table is not sorted
// or checked; sampling a table that violates this is undefined.
type Tabulated struct {
	xs, ys []float64
	mode   Interpolation

	lo, hi   float64
	hasRange bool

	built bool
	segs  []segment
	cum   []float64 // cum[i] is the integral up to the end of segs[i]
}

// NewTabulated returns an empty linear distribution.
func NewTabulated() *Tabulated {
	return &Tabulated{}
}

// AddPoint appends one (x, y) pair. Negative densities are treated as zero.
func (t *Tabulated) AddPoint(x, y float64) {
	t.xs = append(t.xs, x)
	t.ys = append(t.ys, y)
	t.built = false
}

// SetInterpolation selects the interpolation used between points.
func (t *Tabulated) SetInterpolation(mode Interpolation) {
	if mode != t.mode {
		t.mode = mode
		t.built = false
	}
}

// Interpolation returns the selected interpolation mode.
func (t *Tabulated) Interpolation() Interpolation {
	return t.mode
}

// SetRange restricts sampling to [lo, hi]. The effective range is the
// intersection with the tabulated x range.
func (t *Tabulated) SetRange(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	t.lo, t.hi = lo, hi
	t.hasRange = true
}

// Range returns the effective sampling range.
func (t *Tabulated) Range() (float64, float64) {
	if len(t.xs) == 0 {
		return 0, 0
	}
	lo, hi := t.xs[0], t.xs[len(t.xs)-1]
	if t.hasRange {
		lo = math.Max(lo, t.lo)
		hi = math.Min(hi, t.hi)
	}
	return lo, hi
}

// Len returns the number of tabulated points.
func (t *Tabulated) Len() int {
	return len(t.xs)
}

// Points returns copies of the tabulated x and y values.
func (t *Tabulated) Points() ([]float64, []float64) {
	xs := make([]float64, len(t.xs))
	ys := make([]float64, len(t.ys))
	copy(xs, t.xs)
	copy(ys, t.ys)
	return xs, ys
}

// Integral returns the integral of the interpolated density over the whole
// table (not only the sampling range).
func (t *Tabulated) Integral() (float64, error) {
	if err := t.build(); err != nil {
		return 0, err
	}
	return t.cum[len(t.cum)-1], nil
}

// Mean returns the mean of the interpolated density over the sampling range.
func (t *Tabulated) Mean() (float64, error) {
	if err := t.build(); err != nil {
		return 0, err
	}
	lo, hi := t.Range()
	var sumW, sumXW float64
	for _, s := range t.segs {
		a, b := math.Max(s.x0, lo), math.Min(s.x1, hi)
		if b <= a {
			continue
		}
		const n = 8
		h := (b - a) / n
		for k := 0; k < n; k++ {
			x := a + (float64(k)+0.5)*h
			w := s.value(x) * h
			sumW += w
			sumXW += x * w
		}
	}
	if sumW <= 0 {
		return 0, ErrEmptyDistribution
	}
	return sumXW / sumW, nil
}

// Sample draws a value in the sampling range by inverting the cumulative
// distribution.
func (t *Tabulated) Sample(rng *rand.Rand) (float64, error) {
	if err := t.build(); err != nil {
		return 0, err
	}
	lo, hi := t.Range()
	flo, fhi := t.cdf(lo), t.cdf(hi)
	if !(fhi > flo) {
		return 0, ErrEmptyDistribution
	}

	target := flo + rng.Float64()*(fhi-flo)
	i := sort.Search(len(t.cum), func(i int) bool { return t.cum[i] > target })
	if i == len(t.cum) {
		i = len(t.cum) - 1
	}
	start := 0.0
	if i > 0 {
		start = t.cum[i-1]
	}
	s := t.segs[i]
	x := s.invert(target - start)
	return math.Min(math.Max(x, math.Max(s.x0, lo)), math.Min(s.x1, hi)), nil
}

// cdf returns the unnormalised cumulative integral up to x.
func (t *Tabulated) cdf(x float64) float64 {
	i := sort.Search(len(t.segs), func(i int) bool { return t.segs[i].x1 >= x })
	if i == len(t.segs) {
		return t.cum[len(t.cum)-1]
	}
	start := 0.0
	if i > 0 {
		start = t.cum[i-1]
	}
	return start + t.segs[i].partial(x)
}

func (t *Tabulated) build() error {
	if t.built {
		return nil
	}
	if len(t.xs) < 2 {
		return ErrEmptyDistribution
	}

	var segs []segment
	switch {
	case t.mode == Spline && len(t.xs) >= 3:
		var err error
		segs, err = splineSegments(t.xs, t.ys)
		if err != nil {
			return fmt.Errorf("fit spline: %w", err)
		}
	default:
		segs = make([]segment, 0, len(t.xs)-1)
		for i := 0; i+1 < len(t.xs); i++ {
			segs = append(segs, newSegment(t.mode, t.xs[i], t.xs[i+1], t.ys[i], t.ys[i+1]))
		}
	}

	cum := make([]float64, len(segs))
	total := 0.0
	for i, s := range segs {
		total += s.area
		cum[i] = total
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return ErrEmptyDistribution
	}

	t.segs, t.cum, t.built = segs, cum, true
	return nil
}

func splineSegments(xs, ys []float64) ([]segment, error) {
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, err
	}
	segs := make([]segment, 0, (len(xs)-1)*splineSubsteps)
	for i := 0; i+1 < len(xs); i++ {
		h := (xs[i+1] - xs[i]) / splineSubsteps
		prevX, prevY := xs[i], ys[i]
		for k := 1; k <= splineSubsteps; k++ {
			x := xs[i] + float64(k)*h
			y := ys[i+1]
			if k < splineSubsteps {
				y = nc.Predict(x)
			} else {
				x = xs[i+1]
			}
			segs = append(segs, newSegment(Linear, prevX, x, prevY, y))
			prevX, prevY = x, y
		}
	}
	return segs, nil
}

type segKind int

const (
	segLinear segKind = iota
	segPower
	segExp
)

// segment is one interval of the density with an analytic integral.
type segment struct {
	kind   segKind
	x0, x1 float64
	y0, y1 float64
	k      float64 // slope, power-law exponent or exponential rate
	area   float64
}

func newSegment(mode Interpolation, x0, x1, y0, y1 float64) segment {
	y0, y1 = math.Max(y0, 0), math.Max(y1, 0)
	s := segment{kind: segLinear, x0: x0, x1: x1, y0: y0, y1: y1}
	dx := x1 - x0
	switch {
	case mode == Logarithmic && x0 > 0 && y0 > 0 && y1 > 0:
		s.kind = segPower
		s.k = math.Log(y1/y0) / math.Log(x1/x0)
	case mode == Exponential && y0 > 0 && y1 > 0:
		s.kind = segExp
		s.k = math.Log(y1/y0) / dx
	default:
		if dx > 0 {
			s.k = (y1 - y0) / dx
		}
	}
	s.area = s.partial(x1)
	return s
}

// value returns the interpolated density at x.
func (s segment) value(x float64) float64 {
	switch s.kind {
	case segPower:
		return s.y0 * math.Pow(x/s.x0, s.k)
	case segExp:
		return s.y0 * math.Exp(s.k*(x-s.x0))
	default:
		return s.y0 + s.k*(x-s.x0)
	}
}

// partial returns the integral from x0 to x.
func (s segment) partial(x float64) float64 {
	if x <= s.x0 {
		return 0
	}
	x = math.Min(x, s.x1)
	d := x - s.x0
	switch s.kind {
	case segPower:
		if math.Abs(s.k+1) < 1e-12 {
			return s.y0 * s.x0 * math.Log(x/s.x0)
		}
		return s.y0 * s.x0 / (s.k + 1) * (math.Pow(x/s.x0, s.k+1) - 1)
	case segExp:
		if math.Abs(s.k) < 1e-12 {
			return s.y0 * d
		}
		return s.y0 / s.k * math.Expm1(s.k*d)
	default:
		return s.y0*d + 0.5*s.k*d*d
	}
}

// invert returns x such that partial(x) == a, for 0 <= a <= area.
func (s segment) invert(a float64) float64 {
	if a <= 0 {
		return s.x0
	}
	switch s.kind {
	case segPower:
		if math.Abs(s.k+1) < 1e-12 {
			return s.x0 * math.Exp(a/(s.y0*s.x0))
		}
		base := 1 + a*(s.k+1)/(s.y0*s.x0)
		return s.x0 * math.Pow(math.Max(base, 0), 1/(s.k+1))
	case segExp:
		if math.Abs(s.k) < 1e-12 {
			return s.x0 + a/s.y0
		}
		return s.x0 + math.Log1p(a*s.k/s.y0)/s.k
	default:
		disc := math.Max(s.y0*s.y0+2*s.k*a, 0)
		den := s.y0 + math.Sqrt(disc)
		if den <= 0 {
			return s.x0
		}
		return s.x0 + 2*a/den
	}
}
