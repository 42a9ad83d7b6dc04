// Package beam samples 2D beam-spot offsets in the plane perpendicular to
// the source direction.
package beam

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
)

// Shape selects the beam-spot sampling rule.
type Shape int

const (
	Point Shape = iota
	Circle
	Annulus
	Ellipse
	Square
	Rectangle
	VerticalLine
	HorizontalLine
	Gaussian2D
)

// fwhmToSigma converts a full width at half maximum to a standard deviation.
var fwhmToSigma = 1 / (2 * math.Sqrt(2*math.Ln2))

var shapeNames = map[Shape]string{
	Point:          "point",
	Circle:         "circle",
	Annulus:        "annulus",
	Ellipse:        "ellipse",
	Square:         "square",
	Rectangle:      "rectangle",
	VerticalLine:   "vertical",
	HorizontalLine: "horizontal",
	Gaussian2D:     "gaussian",
}

var shapeAliases = map[string]Shape{
	"point":      Point,
	"circle":     Circle,
	"annulus":    Annulus,
	"ellipse":    Ellipse,
	"square":     Square,
	"rectangle":  Rectangle,
	"vertical":   VerticalLine,
	"vline":      VerticalLine,
	"horizontal": HorizontalLine,
	"hline":      HorizontalLine,
	"gaussian":   Gaussian2D,
	"gauss":      Gaussian2D,
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape maps a shape name to a Shape. Unknown names fall back to Point
// with a logged warning.
func ParseShape(name string) Shape {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := shapeAliases[key]; ok {
		return s
	}
	slog.Warn("unknown beamspot shape, using point", "shape", name)
	return Point
}

// Profile is a beam-spot shape with up to two size parameters (mm).
//
// R1 and R2 mean, per shape:
//
//	Circle          R1 radius
//	Annulus         R1 outer radius, R2 inner radius
//	Ellipse         R1 semi-axis along the first offset axis, R2 along the second
//	Square          R1 half side
//	Rectangle       R1 half width, R2 half height
//	VerticalLine    R1 half height
//	HorizontalLine  R1 half width
//	Gaussian2D      R1 FWHM along the first axis, R2 along the second (R2=0 uses R1)
type Profile struct {
	Shape Shape
	R1    float64
	R2    float64
}

// Sample returns one (u, v) offset. u runs along the source frame's Y axis,
// v along its Z axis.
func (p Profile) Sample(rng *rand.Rand) (float64, float64) {
	switch p.Shape {
	case Circle:
		r := p.R1 * math.Sqrt(rng.Float64())
		return polar(r, 2*math.Pi*rng.Float64())

	case Annulus:
		outer, inner := p.R1, p.R2
		if inner > outer {
			outer, inner = inner, outer
		}
		r := math.Sqrt(inner*inner + rng.Float64()*(outer*outer-inner*inner))
		return polar(r, 2*math.Pi*rng.Float64())

	case Ellipse:
		// Uniform in the unit disc, stretched per axis, is uniform in the ellipse.
		r := math.Sqrt(rng.Float64())
		u, v := polar(r, 2*math.Pi*rng.Float64())
		return u * p.R1, v * p.R2

	case Square:
		return p.R1 * (2*rng.Float64() - 1), p.R1 * (2*rng.Float64() - 1)

	case Rectangle:
		return p.R1 * (2*rng.Float64() - 1), p.R2 * (2*rng.Float64() - 1)

	case VerticalLine:
		return 0, p.R1 * (2*rng.Float64() - 1)

	case HorizontalLine:
		return p.R1 * (2*rng.Float64() - 1), 0

	case Gaussian2D:
		fy := p.R2
		if fy == 0 {
			fy = p.R1
		}
		return rng.NormFloat64() * p.R1 * fwhmToSigma, rng.NormFloat64() * fy * fwhmToSigma

	default:
		return 0, 0
	}
}

// Describe renders the profile for listings.
func (p Profile) Describe() string {
	switch p.Shape {
	case Point:
		return "point"
	case Circle, Square, VerticalLine, HorizontalLine:
		return fmt.Sprintf("%s(%g mm)", p.Shape, p.R1)
	default:
		return fmt.Sprintf("%s(%g mm, %g mm)", p.Shape, p.R1, p.R2)
	}
}

func polar(r, phi float64) (float64, float64) {
	s, c := math.Sincos(phi)
	return r * c, r * s
}
