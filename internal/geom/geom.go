// Package geom holds the small amount of 3D geometry the particle source
// needs: orthonormal frames built from axis rotations and a read-only view
// of the detector it aims at.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Unit axes of the world frame.
var (
	XAxis = r3.Vec{X: 1}
	YAxis = r3.Vec{Y: 1}
	ZAxis = r3.Vec{Z: 1}
)

// Frame is an orthonormal basis. Its axes are the columns of the rotation
// that takes local coordinates to world coordinates.
type Frame struct {
	X, Y, Z r3.Vec
}

// Identity returns the world frame.
func Identity() Frame {
	return Frame{X: XAxis, Y: YAxis, Z: ZAxis}
}

// FromAngles rotates the world axes about X by ax, then about Y by ay, then
// about Z by az (radians). The order is fixed: it defines which way the
// source points for every later sample.
func FromAngles(ax, ay, az float64) Frame {
	f := Identity()
	for _, step := range []struct {
		angle float64
		axis  r3.Vec
	}{
		{ax, XAxis},
		{ay, YAxis},
		{az, ZAxis},
	} {
		if step.angle == 0 {
			continue
		}
		rot := r3.NewRotation(step.angle, step.axis)
		f.X = rot.Rotate(f.X)
		f.Y = rot.Rotate(f.Y)
		f.Z = rot.Rotate(f.Z)
	}
	return f
}

// FromDegrees is FromAngles with angles in degrees.
func FromDegrees(ax, ay, az float64) Frame {
	return FromAngles(Radians(ax), Radians(ay), Radians(az))
}

// ToWorld maps local coordinates to world coordinates.
func (f Frame) ToWorld(v r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(v.X, f.X), r3.Scale(v.Y, f.Y)), r3.Scale(v.Z, f.Z))
}

// ToLocal maps world coordinates to local coordinates.
func (f Frame) ToLocal(v r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(v, f.X), Y: r3.Dot(v, f.Y), Z: r3.Dot(v, f.Z)}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Angle returns the angle between two non-zero vectors in radians.
func Angle(a, b r3.Vec) float64 {
	c := r3.Dot(a, b) / (r3.Norm(a) * r3.Norm(b))
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// DetectorView is the read-only geometry of the detector the source aims at
// in pseudo-isotropic mode.
type DetectorView interface {
	// Center is the detector position in world coordinates (mm).
	Center() r3.Vec
	// Size is the full bounding-box extent along the detector's own axes (mm).
	Size() r3.Vec
	// Rotation is the detector's orientation.
	Rotation() Frame
}

// Box is a static DetectorView.
type Box struct {
	Pos    r3.Vec
	Extent r3.Vec
	Orient Frame
}

// NewBox returns an axis-aligned box detector.
func NewBox(center, size r3.Vec) *Box {
	return &Box{Pos: center, Extent: size, Orient: Identity()}
}

// Center implements DetectorView.
func (b *Box) Center() r3.Vec { return b.Pos }

// Size implements DetectorView.
func (b *Box) Size() r3.Vec { return b.Extent }

// Rotation implements DetectorView.
func (b *Box) Rotation() Frame { return b.Orient }
