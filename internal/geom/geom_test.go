package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-12

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "X")
	assert.InDelta(t, want.Y, got.Y, eps, "Y")
	assert.InDelta(t, want.Z, got.Z, eps, "Z")
}

func TestFromAngles_Identity(t *testing.T) {
	f := FromAngles(0, 0, 0)
	assert.Equal(t, Identity(), f)
}

func TestFromAngles_SingleAxis(t *testing.T) {
	f := FromDegrees(0, 0, 90)
	assertVec(t, r3.Vec{Y: 1}, f.X)
	assertVec(t, r3.Vec{X: -1}, f.Y)
	assertVec(t, r3.Vec{Z: 1}, f.Z)
}

func TestFromAngles_OrderIsXThenYThenZ(t *testing.T) {
	// X by 90 leaves X alone, then Y by 90 takes X to -Z, then Z by 90 leaves -Z.
	f := FromDegrees(90, 90, 90)
	assertVec(t, r3.Vec{Z: -1}, f.X)

	// Applying Z first would give a different forward axis.
	zFirst := r3.NewRotation(math.Pi/2, XAxis).Rotate(
		r3.NewRotation(math.Pi/2, YAxis).Rotate(
			r3.NewRotation(math.Pi/2, ZAxis).Rotate(XAxis)))
	assert.Greater(t, r3.Norm(r3.Sub(zFirst, f.X)), 0.5)
}

func TestFrame_Orthonormal(t *testing.T) {
	f := FromDegrees(17, -33, 121)
	assert.InDelta(t, 1, r3.Norm(f.X), eps)
	assert.InDelta(t, 1, r3.Norm(f.Y), eps)
	assert.InDelta(t, 1, r3.Norm(f.Z), eps)
	assert.InDelta(t, 0, r3.Dot(f.X, f.Y), eps)
	assert.InDelta(t, 0, r3.Dot(f.Y, f.Z), eps)
	assertVec(t, f.Z, r3.Cross(f.X, f.Y))
}

func TestFrame_RoundTrip(t *testing.T) {
	f := FromDegrees(10, 20, 30)
	v := r3.Vec{X: 1.5, Y: -2, Z: 0.25}
	assertVec(t, v, f.ToLocal(f.ToWorld(v)))
}

func TestAngle(t *testing.T) {
	assert.InDelta(t, math.Pi/2, Angle(XAxis, YAxis), eps)
	assert.InDelta(t, math.Pi, Angle(XAxis, r3.Vec{X: -3}), eps)
	assert.InDelta(t, 0, Angle(XAxis, r3.Vec{X: 2}), eps)
}

func TestBox(t *testing.T) {
	b := NewBox(r3.Vec{X: 100}, r3.Vec{X: 3, Y: 6, Z: 60})
	var view DetectorView = b
	assert.Equal(t, r3.Vec{X: 100}, view.Center())
	assert.Equal(t, r3.Vec{X: 3, Y: 6, Z: 60}, view.Size())
	assert.Equal(t, Identity(), view.Rotation())
}
