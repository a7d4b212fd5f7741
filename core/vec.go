package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon below which a vector length or determinant is treated as degenerate.
const Epsilon = 1e-9

// Clamp limits x to the range [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep is the standard cubic hermite blend: 0 at edge0, 1 at edge1.
// edge0 may be greater than edge1, in which case the blend is reversed.
func Smoothstep(edge0, edge1, x float64) float64 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// SafeNormalize returns the unit vector of v, or false if v is too short
// to normalize reliably.
func SafeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// LeastAlignedAxis returns the world axis with the smallest absolute
// component along v. Used as the deterministic seed for fallback bases.
func LeastAlignedAxis(v mgl64.Vec3) mgl64.Vec3 {
	ax, ay, az := math.Abs(v.X()), math.Abs(v.Y()), math.Abs(v.Z())
	if ax <= ay && ax <= az {
		return mgl64.Vec3{1, 0, 0}
	}
	if ay <= az {
		return mgl64.Vec3{0, 1, 0}
	}
	return mgl64.Vec3{0, 0, 1}
}

// PerpendicularTo returns a unit vector orthogonal to v, built from the
// world axis least aligned with v. v must be non-zero.
func PerpendicularTo(v mgl64.Vec3) mgl64.Vec3 {
	axis := LeastAlignedAxis(v)
	p := axis.Sub(v.Mul(v.Dot(axis) / v.Dot(v)))
	if u, ok := SafeNormalize(p); ok {
		return u
	}
	// v was (near) zero; any axis serves.
	return axis
}

// AngleBetween returns the angle in radians between two unit vectors.
func AngleBetween(a, b mgl64.Vec3) float64 {
	return math.Acos(Clamp(a.Dot(b), -1, 1))
}

// RotateAbout rotates v around the unit axis by angle radians.
func RotateAbout(v, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	return mgl64.QuatRotate(angle, axis).Rotate(v)
}

// LatLon converts a unit direction to latitude/longitude in radians.
// Y points to the north pole, matching the planet coordinate convention.
func LatLon(dir mgl64.Vec3) (lat, lon float64) {
	lat = math.Asin(Clamp(dir.Y(), -1, 1))
	lon = math.Atan2(dir.Z(), dir.X())
	return lat, lon
}
