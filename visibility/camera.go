package visibility

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the orbiting view state the culler and viewer consume:
// a world orientation, a signed distance along the view axis, an
// optional vertical offset and the viewport aspect ratio.
type Camera struct {
	Orientation    mgl64.Quat
	Distance       float64
	VerticalOffset float64
	Aspect         float64
}

// NewCamera returns an identity-oriented camera at the given distance.
func NewCamera(distance float64) Camera {
	return Camera{
		Orientation: mgl64.QuatIdent(),
		Distance:    distance,
		Aspect:      16.0 / 9.0,
	}
}

// Position is the camera's world position.
func (c Camera) Position() mgl64.Vec3 {
	return c.Orientation.Rotate(mgl64.Vec3{0, c.VerticalOffset, c.Distance})
}

// Forward is the camera's view direction, toward the planet center.
func (c Camera) Forward() mgl64.Vec3 {
	p := c.Position()
	l := p.Len()
	if l < 1e-12 {
		return mgl64.Vec3{0, 0, -1}
	}
	return p.Mul(-1 / l)
}

// HorizonAngle is the angular radius of the visible planet cap as seen
// from the camera; the culler widens this with its margins.
func (c Camera) HorizonAngle(planetRadius float64) float64 {
	d := math.Abs(c.Distance)
	if d <= planetRadius {
		return math.Pi / 2
	}
	return math.Asin(planetRadius / d)
}
