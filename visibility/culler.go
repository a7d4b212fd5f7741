package visibility

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
)

// Culler decides per-frame visibility for points on and above the
// planet surface. The angular stage tests the view cone with asymmetric
// show/hide margins (hysteresis); the occlusion stage casts a ray
// against a slightly shrunk planet so surface objects do not occlude
// themselves.
type Culler struct {
	PlanetRadius float64
	PlanetShrink float64 // occlusion sphere scale, just below 1
}

// NewCuller returns a culler for the given planet radius.
func NewCuller(planetRadius float64) *Culler {
	return &Culler{PlanetRadius: planetRadius, PlanetShrink: 0.985}
}

// Visible runs both stages. wasVisible widens the angular threshold by
// hideExtra, making "become invisible" strictly harder than "become
// visible" so boundary objects do not flicker. occlusionLead nudges the
// tested point outward by that many point radii along its own direction,
// so a tall object's tip rather than its buried base is tested.
//
// Per the hysteresis state machine, a currently visible point is hidden
// only by the angular stage; the occlusion stage gates appearing.
func (c *Culler) Visible(point mgl64.Vec3, pointRadius float64,
	camPos, camForward mgl64.Vec3, viewAngle float64,
	wasVisible bool, margin, hideExtra, occlusionLead float64) bool {

	if !c.angularVisible(point, pointRadius, camPos, camForward, viewAngle, wasVisible, margin, hideExtra) {
		return false
	}
	if wasVisible {
		return true
	}
	return !c.occluded(point, pointRadius, camPos, occlusionLead)
}

func (c *Culler) angularVisible(point mgl64.Vec3, pointRadius float64,
	camPos, camForward mgl64.Vec3, viewAngle float64,
	wasVisible bool, margin, hideExtra float64) bool {

	toPoint := point.Sub(camPos)
	dist := toPoint.Len()
	if dist < core.Epsilon {
		return true
	}
	angle := core.AngleBetween(camForward, toPoint.Mul(1/dist))

	allowed := viewAngle + math.Atan2(pointRadius, dist) + margin
	if wasVisible {
		allowed += hideExtra
	}
	return angle <= allowed
}

// occluded casts the segment from the camera to the lead-adjusted point
// against the shrunk planet sphere.
func (c *Culler) occluded(point mgl64.Vec3, pointRadius float64,
	camPos mgl64.Vec3, occlusionLead float64) bool {

	target := point
	if dir, ok := core.SafeNormalize(point); ok {
		target = point.Add(dir.Mul(pointRadius * occlusionLead))
	}

	seg := target.Sub(camPos)
	segLen := seg.Len()
	if segLen < core.Epsilon {
		return false
	}
	d := seg.Mul(1 / segLen)

	r := c.PlanetRadius * c.PlanetShrink
	b := camPos.Dot(d)
	disc := b*b - (camPos.Dot(camPos) - r*r)
	if disc <= 0 {
		return false
	}
	t := -b - math.Sqrt(disc)
	return t > 0 && t < segLen-core.Epsilon
}
