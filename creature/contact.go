package creature

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
	"slitherworld/terrain"
)

// Solver lifts centerline points until a support radius around them
// clears the terrain. One Lift pass samples a half-circle arc below the
// point and computes the exact radial correction per sample from the
// quadratic |p + lift*n| = required; Resolve iterates passes because a
// lift changes which samples penetrate.
type Solver struct {
	Field *terrain.Field
	Index *terrain.ContactIndex // optional, falls back to Field

	Samples   int     // arc samples per pass, odd preferred, >= 3
	Clearance float64 // minimum terrain clearance per sample
	MaxPasses int
	Epsilon   float64 // convergence threshold on the pass lift
}

// NewSolver returns a solver with the standard sample and pass budget.
func NewSolver(f *terrain.Field, ix *terrain.ContactIndex, clearance float64) *Solver {
	return &Solver{
		Field:     f,
		Index:     ix,
		Samples:   5,
		Clearance: clearance,
		MaxPasses: 4,
		Epsilon:   1e-5,
	}
}

// TerrainRadius queries the mesh index when present and falls back to
// the analytic field on a miss.
func (s *Solver) TerrainRadius(dir mgl64.Vec3) float64 {
	if s.Index != nil {
		if r, ok := s.Index.Query(dir); ok {
			return r
		}
	}
	return s.Field.Radius(dir)
}

// Lift returns the radial lift required so every arc sample around the
// point at normal*centerRadius clears the terrain by Clearance. The arc
// spans the half circle below the point in the plane of normal and
// bitangent; bitangent must be orthogonal to the body tangent.
func (s *Solver) Lift(normal, bitangent mgl64.Vec3, centerRadius, supportRadius float64) float64 {
	n := s.Samples
	if n < 3 {
		n = 3
	}

	center := normal.Mul(centerRadius)
	maxLift := 0.0
	for k := 0; k < n; k++ {
		phi := -math.Pi/2 + math.Pi*float64(k)/float64(n-1)
		off := normal.Mul(-math.Cos(phi)).Add(bitangent.Mul(math.Sin(phi)))
		p := center.Add(off.Mul(supportRadius))

		d := p.Len()
		if d < core.Epsilon {
			continue
		}
		required := s.TerrainRadius(p.Mul(1/d)) + s.Clearance
		if d >= required {
			continue
		}

		// Solve |p + lift*normal|^2 = required^2 for the positive root.
		pn := p.Dot(normal)
		disc := pn*pn - (d*d - required*required)
		lift := -pn + math.Sqrt(disc)
		if lift > maxLift {
			maxLift = lift
		}
	}
	return maxLift
}

// Resolve iterates Lift until convergence and returns the final center
// radius. tangent is the body direction at the point; a degenerate
// tangent falls back to a deterministic perpendicular basis.
func (s *Solver) Resolve(dir, tangent mgl64.Vec3, centerRadius, supportRadius float64) float64 {
	bitangent, ok := core.SafeNormalize(dir.Cross(tangent))
	if !ok {
		bitangent = core.PerpendicularTo(dir)
	}

	r := centerRadius
	for pass := 0; pass < s.MaxPasses; pass++ {
		lift := s.Lift(dir, bitangent, r, supportRadius)
		r += lift
		if lift <= s.Epsilon {
			break
		}
	}
	return r
}
