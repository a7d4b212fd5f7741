package creature

import (
	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
	"slitherworld/terrain"
)

// Node is one elevated spine point: its surface direction, body tangent,
// resolved center radius and the world position Dir*Radius.
type Node struct {
	Dir      mgl64.Vec3
	Tangent  mgl64.Vec3
	Pos      mgl64.Vec3
	Radius   float64
	Support  float64
	Boundary float64 // lake boundary at the node
}

// Placer turns a snapshot's unit directions into a contact-resolved,
// slope-adaptively subdivided centerline. Output and scratch storage are
// retained between frames.
type Placer struct {
	Solver *Solver
	Arena  *core.Arena

	SlopeDelta    float64 // radius step that triggers midpoint insertion
	MinClearance  float64
	SubmergeStart float64 // lake boundary where the submerge blend begins
	SubmergeFull  float64 // lake boundary of full submersion
	SubmergeDepth float64 // body sink below the waterline, in support radii
	MinLakeDepth  float64 // lakes shallower than this never submerge

	nodes  []Node
	sample terrain.Sample
}

// NewPlacer wires a placer to a contact solver and scratch arena with
// the standard tuning.
func NewPlacer(solver *Solver, arena *core.Arena) *Placer {
	return &Placer{
		Solver:        solver,
		Arena:         arena,
		SlopeDelta:    solver.Clearance * 4,
		MinClearance:  solver.Clearance,
		SubmergeStart: 0.35,
		SubmergeFull:  0.75,
		SubmergeDepth: 0.6,
		MinLakeDepth:  solver.Clearance * 3,
	}
}

// Place elevates each input direction above the terrain and inserts a
// solved midpoint wherever two consecutive radii differ by more than
// SlopeDelta, so the mesher never sees a faceted step. Fewer than two
// inputs produce an empty centerline.
func (p *Placer) Place(dirs []mgl64.Vec3, supportRadius, radiusOffset float64) []Node {
	p.nodes = p.nodes[:0]
	n := len(dirs)
	if n < 2 {
		return p.nodes
	}

	unit := p.Arena.Vec3(n)
	for i, d := range dirs {
		u, ok := core.SafeNormalize(d)
		if !ok {
			u = mgl64.Vec3{0, 1, 0}
		}
		unit[i] = u
	}

	tangents := p.Arena.Vec3(n)
	for i := range unit {
		prev := unit[maxInt(i-1, 0)]
		next := unit[minInt(i+1, n-1)]
		tangents[i] = p.tangentAt(unit[i], next.Sub(prev))
	}

	radii := p.Arena.Float64(n)
	bounds := p.Arena.Float64(n)
	for i := range unit {
		radii[i], bounds[i] = p.nodeRadius(unit[i], tangents[i], supportRadius, radiusOffset)
	}

	for i := 0; i < n; i++ {
		p.append(unit[i], tangents[i], radii[i], bounds[i], supportRadius)
		if i == n-1 {
			break
		}
		if abs(radii[i+1]-radii[i]) <= p.SlopeDelta {
			continue
		}
		midDir, ok := core.SafeNormalize(unit[i].Add(unit[i+1]))
		if !ok {
			continue
		}
		midTan := p.tangentAt(midDir, tangents[i].Add(tangents[i+1]))
		r, b := p.nodeRadius(midDir, midTan, supportRadius, radiusOffset)
		p.append(midDir, midTan, r, b, supportRadius)
	}

	return p.nodes
}

// PlaceSnapshot applies the snapshot's tail extension before placement:
// the final direction is blended from its predecessor by the extension
// ratio so growth animates smoothly between server updates.
func (p *Placer) PlaceSnapshot(snap *Snapshot, supportRadius, radiusOffset float64) []Node {
	n := len(snap.Dirs)
	if n < 2 {
		p.nodes = p.nodes[:0]
		return p.nodes
	}

	dirs := p.Arena.Vec3(n)
	copy(dirs, snap.Dirs)
	if ext := snap.TailExtension; ext > 0 && ext < 1 {
		blended := dirs[n-2].Mul(1 - ext).Add(dirs[n-1].Mul(ext))
		if u, ok := core.SafeNormalize(blended); ok {
			dirs[n-1] = u
		}
	}

	return p.Place(dirs, supportRadius*snap.EffectiveGirth(), radiusOffset)
}

// tangentAt projects a raw tangent estimate onto the tangent plane at
// dir, falling back to a deterministic perpendicular when degenerate.
func (p *Placer) tangentAt(dir, raw mgl64.Vec3) mgl64.Vec3 {
	t := raw.Sub(dir.Mul(dir.Dot(raw)))
	if u, ok := core.SafeNormalize(t); ok {
		return u
	}
	return core.PerpendicularTo(dir)
}

// nodeRadius computes the contact-resolved center radius for one node,
// blending toward a submerged radius over deep-enough lakes. The clamp
// keeps the body between terrain plus clearance and the waterline minus
// clearance; the contact lift afterwards wins over the submerge blend.
func (p *Placer) nodeRadius(dir, tangent mgl64.Vec3, supportRadius, radiusOffset float64) (radius, boundary float64) {
	terr := p.Solver.TerrainRadius(dir)
	r := terr + supportRadius + p.MinClearance + radiusOffset

	p.Solver.Field.Sample(dir, &p.sample)
	boundary = p.sample.Boundary
	if p.sample.Lake != nil && p.sample.Lake.Depth >= p.MinLakeDepth && boundary > p.SubmergeStart {
		water := p.Solver.Field.WaterLevel
		submerged := water - supportRadius*p.SubmergeDepth
		submerged = core.Clamp(submerged,
			terr+supportRadius+p.MinClearance,
			water-p.MinClearance)
		w := core.Smoothstep(p.SubmergeStart, p.SubmergeFull, boundary)
		r = core.Lerp(r, submerged, w)
	}

	return p.Solver.Resolve(dir, tangent, r, supportRadius), boundary
}

func (p *Placer) append(dir, tangent mgl64.Vec3, radius, boundary, support float64) {
	p.nodes = append(p.nodes, Node{
		Dir:      dir,
		Tangent:  tangent,
		Pos:      dir.Mul(radius),
		Radius:   radius,
		Support:  support,
		Boundary: boundary,
	})
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
