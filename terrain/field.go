package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
)

// Lake is one basin displacement source on the sphere. The shoreline is
// the mean angular radius warped by a three-octave sine sum evaluated on
// the azimuth around the lake center, which keeps the outline organic
// rather than circular.
type Lake struct {
	Center    mgl64.Vec3
	Tangent   mgl64.Vec3
	Bitangent mgl64.Vec3

	Radius      float64 // mean shoreline angular radius, radians
	Depth       float64 // basin depth at full boundary
	ShelfDepth  float64 // shallow rim depth near the shoreline
	EdgeFalloff float64 // angular width of the shoreline blend

	WarpFreq  [3]float64
	WarpAmp   [3]float64 // relative to Radius; sum must stay well below 1
	WarpPhase [3]float64
}

// NewLake builds a lake centered on the given unit direction with a
// tangent basis derived from it and default warp octaves.
func NewLake(center mgl64.Vec3, radius, depth float64) Lake {
	c := center.Normalize()
	t := core.PerpendicularTo(c)
	return Lake{
		Center:      c,
		Tangent:     t,
		Bitangent:   c.Cross(t).Normalize(),
		Radius:      radius,
		Depth:       depth,
		ShelfDepth:  depth * 0.35,
		EdgeFalloff: radius * 0.25,
		WarpFreq:    [3]float64{3, 5, 8},
		WarpAmp:     [3]float64{0.10, 0.05, 0.025},
		WarpPhase:   [3]float64{0.9, 2.3, 4.1},
	}
}

// maxWarp is the largest relative shoreline displacement the warp can
// produce; directions beyond Radius*(1+maxWarp)+EdgeFalloff are exactly
// outside, which lets Sample reject distant lakes without a value jump.
func (l *Lake) maxWarp() float64 {
	return l.WarpAmp[0] + l.WarpAmp[1] + l.WarpAmp[2]
}

// Boundary returns the 0..1 shoreline blend for a unit direction:
// 1 deep inside the lake, 0 at and beyond the warped shoreline.
func (l *Lake) Boundary(dir mgl64.Vec3) float64 {
	theta := core.AngleBetween(dir, l.Center)
	if theta >= l.Radius*(1+l.maxWarp())+l.EdgeFalloff {
		return 0
	}
	az := math.Atan2(dir.Dot(l.Bitangent), dir.Dot(l.Tangent))
	warp := 0.0
	for i := 0; i < 3; i++ {
		warp += math.Sin(az*l.WarpFreq[i]+l.WarpPhase[i]) * l.WarpAmp[i]
	}
	edge := l.Radius * (1 + warp)
	return 1 - core.Smoothstep(edge-l.EdgeFalloff, edge, theta)
}

// depthAt converts a boundary value into a carve depth. Tiered blend:
// the shelf appears first, the basin floor fills in toward the middle,
// and a quadratic pit bonus deepens the very center. Continuous in b.
func (l *Lake) depthAt(b float64) float64 {
	d := l.ShelfDepth * core.Smoothstep(0, 0.4, b)
	d += (l.Depth - l.ShelfDepth) * core.Smoothstep(0.4, 0.85, b)
	pit := core.Smoothstep(0.85, 1, b)
	d += l.Depth * 0.2 * pit * pit
	return d
}

// Sample is the result of querying the field at one direction.
// Lake is nil when the direction is outside every shoreline.
type Sample struct {
	Boundary float64
	Depth    float64
	Lake     *Lake
}

// Field is the analytic height function over unit-sphere directions:
// lake basins carved below the base radius plus a dune band raised above
// it around a fixed biome center. All queries are pure and continuous.
type Field struct {
	BaseRadius float64
	WaterLevel float64 // lake surface radius
	Lakes      []Lake

	BiomeCenter    mgl64.Vec3
	BiomeTangent   mgl64.Vec3
	BiomeBitangent mgl64.Vec3
	DuneInner      float64 // cos distance of full dune strength
	DuneOuter      float64 // cos distance where dunes fade to zero
	DuneHeight     float64
	DuneFreq       float64
}

// NewField builds a field with the default dune band and no lakes.
func NewField(baseRadius float64) *Field {
	center := mgl64.Vec3{1, 0.3, -0.2}.Normalize()
	t := core.PerpendicularTo(center)
	return &Field{
		BaseRadius:     baseRadius,
		WaterLevel:     baseRadius - baseRadius*0.002,
		BiomeCenter:    center,
		BiomeTangent:   t,
		BiomeBitangent: center.Cross(t).Normalize(),
		DuneInner:      math.Cos(0.35),
		DuneOuter:      math.Cos(0.85),
		DuneHeight:     baseRadius * 0.012,
		DuneFreq:       26,
	}
}

// Sample evaluates the lake mask at dir, writing into out. The owning
// lake is the one with the largest boundary value; ties keep the first.
// Depth is the max carve over all lakes, not the owner's alone, so the
// surface stays continuous where overlapping basins trade ownership.
func (f *Field) Sample(dir mgl64.Vec3, out *Sample) {
	out.Boundary = 0
	out.Depth = 0
	out.Lake = nil
	for i := range f.Lakes {
		l := &f.Lakes[i]
		b := l.Boundary(dir)
		if b == 0 {
			continue
		}
		if b > out.Boundary {
			out.Boundary = b
			out.Lake = l
		}
		if d := l.depthAt(b); d > out.Depth {
			out.Depth = d
		}
	}
}

// duneOffset returns the dune height displacement at dir: a sine sum on
// local biome coordinates, faded in by cosine distance to the biome
// center. Grows from exactly zero at the band edge.
func (f *Field) duneOffset(dir mgl64.Vec3) float64 {
	w := core.Smoothstep(f.DuneOuter, f.DuneInner, dir.Dot(f.BiomeCenter))
	if w == 0 {
		return 0
	}
	u := dir.Dot(f.BiomeTangent)
	v := dir.Dot(f.BiomeBitangent)
	n := math.Sin(u*f.DuneFreq) +
		0.5*math.Sin(v*f.DuneFreq*1.37+1.7) +
		0.25*math.Sin((u+v)*f.DuneFreq*0.71+0.4)
	return w * f.DuneHeight * (n / 1.75)
}

// Radius returns the terrain surface radius at a unit direction:
// base radius plus dune offset minus the lake carve depth.
func (f *Field) Radius(dir mgl64.Vec3) float64 {
	var s Sample
	f.Sample(dir, &s)
	depth := s.Depth
	if depth < 0 {
		depth = 0
	}
	return f.BaseRadius + f.duneOffset(dir) - depth
}
