package creature

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
)

// Mesh is the flat buffer output of the tube mesher. The tail cap lives
// in its own buffers so the rendering collaborator can address it
// separately. All slices are retained and rewritten in place each frame.
type Mesh struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32

	CapPositions []float32
	CapNormals   []float32
	CapUVs       []float32
	CapIndices   []uint32

	TubularSegments int
	RadialSegments  int
}

// Mesher turns a centerline into a closed tube mesh. Ring spacing is
// arc-length uniform via a fixed-size lookup table over a centripetal
// spline through the centerline, and ring orientation is carried by
// discrete parallel transport instead of a Frenet frame, which avoids
// the 180-degree flips a Frenet frame produces on near-straight or
// inflecting paths.
type Mesher struct {
	SegmentsPerNode int
	UVSlots         int // fixed slot count dividing the u coordinate
	SlotOffset      int // pattern shift for continuity across partial updates
	CapRings        int
	LUTSize         int

	Bulges     []Bulge
	BulgeWidth float64 // half width of a bulge in body-progress units

	mesh Mesh
	ctrl []mgl64.Vec3
	lut  []float64

	centers   []mgl64.Vec3
	tangents  []mgl64.Vec3
	normals   []mgl64.Vec3
	binormals []mgl64.Vec3
}

// NewMesher returns a mesher with the standard tessellation density.
func NewMesher() *Mesher {
	return &Mesher{
		SegmentsPerNode: 4,
		UVSlots:         64,
		CapRings:        4,
		LUTSize:         64,
		BulgeWidth:      0.07,
	}
}

// Build produces the tube mesh for the centerline at the given body
// radius. With fewer than two nodes or fewer than three radial segments
// the returned mesh is empty. The returned pointer aliases retained
// storage; it is valid until the next Build.
func (m *Mesher) Build(nodes []Node, radius float64, radialSegments int) *Mesh {
	if len(nodes) < 2 || radialSegments < 3 {
		m.truncate(0, 0)
		return &m.mesh
	}

	n := len(nodes)
	m.ctrl = core.GrowVec3(m.ctrl, n)
	for i := range nodes {
		m.ctrl[i] = nodes[i].Pos
	}
	m.fillArcLUT()

	spn := m.SegmentsPerNode
	if spn < 1 {
		spn = 1
	}
	tub := spn * (n - 1)
	m.truncate(tub, radialSegments)
	m.centers = core.GrowVec3(m.centers, tub+1)
	m.tangents = core.GrowVec3(m.tangents, tub+1)
	m.normals = core.GrowVec3(m.normals, tub+1)
	m.binormals = core.GrowVec3(m.binormals, tub+1)

	for j := 0; j <= tub; j++ {
		u := m.arcToParam(float64(j) / float64(tub))
		m.centers[j] = m.splinePoint(u)
		m.tangents[j] = m.splineTangent(u, j)
	}
	m.transportFrames(tub)
	m.emitRings(tub, radialSegments, radius)
	m.emitIndices(tub, radialSegments)
	m.emitCap(tub, radialSegments)
	return &m.mesh
}

func (m *Mesher) truncate(tub, rad int) {
	m.mesh.TubularSegments = tub
	m.mesh.RadialSegments = rad
	vcount := 0
	icount := 0
	if tub > 0 {
		vcount = (tub + 1) * (rad + 1)
		icount = tub * rad * 6
	}
	m.mesh.Positions = core.GrowFloat32(m.mesh.Positions, vcount*3)
	m.mesh.Normals = core.GrowFloat32(m.mesh.Normals, vcount*3)
	m.mesh.UVs = core.GrowFloat32(m.mesh.UVs, vcount*2)
	m.mesh.Indices = core.GrowUint32(m.mesh.Indices, icount)
	if tub == 0 {
		m.mesh.CapPositions = m.mesh.CapPositions[:0]
		m.mesh.CapNormals = m.mesh.CapNormals[:0]
		m.mesh.CapUVs = m.mesh.CapUVs[:0]
		m.mesh.CapIndices = m.mesh.CapIndices[:0]
	}
}

// splinePoint evaluates the centripetal Catmull-Rom spline through the
// control points at global parameter u in [0,1].
func (m *Mesher) splinePoint(u float64) mgl64.Vec3 {
	n := len(m.ctrl)
	scaled := core.Clamp(u, 0, 1) * float64(n-1)
	seg := int(scaled)
	if seg > n-2 {
		seg = n - 2
	}
	t := scaled - float64(seg)

	p0 := m.ctrl[maxInt(seg-1, 0)]
	p1 := m.ctrl[seg]
	p2 := m.ctrl[seg+1]
	p3 := m.ctrl[minInt(seg+2, n-1)]
	return catmullRom(p0, p1, p2, p3, t)
}

// catmullRom is the Barry-Goldman form with centripetal (alpha = 0.5)
// knot spacing, which never produces loops or cusps between the control
// points.
func catmullRom(p0, p1, p2, p3 mgl64.Vec3, t float64) mgl64.Vec3 {
	knot := func(a, b mgl64.Vec3, prev float64) float64 {
		d := math.Sqrt(b.Sub(a).Len())
		if d < 1e-6 {
			d = 1e-6
		}
		return prev + d
	}
	t0 := 0.0
	t1 := knot(p0, p1, t0)
	t2 := knot(p1, p2, t1)
	t3 := knot(p2, p3, t2)
	tt := core.Lerp(t1, t2, t)

	a1 := p0.Mul((t1 - tt) / (t1 - t0)).Add(p1.Mul((tt - t0) / (t1 - t0)))
	a2 := p1.Mul((t2 - tt) / (t2 - t1)).Add(p2.Mul((tt - t1) / (t2 - t1)))
	a3 := p2.Mul((t3 - tt) / (t3 - t2)).Add(p3.Mul((tt - t2) / (t3 - t2)))
	b1 := a1.Mul((t2 - tt) / (t2 - t0)).Add(a2.Mul((tt - t0) / (t2 - t0)))
	b2 := a2.Mul((t3 - tt) / (t3 - t1)).Add(a3.Mul((tt - t1) / (t3 - t1)))
	return b1.Mul((t2 - tt) / (t2 - t1)).Add(b2.Mul((tt - t1) / (t2 - t1)))
}

func (m *Mesher) splineTangent(u float64, j int) mgl64.Vec3 {
	const h = 1e-3
	d := m.splinePoint(math.Min(u+h, 1)).Sub(m.splinePoint(math.Max(u-h, 0)))
	if t, ok := core.SafeNormalize(d); ok {
		return t
	}
	if j > 0 {
		return m.tangents[j-1]
	}
	return mgl64.Vec3{1, 0, 0}
}

// fillArcLUT samples the spline at fixed resolution and accumulates
// chord lengths, so ring spacing can be made length-uniform regardless
// of control-point density.
func (m *Mesher) fillArcLUT() {
	size := m.LUTSize
	if size < 2 {
		size = 2
	}
	if cap(m.lut) < size {
		m.lut = make([]float64, size)
	}
	m.lut = m.lut[:size]

	m.lut[0] = 0
	prev := m.splinePoint(0)
	for k := 1; k < size; k++ {
		cur := m.splinePoint(float64(k) / float64(size-1))
		m.lut[k] = m.lut[k-1] + cur.Sub(prev).Len()
		prev = cur
	}
}

// arcToParam maps a 0..1 arc-length fraction to the spline parameter.
func (m *Mesher) arcToParam(s float64) float64 {
	total := m.lut[len(m.lut)-1]
	if total < core.Epsilon {
		return s
	}
	target := core.Clamp(s, 0, 1) * total
	lo, hi := 0, len(m.lut)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if m.lut[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0
	}
	span := m.lut[lo] - m.lut[lo-1]
	frac := 1.0
	if span > core.Epsilon {
		frac = (target - m.lut[lo-1]) / span
	}
	return (float64(lo-1) + frac) / float64(len(m.lut)-1)
}

// transportFrames seeds the first ring normal from the world axis least
// aligned with the initial tangent, then rotates each previous normal by
// the angle between consecutive tangents about their cross product.
func (m *Mesher) transportFrames(tub int) {
	t0 := m.tangents[0]
	m.normals[0] = core.PerpendicularTo(t0)
	m.binormals[0] = t0.Cross(m.normals[0]).Normalize()

	for j := 1; j <= tub; j++ {
		prevT := m.tangents[j-1]
		t := m.tangents[j]
		n := m.normals[j-1]

		axis := prevT.Cross(t)
		if al := axis.Len(); al > core.Epsilon {
			n = core.RotateAbout(n, axis.Mul(1/al), core.AngleBetween(prevT, t))
		}
		// Re-orthogonalize against accumulated drift.
		n = n.Sub(t.Mul(t.Dot(n)))
		if u, ok := core.SafeNormalize(n); ok {
			n = u
		} else {
			n = core.PerpendicularTo(t)
		}
		m.normals[j] = n
		m.binormals[j] = t.Cross(n).Normalize()
	}
}

// bulgeScale is the radius multiplier at a 0..1 body progress from the
// snapshot's digestion bulges: a C1 bump per bulge at its position.
func (m *Mesher) bulgeScale(progress float64) float64 {
	s := 1.0
	for _, b := range m.Bulges {
		x := (progress - b.Progress) / m.BulgeWidth
		if x > -1 && x < 1 {
			w := 1 - x*x
			s += b.Strength * w * w
		}
	}
	return s
}

func (m *Mesher) emitRings(tub, rad int, radius float64) {
	for j := 0; j <= tub; j++ {
		center := m.centers[j]
		n := m.normals[j]
		b := m.binormals[j]
		progress := float64(j) / float64(tub)
		r := radius * m.bulgeScale(progress)
		uCoord := float32(float64(j+m.SlotOffset) / float64(m.UVSlots))

		for i := 0; i <= rad; i++ {
			theta := 2 * math.Pi * float64(i) / float64(rad)
			dir := n.Mul(math.Cos(theta)).Add(b.Mul(math.Sin(theta)))
			pos := center.Add(dir.Mul(r))

			vi := j*(rad+1) + i
			m.mesh.Positions[vi*3] = float32(pos.X())
			m.mesh.Positions[vi*3+1] = float32(pos.Y())
			m.mesh.Positions[vi*3+2] = float32(pos.Z())
			m.mesh.Normals[vi*3] = float32(dir.X())
			m.mesh.Normals[vi*3+1] = float32(dir.Y())
			m.mesh.Normals[vi*3+2] = float32(dir.Z())
			m.mesh.UVs[vi*2] = uCoord
			m.mesh.UVs[vi*2+1] = float32(float64(i) / float64(rad))
		}
	}
}

func (m *Mesher) emitIndices(tub, rad int) {
	k := 0
	for j := 0; j < tub; j++ {
		for i := 0; i < rad; i++ {
			a := uint32(j*(rad+1) + i)
			b := uint32((j+1)*(rad+1) + i)
			m.mesh.Indices[k] = a
			m.mesh.Indices[k+1] = b
			m.mesh.Indices[k+2] = a + 1
			m.mesh.Indices[k+3] = a + 1
			m.mesh.Indices[k+4] = b
			m.mesh.Indices[k+5] = b + 1
			k += 6
		}
	}
}

// emitCap welds a hemispherical fan of shrinking rings onto the last
// tube ring. The ring center, radius and outward axis are reconstructed
// from the emitted positions rather than trusted from intermediate
// state, and the winding follows the sign of the last ring's polygon
// normal against the travel direction so the cap always faces outward.
func (m *Mesher) emitCap(tub, rad int) {
	ringAt := func(ring, i int) mgl64.Vec3 {
		vi := (ring*(rad+1) + i) * 3
		return mgl64.Vec3{
			float64(m.mesh.Positions[vi]),
			float64(m.mesh.Positions[vi+1]),
			float64(m.mesh.Positions[vi+2]),
		}
	}
	ringCenter := func(ring int) mgl64.Vec3 {
		var c mgl64.Vec3
		for i := 0; i < rad; i++ {
			c = c.Add(ringAt(ring, i))
		}
		return c.Mul(1 / float64(rad))
	}

	center := ringCenter(tub)
	capRadius := 0.0
	for i := 0; i < rad; i++ {
		capRadius += ringAt(tub, i).Sub(center).Len()
	}
	capRadius /= float64(rad)

	outward, ok := core.SafeNormalize(center.Sub(ringCenter(tub - 1)))
	if !ok {
		outward = m.tangents[tub]
	}

	// Polygon normal of the last ring decides the cap winding.
	var poly mgl64.Vec3
	for i := 0; i < rad; i++ {
		a := ringAt(tub, i).Sub(center)
		b := ringAt(tub, (i+1)%rad).Sub(center)
		poly = poly.Add(a.Cross(b))
	}
	flip := poly.Dot(outward) < 0

	axisN := m.normals[tub].Sub(outward.Mul(outward.Dot(m.normals[tub])))
	if u, okN := core.SafeNormalize(axisN); okN {
		axisN = u
	} else {
		axisN = core.PerpendicularTo(outward)
	}
	axisB := outward.Cross(axisN).Normalize()

	// Rings stop short of the pole; the last ring fans to the apex.
	levels := m.CapRings
	if levels < 1 {
		levels = 1
	}
	vcount := levels*(rad+1) + 1
	m.mesh.CapPositions = core.GrowFloat32(m.mesh.CapPositions, vcount*3)
	m.mesh.CapNormals = core.GrowFloat32(m.mesh.CapNormals, vcount*3)
	m.mesh.CapUVs = core.GrowFloat32(m.mesh.CapUVs, vcount*2)
	m.mesh.CapIndices = core.GrowUint32(m.mesh.CapIndices, (levels-1)*rad*6+rad*3)

	uCoord := float32(float64(tub+m.SlotOffset) / float64(m.UVSlots))
	for l := 0; l < levels; l++ {
		alpha := (math.Pi / 2) * float64(l) / float64(levels)
		ringR := capRadius * math.Cos(alpha)
		h := capRadius * math.Sin(alpha)
		for i := 0; i <= rad; i++ {
			theta := 2 * math.Pi * float64(i) / float64(rad)
			dir := axisN.Mul(math.Cos(theta)).Add(axisB.Mul(math.Sin(theta)))
			pos := center.Add(dir.Mul(ringR)).Add(outward.Mul(h))
			normal := dir.Mul(math.Cos(alpha)).Add(outward.Mul(math.Sin(alpha)))

			vi := l*(rad+1) + i
			m.mesh.CapPositions[vi*3] = float32(pos.X())
			m.mesh.CapPositions[vi*3+1] = float32(pos.Y())
			m.mesh.CapPositions[vi*3+2] = float32(pos.Z())
			m.mesh.CapNormals[vi*3] = float32(normal.X())
			m.mesh.CapNormals[vi*3+1] = float32(normal.Y())
			m.mesh.CapNormals[vi*3+2] = float32(normal.Z())
			m.mesh.CapUVs[vi*2] = uCoord
			m.mesh.CapUVs[vi*2+1] = float32(float64(i) / float64(rad))
		}
	}
	apex := uint32(vcount - 1)
	apexPos := center.Add(outward.Mul(capRadius))
	m.mesh.CapPositions[apex*3] = float32(apexPos.X())
	m.mesh.CapPositions[apex*3+1] = float32(apexPos.Y())
	m.mesh.CapPositions[apex*3+2] = float32(apexPos.Z())
	m.mesh.CapNormals[apex*3] = float32(outward.X())
	m.mesh.CapNormals[apex*3+1] = float32(outward.Y())
	m.mesh.CapNormals[apex*3+2] = float32(outward.Z())
	m.mesh.CapUVs[apex*2] = uCoord
	m.mesh.CapUVs[apex*2+1] = 0.5

	k := 0
	emit := func(a, b, c uint32) {
		if flip {
			b, c = c, b
		}
		m.mesh.CapIndices[k] = a
		m.mesh.CapIndices[k+1] = b
		m.mesh.CapIndices[k+2] = c
		k += 3
	}
	for l := 0; l < levels-1; l++ {
		for i := 0; i < rad; i++ {
			a := uint32(l*(rad+1) + i)
			b := uint32((l+1)*(rad+1) + i)
			emit(a, a+1, b)
			emit(a+1, b+1, b)
		}
	}
	for i := 0; i < rad; i++ {
		a := uint32((levels-1)*(rad+1) + i)
		emit(a, a+1, apex)
	}
}
