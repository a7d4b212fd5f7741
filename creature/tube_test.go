package creature

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
)

func arcNodes(n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		dir := core.RotateAbout(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}, float64(i)*0.05)
		nodes[i] = Node{Dir: dir, Radius: 20, Pos: dir.Mul(20)}
	}
	return nodes
}

func TestBuildDegenerate(t *testing.T) {
	m := NewMesher()
	tests := []struct {
		name   string
		nodes  []Node
		radial int
	}{
		{"NoNodes", nil, 12},
		{"OneNode", arcNodes(1), 12},
		{"TooFewRadial", arcNodes(5), 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mesh := m.Build(tc.nodes, 0.25, tc.radial)
			if len(mesh.Positions) != 0 || len(mesh.Indices) != 0 {
				t.Errorf("degenerate input produced %d positions, %d indices",
					len(mesh.Positions), len(mesh.Indices))
			}
		})
	}
}

// TestBuildFloorsSegmentsPerNode checks that a zero segments-per-node
// still yields one tubular segment per node pair instead of NaN rings.
func TestBuildFloorsSegmentsPerNode(t *testing.T) {
	m := NewMesher()
	m.SegmentsPerNode = 0
	const rad = 6
	mesh := m.Build(arcNodes(2), 0.25, rad)

	if mesh.TubularSegments != 1 {
		t.Fatalf("TubularSegments = %d, want 1", mesh.TubularSegments)
	}
	if want := 2 * (rad + 1) * 3; len(mesh.Positions) != want {
		t.Fatalf("positions = %d floats, want %d", len(mesh.Positions), want)
	}
	for i, p := range mesh.Positions {
		if math.IsNaN(float64(p)) {
			t.Fatalf("NaN position at %d", i)
		}
	}
}

// TestBuildTopology checks the buffer sizes and index bounds of the tube
// and its cap: every triangle must reference an emitted vertex.
func TestBuildTopology(t *testing.T) {
	m := NewMesher()
	nodes := arcNodes(6)
	const rad = 12
	mesh := m.Build(nodes, 0.25, rad)

	tub := m.SegmentsPerNode * (len(nodes) - 1)
	if mesh.TubularSegments != tub {
		t.Fatalf("TubularSegments = %d, want %d", mesh.TubularSegments, tub)
	}
	vcount := (tub + 1) * (rad + 1)
	if len(mesh.Positions) != vcount*3 {
		t.Errorf("positions = %d floats, want %d", len(mesh.Positions), vcount*3)
	}
	if len(mesh.Normals) != vcount*3 {
		t.Errorf("normals = %d floats, want %d", len(mesh.Normals), vcount*3)
	}
	if len(mesh.UVs) != vcount*2 {
		t.Errorf("uvs = %d floats, want %d", len(mesh.UVs), vcount*2)
	}
	if len(mesh.Indices) != tub*rad*6 {
		t.Errorf("indices = %d, want %d", len(mesh.Indices), tub*rad*6)
	}
	for k, idx := range mesh.Indices {
		if int(idx) >= vcount {
			t.Fatalf("index %d at %d out of range %d", idx, k, vcount)
		}
	}

	capVerts := m.CapRings*(rad+1) + 1
	if len(mesh.CapPositions) != capVerts*3 {
		t.Errorf("cap positions = %d floats, want %d", len(mesh.CapPositions), capVerts*3)
	}
	wantCapIdx := (m.CapRings-1)*rad*6 + rad*3
	if len(mesh.CapIndices) != wantCapIdx {
		t.Errorf("cap indices = %d, want %d", len(mesh.CapIndices), wantCapIdx)
	}
	for k, idx := range mesh.CapIndices {
		if int(idx) >= capVerts {
			t.Fatalf("cap index %d at %d out of range %d", idx, k, capVerts)
		}
	}
}

// TestSeamWeld checks the duplicated seam vertex: ring vertex 0 and
// ring vertex rad coincide in position and normal while their v
// coordinates span the full 0..1 range.
func TestSeamWeld(t *testing.T) {
	m := NewMesher()
	const rad = 12
	mesh := m.Build(arcNodes(6), 0.25, rad)

	for j := 0; j <= mesh.TubularSegments; j++ {
		first := j * (rad + 1)
		last := first + rad
		for c := 0; c < 3; c++ {
			dp := math.Abs(float64(mesh.Positions[first*3+c] - mesh.Positions[last*3+c]))
			if dp > 1e-5 {
				t.Fatalf("ring %d seam position split by %v", j, dp)
			}
			dn := math.Abs(float64(mesh.Normals[first*3+c] - mesh.Normals[last*3+c]))
			if dn > 1e-5 {
				t.Fatalf("ring %d seam normal split by %v", j, dn)
			}
		}
		if v0, v1 := mesh.UVs[first*2+1], mesh.UVs[last*2+1]; v0 != 0 || v1 != 1 {
			t.Fatalf("ring %d seam v = %v..%v, want 0..1", j, v0, v1)
		}
	}
}

// TestSlotOffsetShiftsU checks that the pattern offset shifts every
// ring's u coordinate by whole slots, which keeps the skin pattern
// steady while the head index advances.
func TestSlotOffsetShiftsU(t *testing.T) {
	m := NewMesher()
	const rad = 8
	nodes := arcNodes(4)

	base := append([]float32(nil), m.Build(nodes, 0.25, rad).UVs...)
	m.SlotOffset = 3
	shifted := m.Build(nodes, 0.25, rad).UVs

	want := float32(3) / float32(m.UVSlots)
	for vi := 0; vi < len(base)/2; vi++ {
		diff := shifted[vi*2] - base[vi*2]
		if math.Abs(float64(diff-want)) > 1e-6 {
			t.Fatalf("vertex %d u shift = %v, want %v", vi, diff, want)
		}
	}
}

// TestBulgeWidensRings checks that a digestion bulge widens the rings
// near its progress position and leaves distant rings alone.
func TestBulgeWidensRings(t *testing.T) {
	m := NewMesher()
	const rad = 12
	const radius = 0.25
	nodes := arcNodes(6)

	ringRadius := func(mesh *Mesh, ring int) float64 {
		var center mgl64.Vec3
		at := func(i int) mgl64.Vec3 {
			vi := (ring*(rad+1) + i) * 3
			return mgl64.Vec3{
				float64(mesh.Positions[vi]),
				float64(mesh.Positions[vi+1]),
				float64(mesh.Positions[vi+2]),
			}
		}
		for i := 0; i < rad; i++ {
			center = center.Add(at(i))
		}
		center = center.Mul(1 / float64(rad))
		sum := 0.0
		for i := 0; i < rad; i++ {
			sum += at(i).Sub(center).Len()
		}
		return sum / float64(rad)
	}

	m.Bulges = []Bulge{{Progress: 0.5, Strength: 0.5}}
	mesh := m.Build(nodes, radius, rad)
	mid := mesh.TubularSegments / 2

	if r := ringRadius(mesh, mid); r < radius*1.3 {
		t.Errorf("bulged ring radius %v, want well above %v", r, radius)
	}
	if r := ringRadius(mesh, 0); math.Abs(r-radius) > radius*0.02 {
		t.Errorf("head ring radius %v disturbed by distant bulge", r)
	}
}
