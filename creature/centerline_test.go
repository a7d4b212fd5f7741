package creature

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
	"slitherworld/terrain"
)

func newTestPlacer(f *terrain.Field) (*Placer, *core.Arena) {
	arena := &core.Arena{}
	solver := NewSolver(f, nil, 0.02)
	return NewPlacer(solver, arena), arena
}

// TestPlaceShortInputs checks the short-circuit for degenerate counts.
func TestPlaceShortInputs(t *testing.T) {
	p, arena := newTestPlacer(terrain.NewField(20))

	tests := []struct {
		name string
		dirs []mgl64.Vec3
	}{
		{"Empty", nil},
		{"Single", []mgl64.Vec3{{0, 0, 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			arena.Reset()
			if nodes := p.Place(tc.dirs, 0.25, 0); len(nodes) != 0 {
				t.Errorf("got %d nodes, want 0", len(nodes))
			}
		})
	}
}

// TestPlaceElevation checks that every node rests above the terrain by
// at least the support radius plus clearance.
func TestPlaceElevation(t *testing.T) {
	f := terrain.NewField(20)
	f.Lakes = append(f.Lakes, terrain.NewLake(mgl64.Vec3{0, 1, 0}, 0.5, 0.3))
	p, arena := newTestPlacer(f)

	dirs := make([]mgl64.Vec3, 12)
	for i := range dirs {
		a := 0.1 + float64(i)*0.05
		dirs[i] = mgl64.Vec3{math.Sin(a), math.Cos(a), 0}
	}

	arena.Reset()
	nodes := p.Place(dirs, 0.25, 0)
	if len(nodes) < len(dirs) {
		t.Fatalf("got %d nodes for %d inputs", len(nodes), len(dirs))
	}
	for i, n := range nodes {
		floor := f.Radius(n.Dir) + n.Support + p.MinClearance
		if n.Radius < floor-1e-9 {
			t.Errorf("node %d radius %v below floor %v", i, n.Radius, floor)
		}
		if math.Abs(n.Tangent.Dot(n.Dir)) > 1e-6 {
			t.Errorf("node %d tangent not in tangent plane", i)
		}
		if math.Abs(n.Pos.Len()-n.Radius) > 1e-9 {
			t.Errorf("node %d position inconsistent with radius", i)
		}
	}
}

// TestMidpointInsertion covers the slope subdivision: a 2-node
// centerline whose node radii differ by more than the threshold must
// gain a midpoint, and one on even ground must not.
func TestMidpointInsertion(t *testing.T) {
	f := terrain.NewField(20)
	f.DuneHeight = 1.0 // steep dunes force large radius steps
	p, arena := newTestPlacer(f)
	p.SlopeDelta = 0.05

	// Scan across the dune band for a 0.01 rad pair whose resolved node
	// radii differ by more than the threshold.
	center := f.BiomeCenter
	tangent := core.PerpendicularTo(center)
	found := false
	for i := 0; i < 200 && !found; i++ {
		a := float64(i) * 0.005
		d1 := core.RotateAbout(center, tangent, a)
		d2 := core.RotateAbout(center, tangent, a+0.01)
		raw := d2.Sub(d1)
		r1, _ := p.nodeRadius(d1, p.tangentAt(d1, raw), 0.25, 0)
		r2, _ := p.nodeRadius(d2, p.tangentAt(d2, raw), 0.25, 0)
		if math.Abs(r1-r2) > p.SlopeDelta*1.01 {
			arena.Reset()
			nodes := p.Place([]mgl64.Vec3{d1, d2}, 0.25, 0)
			if len(nodes) < 3 {
				t.Fatalf("steep pair produced %d nodes, want >= 3", len(nodes))
			}
			found = true
		}
	}
	if !found {
		t.Fatal("no steep pair found in the dune band")
	}

	// Flat ground: no insertion.
	f2 := terrain.NewField(20)
	f2.DuneHeight = 0
	p2, arena2 := newTestPlacer(f2)
	arena2.Reset()
	d := mgl64.Vec3{0, 0, 1}
	d2 := core.RotateAbout(d, mgl64.Vec3{0, 1, 0}, 0.01)
	if nodes := p2.Place([]mgl64.Vec3{d, d2}, 0.25, 0); len(nodes) != 2 {
		t.Errorf("flat pair produced %d nodes, want 2", len(nodes))
	}
}

// TestSubmergeClamp checks that a body over a deep lake sinks toward
// the waterline but never above it and never into the terrain.
func TestSubmergeClamp(t *testing.T) {
	f := terrain.NewField(20)
	f.Lakes = append(f.Lakes, terrain.NewLake(mgl64.Vec3{0, 1, 0}, 0.5, 0.8))
	p, arena := newTestPlacer(f)

	dirs := make([]mgl64.Vec3, 6)
	for i := range dirs {
		a := float64(i) * 0.02
		dirs[i] = mgl64.Vec3{math.Sin(a), math.Cos(a), 0}
	}

	arena.Reset()
	nodes := p.Place(dirs, 0.25, 0)
	for i, n := range nodes {
		if n.Boundary < p.SubmergeFull {
			continue
		}
		if n.Radius > f.WaterLevel+n.Support {
			t.Errorf("submerged node %d radius %v floats above waterline %v",
				i, n.Radius, f.WaterLevel)
		}
		floor := f.Radius(n.Dir) + n.Support + p.MinClearance
		if n.Radius < floor-1e-9 {
			t.Errorf("submerged node %d radius %v below terrain floor %v", i, n.Radius, floor)
		}
	}
}

func TestEffectiveGirth(t *testing.T) {
	tests := []struct {
		name  string
		girth float64
		want  float64
	}{
		{"Unset", 0, 1},
		{"Negative", -2, 1},
		{"Set", 1.5, 1.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Snapshot{Girth: tc.girth}
			if got := s.EffectiveGirth(); got != tc.want {
				t.Errorf("EffectiveGirth() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestTailExtension checks that a partial tail extension pulls the last
// node toward its predecessor.
func TestTailExtension(t *testing.T) {
	f := terrain.NewField(20)
	f.DuneHeight = 0
	p, arena := newTestPlacer(f)

	snap := &Snapshot{
		Dirs: []mgl64.Vec3{
			{0, 0, 1},
			core.RotateAbout(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}, 0.05),
			core.RotateAbout(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}, 0.10),
		},
		Girth: 1,
	}

	arena.Reset()
	full := p.PlaceSnapshot(snap, 0.25, 0)
	fullTail := full[len(full)-1].Dir

	snap.TailExtension = 0.5
	arena.Reset()
	half := p.PlaceSnapshot(snap, 0.25, 0)
	halfTail := half[len(half)-1].Dir

	fullGap := core.AngleBetween(fullTail, snap.Dirs[1])
	halfGap := core.AngleBetween(halfTail, snap.Dirs[1])
	if halfGap >= fullGap {
		t.Errorf("half extension tail gap %v not inside full gap %v", halfGap, fullGap)
	}
}
