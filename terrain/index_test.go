package terrain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// TestContactIndexSphere builds an undisplaced sphere mesh and checks
// that queries from any direction return the sphere radius, including
// across the longitude wrap and near the poles.
func TestContactIndexSphere(t *testing.T) {
	f := NewField(20)
	f.DuneHeight = 0 // exact sphere, no displacement
	mesh := BuildMesh(f, 32, 64)
	ix := BuildContactIndex(mesh, 16, 32)

	// Chord error of a 32x64 tessellation stays under this.
	const tol = 0.08

	fixed := []struct {
		name string
		dir  mgl64.Vec3
	}{
		{"Equator", mgl64.Vec3{1, 0, 0}},
		{"LongitudeWrap", mgl64.Vec3{-1, 0, 0.001}.Normalize()},
		{"NearNorthPole", mgl64.Vec3{0.01, 1, 0}.Normalize()},
		{"NearSouthPole", mgl64.Vec3{0, -1, 0.01}.Normalize()},
	}
	for _, tc := range fixed {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := ix.Query(tc.dir)
			if !ok {
				t.Fatal("query missed the mesh")
			}
			if math.Abs(r-20) > tol {
				t.Errorf("radius = %v, want about 20", r)
			}
		})
	}

	t.Run("Random", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 1000; i++ {
			dir := randomDir(rng)
			r, ok := ix.Query(dir)
			if !ok {
				t.Fatalf("query missed at %v", dir)
			}
			if math.Abs(r-20) > tol {
				t.Fatalf("radius %v at %v, want about 20", r, dir)
			}
		}
	})
}

// TestContactIndexMiss checks the fallback contract: a query far from
// any indexed triangle reports a miss and RestRadius falls back to the
// analytic field.
func TestContactIndexMiss(t *testing.T) {
	f := NewField(20)

	// A single triangle patch near the north pole.
	patch := &Mesh{
		Positions: []mgl64.Vec3{
			{0, 20, 0},
			{1, 20, 0},
			{0, 20, 1},
		},
		Indices: []uint32{0, 1, 2},
	}
	ix := BuildContactIndex(patch, 16, 32)

	south := mgl64.Vec3{0, -1, 0}
	if _, ok := ix.Query(south); ok {
		t.Fatal("query on the far side unexpectedly hit")
	}
	if r := RestRadius(f, ix, south); r != f.Radius(south) {
		t.Errorf("RestRadius fallback = %v, want field radius %v", r, f.Radius(south))
	}
}

// TestContactIndexDegenerate checks that zero-area triangles are
// dropped at build time instead of poisoning queries.
func TestContactIndexDegenerate(t *testing.T) {
	degenerate := &Mesh{
		Positions: []mgl64.Vec3{
			{0, 20, 0},
			{0, 20, 0},
			{1, 20, 1},
		},
		Indices: []uint32{0, 1, 2},
	}
	ix := BuildContactIndex(degenerate, 16, 32)
	if len(ix.tris) != 0 {
		t.Errorf("indexed %d degenerate triangles, want 0", len(ix.tris))
	}
	if _, ok := ix.Query(mgl64.Vec3{0, 1, 0}); ok {
		t.Error("query against degenerate-only mesh reported a hit")
	}
}
