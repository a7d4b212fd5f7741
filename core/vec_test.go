package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPerpendicularTo(t *testing.T) {
	tests := []struct {
		name string
		v    mgl64.Vec3
	}{
		{"XAxis", mgl64.Vec3{1, 0, 0}},
		{"YAxis", mgl64.Vec3{0, 1, 0}},
		{"ZAxis", mgl64.Vec3{0, 0, 1}},
		{"Diagonal", mgl64.Vec3{1, 1, 1}.Normalize()},
		{"NearX", mgl64.Vec3{0.99, 0.1, 0.05}.Normalize()},
		{"Negative", mgl64.Vec3{-0.3, -0.8, 0.5}.Normalize()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := PerpendicularTo(tc.v)
			if math.Abs(p.Len()-1) > 1e-9 {
				t.Errorf("perpendicular not unit length: %f", p.Len())
			}
			if dot := math.Abs(p.Dot(tc.v)); dot > 1e-9 {
				t.Errorf("perpendicular not orthogonal: dot=%g", dot)
			}
			// Deterministic: repeated calls agree.
			if q := PerpendicularTo(tc.v); !q.ApproxEqual(p) {
				t.Errorf("fallback basis not deterministic: %v vs %v", p, q)
			}
		})
	}
}

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		name           string
		edge0, edge1, x float64
		want           float64
	}{
		{"BelowEdge", 0, 1, -0.5, 0},
		{"AtEdge0", 0, 1, 0, 0},
		{"Middle", 0, 1, 0.5, 0.5},
		{"AtEdge1", 0, 1, 1, 1},
		{"AboveEdge", 0, 1, 2, 1},
		{"ReversedInside", 1, 0, 0.25, 0.84375},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Smoothstep(tc.edge0, tc.edge1, tc.x)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Smoothstep(%v,%v,%v) = %v, want %v",
					tc.edge0, tc.edge1, tc.x, got, tc.want)
			}
		})
	}
}

func TestRotateAbout(t *testing.T) {
	v := mgl64.Vec3{1, 0, 0}
	got := RotateAbout(v, mgl64.Vec3{0, 0, 1}, math.Pi/2)
	want := mgl64.Vec3{0, 1, 0}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("RotateAbout quarter turn = %v, want %v", got, want)
	}
}

func TestArenaReuse(t *testing.T) {
	var a Arena
	a.Reset()
	s1 := a.Vec3(8)
	a.Reset()
	s2 := a.Vec3(4)
	if &s1[0] != &s2[0] {
		t.Error("arena did not reuse backing storage after reset")
	}
	if len(s2) != 4 {
		t.Errorf("scratch length = %d, want 4", len(s2))
	}
}
