package creature

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// circlePoints lays n points around a full circle of the given radius in
// the XY plane, so the two ends of the index range meet in space.
func circlePoints(n int, radius float64) []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = mgl64.Vec3{radius * math.Cos(a), radius * math.Sin(a), 0}
	}
	return pts
}

// TestDetectLoopClosure puts the centerline on a closed circle: the two
// index ends sit one step apart in space, so they glow at full strength,
// while the middle of the body stays dark.
func TestDetectLoopClosure(t *testing.T) {
	d := NewDetector()
	pts := circlePoints(20, 3)

	out, maxI := d.Detect(pts, 1)
	if len(out) != len(pts) {
		t.Fatalf("output length %d, want %d", len(out), len(pts))
	}
	if out[0] < 0.6 || out[19] < 0.6 {
		t.Errorf("loop ends glow %v / %v, want >= 0.6", out[0], out[19])
	}
	if out[10] > 0.05 {
		t.Errorf("mid-body glow %v, want near 0", out[10])
	}
	if maxI < 0.6 {
		t.Errorf("max intensity %v, want >= 0.6", maxI)
	}
	if maxI > 1 {
		t.Errorf("max intensity %v exceeds 1", maxI)
	}
}

// TestDetectSymmetry disables the blur and checks the raw field is
// symmetric under reversing the index order, since distance and index
// gap both are.
func TestDetectSymmetry(t *testing.T) {
	d := NewDetector()
	d.BlurPasses = 0
	pts := circlePoints(20, 3)

	out, _ := d.Detect(pts, 1)
	for i := 0; i < len(out)/2; i++ {
		j := len(out) - 1 - i
		if diff := math.Abs(float64(out[i] - out[j])); diff > 1e-6 {
			t.Errorf("asymmetric glow: out[%d]=%v out[%d]=%v", i, out[i], j, out[j])
		}
	}
}

// TestDetectStraightBody checks that consecutive segments of a stretched
// body never read as overlap: the adjacency gap excludes them.
func TestDetectStraightBody(t *testing.T) {
	d := NewDetector()
	pts := make([]mgl64.Vec3, 20)
	for i := range pts {
		pts[i] = mgl64.Vec3{float64(i), 0, 0}
	}

	out, maxI := d.Detect(pts, 0.5)
	if maxI != 0 {
		t.Fatalf("straight body max glow %v, want 0", maxI)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("straight body glow at %d = %v", i, v)
		}
	}
}

func TestDetectShortCircuits(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		pts    []mgl64.Vec3
		radius float64
	}{
		{"TooFewPoints", circlePoints(d.MinPoints-1, 3), 1},
		{"ZeroRadius", circlePoints(20, 3), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, maxI := d.Detect(tc.pts, tc.radius)
			if maxI != 0 {
				t.Errorf("max intensity %v, want 0", maxI)
			}
			if len(out) != len(tc.pts) {
				t.Errorf("output length %d, want %d", len(out), len(tc.pts))
			}
			for i, v := range out {
				if v != 0 {
					t.Errorf("glow at %d = %v, want 0", i, v)
				}
			}
		})
	}
}

// TestDetectReusesStorage checks the pooling contract across frames.
func TestDetectReusesStorage(t *testing.T) {
	d := NewDetector()
	pts := circlePoints(20, 3)

	first, _ := d.Detect(pts, 1)
	second, _ := d.Detect(pts, 1)
	if &first[0] != &second[0] {
		t.Error("detector did not reuse the output buffer")
	}
}
