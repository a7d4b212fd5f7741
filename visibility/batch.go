package visibility

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Margins bundles the culling thresholds a batch is evaluated with.
type Margins struct {
	Show          float64 // extra view-cone margin for appearing
	HideExtra     float64 // additional margin before a visible entry hides
	OcclusionLead float64 // tip offset in point radii for the occlusion ray
}

// Batch culls one category of same-kind static instances (trees of one
// variant, pebbles, mountains) and maintains a persistent visible-index
// list. Changed is true only for frames where the visible set actually
// differs, so instance transform buffers are rewritten only then.
type Batch struct {
	Kind   string
	Points []mgl64.Vec3
	Radii  []float64

	// Changed reports whether Visible differs from the previous frame.
	Changed bool

	visible []bool
	current []int32
	prev    []int32
}

// NewBatch wraps representative points and radii; the slices are
// referenced, not copied, and must stay alive with the batch.
func NewBatch(kind string, points []mgl64.Vec3, radii []float64) *Batch {
	return &Batch{
		Kind:    kind,
		Points:  points,
		Radii:   radii,
		visible: make([]bool, len(points)),
		current: make([]int32, 0, len(points)),
		prev:    make([]int32, 0, len(points)),
	}
}

// Visible is the current visible-index list, valid until the next Update.
func (b *Batch) Visible() []int32 {
	return b.current
}

// Update re-evaluates every entry against the camera. Each entry runs
// the Hidden/Visible state machine: hidden entries need the angular and
// occlusion stages to pass, visible entries only hide when the angular
// stage fails at the widened hide threshold.
func (b *Batch) Update(c *Culler, cam Camera, viewAngle float64, m Margins) {
	camPos := cam.Position()
	camForward := cam.Forward()

	b.prev, b.current = b.current, b.prev[:0]
	for i := range b.Points {
		v := c.Visible(b.Points[i], b.Radii[i], camPos, camForward,
			viewAngle, b.visible[i], m.Show, m.HideExtra, m.OcclusionLead)
		b.visible[i] = v
		if v {
			b.current = append(b.current, int32(i))
		}
	}

	b.Changed = !equalIndices(b.current, b.prev)
}

func equalIndices(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
