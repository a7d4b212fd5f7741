package creature

import "github.com/go-gl/mathgl/mgl64"

// Bulge is one digestion bulge traveling along the body. Progress is the
// 0..1 position from the head, Strength the relative radius increase.
type Bulge struct {
	Progress float64
	Strength float64
}

// Snapshot is the server-decoded state for one creature, head first.
// The snapshot layer validates the directions; this package only
// normalizes them defensively.
type Snapshot struct {
	Dirs          []mgl64.Vec3
	StartIndex    int
	TotalLength   int
	TailExtension float64 // 0..1 fraction of the final segment grown in
	Girth         float64
	Bulges        []Bulge
}

// EffectiveGirth defaults an unset girth to 1 so zero-value snapshots
// keep the base body radius.
func (s *Snapshot) EffectiveGirth() float64 {
	if s.Girth <= 0 {
		return 1
	}
	return s.Girth
}
