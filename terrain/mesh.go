package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is a displaced triangulation of the terrain surface: positions at
// the field radius for each direction, plus triangle indices. It feeds
// both the contact index and the rendering collaborator.
type Mesh struct {
	Positions []mgl64.Vec3
	Indices   []uint32
	Rings     int
	Segments  int
}

// BuildMesh tessellates the field as a UV sphere with rings latitude
// bands and segments longitude slices, displacing every vertex to the
// exact field radius along its direction.
func BuildMesh(f *Field, rings, segments int) *Mesh {
	m := &Mesh{
		Positions: make([]mgl64.Vec3, 0, (rings+1)*(segments+1)),
		Indices:   make([]uint32, 0, rings*segments*6),
		Rings:     rings,
		Segments:  segments,
	}

	for ring := 0; ring <= rings; ring++ {
		theta := float64(ring) * math.Pi / float64(rings)
		sinTheta := math.Sin(theta)
		cosTheta := math.Cos(theta)

		for seg := 0; seg <= segments; seg++ {
			phi := float64(seg) * 2 * math.Pi / float64(segments)
			dir := mgl64.Vec3{
				math.Cos(phi) * sinTheta,
				cosTheta,
				math.Sin(phi) * sinTheta,
			}
			// Poles collapse sinTheta to zero; the direction is still unit.
			m.Positions = append(m.Positions, dir.Mul(f.Radius(dir)))
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments) + 1

			m.Indices = append(m.Indices, current, next, current+1)
			m.Indices = append(m.Indices, current+1, next, next+1)
		}
	}

	return m
}
