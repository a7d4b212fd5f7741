package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
)

// detEpsilon rejects rays parallel to a triangle plane.
const detEpsilon = 1e-12

// contactTriangle stores one terrain triangle as a vertex plus two edge
// vectors, the form the intersection test consumes directly.
type contactTriangle struct {
	v0 mgl64.Vec3
	e1 mgl64.Vec3
	e2 mgl64.Vec3
}

// ContactIndex answers "exact terrain radius at this direction" against
// the triangulated terrain mesh. Triangle centroids are bucketed into a
// latitude-band by longitude-slice grid; a query ray from the planet
// center only tests the 3x3 neighborhood of buckets around its cell.
type ContactIndex struct {
	bands  int
	slices int
	tris   []contactTriangle
	bucket [][]int32
}

// BuildContactIndex partitions the mesh triangles into a bands x slices
// grid. Degenerate triangles (zero-area) are dropped at build time.
func BuildContactIndex(m *Mesh, bands, slices int) *ContactIndex {
	ix := &ContactIndex{
		bands:  bands,
		slices: slices,
		tris:   make([]contactTriangle, 0, len(m.Indices)/3),
		bucket: make([][]int32, bands*slices),
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Positions[m.Indices[i]]
		b := m.Positions[m.Indices[i+1]]
		c := m.Positions[m.Indices[i+2]]
		e1 := b.Sub(a)
		e2 := c.Sub(a)
		if e1.Cross(e2).Len() < core.Epsilon {
			continue
		}

		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		dir, ok := core.SafeNormalize(centroid)
		if !ok {
			continue
		}
		cell := ix.cellOf(dir)
		ix.bucket[cell] = append(ix.bucket[cell], int32(len(ix.tris)))
		ix.tris = append(ix.tris, contactTriangle{v0: a, e1: e1, e2: e2})
	}

	return ix
}

// cellOf quantizes a unit direction into a bucket index.
func (ix *ContactIndex) cellOf(dir mgl64.Vec3) int {
	band, slice := ix.cellCoords(dir)
	return band*ix.slices + slice
}

func (ix *ContactIndex) cellCoords(dir mgl64.Vec3) (band, slice int) {
	lat, lon := core.LatLon(dir)
	band = int((lat + math.Pi/2) / math.Pi * float64(ix.bands))
	if band >= ix.bands {
		band = ix.bands - 1
	}
	if band < 0 {
		band = 0
	}
	slice = int((lon + math.Pi) / (2 * math.Pi) * float64(ix.slices))
	if slice >= ix.slices {
		slice = ix.slices - 1
	}
	if slice < 0 {
		slice = 0
	}
	return band, slice
}

// Query intersects the ray from the planet center along dir with the
// triangles in the 3x3 bucket neighborhood (longitude wraps, latitude
// clamps) and returns the smallest positive hit distance. The second
// return is false on a miss; callers fall back to the analytic field.
func (ix *ContactIndex) Query(dir mgl64.Vec3) (float64, bool) {
	band, slice := ix.cellCoords(dir)

	best := math.MaxFloat64
	found := false
	for db := -1; db <= 1; db++ {
		b := band + db
		if b < 0 || b >= ix.bands {
			continue
		}
		for ds := -1; ds <= 1; ds++ {
			s := (slice + ds + ix.slices) % ix.slices
			for _, ti := range ix.bucket[b*ix.slices+s] {
				if t, ok := ix.intersect(&ix.tris[ti], dir); ok && t < best {
					best = t
					found = true
				}
			}
		}
	}

	if !found {
		return 0, false
	}
	return best, true
}

// intersect is Moller-Trumbore without backface culling, ray origin at
// the planet center. Returns the ray parameter (the radius) on a hit.
func (ix *ContactIndex) intersect(tr *contactTriangle, dir mgl64.Vec3) (float64, bool) {
	pvec := dir.Cross(tr.e2)
	det := tr.e1.Dot(pvec)
	if math.Abs(det) <= detEpsilon {
		return 0, false
	}
	inv := 1 / det

	// tvec = origin - v0, with origin at the center.
	tvec := tr.v0.Mul(-1)
	u := tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(tr.e1)
	v := dir.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := tr.e2.Dot(qvec) * inv
	if t <= core.Epsilon {
		return 0, false
	}
	return t, true
}
