package creature

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/core"
)

// Detector finds non-adjacent self-proximity along a centerline and
// turns it into a smoothed per-point glow intensity. Points are hashed
// into a 3D grid sized to the outer glow distance; each point scans the
// 27-cell neighborhood for the nearest point whose index differs by more
// than the adjacency gap, so physically consecutive body segments never
// register as overlap. Buckets, the key map and all output arrays are
// pooled across frames.
type Detector struct {
	StartMult     float64 // glow starts inside radius*StartMult
	FullMult      float64 // glow saturates inside radius*FullMult
	AdjacencyMult float64 // index gap spans radius*AdjacencyMult of body
	BlurPasses    int
	MinPoints     int
	MinGapFloor   int

	cells   map[uint64]int32
	buckets [][]int32
	used    int
	raw     []float64
	tmp     []float64
	out     []float32
}

// NewDetector returns a detector with the standard glow tuning.
func NewDetector() *Detector {
	return &Detector{
		StartMult:     3.0,
		FullMult:      1.5,
		AdjacencyMult: 2.0,
		BlurPasses:    2,
		MinPoints:     8,
		MinGapFloor:   2,
		cells:         make(map[uint64]int32),
	}
}

// cellKey packs the three quantized coordinates into one map key.
// 21 bits per axis centered on a large offset covers any world position
// the kernel produces.
func cellKey(ix, iy, iz int64) uint64 {
	const offset = int64(1) << 20
	const mask = (int64(1) << 21) - 1
	return uint64((ix+offset)&mask) |
		uint64((iy+offset)&mask)<<21 |
		uint64((iz+offset)&mask)<<42
}

// Detect returns the blurred glow intensity per centerline point plus
// the maximum value, which callers use to gate the glow-color pass
// entirely. The returned slice aliases retained storage.
func (d *Detector) Detect(points []mgl64.Vec3, radius float64) ([]float32, float32) {
	n := len(points)
	d.out = core.GrowFloat32(d.out, n)
	if n < d.MinPoints || radius <= 0 {
		for i := range d.out {
			d.out[i] = 0
		}
		return d.out, 0
	}

	total := 0.0
	for i := 1; i < n; i++ {
		total += points[i].Sub(points[i-1]).Len()
	}
	avgSeg := total / float64(n-1)
	minGap := d.MinGapFloor
	if avgSeg > core.Epsilon {
		if g := int(math.Ceil(radius * d.AdjacencyMult / avgSeg)); g > minGap {
			minGap = g
		}
	}

	cell := radius * d.StartMult
	d.fillBuckets(points, cell)

	start := radius * d.StartMult
	full := radius * d.FullMult
	d.raw = growFloat64(d.raw, n)
	for i, p := range points {
		ix := int64(math.Floor(p.X() / cell))
		iy := int64(math.Floor(p.Y() / cell))
		iz := int64(math.Floor(p.Z() / cell))

		best := math.MaxFloat64
		for dz := int64(-1); dz <= 1; dz++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dx := int64(-1); dx <= 1; dx++ {
					bi, ok := d.cells[cellKey(ix+dx, iy+dy, iz+dz)]
					if !ok {
						continue
					}
					for _, j := range d.buckets[bi] {
						gap := int(j) - i
						if gap < 0 {
							gap = -gap
						}
						if gap <= minGap {
							continue
						}
						if ds := p.Sub(points[j]).Dot(p.Sub(points[j])); ds < best {
							best = ds
						}
					}
				}
			}
		}

		if best == math.MaxFloat64 {
			d.raw[i] = 0
		} else {
			d.raw[i] = 1 - core.Smoothstep(full, start, math.Sqrt(best))
		}
	}

	d.blur(n)

	var maxI float32
	for i := 0; i < n; i++ {
		v := float32(d.raw[i])
		d.out[i] = v
		if v > maxI {
			maxI = v
		}
	}
	return d.out, maxI
}

func (d *Detector) fillBuckets(points []mgl64.Vec3, cell float64) {
	clear(d.cells)
	d.used = 0
	for i, p := range points {
		key := cellKey(
			int64(math.Floor(p.X()/cell)),
			int64(math.Floor(p.Y()/cell)),
			int64(math.Floor(p.Z()/cell)))
		bi, ok := d.cells[key]
		if !ok {
			if d.used == len(d.buckets) {
				d.buckets = append(d.buckets, make([]int32, 0, 8))
			}
			bi = int32(d.used)
			d.buckets[bi] = d.buckets[bi][:0]
			d.cells[key] = bi
			d.used++
		}
		d.buckets[bi] = append(d.buckets[bi], int32(i))
	}
}

// blur runs box-blur passes along the index axis, which removes
// single-point spikes without bleeding glow across space.
func (d *Detector) blur(n int) {
	d.tmp = growFloat64(d.tmp, n)
	for pass := 0; pass < d.BlurPasses; pass++ {
		for i := 0; i < n; i++ {
			lo := maxInt(i-1, 0)
			hi := minInt(i+1, n-1)
			d.tmp[i] = (d.raw[lo] + d.raw[i] + d.raw[hi]) / 3
		}
		d.raw, d.tmp = d.tmp, d.raw
	}
}

func growFloat64(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
