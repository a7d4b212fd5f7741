package terrain

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// Instance is one placed piece of static scenery: a surface direction,
// a uniform scale, a yaw around its up axis, a mesh variant and a tint.
type Instance struct {
	Dir     mgl64.Vec3
	Scale   float64
	Yaw     float64
	Variant int
	Tint    rl.Color
}

// Environment holds everything generated once per environment load:
// the terrain field (with its lakes) and the static scenery lists.
type Environment struct {
	Field     *Field
	Trees     []Instance
	Cacti     []Instance
	Mountains []Instance
	Pebbles   []Instance
}

// GenParams controls procedural environment generation.
type GenParams struct {
	LakeCount     int
	TreeCount     int
	CactusCount   int
	MountainCount int
	PebbleCount   int
}

// DefaultGenParams matches the populated look of a full world.
func DefaultGenParams() GenParams {
	return GenParams{
		LakeCount:     4,
		TreeCount:     220,
		CactusCount:   60,
		MountainCount: 18,
		PebbleCount:   400,
	}
}

var treePalette = []rl.Color{
	{R: 48, G: 104, B: 58, A: 255},
	{R: 66, G: 124, B: 62, A: 255},
	{R: 84, G: 138, B: 70, A: 255},
}

var cactusPalette = []rl.Color{
	{R: 96, G: 140, B: 82, A: 255},
	{R: 110, G: 152, B: 88, A: 255},
}

var rockPalette = []rl.Color{
	{R: 128, G: 122, B: 114, A: 255},
	{R: 142, G: 136, B: 126, A: 255},
	{R: 110, G: 106, B: 100, A: 255},
}

// GenerateEnvironment fills an environment deterministically from the
// seed. Lakes are placed first so scenery can reject wet ground; cacti
// prefer the dune band, trees avoid it.
func GenerateEnvironment(seed int64, baseRadius float64, p GenParams) *Environment {
	rng := rand.New(rand.NewSource(seed))
	f := NewField(baseRadius)

	for i := 0; i < p.LakeCount; i++ {
		center := randomDir(rng)
		radius := 0.18 + rng.Float64()*0.22
		depth := baseRadius * (0.015 + rng.Float64()*0.02)
		lake := NewLake(center, radius, depth)
		for j := range lake.WarpPhase {
			lake.WarpPhase[j] = rng.Float64() * 2 * math.Pi
		}
		f.Lakes = append(f.Lakes, lake)
	}

	env := &Environment{Field: f}
	var s Sample

	place := func(count int, accept func(dir mgl64.Vec3) bool, variants int,
		palette []rl.Color, minScale, maxScale float64) []Instance {
		out := make([]Instance, 0, count)
		for attempts := 0; len(out) < count && attempts < count*20; attempts++ {
			dir := randomDir(rng)
			f.Sample(dir, &s)
			if s.Boundary > 0.03 {
				continue
			}
			if !accept(dir) {
				continue
			}
			out = append(out, Instance{
				Dir:     dir,
				Scale:   minScale + rng.Float64()*(maxScale-minScale),
				Yaw:     rng.Float64() * 2 * math.Pi,
				Variant: rng.Intn(variants),
				Tint:    jitter(rng, palette[rng.Intn(len(palette))]),
			})
		}
		return out
	}

	duneWeight := func(dir mgl64.Vec3) float64 {
		return (dir.Dot(f.BiomeCenter) - f.DuneOuter) / (f.DuneInner - f.DuneOuter)
	}
	env.Trees = place(p.TreeCount, func(dir mgl64.Vec3) bool {
		return duneWeight(dir) < 0.2
	}, 3, treePalette, 0.7, 1.4)
	env.Cacti = place(p.CactusCount, func(dir mgl64.Vec3) bool {
		return duneWeight(dir) > 0.4
	}, 2, cactusPalette, 0.6, 1.2)
	env.Mountains = place(p.MountainCount, func(mgl64.Vec3) bool { return true },
		3, rockPalette, 2.5, 5.0)
	env.Pebbles = place(p.PebbleCount, func(mgl64.Vec3) bool { return true },
		4, rockPalette, 0.15, 0.5)

	return env
}

// RestRadius is the resting surface radius for a small prop (a pellet)
// at the given direction, preferring the mesh index when available.
func RestRadius(f *Field, ix *ContactIndex, dir mgl64.Vec3) float64 {
	if ix != nil {
		if r, ok := ix.Query(dir); ok {
			return r
		}
	}
	return f.Radius(dir)
}

func randomDir(rng *rand.Rand) mgl64.Vec3 {
	z := rng.Float64()*2 - 1
	az := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(az), z, r * math.Sin(az)}
}

func jitter(rng *rand.Rand, c rl.Color) rl.Color {
	j := func(v uint8) uint8 {
		d := rng.Intn(21) - 10
		n := int(v) + d
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		return uint8(n)
	}
	return rl.Color{R: j(c.R), G: j(c.G), B: j(c.B), A: c.A}
}
