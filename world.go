// Package slitherworld is a per-frame geometry and visibility kernel for
// creatures sliding on a spherical world. It places creature centerlines
// on procedurally displaced terrain, meshes them into watertight tubes,
// detects self-overlap glow and culls static scenery with hysteresis.
// It owns no rendering objects: every output is a flat buffer or an
// index list for the rendering collaborator.
package slitherworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld/config"
	"slitherworld/core"
	"slitherworld/creature"
	"slitherworld/terrain"
	"slitherworld/visibility"
)

// World bundles the immutable per-environment state (field, terrain
// mesh, contact index, scenery batches) and the shared culler. Terrain
// data is read-only after construction and safe to share across
// creatures.
type World struct {
	Settings config.Settings
	Env      *terrain.Environment
	Mesh     *terrain.Mesh
	Index    *terrain.ContactIndex
	Culler   *visibility.Culler
	Batches  []*visibility.Batch
	Margins  visibility.Margins
}

// sceneryRadius approximates the world-space radius of one instance of
// each kind at scale 1, used for angular-radius and occlusion-lead math.
var sceneryRadius = map[string]float64{
	"tree":     0.5,
	"cactus":   0.35,
	"mountain": 1.2,
	"pebble":   0.08,
}

// NewWorld generates the environment from the settings seed, builds the
// displaced terrain mesh and its contact index, and prepares one
// visibility batch per scenery kind and variant.
func NewWorld(s config.Settings) *World {
	env := terrain.GenerateEnvironment(s.World.Seed, s.World.BaseRadius, terrain.GenParams{
		LakeCount:     s.Scenery.LakeCount,
		TreeCount:     s.Scenery.TreeCount,
		CactusCount:   s.Scenery.CactusCount,
		MountainCount: s.Scenery.MountainCount,
		PebbleCount:   s.Scenery.PebbleCount,
	})
	mesh := terrain.BuildMesh(env.Field, s.World.MeshRings, s.World.MeshSegments)
	index := terrain.BuildContactIndex(mesh, s.World.IndexBands, s.World.IndexSlices)

	culler := visibility.NewCuller(s.World.BaseRadius)
	culler.PlanetShrink = s.Culling.PlanetShrink

	w := &World{
		Settings: s,
		Env:      env,
		Mesh:     mesh,
		Index:    index,
		Culler:   culler,
		Margins: visibility.Margins{
			Show:          s.Culling.ShowMarginDeg * math.Pi / 180,
			HideExtra:     s.Culling.HideExtraDeg * math.Pi / 180,
			OcclusionLead: s.Culling.OcclusionLead,
		},
	}

	w.addBatches("tree", env.Trees)
	w.addBatches("cactus", env.Cacti)
	w.addBatches("mountain", env.Mountains)
	w.addBatches("pebble", env.Pebbles)
	return w
}

// addBatches splits instances of one kind into per-variant batches with
// representative points seated on the terrain.
func (w *World) addBatches(kind string, instances []terrain.Instance) {
	variants := 0
	for _, in := range instances {
		if in.Variant+1 > variants {
			variants = in.Variant + 1
		}
	}
	base := sceneryRadius[kind]
	for v := 0; v < variants; v++ {
		var points []mgl64.Vec3
		var radii []float64
		for _, in := range instances {
			if in.Variant != v {
				continue
			}
			r := w.RestRadius(in.Dir)
			points = append(points, in.Dir.Mul(r))
			radii = append(radii, base*in.Scale)
		}
		if len(points) == 0 {
			continue
		}
		w.Batches = append(w.Batches, visibility.NewBatch(kind, points, radii))
	}
}

// RestRadius is the terrain surface radius at a direction, the query any
// subsystem (pellet resting height included) uses for ground height.
func (w *World) RestRadius(dir mgl64.Vec3) float64 {
	return terrain.RestRadius(w.Env.Field, w.Index, dir)
}

// UpdateVisibility re-culls every scenery batch against the camera. The
// view cone follows the camera horizon widened by the configured margins.
func (w *World) UpdateVisibility(cam visibility.Camera) {
	viewAngle := cam.HorizonAngle(w.Settings.World.BaseRadius)
	for _, b := range w.Batches {
		b.Update(w.Culler, cam, viewAngle, w.Margins)
	}
}

// Creature owns the per-creature pipeline state: scratch arena, placer,
// mesher and overlap detector. Each creature is independent; nothing
// here is shared, so creatures may be updated concurrently.
type Creature struct {
	arena  core.Arena
	placer *creature.Placer
	mesher *creature.Mesher
	glow   *creature.Detector

	support float64
	radial  int

	Nodes   []creature.Node
	Mesh    *creature.Mesh
	Glow    []float32
	GlowMax float32
}

// NewCreature wires a creature pipeline against the world terrain.
func (w *World) NewCreature() *Creature {
	s := w.Settings
	solver := creature.NewSolver(w.Env.Field, w.Index, s.Contact.Clearance)
	solver.Samples = s.Contact.ArcSamples
	solver.MaxPasses = s.Contact.MaxPasses

	c := &Creature{
		placer:  nil,
		mesher:  creature.NewMesher(),
		glow:    creature.NewDetector(),
		support: s.Tube.SupportRadius,
		radial:  s.Tube.RadialSegments,
	}
	c.placer = creature.NewPlacer(solver, &c.arena)
	c.mesher.SegmentsPerNode = s.Tube.SegmentsPerNode
	c.mesher.UVSlots = s.Tube.UVSlots
	c.mesher.CapRings = s.Tube.CapRings
	c.glow.StartMult = s.Overlap.StartMult
	c.glow.FullMult = s.Overlap.FullMult
	c.glow.AdjacencyMult = s.Overlap.AdjacencyMult
	c.glow.BlurPasses = s.Overlap.BlurPasses
	return c
}

// Update runs the per-frame pipeline for one snapshot: placement, tube
// meshing and overlap detection. All outputs alias retained storage.
func (c *Creature) Update(snap *creature.Snapshot) {
	c.arena.Reset()

	girth := snap.EffectiveGirth()
	c.Nodes = c.placer.PlaceSnapshot(snap, c.support, 0)

	c.mesher.Bulges = snap.Bulges
	c.mesher.SlotOffset = snap.StartIndex * c.mesher.SegmentsPerNode
	c.Mesh = c.mesher.Build(c.Nodes, c.support*girth, c.radial)

	points := c.arena.Vec3(len(c.Nodes))
	for i := range c.Nodes {
		points[i] = c.Nodes[i].Pos
	}
	c.Glow, c.GlowMax = c.glow.Detect(points, c.support*girth)
}
