package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"slitherworld"
	"slitherworld/config"
	"slitherworld/creature"
	"slitherworld/rendering"
	"slitherworld/visibility"
)

// wanderer drives a synthetic creature snapshot along a steering
// great-circle path, standing in for the server snapshot feed.
type wanderer struct {
	dirs    []mgl64.Vec3
	heading mgl64.Vec3
	spacing float64
	pending float64
	phase   float64
	snap    creature.Snapshot
}

func newWanderer(segments int, spacing float64) *wanderer {
	w := &wanderer{
		dirs:    make([]mgl64.Vec3, segments),
		heading: mgl64.Vec3{1, 0, 0},
		spacing: spacing,
	}
	head := mgl64.Vec3{0, 0, 1}
	axis := head.Cross(w.heading).Normalize()
	for i := range w.dirs {
		w.dirs[i] = mgl64.QuatRotate(-float64(i)*spacing, axis).Rotate(head)
	}
	w.snap.Girth = 1
	w.snap.Bulges = []creature.Bulge{{Progress: 0.2, Strength: 0.5}}
	return w
}

func (w *wanderer) advance(dt float64) *creature.Snapshot {
	w.phase += dt

	head := w.dirs[0]
	// Steer the heading around the surface normal, then slide the head
	// along the great circle it defines.
	steer := math.Sin(w.phase*0.6) * 0.8 * dt
	w.heading = mgl64.QuatRotate(steer, head).Rotate(w.heading)

	step := 0.25 * dt
	axis, ok := safeCross(head, w.heading)
	if ok {
		newHead := mgl64.QuatRotate(step, axis).Rotate(head)
		w.pending += step
		if w.pending >= w.spacing {
			copy(w.dirs[1:], w.dirs[:len(w.dirs)-1])
			w.pending -= w.spacing
		}
		w.dirs[0] = newHead
		// Keep the heading tangent after the move.
		w.heading = w.heading.Sub(newHead.Mul(newHead.Dot(w.heading))).Normalize()
	}

	for i := range w.snap.Bulges {
		w.snap.Bulges[i].Progress += dt * 0.05
		if w.snap.Bulges[i].Progress > 1 {
			w.snap.Bulges[i].Progress = 0
		}
	}

	w.snap.Dirs = w.dirs
	w.snap.TotalLength = len(w.dirs)
	w.snap.TailExtension = w.pending / w.spacing
	return &w.snap
}

func safeCross(a, b mgl64.Vec3) (mgl64.Vec3, bool) {
	c := a.Cross(b)
	l := c.Len()
	if l < 1e-9 {
		return mgl64.Vec3{}, false
	}
	return c.Mul(1 / l), true
}

func main() {
	runtime.LockOSThread()

	var (
		width    = flag.Int("width", 1280, "Window width")
		height   = flag.Int("height", 720, "Window height")
		seed     = flag.Int64("seed", 0, "Environment seed (0 = settings value)")
		radius   = flag.Float64("radius", 0, "Planet radius (0 = settings value)")
		segments = flag.Int("segments", 32, "Creature body segments")
	)
	flag.Parse()

	settings, err := config.Load("settings.json")
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *seed != 0 {
		settings.World.Seed = *seed
	}
	if *radius > 0 {
		settings.World.BaseRadius = *radius
	}

	fmt.Println("=== Slitherworld Demo ===")
	fmt.Printf("Planet radius: %.1f\n", settings.World.BaseRadius)
	fmt.Printf("Seed: %d\n", settings.World.Seed)
	fmt.Printf("Window: %dx%d\n", *width, *height)

	world := slitherworld.NewWorld(settings)
	fmt.Printf("Environment: %d lakes, %d trees, %d cacti, %d mountains, %d pebbles\n",
		len(world.Env.Field.Lakes), len(world.Env.Trees), len(world.Env.Cacti),
		len(world.Env.Mountains), len(world.Env.Pebbles))
	fmt.Printf("Terrain index: %d triangles\n", len(world.Mesh.Indices)/3)

	viewer, err := rendering.NewViewer(*width, *height, "Slitherworld")
	if err != nil {
		log.Fatalf("Failed to create viewer: %v", err)
	}
	defer viewer.Terminate()
	viewer.SetTerrain(world.Mesh)

	body := world.NewCreature()
	wander := newWanderer(*segments, 0.035)

	cam := visibility.NewCamera(settings.World.BaseRadius * settings.Culling.CameraDistFactor)
	cam.Aspect = float64(*width) / float64(*height)

	lastTime := time.Now()
	frameCount := 0
	lastFPSTime := time.Now()

	fmt.Println("\nControls: ESC to exit")
	for !viewer.ShouldClose() {
		viewer.PollEvents()

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now
		if dt > 0.1 {
			dt = 0.1
		}

		snap := wander.advance(dt)
		body.Update(snap)

		// Camera trails the creature head.
		head := snap.Dirs[0]
		cam.Orientation = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, head)
		world.UpdateVisibility(cam)

		viewer.SetTube(body.Mesh, body.Glow)
		viewer.DrawFrame(cam, settings.World.BaseRadius)

		frameCount++
		if now.Sub(lastFPSTime) >= time.Second {
			visible := 0
			for _, b := range world.Batches {
				visible += len(b.Visible())
			}
			fmt.Printf("FPS: %d | nodes: %d | glow max: %.2f | visible scenery: %d\n",
				frameCount, len(body.Nodes), body.GlowMax, visible)
			frameCount = 0
			lastFPSTime = now
		}
	}
}
