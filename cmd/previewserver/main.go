package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"slitherworld"
	"slitherworld/config"
	"slitherworld/creature"
	"slitherworld/visibility"
)

// FrameData is one pipeline frame serialized for preview clients.
type FrameData struct {
	Type        string    `json:"type"`
	Positions   []float32 `json:"positions"`
	Normals     []float32 `json:"normals"`
	UVs         []float32 `json:"uvs"`
	Indices     []uint32  `json:"indices"`
	CapIndices  []uint32  `json:"capIndices"`
	Glow        []float32 `json:"glow"`
	GlowMax     float32   `json:"glowMax"`
	VisibleBy   []int     `json:"visibleByBatch"`
	BatchKinds  []string  `json:"batchKinds"`
	FrameMillis float64   `json:"frameMillis"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // preview tool, any origin is fine
	},
}

var clients = make(map[*websocket.Conn]*sync.Mutex)
var clientsMutex sync.RWMutex

func main() {
	var (
		port     = flag.Int("port", 8090, "Preview server port")
		interval = flag.Int("interval", 50, "Frame interval in milliseconds")
		segments = flag.Int("segments", 32, "Creature body segments")
	)
	flag.Parse()

	settings, err := config.Load("settings.json")
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	world := slitherworld.NewWorld(settings)
	body := world.NewCreature()
	cam := visibility.NewCamera(settings.World.BaseRadius * settings.Culling.CameraDistFactor)

	fmt.Printf("Environment ready: %d lakes, %d scenery batches\n",
		len(world.Env.Field.Lakes), len(world.Batches))

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Upgrade failed: %v", err)
			return
		}
		clientsMutex.Lock()
		clients[conn] = &sync.Mutex{}
		clientsMutex.Unlock()
		fmt.Printf("Client connected: %s\n", conn.RemoteAddr())
	})

	go broadcastLoop(world, body, cam, *segments, time.Duration(*interval)*time.Millisecond)

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("Preview server listening on ws://localhost%s/ws\n", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

// broadcastLoop runs the pipeline on a synthetic circular path and
// pushes each frame to every connected client.
func broadcastLoop(world *slitherworld.World, body *slitherworld.Creature,
	cam visibility.Camera, segments int, interval time.Duration) {

	snap := &creature.Snapshot{
		Dirs:  make([]mgl64.Vec3, segments),
		Girth: 1,
	}
	spacing := 0.035
	phase := 0.0

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		start := time.Now()
		phase += interval.Seconds() * 0.25

		// A circle offset from a great circle, so the body curves.
		for i := range snap.Dirs {
			a := phase - float64(i)*spacing
			snap.Dirs[i] = mgl64.Vec3{
				math.Cos(a),
				0.25 * math.Sin(a*2),
				math.Sin(a),
			}.Normalize()
		}
		snap.TotalLength = segments

		body.Update(snap)
		cam.Orientation = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, snap.Dirs[0])
		world.UpdateVisibility(cam)

		frame := FrameData{
			Type:        "frame",
			Positions:   body.Mesh.Positions,
			Normals:     body.Mesh.Normals,
			UVs:         body.Mesh.UVs,
			Indices:     body.Mesh.Indices,
			CapIndices:  body.Mesh.CapIndices,
			Glow:        body.Glow,
			GlowMax:     body.GlowMax,
			FrameMillis: float64(time.Since(start).Microseconds()) / 1000,
		}
		for _, b := range world.Batches {
			frame.BatchKinds = append(frame.BatchKinds, b.Kind)
			frame.VisibleBy = append(frame.VisibleBy, len(b.Visible()))
		}

		broadcast(&frame)
	}
}

func broadcast(frame *FrameData) {
	clientsMutex.RLock()
	defer clientsMutex.RUnlock()

	for conn, mu := range clients {
		mu.Lock()
		err := conn.WriteJSON(frame)
		mu.Unlock()
		if err != nil {
			conn.Close()
			go dropClient(conn)
		}
	}
}

func dropClient(conn *websocket.Conn) {
	clientsMutex.Lock()
	delete(clients, conn)
	clientsMutex.Unlock()
	fmt.Printf("Client disconnected: %s\n", conn.RemoteAddr())
}
