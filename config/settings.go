package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings are the tunables for the geometry/visibility pipeline.
// Loaded from settings.json when present, otherwise defaults apply.
type Settings struct {
	World   WorldSettings   `json:"world"`
	Contact ContactSettings `json:"contact"`
	Tube    TubeSettings    `json:"tube"`
	Overlap OverlapSettings `json:"overlap"`
	Culling CullingSettings `json:"culling"`
	Scenery ScenerySettings `json:"scenery"`
}

type WorldSettings struct {
	BaseRadius   float64 `json:"baseRadius"`
	MeshRings    int     `json:"meshRings"`
	MeshSegments int     `json:"meshSegments"`
	IndexBands   int     `json:"indexBands"`
	IndexSlices  int     `json:"indexSlices"`
	Seed         int64   `json:"seed"`
}

type ContactSettings struct {
	Clearance  float64 `json:"clearance"`
	ArcSamples int     `json:"arcSamples"`
	MaxPasses  int     `json:"maxPasses"`
}

type TubeSettings struct {
	RadialSegments  int     `json:"radialSegments"`
	SegmentsPerNode int     `json:"segmentsPerNode"`
	UVSlots         int     `json:"uvSlots"`
	CapRings        int     `json:"capRings"`
	SupportRadius   float64 `json:"supportRadius"`
}

type OverlapSettings struct {
	StartMult     float64 `json:"startMult"`
	FullMult      float64 `json:"fullMult"`
	AdjacencyMult float64 `json:"adjacencyMult"`
	BlurPasses    int     `json:"blurPasses"`
}

type CullingSettings struct {
	ShowMarginDeg    float64 `json:"showMarginDeg"`
	HideExtraDeg     float64 `json:"hideExtraDeg"`
	OcclusionLead    float64 `json:"occlusionLead"`
	PlanetShrink     float64 `json:"planetShrink"`
	CameraDistFactor float64 `json:"cameraDistFactor"`
}

type ScenerySettings struct {
	LakeCount     int `json:"lakeCount"`
	TreeCount     int `json:"treeCount"`
	CactusCount   int `json:"cactusCount"`
	MountainCount int `json:"mountainCount"`
	PebbleCount   int `json:"pebbleCount"`
}

// Default returns the coded defaults.
func Default() Settings {
	return Settings{
		World: WorldSettings{
			BaseRadius:   20,
			MeshRings:    96,
			MeshSegments: 192,
			IndexBands:   64,
			IndexSlices:  128,
			Seed:         1,
		},
		Contact: ContactSettings{
			Clearance:  0.02,
			ArcSamples: 5,
			MaxPasses:  4,
		},
		Tube: TubeSettings{
			RadialSegments:  12,
			SegmentsPerNode: 4,
			UVSlots:         64,
			CapRings:        4,
			SupportRadius:   0.25,
		},
		Overlap: OverlapSettings{
			StartMult:     3.0,
			FullMult:      1.5,
			AdjacencyMult: 2.0,
			BlurPasses:    2,
		},
		Culling: CullingSettings{
			ShowMarginDeg:    4,
			HideExtraDeg:     6,
			OcclusionLead:    1.0,
			PlanetShrink:     0.985,
			CameraDistFactor: 2.6,
		},
		Scenery: ScenerySettings{
			LakeCount:     4,
			TreeCount:     220,
			CactusCount:   60,
			MountainCount: 18,
			PebbleCount:   400,
		},
	}
}

// Load reads settings from path, falling back to defaults when the file
// does not exist.
func Load(path string) (Settings, error) {
	s := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No %s found, using defaults\n", path)
			return s, nil
		}
		return s, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return s, fmt.Errorf("error parsing %s: %v", path, err)
	}

	fmt.Printf("Loaded settings: base radius %.1f, %d lakes, seed %d\n",
		s.World.BaseRadius, s.Scenery.LakeCount, s.World.Seed)
	return s, nil
}
