package world

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"landmass/internal/curve"
	"landmass/internal/dispatch"
	"landmass/internal/heightfield"
	"landmass/internal/meshing"
	"landmass/internal/noise"
	"landmass/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMoveThreshold is how far the viewer must travel before the visible
// window is recomputed under UpdateOnThreshold.
const DefaultMoveThreshold = 25

// UpdatePolicy decides when OnViewerMoved recomputes the visible window.
type UpdatePolicy string

const (
	UpdateOnThreshold UpdatePolicy = "threshold"
	UpdateAlways      UpdatePolicy = "always"
)

// ParseUpdatePolicy maps a config string to a policy; empty means threshold.
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch p := UpdatePolicy(strings.ToLower(s)); p {
	case "", UpdateOnThreshold:
		return UpdateOnThreshold, nil
	case UpdateAlways:
		return p, nil
	default:
		return "", fmt.Errorf("unknown update policy %q", s)
	}
}

// StreamerOptions configures terrain generation and streaming.
type StreamerOptions struct {
	Noise            noise.Params
	InteriorSize     int // S; chunks are S-1 units wide
	UseFalloff       bool
	HeightMultiplier float32
	HeightCurve      curve.Curve
	FlatShading      bool
	LODs             []LODLevel
	UniformScale     float32 // world units per mesh unit; 0 means 1
	MoveThreshold    float32 // 0 means DefaultMoveThreshold
	Policy           UpdatePolicy
}

// Stats is a snapshot of streamer counters.
type Stats struct {
	Chunks        int
	Visible       int
	HeightPending int
	MeshRequests  int
	MeshesReady   int
	Recomputes    int
	InFlight      int
}

// ChunkStreamer keeps the chunks around a moving viewer generated, meshed at
// the right detail and shown. Every method must be called from one control
// goroutine; generation runs on the dispatcher's pool.
type ChunkStreamer struct {
	opts       StreamerOptions
	log        *slog.Logger
	dispatcher *dispatch.Dispatcher
	renderer   Renderer
	heights    *heightfield.Builder
	store      *ChunkStore

	chunkSize     float32
	maxViewDst    float32
	chunksInView  int
	collisionSlot int

	viewer           mgl32.Vec2 // unscaled units
	lastUpdateViewer mgl32.Vec2
	started          bool

	visible map[ChunkCoord]struct{}

	meshRequests int
	meshesReady  int
	recomputes   int
}

// NewChunkStreamer validates opts and prepares the height field builder.
func NewChunkStreamer(opts StreamerOptions, d *dispatch.Dispatcher, r Renderer, log *slog.Logger) (*ChunkStreamer, error) {
	if d == nil {
		return nil, errors.New("chunk streamer: nil dispatcher")
	}
	if r == nil {
		return nil, errors.New("chunk streamer: nil renderer")
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.InteriorSize < 2 {
		return nil, fmt.Errorf("chunk streamer: interior size %d must be at least 2", opts.InteriorSize)
	}
	if err := ValidateLODs(opts.LODs, opts.InteriorSize+2); err != nil {
		return nil, fmt.Errorf("chunk streamer: %w", err)
	}
	if opts.UniformScale < 0 || opts.MoveThreshold < 0 {
		return nil, errors.New("chunk streamer: uniform scale and move threshold must not be negative")
	}
	if opts.UniformScale == 0 {
		opts.UniformScale = 1
	}
	if opts.MoveThreshold == 0 {
		opts.MoveThreshold = DefaultMoveThreshold
	}
	policy, err := ParseUpdatePolicy(string(opts.Policy))
	if err != nil {
		return nil, fmt.Errorf("chunk streamer: %w", err)
	}
	opts.Policy = policy
	if opts.HeightCurve == nil {
		opts.HeightCurve = curve.Linear{}
	}
	opts.LODs = slices.Clone(opts.LODs)

	heights, err := heightfield.NewBuilder(heightfield.BuilderConfig{
		Params:       opts.Noise,
		InteriorSize: opts.InteriorSize,
		UseFalloff:   opts.UseFalloff,
	})
	if err != nil {
		return nil, fmt.Errorf("chunk streamer: %w", err)
	}

	chunkSize := float32(opts.InteriorSize - 1)
	maxViewDst := maxViewDistance(opts.LODs)
	return &ChunkStreamer{
		opts:          opts,
		log:           log,
		dispatcher:    d,
		renderer:      r,
		heights:       heights,
		store:         NewChunkStore(),
		chunkSize:     chunkSize,
		maxViewDst:    maxViewDst,
		chunksInView:  int(math.Round(float64(maxViewDst / chunkSize))),
		collisionSlot: collisionSlot(opts.LODs),
		visible:       make(map[ChunkCoord]struct{}),
	}, nil
}

// ChunkSize returns the width of one chunk in world units.
func (s *ChunkStreamer) ChunkSize() float32 { return s.chunkSize * s.opts.UniformScale }

// ChunksVisibleInViewDistance returns the window radius in chunks.
func (s *ChunkStreamer) ChunksVisibleInViewDistance() int { return s.chunksInView }

// Start records the initial viewer position and performs the first pass.
func (s *ChunkStreamer) Start(viewer mgl32.Vec2) {
	s.setViewer(viewer)
	s.started = true
	s.lastUpdateViewer = s.viewer
	s.RecomputeVisible()
}

// Tick runs one control-loop step: record the viewer, install finished work,
// then apply the update policy.
func (s *ChunkStreamer) Tick(viewer mgl32.Vec2) {
	defer profiling.Track("world.Tick")()
	s.setViewer(viewer)
	s.dispatcher.Drain()
	s.OnViewerMoved(viewer)
}

// OnViewerMoved recomputes the visible window when the policy says so.
func (s *ChunkStreamer) OnViewerMoved(viewer mgl32.Vec2) {
	s.setViewer(viewer)
	if !s.started {
		s.Start(viewer)
		return
	}
	if s.opts.Policy == UpdateOnThreshold {
		threshold := s.opts.MoveThreshold
		if s.viewer.Sub(s.lastUpdateViewer).LenSqr() <= threshold*threshold {
			return
		}
	}
	s.lastUpdateViewer = s.viewer
	s.RecomputeVisible()
}

func (s *ChunkStreamer) setViewer(viewer mgl32.Vec2) {
	s.viewer = viewer.Mul(1 / s.opts.UniformScale)
}

// RecomputeVisible walks the window around the viewer, creating missing chunks
// and updating existing ones. Chunks visible before but not re-shown are hidden.
func (s *ChunkStreamer) RecomputeVisible() {
	defer profiling.Track("world.RecomputeVisible")()
	s.recomputes++

	previous := s.visible
	s.visible = make(map[ChunkCoord]struct{}, len(previous))

	cx := int(math.Round(float64(s.viewer.X() / s.chunkSize)))
	cy := int(math.Round(float64(s.viewer.Y() / s.chunkSize)))
	n := s.chunksInView
	created := 0

	for yOff := -n; yOff <= n; yOff++ {
		for xOff := -n; xOff <= n; xOff++ {
			coord := ChunkCoord{X: cx + xOff, Y: cy + yOff}
			if c := s.store.Get(coord); c != nil {
				s.updateChunk(c)
				continue
			}
			s.createChunk(coord)
			created++
		}
	}

	for coord := range previous {
		if _, still := s.visible[coord]; still {
			continue
		}
		if c := s.store.Get(coord); c != nil && c.visible {
			c.visible = false
			s.renderer.SetVisible(coord, false)
		}
	}

	s.log.Debug("visible window recomputed",
		"centre", ChunkCoord{X: cx, Y: cy},
		"created", created,
		"visible", len(s.visible),
		"chunks", s.store.Len(),
	)
}

func (s *ChunkStreamer) createChunk(coord ChunkCoord) {
	c := s.store.Add(newChunk(coord, s.chunkSize, len(s.opts.LODs)))

	scale := s.opts.UniformScale
	centre := c.bounds.Centre
	s.renderer.CreateChunk(coord, mgl32.Vec3{centre.X() * scale, 0, centre.Y() * scale}, scale)

	c.heightState = HeightPending
	builder := s.heights
	err := dispatch.Submit(s.dispatcher,
		func() *heightfield.HeightField { return builder.Build(centre) },
		func(hf *heightfield.HeightField) { s.onHeightField(coord, hf) },
	)
	if err != nil {
		s.log.Error("height field request failed", "chunk", coord, "err", err)
	}
}

func (s *ChunkStreamer) onHeightField(coord ChunkCoord, hf *heightfield.HeightField) {
	c := s.store.Get(coord)
	if c == nil {
		return
	}
	c.height = hf
	c.heightState = HeightReady
	s.updateChunk(c)
}

// updateChunk applies visibility, LOD and collision for the current viewer.
// Nothing happens until the chunk's height field has arrived.
func (s *ChunkStreamer) updateChunk(c *Chunk) {
	if c.heightState != HeightReady {
		return
	}

	d := float32(math.Sqrt(float64(c.bounds.SqrDistance(s.viewer))))
	visible := d <= s.maxViewDst

	if visible {
		slot := selectSlot(s.opts.LODs, d)
		if slot != c.currentLOD {
			switch m := &c.meshes[slot]; m.state {
			case MeshReady:
				c.currentLOD = slot
				s.renderer.SetMesh(c.coord, m.geometry)
			case MeshNone:
				s.requestMesh(c, slot)
			}
		}

		if slot == 0 && s.collisionSlot >= 0 && !c.collisionSet {
			switch m := &c.meshes[s.collisionSlot]; m.state {
			case MeshReady:
				c.collisionSet = true
				s.renderer.SetCollisionMesh(c.coord, m.geometry)
			case MeshNone:
				s.requestMesh(c, s.collisionSlot)
			}
		}

		s.visible[c.coord] = struct{}{}
	} else {
		delete(s.visible, c.coord)
	}

	if c.visible != visible {
		c.visible = visible
		s.renderer.SetVisible(c.coord, visible)
	}
}

func (s *ChunkStreamer) requestMesh(c *Chunk, slot int) {
	c.meshes[slot].state = MeshPending
	s.meshRequests++

	coord := c.coord
	hf := c.height
	lod := s.opts.LODs[slot].LOD
	mult := s.opts.HeightMultiplier
	heightCurve := s.opts.HeightCurve
	flat := s.opts.FlatShading

	type result struct {
		geometry *meshing.Geometry
		err      error
	}
	err := dispatch.Submit(s.dispatcher,
		func() result {
			g, err := meshing.Build(hf, mult, heightCurve, lod, flat)
			return result{g, err}
		},
		func(r result) {
			if r.err != nil {
				s.log.Error("mesh build failed", "chunk", coord, "lod", lod, "err", r.err)
				return
			}
			s.onMesh(coord, slot, r.geometry)
		},
	)
	if err != nil {
		s.log.Error("mesh request failed", "chunk", coord, "lod", lod, "err", err)
	}
}

func (s *ChunkStreamer) onMesh(coord ChunkCoord, slot int, g *meshing.Geometry) {
	c := s.store.Get(coord)
	if c == nil {
		return
	}
	c.meshes[slot] = lodMesh{state: MeshReady, geometry: g}
	s.meshesReady++
	s.updateChunk(c)
}

// Chunk returns the chunk at coord, if it has been created.
func (s *ChunkStreamer) Chunk(coord ChunkCoord) (*Chunk, bool) {
	c := s.store.Get(coord)
	return c, c != nil
}

// Len returns the number of chunks ever created.
func (s *ChunkStreamer) Len() int { return s.store.Len() }

// VisibleCoords returns the visible chunk coordinates in row-major order.
func (s *ChunkStreamer) VisibleCoords() []ChunkCoord {
	coords := make([]ChunkCoord, 0, len(s.visible))
	for coord := range s.visible {
		coords = append(coords, coord)
	}
	slices.SortFunc(coords, func(a, b ChunkCoord) int {
		if coordLess(a, b) {
			return -1
		}
		if coordLess(b, a) {
			return 1
		}
		return 0
	})
	return coords
}

// Stats returns current counters.
func (s *ChunkStreamer) Stats() Stats {
	st := Stats{
		Chunks:       s.store.Len(),
		Visible:      len(s.visible),
		MeshRequests: s.meshRequests,
		MeshesReady:  s.meshesReady,
		Recomputes:   s.recomputes,
		InFlight:     s.dispatcher.InFlight(),
	}
	s.store.Each(func(c *Chunk) {
		if c.heightState == HeightPending {
			st.HeightPending++
		}
	})
	return st
}
