package world

import (
	"math"

	"landmass/internal/heightfield"
	"landmass/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord addresses a chunk on the infinite ground grid.
type ChunkCoord struct {
	X, Y int
}

// Bounds is an axis-aligned square on the ground plane.
type Bounds struct {
	Centre mgl32.Vec2
	Half   float32
}

// SqrDistance returns the squared distance from p to the nearest point of b;
// zero when p is inside.
func (b Bounds) SqrDistance(p mgl32.Vec2) float32 {
	dx := max(float32(math.Abs(float64(p.X()-b.Centre.X())))-b.Half, 0)
	dy := max(float32(math.Abs(float64(p.Y()-b.Centre.Y())))-b.Half, 0)
	return dx*dx + dy*dy
}

// HeightState tracks a chunk's height field.
type HeightState uint8

const (
	HeightUnrequested HeightState = iota
	HeightPending
	HeightReady
)

func (s HeightState) String() string {
	switch s {
	case HeightPending:
		return "pending"
	case HeightReady:
		return "ready"
	default:
		return "unrequested"
	}
}

// MeshState tracks one LOD slot of a chunk.
type MeshState uint8

const (
	MeshNone MeshState = iota
	MeshPending
	MeshReady
)

func (s MeshState) String() string {
	switch s {
	case MeshPending:
		return "pending"
	case MeshReady:
		return "ready"
	default:
		return "none"
	}
}

type lodMesh struct {
	state    MeshState
	geometry *meshing.Geometry
}

// Chunk is one terrain tile. Chunks are owned by the streamer's control
// goroutine; the accessors are for inspection from that goroutine.
type Chunk struct {
	coord  ChunkCoord
	bounds Bounds

	heightState HeightState
	height      *heightfield.HeightField

	meshes       []lodMesh // one per configured LOD slot
	currentLOD   int       // slot shown by the renderer, -1 when none
	collisionSet bool
	visible      bool
}

func newChunk(coord ChunkCoord, chunkSize float32, slots int) *Chunk {
	return &Chunk{
		coord: coord,
		bounds: Bounds{
			Centre: mgl32.Vec2{float32(coord.X) * chunkSize, float32(coord.Y) * chunkSize},
			Half:   chunkSize / 2,
		},
		meshes:     make([]lodMesh, slots),
		currentLOD: -1,
	}
}

// Coord returns the chunk's grid coordinate.
func (c *Chunk) Coord() ChunkCoord { return c.coord }

// Bounds returns the chunk's ground-plane square in unscaled units.
func (c *Chunk) Bounds() Bounds { return c.bounds }

// HeightState reports whether the height field has been requested or received.
func (c *Chunk) HeightState() HeightState { return c.heightState }

// HeightField returns the received height field or nil.
func (c *Chunk) HeightField() *heightfield.HeightField { return c.height }

// MeshState returns the state of LOD slot i.
func (c *Chunk) MeshState(i int) MeshState { return c.meshes[i].state }

// Mesh returns the geometry of LOD slot i, nil until it is ready.
func (c *Chunk) Mesh(i int) *meshing.Geometry { return c.meshes[i].geometry }

// CurrentLOD returns the slot currently shown, or -1.
func (c *Chunk) CurrentLOD() int { return c.currentLOD }

// HasCollision reports whether a collision mesh was handed to the renderer.
func (c *Chunk) HasCollision() bool { return c.collisionSet }

// Visible reports the last visibility sent to the renderer.
func (c *Chunk) Visible() bool { return c.visible }
