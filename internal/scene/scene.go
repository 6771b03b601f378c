// Package scene is an in-memory stand-in for a renderer. It keeps the latest
// state the streamer pushed for every chunk and logs each change.
package scene

import (
	"log/slog"
	"sort"
	"sync"

	"landmass/internal/meshing"
	"landmass/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is what the scene knows about one chunk.
type Node struct {
	Coord     world.ChunkCoord
	Position  mgl32.Vec3
	Scale     float32
	Mesh      *meshing.Geometry
	Collision *meshing.Geometry
	Visible   bool
	MeshSwaps int
}

// Summary aggregates the scene for reporting.
type Summary struct {
	Nodes      int
	Visible    int
	Triangles  int // visible triangles
	Colliders  int
	LODCounts  map[int]int // visible nodes per mesh LOD
	MeshSwaps  int
	Visibility int // SetVisible calls
}

// Scene implements world.Renderer.
type Scene struct {
	log *slog.Logger

	mu         sync.Mutex
	nodes      map[world.ChunkCoord]*Node
	meshSwaps  int
	visibility int
}

var _ world.Renderer = (*Scene)(nil)

// New creates an empty scene.
func New(log *slog.Logger) *Scene {
	if log == nil {
		log = slog.Default()
	}
	return &Scene{
		log:   log,
		nodes: make(map[world.ChunkCoord]*Node),
	}
}

func (s *Scene) node(coord world.ChunkCoord) *Node {
	n, ok := s.nodes[coord]
	if !ok {
		n = &Node{Coord: coord, Scale: 1}
		s.nodes[coord] = n
	}
	return n
}

func (s *Scene) CreateChunk(coord world.ChunkCoord, position mgl32.Vec3, scale float32) {
	s.mu.Lock()
	n := s.node(coord)
	n.Position = position
	n.Scale = scale
	s.mu.Unlock()
	s.log.Debug("chunk created", "chunk", coord, "x", position.X(), "z", position.Z())
}

func (s *Scene) SetMesh(coord world.ChunkCoord, g *meshing.Geometry) {
	s.mu.Lock()
	n := s.node(coord)
	n.Mesh = g
	n.MeshSwaps++
	s.meshSwaps++
	s.mu.Unlock()
	s.log.Debug("mesh set", "chunk", coord, "lod", g.LOD, "triangles", g.TriangleCount())
}

func (s *Scene) SetCollisionMesh(coord world.ChunkCoord, g *meshing.Geometry) {
	s.mu.Lock()
	s.node(coord).Collision = g
	s.mu.Unlock()
	s.log.Debug("collision mesh set", "chunk", coord, "lod", g.LOD)
}

func (s *Scene) SetVisible(coord world.ChunkCoord, visible bool) {
	s.mu.Lock()
	s.node(coord).Visible = visible
	s.visibility++
	s.mu.Unlock()
	s.log.Debug("visibility changed", "chunk", coord, "visible", visible)
}

// Node returns a copy of the node at coord.
func (s *Scene) Node(coord world.ChunkCoord) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[coord]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// VisibleNodes returns copies of the visible nodes in row-major order.
func (s *Scene) VisibleNodes() []Node {
	s.mu.Lock()
	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.Visible {
			out = append(out, *n)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Coord, out[j].Coord
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

// Summary computes aggregate counts.
func (s *Scene) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Nodes:      len(s.nodes),
		LODCounts:  make(map[int]int),
		MeshSwaps:  s.meshSwaps,
		Visibility: s.visibility,
	}
	for _, n := range s.nodes {
		if n.Collision != nil {
			sum.Colliders++
		}
		if !n.Visible {
			continue
		}
		sum.Visible++
		if n.Mesh != nil {
			sum.Triangles += n.Mesh.TriangleCount()
			sum.LODCounts[n.Mesh.LOD]++
		}
	}
	return sum
}
