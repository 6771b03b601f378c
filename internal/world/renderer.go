package world

import (
	"landmass/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer receives chunk lifecycle events. All calls come from the
// streamer's control goroutine.
type Renderer interface {
	// CreateChunk registers a hidden chunk at a world position with a uniform scale.
	CreateChunk(coord ChunkCoord, position mgl32.Vec3, scale float32)
	SetMesh(coord ChunkCoord, g *meshing.Geometry)
	SetCollisionMesh(coord ChunkCoord, g *meshing.Geometry)
	SetVisible(coord ChunkCoord, visible bool)
}
