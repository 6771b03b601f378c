package scene

import (
	"io"
	"log/slog"
	"testing"

	"landmass/internal/curve"
	"landmass/internal/dispatch"
	"landmass/internal/noise"
	"landmass/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSceneTracksStreamer(t *testing.T) {
	d := dispatch.New(dispatch.Config{Workers: 2}, testLogger())
	defer d.Close()
	sc := New(testLogger())

	s, err := world.NewChunkStreamer(world.StreamerOptions{
		Noise:            noise.DefaultParams(),
		InteriorSize:     23,
		HeightMultiplier: 10,
		HeightCurve:      curve.Terrain(),
		LODs: []world.LODLevel{
			{LOD: 0, VisibleDistance: 30, UseForCollision: true},
			{LOD: 1, VisibleDistance: 50},
		},
	}, d, sc, testLogger())
	if err != nil {
		t.Fatalf("NewChunkStreamer: %v", err)
	}
	s.Start(mgl32.Vec2{})
	d.Flush()

	sum := sc.Summary()
	if sum.Nodes != s.Len() {
		t.Fatalf("scene has %d nodes, streamer %d chunks", sum.Nodes, s.Len())
	}
	if sum.Visible != len(s.VisibleCoords()) {
		t.Fatalf("scene shows %d nodes, streamer %d", sum.Visible, len(s.VisibleCoords()))
	}
	if sum.LODCounts[0] == 0 || sum.Triangles == 0 {
		t.Fatalf("summary = %+v, want LOD 0 meshes", sum)
	}
	// the collision level is LOD 0, so exactly the finest chunks carry colliders
	if sum.Colliders != sum.LODCounts[0] {
		t.Fatalf("colliders = %d, LOD 0 nodes = %d", sum.Colliders, sum.LODCounts[0])
	}

	n, ok := sc.Node(world.ChunkCoord{})
	if !ok || !n.Visible || n.Mesh == nil || n.Collision == nil || n.Scale != 1 {
		t.Fatalf("origin node = %+v", n)
	}

	visible := sc.VisibleNodes()
	for i := 1; i < len(visible); i++ {
		a, b := visible[i-1].Coord, visible[i].Coord
		if a.Y > b.Y || (a.Y == b.Y && a.X >= b.X) {
			t.Fatalf("VisibleNodes not in row-major order at %d: %v then %v", i, a, b)
		}
	}
}

func TestVisibilityToggle(t *testing.T) {
	sc := New(testLogger())
	c := world.ChunkCoord{X: 2, Y: -1}
	sc.CreateChunk(c, mgl32.Vec3{4, 0, -2}, 3)
	sc.SetVisible(c, true)
	sc.SetVisible(c, false)

	n, ok := sc.Node(c)
	if !ok || n.Visible || n.Position != (mgl32.Vec3{4, 0, -2}) || n.Scale != 3 {
		t.Fatalf("node = %+v", n)
	}
	if sum := sc.Summary(); sum.Visibility != 2 || sum.Visible != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if _, ok := sc.Node(world.ChunkCoord{X: 9}); ok {
		t.Fatalf("unknown node reported present")
	}
}
