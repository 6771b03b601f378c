package meshing

import (
	"fmt"

	"landmass/internal/curve"
	"landmass/internal/heightfield"
	"landmass/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is number of float32 per interleaved vertex (pos.xyz + normal.xyz + uv)
const VertexStride = 8

// degenerateArea is the squared cross-product length below which a triangle is
// treated as zero-area and left out of normal accumulation.
const degenerateArea = 1e-12

var up = mgl32.Vec3{0, 1, 0}

// Geometry is an immutable indexed triangle mesh for one chunk at one LOD.
type Geometry struct {
	Vertices  []mgl32.Vec3
	UVs       []mgl32.Vec2
	Triangles []int32 // index triples into Vertices
	Normals   []mgl32.Vec3

	FlatShaded      bool
	LOD             int
	VerticesPerLine int
}

// TriangleCount returns len(Triangles)/3.
func (g *Geometry) TriangleCount() int { return len(g.Triangles) / 3 }

// Interleave flattens the vertex arrays into a pos+normal+uv buffer, VertexStride
// floats per vertex, in Vertices order.
func (g *Geometry) Interleave() []float32 {
	out := make([]float32, 0, len(g.Vertices)*VertexStride)
	for i, v := range g.Vertices {
		n := g.Normals[i]
		uv := g.UVs[i]
		out = append(out, v.X(), v.Y(), v.Z(), n.X(), n.Y(), n.Z(), uv.X(), uv.Y())
	}
	return out
}

// Stride returns the sample step used at lod: 1 for the finest level, 2*lod otherwise.
func Stride(lod int) int {
	if lod <= 0 {
		return 1
	}
	return lod * 2
}

// VerticesPerLine returns how many rendered vertices one mesh row holds when a
// bordered field of side borderedSize is built at lod.
func VerticesPerLine(borderedSize, lod int) int {
	stride := Stride(lod)
	meshSize := borderedSize - 2*stride
	return (meshSize-1)/stride + 1
}

// CheckLOD reports whether a field of side borderedSize can be meshed at lod:
// the stride must land exactly on the far border and leave at least a 2x2 mesh.
func CheckLOD(borderedSize, lod int) error {
	if lod < 0 {
		return fmt.Errorf("lod %d: must not be negative", lod)
	}
	stride := Stride(lod)
	if (borderedSize-1)%stride != 0 {
		return fmt.Errorf("lod %d: stride %d does not divide %d", lod, stride, borderedSize-1)
	}
	if borderedSize-2*stride < 2 {
		return fmt.Errorf("lod %d: stride %d leaves no mesh in a field of %d", lod, stride, borderedSize)
	}
	return nil
}

type vertexKind uint8

const (
	interiorVertex vertexKind = iota
	borderVertex
)

// vertexRef names a vertex either in the rendered arrays or in the hidden
// border ring that only feeds normal accumulation.
type vertexRef struct {
	kind  vertexKind
	index int32
}

func interiorRef(i int32) vertexRef { return vertexRef{kind: interiorVertex, index: i} }
func borderRef(i int32) vertexRef   { return vertexRef{kind: borderVertex, index: i} }

func (r vertexRef) isBorder() bool { return r.kind == borderVertex }

// encoded folds the ref into one int: interior vertices keep their index,
// border vertices map to -1, -2, ...
func (r vertexRef) encoded() int {
	if r.isBorder() {
		return -int(r.index) - 1
	}
	return int(r.index)
}

type triangle [3]vertexRef

// builder holds the scratch state for one Build call.
type builder struct {
	vertices []mgl32.Vec3
	uvs      []mgl32.Vec2
	border   []mgl32.Vec3

	triangles       []int32
	borderTriangles []triangle
}

func (b *builder) position(r vertexRef) mgl32.Vec3 {
	if r.isBorder() {
		return b.border[r.index]
	}
	return b.vertices[r.index]
}

func (b *builder) addTriangle(t triangle) {
	if t[0].isBorder() || t[1].isBorder() || t[2].isBorder() {
		b.borderTriangles = append(b.borderTriangles, t)
		return
	}
	b.triangles = append(b.triangles, t[0].index, t[1].index, t[2].index)
}

// Build meshes hf at lod. Heights pass through c (nil means identity) and are
// scaled by heightMultiplier. The mesh is centred on the origin and spans
// Interior()-1 units on each axis; rows advance toward -Z.
func Build(hf *heightfield.HeightField, heightMultiplier float32, c curve.Curve, lod int, flat bool) (*Geometry, error) {
	defer profiling.Track("meshing.Build")()

	bordered := hf.Size()
	if err := CheckLOD(bordered, lod); err != nil {
		return nil, err
	}
	if c == nil {
		c = curve.Linear{}
	}

	stride := Stride(lod)
	interior := bordered - 2
	meshSize := bordered - 2*stride
	span := float32(meshSize - 1)
	extent := float32(interior - 1)
	topLeftX := extent / -2
	topLeftZ := extent / 2

	samples := (bordered-1)/stride + 1
	refs := make([]vertexRef, samples*samples)
	var interiorCount, borderCount int32
	for gy := range samples {
		for gx := range samples {
			x, y := gx*stride, gy*stride
			if x == 0 || y == 0 || x == bordered-1 || y == bordered-1 {
				refs[gy*samples+gx] = borderRef(borderCount)
				borderCount++
			} else {
				refs[gy*samples+gx] = interiorRef(interiorCount)
				interiorCount++
			}
		}
	}

	b := &builder{
		vertices:  make([]mgl32.Vec3, interiorCount),
		uvs:       make([]mgl32.Vec2, interiorCount),
		border:    make([]mgl32.Vec3, borderCount),
		triangles: make([]int32, 0, (samples-3)*(samples-3)*6),
	}

	for gy := range samples {
		for gx := range samples {
			x, y := gx*stride, gy*stride
			u := float32(x-stride) / span
			v := float32(y-stride) / span
			height := c.Evaluate(hf.At(x, y)) * heightMultiplier
			pos := mgl32.Vec3{topLeftX + u*extent, height, topLeftZ - v*extent}

			r := refs[gy*samples+gx]
			if r.isBorder() {
				b.border[r.index] = pos
				continue
			}
			b.vertices[r.index] = pos
			b.uvs[r.index] = mgl32.Vec2{u, v}
		}
	}

	for gy := 0; gy < samples-1; gy++ {
		for gx := 0; gx < samples-1; gx++ {
			a := refs[gy*samples+gx]
			bb := refs[gy*samples+gx+1]
			cc := refs[(gy+1)*samples+gx]
			d := refs[(gy+1)*samples+gx+1]
			b.addTriangle(triangle{a, d, cc})
			b.addTriangle(triangle{d, a, bb})
		}
	}

	g := &Geometry{
		Vertices:        b.vertices,
		UVs:             b.uvs,
		Triangles:       b.triangles,
		Normals:         b.bakeNormals(),
		LOD:             lod,
		VerticesPerLine: VerticesPerLine(bordered, lod),
	}
	if flat {
		g = flatShade(g)
	}
	return g, nil
}

// bakeNormals accumulates face normals of rendered and border triangles into
// the rendered vertices they touch. Border vertices never receive normals.
func (b *builder) bakeNormals() []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(b.vertices))

	accumulate := func(t triangle) {
		n, ok := faceNormal(b.position(t[0]), b.position(t[1]), b.position(t[2]))
		if !ok {
			return
		}
		for _, r := range t {
			if !r.isBorder() {
				normals[r.index] = normals[r.index].Add(n)
			}
		}
	}

	for i := 0; i < len(b.triangles); i += 3 {
		accumulate(triangle{
			interiorRef(b.triangles[i]),
			interiorRef(b.triangles[i+1]),
			interiorRef(b.triangles[i+2]),
		})
	}
	for _, t := range b.borderTriangles {
		accumulate(t)
	}

	for i, n := range normals {
		normals[i] = normalizeOrUp(n)
	}
	return normals
}

// faceNormal returns normalize(cross(b-a, c-a)); ok is false for zero-area faces.
func faceNormal(a, b, c mgl32.Vec3) (mgl32.Vec3, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.LenSqr() < degenerateArea {
		return mgl32.Vec3{}, false
	}
	return n.Normalize(), true
}

func normalizeOrUp(n mgl32.Vec3) mgl32.Vec3 {
	if n.LenSqr() < degenerateArea {
		return up
	}
	return n.Normalize()
}

// flatShade gives every triangle corner its own vertex carrying the face normal.
func flatShade(g *Geometry) *Geometry {
	count := len(g.Triangles)
	out := &Geometry{
		Vertices:        make([]mgl32.Vec3, count),
		UVs:             make([]mgl32.Vec2, count),
		Triangles:       make([]int32, count),
		Normals:         make([]mgl32.Vec3, count),
		FlatShaded:      true,
		LOD:             g.LOD,
		VerticesPerLine: g.VerticesPerLine,
	}
	for i, idx := range g.Triangles {
		out.Vertices[i] = g.Vertices[idx]
		out.UVs[i] = g.UVs[idx]
		out.Triangles[i] = int32(i)
	}
	for i := 0; i < count; i += 3 {
		n, ok := faceNormal(out.Vertices[i], out.Vertices[i+1], out.Vertices[i+2])
		if !ok {
			n = up
		}
		out.Normals[i], out.Normals[i+1], out.Normals[i+2] = n, n, n
	}
	return out
}
