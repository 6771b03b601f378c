// Package heightfield turns noise samples into the bordered per-chunk height
// grids consumed by the mesh builder.
package heightfield

import (
	"fmt"

	"landmass/internal/falloff"
	"landmass/internal/noise"
	"landmass/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// HeightField is an immutable square grid of Interior()+2 samples per side. The
// outermost ring exists only so meshes can compute normals across chunk seams.
type HeightField struct {
	size   int
	values []float32
}

// FromValues builds a field from a row-major size x size slice. The slice is copied.
func FromValues(size int, values []float32) (*HeightField, error) {
	if size < 3 {
		return nil, fmt.Errorf("height field size %d: need at least 3", size)
	}
	if len(values) != size*size {
		return nil, fmt.Errorf("height field size %d: got %d values, want %d", size, len(values), size*size)
	}
	return &HeightField{size: size, values: append([]float32(nil), values...)}, nil
}

// Size returns the bordered side length.
func (h *HeightField) Size() int { return h.size }

// Width and Height both return Size; they let a field stand in for a noise map.
func (h *HeightField) Width() int  { return h.size }
func (h *HeightField) Height() int { return h.size }

// Interior returns the side length without the border ring.
func (h *HeightField) Interior() int { return h.size - 2 }

// At returns the sample at column x, row y of the bordered grid.
func (h *HeightField) At(x, y int) float32 {
	return h.values[y*h.size+x]
}

// Values returns a copy of the samples in row-major order.
func (h *HeightField) Values() []float32 {
	return append([]float32(nil), h.values...)
}

// BuilderConfig describes how height fields are generated for every chunk.
type BuilderConfig struct {
	Params       noise.Params
	InteriorSize int // S, the number of samples a chunk's mesh spans
	UseFalloff   bool
}

// Builder generates height fields. It holds only immutable state and is shared
// by every pool worker.
type Builder struct {
	cfg     BuilderConfig
	sampler *noise.Sampler
	mask    *falloff.Mask
}

// NewBuilder prepares the noise sampler and, when enabled, the falloff mask.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.InteriorSize < 1 {
		return nil, fmt.Errorf("interior size %d: must be positive", cfg.InteriorSize)
	}
	b := &Builder{
		cfg:     cfg,
		sampler: noise.NewSampler(cfg.Params),
	}
	if cfg.UseFalloff {
		b.mask = falloff.Cached(cfg.InteriorSize + 2)
	}
	return b, nil
}

// BorderedSize returns S+2.
func (b *Builder) BorderedSize() int { return b.cfg.InteriorSize + 2 }

// Config returns the configuration the builder was created with.
func (b *Builder) Config() BuilderConfig { return b.cfg }

// Build samples the field centred on centre, in noise-space units.
func (b *Builder) Build(centre mgl32.Vec2) *HeightField {
	defer profiling.Track("heightfield.Build")()

	size := b.BorderedSize()
	m := b.sampler.Generate(size, size, mgl64.Vec2{float64(centre.X()), float64(centre.Y())})

	h := &HeightField{size: size, values: make([]float32, size*size)}
	for y := range size {
		for x := range size {
			v := m.At(x, y)
			if b.mask != nil {
				v = mgl32.Clamp(v-b.mask.At(x, y), 0, 1)
			}
			h.values[y*size+x] = v
		}
	}
	return h
}
