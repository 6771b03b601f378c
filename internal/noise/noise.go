package noise

import (
	"math"
	"math/rand"

	"landmass/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
)

// octaveOffsetRange bounds the per-octave random offsets drawn from the seed.
const octaveOffsetRange = 100000

// Map is an immutable width x height grid of normalized noise samples.
type Map struct {
	width  int
	height int
	values []float32 // row-major, values[y*width+x]
}

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// At returns the sample at column x, row y.
func (m *Map) At(x, y int) float32 {
	return m.values[y*m.width+x]
}

// MinMax returns the smallest and largest sample. An empty map returns 0, 0.
func (m *Map) MinMax() (lo, hi float32) {
	if len(m.values) == 0 {
		return 0, 0
	}
	lo, hi = m.values[0], m.values[0]
	for _, v := range m.values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Sampler generates noise maps for one Params. It is read-only after
// construction and may be shared by concurrent generation calls.
type Sampler struct {
	params      Params
	scale       float64
	source      Source
	octaves     []mgl64.Vec2 // seed-derived random part of each octave offset
	maxPossible float64
}

// NewSampler prepares the backend and the seed-derived octave offsets.
// An unknown Source kind falls back to perlin; config validation rejects it earlier.
func NewSampler(p Params) *Sampler {
	src, err := NewSource(p.Source, p.Seed)
	if err != nil {
		src, _ = NewSource(SourcePerlin, p.Seed)
	}

	prng := rand.New(rand.NewSource(p.Seed))
	offsets := make([]mgl64.Vec2, max(p.Octaves, 0))
	for i := range offsets {
		ox := float64(prng.Intn(2*octaveOffsetRange) - octaveOffsetRange)
		oy := float64(prng.Intn(2*octaveOffsetRange) - octaveOffsetRange)
		offsets[i] = mgl64.Vec2{ox, oy}
	}

	return &Sampler{
		params:      p,
		scale:       p.EffectiveScale(),
		source:      src,
		octaves:     offsets,
		maxPossible: p.MaxPossibleHeight(),
	}
}

// Params returns the parameters the sampler was built from.
func (s *Sampler) Params() Params { return s.params }

// Generate is the one-shot form of NewSampler(p).Generate(width, height, zero).
func Generate(width, height int, p Params) *Map {
	return NewSampler(p).Generate(width, height, mgl64.Vec2{})
}

// Generate samples a width x height grid centred on centre (added to Params.Offset).
// The x offset is added and the y offset subtracted: rows run toward -z in world
// space, so every sample is a function of its world position alone.
func (s *Sampler) Generate(width, height int, centre mgl64.Vec2) *Map {
	defer profiling.Track("noise.Generate")()

	width, height = max(width, 0), max(height, 0)
	m := &Map{width: width, height: height, values: make([]float32, width*height)}
	if len(m.values) == 0 {
		return m
	}
	if len(s.octaves) == 0 {
		// Nothing accumulates: a constant zero field in either mode.
		return m
	}

	offset := s.params.Offset.Add(centre)
	octaveOffsets := make([]mgl64.Vec2, len(s.octaves))
	for i, r := range s.octaves {
		octaveOffsets[i] = mgl64.Vec2{r.X() + offset.X(), r.Y() - offset.Y()}
	}

	halfWidth := float64(width) / 2
	halfHeight := float64(height) / 2

	raw := make([]float64, len(m.values))
	minValue := math.MaxFloat64
	maxValue := -math.MaxFloat64

	for y := range height {
		for x := range width {
			amplitude := 1.0
			frequency := 1.0
			sum := 0.0

			for _, o := range octaveOffsets {
				sampleX := (float64(x) - halfWidth + o.X()) / s.scale * frequency
				sampleY := (float64(y) - halfHeight + o.Y()) / s.scale * frequency
				sum += s.source.Eval2(sampleX, sampleY) * amplitude

				amplitude *= s.params.Persistence
				frequency *= s.params.Lacunarity
			}

			minValue = min(minValue, sum)
			maxValue = max(maxValue, sum)
			raw[y*width+x] = sum
		}
	}

	switch s.params.Normalize {
	case Global:
		denom := 2 * s.maxPossible
		for i, v := range raw {
			n := 0.0
			if denom != 0 {
				n = (v + 1) / denom
			}
			m.values[i] = float32(max(n, 0))
		}
	default:
		for i, v := range raw {
			m.values[i] = float32(inverseLerp(minValue, maxValue, v))
		}
	}
	return m
}

// inverseLerp maps v from [a,b] to [0,1]; a degenerate range maps to 0.
func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	t := (v - a) / (b - a)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
