package noise

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// SourceKind names the single-octave noise backend used by a Sampler.
type SourceKind string

const (
	SourcePerlin  SourceKind = "perlin"
	SourceSimplex SourceKind = "simplex"
	SourceValue   SourceKind = "value"
)

// ParseSourceKind validates a configured backend name. Empty selects perlin.
func ParseSourceKind(s string) (SourceKind, error) {
	switch k := SourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SourcePerlin, nil
	case SourcePerlin, SourceSimplex, SourceValue:
		return k, nil
	default:
		return "", fmt.Errorf("unknown noise source %q", s)
	}
}

// Source evaluates one octave of 2D noise in [-1, 1].
// Implementations must be deterministic and safe for concurrent reads.
type Source interface {
	Eval2(x, y float64) float64
}

// NewSource builds the backend for kind, seeded with seed.
func NewSource(kind SourceKind, seed int64) (Source, error) {
	switch kind {
	case SourcePerlin, "":
		// alpha/beta only matter for n > 1; octaves are layered by the sampler.
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}, nil
	case SourceSimplex:
		return simplexSource{n: opensimplex.New(seed)}, nil
	case SourceValue:
		return valueSource{seed: seed}, nil
	default:
		return nil, fmt.Errorf("unknown noise source %q", kind)
	}
}

type perlinSource struct {
	p *perlin.Perlin
}

// perlinPeriod is the lattice period of go-perlin's permutation table. Its lattice
// lookup truncates toward zero, so inputs are wrapped into [0, period) first;
// the field is periodic there, which keeps it continuous for negative coordinates.
const perlinPeriod = 256

// Classic 2D Perlin peaks at ±√½; stretch it to span [-1, 1].
func (s perlinSource) Eval2(x, y float64) float64 {
	return clampSigned(s.p.Noise2D(wrap(x, perlinPeriod), wrap(y, perlinPeriod)) * math.Sqrt2)
}

func wrap(v, period float64) float64 {
	v = math.Mod(v, period)
	if v < 0 {
		v += period
	}
	return v
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) Eval2(x, y float64) float64 {
	return clampSigned(s.n.Eval2(x, y))
}

type valueSource struct {
	seed int64
}

func (s valueSource) Eval2(x, y float64) float64 {
	return valueNoise2D(x, y, s.seed)*2 - 1
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
