package noise

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// minScale replaces non-positive scales so sampling never divides by zero.
const minScale = 0.0001

// NormalizeMode selects how accumulated octave sums are mapped into a height range.
type NormalizeMode int

const (
	// Local remaps every sample using the min/max actually produced in one grid.
	// Contrast is consistent inside a grid but adjacent grids will not line up.
	Local NormalizeMode = iota
	// Global remaps using the theoretical maximum amplitude, so independently
	// generated grids with the same parameters agree where they touch.
	Global
)

func (m NormalizeMode) String() string {
	switch m {
	case Local:
		return "local"
	case Global:
		return "global"
	default:
		return fmt.Sprintf("NormalizeMode(%d)", int(m))
	}
}

// ParseNormalizeMode accepts "local" or "global" (case-insensitive).
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return Local, nil
	case "global", "":
		return Global, nil
	default:
		return Local, fmt.Errorf("unknown normalize mode %q", s)
	}
}

// Params is the immutable description of one fractal noise field.
type Params struct {
	Seed        int64
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Offset      mgl64.Vec2
	Normalize   NormalizeMode
	Source      SourceKind
}

// DefaultParams mirrors the values the terrain was tuned with.
func DefaultParams() Params {
	return Params{
		Seed:        1,
		Scale:       50,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
		Normalize:   Global,
		Source:      SourcePerlin,
	}
}

// EffectiveScale returns Scale, or minScale when Scale is not positive.
func (p Params) EffectiveScale() float64 {
	if p.Scale <= 0 {
		return minScale
	}
	return p.Scale
}

// MaxPossibleHeight is the sum of all octave amplitudes, Σ persistence^i.
func (p Params) MaxPossibleHeight() float64 {
	total := 0.0
	amplitude := 1.0
	for range max(p.Octaves, 0) {
		total += amplitude
		amplitude *= p.Persistence
	}
	return total
}
