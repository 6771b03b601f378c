package noise

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testParams(mode NormalizeMode) Params {
	p := DefaultParams()
	p.Normalize = mode
	return p
}

// TestGenerateDeterministic verifies identical arguments give bit-identical grids
func TestGenerateDeterministic(t *testing.T) {
	for _, kind := range []SourceKind{SourcePerlin, SourceSimplex, SourceValue} {
		p := testParams(Global)
		p.Source = kind

		a := Generate(33, 29, p)
		b := Generate(33, 29, p)
		for y := 0; y < a.Height(); y++ {
			for x := 0; x < a.Width(); x++ {
				if math.Float32bits(a.At(x, y)) != math.Float32bits(b.At(x, y)) {
					t.Fatalf("%s: sample (%d,%d) differs: %v vs %v", kind, x, y, a.At(x, y), b.At(x, y))
				}
			}
		}
	}
}

func TestDifferentSeedsDifferentField(t *testing.T) {
	p1 := testParams(Local)
	p2 := p1
	p2.Seed = 2

	a := Generate(16, 16, p1)
	b := Generate(16, 16, p2)
	for y := range 16 {
		for x := range 16 {
			if a.At(x, y) != b.At(x, y) {
				return
			}
		}
	}
	t.Error("different seeds should produce different fields")
}

func TestLocalNormalizationSpansUnitRange(t *testing.T) {
	for _, kind := range []SourceKind{SourcePerlin, SourceSimplex, SourceValue} {
		p := testParams(Local)
		p.Source = kind
		m := Generate(64, 48, p)

		lo, hi := m.MinMax()
		if math.Abs(float64(lo)) > 1e-6 || math.Abs(float64(hi)-1) > 1e-6 {
			t.Fatalf("%s: local range = [%v, %v], want [0, 1]", kind, lo, hi)
		}
	}
}

func TestZeroOctavesIsConstant(t *testing.T) {
	for _, mode := range []NormalizeMode{Local, Global} {
		p := testParams(mode)
		p.Octaves = 0
		m := Generate(8, 8, p)
		lo, hi := m.MinMax()
		if lo != 0 || hi != 0 {
			t.Fatalf("%s: zero octaves gave range [%v, %v], want constant 0", mode, lo, hi)
		}
	}
}

func TestGlobalNormalizationFloorOnly(t *testing.T) {
	p := testParams(Global)
	m := Generate(64, 64, p)
	lo, _ := m.MinMax()
	if lo < 0 {
		t.Fatalf("global min = %v, want >= 0", lo)
	}

	// (v+1)/(2*max) can never exceed (max+1)/(2*max).
	ceiling := float32((p.MaxPossibleHeight() + 1) / (2 * p.MaxPossibleHeight()))
	for y := range 64 {
		for x := range 64 {
			if v := m.At(x, y); v > ceiling+1e-6 {
				t.Fatalf("sample (%d,%d) = %v exceeds theoretical ceiling %v", x, y, v, ceiling)
			}
		}
	}
}

// TestGlobalSeamContinuity samples two grids whose centres are one chunk apart
// and checks the overlapping columns agree.
func TestGlobalSeamContinuity(t *testing.T) {
	const size = 241 // 239 interior + border
	const chunkSize = size - 3

	s := NewSampler(testParams(Global))
	left := s.Generate(size, size, mgl64.Vec2{0, 0})
	right := s.Generate(size, size, mgl64.Vec2{chunkSize, 0})

	for y := range size {
		for x := 0; x < 3; x++ {
			a := left.At(chunkSize+x, y)
			b := right.At(x, y)
			if math.Abs(float64(a-b)) > 1e-5 {
				t.Fatalf("row %d col %d: left %v != right %v", y, x, a, b)
			}
		}
	}

	up := s.Generate(size, size, mgl64.Vec2{0, chunkSize})
	for x := range size {
		a := left.At(x, 0)
		b := up.At(x, chunkSize)
		if math.Abs(float64(a-b)) > 1e-5 {
			t.Fatalf("column %d: bottom %v != top %v", x, a, b)
		}
	}
}

func TestNonPositiveScaleIsClamped(t *testing.T) {
	p := testParams(Global)
	p.Scale = 0
	if got := p.EffectiveScale(); got != minScale {
		t.Fatalf("EffectiveScale() = %v, want %v", got, minScale)
	}
	p.Scale = -5
	m := Generate(4, 4, p)
	for y := range 4 {
		for x := range 4 {
			v := m.At(x, y)
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("sample (%d,%d) = %v with negative scale", x, y, v)
			}
		}
	}
}

func TestMaxPossibleHeight(t *testing.T) {
	p := Params{Octaves: 4, Persistence: 0.5}
	if got := p.MaxPossibleHeight(); math.Abs(got-1.875) > 1e-12 {
		t.Fatalf("MaxPossibleHeight = %v, want 1.875", got)
	}
}

func TestSourcesStayInSignedUnitRange(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for _, kind := range []SourceKind{SourcePerlin, SourceSimplex, SourceValue} {
		src, err := NewSource(kind, 42)
		if err != nil {
			t.Fatalf("NewSource(%s): %v", kind, err)
		}
		for range 2000 {
			x := rng.Float64()*40000 - 20000
			y := rng.Float64()*40000 - 20000
			if v := src.Eval2(x, y); v < -1 || v > 1 {
				t.Fatalf("%s.Eval2(%f, %f) = %f, out of [-1,1]", kind, x, y, v)
			}
		}
	}
}

func TestPerlinSourceContinuousAcrossZero(t *testing.T) {
	src, err := NewSource(SourcePerlin, 7)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	prev := src.Eval2(-3, 0.37)
	for i := 1; i <= 600; i++ {
		x := -3 + float64(i)*0.01
		cur := src.Eval2(x, 0.37)
		if diff := math.Abs(cur - prev); diff > 0.1 {
			t.Fatalf("perlin jumped by %f at x=%f", diff, x)
		}
		prev = cur
	}
}

func TestParseHelpers(t *testing.T) {
	if m, err := ParseNormalizeMode("LOCAL"); err != nil || m != Local {
		t.Fatalf("ParseNormalizeMode(LOCAL) = %v, %v", m, err)
	}
	if _, err := ParseNormalizeMode("sideways"); err == nil {
		t.Fatalf("expected error for unknown normalize mode")
	}
	if k, err := ParseSourceKind(""); err != nil || k != SourcePerlin {
		t.Fatalf("ParseSourceKind(\"\") = %v, %v", k, err)
	}
	if _, err := ParseSourceKind("worley"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestValueNoiseDeterministic(t *testing.T) {
	first := valueNoise2D(1.5, 2.7, 42)
	for range 100 {
		if v := valueNoise2D(1.5, 2.7, 42); v != first {
			t.Fatalf("valueNoise2D not deterministic: %f vs %f", v, first)
		}
	}
	if h1, h2 := hash2(1, 2, 9), hash2(2, 1, 9); h1 == h2 {
		t.Errorf("hash2 should differ for swapped axes: %d", h1)
	}
}
