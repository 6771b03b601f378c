// Package falloff builds square edge masks that push terrain toward zero height
// near the border of a grid, producing island-like landmasses.
package falloff

import (
	"math"
	"sync"
)

// Shape constants of the falloff curve v^a / (v^a + (b - b*v)^a).
const (
	curveA = 3.0
	curveB = 2.2
)

// Mask is an immutable size x size grid of falloff values in [0,1].
type Mask struct {
	size   int
	values []float32
}

// Size returns the side length.
func (m *Mask) Size() int { return m.size }

// At returns the mask value at column x, row y.
func (m *Mask) At(x, y int) float32 {
	return m.values[y*m.size+x]
}

// Generate builds a mask whose value rises with max(|x|,|y|), where x and y are
// normalized to [-1,1] across the grid.
func Generate(size int) *Mask {
	size = max(size, 0)
	m := &Mask{size: size, values: make([]float32, size*size)}
	for j := range size {
		for i := range size {
			x := float64(i)/float64(size)*2 - 1
			y := float64(j)/float64(size)*2 - 1
			v := math.Max(math.Abs(x), math.Abs(y))
			m.values[j*size+i] = float32(Evaluate(v))
		}
	}
	return m
}

// Evaluate applies the falloff curve to v in [0,1].
func Evaluate(v float64) float64 {
	a := math.Pow(v, curveA)
	return a / (a + math.Pow(curveB-curveB*v, curveA))
}

var (
	cacheMu sync.Mutex
	cache   = make(map[int]*Mask)
)

// Cached returns a shared mask for size, generating it on first use.
func Cached(size int) *Mask {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if m, ok := cache[size]; ok {
		return m
	}
	m := Generate(size)
	cache[size] = m
	return m
}
