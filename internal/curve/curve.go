// Package curve provides the height remap applied to every sampled height before
// it is scaled into world units.
//
// Curves are immutable values: Evaluate has no cursor or cache, so a single curve
// is shared by every mesh build running on the worker pool.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// Curve remaps a normalized height.
type Curve interface {
	Evaluate(t float32) float32
}

// Func adapts a plain function. The function must be pure.
type Func func(t float32) float32

func (f Func) Evaluate(t float32) float32 { return f(t) }

// Linear is the identity remap.
type Linear struct{}

func (Linear) Evaluate(t float32) float32 { return t }

// Keyframe is one control point of a Hermite curve.
type Keyframe struct {
	Time       float32 `json:"time" yaml:"time"`
	Value      float32 `json:"value" yaml:"value"`
	InTangent  float32 `json:"inTangent" yaml:"inTangent"`
	OutTangent float32 `json:"outTangent" yaml:"outTangent"`
}

// Keyframes is a piecewise cubic Hermite curve, clamped to the first and last
// key outside their time range.
type Keyframes struct {
	keys []Keyframe
}

// New validates and copies keys, sorted by time.
func New(keys ...Keyframe) (*Keyframes, error) {
	if len(keys) == 0 {
		return nil, errors.New("curve needs at least one keyframe")
	}
	sorted := append([]Keyframe(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time == sorted[i-1].Time {
			return nil, fmt.Errorf("duplicate keyframe time %v", sorted[i].Time)
		}
	}
	return &Keyframes{keys: sorted}, nil
}

// MustNew is New for package-level defaults; it panics on invalid keys.
func MustNew(keys ...Keyframe) *Keyframes {
	c, err := New(keys...)
	if err != nil {
		panic(err)
	}
	return c
}

// Keys returns a copy of the keyframes.
func (c *Keyframes) Keys() []Keyframe {
	return append([]Keyframe(nil), c.keys...)
}

// Evaluate returns the curve value at t.
func (c *Keyframes) Evaluate(t float32) float32 {
	first, last := c.keys[0], c.keys[len(c.keys)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}

	// index of the first key strictly after t; t is inside (first, last)
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time > t })
	k0, k1 := c.keys[i-1], c.keys[i]

	dt := k1.Time - k0.Time
	s := (t - k0.Time) / dt
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}

// Terrain is the default remap: flat near zero so low ground reads as water,
// then rising steeply toward peaks.
func Terrain() *Keyframes {
	return MustNew(
		Keyframe{Time: 0, Value: 0},
		Keyframe{Time: 0.3, Value: 0.02, InTangent: 0.1, OutTangent: 0.1},
		Keyframe{Time: 1, Value: 1, InTangent: 2, OutTangent: 2},
	)
}
