package world

import (
	"errors"
	"fmt"

	"landmass/internal/meshing"
)

// LODLevel is one row of the detail table. Slots are ordered finest first and
// each applies up to VisibleDistance from the viewer.
type LODLevel struct {
	LOD             int     `json:"lod" yaml:"lod"`
	VisibleDistance float32 `json:"visibleDistance" yaml:"visibleDistance"`
	UseForCollision bool    `json:"useForCollision" yaml:"useForCollision"`
}

// ValidateLODs checks a detail table against the bordered height field size.
func ValidateLODs(lods []LODLevel, borderedSize int) error {
	if len(lods) == 0 {
		return errors.New("lods: at least one level is required")
	}
	collision := -1
	for i, l := range lods {
		if err := meshing.CheckLOD(borderedSize, l.LOD); err != nil {
			return fmt.Errorf("lods[%d].lod: %w", i, err)
		}
		if l.VisibleDistance <= 0 {
			return fmt.Errorf("lods[%d].visibleDistance must be positive", i)
		}
		if i > 0 {
			if l.VisibleDistance <= lods[i-1].VisibleDistance {
				return fmt.Errorf("lods[%d].visibleDistance must be greater than lods[%d]", i, i-1)
			}
			if l.LOD <= lods[i-1].LOD {
				return fmt.Errorf("lods[%d].lod must be greater than lods[%d]", i, i-1)
			}
		}
		if l.UseForCollision {
			if collision >= 0 {
				return fmt.Errorf("lods[%d].useForCollision: lods[%d] is already the collision level", i, collision)
			}
			collision = i
		}
	}
	return nil
}

// maxViewDistance is the last threshold.
func maxViewDistance(lods []LODLevel) float32 {
	return lods[len(lods)-1].VisibleDistance
}

// collisionSlot returns the index of the collision level, or -1.
func collisionSlot(lods []LODLevel) int {
	for i, l := range lods {
		if l.UseForCollision {
			return i
		}
	}
	return -1
}

// selectSlot picks the finest slot whose threshold d does not exceed, or the
// coarsest slot.
func selectSlot(lods []LODLevel, d float32) int {
	slot := 0
	for i := 0; i < len(lods)-1; i++ {
		if d > lods[i].VisibleDistance {
			slot = i + 1
		} else {
			break
		}
	}
	return slot
}
