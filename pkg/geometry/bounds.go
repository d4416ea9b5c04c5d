// Package geometry provides axis-aligned bounding volumes and ray math
// for the viewer's framing and picking logic.
package geometry

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds is an axis-aligned bounding box in world space.
type Bounds struct {
	Min r3.Vec
	Max r3.Vec
}

// EmptyBounds returns a box that contains nothing. Expanding it with any
// point or box yields that point or box.
func EmptyBounds() Bounds {
	return Bounds{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
}

// NewBounds returns a box spanning the two corner points.
func NewBounds(minX, minY, minZ, maxX, maxY, maxZ float64) Bounds {
	return Bounds{
		Min: r3.Vec{X: minX, Y: minY, Z: minZ},
		Max: r3.Vec{X: maxX, Y: maxY, Z: maxZ},
	}
}

// IsEmpty reports whether the box contains no volume (max < min on any axis).
func (b Bounds) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Min: r3.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// MaxDim returns the largest extent across the three axes.
func (b Bounds) MaxDim() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

// ContainsPoint reports whether the point lies inside or on the box.
func (b Bounds) ContainsPoint(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBounds reports whether o lies entirely inside b.
func (b Bounds) ContainsBounds(o Bounds) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// BoundsProvider yields the axis-aligned box of one loaded model.
// The bool result is false when the model has no computable extent.
type BoundsProvider interface {
	MergedBounds(ctx context.Context) (Bounds, bool, error)
}

// Combined computes the union of the bounding boxes of all given models.
// Models that report no box, an empty box, or an error are skipped.
// The bool result is false when no model yields a valid box; callers
// must treat that as a no-op, not an error.
func Combined(ctx context.Context, models []BoundsProvider) (Bounds, bool) {
	union := EmptyBounds()
	found := false
	for _, m := range models {
		b, ok, err := m.MergedBounds(ctx)
		if err != nil || !ok || b.IsEmpty() {
			continue
		}
		union = union.Union(b)
		found = true
	}
	return union, found
}
