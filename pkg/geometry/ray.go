package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half-line with origin and (not necessarily unit) direction.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// IntersectBounds performs a slab test against the box and returns the
// distance along the ray to the nearest intersection. The bool result
// is false when the ray misses the box or the box lies behind the origin.
func (r Ray) IntersectBounds(b Bounds) (float64, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for _, axis := range [3][3]float64{
		{r.Origin.X, r.Dir.X, 0},
		{r.Origin.Y, r.Dir.Y, 1},
		{r.Origin.Z, r.Dir.Z, 2},
	} {
		origin, dir := axis[0], axis[1]
		lo, hi := boundsAxis(b, int(axis[2]))
		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}
		t0 := (lo - origin) / dir
		t1 := (hi - origin) / dir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		// Origin inside the box.
		return 0, true
	}
	return tmin, true
}

func boundsAxis(b Bounds, i int) (float64, float64) {
	switch i {
	case 0:
		return b.Min.X, b.Max.X
	case 1:
		return b.Min.Y, b.Max.Y
	default:
		return b.Min.Z, b.Max.Z
	}
}
