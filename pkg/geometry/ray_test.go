package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestRay_IntersectBounds(t *testing.T) {
	box := NewBounds(-1, -1, -1, 1, 1, 1)

	tests := []struct {
		name  string
		ray   Ray
		wantT float64
		hit   bool
	}{
		{
			name:  "straight on",
			ray:   Ray{Origin: r3.Vec{Z: -5}, Dir: r3.Vec{Z: 1}},
			wantT: 4,
			hit:   true,
		},
		{
			name: "miss to the side",
			ray:  Ray{Origin: r3.Vec{X: 5, Z: -5}, Dir: r3.Vec{Z: 1}},
			hit:  false,
		},
		{
			name: "box behind origin",
			ray:  Ray{Origin: r3.Vec{Z: 5}, Dir: r3.Vec{Z: 1}},
			hit:  false,
		},
		{
			name:  "origin inside box",
			ray:   Ray{Origin: r3.Vec{}, Dir: r3.Vec{X: 1}},
			wantT: 0,
			hit:   true,
		},
		{
			name:  "diagonal",
			ray:   Ray{Origin: r3.Vec{X: -5, Y: -5, Z: -5}, Dir: r3.Vec{X: 1, Y: 1, Z: 1}},
			wantT: 4,
			hit:   true,
		},
		{
			name: "parallel outside slab",
			ray:  Ray{Origin: r3.Vec{Y: 3, Z: -5}, Dir: r3.Vec{Z: 1}},
			hit:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, hit := tt.ray.IntersectBounds(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && math.Abs(gotT-tt.wantT) > 1e-9 {
				t.Errorf("t = %v, want %v", gotT, tt.wantT)
			}
		})
	}
}

func TestRay_IntersectEmptyBounds(t *testing.T) {
	ray := Ray{Origin: r3.Vec{Z: -5}, Dir: r3.Vec{Z: 1}}
	if _, hit := ray.IntersectBounds(EmptyBounds()); hit {
		t.Error("ray must not intersect an empty box")
	}
}
