// Package inspect resolves viewport coordinates to model elements and
// retrieves their descriptive properties for display.
package inspect

import (
	"log"
	"math"

	"context"

	"frag-viewer/internal/engine"
	"frag-viewer/pkg/debug"
)

// Picker identifies the topmost element under a viewport coordinate
// across all loaded models.
type Picker struct {
	cam engine.Camera
}

// NewPicker returns a picker using cam for software-fallback rays.
func NewPicker(cam engine.Camera) *Picker {
	return &Picker{cam: cam}
}

// Pick walks the models in load order and returns the first reported
// hit. Models whose intersection query fails are logged and skipped.
// Models without ray intersection fall back to a software ray/AABB test
// over per-element boxes when the camera can supply a ray. A nil Hit
// with nil error means nothing is selected.
func (p *Picker) Pick(ctx context.Context, models []engine.Model, x, y float64) (*engine.Hit, error) {
	for _, m := range models {
		caps := m.Capabilities()
		switch {
		case caps.Has(engine.CapRayIntersect):
			hit, err := m.IntersectRay(ctx, x, y)
			if err != nil {
				log.Printf("inspect: ray intersection on model %s failed: %v", m.ID(), err)
				continue
			}
			if hit != nil {
				return hit, nil
			}
		case caps.Has(engine.CapElementBounds):
			if hit := p.softwarePick(ctx, m, x, y); hit != nil {
				return hit, nil
			}
		}
	}
	return nil, nil
}

// softwarePick runs the ray/AABB slab test over the model's per-element
// boxes and returns the nearest hit.
func (p *Picker) softwarePick(ctx context.Context, m engine.Model, x, y float64) *engine.Hit {
	ray, ok := p.cam.Ray(x, y)
	if !ok {
		debug.Log("inspect: no camera ray available, skipping software pick on %s", m.ID())
		return nil
	}
	boxes, err := m.ElementBounds(ctx)
	if err != nil {
		log.Printf("inspect: element bounds on model %s failed: %v", m.ID(), err)
		return nil
	}

	best := math.Inf(1)
	var hit *engine.Hit
	for _, box := range boxes {
		t, ok := ray.IntersectBounds(box.Bounds)
		if !ok || t >= best {
			continue
		}
		best = t
		hit = &engine.Hit{Model: m.ID(), Element: box.Element, Distance: t}
	}
	return hit
}
