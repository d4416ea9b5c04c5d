// Package enginetest provides deterministic in-memory fakes of the
// engine contracts for package tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"frag-viewer/internal/engine"
	"frag-viewer/pkg/geometry"
)

// FakeCamera records placements and clip plane changes.
type FakeCamera struct {
	Pos               r3.Vec
	Target            r3.Vec
	Near              float64
	Far               float64
	Persp             bool
	ProjectionUpdates int
	Placements        int

	// RayFunc, when set, supplies rays for the software picking fallback.
	RayFunc func(x, y float64) (geometry.Ray, bool)
}

// NewFakeCamera returns a perspective camera with the given clip planes.
func NewFakeCamera(near, far float64) *FakeCamera {
	return &FakeCamera{Near: near, Far: far, Persp: true}
}

func (c *FakeCamera) SetPlacement(position, target r3.Vec) {
	c.Pos = position
	c.Target = target
	c.Placements++
}

func (c *FakeCamera) NearFar() (float64, float64) { return c.Near, c.Far }

func (c *FakeCamera) SetNearFar(near, far float64) {
	c.Near = near
	c.Far = far
}

func (c *FakeCamera) Perspective() bool { return c.Persp }

func (c *FakeCamera) UpdateProjection() { c.ProjectionUpdates++ }

func (c *FakeCamera) Ray(x, y float64) (geometry.Ray, bool) {
	if c.RayFunc == nil {
		return geometry.Ray{}, false
	}
	return c.RayFunc(x, y)
}

// FakeModel is a configurable model handle.
type FakeModel struct {
	mu sync.Mutex

	Name string
	Caps engine.Capability

	// Geometry readiness.
	Geometry bool
	Bounds   geometry.Bounds
	HasBox   bool

	// Classification: category name -> element ids.
	Elements map[string][]engine.ElementID

	// Visibility state per element, mutated by SetVisible.
	Hidden map[engine.ElementID]bool

	// Picking.
	HitResult    *engine.Hit
	IntersectErr error
	Boxes        []engine.ElementBox

	// Properties.
	Props    map[engine.ElementID]map[string]interface{}
	Attrs    map[engine.ElementID]map[string]interface{}
	PropsErr error
	AttrsErr error
}

// NewFakeModel returns a model with the full capability set and a unit box.
func NewFakeModel(name string) *FakeModel {
	return &FakeModel{
		Name: name,
		Caps: engine.CapGeometryQuery | engine.CapMergedBounds | engine.CapClassification |
			engine.CapRayIntersect | engine.CapElementBounds | engine.CapVisibility |
			engine.CapProperties | engine.CapRawAttributes,
		Geometry: true,
		Bounds:   geometry.NewBounds(0, 0, 0, 1, 1, 1),
		HasBox:   true,
		Elements: make(map[string][]engine.ElementID),
		Hidden:   make(map[engine.ElementID]bool),
		Props:    make(map[engine.ElementID]map[string]interface{}),
		Attrs:    make(map[engine.ElementID]map[string]interface{}),
	}
}

func (m *FakeModel) ID() string { return m.Name }

func (m *FakeModel) Capabilities() engine.Capability { return m.Caps }

func (m *FakeModel) HasGeometry(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Geometry, nil
}

func (m *FakeModel) MergedBounds(ctx context.Context) (geometry.Bounds, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Bounds, m.HasBox, nil
}

func (m *FakeModel) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cats := make([]string, 0, len(m.Elements))
	for c := range m.Elements {
		cats = append(cats, c)
	}
	return cats, nil
}

func (m *FakeModel) ElementsByCategory(ctx context.Context, category string) ([]engine.ElementID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Elements[category], nil
}

func (m *FakeModel) IntersectRay(ctx context.Context, x, y float64) (*engine.Hit, error) {
	if m.IntersectErr != nil {
		return nil, m.IntersectErr
	}
	return m.HitResult, nil
}

func (m *FakeModel) ElementBounds(ctx context.Context) ([]engine.ElementBox, error) {
	return m.Boxes, nil
}

func (m *FakeModel) SetVisible(ctx context.Context, elements []engine.ElementID, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range elements {
		m.Hidden[id] = !visible
	}
	return nil
}

func (m *FakeModel) SetAllVisible(ctx context.Context, visible bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[engine.ElementID]bool)
	for _, ids := range m.Elements {
		for _, id := range ids {
			seen[id] = true
			m.Hidden[id] = !visible
		}
	}
	return len(seen), nil
}

func (m *FakeModel) Properties(ctx context.Context, element engine.ElementID) (map[string]interface{}, error) {
	if m.PropsErr != nil {
		return nil, m.PropsErr
	}
	return m.Props[element], nil
}

func (m *FakeModel) RawAttributes(ctx context.Context, element engine.ElementID) (map[string]interface{}, error) {
	if m.AttrsErr != nil {
		return nil, m.AttrsErr
	}
	return m.Attrs[element], nil
}

// SetGeometry toggles geometry readiness; safe for concurrent use with
// HasGeometry.
func (m *FakeModel) SetGeometry(ready bool) {
	m.mu.Lock()
	m.Geometry = ready
	m.mu.Unlock()
}

// HiddenCount returns how many elements are currently hidden.
func (m *FakeModel) HiddenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, hidden := range m.Hidden {
		if hidden {
			n++
		}
	}
	return n
}

// FakeEngine loads FakeModels and counts forced render passes.
type FakeEngine struct {
	mu sync.Mutex

	Cam     *FakeCamera
	Models  map[string]*FakeModel
	Renders int

	// LoadFunc, when set, overrides the default load behavior.
	LoadFunc func(id string, data []byte) (*FakeModel, error)
	// LoadErr rejects every load when set.
	LoadErr error
}

// NewFakeEngine returns an engine with a default perspective camera.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		Cam:    NewFakeCamera(0.1, 10000),
		Models: make(map[string]*FakeModel),
	}
}

func (e *FakeEngine) Camera() engine.Camera { return e.Cam }

func (e *FakeEngine) LoadModel(ctx context.Context, id string, data []byte) (engine.Model, error) {
	if e.LoadErr != nil {
		return nil, e.LoadErr
	}
	var m *FakeModel
	var err error
	if e.LoadFunc != nil {
		m, err = e.LoadFunc(id, data)
		if err != nil {
			return nil, err
		}
	} else {
		m = NewFakeModel(id)
	}
	e.mu.Lock()
	e.Models[id] = m
	e.mu.Unlock()
	return m, nil
}

func (e *FakeEngine) RemoveModel(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.Models[id]; !ok {
		return fmt.Errorf("model %q not loaded", id)
	}
	delete(e.Models, id)
	return nil
}

func (e *FakeEngine) Render() {
	e.mu.Lock()
	e.Renders++
	e.mu.Unlock()
}

// RenderCount returns the number of forced render passes.
func (e *FakeEngine) RenderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Renders
}
