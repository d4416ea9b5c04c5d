// Package engine defines the contracts between the viewer session and
// the rendering engine that draws loaded fragment models. The engine is
// an external collaborator; this package only names the handles the
// session consumes. Every optional model facility is declared once in a
// Capability set probed at load time, so callers check the set instead
// of probing methods per call.
package engine

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"frag-viewer/pkg/geometry"
)

// ElementID identifies one building element within a loaded model.
type ElementID int64

// Capability flags the optional facilities a model handle supports.
type Capability uint32

const (
	// CapGeometryQuery: the model can report whether any geometry node
	// carries a non-empty position attribute.
	CapGeometryQuery Capability = 1 << iota
	// CapMergedBounds: the model can compute a merged bounding box.
	CapMergedBounds
	// CapClassification: the model can list elements by category.
	CapClassification
	// CapRayIntersect: the model can resolve a viewport coordinate to an
	// element via ray casting.
	CapRayIntersect
	// CapElementBounds: the model can enumerate per-element boxes,
	// enabling the software picking fallback.
	CapElementBounds
	// CapVisibility: the model can show or hide sets of elements.
	CapVisibility
	// CapProperties: the model can look up descriptive properties.
	CapProperties
	// CapRawAttributes: the model exposes a secondary, lower-level
	// attribute lookup used when CapProperties yields nothing.
	CapRawAttributes
)

// Has reports whether all flags in want are present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Hit is the result of a successful pick.
type Hit struct {
	Model    string
	Element  ElementID
	Distance float64
}

// ElementBox pairs an element with its axis-aligned box.
type ElementBox struct {
	Element ElementID
	Bounds  geometry.Bounds
}

// Camera is the engine's active camera.
type Camera interface {
	// SetPlacement positions the camera and aims it at target.
	SetPlacement(position, target r3.Vec)
	// NearFar returns the current clip plane distances.
	NearFar() (near, far float64)
	// SetNearFar updates the clip plane distances.
	SetNearFar(near, far float64)
	// Perspective reports whether the projection is perspective.
	Perspective() bool
	// UpdateProjection recomputes the projection matrix after a clip
	// plane change.
	UpdateProjection()
	// Ray returns the world-space ray through the given viewport
	// coordinate, when the camera can compute one locally.
	Ray(x, y float64) (geometry.Ray, bool)
}

// Model is the handle for one loaded fragment model. Methods matching a
// capability may only be called when Capabilities reports that flag.
type Model interface {
	ID() string
	Capabilities() Capability

	// HasGeometry reports whether any geometry node has a non-empty
	// position attribute. Requires CapGeometryQuery.
	HasGeometry(ctx context.Context) (bool, error)
	// MergedBounds computes the model's combined box. The bool result is
	// false when no extent is computable. Requires CapMergedBounds.
	MergedBounds(ctx context.Context) (geometry.Bounds, bool, error)
	// Categories lists the classification tags present in the model.
	// Requires CapClassification.
	Categories(ctx context.Context) ([]string, error)
	// ElementsByCategory lists the elements classified under the given
	// category, or an empty slice. Requires CapClassification.
	ElementsByCategory(ctx context.Context, category string) ([]ElementID, error)
	// IntersectRay resolves a viewport coordinate to the topmost element
	// of this model, or nil when nothing is hit. Requires CapRayIntersect.
	IntersectRay(ctx context.Context, x, y float64) (*Hit, error)
	// ElementBounds enumerates per-element boxes. Requires CapElementBounds.
	ElementBounds(ctx context.Context) ([]ElementBox, error)
	// SetVisible shows or hides the given elements. Requires CapVisibility.
	SetVisible(ctx context.Context, elements []ElementID, visible bool) error
	// SetAllVisible shows or hides every element and returns the number
	// affected. Requires CapVisibility.
	SetAllVisible(ctx context.Context, visible bool) (int, error)
	// Properties looks up descriptive properties. Requires CapProperties.
	Properties(ctx context.Context, element ElementID) (map[string]interface{}, error)
	// RawAttributes is the secondary lookup. Requires CapRawAttributes.
	RawAttributes(ctx context.Context, element ElementID) (map[string]interface{}, error)
}

// Engine is the rendering engine handle owned by the viewer session.
type Engine interface {
	Camera() Camera
	// LoadModel parses a fragment buffer into a model handle. A failed
	// load rejects only this model.
	LoadModel(ctx context.Context, id string, data []byte) (Model, error)
	// RemoveModel drops a loaded model from the scene.
	RemoveModel(ctx context.Context, id string) error
	// Render forces one synchronous render pass.
	Render()
}
