package camera

import (
	"context"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"frag-viewer/internal/engine"
	"frag-viewer/pkg/debug"
	"frag-viewer/pkg/geometry"
)

// FitMode selects the framing distance heuristic.
type FitMode int

const (
	// FitClose frames the models tightly for detail work.
	FitClose FitMode = iota
	// FitFar frames with wide margin for a full-project overview.
	FitFar
)

// Preset is one of the fixed camera views.
type Preset int

const (
	PresetTop Preset = iota
	PresetFront
	PresetSide
	PresetIsometric
)

// ParsePreset resolves a preset by name. The bool result is false for
// unknown names.
func ParsePreset(name string) (Preset, bool) {
	switch strings.ToLower(name) {
	case "top":
		return PresetTop, true
	case "front":
		return PresetFront, true
	case "side":
		return PresetSide, true
	case "iso", "isometric":
		return PresetIsometric, true
	}
	return 0, false
}

func (p Preset) String() string {
	switch p {
	case PresetTop:
		return "top"
	case PresetFront:
		return "front"
	case PresetSide:
		return "side"
	case PresetIsometric:
		return "isometric"
	}
	return "unknown"
}

// closeFarOffset is the direction of the camera relative to the model
// center for close/far fits; the Y component is replaced by the mode's
// height offset.
var closeFarOffset = r3.Vec{X: 0.9, Z: 0.8}

// presetDirections are unit directions from the model center per preset.
var presetDirections = map[Preset]r3.Vec{
	PresetTop:       {Y: 1},
	PresetFront:     {Z: 1},
	PresetSide:      {X: 1},
	PresetIsometric: {X: 1 / math.Sqrt(3), Y: 1 / math.Sqrt(3), Z: 1 / math.Sqrt(3)},
}

// Result describes the outcome of a framing operation.
type Result struct {
	// Fitted is false when no model yielded bounds and the operation
	// was a no-op.
	Fitted bool
	// Distance is the computed camera distance from the target.
	Distance float64
	// ProjectionChanged reports that the far plane was grown to satisfy
	// far >= distance + maxDim and the projection matrix was updated.
	ProjectionChanged bool
}

// Controller derives camera placement from model bounds. It owns the
// mutable Settings record; updates go through UpdateSettings so near/far
// are re-applied and the view re-fit.
type Controller struct {
	cam      engine.Camera
	render   func()
	settings Settings
}

// NewController returns a controller driving cam. render is the forced
// render pass invoked after each positioning.
func NewController(cam engine.Camera, render func(), settings Settings) *Controller {
	c := &Controller{cam: cam, render: render, settings: settings}
	c.cam.SetNearFar(settings.Near, settings.Far)
	return c
}

// Settings returns a copy of the current settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// UpdateSettings merges the partial update, re-applies near/far to the
// active camera, and re-triggers a close fit. It never triggers a far fit.
func (c *Controller) UpdateSettings(ctx context.Context, u SettingsUpdate, models []geometry.BoundsProvider) Result {
	c.settings.Apply(u)
	c.cam.SetNearFar(c.settings.Near, c.settings.Far)
	c.cam.UpdateProjection()
	return c.Fit(ctx, FitClose, models)
}

// Fit frames all given models in the requested mode. When no model
// yields valid bounds the camera is left untouched.
func (c *Controller) Fit(ctx context.Context, mode FitMode, models []geometry.BoundsProvider) Result {
	bounds, ok := geometry.Combined(ctx, models)
	if !ok {
		debug.Log("camera: fit skipped, no model bounds available")
		return Result{}
	}

	maxDim := bounds.MaxDim()
	center := bounds.Center()

	mult := c.settings.CloseFitMultiplier
	height := c.settings.CloseHeightOffset
	if mode == FitFar {
		mult = c.settings.FarFitMultiplier
		height = c.settings.FarHeightOffset
	}

	distance := c.distanceFor(maxDim, mult)
	offset := r3.Scale(distance, r3.Vec{X: closeFarOffset.X, Y: height, Z: closeFarOffset.Z})
	c.cam.SetPlacement(r3.Add(center, offset), center)

	changed := c.ensureFarPlane(distance, maxDim)
	c.render()
	return Result{Fitted: true, Distance: distance, ProjectionChanged: changed}
}

// ApplyPreset positions the camera at one of the fixed views, at twice
// the largest model dimension from the center.
func (c *Controller) ApplyPreset(ctx context.Context, preset Preset, models []geometry.BoundsProvider) Result {
	bounds, ok := geometry.Combined(ctx, models)
	if !ok {
		debug.Log("camera: preset %s skipped, no model bounds available", preset)
		return Result{}
	}

	maxDim := bounds.MaxDim()
	center := bounds.Center()
	distance := math.Max(maxDim*2, c.settings.MinDistance)

	dir, ok := presetDirections[preset]
	if !ok {
		dir = presetDirections[PresetIsometric]
	}
	c.cam.SetPlacement(r3.Add(center, r3.Scale(distance, dir)), center)

	changed := c.ensureFarPlane(distance, maxDim)
	c.render()
	return Result{Fitted: true, Distance: distance, ProjectionChanged: changed}
}

// distanceFor computes the framing distance for the given model extent:
// the multiplied extent floored at MinDistance, then progressively
// scaled once the extent crosses the size thresholds. Sequential checks
// mean the largest exceeded threshold wins; scales never compound.
func (c *Controller) distanceFor(maxDim, mult float64) float64 {
	base := math.Max(maxDim*mult, c.settings.MinDistance)

	scale := 1.0
	if maxDim > c.settings.MediumThreshold {
		scale = c.settings.MediumScale
	}
	if maxDim > c.settings.LargeThreshold {
		scale = c.settings.LargeScale
	}
	if maxDim > c.settings.VeryLargeThreshold {
		scale = c.settings.VeryLargeScale
	}
	return base * scale
}

// ensureFarPlane grows the far plane so that far >= distance + maxDim,
// updating the projection matrix when it does.
func (c *Controller) ensureFarPlane(distance, maxDim float64) bool {
	if !c.cam.Perspective() {
		return false
	}
	near, far := c.cam.NearFar()
	required := distance + maxDim
	if far >= required {
		return false
	}
	c.settings.Far = required
	c.cam.SetNearFar(near, required)
	c.cam.UpdateProjection()
	debug.Log("camera: far plane raised to %.1f", required)
	return true
}
