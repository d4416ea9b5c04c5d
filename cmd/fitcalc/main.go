// Command fitcalc computes camera framing for a bounding box without a
// running viewer. Useful for checking fit distances and preset
// placements against known model extents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"frag-viewer/internal/camera"
	"frag-viewer/internal/engine"
	"frag-viewer/pkg/geometry"
)

func main() {
	minX := flag.Float64("minx", 0, "bounding box minimum X")
	minY := flag.Float64("miny", 0, "bounding box minimum Y")
	minZ := flag.Float64("minz", 0, "bounding box minimum Z")
	maxX := flag.Float64("maxx", 0, "bounding box maximum X")
	maxY := flag.Float64("maxy", 0, "bounding box maximum Y")
	maxZ := flag.Float64("maxz", 0, "bounding box maximum Z")
	mode := flag.String("mode", "close", "fit mode: close or far")
	flag.Parse()

	bounds := geometry.NewBounds(*minX, *minY, *minZ, *maxX, *maxY, *maxZ)
	if bounds.IsEmpty() || bounds.MaxDim() <= 0 {
		fmt.Println("Usage: fitcalc -minx 0 -miny 0 -minz 0 -maxx 100 -maxy 100 -maxz 100 [-mode close|far]")
		os.Exit(1)
	}

	fitMode := camera.FitClose
	if *mode == "far" {
		fitMode = camera.FitFar
	}

	cam := &printCamera{}
	ctrl := camera.NewController(cam, func() {}, camera.DefaultSettings())
	provider := staticBounds{bounds}

	center := bounds.Center()
	fmt.Printf("Bounds: min (%.1f, %.1f, %.1f) max (%.1f, %.1f, %.1f)\n",
		bounds.Min.X, bounds.Min.Y, bounds.Min.Z, bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
	fmt.Printf("Center: (%.1f, %.1f, %.1f)  MaxDim: %.1f\n\n", center.X, center.Y, center.Z, bounds.MaxDim())

	fmt.Printf("Fit %s:\n", *mode)
	res := ctrl.Fit(context.Background(), fitMode, []geometry.BoundsProvider{provider})
	fmt.Printf("  distance %.1f  position (%.1f, %.1f, %.1f)  far plane %.1f\n\n",
		res.Distance, cam.pos.X, cam.pos.Y, cam.pos.Z, cam.far)

	fmt.Println("Presets:")
	for _, p := range []camera.Preset{camera.PresetTop, camera.PresetFront, camera.PresetSide, camera.PresetIsometric} {
		ctrl.ApplyPreset(context.Background(), p, []geometry.BoundsProvider{provider})
		fmt.Printf("  %-10s position (%.1f, %.1f, %.1f)\n", p, cam.pos.X, cam.pos.Y, cam.pos.Z)
	}
}

// printCamera records placements so they can be reported.
type printCamera struct {
	pos, target r3.Vec
	near, far   float64
}

func (c *printCamera) SetPlacement(position, target r3.Vec) { c.pos, c.target = position, target }
func (c *printCamera) NearFar() (float64, float64)          { return c.near, c.far }
func (c *printCamera) SetNearFar(near, far float64)         { c.near, c.far = near, far }
func (c *printCamera) Perspective() bool                    { return true }
func (c *printCamera) UpdateProjection()                    {}
func (c *printCamera) Ray(x, y float64) (geometry.Ray, bool) {
	return geometry.Ray{}, false
}

// staticBounds serves a fixed bounding box.
type staticBounds struct {
	b geometry.Bounds
}

func (s staticBounds) MergedBounds(context.Context) (geometry.Bounds, bool, error) {
	return s.b, true, nil
}

var _ engine.Camera = (*printCamera)(nil)
