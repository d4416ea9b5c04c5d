package camera

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"frag-viewer/internal/engine/enginetest"
	"frag-viewer/pkg/geometry"
)

type boxProvider struct {
	bounds geometry.Bounds
	ok     bool
}

func (b boxProvider) MergedBounds(ctx context.Context) (geometry.Bounds, bool, error) {
	return b.bounds, b.ok, nil
}

func singleBox(minX, minY, minZ, maxX, maxY, maxZ float64) []geometry.BoundsProvider {
	return []geometry.BoundsProvider{
		boxProvider{bounds: geometry.NewBounds(minX, minY, minZ, maxX, maxY, maxZ), ok: true},
	}
}

func newController() (*Controller, *enginetest.FakeCamera, *int) {
	cam := enginetest.NewFakeCamera(0.1, 10000)
	renders := 0
	ctl := NewController(cam, func() { renders++ }, DefaultSettings())
	return ctl, cam, &renders
}

func TestFitClose_OriginCube(t *testing.T) {
	// A 100-unit cube at the origin with default settings: maxDim=100 is
	// below the medium threshold, baseDistance = max(100*5.0, 200) = 500,
	// placement is center + 500*(0.9, 2.0, 0.8) aimed at the box center.
	ctl, cam, renders := newController()

	res := ctl.Fit(context.Background(), FitClose, singleBox(0, 0, 0, 100, 100, 100))

	require.True(t, res.Fitted)
	assert.Equal(t, 500.0, res.Distance)
	assert.Equal(t, r3.Vec{X: 500, Y: 1050, Z: 450}, cam.Pos)
	assert.Equal(t, r3.Vec{X: 50, Y: 50, Z: 50}, cam.Target)
	assert.Equal(t, 1, *renders, "one forced render pass after positioning")
}

func TestFit_NoBounds_NoOp(t *testing.T) {
	ctl, cam, renders := newController()

	res := ctl.Fit(context.Background(), FitClose, []geometry.BoundsProvider{boxProvider{ok: false}})

	assert.False(t, res.Fitted)
	assert.Equal(t, 0, cam.Placements, "camera must be untouched")
	assert.Equal(t, 0, *renders)
}

func TestFit_MinimumDistanceFloor(t *testing.T) {
	// Single-point bounds: maxDim = 0 must still satisfy the minimum
	// distance floor.
	ctl, _, _ := newController()

	res := ctl.Fit(context.Background(), FitClose, singleBox(5, 5, 5, 5, 5, 5))

	require.True(t, res.Fitted)
	assert.Equal(t, 200.0, res.Distance)
}

func TestFit_CloseAndFarSatisfyMinimum(t *testing.T) {
	for _, mode := range []FitMode{FitClose, FitFar} {
		ctl, _, _ := newController()
		res := ctl.Fit(context.Background(), mode, singleBox(0, 0, 0, 1, 1, 1))
		require.True(t, res.Fitted)
		assert.GreaterOrEqual(t, res.Distance, 200.0)
	}
}

func TestFit_ThresholdScaleLargestWins(t *testing.T) {
	// maxDim 2500 exceeds both the medium (500) and large (2000)
	// thresholds. Sequential checks mean the large scale (3) wins; the
	// scales must not compound to 6.
	ctl, _, _ := newController()

	res := ctl.Fit(context.Background(), FitClose, singleBox(0, 0, 0, 2500, 10, 10))

	require.True(t, res.Fitted)
	assert.Equal(t, 2500*5.0*3, res.Distance)
}

func TestFit_ThresholdScaleVeryLarge(t *testing.T) {
	ctl, _, _ := newController()

	res := ctl.Fit(context.Background(), FitClose, singleBox(0, 0, 0, 6000, 10, 10))

	require.True(t, res.Fitted)
	assert.Equal(t, 6000*5.0*4, res.Distance)
}

func TestFit_GrowsFarPlane(t *testing.T) {
	cam := enginetest.NewFakeCamera(0.1, 100)
	settings := DefaultSettings()
	settings.Far = 100
	ctl := NewController(cam, func() {}, settings)

	res := ctl.Fit(context.Background(), FitClose, singleBox(0, 0, 0, 100, 100, 100))

	require.True(t, res.Fitted)
	assert.True(t, res.ProjectionChanged)
	_, far := cam.NearFar()
	assert.GreaterOrEqual(t, far, res.Distance+100, "far plane must cover distance + maxDim")
	assert.GreaterOrEqual(t, cam.ProjectionUpdates, 1)
}

func TestFit_OrthographicSkipsFarPlane(t *testing.T) {
	cam := enginetest.NewFakeCamera(0.1, 100)
	cam.Persp = false
	ctl := NewController(cam, func() {}, DefaultSettings())

	res := ctl.Fit(context.Background(), FitClose, singleBox(0, 0, 0, 100, 100, 100))

	require.True(t, res.Fitted)
	assert.False(t, res.ProjectionChanged)
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset  Preset
		wantPos r3.Vec
	}{
		{PresetTop, r3.Vec{X: 50, Y: 250, Z: 50}},
		{PresetFront, r3.Vec{X: 50, Y: 50, Z: 250}},
		{PresetSide, r3.Vec{X: 250, Y: 50, Z: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.preset.String(), func(t *testing.T) {
			ctl, cam, renders := newController()
			res := ctl.ApplyPreset(context.Background(), tt.preset, singleBox(0, 0, 0, 100, 100, 100))

			require.True(t, res.Fitted)
			assert.Equal(t, 200.0, res.Distance, "preset distance = max(maxDim*2, minDistance)")
			assert.Equal(t, tt.wantPos, cam.Pos)
			assert.Equal(t, r3.Vec{X: 50, Y: 50, Z: 50}, cam.Target)
			assert.Equal(t, 1, *renders)
		})
	}
}

func TestApplyPreset_NoBounds_NoOp(t *testing.T) {
	ctl, cam, _ := newController()
	res := ctl.ApplyPreset(context.Background(), PresetIsometric, nil)
	assert.False(t, res.Fitted)
	assert.Equal(t, 0, cam.Placements)
}

func TestUpdateSettings_PartialAndRefit(t *testing.T) {
	ctl, cam, renders := newController()
	models := singleBox(0, 0, 0, 100, 100, 100)
	ctl.Fit(context.Background(), FitFar, models)

	mult := 3.0
	far := 20000.0
	res := ctl.UpdateSettings(context.Background(), SettingsUpdate{
		CloseFitMultiplier: &mult,
		Far:                &far,
	}, models)

	require.True(t, res.Fitted, "settings update re-triggers a close fit")
	assert.Equal(t, 300.0, res.Distance, "new multiplier applied")

	s := ctl.Settings()
	assert.Equal(t, 3.0, s.CloseFitMultiplier)
	assert.Equal(t, 20000.0, s.Far)
	assert.Equal(t, 5000.0, s.VeryLargeThreshold, "untouched fields keep defaults")

	_, gotFar := cam.NearFar()
	assert.Equal(t, 20000.0, gotFar, "near/far re-applied to the camera")
	assert.Equal(t, 2, *renders)
}

func TestParsePreset(t *testing.T) {
	for name, want := range map[string]Preset{
		"top": PresetTop, "FRONT": PresetFront, "side": PresetSide,
		"iso": PresetIsometric, "isometric": PresetIsometric,
	} {
		got, ok := ParsePreset(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got)
	}
	_, ok := ParsePreset("bottom")
	assert.False(t, ok)
}
