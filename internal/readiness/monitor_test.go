package readiness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frag-viewer/internal/engine"
	"frag-viewer/internal/engine/enginetest"
	"frag-viewer/pkg/geometry"
)

func TestWait_ReadyAtFirstPoll(t *testing.T) {
	model := enginetest.NewFakeModel("house")
	m := NewMonitor(WithInterval(5*time.Millisecond), WithTimeout(time.Second))

	start := time.Now()
	ready, err := m.Wait(context.Background(), model)

	require.NoError(t, err)
	assert.True(t, ready, "geometry present at first poll must resolve immediately")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_TimeoutPath(t *testing.T) {
	model := enginetest.NewFakeModel("empty")
	model.Geometry = false
	model.HasBox = false
	m := NewMonitor(WithInterval(5*time.Millisecond), WithTimeout(40*time.Millisecond))

	ready, err := m.Wait(context.Background(), model)

	require.NoError(t, err, "timeout is a soft degrade, never an error")
	assert.False(t, ready)
}

func TestWait_BecomesReadyLater(t *testing.T) {
	model := enginetest.NewFakeModel("slow")
	model.Geometry = false
	model.HasBox = false
	m := NewMonitor(WithInterval(5*time.Millisecond), WithTimeout(2*time.Second))

	go func() {
		time.Sleep(25 * time.Millisecond)
		model.SetGeometry(true)
	}()

	ready, err := m.Wait(context.Background(), model)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestWait_MergedBoundsAlsoCountsAsReady(t *testing.T) {
	model := enginetest.NewFakeModel("bounds-only")
	model.Caps = engine.CapMergedBounds
	model.Geometry = false
	model.Bounds = geometry.NewBounds(0, 0, 0, 1, 1, 1)
	model.HasBox = true
	m := NewMonitor(WithInterval(5*time.Millisecond), WithTimeout(time.Second))

	ready, err := m.Wait(context.Background(), model)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestWait_ContextCancellation(t *testing.T) {
	model := enginetest.NewFakeModel("stuck")
	model.Geometry = false
	model.HasBox = false
	m := NewMonitor(WithInterval(10*time.Millisecond), WithTimeout(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := m.Wait(ctx, model)
	assert.ErrorIs(t, err, context.Canceled)
}
