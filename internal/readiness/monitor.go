// Package readiness waits for a just-loaded model's geometry to become
// usable for bounds computation. The rendering engine exposes no
// geometry-ready event, so the monitor polls at a fixed interval with a
// bounded total wait; hitting the timeout is a soft degrade, not an
// error.
package readiness

import (
	"context"
	"log"
	"time"

	"frag-viewer/internal/engine"
	"frag-viewer/pkg/debug"
)

const (
	// DefaultInterval is the poll spacing.
	DefaultInterval = 50 * time.Millisecond
	// DefaultTimeout bounds the total wait before resolving anyway.
	DefaultTimeout = 5 * time.Second
)

// Monitor polls loaded models until their geometry is available.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithTimeout overrides the total wait bound.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewMonitor returns a monitor with the default interval and timeout.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{interval: DefaultInterval, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait blocks until the model's geometry is usable or the timeout
// elapses. It returns true when geometry became available and false on
// the timeout path (logged as a warning); either way the model is
// handed on to framing. The only error is context cancellation.
func (m *Monitor) Wait(ctx context.Context, model engine.Model) (bool, error) {
	start := time.Now()
	deadline := start.Add(m.timeout)

	for {
		if time.Now().After(deadline) {
			log.Printf("readiness: model %s geometry not available after %s, continuing anyway",
				model.ID(), m.timeout)
			return false, nil
		}
		if m.geometryReady(ctx, model) {
			debug.LogTiming("readiness wait for "+model.ID(), time.Since(start))
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// geometryReady checks the model's geometry through whichever
// capabilities it offers: a non-empty position attribute on any
// geometry node, or a computable merged bounding box.
func (m *Monitor) geometryReady(ctx context.Context, model engine.Model) bool {
	caps := model.Capabilities()

	if caps.Has(engine.CapGeometryQuery) {
		ok, err := model.HasGeometry(ctx)
		if err != nil {
			debug.Log("readiness: geometry query on %s failed: %v", model.ID(), err)
		} else if ok {
			return true
		}
	}

	if caps.Has(engine.CapMergedBounds) {
		bounds, ok, err := model.MergedBounds(ctx)
		if err != nil {
			debug.Log("readiness: bounds query on %s failed: %v", model.ID(), err)
		} else if ok && !bounds.IsEmpty() {
			return true
		}
	}

	return false
}
