package geometry

import (
	"context"
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"pgregory.net/rapid"
)

type stubProvider struct {
	bounds Bounds
	ok     bool
	err    error
}

func (s stubProvider) MergedBounds(ctx context.Context) (Bounds, bool, error) {
	return s.bounds, s.ok, s.err
}

func TestCombined_SingleModelIdentity(t *testing.T) {
	box := NewBounds(-1, -2, -3, 4, 5, 6)
	got, ok := Combined(context.Background(), []BoundsProvider{stubProvider{bounds: box, ok: true}})
	if !ok {
		t.Fatal("expected combined bounds")
	}
	if got != box {
		t.Errorf("combined bounds of single model = %v, want %v", got, box)
	}
}

func TestCombined_DisjointModelsSuperset(t *testing.T) {
	a := NewBounds(0, 0, 0, 1, 1, 1)
	b := NewBounds(10, 10, 10, 12, 12, 12)
	got, ok := Combined(context.Background(), []BoundsProvider{
		stubProvider{bounds: a, ok: true},
		stubProvider{bounds: b, ok: true},
	})
	if !ok {
		t.Fatal("expected combined bounds")
	}
	if !got.ContainsBounds(a) || !got.ContainsBounds(b) {
		t.Errorf("union %v does not contain both %v and %v", got, a, b)
	}
}

func TestCombined_SkipsInvalidModels(t *testing.T) {
	box := NewBounds(0, 0, 0, 2, 2, 2)
	got, ok := Combined(context.Background(), []BoundsProvider{
		stubProvider{err: errors.New("geometry not loaded")},
		stubProvider{ok: false},
		stubProvider{bounds: EmptyBounds(), ok: true},
		stubProvider{bounds: box, ok: true},
	})
	if !ok {
		t.Fatal("expected combined bounds")
	}
	if got != box {
		t.Errorf("combined = %v, want %v", got, box)
	}
}

func TestCombined_NoValidModels(t *testing.T) {
	_, ok := Combined(context.Background(), []BoundsProvider{
		stubProvider{ok: false},
		stubProvider{err: errors.New("nope")},
	})
	if ok {
		t.Error("expected no combined bounds when no model yields a valid box")
	}
}

func TestCombined_UnionContainsAllInputs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		var providers []BoundsProvider
		var boxes []Bounds
		for i := 0; i < n; i++ {
			min := r3.Vec{
				X: rapid.Float64Range(-1e4, 1e4).Draw(t, "minx"),
				Y: rapid.Float64Range(-1e4, 1e4).Draw(t, "miny"),
				Z: rapid.Float64Range(-1e4, 1e4).Draw(t, "minz"),
			}
			size := r3.Vec{
				X: rapid.Float64Range(0, 1e3).Draw(t, "sx"),
				Y: rapid.Float64Range(0, 1e3).Draw(t, "sy"),
				Z: rapid.Float64Range(0, 1e3).Draw(t, "sz"),
			}
			box := Bounds{Min: min, Max: r3.Add(min, size)}
			boxes = append(boxes, box)
			providers = append(providers, stubProvider{bounds: box, ok: true})
		}
		union, ok := Combined(context.Background(), providers)
		if !ok {
			t.Fatal("expected combined bounds")
		}
		for i, box := range boxes {
			if !union.ContainsBounds(box) {
				t.Fatalf("union %v does not contain input %d: %v", union, i, box)
			}
		}
	})
}

func TestBounds_CenterAndSize(t *testing.T) {
	b := NewBounds(0, 0, 0, 100, 100, 100)
	if c := b.Center(); c != (r3.Vec{X: 50, Y: 50, Z: 50}) {
		t.Errorf("center = %v, want (50,50,50)", c)
	}
	if d := b.MaxDim(); d != 100 {
		t.Errorf("maxDim = %v, want 100", d)
	}
	if b.IsEmpty() {
		t.Error("full bounds must not report empty")
	}
	if !EmptyBounds().IsEmpty() {
		t.Error("empty bounds must report empty")
	}
}

func TestBounds_ZeroVolumeExtentIsValid(t *testing.T) {
	// A single floor slab can have zero thickness; its extent must still
	// frame and survive unions.
	slab := NewBounds(0, 0, 0, 100, 0, 100)
	if slab.IsEmpty() {
		t.Fatal("zero-thickness bounds must not report empty")
	}
	if d := slab.MaxDim(); d != 100 {
		t.Errorf("maxDim = %v, want 100", d)
	}

	other := NewBounds(200, 10, 200, 210, 20, 210)
	union := slab.Union(other)
	if !union.ContainsBounds(slab) || !union.ContainsBounds(other) {
		t.Errorf("union %v lost a zero-volume input", union)
	}

	got, ok := Combined(context.Background(), []BoundsProvider{stubProvider{bounds: slab, ok: true}})
	if !ok || got != slab {
		t.Errorf("combined = %v, %v; want %v, true", got, ok, slab)
	}
}
