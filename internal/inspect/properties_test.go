package inspect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frag-viewer/internal/engine"
	"frag-viewer/internal/engine/enginetest"
)

func TestProperties_PrimaryLookup(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	m.Props[5] = map[string]interface{}{
		"Name":     "Basic Wall",
		"Category": "IFCWALL",
		"Area":     42.5,
	}

	snap := Properties(context.Background(), m, 5)

	assert.False(t, snap.Missing)
	assert.Equal(t, "house", snap.Model)
	require.Len(t, snap.Fields, 3)
	assert.Equal(t, []Field{
		{Key: "Area", Value: "42.5"},
		{Key: "Category", Value: "IFCWALL"},
		{Key: "Name", Value: "Basic Wall"},
	}, snap.Fields, "fields are sorted by key")
}

func TestProperties_SecondaryLookup(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	m.Attrs[5] = map[string]interface{}{"GlobalId": "2O2Fr$t4X7Zf8NOew3FLOH"}

	snap := Properties(context.Background(), m, 5)

	assert.False(t, snap.Missing)
	require.Len(t, snap.Fields, 1)
	assert.Equal(t, "GlobalId", snap.Fields[0].Key)
}

func TestProperties_BothEmpty(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	snap := Properties(context.Background(), m, 5)
	assert.True(t, snap.Missing, "no properties available is reported, not an error")
	assert.Empty(t, snap.Fields)
}

func TestProperties_PrimaryErrorFallsThrough(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	m.PropsErr = errors.New("property fetch exploded")
	m.Attrs[5] = map[string]interface{}{"Name": "Door"}

	snap := Properties(context.Background(), m, 5)

	assert.False(t, snap.Missing)
	require.Len(t, snap.Fields, 1)
	assert.Equal(t, "Door", snap.Fields[0].Value)
}

func TestProperties_FiltersEmptyEntries(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	m.Props[1] = map[string]interface{}{
		"Name":     "Slab",
		"Empty":    "",
		"Nothing":  nil,
		"NoItems":  []interface{}{},
		"NoKeys":   map[string]interface{}{},
		"Callback": func() {},
		"Tags":     []interface{}{"structural", "concrete"},
	}

	snap := Properties(context.Background(), m, 1)

	keys := make([]string, len(snap.Fields))
	for i, f := range snap.Fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"Name", "Tags"}, keys)
}

func TestProperties_TruncatesLongValues(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	long := strings.Repeat("x", 500)
	m.Props[1] = map[string]interface{}{"Description": long}

	snap := Properties(context.Background(), m, 1)

	require.Len(t, snap.Fields, 1)
	got := snap.Fields[0].Value
	assert.True(t, strings.HasSuffix(got, "…"), "truncated values end with an ellipsis")
	assert.Len(t, []rune(got), MaxValueLength+1)
}

func TestProperties_NoLookupCapabilities(t *testing.T) {
	m := enginetest.NewFakeModel("house")
	m.Caps &^= engine.CapProperties | engine.CapRawAttributes
	m.Props[1] = map[string]interface{}{"Name": "hidden behind capability"}

	snap := Properties(context.Background(), m, 1)
	assert.True(t, snap.Missing)
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
		ok   bool
	}{
		{nil, "", false},
		{"", "", false},
		{"wall", "wall", true},
		{true, "true", true},
		{float64(3), "3", true},
		{42, "42", true},
		{map[string]interface{}{"a": 1}, `{"a":1}`, true},
	}
	for _, tt := range tests {
		got, ok := displayValue(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
