package inspect

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"frag-viewer/internal/engine"
)

// MaxValueLength is the display budget per property value; longer
// values are truncated with an ellipsis marker.
const MaxValueLength = 120

// Field is one displayable property.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Snapshot is the transient result of one inspection request. It is
// recomputed on every pick and never cached.
type Snapshot struct {
	Model   string           `json:"model"`
	Element engine.ElementID `json:"element"`
	Fields  []Field          `json:"fields"`
	// Missing is set when neither property lookup yielded anything.
	Missing bool `json:"missing,omitempty"`
}

// Properties retrieves the element's descriptive properties. The
// primary lookup is tried first, then the secondary raw-attribute
// lookup; when both are empty the snapshot reports "no properties
// available" instead of failing. Lookup errors are logged, not
// propagated.
func Properties(ctx context.Context, m engine.Model, element engine.ElementID) *Snapshot {
	snap := &Snapshot{Model: m.ID(), Element: element}
	caps := m.Capabilities()

	var raw map[string]interface{}
	if caps.Has(engine.CapProperties) {
		props, err := m.Properties(ctx, element)
		if err != nil {
			log.Printf("inspect: property lookup on %s/%d failed: %v", m.ID(), element, err)
		} else {
			raw = props
		}
	}
	if len(raw) == 0 && caps.Has(engine.CapRawAttributes) {
		attrs, err := m.RawAttributes(ctx, element)
		if err != nil {
			log.Printf("inspect: attribute lookup on %s/%d failed: %v", m.ID(), element, err)
		} else {
			raw = attrs
		}
	}

	snap.Fields = displayFields(raw)
	snap.Missing = len(snap.Fields) == 0
	return snap
}

// displayFields filters out empty and non-displayable entries, renders
// the rest to truncated strings, and sorts by key.
func displayFields(raw map[string]interface{}) []Field {
	fields := make([]Field, 0, len(raw))
	for key, value := range raw {
		s, ok := displayValue(value)
		if !ok {
			continue
		}
		fields = append(fields, Field{Key: key, Value: truncate(s, MaxValueLength)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// displayValue renders a property value for display. The bool result is
// false for values that must be filtered: nil, empty strings, empty
// collections, and function-typed entries.
func displayValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan:
		return "", false
	case reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return "", false
		}
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(encoded), true
}

// truncate cuts s to at most limit runes, appending an ellipsis when it
// was cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
