package web

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frag-viewer/internal/engine"
	"frag-viewer/internal/fragment"
)

func TestParseCapabilities(t *testing.T) {
	caps := parseCapabilities([]string{"geometry", "bounds", "raycast", "bogus"})
	assert.True(t, caps.Has(engine.CapGeometryQuery))
	assert.True(t, caps.Has(engine.CapMergedBounds))
	assert.True(t, caps.Has(engine.CapRayIntersect))
	assert.False(t, caps.Has(engine.CapProperties))

	assert.Equal(t, engine.Capability(0), parseCapabilities(nil))
}

func TestHandleReply_ResolvesPendingCall(t *testing.T) {
	eng := NewRemoteEngine(nil, true)
	ch := make(chan replyPayload, 1)
	eng.pending[7] = ch

	payload, err := json.Marshal(replyPayload{Result: json.RawMessage(`{"value":true}`)})
	require.NoError(t, err)
	eng.HandleReply(Envelope{ID: 7, Type: TypeReply, Payload: payload})

	select {
	case reply := <-ch:
		assert.Empty(t, reply.Error)
		assert.JSONEq(t, `{"value":true}`, string(reply.Result))
	case <-time.After(time.Second):
		t.Fatal("reply not delivered")
	}
	assert.Empty(t, eng.pending)
}

func TestHandleReply_UnknownIDDropped(t *testing.T) {
	eng := NewRemoteEngine(nil, true)
	eng.HandleReply(Envelope{ID: 99, Type: TypeReply})
	assert.Empty(t, eng.pending)
}

func TestClose_FailsInFlightCalls(t *testing.T) {
	eng := NewRemoteEngine(nil, true)
	ch := make(chan replyPayload, 1)
	eng.pending[3] = ch

	eng.Close()

	reply := <-ch
	assert.Equal(t, "connection closed", reply.Error)
}

func TestRemoteCamera_Defaults(t *testing.T) {
	eng := NewRemoteEngine(nil, true)
	cam := eng.camera

	near, far := cam.NearFar()
	assert.Zero(t, near)
	assert.Zero(t, far)
	assert.True(t, cam.Perspective())

	_, ok := cam.Ray(0, 0)
	assert.False(t, ok, "remote cameras cannot produce server-side rays")
}

func TestLibraryPayload(t *testing.T) {
	mod := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	p := libraryPayload([]fragment.Info{
		{Name: "office.frag", Size: 3 * 1024 * 1024, Modified: mod},
	})
	require.Equal(t, 1, p.Count)
	assert.Equal(t, "office.frag", p.Fragments[0].Filename)
	assert.InDelta(t, 3.0, p.Fragments[0].SizeMB, 0.01)
	assert.Equal(t, "2026-03-14 09:30", p.Fragments[0].Modified)
}
