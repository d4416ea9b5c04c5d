package web

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"frag-viewer/internal/engine"
	"frag-viewer/pkg/debug"
	"frag-viewer/pkg/geometry"
)

// DefaultCallTimeout bounds each engine query when the caller's context
// carries no deadline of its own.
const DefaultCallTimeout = 30 * time.Second

// wsConn serializes writes to one websocket connection.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) writeEnvelope(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// RemoteEngine implements the engine contracts on top of the websocket
// connection to the browser page that actually renders the scene.
type RemoteEngine struct {
	conn    *wsConn
	timeout time.Duration
	camera  *remoteCamera

	nextID  atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan replyPayload
	closed  bool
}

// NewRemoteEngine wraps ws. perspective reports the client camera's
// projection, announced in its hello message.
func NewRemoteEngine(ws *websocket.Conn, perspective bool) *RemoteEngine {
	e := &RemoteEngine{
		conn:    &wsConn{ws: ws},
		timeout: DefaultCallTimeout,
		pending: make(map[int64]chan replyPayload),
	}
	e.camera = &remoteCamera{eng: e, persp: perspective}
	return e
}

// HandleReply routes a reply envelope to the waiting call. Unknown IDs
// are dropped (the call may have timed out).
func (e *RemoteEngine) HandleReply(env Envelope) {
	var reply replyPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &reply); err != nil {
			debug.Log("web: malformed reply %d: %v", env.ID, err)
			return
		}
	}
	e.mu.Lock()
	ch, ok := e.pending[env.ID]
	delete(e.pending, env.ID)
	e.mu.Unlock()
	if ok {
		ch <- reply
	}
}

// Close fails all in-flight calls.
func (e *RemoteEngine) Close() {
	e.mu.Lock()
	e.closed = true
	for id, ch := range e.pending {
		delete(e.pending, id)
		ch <- replyPayload{Error: "connection closed"}
	}
	e.mu.Unlock()
}

// notify sends a fire-and-forget command.
func (e *RemoteEngine) notify(msgType string, payload interface{}) {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			debug.Log("web: encoding %s: %v", msgType, err)
			return
		}
		env.Payload = data
	}
	if err := e.conn.writeEnvelope(env); err != nil {
		debug.Log("web: sending %s: %v", msgType, err)
	}
}

// call sends a query and waits for the client's reply.
func (e *RemoteEngine) call(ctx context.Context, msgType string, payload, result interface{}) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.New("engine connection closed")
	}
	id := e.nextID.Add(1)
	ch := make(chan replyPayload, 1)
	e.pending[id] = ch
	e.mu.Unlock()

	env := Envelope{ID: id, Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			e.drop(id)
			return err
		}
		env.Payload = data
	}
	if err := e.conn.writeEnvelope(env); err != nil {
		e.drop(id)
		return err
	}

	select {
	case reply := <-ch:
		if reply.Error != "" {
			return errors.New(reply.Error)
		}
		if result != nil && len(reply.Result) > 0 {
			return json.Unmarshal(reply.Result, result)
		}
		return nil
	case <-ctx.Done():
		e.drop(id)
		return ctx.Err()
	case <-time.After(e.timeout):
		e.drop(id)
		return fmt.Errorf("%s: no reply from rendering client", msgType)
	}
}

func (e *RemoteEngine) drop(id int64) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// Camera returns the remote camera handle.
func (e *RemoteEngine) Camera() engine.Camera { return e.camera }

// LoadModel ships the fragment buffer to the client and records the
// capability set the client reports for the resulting model.
func (e *RemoteEngine) LoadModel(ctx context.Context, id string, data []byte) (engine.Model, error) {
	var result loadModelResult
	err := e.call(ctx, TypeEngineLoad, loadModelCmd{Model: id, Data: data}, &result)
	if err != nil {
		return nil, err
	}
	return &remoteModel{eng: e, id: id, caps: parseCapabilities(result.Capabilities)}, nil
}

// RemoveModel drops the model from the client scene.
func (e *RemoteEngine) RemoveModel(ctx context.Context, id string) error {
	return e.call(ctx, TypeEngineRemove, modelRef{Model: id}, nil)
}

// Render asks the client for one immediate render pass.
func (e *RemoteEngine) Render() {
	e.notify(TypeEngineRender, nil)
}

// capabilityNames maps the client's advertised capability strings.
var capabilityNames = map[string]engine.Capability{
	"geometry":       engine.CapGeometryQuery,
	"bounds":         engine.CapMergedBounds,
	"classification": engine.CapClassification,
	"raycast":        engine.CapRayIntersect,
	"elementBounds":  engine.CapElementBounds,
	"visibility":     engine.CapVisibility,
	"properties":     engine.CapProperties,
	"attributes":     engine.CapRawAttributes,
}

func parseCapabilities(names []string) engine.Capability {
	var caps engine.Capability
	for _, name := range names {
		if c, ok := capabilityNames[name]; ok {
			caps |= c
		} else {
			debug.Log("web: unknown model capability %q", name)
		}
	}
	return caps
}

// remoteCamera mirrors the client camera. Clip planes are cached
// server-side; placements and plane changes are pushed as commands.
type remoteCamera struct {
	eng *RemoteEngine

	mu    sync.Mutex
	near  float64
	far   float64
	persp bool
}

func (c *remoteCamera) SetPlacement(position, target r3.Vec) {
	c.eng.notify(TypeEngineCameraPlace, cameraPlaceCmd{
		Position: Vec{X: position.X, Y: position.Y, Z: position.Z},
		Target:   Vec{X: target.X, Y: target.Y, Z: target.Z},
	})
}

func (c *remoteCamera) NearFar() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near, c.far
}

func (c *remoteCamera) SetNearFar(near, far float64) {
	c.mu.Lock()
	c.near, c.far = near, far
	c.mu.Unlock()
	c.eng.notify(TypeEngineCameraPlanes, cameraPlanesCmd{Near: near, Far: far})
}

func (c *remoteCamera) Perspective() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persp
}

func (c *remoteCamera) UpdateProjection() {
	c.mu.Lock()
	near, far := c.near, c.far
	c.mu.Unlock()
	c.eng.notify(TypeEngineCameraPlanes, cameraPlanesCmd{Near: near, Far: far, UpdateProjection: true})
}

// Ray reports false: raycasting happens client-side, so the software
// picking fallback never runs against a remote model.
func (c *remoteCamera) Ray(x, y float64) (geometry.Ray, bool) {
	return geometry.Ray{}, false
}

// remoteModel proxies one loaded model in the client scene.
type remoteModel struct {
	eng  *RemoteEngine
	id   string
	caps engine.Capability
}

func (m *remoteModel) ID() string { return m.id }

func (m *remoteModel) Capabilities() engine.Capability { return m.caps }

func (m *remoteModel) HasGeometry(ctx context.Context) (bool, error) {
	var result boolResult
	err := m.eng.call(ctx, TypeQueryHasGeometry, modelRef{Model: m.id}, &result)
	return result.Value, err
}

func (m *remoteModel) MergedBounds(ctx context.Context) (geometry.Bounds, bool, error) {
	var result boundsResult
	if err := m.eng.call(ctx, TypeQueryBounds, modelRef{Model: m.id}, &result); err != nil {
		return geometry.Bounds{}, false, err
	}
	if !result.Valid {
		return geometry.Bounds{}, false, nil
	}
	return geometry.Bounds{
		Min: r3.Vec{X: result.Min.X, Y: result.Min.Y, Z: result.Min.Z},
		Max: r3.Vec{X: result.Max.X, Y: result.Max.Y, Z: result.Max.Z},
	}, true, nil
}

func (m *remoteModel) Categories(ctx context.Context) ([]string, error) {
	var result categoriesResult
	err := m.eng.call(ctx, TypeQueryCategories, modelRef{Model: m.id}, &result)
	return result.Categories, err
}

func (m *remoteModel) ElementsByCategory(ctx context.Context, category string) ([]engine.ElementID, error) {
	var result elementsResult
	err := m.eng.call(ctx, TypeQueryElements, elementsQuery{Model: m.id, Category: category}, &result)
	if err != nil {
		return nil, err
	}
	return toElementIDs(result.Elements), nil
}

func (m *remoteModel) IntersectRay(ctx context.Context, x, y float64) (*engine.Hit, error) {
	var result intersectResult
	err := m.eng.call(ctx, TypeQueryIntersect, intersectQuery{Model: m.id, X: x, Y: y}, &result)
	if err != nil {
		return nil, err
	}
	if !result.Hit {
		return nil, nil
	}
	return &engine.Hit{Model: m.id, Element: engine.ElementID(result.Element), Distance: result.Distance}, nil
}

func (m *remoteModel) ElementBounds(ctx context.Context) ([]engine.ElementBox, error) {
	var result elementBoundsResult
	if err := m.eng.call(ctx, TypeQueryElementBounds, modelRef{Model: m.id}, &result); err != nil {
		return nil, err
	}
	out := make([]engine.ElementBox, len(result.Elements))
	for i, eb := range result.Elements {
		out[i] = engine.ElementBox{
			Element: engine.ElementID(eb.Element),
			Bounds: geometry.Bounds{
				Min: r3.Vec{X: eb.Min.X, Y: eb.Min.Y, Z: eb.Min.Z},
				Max: r3.Vec{X: eb.Max.X, Y: eb.Max.Y, Z: eb.Max.Z},
			},
		}
	}
	return out, nil
}

func (m *remoteModel) SetVisible(ctx context.Context, elements []engine.ElementID, visible bool) error {
	ids := make([]int64, len(elements))
	for i, id := range elements {
		ids[i] = int64(id)
	}
	return m.eng.call(ctx, TypeEngineVisibilitySet, visibilitySetCmd{Model: m.id, Elements: ids, Visible: visible}, nil)
}

func (m *remoteModel) SetAllVisible(ctx context.Context, visible bool) (int, error) {
	var result countResult
	err := m.eng.call(ctx, TypeEngineVisibilityAll, visibilityAllCmd{Model: m.id, Visible: visible}, &result)
	return result.Count, err
}

func (m *remoteModel) Properties(ctx context.Context, element engine.ElementID) (map[string]interface{}, error) {
	var result propertiesResult
	err := m.eng.call(ctx, TypeQueryProperties, elementQuery{Model: m.id, Element: int64(element)}, &result)
	return result.Properties, err
}

func (m *remoteModel) RawAttributes(ctx context.Context, element engine.ElementID) (map[string]interface{}, error) {
	var result propertiesResult
	err := m.eng.call(ctx, TypeQueryAttributes, elementQuery{Model: m.id, Element: int64(element)}, &result)
	return result.Properties, err
}

func toElementIDs(ids []int64) []engine.ElementID {
	out := make([]engine.ElementID, len(ids))
	for i, id := range ids {
		out[i] = engine.ElementID(id)
	}
	return out
}
