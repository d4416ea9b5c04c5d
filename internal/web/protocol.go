// Package web serves the browser frontend and bridges it to the viewer
// session. The browser page is the rendering engine: engine commands
// and queries travel over a websocket as JSON envelopes with
// correlation IDs, and user actions come back the same way.
package web

import (
	json "github.com/goccy/go-json"
)

// Envelope frames every websocket message. Server-initiated queries
// carry an ID the client echoes in its reply; notifications and actions
// have no ID.
type Envelope struct {
	ID      int64           `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message types. "engine.*" flows server -> client, "action.*" flows
// client -> server, "reply" answers an engine query.
const (
	TypeHello = "hello"
	TypeReply = "reply"

	TypeEngineLoad          = "engine.load"
	TypeEngineRemove        = "engine.remove"
	TypeEngineRender        = "engine.render"
	TypeEngineCameraPlace   = "engine.camera.place"
	TypeEngineCameraPlanes  = "engine.camera.planes"
	TypeEngineVisibilitySet = "engine.visibility.set"
	TypeEngineVisibilityAll = "engine.visibility.all"

	TypeQueryHasGeometry   = "engine.query.hasGeometry"
	TypeQueryBounds        = "engine.query.bounds"
	TypeQueryCategories    = "engine.query.categories"
	TypeQueryElements      = "engine.query.elements"
	TypeQueryIntersect     = "engine.query.intersect"
	TypeQueryElementBounds = "engine.query.elementBounds"
	TypeQueryProperties    = "engine.query.properties"
	TypeQueryAttributes    = "engine.query.attributes"

	TypeActionLoad     = "action.load"
	TypeActionRemove   = "action.remove"
	TypeActionClear    = "action.clear"
	TypeActionFit      = "action.fit"
	TypeActionPreset   = "action.preset"
	TypeActionToggle   = "action.toggle"
	TypeActionShowAll  = "action.showAll"
	TypeActionHideAll  = "action.hideAll"
	TypeActionPick     = "action.pick"
	TypeActionSettings = "action.settings"

	TypePushStatus    = "status"
	TypePushModels    = "models"
	TypePushSelection = "selection"
	TypePushLibrary   = "library"
)

// Vec is a JSON-friendly 3D vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type helloPayload struct {
	Perspective bool `json:"perspective"`
}

type replyPayload struct {
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

type loadModelCmd struct {
	Model string `json:"model"`
	Data  []byte `json:"data"`
}

type loadModelResult struct {
	Capabilities []string `json:"capabilities"`
}

type modelRef struct {
	Model string `json:"model"`
}

type cameraPlaceCmd struct {
	Position Vec `json:"position"`
	Target   Vec `json:"target"`
}

type cameraPlanesCmd struct {
	Near             float64 `json:"near"`
	Far              float64 `json:"far"`
	UpdateProjection bool    `json:"updateProjection"`
}

type visibilitySetCmd struct {
	Model    string  `json:"model"`
	Elements []int64 `json:"elements"`
	Visible  bool    `json:"visible"`
}

type visibilityAllCmd struct {
	Model   string `json:"model"`
	Visible bool   `json:"visible"`
}

type countResult struct {
	Count int `json:"count"`
}

type boolResult struct {
	Value bool `json:"value"`
}

type boundsResult struct {
	Valid bool `json:"valid"`
	Min   Vec  `json:"min"`
	Max   Vec  `json:"max"`
}

type categoriesResult struct {
	Categories []string `json:"categories"`
}

type elementsQuery struct {
	Model    string `json:"model"`
	Category string `json:"category"`
}

type elementsResult struct {
	Elements []int64 `json:"elements"`
}

type intersectQuery struct {
	Model string  `json:"model"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type intersectResult struct {
	Hit      bool    `json:"hit"`
	Element  int64   `json:"element"`
	Distance float64 `json:"distance"`
}

type elementBoundsResult struct {
	Elements []elementBox `json:"elements"`
}

type elementBox struct {
	Element int64 `json:"element"`
	Min     Vec   `json:"min"`
	Max     Vec   `json:"max"`
}

type elementQuery struct {
	Model   string `json:"model"`
	Element int64  `json:"element"`
}

type propertiesResult struct {
	Properties map[string]interface{} `json:"properties"`
}

type nameAction struct {
	Name string `json:"name"`
}

type categoryAction struct {
	Category string `json:"category"`
}

type modeAction struct {
	Mode string `json:"mode"`
}

type pickAction struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type statusPush struct {
	Text string `json:"text"`
}

type modelsPush struct {
	Models []modelInfo `json:"models"`
}

type modelInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Ready    bool   `json:"ready"`
}

type libraryPush struct {
	Fragments []libraryEntry `json:"fragments"`
	Count     int            `json:"count"`
}

type libraryEntry struct {
	Filename string  `json:"filename"`
	SizeMB   float64 `json:"size_mb"`
	Modified string  `json:"modified"`
}
