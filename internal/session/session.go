// Package session owns the set of loaded fragment models and wires the
// framing, readiness, visibility, and inspection components to user
// actions. It is the sole consumer of the rendering engine's handles.
//
// Mutating operations are expected to run from a single goroutine (the
// action loop of the serving layer); the internal mutex only guards the
// state fields against concurrent readers.
package session

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"frag-viewer/internal/camera"
	"frag-viewer/internal/engine"
	"frag-viewer/internal/inspect"
	"frag-viewer/internal/readiness"
	"frag-viewer/internal/visibility"
	"frag-viewer/pkg/geometry"
)

// LoadedModel is one fragment model owned by the session.
type LoadedModel struct {
	// ID is unique within the session, derived from the source filename.
	ID string
	// Filename is the source fragment file name as given.
	Filename string
	// Handle is the engine's model handle; referenced, never copied.
	Handle engine.Model
	// Ready is false when the readiness wait ended on the timeout path.
	Ready bool
	// LoadedAt records when the model finished loading.
	LoadedAt time.Time
}

// Session is one viewer session.
type Session struct {
	mu sync.RWMutex

	eng        engine.Engine
	controller *camera.Controller
	registry   *visibility.Registry
	picker     *inspect.Picker
	monitor    *readiness.Monitor

	models    []*LoadedModel
	listeners map[EventType][]EventListener
	status    string
}

// Option configures a Session.
type Option func(*config)

type config struct {
	settings camera.Settings
	store    visibility.Store
	monitor  *readiness.Monitor
}

// WithSettings overrides the initial camera settings.
func WithSettings(s camera.Settings) Option {
	return func(c *config) { c.settings = s }
}

// WithRegistryStore selects the visibility persistence backend.
func WithRegistryStore(store visibility.Store) Option {
	return func(c *config) { c.store = store }
}

// WithMonitor overrides the readiness monitor.
func WithMonitor(m *readiness.Monitor) Option {
	return func(c *config) { c.monitor = m }
}

// New creates a session driving the given engine.
func New(eng engine.Engine, opts ...Option) (*Session, error) {
	cfg := config{
		settings: camera.DefaultSettings(),
		monitor:  readiness.NewMonitor(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	registry, err := visibility.NewRegistry(cfg.store)
	if err != nil {
		return nil, fmt.Errorf("creating visibility registry: %w", err)
	}

	return &Session{
		eng:        eng,
		controller: camera.NewController(eng.Camera(), eng.Render, cfg.settings),
		registry:   registry,
		picker:     inspect.NewPicker(eng.Camera()),
		monitor:    cfg.monitor,
		listeners:  make(map[EventType][]EventListener),
	}, nil
}

// Close releases session resources.
func (s *Session) Close() error {
	return s.registry.Close()
}

// Models returns the loaded models in insertion order.
func (s *Session) Models() []*LoadedModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LoadedModel, len(s.models))
	copy(out, s.models)
	return out
}

// Settings returns a copy of the current camera settings.
func (s *Session) Settings() camera.Settings {
	return s.controller.Settings()
}

// VisibilityEntries returns the registry's per-category flags.
func (s *Session) VisibilityEntries() map[string]bool {
	return s.registry.Entries()
}

// LoadFragment hands a fragment buffer to the engine, waits for its
// geometry, and frames the camera on all loaded models. A failed parse
// rejects only this load; other models are unaffected.
func (s *Session) LoadFragment(ctx context.Context, filename string, data []byte) (*LoadedModel, error) {
	id := s.uniqueID(filename)

	handle, err := s.eng.LoadModel(ctx, id, data)
	if err != nil {
		s.setStatus(fmt.Sprintf("Failed to load %s: %v", filename, err))
		return nil, fmt.Errorf("loading fragment %s: %w", filename, err)
	}

	lm := &LoadedModel{
		ID:       id,
		Filename: filename,
		Handle:   handle,
		LoadedAt: time.Now(),
	}
	s.mu.Lock()
	s.models = append(s.models, lm)
	s.mu.Unlock()

	ready, err := s.monitor.Wait(ctx, handle)
	if err != nil {
		return nil, err
	}
	lm.Ready = ready

	res := s.controller.Fit(ctx, camera.FitClose, s.boundsProviders())
	if res.Fitted {
		s.Emit(EventCameraFitted, res)
	}

	s.setStatus(fmt.Sprintf("Loaded %s", filename))
	s.Emit(EventModelLoaded, lm)
	log.Printf("session: loaded model %s (ready=%v, fitted=%v)", id, ready, res.Fitted)
	return lm, nil
}

// RemoveModel drops a loaded model from the session and the scene.
func (s *Session) RemoveModel(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, m := range s.models {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("model %q not loaded", id)
	}
	s.models = append(s.models[:idx], s.models[idx+1:]...)
	s.mu.Unlock()

	if err := s.eng.RemoveModel(ctx, id); err != nil {
		return fmt.Errorf("removing model %s: %w", id, err)
	}
	s.eng.Render()
	s.setStatus(fmt.Sprintf("Removed %s", id))
	s.Emit(EventModelRemoved, id)
	return nil
}

// Clear removes every loaded model.
func (s *Session) Clear(ctx context.Context) {
	for _, m := range s.Models() {
		if err := s.eng.RemoveModel(ctx, m.ID); err != nil {
			log.Printf("session: removing model %s during clear failed: %v", m.ID, err)
		}
	}
	s.mu.Lock()
	s.models = nil
	s.mu.Unlock()
	s.eng.Render()
	s.setStatus("Session cleared")
	s.Emit(EventSessionCleared, nil)
}

// ToggleCategory flips the visibility of all elements in the given
// category and returns the affected element count.
func (s *Session) ToggleCategory(ctx context.Context, category string) (int, error) {
	count, err := s.registry.Toggle(ctx, s.modelHandles(), category)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		s.setStatus(fmt.Sprintf("No elements found for %s", category))
		return 0, nil
	}
	s.eng.Render()

	state := "shown"
	if s.registry.Hidden(category) {
		state = "hidden"
	}
	s.setStatus(fmt.Sprintf("%s: %d elements %s", category, count, state))
	s.Emit(EventVisibilityChanged, category)
	return count, nil
}

// ShowAll makes every element of every model visible.
func (s *Session) ShowAll(ctx context.Context) int {
	n := s.registry.ShowAll(ctx, s.modelHandles())
	s.eng.Render()
	s.setStatus(fmt.Sprintf("Showing all elements (%d)", n))
	s.Emit(EventVisibilityChanged, nil)
	return n
}

// HideAll hides every element of every model.
func (s *Session) HideAll(ctx context.Context) int {
	n := s.registry.HideAll(ctx, s.modelHandles())
	s.eng.Render()
	s.setStatus(fmt.Sprintf("Hiding all elements (%d)", n))
	s.Emit(EventVisibilityChanged, nil)
	return n
}

// PickAt resolves a viewport coordinate to an element and returns its
// property snapshot, or nil when nothing is selected.
func (s *Session) PickAt(ctx context.Context, x, y float64) (*inspect.Snapshot, error) {
	hit, err := s.picker.Pick(ctx, s.modelHandles(), x, y)
	if err != nil {
		return nil, err
	}
	if hit == nil {
		s.setStatus("Nothing selected")
		s.Emit(EventSelectionChanged, nil)
		return nil, nil
	}

	var snap *inspect.Snapshot
	for _, m := range s.Models() {
		if m.ID == hit.Model {
			snap = inspect.Properties(ctx, m.Handle, hit.Element)
			break
		}
	}
	if snap == nil {
		// Hit reported for a model that was removed mid-pick.
		s.setStatus("Nothing selected")
		s.Emit(EventSelectionChanged, nil)
		return nil, nil
	}

	if snap.Missing {
		s.setStatus(fmt.Sprintf("Element %d: no properties available", hit.Element))
	} else {
		s.setStatus(fmt.Sprintf("Element %d in %s", hit.Element, hit.Model))
	}
	s.Emit(EventSelectionChanged, snap)
	return snap, nil
}

// FitClose frames all models tightly.
func (s *Session) FitClose(ctx context.Context) camera.Result {
	return s.fit(ctx, camera.FitClose)
}

// FitFar frames all models with wide margin.
func (s *Session) FitFar(ctx context.Context) camera.Result {
	return s.fit(ctx, camera.FitFar)
}

func (s *Session) fit(ctx context.Context, mode camera.FitMode) camera.Result {
	res := s.controller.Fit(ctx, mode, s.boundsProviders())
	if res.Fitted {
		s.Emit(EventCameraFitted, res)
	} else {
		s.setStatus("No model bounds available")
	}
	return res
}

// ApplyPreset positions the camera at one of the fixed views.
func (s *Session) ApplyPreset(ctx context.Context, preset camera.Preset) camera.Result {
	res := s.controller.ApplyPreset(ctx, preset, s.boundsProviders())
	if res.Fitted {
		s.setStatus(fmt.Sprintf("View: %s", preset))
		s.Emit(EventCameraFitted, res)
	} else {
		s.setStatus("No model bounds available")
	}
	return res
}

// UpdateSettings merges a partial camera settings change, re-applies
// near/far, and re-fits close.
func (s *Session) UpdateSettings(ctx context.Context, u camera.SettingsUpdate) camera.Result {
	res := s.controller.UpdateSettings(ctx, u, s.boundsProviders())
	s.setStatus("Camera settings updated")
	s.Emit(EventSettingsChanged, s.controller.Settings())
	return res
}

func (s *Session) modelHandles() []engine.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m.Handle)
	}
	return out
}

// boundsProviders returns the loaded models that can compute a merged
// bounding box, in insertion order.
func (s *Session) boundsProviders() []geometry.BoundsProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]geometry.BoundsProvider, 0, len(s.models))
	for _, m := range s.models {
		if m.Handle.Capabilities().Has(engine.CapMergedBounds) {
			out = append(out, m.Handle)
		}
	}
	return out
}

// uniqueID derives a session-unique identifier from the fragment
// filename: base name without extension, spaces underscored, parens
// dropped, with a numeric suffix on collision.
func (s *Session) uniqueID(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.NewReplacer("(", "", ")", "").Replace(base)
	if base == "" {
		base = "model"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	taken := func(id string) bool {
		for _, m := range s.models {
			if m.ID == id {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
