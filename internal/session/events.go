package session

// EventType identifies viewer session events.
type EventType int

const (
	EventModelLoaded EventType = iota
	EventModelRemoved
	EventSessionCleared
	EventCameraFitted
	EventVisibilityChanged
	EventSelectionChanged
	EventSettingsChanged
	EventStatusChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// setStatus records the outcome of the last user-triggered action and
// notifies listeners.
func (s *Session) setStatus(text string) {
	s.mu.Lock()
	s.status = text
	s.mu.Unlock()
	s.Emit(EventStatusChanged, text)
}

// StatusText returns the outcome of the most recent action.
func (s *Session) StatusText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
