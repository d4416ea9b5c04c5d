package visibility

// Store persists per-category hidden flags.
type Store interface {
	// Load returns all persisted entries.
	Load() (map[string]bool, error)
	// Put persists one entry.
	Put(category string, hidden bool) error
	// ReplaceAll swaps the persisted state for the given entries.
	ReplaceAll(entries map[string]bool) error
	Close() error
}

// MemoryStore keeps entries for the lifetime of the process. It is the
// default store: state survives re-renders within a session but not a
// restart.
type MemoryStore struct {
	entries map[string]bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]bool)}
}

func (s *MemoryStore) Load() (map[string]bool, error) {
	out := make(map[string]bool, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Put(category string, hidden bool) error {
	s.entries[category] = hidden
	return nil
}

func (s *MemoryStore) ReplaceAll(entries map[string]bool) error {
	s.entries = make(map[string]bool, len(entries))
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
