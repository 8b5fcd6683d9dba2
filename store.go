package boardlog

import "sync"

// Store abstracts durable, all-or-nothing persistence of the full Board.
//
// Load recovers corrupt or mis-shaped persisted state as an empty (or
// normalized) Board and returns nil; a non-nil error means the live backend
// itself failed. Save persists the whole Board as a single unit: a reader
// racing a Save observes either the old complete state or the new one,
// never a torn intermediate.
type Store interface {
	Load() (Board, error)
	Save(Board) error
}

// MemoryStore is a mutex-guarded in-memory Store for tests and embedding.
type MemoryStore struct {
	mu    sync.RWMutex
	board Board
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{board: Board{}}
}

// Load returns a deep copy of the held Board so callers cannot alias
// committed state.
func (s *MemoryStore) Load() (Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBoard(s.board), nil
}

// Save replaces the held Board with a deep copy of b.
func (s *MemoryStore) Save(b Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = copyBoard(b)
	return nil
}

func copyBoard(b Board) Board {
	out := make(Board, len(b))
	for community, history := range b {
		out[community] = append([]Entry(nil), history...)
	}
	return out
}
