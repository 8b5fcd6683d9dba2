package boardlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the Board as one JSON document.
//
// Saves follow a write-temp-then-rename discipline: the full serialized
// Board is written and fsynced to a sibling .tmp file, then renamed over
// the real path. A crash or concurrent read never observes a torn file.
//
// Load never fails the caller: unreadable or corrupt content yields an
// empty Board, and two known legacy shapes are repaired in place —
// a flat list of entries is grouped by community (entries without one go
// under "unknown"), and mapping values that are not lists are coerced to
// empty lists.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// OpenFileStore creates or opens a JSON file store at path, initializing
// the file to an empty mapping if absent.
func OpenFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	s := &FileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.writeAtomic([]byte("{}")); err != nil {
			return nil, fmt.Errorf("initialize store: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat store: %w", err)
	}
	return s, nil
}

// Load reads and normalizes the persisted Board.
func (s *FileStore) Load() (Board, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Board{}, nil
	}
	return normalizeBoard(data), nil
}

// Save persists the full Board atomically.
func (s *FileStore) Save(b Board) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(data)
}

// writeAtomic publishes data via temp file and rename (caller holds mu,
// or the store is not yet shared).
func (s *FileStore) writeAtomic(data []byte) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// normalizeBoard repairs the known persisted shapes into a Board.
func normalizeBoard(data []byte) Board {
	var byCommunity map[string]json.RawMessage
	if err := json.Unmarshal(data, &byCommunity); err == nil && byCommunity != nil {
		board := make(Board, len(byCommunity))
		for community, raw := range byCommunity {
			var history []Entry
			if err := json.Unmarshal(raw, &history); err != nil || history == nil {
				history = []Entry{}
			}
			board[community] = history
		}
		return board
	}

	// Legacy shape: a flat list of entries instead of a mapping.
	var flat []Entry
	if err := json.Unmarshal(data, &flat); err == nil {
		board := Board{}
		for _, e := range flat {
			community := e.Community
			if community == "" {
				community = UnknownCommunity
			}
			board[community] = append(board[community], e)
		}
		return board
	}

	return Board{}
}
