package boardlog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestAppend_ThenRead(t *testing.T) {
	store := NewMemoryStore()
	app := NewAppender(store)

	entry, err := app.Append(&Payload{Community: "c", Message: "hi", Author: "a"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.ID == "" || entry.Hash == "" || entry.Timestamp == "" {
		t.Fatalf("entry missing generated fields: %+v", entry)
	}
	if entry.PrevHash != "" {
		t.Fatalf("first entry prev_hash = %q, want empty", entry.PrevHash)
	}
	if got := EntryHash("hi", entry.Timestamp, "c", ""); entry.Hash != got {
		t.Fatalf("hash = %s, want %s", entry.Hash, got)
	}

	board, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	history := board["c"]
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
	if history[0] != entry {
		t.Fatalf("stored entry %+v differs from returned %+v", history[0], entry)
	}
}

func TestAppend_ChainLinkage(t *testing.T) {
	store := NewMemoryStore()
	app := NewAppender(store)

	for i := 0; i < 5; i++ {
		if _, err := app.Append(&Payload{Community: "c", Message: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	board, _ := store.Load()
	history := board["c"]
	if len(history) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].PrevHash != history[i-1].Hash {
			t.Fatalf("entry %d prev_hash does not link to entry %d hash", i, i-1)
		}
	}
}

func TestAppend_Validation(t *testing.T) {
	cases := []struct {
		name    string
		payload *Payload
		want    error
	}{
		{"nil payload", nil, ErrInvalidPayload},
		{"missing community", &Payload{Message: "hi"}, ErrMissingCommunity},
		{"blank community", &Payload{Community: "   ", Message: "hi"}, ErrMissingCommunity},
		{"non-string community", &Payload{Community: 5, Message: "hi"}, ErrMissingCommunity},
		{"missing message", &Payload{Community: "c"}, ErrMissingMessage},
		{"blank message", &Payload{Community: "c", Message: "   "}, ErrMissingMessage},
		{"non-string message", &Payload{Community: "c", Message: 123}, ErrMissingMessage},
		{"message too long", &Payload{Community: "c", Message: strings.Repeat("x", MaxMessageLen+1)}, ErrMessageTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemoryStore()
			app := NewAppender(store)
			if _, err := app.Append(tc.payload); !errors.Is(err, tc.want) {
				t.Fatalf("Append = %v, want %v", err, tc.want)
			}
			board, _ := store.Load()
			if len(board) != 0 {
				t.Fatalf("state touched on validation failure: %+v", board)
			}
		})
	}
}

func TestAppend_MessageAtCap(t *testing.T) {
	app := NewAppender(NewMemoryStore())
	msg := strings.Repeat("x", MaxMessageLen)
	entry, err := app.Append(&Payload{Community: "c", Message: msg})
	if err != nil {
		t.Fatalf("Append at cap failed: %v", err)
	}
	if entry.Message != msg {
		t.Fatalf("message mangled at cap")
	}
}

func TestAppend_MessageTrimmed(t *testing.T) {
	app := NewAppender(NewMemoryStore())
	entry, err := app.Append(&Payload{Community: "c", Message: "  hello  "})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.Message != "hello" {
		t.Fatalf("message = %q, want trimmed", entry.Message)
	}
}

func TestAppend_AuthorDefaultsAndCap(t *testing.T) {
	app := NewAppender(NewMemoryStore())

	entry, err := app.Append(&Payload{Community: "c", Message: "hi"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.Author != AnonymousAuthor {
		t.Fatalf("author = %q, want %q", entry.Author, AnonymousAuthor)
	}

	entry, err = app.Append(&Payload{Community: "c", Message: "hi", Author: ""})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.Author != AnonymousAuthor {
		t.Fatalf("author = %q, want %q for empty author", entry.Author, AnonymousAuthor)
	}

	entry, err = app.Append(&Payload{Community: "c", Message: "hi", Author: "  bob  "})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.Author != "bob" {
		t.Fatalf("author = %q, want trimmed %q", entry.Author, "bob")
	}

	// Whitespace-only is not empty, so it is trimmed, not defaulted.
	entry, err = app.Append(&Payload{Community: "c", Message: "hi", Author: "   "})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.Author != "" {
		t.Fatalf("author = %q, want empty for whitespace-only author", entry.Author)
	}

	long := strings.Repeat("a", MaxAuthorLen+50)
	entry, err = app.Append(&Payload{Community: "c", Message: "hi", Author: long})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.Author != long[:MaxAuthorLen] {
		t.Fatalf("author not truncated to %d", MaxAuthorLen)
	}
}

func TestAppend_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	app := NewAppender(store)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := app.Append(&Payload{Community: "c", Message: fmt.Sprintf("msg %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append failed: %v", err)
		}
	}

	board, _ := store.Load()
	history := board["c"]
	if len(history) != n {
		t.Fatalf("lost writes: expected %d entries, got %d", n, len(history))
	}
	seen := make(map[string]bool, n)
	for i, e := range history {
		if seen[e.ID] {
			t.Fatalf("duplicate entry id %s", e.ID)
		}
		seen[e.ID] = true
		if i > 0 && e.PrevHash != history[i-1].Hash {
			t.Fatalf("entry %d not linked to predecessor", i)
		}
	}
	if report := VerifyChain("c", history); !report.OK {
		t.Fatalf("chain broken after concurrent appends: %+v", report)
	}
}

type failingStore struct {
	loadErr error
	saveErr error
	board   Board
}

func (s *failingStore) Load() (Board, error) {
	if s.loadErr != nil {
		return Board{}, s.loadErr
	}
	return copyBoard(s.board), nil
}

func (s *failingStore) Save(b Board) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.board = copyBoard(b)
	return nil
}

func TestAppend_StoreFailuresSurfaced(t *testing.T) {
	saveErr := errors.New("disk full")
	app := NewAppender(&failingStore{saveErr: saveErr})
	if _, err := app.Append(&Payload{Community: "c", Message: "hi"}); !errors.Is(err, saveErr) {
		t.Fatalf("Append = %v, want wrapped %v", err, saveErr)
	}

	loadErr := errors.New("backend down")
	app = NewAppender(&failingStore{loadErr: loadErr})
	if _, err := app.Append(&Payload{Community: "c", Message: "hi"}); !errors.Is(err, loadErr) {
		t.Fatalf("Append = %v, want wrapped %v", err, loadErr)
	}
}
