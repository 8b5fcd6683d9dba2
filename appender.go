package boardlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Appender validates incoming messages and extends exactly one community's
// chain by exactly one entry per call.
//
// The load→link→save sequence is a read-modify-write: two concurrent
// appends to one community would otherwise read the same tail and one save
// would silently overwrite the other. A single appender mutex serializes
// all appends across all communities; the Board is saved as one unit, so
// finer-grained locking would still race on the save.
type Appender struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewAppender creates an appender committing through store.
func NewAppender(store Store) *Appender {
	return &Appender{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Append validates p, computes the next chain entry for its community, and
// commits it. The returned entry carries the generated id, hash, and
// timestamp. Validation failure leaves state untouched; a store failure is
// returned to the caller unretried.
func (a *Appender) Append(p *Payload) (Entry, error) {
	valid, err := ValidatePayload(p)
	if err != nil {
		return Entry{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	board, err := a.store.Load()
	if err != nil {
		// A live backend failure on the write path aborts the append:
		// committing against a blank Board would clobber durable state.
		return Entry{}, fmt.Errorf("load board: %w", err)
	}
	history := board[valid.Community]

	prevHash := ""
	if len(history) > 0 {
		prevHash = history[len(history)-1].Hash
	}
	timestamp := Timestamp(a.now())

	entry := Entry{
		ID:        a.newID(),
		Community: valid.Community,
		Author:    valid.Author,
		Message:   valid.Message,
		Timestamp: timestamp,
		PrevHash:  prevHash,
		Hash:      EntryHash(valid.Message, timestamp, valid.Community, prevHash),
	}

	board[valid.Community] = append(history, entry)
	if err := a.store.Save(board); err != nil {
		return Entry{}, fmt.Errorf("save board: %w", err)
	}
	return entry, nil
}
