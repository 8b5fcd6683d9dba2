// Package boardlog implements a community message board backed by
// tamper-evident, hash-chained append-only logs. Each community owns one
// chain: every entry carries the hash of its predecessor, so any mutation
// of committed history is detectable by replaying the chain from genesis.
package boardlog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxMessageLen is the maximum length of a message after trimming.
	MaxMessageLen = 5000

	// MaxAuthorLen caps the free-text author claim. Authors longer than
	// this are truncated, not rejected: author is not part of the hash
	// preimage, so truncation never invalidates an existing chain.
	MaxAuthorLen = 256

	// AnonymousAuthor is used when no author is supplied.
	AnonymousAuthor = "anonymous"

	// UnknownCommunity groups legacy entries that carry no community field.
	UnknownCommunity = "unknown"

	// TimestampLayout is UTC ISO-8601 at second precision with trailing Z.
	TimestampLayout = "2006-01-02T15:04:05Z"
)

// Entry is one committed message in a community's chain. Field names
// round-trip identically through persistence and the wire format.
type Entry struct {
	ID        string `json:"id"`
	Community string `json:"community"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
}

// Board maps a community identifier to its ordered chain of entries.
// Insertion order is chain order; committed entries are never mutated.
type Board map[string][]Entry

// ErrInvalidPayload indicates the request body was not a JSON object.
var ErrInvalidPayload = errors.New("invalid JSON")

// ErrMissingCommunity indicates an absent or empty community field.
var ErrMissingCommunity = errors.New("community is required")

// ErrMissingMessage indicates an absent or empty message field.
var ErrMissingMessage = errors.New("message is required")

// ErrMessageTooLong indicates the trimmed message exceeds MaxMessageLen.
var ErrMessageTooLong = errors.New("message too long")

// EntryHash computes the chain digest for an entry: hex SHA-256 over the
// literal concatenation message|timestamp|community|prevHash.
func EntryHash(message, timestamp, community, prevHash string) string {
	raw := message + "|" + timestamp + "|" + community + "|" + prevHash
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Timestamp formats t as a chain timestamp (UTC, second precision).
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Payload is an incoming append request before validation. Fields are
// dynamically typed so a wrong-typed JSON value (e.g. a numeric community)
// reaches validation and earns its field-specific rejection instead of
// failing the body decode.
type Payload struct {
	Community any `json:"community"`
	Message   any `json:"message"`
	Author    any `json:"author"`
}

// CleanPayload is a validated, normalized append request.
type CleanPayload struct {
	Community string
	Message   string
	Author    string
}

// ValidatePayload checks p against the input contract and returns the
// normalized payload: trimmed community and message, author defaulted to
// AnonymousAuthor when absent or empty and truncated to MaxAuthorLen. A
// field that is not a string counts as missing. A nil p (e.g. a JSON null
// body) fails with ErrInvalidPayload. No state is touched on failure.
func ValidatePayload(p *Payload) (CleanPayload, error) {
	if p == nil {
		return CleanPayload{}, ErrInvalidPayload
	}
	community, _ := p.Community.(string)
	community = strings.TrimSpace(community)
	if community == "" {
		return CleanPayload{}, ErrMissingCommunity
	}
	message, _ := p.Message.(string)
	message = strings.TrimSpace(message)
	if message == "" {
		return CleanPayload{}, ErrMissingMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return CleanPayload{}, ErrMessageTooLong
	}
	// The empty check precedes trimming: a whitespace-only author is not
	// empty, so it is trimmed and kept verbatim rather than defaulted.
	author, _ := p.Author.(string)
	if author == "" {
		author = AnonymousAuthor
	}
	author = strings.TrimSpace(author)
	if utf8.RuneCountInString(author) > MaxAuthorLen {
		author = string([]rune(author)[:MaxAuthorLen])
	}
	return CleanPayload{Community: community, Message: message, Author: author}, nil
}
