package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed content.
// It is derived from the content itself using BLAKE2b hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID, which makes index writes keyed
// by content idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleSystem represents instructions given to the language model.
	RoleSystem Role = iota + 1
	// RoleUser represents the human asking questions.
	RoleUser
	// RoleAssistant represents the language model's replies.
	RoleAssistant
)

// String returns the conventional lowercase name for the role.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is a single role-tagged message within a conversation thread.
// Turns are append-only once stored: a thread's history is replayed in full
// on every generation call until it is explicitly cleared.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time // When the turn was produced
}

// RawDocument is a single search hit from the document source, before any
// normalization. It is transient and never persisted.
type RawDocument struct {
	Title   string
	URL     string
	Summary string
	Source  string
}

// Document is the normalized, index-ready form of a RawDocument.
// It is immutable once created.
type Document struct {
	Title          string // lowercased, whitespace-collapsed title
	Summary        string // full normalized summary
	SummaryExcerpt string // leading sentences of the normalized summary
	URL            string
	CombinedText   string // "<title>. <excerpt>", the text that gets embedded
}
