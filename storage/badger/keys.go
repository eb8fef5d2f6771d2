package badger

import (
	"encoding/binary"

	"github.com/poiesic/medassist/core"
)

// Key prefixes for different data types
const (
	threadTurnPrefix = "thrturn"
)

// threadHash maps a thread ID string to a fixed-width component for
// composite keys. Variable-length thread IDs cannot be embedded
// directly without a collision-prone separator.
func threadHash(threadID string) uint64 {
	return uint64(core.IDFromContent(threadID))
}

// makeTurnKey generates a composite key for one turn of a thread.
// Format: prefix:threadHash:seq, both fixed-width BigEndian so
// lexicographic iteration yields append order.
func makeTurnKey(threadID string, seq uint64) []byte {
	prefix := threadTurnPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], threadHash(threadID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeThreadPrefix generates the iteration prefix covering every turn
// of a thread.
func makeThreadPrefix(threadID string) []byte {
	prefix := threadTurnPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], threadHash(threadID))
	return buf
}
