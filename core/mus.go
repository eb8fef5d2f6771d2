package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// TurnMUS serializes Turn values for storage. The serializer is written by
// hand: the stored surface is this one small struct, which does not warrant
// a code generation step.
var TurnMUS = turnMUS{}

type turnMUS struct{}

// Marshal writes the turn into bs and returns the number of bytes written.
// bs must be at least Size(turn) bytes long.
func (turnMUS) Marshal(turn Turn, bs []byte) (n int) {
	n = varint.Int.Marshal(int(turn.Role), bs)
	n += ord.String.Marshal(turn.Content, bs[n:])
	n += varint.Int64.Marshal(turn.Timestamp.UnixMicro(), bs[n:])
	return n
}

// Unmarshal reads a turn from bs, returning the turn and the number of
// bytes consumed.
func (turnMUS) Unmarshal(bs []byte) (turn Turn, n int, err error) {
	role, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	turn.Role = Role(role)

	var n1 int
	turn.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	turn.Timestamp = time.UnixMicro(micros).UTC()
	return
}

// Size returns the number of bytes Marshal will write for the turn.
func (turnMUS) Size(turn Turn) int {
	return varint.Int.Size(int(turn.Role)) +
		ord.String.Size(turn.Content) +
		varint.Int64.Size(turn.Timestamp.UnixMicro())
}

// Skip advances past one serialized turn without decoding it.
func (turnMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
