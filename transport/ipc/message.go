package ipc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// OpCode identifies the wire category of a message.
type OpCode uint32

const (
	OpHandshake OpCode = iota
	OpFrame
	OpClose
	OpPing
	OpPong
)

// ErrConversion reports an opcode ordinal outside the valid range.
var ErrConversion = errors.New("opcode conversion failed")

// headerSize is the fixed frame prefix: u32 opcode + u32 payload length.
const headerSize = 8

func (op OpCode) valid() bool {
	return op <= OpPong
}

func (op OpCode) String() string {
	switch op {
	case OpHandshake:
		return "handshake"
	case OpFrame:
		return "frame"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	return fmt.Sprintf("opcode(%d)", uint32(op))
}

// Message is one wire frame: an opcode plus a JSON text payload.
type Message struct {
	Opcode  OpCode
	Payload string
}

// NewMessage serializes payload to JSON and wraps it with op.
func NewMessage(op OpCode, payload any) (Message, error) {
	j, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("serialize payload: %w", err)
	}
	return Message{Opcode: op, Payload: string(j)}, nil
}

// payloadFits reports whether a payload of n bytes can be described by
// the frame's 32-bit length field.
func payloadFits(n int) bool {
	return uint64(n) <= math.MaxUint32
}

// Encode produces the exact wire representation: little-endian u32
// opcode, little-endian u32 payload byte length, then the raw payload
// bytes. Panics if the payload cannot fit the length field; that is a
// caller bug, not a runtime condition.
func (m Message) Encode() []byte {
	if !payloadFits(len(m.Payload)) {
		panic(fmt.Sprintf("ipc: payload length %d exceeds the frame's 32-bit bound", len(m.Payload)))
	}

	buf := make([]byte, headerSize+len(m.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.Opcode))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(m.Payload)))
	copy(buf[headerSize:], m.Payload)
	return buf
}

// DecodeMessage parses exactly one complete frame from b.
func DecodeMessage(b []byte) (Message, error) {
	if len(b) < headerSize {
		return Message{}, fmt.Errorf("frame header truncated: got %d bytes", len(b))
	}

	op := OpCode(binary.LittleEndian.Uint32(b[0:4]))
	if !op.valid() {
		return Message{}, fmt.Errorf("opcode %d: %w", uint32(op), ErrConversion)
	}

	length := int(binary.LittleEndian.Uint32(b[4:8]))
	body := b[headerSize:]
	if len(body) != length {
		return Message{}, fmt.Errorf("frame length mismatch: declared %d, got %d", length, len(body))
	}
	if !utf8.Valid(body) {
		return Message{}, errors.New("frame payload is not valid UTF-8")
	}

	return Message{Opcode: op, Payload: string(body)}, nil
}
