package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame indicates a completed frame which couldn't be decoded.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrShortPacket indicates the bytes don't contain a complete packet.
	ErrShortPacket = errors.New("short packet")
	// ErrPayloadTooLarge indicates the payload doesn't fit in the length byte.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// UnknownTypeError is wrapped in ErrMalformedFrame for unsupported type tags.
type UnknownTypeError struct {
	Type TypeTag
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type tag %d", e.Type)
}
