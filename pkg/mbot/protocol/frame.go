package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// TypeTag identifies the payload encoding of a response frame.
type TypeTag byte

// Type tags
const (
	TypeNone   TypeTag = 0
	TypeByte   TypeTag = 1
	TypeFloat  TypeTag = 2
	TypeShort  TypeTag = 3
	TypeString TypeTag = 4
	TypeDouble TypeTag = 5 // sent by the firmware as a 4-byte float.
)

// Plausible range of float sensor readings. Readings outside are
// replaced by 0.
const (
	FloatMin = -255
	FloatMax = 1023
)

// Value is the decoded payload of a response frame.
type Value struct {
	Type TypeTag
	num  float64
	str  string
}

// ByteValue creates a TypeByte value.
func ByteValue(v byte) Value { return Value{Type: TypeByte, num: float64(v)} }

// FloatValue creates a TypeFloat value.
func FloatValue(v float32) Value { return Value{Type: TypeFloat, num: float64(v)} }

// ShortValue creates a TypeShort value.
func ShortValue(v int16) Value { return Value{Type: TypeShort, num: float64(v)} }

// StringValue creates a TypeString value.
func StringValue(v string) Value { return Value{Type: TypeString, str: v} }

// IsNumeric indicates the value carries a number.
func (v Value) IsNumeric() bool {
	return v.Type != TypeString
}

// Float returns the numeric value, 0 for strings.
func (v Value) Float() float64 {
	return v.num
}

// Text returns the string value, empty for numbers.
func (v Value) Text() string {
	return v.str
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.Type == TypeString {
		return strconv.Quote(v.str)
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// Frame is a decoded response.
type Frame struct {
	RequestID byte
	Value     Value
}

// Bytes encodes the frame the way the firmware sends it.
func (f *Frame) Bytes() []byte {
	b := []byte{HeaderByte0, HeaderByte1, f.RequestID, byte(f.Value.Type)}
	switch f.Value.Type {
	case TypeByte:
		b = append(b, byte(f.Value.num))
	case TypeFloat, TypeDouble:
		b = append(b, float32Bytes(float32(f.Value.num))...)
	case TypeShort:
		b = append(b, int16Bytes(int(f.Value.num))...)
	case TypeString:
		b = append(b, byte(len(f.Value.str)))
		b = append(b, f.Value.str...)
	}
	return append(b, TrailerByte0, TrailerByte1)
}

// errIncomplete indicates the frame body ends before its payload does.
var errIncomplete = errors.New("incomplete frame")

// decodeFrame decodes the bytes between the start and the end markers.
func decodeFrame(body []byte) (*Frame, error) {
	if len(body) < 2 {
		return nil, errIncomplete
	}
	f := &Frame{RequestID: body[0]}
	typ, payload := TypeTag(body[1]), body[2:]
	need := 0
	switch typ {
	case TypeNone:
	case TypeByte:
		need = 1
	case TypeShort:
		need = 2
	case TypeFloat, TypeDouble:
		need = 4
	case TypeString:
		if len(payload) < 1 {
			return nil, errIncomplete
		}
		need = 1 + int(payload[0])
	default:
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, &UnknownTypeError{Type: typ})
	}
	if len(payload) < need {
		return nil, errIncomplete
	}
	f.Value.Type = typ
	switch typ {
	case TypeByte:
		f.Value.num = float64(payload[0])
	case TypeShort:
		f.Value.num = float64(int16(binary.LittleEndian.Uint16(payload)))
	case TypeFloat:
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(payload)))
		if math.IsNaN(v) || v < FloatMin || v > FloatMax {
			v = 0
		}
		f.Value.num = v
	case TypeDouble:
		f.Value.num = float64(math.Float32frombits(binary.LittleEndian.Uint32(payload)))
	case TypeString:
		f.Value.str = string(payload[1:need])
	}
	return f, nil
}
