package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Markers framing packets.
const (
	HeaderByte0  byte = 0xff
	HeaderByte1  byte = 0x55
	TrailerByte0 byte = 0x0d
	TrailerByte1 byte = 0x0a
)

// Class distinguishes actions from requests.
type Class byte

const (
	// ClassRequest expects a response frame carrying the packet id.
	ClassRequest Class = 0x01
	// ClassAction is fire-and-forget.
	ClassAction Class = 0x02
)

// Opcodes
const (
	OpUltrasonic   byte = 0x01
	OpLight        byte = 0x03
	OpMove         byte = 0x05
	OpRGBLED       byte = 0x08
	OpSevenSegment byte = 0x09
	OpMotor        byte = 0x0a
	OpServo        byte = 0x0b
	OpIR           byte = 0x0d
	OpLineFollower byte = 0x11
	OpButton       byte = 0x1f
	OpBuzzer       byte = 0x22
)

// Onboard ports and slots.
const (
	PortOnboardRGBLED byte = 0x07
	SlotOnboardRGBLED byte = 0x02
	PortOnboardLight  byte = 0x08
	PortOnboardButton byte = 0x07
)

// MaxSpeed is the largest motor speed magnitude the firmware accepts.
const MaxSpeed = 255

const (
	// length counts the id, class and opcode bytes besides the payload.
	lengthOverhead = 3
	headerSize     = 3 + lengthOverhead
	// MaxPayload is the largest payload the length byte can describe.
	MaxPayload = 0xff - lengthOverhead
)

// Packet is an outgoing command.
type Packet struct {
	ID      byte
	Class   Class
	Opcode  byte
	Payload []byte
}

// Action creates an action packet.
func Action(opcode byte, payload ...byte) *Packet {
	return &Packet{Class: ClassAction, Opcode: opcode, Payload: payload}
}

// Request creates a request packet whose response is tagged with id.
func Request(id, opcode byte, payload ...byte) *Packet {
	return &Packet{ID: id, Class: ClassRequest, Opcode: opcode, Payload: payload}
}

// Len returns the value of the length byte.
func (p *Packet) Len() int {
	return len(p.Payload) + lengthOverhead
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	b := make([]byte, headerSize, headerSize+len(p.Payload))
	b[0], b[1], b[2] = HeaderByte0, HeaderByte1, byte(p.Len())
	b[3], b[4], b[5] = p.ID, byte(p.Class), p.Opcode
	return append(b, p.Payload...)
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	if len(p.Payload) > MaxPayload {
		return 0, ErrPayloadTooLarge
	}
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (p *Packet) String() string {
	return fmt.Sprintf("packet(id=%d class=%d op=0x%02x payload=% x)", p.ID, p.Class, p.Opcode, p.Payload)
}

// ParsePacket decodes an encoded packet from the beginning of b and
// returns the number of bytes consumed.
func ParsePacket(b []byte) (*Packet, int, error) {
	if len(b) < headerSize {
		return nil, 0, ErrShortPacket
	}
	if b[0] != HeaderByte0 || b[1] != HeaderByte1 {
		return nil, 0, fmt.Errorf("%w: bad header % x", ErrMalformedFrame, b[:2])
	}
	size := int(b[2])
	if size < lengthOverhead {
		return nil, 0, fmt.Errorf("%w: length %d", ErrMalformedFrame, size)
	}
	end := 3 + size
	if len(b) < end {
		return nil, 0, ErrShortPacket
	}
	p := &Packet{ID: b[3], Class: Class(b[4]), Opcode: b[5]}
	if end > headerSize {
		p.Payload = append([]byte(nil), b[headerSize:end]...)
	}
	return p, end, nil
}

// ClampSpeed bounds a motor speed to [-MaxSpeed, MaxSpeed].
func ClampSpeed(speed int) int {
	if speed > MaxSpeed {
		return MaxSpeed
	}
	if speed < -MaxSpeed {
		return -MaxSpeed
	}
	return speed
}

func int16Bytes(v int) []byte {
	if v > math.MaxInt16 {
		v = math.MaxInt16
	} else if v < math.MinInt16 {
		v = math.MinInt16
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(int16(v)))
	return b[:]
}

func float32Bytes(v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

// RGBLED sets the color of one LED.
func RGBLED(port, slot, index, red, green, blue byte) *Packet {
	return Action(OpRGBLED, port, slot, index, red, green, blue)
}

// Motor runs a single motor.
func Motor(port byte, speed int) *Packet {
	return Action(OpMotor, append([]byte{port}, int16Bytes(ClampSpeed(speed))...)...)
}

// Move runs both wheels. The left motor is mounted mirrored, so its
// speed is negated on the wire.
func Move(left, right int) *Packet {
	payload := make([]byte, 0, 4)
	payload = append(payload, int16Bytes(-ClampSpeed(left))...)
	payload = append(payload, int16Bytes(ClampSpeed(right))...)
	return Action(OpMove, payload...)
}

// Servo turns a servo to angle (degrees).
func Servo(port, slot, angle byte) *Packet {
	return Action(OpServo, port, slot, angle)
}

// Buzzer plays a tone of frequency (Hz) for duration (ms).
func Buzzer(frequency, duration int) *Packet {
	return Action(OpBuzzer, append(int16Bytes(frequency), int16Bytes(duration)...)...)
}

// SevenSegment shows a number on a seven-segment display.
func SevenSegment(port byte, value float32) *Packet {
	return Action(OpSevenSegment, append([]byte{port}, float32Bytes(value)...)...)
}

// IRMessage sends a message through the onboard IR transmitter.
func IRMessage(msg []byte) *Packet {
	return Action(OpIR, msg...)
}

// UltrasonicRequest reads the distance (cm) from an ultrasonic sensor.
func UltrasonicRequest(id, port byte) *Packet {
	return Request(id, OpUltrasonic, port)
}

// LightRequest reads a light sensor.
func LightRequest(id, port byte) *Packet {
	return Request(id, OpLight, port)
}

// ButtonRequest reads the onboard button.
func ButtonRequest(id byte) *Packet {
	return Request(id, OpButton, PortOnboardButton)
}

// LineFollowerRequest reads a line follower sensor.
func LineFollowerRequest(id, port byte) *Packet {
	return Request(id, OpLineFollower, port)
}

// IRRequest reads the last message received by the onboard IR receiver.
func IRRequest(id byte) *Packet {
	return Request(id, OpIR)
}
