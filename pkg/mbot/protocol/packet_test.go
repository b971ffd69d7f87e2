package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacket(t *testing.T) {
	testCases := []struct {
		name   string
		packet *Packet
		expect []byte
	}{
		{"move", Move(100, 100), []byte{0xff, 0x55, 0x07, 0x00, 0x02, 0x05, 0x9c, 0xff, 0x64, 0x00}},
		{"move reverse", Move(-60, -140), []byte{0xff, 0x55, 0x07, 0x00, 0x02, 0x05, 0x3c, 0x00, 0x74, 0xff}},
		{"move clamped", Move(-300, 300), []byte{0xff, 0x55, 0x07, 0x00, 0x02, 0x05, 0xff, 0x00, 0xff, 0x00}},
		{"motor", Motor(9, 300), []byte{0xff, 0x55, 0x06, 0x00, 0x02, 0x0a, 0x09, 0xff, 0x00}},
		{"onboard led", RGBLED(PortOnboardRGBLED, SlotOnboardRGBLED, 0, 253, 172, 10), []byte{0xff, 0x55, 0x09, 0x00, 0x02, 0x08, 0x07, 0x02, 0x00, 0xfd, 0xac, 0x0a}},
		{"servo", Servo(1, 1, 90), []byte{0xff, 0x55, 0x06, 0x00, 0x02, 0x0b, 0x01, 0x01, 0x5a}},
		{"buzzer", Buzzer(123, 250), []byte{0xff, 0x55, 0x07, 0x00, 0x02, 0x22, 0x7b, 0x00, 0xfa, 0x00}},
		{"seven segment", SevenSegment(4, 1.5), []byte{0xff, 0x55, 0x08, 0x00, 0x02, 0x09, 0x04, 0x00, 0x00, 0xc0, 0x3f}},
		{"ir message", IRMessage([]byte("hi")), []byte{0xff, 0x55, 0x05, 0x00, 0x02, 0x0d, 'h', 'i'}},
		{"ultrasonic", UltrasonicRequest(20, 3), []byte{0xff, 0x55, 0x04, 0x14, 0x01, 0x01, 0x03}},
		{"light", LightRequest(30, PortOnboardLight), []byte{0xff, 0x55, 0x04, 0x1e, 0x01, 0x03, 0x08}},
		{"button", ButtonRequest(40), []byte{0xff, 0x55, 0x04, 0x28, 0x01, 0x1f, 0x07}},
		{"line follower", LineFollowerRequest(10, 2), []byte{0xff, 0x55, 0x04, 0x0a, 0x01, 0x11, 0x02}},
		{"ir request", IRRequest(5), []byte{0xff, 0x55, 0x03, 0x05, 0x01, 0x0d}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.packet.Bytes())
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.EqualValues(t, len(tc.expect), n)

			parsed, consumed, err := ParsePacket(tc.expect)
			require.NoError(t, err)
			require.Equal(t, len(tc.expect), consumed)
			require.Equal(t, tc.packet.ID, parsed.ID)
			require.Equal(t, tc.packet.Class, parsed.Class)
			require.Equal(t, tc.packet.Opcode, parsed.Opcode)
			require.Equal(t, tc.packet.Payload, parsed.Payload)
		})
	}
}

func TestParsePacketErrors(t *testing.T) {
	_, _, err := ParsePacket([]byte{0xff, 0x55, 0x07, 0x00})
	require.ErrorIs(t, err, ErrShortPacket)
	_, _, err = ParsePacket([]byte{0xff, 0x55, 0x07, 0x00, 0x02, 0x05, 0x00})
	require.ErrorIs(t, err, ErrShortPacket)
	_, _, err = ParsePacket([]byte{0x55, 0xff, 0x03, 0x00, 0x02, 0x05})
	require.ErrorIs(t, err, ErrMalformedFrame)
	_, _, err = ParsePacket([]byte{0xff, 0x55, 0x02, 0x00, 0x02, 0x05})
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestPacketPayloadTooLarge(t *testing.T) {
	_, err := IRMessage(make([]byte, MaxPayload+1)).WriteTo(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestClampSpeed(t *testing.T) {
	require.Equal(t, 255, ClampSpeed(256))
	require.Equal(t, -255, ClampSpeed(-1000))
	require.Equal(t, 42, ClampSpeed(42))
}
