// Package link provides byte-stream transports to an mBot.
package link

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Link is a byte-stream transport to the robot.
// Read may return (0, nil) when no bytes arrived within the link's
// read timeout.
type Link interface {
	io.ReadWriteCloser
	// IsOpen indicates the link hasn't been closed.
	IsOpen() bool
}

// Dialer opens a Link.
type Dialer interface {
	Dial(context.Context) (Link, error)
}

// DialFunc is the func form of Dialer.
type DialFunc func(context.Context) (Link, error)

// Dial implements Dialer.
func (f DialFunc) Dial(ctx context.Context) (Link, error) {
	return f(ctx)
}

// DefaultReadTimeout bounds a single Read so the reader stays responsive.
const DefaultReadTimeout = 10 * time.Millisecond

// ErrClosed is returned when using a closed link.
var ErrClosed = errors.New("link closed")

// Address schemes
const (
	SchemeSim = "sim"
	SchemeHID = "hid"
)

// NewDialer creates a Dialer from an address:
// ws:// or wss:// URLs dial a websocket serial bridge, "hid" or
// "hid:VID:PID" opens the 2.4G wireless dongle, "sim" uses a simulated
// robot, anything else is a serial port name ("auto" detects the first
// USB serial port).
func NewDialer(addr string, baudRate int) Dialer {
	switch {
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
		return &WebSocketDialer{URL: addr}
	case addr == SchemeSim:
		return NewSim()
	case addr == SchemeHID, strings.HasPrefix(addr, SchemeHID+":"):
		d, err := ParseHIDAddress(addr)
		if err != nil {
			return DialFunc(func(context.Context) (Link, error) { return nil, err })
		}
		return d
	}
	return &SerialDialer{Port: addr, BaudRate: baudRate}
}
