// Package device reads joystick events from the operating system.
package device

import (
	"errors"
	"io"
)

// ErrNotSupported is returned by Open on platforms without joystick support.
var ErrNotSupported = errors.New("joystick not supported on this platform")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates the event reports initial state rather than a change.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}

// Opener opens a device by index, or detects one when index is negative.
// It returns nil Device and nil error when nothing is detected.
type Opener func(index int) (Device, error)

// OpenOrDetect is the default Opener.
func OpenOrDetect(index int) (Device, error) {
	if index >= 0 {
		return Open(index)
	}
	return DetectAndOpen(0)
}

// ErrShortEvent indicates a truncated raw event.
var ErrShortEvent = errors.New("short joystick event")
