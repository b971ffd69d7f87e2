package link

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate is the baud rate of the mBot firmware.
const DefaultBaudRate = 115200

// PortAuto requests detection of the serial port.
const PortAuto = "auto"

// ErrNoPort indicates no USB serial port is detected.
var ErrNoPort = errors.New("no USB serial port detected")

// SerialDialer opens a serial port.
type SerialDialer struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// Serial wraps a serial port as a Link.
type Serial struct {
	port   serial.Port
	name   string
	closed atomic.Bool
}

// Dial implements Dialer.
func (d *SerialDialer) Dial(ctx context.Context) (Link, error) {
	name := d.Port
	if name == "" || name == PortAuto {
		var err error
		if name, err = DetectPort(); err != nil {
			return nil, err
		}
	}
	baudRate := d.BaudRate
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	glog.Infof("serial port %s opened @ %d", name, baudRate)
	return &Serial{port: port, name: name}, nil
}

// DetectPort returns the first USB serial port.
func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate ports: %w", err)
	}
	for _, p := range ports {
		if p.IsUSB {
			glog.V(1).Infof("detected %s (VID=%s PID=%s)", p.Name, p.VID, p.PID)
			return p.Name, nil
		}
	}
	return "", ErrNoPort
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

// Read implements Link.
func (s *Serial) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	return s.port.Read(p)
}

// Write implements Link.
func (s *Serial) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	return s.port.Write(p)
}

// IsOpen implements Link.
func (s *Serial) IsOpen() bool {
	return !s.closed.Load()
}

// Close implements Link.
func (s *Serial) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.port.Close()
}
