package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// USB ids of the Makeblock 2.4G wireless dongle.
const (
	DefaultHIDVendorID  uint16 = 0x0416
	DefaultHIDProductID uint16 = 0xffff
)

// HIDReportSize is the size of a dongle report. The first byte is the
// number of stream bytes carried by the rest.
const HIDReportSize = 64

const hidChunkSize = HIDReportSize - 1

// ErrHIDNotSupported is returned when the binary is built without HID support.
var ErrHIDNotSupported = errors.New("HID not supported, build with -tags hid and cgo")

// HIDDevice is an opened HID device.
type HIDDevice interface {
	io.Closer
	// WriteReport sends an output report, p[0] is the report id.
	WriteReport(p []byte) error
	// ReadReport reads an input report, 0 if none arrives in timeout.
	ReadReport(p []byte, timeout time.Duration) (int, error)
}

// HIDDialer opens the wireless dongle.
type HIDDialer struct {
	VendorID    uint16
	ProductID   uint16
	ReadTimeout time.Duration
	// Open defaults to the system HID library.
	Open func(vendorID, productID uint16) (HIDDevice, error)
}

// HID carries the byte stream over HID reports.
type HID struct {
	dev         HIDDevice
	readTimeout time.Duration
	closed      atomic.Bool

	report  [HIDReportSize]byte
	pending []byte
}

// ParseHIDAddress parses "hid" or "hid:VID:PID" with hexadecimal ids.
func ParseHIDAddress(addr string) (*HIDDialer, error) {
	d := &HIDDialer{VendorID: DefaultHIDVendorID, ProductID: DefaultHIDProductID}
	if addr == SchemeHID {
		return d, nil
	}
	ids := strings.Split(strings.TrimPrefix(addr, SchemeHID+":"), ":")
	if len(ids) != 2 {
		return nil, fmt.Errorf("invalid HID address %q, expect hid:VID:PID", addr)
	}
	vid, err := strconv.ParseUint(ids[0], 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id %q: %w", ids[0], err)
	}
	pid, err := strconv.ParseUint(ids[1], 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", ids[1], err)
	}
	d.VendorID, d.ProductID = uint16(vid), uint16(pid)
	return d, nil
}

// Dial implements Dialer.
func (d *HIDDialer) Dial(ctx context.Context) (Link, error) {
	open := d.Open
	if open == nil {
		open = openHIDDevice
	}
	dev, err := open(d.VendorID, d.ProductID)
	if err != nil {
		return nil, fmt.Errorf("open HID %04x:%04x: %w", d.VendorID, d.ProductID, err)
	}
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	glog.Infof("HID %04x:%04x opened", d.VendorID, d.ProductID)
	return &HID{dev: dev, readTimeout: timeout}, nil
}

// Read implements Link.
func (h *HID) Read(p []byte) (int, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	if len(h.pending) == 0 {
		n, err := h.dev.ReadReport(h.report[:], h.readTimeout)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			size := int(h.report[0])
			if size > n-1 {
				size = n - 1
			}
			h.pending = append(h.pending[:0], h.report[1:1+size]...)
		}
	}
	n := copy(p, h.pending)
	h.pending = h.pending[n:]
	return n, nil
}

// Write implements Link. Bytes are split into reports of at most
// HIDReportSize-1 bytes each.
func (h *HID) Write(p []byte) (int, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	var written int
	for written < len(p) {
		chunk := p[written:]
		if len(chunk) > hidChunkSize {
			chunk = chunk[:hidChunkSize]
		}
		// report id 0, then the byte count.
		report := make([]byte, 1+HIDReportSize)
		report[1] = byte(len(chunk))
		copy(report[2:], chunk)
		if err := h.dev.WriteReport(report); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

// IsOpen implements Link.
func (h *HID) IsOpen() bool {
	return !h.closed.Load()
}

// Close implements Link.
func (h *HID) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.dev.Close()
}
