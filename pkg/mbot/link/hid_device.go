//go:build hid && cgo

package link

import (
	"errors"
	"sync"
	"time"

	"github.com/sstallion/go-hid"
)

var (
	hidInitOnce sync.Once
	hidInitErr  error
)

type hidapiDevice struct {
	dev *hid.Device
}

func openHIDDevice(vendorID, productID uint16) (HIDDevice, error) {
	hidInitOnce.Do(func() { hidInitErr = hid.Init() })
	if hidInitErr != nil {
		return nil, hidInitErr
	}
	dev, err := hid.OpenFirst(vendorID, productID)
	if err != nil {
		return nil, err
	}
	return &hidapiDevice{dev: dev}, nil
}

func (d *hidapiDevice) WriteReport(p []byte) error {
	_, err := d.dev.Write(p)
	return err
}

func (d *hidapiDevice) ReadReport(p []byte, timeout time.Duration) (int, error) {
	n, err := d.dev.ReadWithTimeout(p, timeout)
	if errors.Is(err, hid.ErrTimeout) {
		return 0, nil
	}
	return n, err
}

func (d *hidapiDevice) Close() error {
	return d.dev.Close()
}
