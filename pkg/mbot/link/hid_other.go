//go:build !(hid && cgo)

package link

func openHIDDevice(vendorID, productID uint16) (HIDDevice, error) {
	return nil, ErrHIDNotSupported
}
