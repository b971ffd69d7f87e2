package mbot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mbot.go/pkg/mbot/link"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// Defaults of Driver.
const (
	// DefaultWriteInterval paces writes, the firmware drops packets
	// arriving back-to-back.
	DefaultWriteInterval = 10 * time.Millisecond
	// DefaultJoinTimeout bounds waiting for the reader on Disconnect.
	DefaultJoinTimeout = 2 * time.Second
	// DefaultRequestExpiration is how long a request may stay pending
	// before its id can be reused.
	DefaultRequestExpiration = time.Second
)

// Driver exposes the robot's actions and sensor requests.
type Driver struct {
	Dialer            link.Dialer
	WriteInterval     time.Duration
	JoinTimeout       time.Duration
	RequestExpiration time.Duration
	IdleWait          time.Duration

	lock   sync.Mutex
	link   link.Link
	stopCh chan struct{}
	doneCh chan struct{}
	err    error

	writeLock sync.Mutex
	pending   Pending
}

// NewDriver creates a Driver with defaults.
func NewDriver(dialer link.Dialer) *Driver {
	return &Driver{
		Dialer:            dialer,
		WriteInterval:     DefaultWriteInterval,
		JoinTimeout:       DefaultJoinTimeout,
		RequestExpiration: DefaultRequestExpiration,
		IdleWait:          DefaultIdleWait,
	}
}

// Connect opens the link and starts the reader. An existing connection
// is closed first.
func (d *Driver) Connect(ctx context.Context) error {
	if err := d.Disconnect(); err != nil {
		glog.V(1).Infof("close previous link: %v", err)
	}
	l, err := d.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}
	d.pending.Reset()
	r := &reader{link: l, pending: &d.pending, idleWait: d.IdleWait}
	if r.idleWait <= 0 {
		r.idleWait = DefaultIdleWait
	}
	stopCh, doneCh := make(chan struct{}), make(chan struct{})

	d.lock.Lock()
	d.link, d.stopCh, d.doneCh, d.err = l, stopCh, doneCh, nil
	d.lock.Unlock()

	go func() {
		defer close(doneCh)
		err := r.run(stopCh)
		if err != nil {
			glog.Errorf("reader stopped: %v", err)
		}
		d.lock.Lock()
		if d.doneCh == doneCh {
			d.err = err
		}
		d.lock.Unlock()
	}()
	return nil
}

// Disconnect closes the link and waits for the reader to stop, at most
// JoinTimeout, after which the reader is abandoned.
func (d *Driver) Disconnect() error {
	d.lock.Lock()
	l, stopCh, doneCh := d.link, d.stopCh, d.doneCh
	d.link, d.stopCh = nil, nil
	d.lock.Unlock()
	if l == nil {
		return nil
	}
	close(stopCh)
	err := l.Close()
	timeout := d.JoinTimeout
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}
	select {
	case <-doneCh:
	case <-time.After(timeout):
		glog.Warningf("reader not stopped in %v, abandoned", timeout)
	}
	return err
}

// IsAlive indicates the link is connected and the reader is running.
func (d *Driver) IsAlive() bool {
	d.lock.Lock()
	l, doneCh := d.link, d.doneCh
	d.lock.Unlock()
	if l == nil || doneCh == nil {
		return false
	}
	select {
	case <-doneCh:
		return false
	default:
		return true
	}
}

// Err returns the error which stopped the reader.
func (d *Driver) Err() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.err
}

// PendingRequests returns the number of requests waiting for response.
func (d *Driver) PendingRequests() int {
	return d.pending.Len()
}

// Send writes a packet.
func (d *Driver) Send(pkt *protocol.Packet) error {
	d.lock.Lock()
	l := d.link
	d.lock.Unlock()
	if l == nil || !l.IsOpen() {
		return ErrLinkUnavailable
	}
	d.writeLock.Lock()
	defer d.writeLock.Unlock()
	if _, err := pkt.WriteTo(l); err != nil {
		return fmt.Errorf("write %v: %w", pkt, err)
	}
	glog.V(3).Infof("sent %v", pkt)
	if d.WriteInterval > 0 {
		time.Sleep(d.WriteInterval)
	}
	return nil
}

// Request sends a request packet unless a request with the same id is
// still pending. It returns true if the packet is sent; cb is invoked
// from the reader goroutine when the response arrives.
func (d *Driver) Request(pkt *protocol.Packet, cb Callback) (bool, error) {
	if d.RequestExpiration > 0 {
		if n := d.pending.Expire(time.Now().Add(-d.RequestExpiration)); n > 0 {
			glog.V(2).Infof("%d requests expired", n)
		}
	}
	if !d.pending.Register(pkt.ID, cb) {
		return false, nil
	}
	if err := d.Send(pkt); err != nil {
		d.pending.Cancel(pkt.ID)
		return false, err
	}
	return true, nil
}

// SetMotor runs the motor on port, speed in [-255, 255].
func (d *Driver) SetMotor(port byte, speed int) error {
	return d.Send(protocol.Motor(port, speed))
}

// SetDifferentialDrive runs both wheels, speeds in [-255, 255].
func (d *Driver) SetDifferentialDrive(left, right int) error {
	return d.Send(protocol.Move(left, right))
}

// SetRGBLED sets the color of an LED on an RGB LED module.
func (d *Driver) SetRGBLED(port, slot, index, red, green, blue byte) error {
	return d.Send(protocol.RGBLED(port, slot, index, red, green, blue))
}

// SetOnboardRGBLED sets the color of an onboard LED, index 0 for both.
func (d *Driver) SetOnboardRGBLED(index, red, green, blue byte) error {
	return d.SetRGBLED(protocol.PortOnboardRGBLED, protocol.SlotOnboardRGBLED, index, red, green, blue)
}

// SetServo turns the servo to angle.
func (d *Driver) SetServo(port, slot, angle byte) error {
	return d.Send(protocol.Servo(port, slot, angle))
}

// Buzz plays a tone of frequency (Hz) for duration.
func (d *Driver) Buzz(frequency int, duration time.Duration) error {
	return d.Send(protocol.Buzzer(frequency, int(duration/time.Millisecond)))
}

// SetSevenSegment shows value on a seven-segment display.
func (d *Driver) SetSevenSegment(port byte, value float32) error {
	return d.Send(protocol.SevenSegment(port, value))
}

// SendIR sends a message through the onboard IR transmitter.
func (d *Driver) SendIR(msg string) error {
	return d.Send(protocol.IRMessage([]byte(msg)))
}

// RequestUltrasonicDistance requests the distance (cm) measured by the
// ultrasonic sensor on port.
func (d *Driver) RequestUltrasonicDistance(id, port byte, cb Callback) (bool, error) {
	return d.Request(protocol.UltrasonicRequest(id, port), cb)
}

// RequestLight requests the light sensor on port.
func (d *Driver) RequestLight(id, port byte, cb Callback) (bool, error) {
	return d.Request(protocol.LightRequest(id, port), cb)
}

// RequestOnboardLight requests the onboard light sensor.
func (d *Driver) RequestOnboardLight(id byte, cb Callback) (bool, error) {
	return d.RequestLight(id, protocol.PortOnboardLight, cb)
}

// RequestOnboardButton requests the onboard button, 0 when pressed.
func (d *Driver) RequestOnboardButton(id byte, cb Callback) (bool, error) {
	return d.Request(protocol.ButtonRequest(id), cb)
}

// RequestLineFollower requests the line follower on port.
func (d *Driver) RequestLineFollower(id, port byte, cb Callback) (bool, error) {
	return d.Request(protocol.LineFollowerRequest(id, port), cb)
}

// RequestOnboardIR requests the last message of the onboard IR receiver.
func (d *Driver) RequestOnboardIR(id byte, cb Callback) (bool, error) {
	return d.Request(protocol.IRRequest(id), cb)
}
