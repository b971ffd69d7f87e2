package input

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/mbot.go/pkg/framework"
	"github.com/robotalks/mbot.go/pkg/input/device"
)

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// DefaultRetryInterval is the wait before opening a device again.
const DefaultRetryInterval = time.Second

// Joystick is a Source reading a joystick device. Axis 0 steers and
// axis 1 drives, both inverted so pushing up and left is positive.
// Any button press sounds the horn. Losing the device zeroes the axes.
//
// Input must be called from the loop the Joystick is added to.
type Joystick struct {
	DeviceIndex   int
	Verbose       bool
	Open          device.Opener
	RetryInterval time.Duration

	steering  int
	direction int
	horn      bool
	connected bool
}

// NewJoystick creates a Joystick with defaults.
func NewJoystick() *Joystick {
	return &Joystick{
		DeviceIndex:   defaultConfig.DeviceIndex,
		Verbose:       defaultConfig.Verbose,
		Open:          device.OpenOrDetect,
		RetryInterval: DefaultRetryInterval,
	}
}

// AddToLoop implements LoopAdder.
func (j *Joystick) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(j)
	loop.AddController(fx.PrLvSense, j)
}

// Connected indicates a device is opened.
func (j *Joystick) Connected() bool {
	return j.connected
}

// Input implements Source.
func (j *Joystick) Input() Input {
	in := Input{
		Direction: -Normalize(j.direction, AxisMax),
		Steering:  -Normalize(j.steering, AxisMax),
		Horn:      j.horn,
	}
	j.horn = false
	return in
}

// Run implements Runnable.
func (j *Joystick) Run(ctx context.Context) error {
	var dev device.Device
	var eventCh chan device.Event
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	retry := j.RetryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	deviceTimer := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deviceTimer:
			deviceTimer = nil
			js, err := j.open()
			if err != nil || js == nil {
				deviceTimer = time.After(retry)
				continue
			}
			glog.Infof("joystick %d %q opened", js.Index(), js.Name())
			dev, eventCh = js, make(chan device.Event, 1)
			go j.poll(ctx, dev, eventCh)
			loopCtl.PostMessage(&statusMsg{connected: true})
		case ev, ok := <-eventCh:
			if ok {
				loopCtl.PostMessage(&eventMsg{event: ev})
				continue
			}
			glog.Warningf("joystick %d lost", dev.Index())
			dev.Close()
			dev, eventCh = nil, nil
			deviceTimer = time.After(retry)
			loopCtl.PostMessage(&statusMsg{connected: false})
		}
	}
}

// Control implements Controller.
func (j *Joystick) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *eventMsg:
			mctx.MessageTaken()
			j.handleEvent(msg.event)
		case *statusMsg:
			mctx.MessageTaken()
			j.connected = msg.connected
			if !msg.connected {
				j.steering, j.direction = 0, 0
			}
		}
	}))
	return nil
}

func (j *Joystick) handleEvent(ev device.Event) {
	switch evt := ev.(type) {
	case device.AxisEvent:
		switch evt.Index() {
		case 0, 6:
			j.steering = evt.Value()
		case 1, 7:
			j.direction = evt.Value()
		}
	case device.ButtonEvent:
		if evt.Pressed() && !evt.IsInit() {
			j.horn = true
		}
	}
}

func (j *Joystick) open() (device.Device, error) {
	open := j.Open
	if open == nil {
		open = device.OpenOrDetect
	}
	js, err := open(j.DeviceIndex)
	switch {
	case err != nil:
		glog.V(1).Infof("open joystick %d: %v", j.DeviceIndex, err)
	case js == nil:
		glog.V(1).Info("no joystick detected")
	}
	return js, err
}

func (j *Joystick) poll(ctx context.Context, dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.V(1).Infof("joystick read: %v", err)
			return
		}
		if j.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof("%saxis %d: %d", prefix, evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof("%sbutton %d: %v", prefix, evt.Index(), evt.Pressed())
			}
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

type statusMsg struct {
	connected bool
}

func (m *statusMsg) NewMessage() fx.Message { return &statusMsg{} }

type eventMsg struct {
	event device.Event
}

func (m *eventMsg) NewMessage() fx.Message { return &eventMsg{} }
