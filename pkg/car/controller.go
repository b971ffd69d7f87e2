package car

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/mbot.go/pkg/framework"
	"github.com/robotalks/mbot.go/pkg/input"
	"github.com/robotalks/mbot.go/pkg/mbot"
)

// Request ids of the polled sensors.
const (
	LineFollowerRequestID byte = 10
	DistanceRequestID     byte = 20
	LightRequestID        byte = 30
	ButtonRequestID       byte = 40
)

// Horn tone.
const (
	HornFrequency = 123
	HornDuration  = 250 * time.Millisecond
)

// HeadlightColor is the color of the onboard LEDs when headlights are on.
var HeadlightColor = [3]byte{253, 172, 10}

// Robot is the part of mbot.Driver used by the Controller.
type Robot interface {
	IsAlive() bool
	Connect(context.Context) error
	SetDifferentialDrive(left, right int) error
	SetOnboardRGBLED(index, red, green, blue byte) error
	Buzz(frequency int, duration time.Duration) error
	RequestUltrasonicDistance(id, port byte, cb mbot.Callback) (bool, error)
	RequestOnboardLight(id byte, cb mbot.Callback) (bool, error)
	RequestOnboardButton(id byte, cb mbot.Callback) (bool, error)
	RequestLineFollower(id, port byte, cb mbot.Callback) (bool, error)
}

// State is what the Controller last committed to the robot.
type State struct {
	LeftSpeed      int
	RightSpeed     int
	Headlights     bool
	HeadlightsTime time.Time
	HornTime       time.Time
}

// Controller drives the robot once per loop iteration.
type Controller struct {
	Config
	Robot   Robot
	Source  input.Source
	Sensors *mbot.Sensors

	state   State
	retryAt time.Time
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, c)
}

// State returns the committed state.
func (c *Controller) State() State {
	return c.state
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if !c.Robot.IsAlive() {
		if now.Before(c.retryAt) {
			return nil
		}
		if err := c.Robot.Connect(cc.Context()); err != nil {
			c.retryAt = now.Add(c.ReconnectBackoff)
			glog.Warningf("connect robot: %v, retry in %v", err, c.ReconnectBackoff)
			return nil
		}
		glog.Info("robot connected")
		// the firmware restarts at rest when the link opens.
		c.state = State{HornTime: c.state.HornTime}
	}

	c.requestSensors()
	in := c.Source.Input()
	sensors := c.Sensors.Snapshot()

	speed := ObstacleAvoidance(in.Direction, sensors.Distance,
		c.DistanceMin, c.DistanceMax, c.VelocityMin, c.VelocityMax)
	left, right := DifferentialDrive(in.Direction, in.Steering, speed, c.Curve)
	headlights := sensors.Light.Valid && sensors.Light.Value < c.LightThreshold ||
		c.state.Headlights && now.Sub(c.state.HeadlightsTime) < c.HeadlightHold

	var errs fx.AggregatedError
	if left != c.state.LeftSpeed || right != c.state.RightSpeed {
		if err := c.Robot.SetDifferentialDrive(left, right); err != nil {
			errs.Add(err)
		} else {
			c.state.LeftSpeed, c.state.RightSpeed = left, right
		}
	}
	if headlights != c.state.Headlights {
		if err := c.setHeadlights(headlights); err != nil {
			errs.Add(err)
		} else {
			glog.V(1).Infof("headlights %v", headlights)
			c.state.Headlights, c.state.HeadlightsTime = headlights, now
		}
	}
	if in.Horn && (c.state.HornTime.IsZero() || now.Sub(c.state.HornTime) >= c.HornInterval) {
		if err := c.Robot.Buzz(HornFrequency, HornDuration); err != nil {
			errs.Add(err)
		} else {
			c.state.HornTime = now
		}
	}

	switch {
	case in.Stop:
		glog.Info("stop requested by input")
		cc.Stop()
	case sensors.Button.Valid && sensors.Button.Value == 0:
		glog.Info("stop requested by onboard button")
		cc.Stop()
	}
	return errs.Aggregate()
}

// Finalize implements Finalizer, bringing the robot to rest.
func (c *Controller) Finalize(ctx context.Context) error {
	var errs fx.AggregatedError
	errs.Add(c.Robot.SetDifferentialDrive(0, 0), c.setHeadlights(false))
	c.state.LeftSpeed, c.state.RightSpeed, c.state.Headlights = 0, 0, false
	return errs.Aggregate()
}

func (c *Controller) setHeadlights(on bool) error {
	if on {
		return c.Robot.SetOnboardRGBLED(0, HeadlightColor[0], HeadlightColor[1], HeadlightColor[2])
	}
	return c.Robot.SetOnboardRGBLED(0, 0, 0, 0)
}

func (c *Controller) requestSensors() {
	logRequest(mbot.SensorDistance)(c.Robot.RequestUltrasonicDistance(
		DistanceRequestID, byte(c.UltrasonicPort), c.Sensors.Updater(mbot.SensorDistance)))
	logRequest(mbot.SensorLight)(c.Robot.RequestOnboardLight(
		LightRequestID, c.Sensors.Updater(mbot.SensorLight)))
	logRequest(mbot.SensorButton)(c.Robot.RequestOnboardButton(
		ButtonRequestID, c.Sensors.Updater(mbot.SensorButton)))
	if c.LineFollowerPort > 0 {
		logRequest(mbot.SensorLineFollower)(c.Robot.RequestLineFollower(
			LineFollowerRequestID, byte(c.LineFollowerPort), c.Sensors.Updater(mbot.SensorLineFollower)))
	}
}

func logRequest(sensor mbot.Sensor) func(bool, error) {
	return func(sent bool, err error) {
		switch {
		case err != nil:
			glog.V(1).Infof("request %s: %v", sensor, err)
		case !sent:
			glog.V(3).Infof("request %s still pending", sensor)
		}
	}
}
