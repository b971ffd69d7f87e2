package car

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/mbot.go/pkg/framework"
	"github.com/robotalks/mbot.go/pkg/input"
	"github.com/robotalks/mbot.go/pkg/mbot"
	"github.com/robotalks/mbot.go/pkg/mbot/link"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

type testRobot struct {
	alive      bool
	connectErr error
	sendErr    error
	connects   int
	moves      [][2]int
	leds       [][3]byte
	buzzes     int
	requests   []byte
}

func (r *testRobot) IsAlive() bool { return r.alive }

func (r *testRobot) Connect(context.Context) error {
	r.connects++
	if r.connectErr != nil {
		return r.connectErr
	}
	r.alive = true
	return nil
}

func (r *testRobot) SetDifferentialDrive(left, right int) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.moves = append(r.moves, [2]int{left, right})
	return nil
}

func (r *testRobot) SetOnboardRGBLED(index, red, green, blue byte) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.leds = append(r.leds, [3]byte{red, green, blue})
	return nil
}

func (r *testRobot) Buzz(frequency int, duration time.Duration) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.buzzes++
	return nil
}

func (r *testRobot) request(id byte) (bool, error) {
	r.requests = append(r.requests, id)
	return true, nil
}

func (r *testRobot) RequestUltrasonicDistance(id, port byte, cb mbot.Callback) (bool, error) {
	return r.request(id)
}

func (r *testRobot) RequestOnboardLight(id byte, cb mbot.Callback) (bool, error) {
	return r.request(id)
}

func (r *testRobot) RequestOnboardButton(id byte, cb mbot.Callback) (bool, error) {
	return r.request(id)
}

func (r *testRobot) RequestLineFollower(id, port byte, cb mbot.Callback) (bool, error) {
	return r.request(id)
}

type testTick struct {
	now     time.Time
	stopped bool
}

func (t *testTick) Time() time.Time                     { return t.now }
func (t *testTick) Context() context.Context            { return context.Background() }
func (t *testTick) PriorityLevel() int                  { return fx.PrLvControl }
func (t *testTick) Messages() fx.MessageStore           { return t }
func (t *testTick) ProcessMessages(fx.MessageProcessor) {}
func (t *testTick) PostMessage(fx.Message)              {}
func (t *testTick) TriggerNext()                        {}
func (t *testTick) Stop()                               { t.stopped = true }

type testCar struct {
	t       *testing.T
	robot   *testRobot
	sensors *mbot.Sensors
	input   input.Input
	ctl     *Controller
	start   time.Time
}

func newTestCar(t *testing.T) *testCar {
	c := &testCar{
		t:       t,
		robot:   &testRobot{alive: true},
		sensors: &mbot.Sensors{},
		start:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	c.ctl = NewConfig().NewController(c.robot, input.SourceFunc(func() input.Input { return c.input }), c.sensors)
	return c
}

func (c *testCar) tick(at time.Duration) *testTick {
	tick := &testTick{now: c.start.Add(at)}
	require.NoError(c.t, c.ctl.Control(tick))
	return tick
}

func TestControllerMoveOnChange(t *testing.T) {
	c := newTestCar(t)
	c.tick(0)
	require.Empty(t, c.robot.moves, "already at rest")

	c.input = input.Input{Direction: 1}
	c.tick(50 * time.Millisecond)
	c.tick(100 * time.Millisecond)
	c.tick(150 * time.Millisecond)
	require.Equal(t, [][2]int{{150, 150}}, c.robot.moves)

	c.input.Steering = 1
	c.tick(200 * time.Millisecond)
	c.sensors.Set(mbot.SensorDistance, 12.5, c.start)
	c.input.Steering = 0
	c.tick(250 * time.Millisecond)
	c.sensors.Set(mbot.SensorDistance, 3, c.start)
	c.tick(300 * time.Millisecond)
	c.input.Direction = -1
	c.tick(350 * time.Millisecond)
	require.Equal(t, [][2]int{{150, 150}, {90, 210}, {113, 113}, {0, 0}, {-150, -150}}, c.robot.moves)
	require.Equal(t, State{LeftSpeed: -150, RightSpeed: -150}, c.ctl.State())
}

func TestControllerRetriesFailedMove(t *testing.T) {
	c := newTestCar(t)
	c.input = input.Input{Direction: 1}
	c.robot.sendErr = errors.New("write failed")
	require.Error(t, c.ctl.Control(&testTick{now: c.start}))
	c.robot.sendErr = nil
	c.tick(50 * time.Millisecond)
	require.Equal(t, [][2]int{{150, 150}}, c.robot.moves)
}

func TestControllerHeadlights(t *testing.T) {
	c := newTestCar(t)
	c.sensors.Set(mbot.SensorLight, 100, c.start)
	c.tick(0)
	require.Equal(t, [][3]byte{HeadlightColor}, c.robot.leds)
	require.True(t, c.ctl.State().Headlights)

	c.sensors.Set(mbot.SensorLight, 800, c.start)
	c.tick(time.Second)
	c.tick(29 * time.Second)
	require.Len(t, c.robot.leds, 1, "held over")
	require.True(t, c.ctl.State().Headlights)

	c.tick(30 * time.Second)
	require.Equal(t, [][3]byte{HeadlightColor, {0, 0, 0}}, c.robot.leds)
	require.False(t, c.ctl.State().Headlights)
	c.tick(31 * time.Second)
	require.Len(t, c.robot.leds, 2)

	c.sensors.Set(mbot.SensorLight, 199, c.start)
	c.tick(32 * time.Second)
	require.Len(t, c.robot.leds, 3)
	require.Equal(t, c.start.Add(32*time.Second), c.ctl.State().HeadlightsTime)
}

func TestControllerHorn(t *testing.T) {
	c := newTestCar(t)
	c.input.Horn = true
	c.tick(0)
	c.tick(100 * time.Millisecond)
	require.Equal(t, 1, c.robot.buzzes)
	c.tick(500 * time.Millisecond)
	require.Equal(t, 2, c.robot.buzzes)
	c.input.Horn = false
	c.tick(2 * time.Second)
	require.Equal(t, 2, c.robot.buzzes)
}

func TestControllerReconnect(t *testing.T) {
	c := newTestCar(t)
	c.robot.alive = false
	c.robot.connectErr = errors.New("no port")
	c.input = input.Input{Direction: 1}

	c.tick(0)
	require.Equal(t, 1, c.robot.connects)
	c.tick(500 * time.Millisecond)
	require.Equal(t, 1, c.robot.connects, "backing off")
	c.tick(time.Second)
	require.Equal(t, 2, c.robot.connects)
	require.Empty(t, c.robot.requests)
	require.Empty(t, c.robot.moves)

	c.robot.connectErr = nil
	c.tick(2 * time.Second)
	require.Equal(t, 3, c.robot.connects)
	require.Equal(t, []byte{DistanceRequestID, LightRequestID, ButtonRequestID}, c.robot.requests)
	require.Equal(t, [][2]int{{150, 150}}, c.robot.moves)
}

func TestControllerLineFollower(t *testing.T) {
	c := newTestCar(t)
	c.ctl.LineFollowerPort = 2
	c.tick(0)
	require.Equal(t, []byte{DistanceRequestID, LightRequestID, ButtonRequestID, LineFollowerRequestID}, c.robot.requests)
}

func TestControllerStop(t *testing.T) {
	c := newTestCar(t)
	require.False(t, c.tick(0).stopped)

	c.input.Stop = true
	require.True(t, c.tick(50*time.Millisecond).stopped)

	c.input.Stop = false
	c.sensors.Set(mbot.SensorButton, 0, c.start)
	require.True(t, c.tick(100*time.Millisecond).stopped)
}

func TestControllerFinalize(t *testing.T) {
	testCases := []struct {
		name  string
		input input.Input
		light float64
	}{
		{"at rest", input.Input{}, 800},
		{"moving with headlights", input.Input{Direction: 1, Steering: 0.5}, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCar(t)
			c.input = tc.input
			c.sensors.Set(mbot.SensorLight, tc.light, c.start)
			c.tick(0)
			c.robot.moves, c.robot.leds = nil, nil

			require.NoError(t, c.ctl.Finalize(context.Background()))
			require.Equal(t, [][2]int{{0, 0}}, c.robot.moves)
			require.Equal(t, [][3]byte{{0, 0, 0}}, c.robot.leds)
			require.Equal(t, 0, c.ctl.State().LeftSpeed)
			require.False(t, c.ctl.State().Headlights)
		})
	}
}

func TestControllerInLoop(t *testing.T) {
	sim := link.NewSim()
	drv := mbot.NewDriver(sim)
	drv.WriteInterval = 0
	defer drv.Disconnect()

	conf := NewConfig()
	conf.Rate = 500
	ctl := conf.NewController(drv, input.SourceFunc(func() input.Input {
		return input.Input{Direction: 1}
	}), &mbot.Sensors{})
	loop := fx.NewLoop()
	loop.Interval = conf.Interval()
	loop.Add(ctl)

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return len(sim.PacketsOf(protocol.OpMove)) > 0
	}, time.Second, time.Millisecond)
	sim.SetReading(protocol.OpButton, protocol.FloatValue(0))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop not stopped by the onboard button")
	}

	moves := sim.PacketsOf(protocol.OpMove)
	require.Len(t, moves, 2)
	require.Equal(t, protocol.Move(150, 150).Bytes(), moves[0].Bytes())
	require.Equal(t, protocol.Move(0, 0).Bytes(), moves[1].Bytes())
	leds := sim.PacketsOf(protocol.OpRGBLED)
	require.Len(t, leds, 1)
	require.Equal(t, protocol.RGBLED(protocol.PortOnboardRGBLED, protocol.SlotOnboardRGBLED, 0, 0, 0, 0).Bytes(), leds[0].Bytes())
}
