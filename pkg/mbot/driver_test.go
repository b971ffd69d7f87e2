package mbot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mbot.go/pkg/mbot/link"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

type valueRecorder struct {
	lock   sync.Mutex
	values []protocol.Value
}

func (r *valueRecorder) record(v protocol.Value) {
	r.lock.Lock()
	r.values = append(r.values, v)
	r.lock.Unlock()
}

func (r *valueRecorder) get() []protocol.Value {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]protocol.Value(nil), r.values...)
}

func newTestDriver(t *testing.T) (*Driver, *link.Sim) {
	sim := link.NewSim()
	d := NewDriver(sim)
	d.WriteInterval = 0
	d.JoinTimeout = time.Second
	require.NoError(t, d.Connect(context.Background()))
	t.Cleanup(func() { d.Disconnect() })
	return d, sim
}

func TestDriverRequest(t *testing.T) {
	d, sim := newTestDriver(t)
	sim.SetReading(protocol.OpUltrasonic, protocol.FloatValue(12.5))
	var rec valueRecorder
	sent, err := d.RequestUltrasonicDistance(20, 3, rec.record)
	require.NoError(t, err)
	require.True(t, sent)
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, 12.5, rec.get()[0].Float())
	require.Zero(t, d.PendingRequests())
}

func TestDriverDuplicateRequest(t *testing.T) {
	d, sim := newTestDriver(t)
	sim.SetSilent(true)
	var rec valueRecorder

	sent, err := d.RequestOnboardLight(30, rec.record)
	require.NoError(t, err)
	require.True(t, sent)
	sent, err = d.RequestOnboardLight(30, rec.record)
	require.NoError(t, err)
	require.False(t, sent)
	require.Len(t, sim.PacketsOf(protocol.OpLight), 1)

	sim.Inject((&protocol.Frame{RequestID: 30, Value: protocol.FloatValue(150)}).Bytes())
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, time.Millisecond)
	sent, err = d.RequestOnboardLight(30, rec.record)
	require.NoError(t, err)
	require.True(t, sent)
	require.Len(t, sim.PacketsOf(protocol.OpLight), 2)
}

func TestDriverNoiseBeforeFrame(t *testing.T) {
	d, sim := newTestDriver(t)
	sim.SetSilent(true)
	var rec valueRecorder
	sent, err := d.RequestOnboardButton(40, rec.record)
	require.NoError(t, err)
	require.True(t, sent)

	sim.Inject([]byte{0x00, 0x13, 0x0d, 0x0a, 0xff, 0x01, 0x55})
	sim.Inject((&protocol.Frame{RequestID: 40, Value: protocol.FloatValue(0)}).Bytes())
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []protocol.Value{protocol.FloatValue(0)}, rec.get())
}

func TestDriverRequestExpiration(t *testing.T) {
	d, sim := newTestDriver(t)
	sim.SetSilent(true)
	d.RequestExpiration = 10 * time.Millisecond
	sent, err := d.RequestLineFollower(10, 2, nil)
	require.NoError(t, err)
	require.True(t, sent)
	time.Sleep(20 * time.Millisecond)
	sent, err = d.RequestLineFollower(10, 2, nil)
	require.NoError(t, err)
	require.True(t, sent)
}

func TestDriverActions(t *testing.T) {
	d, sim := newTestDriver(t)
	require.NoError(t, d.SetDifferentialDrive(60, 140))
	require.NoError(t, d.SetOnboardRGBLED(0, 253, 172, 10))
	require.NoError(t, d.Buzz(123, 250*time.Millisecond))
	require.NoError(t, d.SetMotor(9, 100))
	require.NoError(t, d.SetServo(1, 1, 90))
	require.NoError(t, d.SetSevenSegment(4, 1.5))
	require.NoError(t, d.SendIR("hi"))

	pkts := sim.Packets()
	require.Len(t, pkts, 7)
	require.Equal(t, protocol.Move(60, 140).Bytes(), pkts[0].Bytes())
	require.Equal(t, protocol.RGBLED(7, 2, 0, 253, 172, 10).Bytes(), pkts[1].Bytes())
	require.Equal(t, protocol.Buzzer(123, 250).Bytes(), pkts[2].Bytes())
	require.Equal(t, protocol.OpMotor, pkts[3].Opcode)
	require.Equal(t, protocol.OpServo, pkts[4].Opcode)
	require.Equal(t, protocol.OpSevenSegment, pkts[5].Opcode)
	require.Equal(t, protocol.OpIR, pkts[6].Opcode)
}

func TestDriverFatalReadError(t *testing.T) {
	d, sim := newTestDriver(t)
	require.True(t, d.IsAlive())
	failure := errors.New("cable unplugged")
	sim.FailRead(failure)
	require.Eventually(t, func() bool { return !d.IsAlive() }, time.Second, time.Millisecond)
	require.ErrorIs(t, d.Err(), failure)

	require.NoError(t, d.Connect(context.Background()))
	require.True(t, d.IsAlive())
	require.NoError(t, d.Err())
}

func TestDriverDisconnect(t *testing.T) {
	d, _ := newTestDriver(t)
	require.NoError(t, d.Disconnect())
	require.False(t, d.IsAlive())
	require.NoError(t, d.Err(), "errors while stopping are suppressed")
	require.ErrorIs(t, d.SetDifferentialDrive(0, 0), ErrLinkUnavailable)

	sent, err := d.RequestOnboardButton(40, nil)
	require.ErrorIs(t, err, ErrLinkUnavailable)
	require.False(t, sent)
	require.Zero(t, d.PendingRequests())
	require.NoError(t, d.Disconnect())
}

// stuckLink blocks reads until released, ignoring Close.
type stuckLink struct {
	release chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func (l *stuckLink) Read(p []byte) (int, error) {
	<-l.release
	return 0, io.EOF
}

func (l *stuckLink) Write(p []byte) (int, error) { return len(p), nil }
func (l *stuckLink) IsOpen() bool                { return true }

func (l *stuckLink) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func TestDriverDisconnectAbandonsStuckReader(t *testing.T) {
	l := &stuckLink{release: make(chan struct{}), closed: make(chan struct{})}
	defer close(l.release)
	d := NewDriver(link.DialFunc(func(context.Context) (link.Link, error) { return l, nil }))
	d.JoinTimeout = 20 * time.Millisecond
	require.NoError(t, d.Connect(context.Background()))
	require.True(t, d.IsAlive())

	start := time.Now()
	require.NoError(t, d.Disconnect())
	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, d.JoinTimeout)
	require.Less(t, elapsed, 10*d.JoinTimeout)
	require.False(t, d.IsAlive())
	select {
	case <-l.closed:
	default:
		t.Fatal("link not closed")
	}
	require.ErrorIs(t, d.SetDifferentialDrive(0, 0), ErrLinkUnavailable)
}

func TestDriverConnectFailure(t *testing.T) {
	sim := link.NewSim()
	sim.FailDial(errors.New("no such port"))
	d := NewDriver(sim)
	require.ErrorIs(t, d.Connect(context.Background()), ErrLinkUnavailable)
	require.False(t, d.IsAlive())
}

func TestSensorsUpdater(t *testing.T) {
	var s Sensors
	require.False(t, s.Snapshot().Distance.Valid)
	s.Updater(SensorDistance)(protocol.FloatValue(42))
	s.Updater(SensorLight)(protocol.StringValue("ignored"))
	snapshot := s.Snapshot()
	require.True(t, snapshot.Distance.Valid)
	require.Equal(t, 42.0, snapshot.Get(SensorDistance).Value)
	require.False(t, snapshot.Get(SensorLight).Valid)
	require.Equal(t, "line_follower", SensorLineFollower.String())
}
