package telemetry

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mbot.go/pkg/car"
	fx "github.com/robotalks/mbot.go/pkg/framework"
	"github.com/robotalks/mbot.go/pkg/mbot"
)

// DefaultHeartbeat is the longest time between two reports.
const DefaultHeartbeat = 5 * time.Second

// Transport publishes payloads, implemented by Queue.
type Transport interface {
	Pub(topic string, payload []byte) paho.Token
}

// Publisher reports sensor readings when they change.
type Publisher struct {
	Transport Transport
	RobotID   string
	Heartbeat time.Duration
	Sensors   *mbot.Sensors
	Robot     interface{ IsAlive() bool }
	// Car is optional, adding the committed drive state to reports.
	Car *car.Controller

	last     *SensorReport
	lastTime time.Time
	failing  bool
}

// Topic returns the topic reports are published to.
func (p *Publisher) Topic() string {
	return SensorsTopic(p.RobotID)
}

// SensorsTopic returns the sensors topic of robotID.
func SensorsTopic(robotID string) string {
	return "mbot/" + robotID + "/sensors"
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	if r, ok := p.Transport.(fx.Runnable); ok {
		loop.AddRunnable(r)
	}
	loop.AddController(fx.PrLvPostProc, p)
}

// Report builds the current report.
func (p *Publisher) Report(now time.Time) *SensorReport {
	report := &SensorReport{
		RobotID:   p.RobotID,
		Timestamp: now.UnixNano() / int64(time.Millisecond),
	}
	if p.Sensors != nil {
		report.SetSensors(p.Sensors.Snapshot())
	}
	if p.Robot != nil {
		report.Alive = p.Robot.IsAlive()
	}
	if p.Car != nil {
		state := p.Car.State()
		report.LeftSpeed, report.RightSpeed = int32(state.LeftSpeed), int32(state.RightSpeed)
		report.Headlights = state.Headlights
	}
	return report
}

// Control implements Controller.
func (p *Publisher) Control(cc fx.ControlContext) error {
	now := cc.Time()
	report := p.Report(now)
	heartbeat := p.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if report.SameAs(p.last) && now.Sub(p.lastTime) < heartbeat {
		return nil
	}
	payload, err := proto.Marshal(report)
	if err != nil {
		return err
	}
	// a failed report is retried on the next tick.
	if err := p.Transport.Pub(p.Topic(), payload).Error(); err != nil {
		if !p.failing {
			glog.Warningf("publish %s: %v", p.Topic(), err)
		}
		p.failing = true
		return nil
	}
	if p.failing {
		glog.Infof("publish %s recovered", p.Topic())
	}
	p.failing = false
	p.last, p.lastTime = report, now
	return nil
}

// ConnectRetry is the wait after a failed broker connect.
const ConnectRetry = 5 * time.Second

// Runner connects the Queue for the lifetime of the loop.
type Runner struct {
	*Queue
}

// Run implements Runnable.
func (r Runner) Run(ctx context.Context) error {
	var retry time.Duration
	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case <-time.After(retry):
		}
		token := r.Connect()
		errCh := make(chan error, 1)
		go func() {
			token.Wait()
			errCh <- token.Error()
		}()
		select {
		case <-ctx.Done():
			return r.Close()
		case err := <-errCh:
			if err == nil {
				<-ctx.Done()
				return r.Close()
			}
			glog.Warningf("mqtt connect: %v, retry in %v", err, ConnectRetry)
			retry = ConnectRetry
		}
	}
}
