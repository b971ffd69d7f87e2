package mbot

import (
	"sync"
	"time"

	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// Sensor identifies a polled sensor.
type Sensor int

// Sensors
const (
	SensorDistance Sensor = iota
	SensorLight
	SensorButton
	SensorLineFollower
	numSensors
)

var sensorNames = [numSensors]string{"distance", "light", "button", "line_follower"}

// String implements fmt.Stringer.
func (s Sensor) String() string {
	if s >= 0 && s < numSensors {
		return sensorNames[s]
	}
	return "unknown"
}

// Reading is the last known value of a sensor.
type Reading struct {
	Value     float64
	Valid     bool
	UpdatedAt time.Time
}

// Snapshot is a copy of all readings.
type Snapshot struct {
	Distance     Reading
	Light        Reading
	Button       Reading
	LineFollower Reading
}

// Get returns the reading of a sensor.
func (s *Snapshot) Get(sensor Sensor) Reading {
	if r := s.ref(sensor); r != nil {
		return *r
	}
	return Reading{}
}

func (s *Snapshot) ref(sensor Sensor) *Reading {
	switch sensor {
	case SensorDistance:
		return &s.Distance
	case SensorLight:
		return &s.Light
	case SensorButton:
		return &s.Button
	case SensorLineFollower:
		return &s.LineFollower
	}
	return nil
}

// Sensors holds the latest readings, updated asynchronously by
// responses and read by the control loop.
type Sensors struct {
	lock     sync.RWMutex
	snapshot Snapshot
}

// Snapshot returns a copy of the current readings.
func (s *Sensors) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshot
}

// Set updates a reading.
func (s *Sensors) Set(sensor Sensor, value float64, at time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if r := s.snapshot.ref(sensor); r != nil {
		*r = Reading{Value: value, Valid: true, UpdatedAt: at}
	}
}

// Updater returns a Callback updating sensor with numeric responses.
func (s *Sensors) Updater(sensor Sensor) Callback {
	return func(v protocol.Value) {
		if v.IsNumeric() {
			s.Set(sensor, v.Float(), time.Now())
		}
	}
}
