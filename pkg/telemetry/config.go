package telemetry

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/mbot.go/pkg/car"
	"github.com/robotalks/mbot.go/pkg/mbot"
)

// Config defines the telemetry exporter.
type Config struct {
	// MQTTURL is the broker URL, telemetry is disabled when empty.
	MQTTURL   string
	RobotID   string
	Heartbeat time.Duration
}

var defaultConfig = Config{
	Heartbeat: DefaultHeartbeat,
}

func init() {
	if val := os.Getenv("MBOT_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL for telemetry, e.g. mqtt://localhost:1883/robo/.")
	flag.StringVar(&defaultConfig.RobotID, "robot-id", defaultConfig.RobotID, "Robot id in telemetry topics, defaults to the machine id.")
	flag.DurationVar(&defaultConfig.Heartbeat, "telemetry-heartbeat", defaultConfig.Heartbeat, "Longest time between two reports.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Enabled indicates a broker is configured.
func (c *Config) Enabled() bool {
	return c.MQTTURL != ""
}

// MachineID retrieves the id identifying this machine, used as the
// default robot id.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID("mbot")
	if err != nil {
		return "", fmt.Errorf("machine id: %w", err)
	}
	return id[:12], nil
}

// NewPublisher creates a Publisher connected through a Queue.
func (c *Config) NewPublisher(sensors *mbot.Sensors, robot *mbot.Driver, ctl *car.Controller) (*Publisher, error) {
	q, err := NewQueueFromURL(c.MQTTURL)
	if err != nil {
		return nil, fmt.Errorf("mqtt url %q: %w", c.MQTTURL, err)
	}
	robotID := c.RobotID
	if robotID == "" {
		if robotID, err = MachineID(); err != nil {
			return nil, err
		}
	}
	return &Publisher{
		Transport: Runner{Queue: q},
		RobotID:   robotID,
		Heartbeat: c.Heartbeat,
		Sensors:   sensors,
		Robot:     robot,
		Car:       ctl,
	}, nil
}
