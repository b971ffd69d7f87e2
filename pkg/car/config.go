package car

import (
	"flag"
	"time"

	"github.com/robotalks/mbot.go/pkg/input"
	"github.com/robotalks/mbot.go/pkg/mbot"
)

// Config defines the driving behavior.
type Config struct {
	// Rate is the number of ticks per second.
	Rate             float64
	UltrasonicPort   int
	LineFollowerPort int
	DistanceMin      float64
	DistanceMax      float64
	VelocityMin      float64
	VelocityMax      float64
	Curve            float64
	LightThreshold   float64
	HeadlightHold    time.Duration
	HornInterval     time.Duration
	ReconnectBackoff time.Duration
}

// DefaultInterval is used when Rate is not positive.
const DefaultInterval = 50 * time.Millisecond

var defaultConfig = Config{
	Rate:             20,
	UltrasonicPort:   3,
	DistanceMin:      5,
	DistanceMax:      20,
	VelocityMin:      75,
	VelocityMax:      150,
	Curve:            2.5,
	LightThreshold:   200,
	HeadlightHold:    30 * time.Second,
	HornInterval:     500 * time.Millisecond,
	ReconnectBackoff: time.Second,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.Rate, "rate", defaultConfig.Rate, "Control loop ticks per second.")
	flag.IntVar(&defaultConfig.UltrasonicPort, "ultrasonic-port", defaultConfig.UltrasonicPort, "Port of the ultrasonic sensor.")
	flag.IntVar(&defaultConfig.LineFollowerPort, "line-follower-port", defaultConfig.LineFollowerPort, "Port of the line follower, 0 if not attached.")
	flag.Float64Var(&defaultConfig.DistanceMin, "distance-min", defaultConfig.DistanceMin, "Obstacle distance (cm) stopping forward motion.")
	flag.Float64Var(&defaultConfig.DistanceMax, "distance-max", defaultConfig.DistanceMax, "Obstacle distance (cm) starting to slow down.")
	flag.Float64Var(&defaultConfig.VelocityMin, "velocity-min", defaultConfig.VelocityMin, "Speed at the minimum distance.")
	flag.Float64Var(&defaultConfig.VelocityMax, "velocity-max", defaultConfig.VelocityMax, "Speed without obstacles.")
	flag.Float64Var(&defaultConfig.Curve, "curve", defaultConfig.Curve, "Steering sharpness, larger turns less.")
	flag.Float64Var(&defaultConfig.LightThreshold, "light-threshold", defaultConfig.LightThreshold, "Light reading below which headlights turn on.")
	flag.DurationVar(&defaultConfig.HeadlightHold, "headlight-hold", defaultConfig.HeadlightHold, "Minimum time headlights stay on.")
	flag.DurationVar(&defaultConfig.HornInterval, "horn-interval", defaultConfig.HornInterval, "Minimum time between horns.")
	flag.DurationVar(&defaultConfig.ReconnectBackoff, "reconnect-backoff", defaultConfig.ReconnectBackoff, "Wait after a failed connect.")
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

// Interval returns the time between ticks.
func (c *Config) Interval() time.Duration {
	if c.Rate <= 0 {
		return DefaultInterval
	}
	return time.Duration(float64(time.Second) / c.Rate)
}

// NewController creates a Controller using the config.
func (c *Config) NewController(robot Robot, source input.Source, sensors *mbot.Sensors) *Controller {
	return &Controller{
		Config:  *c,
		Robot:   robot,
		Source:  source,
		Sensors: sensors,
	}
}
