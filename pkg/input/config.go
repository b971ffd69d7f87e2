package input

import (
	"flag"

	fx "github.com/robotalks/mbot.go/pkg/framework"
)

// Config defines the input source.
type Config struct {
	Joystick    bool
	DeviceIndex int
	Verbose     bool
}

var defaultConfig = Config{
	Joystick:    true,
	DeviceIndex: -1,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Joystick, "joystick", defaultConfig.Joystick, "Drive with a joystick, otherwise the robot stays still.")
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick-device", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "joystick-verbose", defaultConfig.Verbose, "Log joystick events.")
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

// NewJoystick creates a Joystick using the config.
func (c *Config) NewJoystick() *Joystick {
	js := NewJoystick()
	js.DeviceIndex = c.DeviceIndex
	js.Verbose = c.Verbose
	return js
}

// AddSource creates the configured Source and adds it to loop when it
// needs one.
func (c *Config) AddSource(loop *fx.Loop) Source {
	if !c.Joystick {
		return Idle
	}
	js := c.NewJoystick()
	loop.Add(js)
	return js
}
