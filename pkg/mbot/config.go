package mbot

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/mbot.go/pkg/mbot/link"
)

// Config defines the connection to the robot.
type Config struct {
	// Port is a serial port name, "auto", a ws:// URL of a serial
	// bridge, "hid[:VID:PID]" for the wireless dongle, or "sim" for a
	// simulated robot.
	Port              string
	BaudRate          int
	WriteInterval     time.Duration
	JoinTimeout       time.Duration
	RequestExpiration time.Duration
}

var defaultConfig = Config{
	Port:              link.PortAuto,
	BaudRate:          link.DefaultBaudRate,
	WriteInterval:     DefaultWriteInterval,
	JoinTimeout:       DefaultJoinTimeout,
	RequestExpiration: DefaultRequestExpiration,
}

func init() {
	if val := os.Getenv("MBOT_PORT"); val != "" {
		defaultConfig.Port = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port, \"auto\", ws:// bridge URL, \"hid\" or \"sim\".")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.WriteInterval, "write-interval", defaultConfig.WriteInterval, "Pause after each packet written.")
	flag.DurationVar(&defaultConfig.JoinTimeout, "join-timeout", defaultConfig.JoinTimeout, "Maximum wait for the reader on disconnect.")
	flag.DurationVar(&defaultConfig.RequestExpiration, "request-expiration", defaultConfig.RequestExpiration, "Pending sensor request expiration, 0 never expires.")
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

// NewDriver creates a Driver using the config.
func (c *Config) NewDriver() *Driver {
	d := NewDriver(link.NewDialer(c.Port, c.BaudRate))
	d.WriteInterval = c.WriteInterval
	d.JoinTimeout = c.JoinTimeout
	d.RequestExpiration = c.RequestExpiration
	return d
}
