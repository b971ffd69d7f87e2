package sh

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mbot.go/pkg/mbot"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// ParseInts parses args named by names, all required.
func ParseInts(args []string, names ...string) ([]int, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%s required", strings.Join(names[len(args):], " "))
	}
	vals := make([]int, len(names))
	for n, name := range names {
		val, err := strconv.Atoi(args[n])
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", name, err)
		}
		vals[n] = val
	}
	return vals, nil
}

// ParseBytes parses args named by names into bytes.
func ParseBytes(args []string, names ...string) ([]byte, error) {
	vals, err := ParseInts(args, names...)
	if err != nil {
		return nil, err
	}
	bytes := make([]byte, len(vals))
	for n, val := range vals {
		if val < 0 || val > 255 {
			return nil, fmt.Errorf("invalid %s: %d out of range [0, 255]", names[n], val)
		}
		bytes[n] = byte(val)
	}
	return bytes, nil
}

func portArg(args []string, def byte) (byte, error) {
	if len(args) == 0 {
		return def, nil
	}
	vals, err := ParseBytes(args, "PORT")
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func actionFunc(fn func(c *ishell.Context, d *mbot.Driver) error) func(c *ishell.Context) {
	return MustBeConnected(func(c *ishell.Context) {
		if err := fn(c, ShellFrom(c).Driver); err != nil {
			c.Err(err)
			return
		}
		if !ShellFrom(c).OutputJSON {
			c.Println("OK")
		}
	})
}

type requestFunc func(d *mbot.Driver, id byte, args []string, cb mbot.Callback) (bool, error)

func requestCmd(name string, aliases []string, help string, fn requestFunc) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			v, err := s.Request(name, func(id byte, cb mbot.Callback) (bool, error) {
				return fn(s.Driver, id, c.Args, cb)
			})
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(s.FormatValue(name, v))
		}),
	}
}

var (
	// ConnectCmd connects the robot.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the robot.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StatusCmd shows the connection status.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: func(c *ishell.Context) {
			d := ShellFrom(c).Driver
			if d == nil {
				c.Println("not connected")
				return
			}
			c.Printf("alive=%v pending=%d", d.IsAlive(), d.PendingRequests())
			if err := d.Err(); err != nil {
				c.Printf(" error=%v", err)
			}
			c.Println()
		},
	}

	// MoveCmd runs both wheels.
	MoveCmd = ishell.Cmd{
		Name:    "move",
		Aliases: []string{"m"},
		Help:    "LEFT RIGHT (-255..255)",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			vals, err := ParseInts(c.Args, "LEFT", "RIGHT")
			if err != nil {
				return err
			}
			return d.SetDifferentialDrive(vals[0], vals[1])
		}),
	}

	// StopCmd stops the wheels and turns off the onboard LEDs.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			if err := d.SetDifferentialDrive(0, 0); err != nil {
				return err
			}
			return d.SetOnboardRGBLED(0, 0, 0, 0)
		}),
	}

	// MotorCmd runs a motor.
	MotorCmd = ishell.Cmd{
		Name: "motor",
		Help: "PORT SPEED (-255..255)",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			vals, err := ParseInts(c.Args, "PORT", "SPEED")
			if err != nil {
				return err
			}
			return d.SetMotor(byte(vals[0]), vals[1])
		}),
	}

	// LEDCmd sets the onboard LEDs.
	LEDCmd = ishell.Cmd{
		Name: "led",
		Help: "[INDEX] R G B, INDEX 0 for both",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			args := c.Args
			if len(args) == 3 {
				args = append([]string{"0"}, args...)
			}
			vals, err := ParseBytes(args, "INDEX", "R", "G", "B")
			if err != nil {
				return err
			}
			return d.SetOnboardRGBLED(vals[0], vals[1], vals[2], vals[3])
		}),
	}

	// RGBLEDCmd sets an LED on an RGB LED module.
	RGBLEDCmd = ishell.Cmd{
		Name: "rgbled",
		Help: "PORT SLOT INDEX R G B",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			vals, err := ParseBytes(c.Args, "PORT", "SLOT", "INDEX", "R", "G", "B")
			if err != nil {
				return err
			}
			return d.SetRGBLED(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
		}),
	}

	// ServoCmd turns a servo.
	ServoCmd = ishell.Cmd{
		Name: "servo",
		Help: "PORT SLOT ANGLE",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			vals, err := ParseBytes(c.Args, "PORT", "SLOT", "ANGLE")
			if err != nil {
				return err
			}
			return d.SetServo(vals[0], vals[1], vals[2])
		}),
	}

	// BuzzCmd plays a tone.
	BuzzCmd = ishell.Cmd{
		Name:    "buzz",
		Aliases: []string{"b"},
		Help:    "FREQUENCY(Hz) [DURATION(e.g. 250ms)]",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			vals, err := ParseInts(c.Args, "FREQUENCY")
			if err != nil {
				return err
			}
			duration := 250 * time.Millisecond
			if len(c.Args) > 1 {
				if duration, err = time.ParseDuration(c.Args[1]); err != nil {
					return fmt.Errorf("invalid DURATION: %v", err)
				}
			}
			return d.Buzz(vals[0], duration)
		}),
	}

	// SevenSegmentCmd shows a number.
	SevenSegmentCmd = ishell.Cmd{
		Name:    "7seg",
		Aliases: []string{"seg"},
		Help:    "PORT VALUE",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			port, err := portArg(c.Args, 0)
			if err != nil {
				return err
			}
			if len(c.Args) < 2 {
				return fmt.Errorf("VALUE required")
			}
			val, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				return fmt.Errorf("invalid VALUE: %v", err)
			}
			return d.SetSevenSegment(port, float32(val))
		}),
	}

	// IRSendCmd sends an IR message.
	IRSendCmd = ishell.Cmd{
		Name: "ir.send",
		Help: "MESSAGE",
		Func: actionFunc(func(c *ishell.Context, d *mbot.Driver) error {
			if len(c.Args) == 0 {
				return fmt.Errorf("MESSAGE required")
			}
			return d.SendIR(strings.Join(c.Args, " "))
		}),
	}

	// DistanceCmd reads the ultrasonic sensor.
	DistanceCmd = requestCmd("distance", []string{"dist"}, "[PORT], default 3",
		func(d *mbot.Driver, id byte, args []string, cb mbot.Callback) (bool, error) {
			port, err := portArg(args, 3)
			if err != nil {
				return false, err
			}
			return d.RequestUltrasonicDistance(id, port, cb)
		})

	// LightCmd reads a light sensor.
	LightCmd = requestCmd("light", nil, "[PORT], default onboard",
		func(d *mbot.Driver, id byte, args []string, cb mbot.Callback) (bool, error) {
			port, err := portArg(args, protocol.PortOnboardLight)
			if err != nil {
				return false, err
			}
			return d.RequestLight(id, port, cb)
		})

	// ButtonCmd reads the onboard button, 0 when pressed.
	ButtonCmd = requestCmd("button", nil, "",
		func(d *mbot.Driver, id byte, args []string, cb mbot.Callback) (bool, error) {
			return d.RequestOnboardButton(id, cb)
		})

	// LineFollowerCmd reads a line follower.
	LineFollowerCmd = requestCmd("line", nil, "[PORT], default 2",
		func(d *mbot.Driver, id byte, args []string, cb mbot.Callback) (bool, error) {
			port, err := portArg(args, 2)
			if err != nil {
				return false, err
			}
			return d.RequestLineFollower(id, port, cb)
		})

	// IRReadCmd reads the last received IR message.
	IRReadCmd = requestCmd("ir.read", nil, "",
		func(d *mbot.Driver, id byte, args []string, cb mbot.Callback) (bool, error) {
			return d.RequestOnboardIR(id, cb)
		})
)

func init() {
	AddCmds(
		&ConnectCmd,
		&DisconnectCmd,
		&StatusCmd,
		&MoveCmd,
		&StopCmd,
		&MotorCmd,
		&LEDCmd,
		&RGBLEDCmd,
		&ServoCmd,
		&BuzzCmd,
		&SevenSegmentCmd,
		&IRSendCmd,
		&DistanceCmd,
		&LightCmd,
		&ButtonCmd,
		&LineFollowerCmd,
		&IRReadCmd,
	)
}
