// Package sh provides an interactive console issuing driver verbs.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/mbot.go/pkg/mbot"
	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// DefaultTimeout is the wait for a sensor response.
const DefaultTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *mbot.Config
	Driver *mbot.Driver

	idLock sync.Mutex
	lastID byte
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *mbot.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if d := ShellFrom(c).Driver; d == nil || !d.IsAlive() {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect connects the robot on port, or the configured port if empty.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	if port != "" {
		conf.Port = port
	}
	d := conf.NewDriver()
	if err := d.Connect(context.Background()); err != nil {
		return err
	}
	s.Disconnect()
	s.Driver = d
	if s.Shell != nil {
		s.Shell.SetPrompt(fmt.Sprintf("%s > ", conf.Port))
	}
	return nil
}

// Disconnect disconnects the robot.
func (s *Shell) Disconnect() {
	if s.Driver == nil {
		return
	}
	if err := s.Driver.Disconnect(); err != nil {
		glog.Warningf("disconnect: %v", err)
	}
	s.Driver = nil
	if s.Shell != nil {
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// NextRequestID allocates a request id, never 0.
func (s *Shell) NextRequestID() byte {
	s.idLock.Lock()
	defer s.idLock.Unlock()
	s.lastID++
	if s.lastID == 0 {
		s.lastID = 1
	}
	return s.lastID
}

// Request sends a request and waits for the response.
func (s *Shell) Request(name string, send func(id byte, cb mbot.Callback) (bool, error)) (protocol.Value, error) {
	id := s.NextRequestID()
	ch := make(chan protocol.Value, 1)
	sent, err := send(id, func(v protocol.Value) { ch <- v })
	if err != nil {
		return protocol.Value{}, err
	}
	if !sent {
		return protocol.Value{}, fmt.Errorf("%s: request %d still pending", name, id)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	select {
	case v := <-ch:
		return v, nil
	case <-time.After(timeout):
		return protocol.Value{}, fmt.Errorf("%s: %w", name, context.DeadlineExceeded)
	}
}

// FormatValue formats a sensor value for display.
func (s *Shell) FormatValue(name string, v protocol.Value) string {
	if !s.OutputJSON {
		return fmt.Sprintf("%s %v", name, v)
	}
	out := map[string]interface{}{"sensor": name}
	if v.IsNumeric() {
		out["value"] = v.Float()
	} else {
		out["value"] = v.Text()
	}
	data, _ := json.Marshal(out)
	return string(data)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(""); err != nil {
			glog.Warningf("connect %q failed: %v", s.Config.Port, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(mbot.Default()).WithAutoConnect(true).Run(flag.Args()...)
}
