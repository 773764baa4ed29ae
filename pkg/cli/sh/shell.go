// Package sh provides the interactive draad shell. Command packages add
// their commands with AddCmds in init.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/draad/pkg/env"
	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/host"
)

// MaxBacklog is the number of received frames kept for the recv command.
const MaxBacklog = 256

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is a running client connected to a hub.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	URL    string
	Client *host.Client

	lock    sync.Mutex
	backlog []frame.Frame
	dropped int
	arrival chan struct{}
	done    chan struct{}
	err     error
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
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
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

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
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Print prints v as JSON if requested, or in its string form.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(fmt.Sprint(v))
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect connects the hub at url.
func (s *Shell) Connect(url string) error {
	conf := *s.Config
	conf.HubURL = url
	client, err := conf.NewClient()
	if err != nil {
		return err
	}
	conn := &Conn{
		URL:     url,
		Client:  client,
		arrival: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	go conn.run()
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Disconnect disconnects the current hub.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (c *Conn) run() {
	defer close(c.done)
	go func() {
		for f := range c.Client.Frames() {
			c.lock.Lock()
			if len(c.backlog) >= MaxBacklog {
				c.backlog = c.backlog[1:]
				c.dropped++
			}
			c.backlog = append(c.backlog, f)
			c.lock.Unlock()
			select {
			case c.arrival <- struct{}{}:
			default:
			}
		}
	}()
	err := c.Client.Run(c.Ctx)
	c.Client.Transferer.Close()
	c.lock.Lock()
	if err != context.Canceled {
		c.err = err
	}
	c.lock.Unlock()
}

// Close stops the client.
func (c *Conn) Close() error {
	c.Cancel()
	<-c.done
	return c.Err()
}

// Err returns the error which stopped the client.
func (c *Conn) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

// Take removes and returns the received frames.
func (c *Conn) Take() []frame.Frame {
	c.lock.Lock()
	defer c.lock.Unlock()
	frames := c.backlog
	c.backlog = nil
	return frames
}

// Wait takes frames as they arrive until accept returns true or
// timeout. The accepted frames are returned.
func (c *Conn) Wait(timeout time.Duration, accept func([]frame.Frame) bool) ([]frame.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var frames []frame.Frame
	for {
		frames = append(frames, c.Take()...)
		if accept(frames) {
			return frames, nil
		}
		select {
		case <-c.arrival:
		case <-c.done:
			if err := c.Err(); err != nil {
				return frames, err
			}
			return frames, host.ErrClosed
		case <-timer.C:
			return frames, context.DeadlineExceeded
		}
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.HubURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.HubURL)
		}
		if err := s.Connect(s.Config.HubURL); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.HubURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a hub.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.HubURL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the hub.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	env.Parse()
	New(env.Default()).WithAutoConnect(true).Run(flag.Args()...)
}
