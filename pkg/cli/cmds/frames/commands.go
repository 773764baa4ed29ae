// Package frames provides shell commands exchanging raw frames with the
// hub.
package frames

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/draad/pkg/cli/sh"
	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/satellite"
)

// DefaultWatchDuration is used when watch is given no duration.
const DefaultWatchDuration = 5 * time.Second

func parseChannel(s string) (int, error) {
	ch, err := strconv.Atoi(s)
	if err != nil || ch < 0 || ch >= frame.NumChannels {
		return 0, fmt.Errorf("invalid CH %q", s)
	}
	return ch, nil
}

func printFrames(c *ishell.Context, frames []frame.Frame) {
	s := sh.ShellFrom(c)
	for _, f := range frames {
		if s.OutputJSON {
			s.Print(c, f)
		} else {
			s.Print(c, f.String())
		}
	}
}

// collectReport joins frames of ch until a full status arrives.
func collectReport(ch int) func([]frame.Frame) bool {
	return func(frames []frame.Frame) bool {
		n := 0
		for _, f := range frames {
			if f.Channel == ch {
				n += f.Length
			}
		}
		return n >= satellite.StatusBits
	}
}

var (
	// SendCmd sends a frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "CH BITS | BITS@CH",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var f frame.Frame
			var err error
			switch len(c.Args) {
			case 1:
				f, err = frame.Parse(c.Args[0])
			case 2:
				var ch int
				if ch, err = parseChannel(c.Args[0]); err == nil {
					f, err = frame.ParseBits(ch, c.Args[1])
				}
			default:
				err = fmt.Errorf("CH BITS required")
			}
			if err == nil {
				conn := sh.ShellFrom(c).Conn
				err = conn.Client.Send(conn.Ctx, f)
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// PokeCmd sends the 1-bit frame requesting a status report.
	PokeCmd = ishell.Cmd{
		Name:    "poke",
		Aliases: []string{"p"},
		Help:    "CH",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CH required"))
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err == nil {
				conn := sh.ShellFrom(c).Conn
				err = conn.Client.Send(conn.Ctx, frame.New(ch, 1, 1))
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// RecvCmd prints frames received so far.
	RecvCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			printFrames(c, sh.ShellFrom(c).Conn.Take())
		}),
	}

	// WatchCmd prints frames as they arrive.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			dur := DefaultWatchDuration
			if len(c.Args) > 0 {
				var err error
				if dur, err = time.ParseDuration(c.Args[0]); err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %v", err))
					return
				}
			}
			conn := sh.ShellFrom(c).Conn
			deadline := time.Now().Add(dur)
			for remaining := dur; remaining > 0; remaining = time.Until(deadline) {
				frames, err := conn.Wait(remaining, func(frames []frame.Frame) bool {
					return len(frames) > 0
				})
				printFrames(c, frames)
				if err != nil {
					if err != host.ErrClosed && err != context.DeadlineExceeded {
						c.Err(err)
					}
					return
				}
			}
		}),
	}

	// ReportCmd pokes a satellite and prints its report.
	ReportCmd = ishell.Cmd{
		Name:    "report",
		Aliases: []string{"rpt"},
		Help:    "CH",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CH required"))
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			conn := s.Conn
			conn.Take()
			if err := conn.Client.Send(conn.Ctx, frame.New(ch, 1, 1)); err != nil {
				c.Err(err)
				return
			}
			frames, err := conn.Wait(s.Config.Timeout, collectReport(ch))
			if err != nil {
				c.Err(&host.NoResponseError{Channel: ch})
				return
			}
			resp := frame.Frame{Channel: ch}
			for _, f := range frames {
				if f.Channel == ch {
					if resp, err = frame.Join(resp, f); err != nil {
						c.Err(err)
						return
					}
				}
			}
			report, err := host.DecodeReport(resp, s.Config.Temp, time.Now())
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.Print(c, report)
			} else {
				s.Print(c, report.String())
			}
		}),
	}

	// DecodeCmd decodes frames from hex encoded bytes in the hub layout.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			layout, err := s.Config.FrameLayout()
			if err != nil {
				c.Err(err)
				return
			}
			data, err := hex.DecodeString(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(err)
				return
			}
			r := frame.NewReader(bytes.NewReader(data), layout)
			for {
				f, err := r.Next()
				if err != nil {
					if err != io.EOF {
						c.Err(err)
					}
					return
				}
				printFrames(c, []frame.Frame{f})
			}
		},
	}
)

func init() {
	sh.AddCmds(&SendCmd, &PokeCmd, &RecvCmd, &WatchCmd, &ReportCmd, &DecodeCmd)
}
