// Package sim assembles a complete simulated draad network: a hub with
// its two masters, two satellites, and the lines between them, all
// running on a virtual clock. The host side talks to it through the
// hub link as if it were the real hub.
package sim

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/draad/pkg/framework"
	"github.com/robotalks/draad/pkg/hub"
	"github.com/robotalks/draad/pkg/irq"
	"github.com/robotalks/draad/pkg/satellite"
	"github.com/robotalks/draad/pkg/wire"
	wiresim "github.com/robotalks/draad/pkg/wire/sim"
)

// Satellite firmwares.
const (
	FirmwareStatus = "status"
	FirmwareEcho   = "echo"
)

// Config describes a simulated network.
type Config struct {
	// Binding selects the hub link, hub.BindingBit or hub.BindingByte.
	Binding  string        `yaml:"binding"`
	Quantum  time.Duration `yaml:"quantum"`
	Pulldown time.Duration `yaml:"pulldown"`
	// Scale is the wall time spent per unit of virtual time,
	// 0 runs as fast as possible.
	Scale    float64 `yaml:"scale"`
	Firmware string  `yaml:"firmware"`
	// Satellites are the initial status reports.
	Satellites [hub.NumChannels]satellite.Status `yaml:"satellites"`
}

var defaultConfig = Config{
	Binding:  hub.BindingByte,
	Quantum:  wire.DefaultQuantum,
	Pulldown: wire.DefaultPulldown,
	Scale:    1,
	Firmware: FirmwareStatus,
	Satellites: [hub.NumChannels]satellite.Status{
		{Temperature: 512, OK: true, Heating: true},
		{Temperature: 300, OK: true},
	},
}

func init() {
	if val := os.Getenv("DRAAD_SIM_BINDING"); val != "" {
		defaultConfig.Binding = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Binding, "binding", defaultConfig.Binding, "Hub link binding: byte or bit")
	flag.DurationVar(&defaultConfig.Quantum, "quantum", defaultConfig.Quantum, "Wire time quantum")
	flag.DurationVar(&defaultConfig.Pulldown, "pulldown", defaultConfig.Pulldown, "Wire pull-down time")
	flag.Float64Var(&defaultConfig.Scale, "scale", defaultConfig.Scale, "Wall time per virtual time, 0 for full speed")
	flag.StringVar(&defaultConfig.Firmware, "firmware", defaultConfig.Firmware, "Satellite firmware: status or echo")
	for n := range defaultConfig.Satellites {
		flag.Var(tempFlag{&defaultConfig.Satellites[n]}, fmt.Sprintf("temp%d", n),
			fmt.Sprintf("Raw temperature reading of satellite %d", n))
	}
}

type tempFlag struct {
	status *satellite.Status
}

func (f tempFlag) String() string {
	if f.status == nil {
		return "0"
	}
	return fmt.Sprint(f.status.Temperature)
}

func (f tempFlag) Set(s string) error {
	var v uint16
	if _, err := fmt.Sscan(s, &v); err != nil {
		return err
	}
	if v > satellite.TemperatureMax {
		return fmt.Errorf("temperature reading %d exceeds %d", v, satellite.TemperatureMax)
	}
	f.status.Temperature = v
	return nil
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Network is a simulated hub with two satellites.
type Network struct {
	Clock      *wiresim.Clock
	Lines      [hub.NumChannels]*wiresim.Line
	Hub        *hub.Hub
	Sources    [hub.NumChannels]*satellite.Fixed
	Satellites [hub.NumChannels]fx.Runnable

	hubProc *wiresim.Proc
	procs   [hub.NumChannels]*wiresim.Proc
}

// NewNetwork creates the network described by the config.
func (c *Config) NewNetwork() (*Network, error) {
	timing := wire.TimingFor(c.Quantum, c.Pulldown)
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	var mask irq.Mask
	link, err := hub.NewLink(c.Binding, &mask)
	if err != nil {
		return nil, err
	}
	n := &Network{Clock: wiresim.NewClock().WithScale(c.Scale)}
	n.hubProc = n.Clock.Join()
	var masters [hub.NumChannels]*wire.Master
	for ch := range masters {
		n.Lines[ch] = wiresim.NewLine(n.Clock, timing.Pulldown)
		masters[ch] = wire.NewMaster(n.Lines[ch].Pin(), n.hubProc, timing)
		n.procs[ch] = n.Clock.Join()
		switch c.Firmware {
		case FirmwareStatus:
			n.Sources[ch] = satellite.NewFixed(c.Satellites[ch])
			n.Satellites[ch] = satellite.New(n.Lines[ch].Pin(), n.procs[ch], timing, n.Sources[ch]).
				WithName(fmt.Sprintf("sim-%d", ch))
		case FirmwareEcho:
			n.Satellites[ch] = wire.NewSlave(n.Lines[ch].Pin(), n.procs[ch], timing, wire.Echo())
		default:
			n.Clock.Close()
			return nil, fmt.Errorf("unknown firmware %q", c.Firmware)
		}
	}
	n.Hub = hub.New(&mask, link, masters)
	return n, nil
}

// MustNewNetwork creates the network and fails on error.
func (c *Config) MustNewNetwork() *Network {
	n, err := c.NewNetwork()
	if err != nil {
		glog.Exit(err)
	}
	return n
}

// Exchange implements host.Exchanger.
func (n *Network) Exchange(tx []byte) []byte {
	return n.Hub.Link.Exchange(tx)
}

// Run runs the hub and satellites until ctx is done. A Network can only
// run once.
func (n *Network) Run(ctx context.Context) error {
	defer n.Clock.Close()
	runner := fx.NewRunnerWith(ctx)
	runner.Go(fx.NamedRun("hub", fx.RunnableFunc(func(ctx context.Context) error {
		defer n.hubProc.Leave()
		return n.Hub.Run(ctx)
	})))
	for ch, sat := range n.Satellites {
		proc, sat := n.procs[ch], sat
		runner.Go(fx.NamedRun(fmt.Sprintf("satellite-%d", ch), fx.RunnableFunc(func(ctx context.Context) error {
			defer proc.Leave()
			return sat.Run(ctx)
		})))
	}
	return runner.Wait()
}
