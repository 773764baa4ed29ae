// Package env builds the host side environment of the draad tools from
// flags, environment variables and YAML config files.
package env

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/host/link"
	"github.com/robotalks/draad/pkg/host/link/stream"
	"github.com/robotalks/draad/pkg/host/link/websocket"
)

// Config provides common options to connect a hub and report.
type Config struct {
	// HubURL specifies how the hub is reached, e.g.
	// spidev:///dev/spidev0.0, tcp://host:7281 or ws://host:7280/link.
	HubURL string `yaml:"hub"`
	// Layout is the frame header layout of the hub, "msb" for the
	// byte binding, "lsb" for the bit binding.
	Layout       string        `yaml:"layout"`
	PollInterval time.Duration `yaml:"poll-interval"`
	TransferSize int           `yaml:"transfer-size"`
	// Timeout is how long a satellite may take to respond.
	Timeout time.Duration `yaml:"timeout"`
	// ReportDir receives the daily CSV reports, disabled if empty.
	ReportDir string `yaml:"report-dir"`
	// MQTTURL specifies the broker reports are published to, e.g.
	// mqtt://host:1883/draad/. Disabled if empty.
	MQTTURL string `yaml:"mqtt"`
	// ID identifies the host in MQTT topics, the machine ID by default.
	ID string `yaml:"id"`

	SPI  host.SPIConfig `yaml:"spi"`
	Temp host.TempModel `yaml:"temp"`
}

var defaultConfig = Config{
	HubURL:       "spidev:///dev/spidev0.0",
	Layout:       "msb",
	PollInterval: host.DefaultPollInterval,
	TransferSize: host.DefaultTransferSize,
	Timeout:      host.DefaultResponseTimeout,
	SPI:          host.DefaultSPIConfig(),
	Temp:         host.DefaultTempModel(),
}

func init() {
	if home, err := os.UserHomeDir(); err == nil {
		defaultConfig.ReportDir = filepath.Join(home, ".bart2d", "reports")
	}
	if val := os.Getenv("DRAAD_HUB_URL"); val != "" {
		defaultConfig.HubURL = val
	}
	if val := os.Getenv("DRAAD_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("DRAAD_REPORT_DIR"); val != "" {
		defaultConfig.ReportDir = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.HubURL, "hub", defaultConfig.HubURL, "Hub URL: spidev:///dev/spidevB.C, tcp://host:port or ws://host:port/path")
	flag.StringVar(&defaultConfig.Layout, "layout", defaultConfig.Layout, "Frame layout of the hub: msb (byte hub) or lsb (bit hub)")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Hub polling interval")
	flag.IntVar(&defaultConfig.TransferSize, "transfer-size", defaultConfig.TransferSize, "Bytes per polling transfer")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Satellite response timeout")
	flag.StringVar(&defaultConfig.ReportDir, "report-dir", defaultConfig.ReportDir, "Directory of daily CSV reports")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Host ID, machine ID if empty")
	flag.StringVar(&configFile, "config", configFile, "YAML config file")
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

// FrameLayout parses Layout.
func (c *Config) FrameLayout() (frame.Layout, error) {
	return frame.ParseLayout(c.Layout)
}

// HostID returns ID or the machine ID.
func (c *Config) HostID() string {
	if c.ID != "" {
		return c.ID
	}
	return MachineID()
}

// Dial connects to the hub.
func (c *Config) Dial() (host.Transferer, error) {
	u, err := url.Parse(c.HubURL)
	if err != nil {
		return nil, fmt.Errorf("invalid hub URL: %v", err)
	}
	switch u.Scheme {
	case "spidev", "spi":
		layout, err := c.FrameLayout()
		if err != nil {
			return nil, err
		}
		spi := c.SPI
		if u.Path != "" {
			spi.Device = u.Path
		}
		spi.LSBFirst = layout == frame.LayoutLSB
		return host.OpenSPI(spi)
	case "tcp":
		conn, err := stream.Dial(u.Host)
		if err != nil {
			return nil, err
		}
		return link.NewTransferer(conn), nil
	case "ws", "wss":
		conn, err := websocket.Dial(c.HubURL)
		if err != nil {
			return nil, err
		}
		return link.NewTransferer(conn), nil
	default:
		return nil, fmt.Errorf("unknown hub URL scheme: %q", u.Scheme)
	}
}

// MustDial connects to the hub and fails on error.
func (c *Config) MustDial() host.Transferer {
	t, err := c.Dial()
	if err != nil {
		log.Fatalln(err)
	}
	return t
}

// NewClient dials the hub and creates a host.Client.
func (c *Config) NewClient() (*host.Client, error) {
	layout, err := c.FrameLayout()
	if err != nil {
		return nil, err
	}
	t, err := c.Dial()
	if err != nil {
		return nil, err
	}
	client := host.NewClient(t, layout)
	if c.PollInterval > 0 {
		client.PollInterval = c.PollInterval
	}
	if c.TransferSize > 0 {
		client.TransferSize = c.TransferSize
	}
	return client, nil
}

// MustNewClient creates a host.Client and fails on error.
func (c *Config) MustNewClient() *host.Client {
	client, err := c.NewClient()
	if err != nil {
		log.Fatalln(err)
	}
	return client
}

// NewReporter creates a host.Reporter on client.
func (c *Config) NewReporter(client *host.Client) *host.Reporter {
	r := host.NewReporter(client)
	r.Model = c.Temp
	if c.Timeout > 0 {
		r.Timeout = c.Timeout
	}
	return r
}
