package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/hub"
	"github.com/robotalks/draad/pkg/satellite"
)

func startNetwork(t *testing.T, conf *Config) (*Network, func()) {
	n, err := conf.NewNetwork()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- n.Run(ctx)
	}()
	return n, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestNetworkReports(t *testing.T) {
	for _, binding := range []string{hub.BindingByte, hub.BindingBit} {
		t.Run(binding, func(t *testing.T) {
			conf := NewConfig()
			conf.Binding = binding
			conf.Scale = 0
			n, stop := startNetwork(t, conf)
			defer stop()
			n.Sources[1].Set(satellite.Status{Temperature: 301, TooCold: true})

			layout := n.Hub.Link.Layout()
			client := host.NewClient(host.LocalTransferer{Exchanger: n}, layout)
			client.PollInterval = time.Millisecond
			reporter := host.NewReporter(client)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go client.Run(ctx)
			go reporter.Run(ctx)

			seen := make(map[int]host.Report)
			for len(seen) < hub.NumChannels {
				select {
				case r := <-reporter.Reports():
					seen[r.Channel] = r
				case err := <-reporter.Errors():
					require.FailNow(t, err.Error())
				case <-time.After(10 * time.Second):
					require.FailNow(t, "report timeout")
				}
			}
			require.Equal(t, conf.Satellites[0], seen[0].Status)
			require.InDelta(t, 81.26, seen[0].TempC, 0.01)
			require.Equal(t, satellite.Status{Temperature: 301, TooCold: true}, seen[1].Status)
			require.Equal(t, hub.Status(0), n.Hub.Status())
		})
	}
}

func TestNetworkEcho(t *testing.T) {
	conf := NewConfig()
	conf.Scale = 0
	conf.Firmware = FirmwareEcho
	n, stop := startNetwork(t, conf)
	defer stop()

	layout := n.Hub.Link.Layout()
	client := host.NewClient(host.LocalTransferer{Exchanger: n}, layout)
	client.PollInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	sent := frame.New(1, 0x5a3, 12)
	require.NoError(t, client.Send(ctx, sent))
	var echoed frame.Frame
	for echoed.Length < sent.Length {
		select {
		case f := <-client.Frames():
			require.Equal(t, 1, f.Channel)
			var err error
			echoed, err = frame.Join(echoed, f)
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			require.FailNow(t, "echo timeout")
		}
	}
	require.Equal(t, sent, echoed)
}

func TestConfigErrors(t *testing.T) {
	conf := NewConfig()
	conf.Binding = "serial"
	_, err := conf.NewNetwork()
	require.Error(t, err)

	conf = NewConfig()
	conf.Firmware = "blink"
	_, err = conf.NewNetwork()
	require.Error(t, err)

	conf = NewConfig()
	conf.Quantum = conf.Pulldown
	_, err = conf.NewNetwork()
	require.Error(t, err)

	conf = NewConfig()
	conf.Pulldown = 25 * time.Microsecond
	_, err = conf.NewNetwork()
	require.Error(t, err)
}

func TestTempFlag(t *testing.T) {
	var s satellite.Status
	f := tempFlag{&s}
	require.NoError(t, f.Set("700"))
	require.EqualValues(t, 700, s.Temperature)
	require.Equal(t, "700", f.String())
	require.Error(t, f.Set("1024"))
	require.Error(t, f.Set("hot"))
}
