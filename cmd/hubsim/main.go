package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/json"
	"flag"
	"net"
	"net/http"

	"github.com/golang/glog"

	fx "github.com/robotalks/draad/pkg/framework"
	"github.com/robotalks/draad/pkg/host/link"
	"github.com/robotalks/draad/pkg/host/link/stream"
	"github.com/robotalks/draad/pkg/host/link/websocket"
	"github.com/robotalks/draad/pkg/sim"
)

var (
	tcpAddr  = ":7281"
	httpAddr = ":7280"
)

func init() {
	sim.SetupFlags()
	flag.StringVar(&tcpAddr, "listen", tcpAddr, "TCP address serving the hub link, empty to disable")
	flag.StringVar(&httpAddr, "http", httpAddr, "HTTP address serving /link (websocket) and /status, empty to disable")
}

func serveHTTP(ctx context.Context, network *sim.Network) error {
	mux := http.NewServeMux()
	mux.Handle("/link", websocket.Handler(ctx, network))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(network.Hub.Snapshot())
	})
	srv := &http.Server{Addr: httpAddr, Handler: mux}
	glog.Infof("serving http on %s", httpAddr)
	err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func serveTCP(ctx context.Context, network *sim.Network) error {
	ln, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		return err
	}
	glog.Infof("serving link on %s", ln.Addr())
	return stream.Listen(ctx, ln, func(ctx context.Context, conn *stream.Conn) {
		if err := link.Serve(ctx, conn, network); err != nil && err != context.Canceled {
			glog.Warningf("link: %v", err)
		}
	})
}

func main() {
	flag.Parse()

	network := sim.Default().MustNewNetwork()
	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("network", network))
	if tcpAddr != "" {
		runner.Go(fx.NamedRun("tcp", fx.RunnableFunc(func(ctx context.Context) error {
			return serveTCP(ctx, network)
		})))
	}
	if httpAddr != "" {
		runner.Go(fx.NamedRun("http", fx.RunnableFunc(func(ctx context.Context) error {
			return serveHTTP(ctx, network)
		})))
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
