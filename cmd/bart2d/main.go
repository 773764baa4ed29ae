package main

//go-build: CGO_ENABLED=0

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/env"
	fx "github.com/robotalks/draad/pkg/framework"
	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/host/mqtt"
)

func init() {
	env.SetupFlags()
}

func logReport(_ context.Context, r host.Report) error {
	glog.Infof("ch%d %s", r.Channel, r)
	return nil
}

func main() {
	env.Parse()
	conf := env.Default()

	client := conf.MustNewClient()
	defer client.Transferer.Close()
	reporter := conf.NewReporter(client)
	handlers := []host.ReportHandler{host.HandleReportFunc(logReport)}

	if conf.ReportDir != "" {
		dumper, err := host.NewDumper(conf.ReportDir)
		if err != nil {
			glog.Exitf("report dir: %v", err)
		}
		defer dumper.Close()
		handlers = append(handlers, dumper)
	}

	if conf.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL)
		if err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		if err := q.Connect(); err != nil {
			glog.Exitf("mqtt connect: %v", err)
		}
		defer q.Close()
		pub := mqtt.NewPublisher(q, mqtt.Meta{ID: conf.HostID(), Hub: conf.HubURL, Layout: conf.Layout})
		if err := pub.Announce(); err != nil {
			glog.Warningf("mqtt announce: %v", err)
		}
		handlers = append(handlers, pub)
	}

	err := fx.NewRunner().HandleSignals().Go(
		fx.NamedRun("client", client),
		fx.NamedRun("reporter", reporter),
		fx.NamedRun("dispatcher", host.NewDispatcher(reporter, handlers...)),
	).Wait()
	if err != nil {
		glog.Error(err)
	}
}
