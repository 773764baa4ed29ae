package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/host/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/draad/"
)

func init() {
	if val := os.Getenv("DRAAD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub(mqtt.MetaFilter, func(topic string, payload []byte) {
		log.Printf("%s: %s", topic, strings.TrimSpace(string(payload)))
	})
	mqtt.SubReports(q, func(id string, r host.Report) {
		log.Printf("%s ch%d: %s", id, r.Channel, r)
	})
	<-(chan struct{})(nil)
}
