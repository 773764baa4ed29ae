package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/draad/pkg/host"
)

// Topic layout under the queue prefix.
const (
	// ReportFilter matches report topics of all hosts and channels.
	ReportFilter = "+/+/report"
	// MetaFilter matches meta topics of all hosts.
	MetaFilter = "+/meta"
)

// ReportTopic returns the topic of reports from a channel of a host.
func ReportTopic(id string, ch int) string {
	return fmt.Sprintf("%s/ch%d/report", id, ch)
}

// MetaTopic returns the topic of the retained meta of a host.
func MetaTopic(id string) string {
	return id + "/meta"
}

// ParseReportTopic extracts the host ID and channel from a report topic.
func ParseReportTopic(topic string) (id string, ch int, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] != "report" || !strings.HasPrefix(parts[1], "ch") {
		return "", 0, fmt.Errorf("not a report topic: %q", topic)
	}
	if ch, err = strconv.Atoi(parts[1][2:]); err != nil {
		return "", 0, fmt.Errorf("invalid channel in %q", topic)
	}
	return parts[0], ch, nil
}

// Meta describes a reporting host.
type Meta struct {
	ID     string `json:"id"`
	Hub    string `json:"hub"`
	Layout string `json:"layout"`
}

// Publisher publishes reports of a host.
type Publisher struct {
	Queue *Queue
	Meta  Meta
}

// NewPublisher creates a Publisher.
func NewPublisher(q *Queue, meta Meta) *Publisher {
	return &Publisher{Queue: q, Meta: meta}
}

// Announce publishes the retained meta.
func (p *Publisher) Announce() error {
	data, err := json.Marshal(&p.Meta)
	if err != nil {
		return err
	}
	token := p.Queue.PubWith(MetaTopic(p.Meta.ID), data, 1, true)
	token.Wait()
	return token.Error()
}

// HandleReport implements host.ReportHandler.
func (p *Publisher) HandleReport(_ context.Context, r host.Report) error {
	data, err := proto.Marshal(NewReportMsg(r))
	if err != nil {
		return err
	}
	token := p.Queue.Pub(ReportTopic(p.Meta.ID, r.Channel), data)
	if glog.V(2) {
		glog.Infof("published %s", r)
	}
	token.Wait()
	return token.Error()
}

// ReportHandler receives reports published by any host.
type ReportHandler func(id string, r host.Report)

// SubReports subscribes to the reports of all hosts.
func SubReports(q *Queue, handler ReportHandler) *Subscription {
	return q.Sub(ReportFilter, func(topic string, payload []byte) {
		id, _, err := ParseReportTopic(topic)
		if err != nil {
			glog.Warning(err)
			return
		}
		var msg ReportMsg
		if err := proto.Unmarshal(payload, &msg); err != nil {
			glog.Warningf("%s: invalid report: %v", topic, err)
			return
		}
		handler(id, msg.Report())
	})
}
