package mqtt

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/satellite"
)

// ReportMsg is the wire form of a host.Report.
type ReportMsg struct {
	Channel          uint32  `protobuf:"varint,1,opt,name=channel,proto3" json:"channel,omitempty"`
	TimeUnixNano     int64   `protobuf:"varint,2,opt,name=time_unix_nano,json=timeUnixNano,proto3" json:"time_unix_nano,omitempty"`
	TempCount        uint32  `protobuf:"varint,3,opt,name=temp_count,json=tempCount,proto3" json:"temp_count,omitempty"`
	TempC            float64 `protobuf:"fixed64,4,opt,name=temp_c,json=tempC,proto3" json:"temp_c,omitempty"`
	Heating          bool    `protobuf:"varint,5,opt,name=heating,proto3" json:"heating,omitempty"`
	Ok               bool    `protobuf:"varint,6,opt,name=ok,proto3" json:"ok,omitempty"`
	TooCold          bool    `protobuf:"varint,7,opt,name=too_cold,json=tooCold,proto3" json:"too_cold,omitempty"`
	TooHot           bool    `protobuf:"varint,8,opt,name=too_hot,json=tooHot,proto3" json:"too_hot,omitempty"`
	PeerUnresponsive bool    `protobuf:"varint,9,opt,name=peer_unresponsive,json=peerUnresponsive,proto3" json:"peer_unresponsive,omitempty"`
	RawBits          uint32  `protobuf:"varint,10,opt,name=raw_bits,json=rawBits,proto3" json:"raw_bits,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *ReportMsg) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ReportMsg) Reset() { *m = ReportMsg{} }

// String implements proto.Message.
func (m *ReportMsg) String() string { return proto.CompactTextString(m) }

// NewReportMsg converts a report.
func NewReportMsg(r host.Report) *ReportMsg {
	return &ReportMsg{
		Channel:          uint32(r.Channel),
		TimeUnixNano:     r.Time.UnixNano(),
		TempCount:        uint32(r.Status.Temperature),
		TempC:            r.TempC,
		Heating:          r.Status.Heating,
		Ok:               r.Status.OK,
		TooCold:          r.Status.TooCold,
		TooHot:           r.Status.TooHot,
		PeerUnresponsive: r.Status.PeerUnresponsive,
		RawBits:          r.Frame.Bits,
	}
}

// Report converts the message back.
func (m *ReportMsg) Report() host.Report {
	ch := int(m.Channel)
	return host.Report{
		Time:    time.Unix(0, m.TimeUnixNano),
		Channel: ch,
		Status: satellite.Status{
			Temperature:      uint16(m.TempCount),
			Heating:          m.Heating,
			OK:               m.Ok,
			TooCold:          m.TooCold,
			TooHot:           m.TooHot,
			PeerUnresponsive: m.PeerUnresponsive,
		},
		TempC: m.TempC,
		Frame: frame.New(ch, m.RawBits, satellite.StatusBits),
	}
}
