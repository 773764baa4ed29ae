package host

import (
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/satellite"
)

// TimeLayout formats report times in records.
const TimeLayout = "15:04:05.0"

// Report is a decoded satellite status report.
type Report struct {
	Time    time.Time
	Channel int
	Status  satellite.Status
	TempC   float64
	Frame   frame.Frame
}

// DecodeReport decodes a status frame.
func DecodeReport(f frame.Frame, m TempModel, t time.Time) (Report, error) {
	if f.Length != satellite.StatusBits {
		return Report{}, &SizeError{Channel: f.Channel, Length: f.Length}
	}
	status := satellite.Unpack(uint16(f.Bits))
	return Report{
		Time:    t,
		Channel: f.Channel,
		Status:  status,
		TempC:   m.TempC(status.Temperature),
		Frame:   f,
	}, nil
}

// Record formats the report as a CSV record: temperature, time, channel,
// raw reading, then the names of the flags which are set.
func (r Report) Record() []string {
	rec := []string{
		strconv.FormatFloat(r.TempC, 'f', 1, 64),
		r.Time.Format(TimeLayout),
		strconv.Itoa(r.Channel),
		strconv.FormatUint(uint64(r.Status.Temperature), 10),
	}
	return append(rec, r.Status.Flags()...)
}

// String implements fmt.Stringer.
func (r Report) String() string {
	return strings.Join(r.Record(), " ")
}
