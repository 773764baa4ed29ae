package host

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	fx "github.com/robotalks/draad/pkg/framework"
)

// DumpFileMode is the mode of created dump files.
const DumpFileMode = 0644

// Dumper appends reports to CSV files, one file per day named
// YYYY-MM-DD.csv under Dir.
type Dumper struct {
	Dir string

	file    *os.File
	writer  *csv.Writer
	current string
}

// NewDumper creates a Dumper, creating dir if needed.
func NewDumper(dir string) (*Dumper, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Dumper{Dir: dir}, nil
}

// FileName returns the dump file for the day of t.
func (d *Dumper) FileName(t time.Time) string {
	return filepath.Join(d.Dir, fmt.Sprintf("%04d-%02d-%02d.csv", t.Year(), t.Month(), t.Day()))
}

// Dump appends a report.
func (d *Dumper) Dump(r Report) error {
	if err := d.rotate(r.Time); err != nil {
		return err
	}
	if err := d.writer.Write(r.Record()); err != nil {
		return err
	}
	d.writer.Flush()
	return d.writer.Error()
}

// HandleReport implements ReportHandler.
func (d *Dumper) HandleReport(_ context.Context, r Report) error {
	return d.Dump(r)
}

// Close flushes and closes the current file.
func (d *Dumper) Close() error {
	if d.file == nil {
		return nil
	}
	var errs fx.AggregatedError
	d.writer.Flush()
	errs.Add(d.writer.Error(), d.file.Close())
	d.file, d.writer, d.current = nil, nil, ""
	return errs.Aggregate()
}

func (d *Dumper) rotate(t time.Time) error {
	name := d.FileName(t)
	if name == d.current {
		return nil
	}
	if err := d.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DumpFileMode)
	if err != nil {
		return err
	}
	d.file, d.writer, d.current = f, csv.NewWriter(f), name
	return nil
}
