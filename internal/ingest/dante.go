package ingest

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/proxyadm/proxyadm/internal/model"
)

// syslogTimeLayout is the classic syslog timestamp: no year, space-padded
// day of month.
const syslogTimeLayout = "Jan _2 15:04:05"

// DanteReader parses Dante's syslog-style journal:
//
//	Nov 14 09:21:07 host danted[512]: info: pass(1): tcp/connect ... -> a.com.443 ...
//
// Lines carry no reliable identity field, so Identity stays empty and
// matching degrades to a substring search over Message downstream.
//
// Syslog timestamps carry no year. We stamp the current year and, when
// that lands in the future, assume the line crossed a year boundary and
// subtract one. Logs older than a year still come out wrong; that
// imprecision is inherent to the format.
type DanteReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	now     func() time.Time
	skipped uint64
}

// DanteOption configures a DanteReader.
type DanteOption func(*DanteReader)

// WithDanteClock overrides the time source used for year stamping.
func WithDanteClock(now func() time.Time) DanteOption {
	return func(dr *DanteReader) {
		dr.now = now
	}
}

// NewDanteReader creates a reader over r. If r implements io.Closer,
// Close closes it.
func NewDanteReader(r io.Reader, opts ...DanteOption) *DanteReader {
	closer, _ := r.(io.Closer)
	dr := &DanteReader{
		scanner: newLineScanner(r),
		closer:  closer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(dr)
	}
	return dr
}

// Next implements Reader.
func (dr *DanteReader) Next() (model.LogEvent, error) {
	for dr.scanner.Scan() {
		ev, ok := dr.parseLine(dr.scanner.Text())
		if !ok {
			dr.skipped++
			continue
		}
		return ev, nil
	}
	if err := dr.scanner.Err(); err != nil {
		return model.LogEvent{}, err
	}
	return model.LogEvent{}, io.EOF
}

// Skipped implements Reader.
func (dr *DanteReader) Skipped() uint64 {
	return dr.skipped
}

// Close implements Reader.
func (dr *DanteReader) Close() error {
	if dr.closer != nil {
		return dr.closer.Close()
	}
	return nil
}

// parseLine converts one syslog line into an event. The first fifteen
// characters must parse as a syslog timestamp; everything after the
// hostname and tag is the free-text message.
func (dr *DanteReader) parseLine(line string) (model.LogEvent, bool) {
	if len(line) < len(syslogTimeLayout) {
		return model.LogEvent{}, false
	}

	stamp, err := time.ParseInLocation(syslogTimeLayout, line[:15], time.Local)
	if err != nil {
		return model.LogEvent{}, false
	}

	now := dr.now()
	ts := stamp.AddDate(now.Year(), 0, 0)
	if ts.After(now) {
		ts = ts.AddDate(-1, 0, 0)
	}

	message := strings.TrimSpace(line[15:])
	if message == "" {
		return model.LogEvent{}, false
	}

	return model.LogEvent{
		Timestamp:   ts,
		Destination: extractDestination(message),
		Message:     message,
	}, true
}

// extractDestination pulls the "-> host.port" target out of a Dante
// message, best effort. Empty when the line has no arrow.
func extractDestination(message string) string {
	idx := strings.LastIndex(message, "-> ")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(message[idx+3:])
	if rest == "" {
		return ""
	}
	dest := rest
	if end := strings.IndexAny(rest, " \t]"); end >= 0 {
		dest = rest[:end]
	}
	return strings.TrimSuffix(dest, ",")
}
