package ingest

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/proxyadm/proxyadm/internal/config"
	"github.com/proxyadm/proxyadm/internal/model"
)

// squidMinFields is the minimum column count of a native-format access
// log line: timestamp, elapsed, client, status, bytes, method, url,
// user.
const squidMinFields = 8

// SquidReader parses Squid's native access log format:
//
//	1699999999.123   200 10.0.0.5 TCP_MISS/200 4521 GET http://a.com/x alice ...
//
// The timestamp is epoch seconds with millisecond fraction. The byte
// column position varies between observed log format versions, so it is
// taken from the descriptor's LogFormat rather than hardcoded; when the
// configured column is not numeric the parser tries the fallback column
// once before giving up on the line.
type SquidReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	format  config.LogFormat
	skipped uint64
}

// NewSquidReader creates a reader over r using the given column mapping.
// If r implements io.Closer, Close closes it.
func NewSquidReader(r io.Reader, format config.LogFormat) *SquidReader {
	closer, _ := r.(io.Closer)
	return &SquidReader{
		scanner: newLineScanner(r),
		closer:  closer,
		format:  format,
	}
}

// Next implements Reader.
func (sr *SquidReader) Next() (model.LogEvent, error) {
	for sr.scanner.Scan() {
		ev, ok := sr.parseLine(sr.scanner.Text())
		if !ok {
			sr.skipped++
			continue
		}
		return ev, nil
	}
	if err := sr.scanner.Err(); err != nil {
		return model.LogEvent{}, err
	}
	return model.LogEvent{}, io.EOF
}

// Skipped implements Reader.
func (sr *SquidReader) Skipped() uint64 {
	return sr.skipped
}

// Close implements Reader.
func (sr *SquidReader) Close() error {
	if sr.closer != nil {
		return sr.closer.Close()
	}
	return nil
}

// parseLine converts one access log line into an event. Lines without
// the minimum field count or a parseable timestamp are rejected.
func (sr *SquidReader) parseLine(line string) (model.LogEvent, bool) {
	fields := strings.Fields(line)
	if len(fields) < squidMinFields {
		return model.LogEvent{}, false
	}

	epoch, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || epoch <= 0 || math.IsInf(epoch, 0) || math.IsNaN(epoch) {
		return model.LogEvent{}, false
	}
	sec, frac := math.Modf(epoch)
	ts := time.Unix(int64(sec), int64(frac*float64(time.Second)))

	bytes, ok := sr.parseBytes(fields)
	if !ok {
		return model.LogEvent{}, false
	}

	return model.LogEvent{
		Timestamp:        ts,
		Identity:         fields[7],
		BytesTransferred: bytes,
		Destination:      fields[6],
		StatusCode:       fields[3],
		Message:          line,
	}, true
}

// parseBytes reads the byte count from the configured column, falling
// back to the alternate column when the primary is not numeric.
func (sr *SquidReader) parseBytes(fields []string) (uint64, bool) {
	if n, ok := parseByteField(fields, sr.format.BytesField); ok {
		return n, true
	}
	if sr.format.FallbackBytesField >= 0 && sr.format.FallbackBytesField != sr.format.BytesField {
		return parseByteField(fields, sr.format.FallbackBytesField)
	}
	return 0, false
}

// parseByteField parses fields[idx] as an unsigned byte count.
func parseByteField(fields []string, idx int) (uint64, bool) {
	if idx < 0 || idx >= len(fields) {
		return 0, false
	}
	n, err := strconv.ParseUint(fields[idx], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
