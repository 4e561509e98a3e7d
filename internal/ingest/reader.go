package ingest

import (
	"bufio"
	"io"

	"github.com/proxyadm/proxyadm/internal/model"
)

// maxLineSize bounds a single log line. Proxy logs carry full request
// URLs, which can run far past bufio's 64KiB default; at the default a
// long line would abort the stream instead of being skipped.
const maxLineSize = 1024 * 1024

// newLineScanner creates a line scanner sized for proxy log lines.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	return scanner
}

// Reader is a lazy, single-pass sequence of normalized log events.
// Next returns io.EOF when the stream is exhausted; the sequence is not
// restartable.
type Reader interface {
	// Next returns the next parseable event. Unparseable lines are
	// skipped (and counted), not returned as errors.
	Next() (model.LogEvent, error)

	// Skipped returns the number of lines dropped so far because they
	// could not be parsed.
	Skipped() uint64

	// Close releases the underlying source.
	Close() error
}
