package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/proxyadm/proxyadm/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic
// processing.
//
// Design decision: We use standard encoding/json because it is
// sufficient for a flat summary document and keeps output stable
// across versions.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indent.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonSummary is the stable wire shape of a usage summary.
type jsonSummary struct {
	Identity        string            `json:"identity"`
	Backend         string            `json:"backend"`
	TotalEvents     uint64            `json:"total_events"`
	TotalBytes      uint64            `json:"total_bytes"`
	Megabytes       string            `json:"megabytes"`
	LastSeen        *time.Time        `json:"last_seen,omitempty"`
	TopDestinations []jsonDestination `json:"top_destinations,omitempty"`
	HourlyHistogram []jsonBucket      `json:"hourly_histogram,omitempty"`
	MatchConfidence string            `json:"match_confidence"`
	SkippedLines    uint64            `json:"skipped_lines"`
}

type jsonDestination struct {
	Domain string `json:"domain"`
	Count  uint64 `json:"count"`
}

type jsonBucket struct {
	Hour  time.Time `json:"hour"`
	Count uint64    `json:"count"`
}

// WriteSummary outputs the summary as a single JSON document.
func (w *JSONWriter) WriteSummary(summary *model.UsageSummary) (int, error) {
	doc := jsonSummary{
		Identity:        summary.Identity,
		Backend:         summary.Backend.String(),
		TotalEvents:     summary.TotalEvents,
		TotalBytes:      summary.TotalBytes,
		Megabytes:       summary.FormatMegabytes(),
		MatchConfidence: summary.Match.String(),
		SkippedLines:    summary.SkippedLines,
	}
	if !summary.LastSeen.IsZero() {
		seen := summary.LastSeen
		doc.LastSeen = &seen
	}
	for _, d := range summary.TopDestinations {
		doc.TopDestinations = append(doc.TopDestinations, jsonDestination{Domain: d.Domain, Count: d.Count})
	}
	for _, b := range summary.HourlyHistogram {
		doc.HourlyHistogram = append(doc.HourlyHistogram, jsonBucket{Hour: b.Hour, Count: b.Count})
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
