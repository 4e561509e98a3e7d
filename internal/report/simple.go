package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/proxyadm/proxyadm/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files and other tools.
type SimpleWriter struct {
	baseWriter

	// printer formats counts with digit grouping ("1,234,567").
	printer *message.Printer

	// verbose enables the hourly histogram section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the hourly histogram.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.UsageSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)

	if summary.NoActivity() {
		sb.WriteString("No activity recorded for this user.\n")
		w.writeFooter(&sb, summary)
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(w.printer.Sprintf("Requests:     %d\n", summary.TotalEvents))
	sb.WriteString(w.printer.Sprintf("Transferred:  %s MB (%d bytes)\n", summary.FormatMegabytes(), summary.TotalBytes))
	sb.WriteString(fmt.Sprintf("Last seen:    %s\n", summary.LastSeen.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")

	w.writeTopDestinations(&sb, summary)
	if w.verbose {
		w.writeHistogram(&sb, summary)
	}
	w.writeFooter(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report title and attribution policy.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.UsageSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Usage report for %q (%s backend)\n", summary.Identity, summary.Backend))
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	if summary.Match == model.MatchSubstring {
		sb.WriteString("Note: this backend logs no user field; lines were matched\n")
		sb.WriteString("by username substring and may include false positives.\n\n")
	}
}

// writeTopDestinations writes the ranked destination list.
func (w *SimpleWriter) writeTopDestinations(sb *strings.Builder, summary *model.UsageSummary) {
	if len(summary.TopDestinations) == 0 {
		return
	}
	sb.WriteString("Top destinations:\n")
	for i, d := range summary.TopDestinations {
		sb.WriteString(w.printer.Sprintf("  %2d. %-40s %d\n", i+1, d.Domain, d.Count))
	}
	sb.WriteString("\n")
}

// writeHistogram writes the hourly activity buckets.
func (w *SimpleWriter) writeHistogram(sb *strings.Builder, summary *model.UsageSummary) {
	if len(summary.HourlyHistogram) == 0 {
		return
	}
	sb.WriteString("Activity (last 24h):\n")
	for _, b := range summary.HourlyHistogram {
		sb.WriteString(w.printer.Sprintf("  %s  %d\n", b.Hour.Format("2006-01-02 15:00"), b.Count))
	}
	sb.WriteString("\n")
}

// writeFooter reports dropped lines so parse problems stay visible.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, summary *model.UsageSummary) {
	if summary.SkippedLines > 0 {
		sb.WriteString(w.printer.Sprintf("Warning: %d log lines could not be parsed and were skipped.\n", summary.SkippedLines))
	}
}
