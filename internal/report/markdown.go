package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/proxyadm/proxyadm/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides type-safe tables, GitHub-flavored
// alerts, and mermaid chart embedding.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.UsageSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeTotals(md, summary)
	w.writeTopDestinations(md, summary)
	w.writeHistogram(md, summary)
	w.writeWarnings(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and identity table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.UsageSummary) {
	md.H1("Proxy Usage Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"User", "`" + summary.Identity + "`"},
			{"Backend", summary.Backend.String()},
			{"Attribution", summary.Match.String()},
		},
	})
	md.PlainText("")
}

// writeTotals writes the aggregate counters.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, summary *model.UsageSummary) {
	md.H2("Totals")
	md.PlainText("")

	lastSeen := "-"
	if !summary.LastSeen.IsZero() {
		lastSeen = summary.LastSeen.Format("2006-01-02 15:04:05 MST")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Requests", strconv.FormatUint(summary.TotalEvents, 10)},
			{"Transferred (MB)", summary.FormatMegabytes()},
			{"Last seen", lastSeen},
		},
	})
	md.PlainText("")

	if summary.NoActivity() {
		md.Note("No activity recorded for this user.")
		md.PlainText("")
	}
}

// writeTopDestinations writes the ranked destination table and a
// mermaid pie chart of the distribution.
func (w *MarkdownWriter) writeTopDestinations(md *markdown.Markdown, summary *model.UsageSummary) {
	if len(summary.TopDestinations) == 0 {
		return
	}

	md.H2("Top Destinations")
	md.PlainText("")

	rows := make([][]string, len(summary.TopDestinations))
	for i, d := range summary.TopDestinations {
		rows[i] = []string{strconv.Itoa(i + 1), d.Domain, strconv.FormatUint(d.Count, 10)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Domain", "Requests"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Destination Distribution"),
		piechart.WithShowData(true),
	)
	for _, d := range summary.TopDestinations {
		chart.LabelAndIntValue(d.Domain, d.Count)
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeHistogram writes the hourly activity table.
func (w *MarkdownWriter) writeHistogram(md *markdown.Markdown, summary *model.UsageSummary) {
	if len(summary.HourlyHistogram) == 0 {
		return
	}

	md.H2("Activity (last 24h)")
	md.PlainText("")

	rows := make([][]string, len(summary.HourlyHistogram))
	for i, b := range summary.HourlyHistogram {
		rows[i] = []string{b.Hour.Format("2006-01-02 15:00"), strconv.FormatUint(b.Count, 10)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Hour", "Requests"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWarnings surfaces lossy matching and dropped lines.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, summary *model.UsageSummary) {
	if summary.Match == model.MatchSubstring {
		md.Warningf("This backend logs no user field; %d line(s) were matched by username substring and may include false positives.", summary.TotalEvents)
		md.PlainText("")
	}
	if summary.SkippedLines > 0 {
		md.Importantf("%d log line(s) could not be parsed and were skipped.", summary.SkippedLines)
		md.PlainText("")
	}
}
