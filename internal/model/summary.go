package model

import (
	"fmt"
	"time"
)

// MatchConfidence states how log lines were attributed to the identity.
// It is carried on the summary rather than hidden so that callers can
// surface the lossy-matching policy instead of silently applying it.
type MatchConfidence int

const (
	// MatchExact means the source log carries an identity field that was
	// compared exactly (Squid access logs).
	MatchExact MatchConfidence = iota

	// MatchSubstring means lines were matched by searching for the
	// username anywhere in the message text (Dante syslog). A username
	// that is a substring of another string produces false positives;
	// this is inherited ambiguity, not a bug.
	MatchSubstring
)

// String returns a human-readable description of the matching policy.
func (m MatchConfidence) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchSubstring:
		return "substring"
	default:
		return fmt.Sprintf("MatchConfidence(%d)", int(m))
	}
}

// DestinationCount is one entry of a top-destinations ranking.
type DestinationCount struct {
	// Domain is the bare domain: scheme prefix, path suffix, and port
	// stripped from the original destination.
	Domain string

	// Count is the number of events that hit the domain.
	Count uint64
}

// HourBucket is one bucket of the hourly activity histogram.
type HourBucket struct {
	// Hour is the bucket start, truncated to the hour.
	Hour time.Time

	// Count is the number of events inside the bucket.
	Count uint64
}

// UsageSummary is a derived, non-persisted report of one identity's
// activity extracted from logs. It is built fresh per query; the log
// file is the only durable record of history. An all-zero summary is a
// valid outcome ("no activity"), not a failure.
type UsageSummary struct {
	// Identity is the queried username.
	Identity string

	// Backend is the backend the logs belong to.
	Backend BackendKind

	// TotalEvents counts the matched log events.
	TotalEvents uint64

	// TotalBytes sums BytesTransferred over matched events, treating
	// absent byte counts as zero.
	TotalBytes uint64

	// LastSeen is the maximum event timestamp; the zero time when no
	// event matched.
	LastSeen time.Time

	// TopDestinations ranks domains by hit count, descending, ties
	// broken by first-seen order, truncated to ten entries.
	TopDestinations []DestinationCount

	// HourlyHistogram buckets events by hour over the last 24 hours,
	// ascending by bucket, at most 24 buckets.
	HourlyHistogram []HourBucket

	// Match records the attribution policy used.
	Match MatchConfidence

	// SkippedLines counts source lines that could not be parsed and
	// were dropped. Surfaced for observability rather than hidden.
	SkippedLines uint64
}

// NoActivity reports whether the summary contains no matched events.
func (u UsageSummary) NoActivity() bool {
	return u.TotalEvents == 0
}

// Megabytes converts TotalBytes using division by 1024*1024.
func (u UsageSummary) Megabytes() float64 {
	return float64(u.TotalBytes) / (1024 * 1024)
}

// FormatMegabytes renders the transferred volume with two-decimal
// rounding. A zero-byte total renders as "0.00".
func (u UsageSummary) FormatMegabytes() string {
	return fmt.Sprintf("%.2f", u.Megabytes())
}
