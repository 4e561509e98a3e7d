// Package usage derives per-identity activity summaries from normalized
// log events. Summaries are computed fresh on every query; nothing in
// this package persists state.
package usage

import (
	"sort"
	"strings"
	"time"

	"github.com/proxyadm/proxyadm/internal/model"
)

// topDestinationLimit caps the ranked destination list.
const topDestinationLimit = 10

// histogramWindow is the look-back window of the hourly histogram.
const histogramWindow = 24 * time.Hour

// histogramBucketLimit caps the histogram length. A window that starts
// mid-hour touches 25 distinct hour buckets.
const histogramBucketLimit = 24

// Aggregator folds log events attributed to one identity into a
// UsageSummary. Attribution depends on the match policy: MatchExact
// compares the event's Identity field, MatchSubstring searches the raw
// Message for the username (a lossy policy for sources that do not
// attribute lines; the summary records which one was applied).
type Aggregator struct {
	identity string
	backend  model.BackendKind
	match    model.MatchConfidence
	now      func() time.Time

	totalEvents uint64
	totalBytes  uint64
	lastSeen    time.Time

	domainCounts map[string]*domainStat
	hourCounts   map[time.Time]uint64
}

// domainStat tracks one domain's hit count and arrival order for
// deterministic tie-breaking.
type domainStat struct {
	count     uint64
	firstSeen int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used for the histogram window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator for the given identity, backend
// and attribution policy.
func NewAggregator(identity string, backend model.BackendKind, match model.MatchConfidence, opts ...Option) *Aggregator {
	a := &Aggregator{
		identity:     identity,
		backend:      backend,
		match:        match,
		now:          time.Now,
		domainCounts: make(map[string]*domainStat),
		hourCounts:   make(map[time.Time]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add folds one event into the running totals. Events not attributed to
// the aggregator's identity are ignored.
func (a *Aggregator) Add(ev model.LogEvent) {
	if !a.matches(ev) {
		return
	}

	a.totalEvents++
	a.totalBytes += ev.BytesTransferred
	if ev.Timestamp.After(a.lastSeen) {
		a.lastSeen = ev.Timestamp
	}

	if domain := StripDomain(ev.Destination); domain != "" {
		stat, ok := a.domainCounts[domain]
		if !ok {
			stat = &domainStat{firstSeen: len(a.domainCounts)}
			a.domainCounts[domain] = stat
		}
		stat.count++
	}

	if !ev.Timestamp.Before(a.now().Add(-histogramWindow)) {
		a.hourCounts[ev.Timestamp.Truncate(time.Hour)]++
	}
}

// matches applies the attribution policy.
func (a *Aggregator) matches(ev model.LogEvent) bool {
	switch a.match {
	case model.MatchSubstring:
		return strings.Contains(ev.Message, a.identity)
	default:
		return ev.Identity == a.identity
	}
}

// Summary materializes the folded totals. skippedLines is the source
// reader's dropped-line count, passed through for observability.
func (a *Aggregator) Summary(skippedLines uint64) model.UsageSummary {
	return model.UsageSummary{
		Identity:        a.identity,
		Backend:         a.backend,
		TotalEvents:     a.totalEvents,
		TotalBytes:      a.totalBytes,
		LastSeen:        a.lastSeen,
		TopDestinations: a.topDestinations(),
		HourlyHistogram: a.hourlyHistogram(),
		Match:           a.match,
		SkippedLines:    skippedLines,
	}
}

// topDestinations ranks domains by count descending, ties broken by
// first-seen order, truncated to topDestinationLimit.
func (a *Aggregator) topDestinations() []model.DestinationCount {
	if len(a.domainCounts) == 0 {
		return nil
	}

	type ranked struct {
		domain string
		stat   *domainStat
	}
	all := make([]ranked, 0, len(a.domainCounts))
	for domain, stat := range a.domainCounts {
		all = append(all, ranked{domain: domain, stat: stat})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].stat.count != all[j].stat.count {
			return all[i].stat.count > all[j].stat.count
		}
		return all[i].stat.firstSeen < all[j].stat.firstSeen
	})

	if len(all) > topDestinationLimit {
		all = all[:topDestinationLimit]
	}
	top := make([]model.DestinationCount, 0, len(all))
	for _, r := range all {
		top = append(top, model.DestinationCount{Domain: r.domain, Count: r.stat.count})
	}
	return top
}

// hourlyHistogram returns the non-empty hour buckets of the look-back
// window in ascending order, keeping only the most recent
// histogramBucketLimit of them.
func (a *Aggregator) hourlyHistogram() []model.HourBucket {
	if len(a.hourCounts) == 0 {
		return nil
	}
	buckets := make([]model.HourBucket, 0, len(a.hourCounts))
	for hour, count := range a.hourCounts {
		buckets = append(buckets, model.HourBucket{Hour: hour, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Hour.Before(buckets[j].Hour)
	})
	if len(buckets) > histogramBucketLimit {
		buckets = buckets[len(buckets)-histogramBucketLimit:]
	}
	return buckets
}

// StripDomain reduces a logged destination to its bare domain: the
// scheme prefix, any path, and a trailing port are removed. Dante logs
// destinations as "host.port", so a trailing all-digit dot component is
// treated as a port too. Returns "" for destinations with no usable
// host part.
func StripDomain(destination string) string {
	d := destination
	if idx := strings.Index(d, "://"); idx >= 0 {
		d = d[idx+3:]
	}
	if idx := strings.IndexByte(d, '/'); idx >= 0 {
		d = d[:idx]
	}
	if idx := strings.LastIndexByte(d, ':'); idx >= 0 && allDigits(d[idx+1:]) {
		d = d[:idx]
	} else if idx := strings.LastIndexByte(d, '.'); idx >= 0 && allDigits(d[idx+1:]) && !allDigits(strings.ReplaceAll(d, ".", "")) {
		d = d[:idx]
	}
	return d
}

// allDigits reports whether s is non-empty and entirely ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
