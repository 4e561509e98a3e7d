package provision

import (
	"context"
	"os"

	"github.com/proxyadm/proxyadm/internal/ingest"
	"github.com/proxyadm/proxyadm/internal/model"
	"github.com/proxyadm/proxyadm/internal/usage"
)

// Stats derives a usage summary for one identity from the backend's
// log file. The summary is computed fresh on every call; nothing is
// cached or persisted. A missing log file yields an empty summary, not
// an error: a freshly set up service simply has no history yet.
func (o *Orchestrator) Stats(ctx context.Context, username string) (model.UsageSummary, error) {
	if !o.backend.Kind.SupportsUsageStats() {
		return model.UsageSummary{}, ErrStatsUnsupported
	}

	match := model.MatchExact
	if o.backend.Kind == model.SocksAuth {
		match = model.MatchSubstring
	}
	agg := usage.NewAggregator(username, o.backend.Kind, match)

	f, err := os.Open(o.backend.LogPath)
	if os.IsNotExist(err) {
		o.logger.Warn("log file missing, reporting no activity", "path", o.backend.LogPath)
		return agg.Summary(0), nil
	}
	if err != nil {
		return model.UsageSummary{}, err
	}

	var reader ingest.Reader
	if o.backend.Kind == model.SocksAuth {
		reader = ingest.NewDanteReader(f)
	} else {
		reader = ingest.NewSquidReader(f, o.backend.LogFormat)
	}
	defer func() { _ = reader.Close() }()

	summary, err := usage.Collect(ctx, reader, agg)
	if err != nil {
		return model.UsageSummary{}, err
	}
	if summary.SkippedLines > 0 {
		o.logger.Warn("some log lines could not be parsed",
			"path", o.backend.LogPath, "skipped", summary.SkippedLines)
	}
	return summary, nil
}
