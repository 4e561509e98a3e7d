package usage

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/proxyadm/proxyadm/internal/ingest"
	"github.com/proxyadm/proxyadm/internal/model"
)

// eventBuffer is the channel depth between the reading and folding
// goroutines. Large log files are read in a streaming fashion; the
// whole file is never held in memory.
const eventBuffer = 256

// Collect streams every event from r through the aggregator and
// materializes the summary. The reader's skipped-line count is captured
// after the stream is exhausted. The context cancels a long-running
// ingestion; the reader is not closed by Collect.
func Collect(ctx context.Context, r ingest.Reader, agg *Aggregator) (model.UsageSummary, error) {
	events := make(chan model.LogEvent, eventBuffer)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		for {
			ev, err := r.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	g.Go(func() error {
		for ev := range events {
			agg.Add(ev)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.UsageSummary{}, err
	}
	return agg.Summary(r.Skipped()), nil
}
