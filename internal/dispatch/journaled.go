package dispatch

import (
	"context"
	"time"

	"receiptprint/internal/journal"
)

// Journaled wraps a Dispatcher and records one journal.Entry per call. The
// entry ID comes from journal.IDFrom(ctx), or is generated.
type Journaled struct {
	Next     Dispatcher
	Strategy string
	Sink     journal.Sink
}

func (j *Journaled) Dispatch(ctx context.Context, receiptText string) Result {
	id, ok := journal.IDFrom(ctx)
	if !ok {
		id = journal.NewID()
	}

	start := time.Now()
	res := j.Next.Dispatch(ctx, receiptText)

	entry := journal.Entry{
		ID:         id,
		Strategy:   j.Strategy,
		OK:         res.OK,
		Kind:       res.Kind(),
		ExitCode:   res.ExitCode,
		StartedAt:  start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if !res.OK {
		entry.SetError(res.Text)
	}
	journal.SafeRecord(j.Sink, entry)
	return res
}
