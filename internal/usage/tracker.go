package usage

import (
	"context"
	"io"
	"time"
)

// Tracker is C9's entry point: the gateway calls WrapStream (or RecordNonStream
// for a one-shot response) once per dispatched request and lets the result
// drive the eventual Commit.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// WrapStream returns an io.ReadCloser that transparently tracks usage over
// body as it's copied to the client, committing exactly once on EOF or
// Close (spec.md §4.9 / §5's cancellation-safety requirement).
func (t *Tracker) WrapStream(body io.ReadCloser, entry LogEntry) io.ReadCloser {
	return WrapStream(body, t.store, entry)
}

// RecordNonStream commits a single LogEntry for a non-streaming request
// whose outcome is already fully known (spec.md §4.9's non-stream path:
// commit happens once, synchronously, after the response is ready).
func (t *Tracker) RecordNonStream(ctx context.Context, entry LogEntry, started time.Time) error {
	entry.DurationMS = time.Since(started).Milliseconds()
	if t.store == nil {
		return nil
	}
	return t.store.Commit(ctx, entry)
}
