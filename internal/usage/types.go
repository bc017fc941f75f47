// Package usage implements the usage tracker (C9): per-request token and
// outcome accounting, persisted as an append-only log plus an additive
// rolling counter, the way spec.md §4.9 describes.
package usage

import (
	"context"
	"time"

	"gwmux/internal/translator"
)

// LogEntry is one row of the usage log. TokenUsage reuses
// translator.Usage directly rather than duplicating a token-accounting
// shape: its Total() is exactly input+output, which is what
// ObservedTotalTokens is compared against on finalization.
type LogEntry struct {
	UserID             string
	ConfigType         string
	AccountID          int64
	Model              string
	RequestedModel     string
	Endpoint           string
	TokenUsage         translator.Usage
	ObservedTotalTokens int64 // total_tokens read directly off the wire, if present
	Success            bool
	HTTPStatus         int
	ErrorMessage       string
	RequestBody        string
	DurationMS         int64
	CreatedAt          time.Time
}

// TotalTokens implements spec.md's "total_tokens = max(observed,
// input+output)" finalization rule.
func (e LogEntry) TotalTokens() int64 {
	computed := e.TokenUsage.Total()
	if e.ObservedTotalTokens > computed {
		return e.ObservedTotalTokens
	}
	return computed
}

// Store is the persistence boundary C9 depends on: one call commits a
// log row and folds it into the rolling per-(user, config_type) counter
// in a single transaction (spec.md §4.9).
type Store interface {
	Commit(ctx context.Context, entry LogEntry) error
}
