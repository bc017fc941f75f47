package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

// maxLogRowsPerKey is spec.md §4.9's "newest N per user×config_type,
// N≈200" retention bound for the UsageLog table.
const maxLogRowsPerKey = 200

// PostgresStore implements Store over the usage_logs/usage_counters
// tables (spec.md §4.5's persisted-state layout), following the same
// sql.Open/connection-pool conventions as internal/accounts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens (but does not migrate) the connection pool for
// dsn. Callers are expected to have applied the usage_logs/usage_counters
// schema out of band.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("usage: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// Commit implements spec.md §4.9's transaction: insert one usage_logs
// row, prune that (user, config_type)'s rows beyond the newest 200, and
// upsert an additive usage_counters delta — all inside one transaction.
// Write failure is logged, never propagated (spec.md: "Write failure is
// logged but never propagates to the client").
func (s *PostgresStore) Commit(ctx context.Context, e LogEntry) error {
	if err := s.commit(ctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user": e.UserID, "config_type": e.ConfigType,
		}).Error("usage: commit failed")
		return err
	}
	return nil
}

func (s *PostgresStore) commit(ctx context.Context, e LogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("usage: begin tx: %w", err)
	}
	defer tx.Rollback()

	errMsg := TruncateErrorMessage(e.ErrorMessage)
	reqBody := TruncateRequestBody(e.RequestBody)
	total := e.TotalTokens()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_logs
			(user_id, config_type, account_id, model, requested_model, endpoint,
			 success, http_status, error_message, request_body,
			 input_tokens, output_tokens, cached_tokens, total_tokens,
			 duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())`,
		e.UserID, e.ConfigType, nullableID(e.AccountID), e.Model, e.RequestedModel, e.Endpoint,
		e.Success, e.HTTPStatus, errMsg, reqBody,
		e.TokenUsage.InputTokens, e.TokenUsage.OutputTokens, e.TokenUsage.CachedReadTokens, total,
		e.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("usage: insert log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM usage_logs
		WHERE user_id = $1 AND config_type = $2
		  AND id NOT IN (
			SELECT id FROM usage_logs
			WHERE user_id = $1 AND config_type = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		  )`, e.UserID, e.ConfigType, maxLogRowsPerKey)
	if err != nil {
		return fmt.Errorf("usage: prune log: %w", err)
	}

	successInc, failInc := 0, 0
	if e.Success {
		successInc = 1
	} else {
		failInc = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_counters
			(user_id, config_type, total_requests, success_requests, failed_requests,
			 input_tokens, output_tokens, cached_tokens, total_tokens, total_duration_ms, updated_at)
		VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (user_id, config_type) DO UPDATE SET
			total_requests    = usage_counters.total_requests + EXCLUDED.total_requests,
			success_requests  = usage_counters.success_requests + EXCLUDED.success_requests,
			failed_requests   = usage_counters.failed_requests + EXCLUDED.failed_requests,
			input_tokens      = usage_counters.input_tokens + EXCLUDED.input_tokens,
			output_tokens     = usage_counters.output_tokens + EXCLUDED.output_tokens,
			cached_tokens     = usage_counters.cached_tokens + EXCLUDED.cached_tokens,
			total_tokens      = usage_counters.total_tokens + EXCLUDED.total_tokens,
			total_duration_ms = usage_counters.total_duration_ms + EXCLUDED.total_duration_ms,
			updated_at        = now()`,
		e.UserID, e.ConfigType, successInc, failInc,
		e.TokenUsage.InputTokens, e.TokenUsage.OutputTokens, e.TokenUsage.CachedReadTokens, total,
		e.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("usage: upsert counter: %w", err)
	}

	return tx.Commit()
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
