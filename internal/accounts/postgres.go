package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRepository implements Repository over a single Postgres table
// per provider (accounts_<provider>, dashes folded to underscores),
// matching the schema in SPEC_FULL.md's persisted-state layout.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository opens (but does not migrate) the connection pool
// for dsn. Callers are expected to have applied the accounts_* schema
// out of band; this repository only issues DML.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("accounts: open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PostgresRepository{db: db}, nil
}

func tableFor(p Provider) string {
	name := string(p)
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '-' {
			out[i] = '_'
		} else {
			out[i] = name[i]
		}
	}
	return "accounts_" + string(out)
}

func (r *PostgresRepository) Close() error { return r.db.Close() }

func (r *PostgresRepository) scanAccount(row *sql.Row, provider Provider) (*Account, error) {
	a := &Account{Provider: provider}
	err := row.Scan(
		&a.ID, &a.UserID, &a.ExternalID, &a.Name, &a.EncryptedCredentials,
		&a.Status, &a.TokenExpiresAt, &a.LastRefreshAt, &a.LastUsedAt,
		&a.Limit5hUsedPercent, &a.Limit5hResetAt, &a.LimitWeekUsedPercent, &a.LimitWeekResetAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

const selectColumns = `id, user_id, external_id, name, credentials,
	status, token_expires_at, last_refresh_at, last_used_at,
	limit_5h_used_percent, limit_5h_reset_at, limit_week_used_percent, limit_week_reset_at,
	created_at, updated_at`

func (r *PostgresRepository) ListByUser(ctx context.Context, provider Provider, userID string) ([]*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 ORDER BY id ASC`, selectColumns, tableFor(provider))
	return r.queryList(ctx, provider, query, userID)
}

func (r *PostgresRepository) ListEnabledByUser(ctx context.Context, provider Provider, userID string) ([]*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND status = 'enabled' ORDER BY id ASC`, selectColumns, tableFor(provider))
	return r.queryList(ctx, provider, query, userID)
}

func (r *PostgresRepository) queryList(ctx context.Context, provider Provider, query string, args ...interface{}) ([]*Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a := &Account{Provider: provider}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ExternalID, &a.Name, &a.EncryptedCredentials,
			&a.Status, &a.TokenExpiresAt, &a.LastRefreshAt, &a.LastUsedAt,
			&a.Limit5hUsedPercent, &a.Limit5hResetAt, &a.LimitWeekUsedPercent, &a.LimitWeekResetAt,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByIDAndUser(ctx context.Context, provider Provider, id int64, userID string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND user_id = $2`, selectColumns, tableFor(provider))
	row := r.db.QueryRowContext(ctx, query, id, userID)
	return r.scanAccount(row, provider)
}

func (r *PostgresRepository) GetByUserAndExternalID(ctx context.Context, provider Provider, userID, externalID string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND external_id = $2`, selectColumns, tableFor(provider))
	row := r.db.QueryRowContext(ctx, query, userID, externalID)
	return r.scanAccount(row, provider)
}

func (r *PostgresRepository) Create(ctx context.Context, a *Account) (*Account, error) {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, external_id, name, credentials, status, token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now()) RETURNING id, created_at, updated_at`, tableFor(a.Provider))
	status := a.Status
	if status == "" {
		status = "enabled"
	}
	row := r.db.QueryRowContext(ctx, query, a.UserID, a.ExternalID, a.Name, a.EncryptedCredentials, status, a.TokenExpiresAt)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}

func (r *PostgresRepository) UpdateCredentialsAndProfile(ctx context.Context, provider Provider, id int64, encryptedCredentials string, tokenExpiresAt *time.Time, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET credentials = $1, token_expires_at = $2, name = COALESCE(NULLIF($3, ''), name),
		last_refresh_at = now(), updated_at = now() WHERE id = $4`, tableFor(provider))
	_, err := r.db.ExecContext(ctx, query, encryptedCredentials, tokenExpiresAt, name, id)
	return err
}

func (r *PostgresRepository) UpdateLimits(ctx context.Context, provider Provider, id int64, limit5h *float64, limit5hReset *time.Time, limitWeek *float64, limitWeekReset *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET limit_5h_used_percent = $1, limit_5h_reset_at = $2,
		limit_week_used_percent = $3, limit_week_reset_at = $4, updated_at = now() WHERE id = $5`, tableFor(provider))
	_, err := r.db.ExecContext(ctx, query, limit5h, limit5hReset, limitWeek, limitWeekReset, id)
	return err
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, provider Provider, id int64, userID string, enabled bool) error {
	if enabled {
		acct, err := r.GetByIDAndUser(ctx, provider, id, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		if acct.IsFrozen(now) {
			until, _ := acct.FreezeResetAt(now)
			return &ErrFrozen{Until: until}
		}
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	query := fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = now() WHERE id = $2 AND user_id = $3`, tableFor(provider))
	_, err := r.db.ExecContext(ctx, query, status, id, userID)
	return err
}

func (r *PostgresRepository) UpdateName(ctx context.Context, provider Provider, id int64, userID string, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1, updated_at = now() WHERE id = $2 AND user_id = $3`, tableFor(provider))
	_, err := r.db.ExecContext(ctx, query, name, id, userID)
	return err
}

func (r *PostgresRepository) UpdateLastUsed(ctx context.Context, provider Provider, id int64, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_used_at = $1 WHERE id = $2`, tableFor(provider))
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, provider Provider, id int64, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, tableFor(provider))
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}
