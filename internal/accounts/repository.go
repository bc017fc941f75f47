package accounts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by id or external-id finds nothing.
var ErrNotFound = errors.New("accounts: not found")

// ErrFrozen is returned by UpdateStatus when a caller tries to re-enable
// an account that is currently frozen (spec.md §4.5: "the facade MUST
// reject the flip if the account is currently frozen").
type ErrFrozen struct {
	Until time.Time
}

func (e *ErrFrozen) Error() string {
	return "accounts: account is frozen until " + e.Until.UTC().Format(time.RFC3339)
}

// Repository is the per-provider account store contract (C3). It performs
// no business validation beyond column constraints and never commits —
// transaction boundaries belong to the caller (the credential lifecycle
// and routing facade).
type Repository interface {
	// ListByUser returns every account for (user, provider), ordered by
	// id ascending (insertion order is the stable tie-break).
	ListByUser(ctx context.Context, provider Provider, userID string) ([]*Account, error)

	// ListEnabledByUser is ListByUser filtered to status=enabled.
	ListEnabledByUser(ctx context.Context, provider Provider, userID string) ([]*Account, error)

	// GetByIDAndUser enforces the authorization boundary: a user can only
	// address their own accounts.
	GetByIDAndUser(ctx context.Context, provider Provider, id int64, userID string) (*Account, error)

	// GetByUserAndExternalID supports dedup-on-import (spec.md §4.4,
	// Scenario F): exactly one account per (user, provider, external id).
	GetByUserAndExternalID(ctx context.Context, provider Provider, userID, externalID string) (*Account, error)

	// Create inserts a new account and returns it with its assigned ID.
	Create(ctx context.Context, a *Account) (*Account, error)

	// UpdateCredentialsAndProfile atomically updates the encrypted
	// credentials blob plus profile fields and refresh timestamps.
	UpdateCredentialsAndProfile(ctx context.Context, provider Provider, id int64, encryptedCredentials string, tokenExpiresAt *time.Time, name string) error

	// UpdateLimits atomically writes the freeze fields.
	UpdateLimits(ctx context.Context, provider Provider, id int64, limit5h *float64, limit5hReset *time.Time, limitWeek *float64, limitWeekReset *time.Time) error

	// UpdateStatus flips enabled/disabled. Returns ErrFrozen if the
	// caller tries to enable a currently-frozen account.
	UpdateStatus(ctx context.Context, provider Provider, id int64, userID string, enabled bool) error

	// UpdateName renames the account's display name.
	UpdateName(ctx context.Context, provider Provider, id int64, userID string, name string) error

	// UpdateLastUsed is called (throttled to 60s by the caller via the
	// cache's last_used_throttle key) after a successful request.
	UpdateLastUsed(ctx context.Context, provider Provider, id int64, at time.Time) error

	// Delete destroys an account. Only reachable via explicit user
	// action — never called as a side effect of an upstream failure.
	Delete(ctx context.Context, provider Provider, id int64, userID string) error
}
