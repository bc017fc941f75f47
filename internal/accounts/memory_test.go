package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &Account{
		UserID: "u1", Provider: ProviderCodex, ExternalID: "ext-1", Name: "primary",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "enabled", created.Status)

	got, err := repo.GetByIDAndUser(ctx, ProviderCodex, created.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, "ext-1", got.ExternalID)

	_, err = repo.GetByIDAndUser(ctx, ProviderCodex, created.ID, "someone-else")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryListEnabledByUser(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a, _ := repo.Create(ctx, &Account{UserID: "u1", Provider: ProviderQwen, ExternalID: "a"})
	_, _ = repo.Create(ctx, &Account{UserID: "u1", Provider: ProviderQwen, ExternalID: "b"})
	require.NoError(t, repo.UpdateStatus(ctx, ProviderQwen, a.ID, "u1", false))

	enabled, err := repo.ListEnabledByUser(ctx, ProviderQwen, "u1")
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	require.Equal(t, "b", enabled[0].ExternalID)
}

func TestMemoryRepositoryUpdateStatusRejectsEnableWhenFrozen(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a, _ := repo.Create(ctx, &Account{UserID: "u1", Provider: ProviderGeminiCLI, ExternalID: "a"})
	require.NoError(t, repo.UpdateStatus(ctx, ProviderGeminiCLI, a.ID, "u1", false))

	reset := time.Now().Add(time.Hour)
	full := 100.0
	require.NoError(t, repo.UpdateLimits(ctx, ProviderGeminiCLI, a.ID, nil, nil, &full, &reset))

	err := repo.UpdateStatus(ctx, ProviderGeminiCLI, a.ID, "u1", true)
	var frozen *ErrFrozen
	require.ErrorAs(t, err, &frozen)
	require.WithinDuration(t, reset, frozen.Until, time.Second)
}

func TestMemoryRepositoryGetByUserAndExternalIDDedup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &Account{UserID: "u1", Provider: ProviderKiro, ExternalID: "acct-9"})
	require.NoError(t, err)

	found, err := repo.GetByUserAndExternalID(ctx, ProviderKiro, "u1", "acct-9")
	require.NoError(t, err)
	require.Equal(t, "acct-9", found.ExternalID)

	_, err = repo.GetByUserAndExternalID(ctx, ProviderKiro, "u1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a, _ := repo.Create(ctx, &Account{UserID: "u1", Provider: ProviderAntigravity, ExternalID: "x"})
	require.NoError(t, repo.Delete(ctx, ProviderAntigravity, a.ID, "u1"))

	_, err := repo.GetByIDAndUser(ctx, ProviderAntigravity, a.ID, "u1")
	require.ErrorIs(t, err, ErrNotFound)
}
