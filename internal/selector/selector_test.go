package selector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
)

func newTestSelector(t *testing.T) (*Selector, accounts.Repository) {
	t.Helper()
	repo := accounts.NewMemoryRepository()
	c := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = c.Close() })
	return New(repo, c), repo
}

func TestBuildCandidatesNoEnabledAccounts(t *testing.T) {
	sel, _ := newTestSelector(t)
	_, err := sel.BuildCandidates(context.Background(), accounts.ProviderCodex, "u1")
	var noCand *ErrNoCandidates
	require.ErrorAs(t, err, &noCand)
}

func TestBuildCandidatesExpandsProjectScope(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	_, err := repo.Create(ctx, &accounts.Account{
		UserID: "u1", Provider: accounts.ProviderGeminiCLI, ExternalID: "proj-a,proj-b", Name: "acct",
	})
	require.NoError(t, err)

	cands, err := sel.BuildCandidates(ctx, accounts.ProviderGeminiCLI, "u1")
	require.NoError(t, err)
	require.Len(t, cands, 2)
}

func TestBuildCandidatesMissingProjectScope(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	_, err := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderGeminiCLI, ExternalID: ""})
	require.NoError(t, err)

	_, err = sel.BuildCandidates(ctx, accounts.ProviderGeminiCLI, "u1")
	require.Error(t, err)
}

func TestPickRoundRobinsAcrossCandidates(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	a1, _ := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderQwen, ExternalID: "a"})
	a2, _ := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderQwen, ExternalID: "b"})
	candidates := []Candidate{{Account: a1}, {Account: a2}}

	seen := map[int64]int{}
	for i := 0; i < 4; i++ {
		picked, err := sel.Pick(ctx, "u1", "model-x", candidates)
		require.NoError(t, err)
		seen[picked.Account.ID]++
	}
	require.Equal(t, 2, seen[a1.ID])
	require.Equal(t, 2, seen[a2.ID])
}

func TestObserveRateLimitSetsCooldownThenClearsOnSuccess(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	a, _ := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderCodex, ExternalID: "a"})
	cand := Candidate{Account: a}

	require.NoError(t, sel.Observe(ctx, cand, "model-x", Signal{Kind: SignalRateLimit}))
	avail := sel.available([]Candidate{cand}, "model-x")
	require.Empty(t, avail, "candidate should be cooling down")

	require.NoError(t, sel.Observe(ctx, cand, "model-x", Signal{Kind: SignalSuccess}))
	avail = sel.available([]Candidate{cand}, "model-x")
	require.Len(t, avail, 1)
}

func TestObserveFreezeWritesAccountLimits(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	a, _ := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderKiro, ExternalID: "a"})
	cand := Candidate{Account: a}

	until := time.Now().Add(time.Hour)
	require.NoError(t, sel.Observe(ctx, cand, "model-x", Signal{Kind: SignalFreeze, FreezeReason: accounts.Freeze5HourLimit, FreezeUntil: until}))

	got, err := repo.GetByIDAndUser(ctx, accounts.ProviderKiro, a.ID, "u1")
	require.NoError(t, err)
	require.True(t, got.IsFrozen(time.Now()))
}

func TestObserveTransientDoesNotCooldown(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	a, _ := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderCodex, ExternalID: "a"})
	cand := Candidate{Account: a}

	require.NoError(t, sel.Observe(ctx, cand, "model-x", Signal{Kind: SignalTransient}))
	avail := sel.available([]Candidate{cand}, "model-x")
	require.Len(t, avail, 1)
}

func TestPickExhaustedReturnsEarliestAvailable(t *testing.T) {
	sel, repo := newTestSelector(t)
	ctx := context.Background()
	a, _ := repo.Create(ctx, &accounts.Account{UserID: "u1", Provider: accounts.ProviderCodex, ExternalID: "a"})
	cand := Candidate{Account: a}
	require.NoError(t, sel.Observe(ctx, cand, "model-x", Signal{Kind: SignalRateLimit}))

	_, err := sel.Pick(ctx, "u1", "model-x", []Candidate{cand})
	var exhausted *ErrExhausted
	require.ErrorAs(t, err, &exhausted)
	require.True(t, exhausted.EarliestAt.After(time.Now()))
}
