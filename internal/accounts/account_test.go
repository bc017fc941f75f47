package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccountIsFrozenWeeklyTakesPrecedence(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	full := 100.0
	a := &Account{
		LimitWeekUsedPercent: &full, LimitWeekResetAt: &future,
		Limit5hUsedPercent: &full, Limit5hResetAt: &future,
	}
	require.True(t, a.IsFrozen(now))
	require.Equal(t, FreezeWeeklyLimit, a.FreezeReason(now))
	until, ok := a.FreezeResetAt(now)
	require.True(t, ok)
	require.Equal(t, future, until)
}

func TestAccountIsFrozenExpiredResetDoesNotFreeze(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	full := 100.0
	a := &Account{LimitWeekUsedPercent: &full, LimitWeekResetAt: &past}
	require.False(t, a.IsFrozen(now))
	require.Equal(t, FreezeNone, a.FreezeReason(now))
}

func TestAccountEffectiveStatus(t *testing.T) {
	now := time.Now()
	a := &Account{Status: "enabled"}
	require.True(t, a.EffectiveStatus(now))

	a.Status = "disabled"
	require.False(t, a.EffectiveStatus(now))
}

func TestProviderRequiresProjectScope(t *testing.T) {
	require.True(t, ProviderGeminiCLI.RequiresProjectScope())
	require.False(t, ProviderCodex.RequiresProjectScope())
}

func TestProviderValid(t *testing.T) {
	require.True(t, ProviderKiro.Valid())
	require.False(t, Provider("not-a-provider").Valid())
}

func TestProjectIDs(t *testing.T) {
	require.Equal(t, []string{"proj-a", "proj-b"}, ProjectIDs("proj-a, proj-b"))
	require.Nil(t, ProjectIDs(""))
	require.Nil(t, ProjectIDs("ALL"))
	require.Equal(t, []string{"proj-a"}, ProjectIDs("ALL,proj-a,"))
}
