package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAliasesAndDropsEmpty(t *testing.T) {
	raw := map[string]interface{}{
		"refreshToken": "rt-1",
		"clientId":     "c1",
		"email":        "",
		"project_id":   "proj-a",
	}
	out := Normalize(raw)
	require.Equal(t, "rt-1", out["refresh_token"])
	require.Equal(t, "c1", out["client_id"])
	require.Equal(t, "proj-a", out["project_id"])
	_, hasEmail := out["email"]
	require.False(t, hasEmail)
}

func TestJSONExpiresWithin(t *testing.T) {
	var j JSON
	require.True(t, j.ExpiresWithin(time.Minute, time.Now()), "no expiry means due for refresh")
}
