package credential

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCallbackAbsoluteURL(t *testing.T) {
	code, state, err := ParseCallback("https://gw.example.com/callback?code=abc&state=def")
	require.NoError(t, err)
	require.Equal(t, "abc", code)
	require.Equal(t, "def", state)
}

func TestParseCallbackLeadingQuery(t *testing.T) {
	code, state, err := ParseCallback("?code=abc&state=def")
	require.NoError(t, err)
	require.Equal(t, "abc", code)
	require.Equal(t, "def", state)
}

func TestParseCallbackBareKV(t *testing.T) {
	code, state, err := ParseCallback("code=abc&state=def")
	require.NoError(t, err)
	require.Equal(t, "abc", code)
	require.Equal(t, "def", state)
}

func TestParseCallbackFragment(t *testing.T) {
	code, state, err := ParseCallback("#code=abc&state=def")
	require.NoError(t, err)
	require.Equal(t, "abc", code)
	require.Equal(t, "def", state)
}

func TestParseCallbackMissingFieldsErrors(t *testing.T) {
	_, _, err := ParseCallback("code=abc")
	require.Error(t, err)
}

func TestCodeChallengeS256Deterministic(t *testing.T) {
	a := codeChallengeS256("verifier-value")
	b := codeChallengeS256("verifier-value")
	require.Equal(t, a, b)
	require.NotEqual(t, a, codeChallengeS256("other-value"))
}
