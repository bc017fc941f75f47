package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	box, err := NewSecretBox("unit-test-key-material")
	require.NoError(t, err)

	plaintext := `{"refresh_token":"rt_abc123","project_id":"proj-1"}`
	ciphertext, err := box.Encrypt(plaintext)
	require.NoError(t, err)
	require.NotEmpty(t, ciphertext)

	got, err := box.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestSecretBoxNondeterministic(t *testing.T) {
	box, err := NewSecretBox("unit-test-key-material")
	require.NoError(t, err)

	a, err := box.Encrypt("same-plaintext")
	require.NoError(t, err)
	b, err := box.Encrypt("same-plaintext")
	require.NoError(t, err)

	require.NotEqual(t, a, b, "same plaintext must encrypt to different ciphertext each time")
}

func TestSecretBoxDecryptFailureOnTamper(t *testing.T) {
	box, err := NewSecretBox("unit-test-key-material")
	require.NoError(t, err)

	ciphertext, err := box.Encrypt("hello")
	require.NoError(t, err)

	tampered := ciphertext[:len(ciphertext)-2] + "xx"
	_, err = box.Decrypt(tampered)
	require.ErrorIs(t, err, ErrDecryptFailed)
}

func TestSecretBoxWrongKeyFails(t *testing.T) {
	boxA, err := NewSecretBox("key-a")
	require.NoError(t, err)
	boxB, err := NewSecretBox("key-b")
	require.NoError(t, err)

	ciphertext, err := boxA.Encrypt("secret")
	require.NoError(t, err)

	_, err = boxB.Decrypt(ciphertext)
	require.ErrorIs(t, err, ErrDecryptFailed)
}

func TestConstantTimeEquals(t *testing.T) {
	require.True(t, ConstantTimeEquals("sk-abc123", "sk-abc123"))
	require.False(t, ConstantTimeEquals("sk-abc123", "sk-abc124"))
	require.False(t, ConstantTimeEquals("short", "much-longer-value"))
	require.True(t, ConstantTimeEquals("", ""))
}
