package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	tok, exp, err := Generate(opts, "Alice", map[string]any{"role": "user", "sub": "ignored"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp, 5*time.Second)

	sub, err := Verify(opts, tok)
	require.NoError(t, err)
	assert.Equal(t, "Alice", sub)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, _, err := Generate(DefaultOptions([]byte("a")), "bob", nil)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("b")), tok)
	assert.Error(t, err)
}

func TestVerifyRejectsOtherAlg(t *testing.T) {
	secret := []byte("shared")
	hs512 := Options{Secret: secret, Alg: "HS512", TTL: time.Hour}
	tok, _, err := Generate(hs512, "bob", nil)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(secret), tok)
	assert.Error(t, err)

	sub, err := Verify(hs512, tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := Options{Secret: []byte("s"), TTL: time.Nanosecond}
	tok, _, err := Generate(opts, "bob", nil)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = Verify(opts, tok)
	assert.Error(t, err)
}

func TestUnsupportedAlg(t *testing.T) {
	_, _, err := Generate(Options{Secret: []byte("s"), Alg: "RS256"}, "bob", nil)
	assert.Error(t, err)
}
