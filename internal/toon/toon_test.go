package toon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityCodecBinary writes a tiny executable script that ignores its
// argv (the "encode"/"decode" subcommand) and just cats stdin, so
// Decode(Encode(p)) always equals p structurally.
func identityCodecBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toon-identity")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\ncat\n"), 0o755))
	return path
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := New(identityCodecBinary(t), 2*time.Second)

	payload := map[string]any{
		"defunt": map[string]any{
			"nom":            "Dupont",
			"date_naissance": "1950-01-02",
		},
		"contrats": []any{
			map[string]any{"montant": float64(1200)},
		},
	}

	encoded, err := a.Encode(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	decoded, err := a.Decode(context.Background(), encoded)
	require.NoError(t, err)
	assert.True(t, structurallyEqual(normalize(payload), normalize(decoded)))

	_, err = a.RoundTrip(context.Background(), payload)
	assert.NoError(t, err)
}

func TestRoundTripDetectsMismatch(t *testing.T) {
	a := New(identityCodecBinary(t), 2*time.Second)

	payload := map[string]any{"a": "b"}
	encoded, err := a.Encode(context.Background(), payload)
	require.NoError(t, err)

	mutated, err := a.Decode(context.Background(), encoded)
	require.NoError(t, err)
	mutated["a"] = "different"

	assert.False(t, structurallyEqual(normalize(payload), normalize(mutated)))
}

func TestEncodeFailsFastOnNonZeroExit(t *testing.T) {
	bad := New("false", 2*time.Second)
	_, err := bad.Encode(context.Background(), map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestEncodeTimesOut(t *testing.T) {
	slow := New("sh", 10*time.Millisecond)
	_, err := slow.run(context.Background(), []string{"-c", "sleep 5"}, nil)
	assert.Error(t, err)
}

func TestCacheShortCircuitsRepeatEncodes(t *testing.T) {
	a := New(identityCodecBinary(t), 2*time.Second)

	payload := map[string]any{"x": "y"}
	first, err := a.Encode(context.Background(), payload)
	require.NoError(t, err)
	assert.Contains(t, a.cache, hashOf(mustCanonical(payload)))
	second, err := a.Encode(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func mustCanonical(payload map[string]any) []byte {
	b, err := canonicalJSON(payload)
	if err != nil {
		panic(err)
	}
	return b
}
