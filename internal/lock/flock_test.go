package lock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRecordsOwnerAndBlocksSecondCoordinator(t *testing.T) {
	dir := t.TempDir()

	h, err := Acquire(dir)
	require.NoError(t, err)
	defer h.Release()

	content, err := os.ReadFile(filepath.Join(dir, lockFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "pid=")
	assert.Contains(t, string(content), "acquired=")

	_, err = Acquire(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked by another coordinator")
	assert.Contains(t, err.Error(), "pid=")
}

func TestReleaseRemovesLockFileAndAllowsReacquire(t *testing.T) {
	dir := t.TempDir()

	h, err := Acquire(dir)
	require.NoError(t, err)
	h.Release()

	_, statErr := os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(statErr))

	h2, err := Acquire(dir)
	require.NoError(t, err)
	h2.Release()
}

func TestReleaseIsNilSafeAndIdempotent(t *testing.T) {
	var h *Handle
	h.Release()

	dir := t.TempDir()
	held, err := Acquire(dir)
	require.NoError(t, err)
	held.Release()
	held.Release()
}

func TestAcquireFailsOnUnwritableStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	_, err := Acquire(dir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "lock: open"))
}
