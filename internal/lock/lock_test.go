package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForDir(t *testing.T) {
	lockDir := t.TempDir()

	a := ForDir(lockDir, "/srv/out")
	b := ForDir(lockDir, "/srv/out/")
	c := ForDir(lockDir, "/srv/other")

	assert.Equal(t, a.Path(), b.Path(), "same directory, same lock")
	assert.NotEqual(t, a.Path(), c.Path())
	assert.Equal(t, lockDir, filepath.Dir(a.Path()))
}

func TestForDir_DefaultsToTempDir(t *testing.T) {
	l := ForDir("", "out")
	assert.Equal(t, os.TempDir(), filepath.Dir(l.Path()))
}

func TestLock_AcquireRelease(t *testing.T) {
	lockDir := t.TempDir()
	out := t.TempDir()
	l := ForDir(lockDir, out)

	require.NoError(t, l.Acquire())

	_, err := os.Stat(l.Path())
	require.NoError(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written to the guarded directory")

	require.NoError(t, l.Release())

	_, err = os.Stat(l.Path())
	assert.NoError(t, err, "lock file is kept so every process locks the same inode")
}

func TestLock_DoubleAcquire(t *testing.T) {
	lockDir := t.TempDir()
	first := ForDir(lockDir, "out")
	second := ForDir(lockDir, "out")

	require.NoError(t, first.Acquire())
	defer first.Release()

	err := second.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLock_ReleaseWithoutAcquire(t *testing.T) {
	l := ForDir(t.TempDir(), "out")
	require.NoError(t, l.Release())
}

func TestLock_ReacquireAfterRelease(t *testing.T) {
	lockDir := t.TempDir()

	first := ForDir(lockDir, "out")
	require.NoError(t, first.Acquire())
	require.NoError(t, first.Release())

	info, err := os.Stat(first.Path())
	require.NoError(t, err)

	second := ForDir(lockDir, "out")
	require.NoError(t, second.Acquire())
	defer second.Release()

	again, err := os.Stat(second.Path())
	require.NoError(t, err)
	assert.True(t, os.SameFile(info, again), "reacquire locks the same file")

	third := ForDir(lockDir, "out")
	assert.ErrorIs(t, third.Acquire(), ErrLocked)
}

func TestWithLock(t *testing.T) {
	lockDir := t.TempDir()

	executed := false
	err := WithLock(lockDir, "out", func() error {
		executed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestWithLock_Blocked(t *testing.T) {
	lockDir := t.TempDir()
	held := ForDir(lockDir, "out")
	require.NoError(t, held.Acquire())
	defer held.Release()

	err := WithLock(lockDir, "out", func() error {
		t.Fatal("must not run while locked")
		return nil
	})
	assert.ErrorIs(t, err, ErrLocked)
}
