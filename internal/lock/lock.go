// Package lock provides inter-process locks that serialize writers of one
// output directory.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked indicates another process holds the lock.
var ErrLocked = errors.New("output directory is in use by another process")

// Lock is a file lock guarding one directory. The lock file lives outside
// the guarded directory so a held lock never shows up in rendered output.
type Lock struct {
	dir  string
	path string
	file *os.File
}

// ForDir returns a lock guarding dir, with its lock file in lockDir.
// An empty lockDir means os.TempDir().
func ForDir(lockDir, dir string) *Lock {
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	sum := sha256.Sum256([]byte(abs))
	name := "dockergen-" + hex.EncodeToString(sum[:8]) + ".lock"
	return &Lock{dir: abs, path: filepath.Join(lockDir, name)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. It returns an error wrapping
// ErrLocked if another process holds it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	held, err := tryLock(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !held {
		f.Close()
		return fmt.Errorf("%w: %s", ErrLocked, l.dir)
	}

	// PID for debugging
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d %s\n", os.Getpid(), l.dir)

	l.file = f
	return nil
}

// Release releases the lock. The lock file stays in place: removing it after
// unlocking would let two processes lock different inodes for one path.
// Releasing a lock that is not held is a no-op.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	err := unlock(l.file)
	l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// WithLock runs fn while holding the lock for dir.
func WithLock(lockDir, dir string, fn func() error) error {
	l := ForDir(lockDir, dir)
	if err := l.Acquire(); err != nil {
		return err
	}
	defer l.Release()

	return fn()
}
