package locks

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/pkg/errors"
)

// A RepoLock protects the repo's ryu state against concurrent ryu invocations.
// The lock is an flock on a file under the resolved repo metadata directory,
// so separate processes exclude each other, not just goroutines.
type RepoLock struct {
	path string
	file *os.File
}

// LockRepo acquires an exclusive non-blocking lock for the given ryu metadata
// directory, creating the directory if needed.
func LockRepo(ryuDir string) (*RepoLock, error) {
	if err := os.MkdirAll(ryuDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", ryuDir)
	}
	path := filepath.Join(ryuDir, "lock")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "open lock file")
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "another ryu command is running in this repo")
	}

	// Record the holder's PID for debugging stuck locks.
	if err := f.Truncate(0); err == nil {
		if _, err := f.Seek(0, 0); err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Sync()
		}
	}

	logs.Debug("repo lock acquired: %s", path)
	return &RepoLock{path: path, file: f}, nil
}

// Unlock releases the lock and removes the lock file.
func (l *RepoLock) Unlock() {
	if l == nil || l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
	logs.Debug("repo lock released: %s", l.path)
}
