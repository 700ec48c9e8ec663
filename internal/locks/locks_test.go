package locks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockRepo_CreatesLockFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ryu")

	lock, err := LockRepo(dir)
	require.NoError(t, err)
	defer lock.Unlock()

	content, err := os.ReadFile(filepath.Join(dir, "lock"))
	require.NoError(t, err)
	require.NotEmpty(t, content, "lock file should record the holder PID")
}

func TestLockRepo_SecondLockFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ryu")

	first, err := LockRepo(dir)
	require.NoError(t, err)
	defer first.Unlock()

	_, err = LockRepo(dir)
	require.Error(t, err, "a second exclusive lock on the same repo must fail")
}

func TestUnlock_RemovesLockFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ryu")

	lock, err := LockRepo(dir)
	require.NoError(t, err)
	lock.Unlock()

	_, err = os.Stat(filepath.Join(dir, "lock"))
	require.True(t, os.IsNotExist(err))

	// Lock can be re-acquired after release.
	again, err := LockRepo(dir)
	require.NoError(t, err)
	again.Unlock()
}
