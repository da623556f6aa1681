package mirror

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/openmined/syftmirror/internal/utils"
)

// ReplicaLock keeps two syftmirror processes from writing into the same
// replica. The lock file lives next to the replica root, never inside it,
// so it is not an orphan.
type ReplicaLock struct {
	flock *flock.Flock
}

func NewReplicaLock(replicaDir string) *ReplicaLock {
	replicaDir = filepath.Clean(replicaDir)
	lockPath := filepath.Join(filepath.Dir(replicaDir), "."+filepath.Base(replicaDir)+".syftmirror.lock")
	return &ReplicaLock{flock: flock.New(lockPath)}
}

func (l *ReplicaLock) Path() string {
	return l.flock.Path()
}

func (l *ReplicaLock) Lock() error {
	if err := utils.EnsureParent(l.flock.Path()); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock replica: %w", err)
	}
	if !locked {
		return ErrReplicaLocked
	}
	return nil
}

func (l *ReplicaLock) Unlock() error {
	// not ours to remove
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock replica: %w", err)
	}
	return os.Remove(l.flock.Path())
}
