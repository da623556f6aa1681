package mirror

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicaLock(t *testing.T) {
	replica := filepath.Join(t.TempDir(), "replica")

	first := NewReplicaLock(replica)
	assert.Equal(t, filepath.Join(filepath.Dir(replica), ".replica.syftmirror.lock"), first.Path())
	require.NoError(t, first.Lock())

	second := NewReplicaLock(replica)
	assert.ErrorIs(t, second.Lock(), ErrReplicaLocked)
	// unlocking a lock we never held is a no-op
	assert.NoError(t, second.Unlock())
	assert.FileExists(t, first.Path())

	require.NoError(t, first.Unlock())
	assert.NoFileExists(t, first.Path())

	require.NoError(t, second.Lock())
	require.NoError(t, second.Unlock())
}
