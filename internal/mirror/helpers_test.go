package mirror

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmined/syftmirror/internal/logging"
)

var errInjected = errors.New("injected failure")

func testLogger() *slog.Logger {
	return logging.NewNop()
}

// faultyFs fails selected operations on selected paths.
type faultyFs struct {
	afero.Fs
	failOpen   map[string]bool
	failRemove map[string]bool
	failRename bool
}

func newFaultyFs() *faultyFs {
	return &faultyFs{
		Fs:         afero.NewOsFs(),
		failOpen:   map[string]bool{},
		failRemove: map[string]bool{},
	}
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	if f.failOpen[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: errInjected}
	}
	return f.Fs.Open(name)
}

func (f *faultyFs) Remove(name string) error {
	if f.failRemove[name] {
		return &os.PathError{Op: "remove", Path: name, Err: errInjected}
	}
	return f.Fs.Remove(name)
}

func (f *faultyFs) RemoveAll(name string) error {
	if f.failRemove[name] {
		return &os.PathError{Op: "removeall", Path: name, Err: errInjected}
	}
	return f.Fs.RemoveAll(name)
}

func (f *faultyFs) Rename(oldname, newname string) error {
	if f.failRename {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errInjected}
	}
	return f.Fs.Rename(oldname, newname)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// assertMirrored checks both directions of the mirror invariant.
func assertMirrored(t *testing.T, source, replica string) {
	t.Helper()

	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		rel, err := filepath.Rel(source, path)
		require.NoError(t, err)
		counterpart := filepath.Join(replica, rel)

		// symlinks are mirrored as what they point to
		sourceInfo, err := os.Stat(path)
		require.NoError(t, err)

		info, err := os.Stat(counterpart)
		if !assert.NoError(t, err, "missing in replica: %s", rel) {
			return nil
		}
		assert.Equal(t, sourceInfo.IsDir(), info.IsDir(), "kind mismatch: %s", rel)
		if !sourceInfo.IsDir() {
			assert.Equal(t, readFile(t, path), readFile(t, counterpart), "content mismatch: %s", rel)
		}
		return nil
	})
	require.NoError(t, err)

	err = filepath.WalkDir(replica, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		rel, err := filepath.Rel(replica, path)
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(source, rel))
		assert.NoError(t, err, "extra entry in replica: %s", rel)
		return nil
	})
	require.NoError(t, err)
}

func newTestDirs(t *testing.T) (string, string) {
	root := t.TempDir()
	return filepath.Join(root, "source"), filepath.Join(root, "replica")
}

func isWindows() bool {
	return runtime.GOOS == "windows"
}
