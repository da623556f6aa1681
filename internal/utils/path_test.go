package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{name: "empty path", input: "", wantError: true},
		{name: "blank path", input: "   ", wantError: true},
		{name: "relative path", input: "./test", want: filepath.Join(cwd, "test")},
		{name: "dot dot", input: "a/../b", want: filepath.Join(cwd, "b")},
		{name: "home", input: "~", want: home},
		{name: "home relative", input: "~/mirror", want: filepath.Join(home, "mirror")},
		{name: "tilde inside name", input: "x~y", want: filepath.Join(cwd, "x~y")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolvePath(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestIsSubPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "data")

	assert.True(t, IsSubPath(root, filepath.Join(root, "a")))
	assert.True(t, IsSubPath(root, filepath.Join(root, "a", "b")))
	assert.False(t, IsSubPath(root, root))
	assert.False(t, IsSubPath(root, filepath.Join(string(filepath.Separator), "data2")))
	assert.False(t, IsSubPath(root, filepath.Join(string(filepath.Separator), "other", "a")))
	assert.False(t, IsSubPath(filepath.Join(root, "a"), root))
	assert.True(t, IsSubPath(root, filepath.Join(root, "..dots")))
}

func TestEnsureDirAndParent(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")

	require.NoError(t, EnsureDir(dir))
	assert.DirExists(t, dir)
	require.NoError(t, EnsureDir(dir))

	file := filepath.Join(base, "c", "d", "file.txt")
	require.NoError(t, EnsureParent(file))
	assert.DirExists(t, filepath.Dir(file))
	assert.NoFileExists(t, file)
}
