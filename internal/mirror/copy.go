package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const tempFilePattern = ".syftmirror-*.tmp"

// copyFile copies the content, permissions and modification time of src to
// dst. Bytes go to a temp file next to dst which is renamed over dst only
// once it is complete, so an interrupted copy never leaves a torn file behind.
func copyFile(fs afero.Fs, src, dst string, srcInfo os.FileInfo, chunkSize int) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp, err := afero.TempFile(fs, filepath.Dir(dst), tempFilePattern)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.CopyBuffer(onlyWriter{tmp}, onlyReader{in}, make([]byte, chunkSize))
	if err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return 0, fmt.Errorf("write %s: %w", tmpPath, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return 0, fmt.Errorf("flush %s: %w", tmpPath, err)
	}

	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return 0, fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := fs.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		fs.Remove(tmpPath)
		return 0, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}

	// Chtimes must run after Close, otherwise the final flush bumps mtime
	modTime := srcInfo.ModTime()
	if err := fs.Chtimes(tmpPath, modTime, modTime); err != nil {
		fs.Remove(tmpPath)
		return 0, fmt.Errorf("chtimes %s: %w", tmpPath, err)
	}

	if err := fs.Rename(tmpPath, dst); err != nil {
		fs.Remove(tmpPath)
		return 0, fmt.Errorf("rename %s: %w", tmpPath, err)
	}

	return written, nil
}

type onlyWriter struct {
	io.Writer
}
