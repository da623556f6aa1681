package mirror

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

const DefaultChunkSize = 4096

// ChangeDetector decides whether a source file differs from its replica
// counterpart. Equality is decided by the md5 of the whole content; size is
// only ever used to prove a difference.
type ChangeDetector struct {
	fs        afero.Fs
	chunkSize int

	// quickCheck treats equal size and mtime as equal content, skipping the
	// hash. Off unless the operator asks for it.
	quickCheck bool
}

func NewChangeDetector(fs afero.Fs, chunkSize int, quickCheck bool) *ChangeDetector {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChangeDetector{fs: fs, chunkSize: chunkSize, quickCheck: quickCheck}
}

// NeedsCopy returns true if replicaPath is missing, is not a regular file, or
// has different content than sourcePath.
func (d *ChangeDetector) NeedsCopy(sourcePath, replicaPath string) (bool, error) {
	replicaInfo, err := d.fs.Stat(replicaPath)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	} else if err != nil {
		return false, newEntryError(HashError, replicaPath, err)
	}
	if !replicaInfo.Mode().IsRegular() {
		return true, nil
	}

	sourceInfo, err := d.fs.Stat(sourcePath)
	if err != nil {
		return false, newEntryError(HashError, sourcePath, err)
	}

	if sourceInfo.Size() != replicaInfo.Size() {
		return true, nil
	}

	if d.quickCheck && sourceInfo.ModTime().Equal(replicaInfo.ModTime()) {
		return false, nil
	}

	sourceSum, err := d.Fingerprint(sourcePath)
	if err != nil {
		return false, err
	}
	replicaSum, err := d.Fingerprint(replicaPath)
	if err != nil {
		return false, err
	}

	return sourceSum != replicaSum, nil
}

// Fingerprint streams the file through md5 in chunkSize reads and returns the
// hex digest.
func (d *ChangeDetector) Fingerprint(path string) (string, error) {
	file, err := d.fs.Open(path)
	if err != nil {
		return "", newEntryError(HashError, path, fmt.Errorf("open: %w", err))
	}
	defer file.Close()

	h := md5.New()
	buf := make([]byte, d.chunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{file}, buf); err != nil {
		return "", newEntryError(HashError, path, fmt.Errorf("read: %w", err))
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// onlyReader hides WriterTo/ReaderFrom so io.CopyBuffer honours the buffer
// size instead of delegating to the file implementation.
type onlyReader struct {
	io.Reader
}
