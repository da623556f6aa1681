package mirror

import (
	"errors"
	"fmt"
)

var (
	ErrSourceMissing = errors.New("source directory does not exist")
	ErrReplicaLocked = errors.New("replica locked by another process")
	ErrSymlinkCycle  = errors.New("symlink points back into its own ancestry")
	ErrDanglingLink  = errors.New("symlink target does not exist")
)

// ErrorKind classifies a failure recorded against a single entry or
// directory level during a pass.
type ErrorKind int

const (
	// AccessError means a directory could not be created, stat'ed or listed.
	AccessError ErrorKind = iota
	// CopyError means a file could not be written to the replica.
	CopyError
	// RemoveError means an orphan could not be removed from the replica.
	RemoveError
	// HashError means a file could not be read while fingerprinting it.
	HashError
)

func (k ErrorKind) String() string {
	switch k {
	case AccessError:
		return "access"
	case CopyError:
		return "copy"
	case RemoveError:
		return "remove"
	case HashError:
		return "hash"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// EntryError is a failure attached to the path it happened on.
type EntryError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func newEntryError(kind ErrorKind, path string, err error) *EntryError {
	// keep the innermost classification when a detector error bubbles up
	var inner *EntryError
	if errors.As(err, &inner) {
		return inner
	}
	return &EntryError{Kind: kind, Path: path, Err: err}
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s error on %s: %v", e.Kind, e.Path, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
