package mirror

import (
	"log/slog"
)

// SyncStats counts what a pass did. Child directory results are rolled into
// the parent with Merge, so a pass ends up with one SyncStats for the tree.
type SyncStats struct {
	Copied      int   `json:"copied"`
	Updated     int   `json:"updated"`
	Deleted     int   `json:"deleted"`
	Errors      int   `json:"errors"`
	BytesCopied int64 `json:"bytesCopied"`

	Failures []*EntryError `json:"-"`
}

func NewSyncStats() *SyncStats {
	return &SyncStats{}
}

// Merge adds other into s field by field. A nil other is the zero value.
func (s *SyncStats) Merge(other *SyncStats) *SyncStats {
	if other == nil {
		return s
	}
	s.Copied += other.Copied
	s.Updated += other.Updated
	s.Deleted += other.Deleted
	s.Errors += other.Errors
	s.BytesCopied += other.BytesCopied
	s.Failures = append(s.Failures, other.Failures...)
	return s
}

func (s *SyncStats) addFailure(err *EntryError) {
	s.Errors++
	s.Failures = append(s.Failures, err)
}

// Clean reports whether the pass finished without any error.
func (s *SyncStats) Clean() bool {
	return s.Errors == 0
}

// HasChanges reports whether the pass touched the replica.
func (s *SyncStats) HasChanges() bool {
	return s.Copied+s.Updated+s.Deleted > 0
}

// Counts returns the four pass counters in copied, updated, deleted, errors
// order.
func (s *SyncStats) Counts() [4]int {
	return [4]int{s.Copied, s.Updated, s.Deleted, s.Errors}
}

func (s *SyncStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("copied", s.Copied),
		slog.Int("updated", s.Updated),
		slog.Int("deleted", s.Deleted),
		slog.Int("errors", s.Errors),
	)
}
