package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/afero"
)

type Options struct {
	// ChunkSize is the buffer size used for hashing and copying.
	ChunkSize int
	// QuickCheck skips hashing when size and mtime match.
	QuickCheck bool
	// CreateMissingSource creates an empty source root instead of failing.
	CreateMissingSource bool
	// Ignore holds gitignore patterns relative to the source root.
	Ignore []string
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:           DefaultChunkSize,
		CreateMissingSource: true,
	}
}

// Reconciler converges a replica directory tree onto a source tree.
type Reconciler struct {
	fs       afero.Fs
	detector *ChangeDetector
	logger   *slog.Logger
	opts     Options
}

func NewReconciler(fs afero.Fs, logger *slog.Logger, opts Options) *Reconciler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Reconciler{
		fs:       fs,
		detector: NewChangeDetector(fs, opts.ChunkSize, opts.QuickCheck),
		logger:   logger,
		opts:     opts,
	}
}

// pass carries the state shared by every level of one Reconcile call.
type pass struct {
	*Reconciler
	ctx    context.Context
	ignore *IgnoreList

	// source directories on the current descent path, used to detect
	// directory symlinks that loop back on themselves
	ancestors []os.FileInfo
}

// Reconcile runs one pass over sourceDir and replicaDir. Failures on single
// entries or directory levels are recorded in the returned stats and do not
// stop the pass. The only error returned is ctx's, in which case the stats
// describe the work done before cancellation.
func (r *Reconciler) Reconcile(ctx context.Context, sourceDir, replicaDir string) (*SyncStats, error) {
	ignore := NewIgnoreList(r.fs, sourceDir, r.opts.Ignore, r.logger)
	ignore.Load()

	p := &pass{Reconciler: r, ctx: ctx, ignore: ignore}
	return p.syncDir(sourceDir, replicaDir, "")
}

func (p *pass) syncDir(sourceDir, replicaDir, rel string) (*SyncStats, error) {
	stats := NewSyncStats()

	if err := p.ensureSourceDir(sourceDir); err != nil {
		p.fail(stats, newEntryError(AccessError, sourceDir, err))
		return stats, nil
	}
	if err := p.ensureDir(replicaDir); err != nil {
		p.fail(stats, newEntryError(AccessError, replicaDir, err))
		return stats, nil
	}

	if info, err := p.fs.Stat(sourceDir); err == nil {
		p.ancestors = append(p.ancestors, info)
		defer func() { p.ancestors = p.ancestors[:len(p.ancestors)-1] }()
	}

	sourceEntries, err := afero.ReadDir(p.fs, sourceDir)
	if err != nil {
		p.fail(stats, newEntryError(AccessError, sourceDir, fmt.Errorf("list: %w", err)))
		return stats, nil
	}
	replicaEntries, err := afero.ReadDir(p.fs, replicaDir)
	if err != nil {
		p.fail(stats, newEntryError(AccessError, replicaDir, fmt.Errorf("list: %w", err)))
		return stats, nil
	}

	sourceNames := mapset.NewThreadUnsafeSetWithSize[string](len(sourceEntries))
	for _, entry := range sourceEntries {
		sourceNames.Add(entry.Name())
	}

	for _, entry := range replicaEntries {
		if sourceNames.Contains(entry.Name()) {
			continue
		}
		if err := p.ctx.Err(); err != nil {
			return stats, err
		}
		// leftovers of an interrupted copy are always ours to clean up
		if !isTempFile(entry) && p.ignore.ShouldIgnore(filepath.Join(rel, entry.Name()), entry.IsDir()) {
			continue
		}
		p.removeOrphan(filepath.Join(replicaDir, entry.Name()), entry, stats)
	}

	for _, entry := range sourceEntries {
		if err := p.ctx.Err(); err != nil {
			return stats, err
		}
		if err := p.syncEntry(entry, sourceDir, replicaDir, rel, stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (p *pass) syncEntry(entry os.FileInfo, sourceDir, replicaDir, rel string, stats *SyncStats) error {
	sourcePath := filepath.Join(sourceDir, entry.Name())
	replicaPath := filepath.Join(replicaDir, entry.Name())
	relPath := filepath.Join(rel, entry.Name())

	info := entry
	if entry.Mode()&os.ModeSymlink != 0 {
		resolved, err := p.fs.Stat(sourcePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = ErrDanglingLink
			}
			if !p.ignore.ShouldIgnore(relPath, false) {
				p.fail(stats, newEntryError(AccessError, sourcePath, err))
			}
			return nil
		}
		if resolved.IsDir() && p.onDescentPath(resolved) {
			if !p.ignore.ShouldIgnore(relPath, true) {
				p.fail(stats, newEntryError(AccessError, sourcePath, ErrSymlinkCycle))
			}
			return nil
		}
		info = resolved
	}

	if p.ignore.ShouldIgnore(relPath, info.IsDir()) {
		return nil
	}

	switch {
	case info.IsDir():
		if err := p.prepareReplicaDir(replicaPath, stats); err != nil {
			p.fail(stats, err)
			return nil
		}
		child, err := p.syncDir(sourcePath, replicaPath, relPath)
		stats.Merge(child)
		return err

	case info.Mode().IsRegular():
		p.syncFile(sourcePath, replicaPath, info, stats)
		return nil

	default:
		p.logger.Debug("skipping special file", "path", sourcePath, "mode", info.Mode().String())
		return nil
	}
}

func (p *pass) syncFile(sourcePath, replicaPath string, info os.FileInfo, stats *SyncStats) {
	replicaInfo, err := p.lstat(replicaPath)
	existed := err == nil

	if existed && replicaInfo.IsDir() {
		if err := p.fs.RemoveAll(replicaPath); err != nil {
			p.fail(stats, newEntryError(RemoveError, replicaPath, err))
			return
		}
		p.logger.Info("removed directory replaced by file", "path", replicaPath)
	}

	needsCopy, err := p.detector.NeedsCopy(sourcePath, replicaPath)
	if err != nil {
		p.fail(stats, newEntryError(HashError, sourcePath, err))
		return
	}
	if !needsCopy {
		return
	}

	n, err := copyFile(p.fs, sourcePath, replicaPath, info, p.opts.ChunkSize)
	if err != nil {
		p.fail(stats, newEntryError(CopyError, sourcePath, err))
		return
	}
	stats.BytesCopied += n

	if existed {
		stats.Updated++
		p.logger.Info("updated file", "source", sourcePath, "replica", replicaPath, "size", n)
	} else {
		stats.Copied++
		p.logger.Info("copied file", "source", sourcePath, "replica", replicaPath, "size", n)
	}
}

// onDescentPath reports whether dir is one of the source directories the
// pass is currently inside.
func (p *pass) onDescentPath(dir os.FileInfo) bool {
	for _, ancestor := range p.ancestors {
		if os.SameFile(ancestor, dir) {
			return true
		}
	}
	return false
}

func isTempFile(entry os.FileInfo) bool {
	if entry.IsDir() {
		return false
	}
	ok, _ := filepath.Match(tempFilePattern, entry.Name())
	return ok
}

func (p *pass) removeOrphan(path string, entry os.FileInfo, stats *SyncStats) {
	if entry.IsDir() {
		if err := p.fs.RemoveAll(path); err != nil {
			p.fail(stats, newEntryError(RemoveError, path, err))
			return
		}
		p.logger.Info("removed directory", "path", path)
	} else {
		if err := p.fs.Remove(path); err != nil {
			p.fail(stats, newEntryError(RemoveError, path, err))
			return
		}
		p.logger.Info("removed file", "path", path)
	}
	stats.Deleted++
}

// prepareReplicaDir makes sure path is a directory, replacing a file that
// sits where the source now has a directory.
func (p *pass) prepareReplicaDir(path string, stats *SyncStats) error {
	info, err := p.lstat(path)
	if err == nil && !info.IsDir() {
		if err := p.fs.Remove(path); err != nil {
			return newEntryError(RemoveError, path, err)
		}
		stats.Deleted++
		p.logger.Info("removed file replaced by directory", "path", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return newEntryError(AccessError, path, err)
	}

	if err := p.ensureDir(path); err != nil {
		return newEntryError(AccessError, path, err)
	}
	return nil
}

func (p *pass) ensureSourceDir(path string) error {
	if p.opts.CreateMissingSource {
		return p.ensureDir(path)
	}
	info, err := p.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrSourceMissing
	} else if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func (p *pass) ensureDir(path string) error {
	info, err := p.fs.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	p.logger.Info("creating missing directory", "path", path)
	return p.fs.MkdirAll(path, 0o755)
}

func (p *pass) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := p.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return p.fs.Stat(path)
}

func (p *pass) fail(stats *SyncStats, err error) {
	var entryErr *EntryError
	if !errors.As(err, &entryErr) {
		entryErr = &EntryError{Kind: AccessError, Err: err}
	}
	stats.addFailure(entryErr)
	p.logger.Error("sync error", "kind", entryErr.Kind.String(), "path", entryErr.Path, "error", entryErr.Err)
}
