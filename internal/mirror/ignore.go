package mirror

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

// IgnoreFileName is read from the source root, one gitignore pattern per line.
const IgnoreFileName = ".syftmirrorignore"

// IgnoreList holds gitignore-style patterns evaluated against paths relative
// to the source root. Matching entries are neither copied nor deleted.
type IgnoreList struct {
	fs       afero.Fs
	baseDir  string
	patterns []string
	ignore   *gitignore.GitIgnore
	logger   *slog.Logger
}

func NewIgnoreList(fs afero.Fs, baseDir string, patterns []string, logger *slog.Logger) *IgnoreList {
	if logger == nil {
		logger = slog.Default()
	}
	return &IgnoreList{fs: fs, baseDir: baseDir, patterns: patterns, logger: logger}
}

// Load compiles the configured patterns plus the ignore file, if present.
// It is called at the start of every pass so edits to the ignore file are
// picked up without a restart.
func (s *IgnoreList) Load() {
	lines := append([]string{}, s.patterns...)

	ignorePath := filepath.Join(s.baseDir, IgnoreFileName)
	file, err := s.fs.Open(ignorePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to open ignore file", "path", ignorePath, "error", err)
	}
	if err == nil {
		defer file.Close()

		rules := 0
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				lines = append(lines, line)
				rules++
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.Warn("error reading ignore file", "path", ignorePath, "error", err)
		} else {
			s.logger.Debug("loaded ignore file", "path", ignorePath, "rules", rules)
		}
	}

	if len(lines) == 0 {
		s.ignore = nil
		return
	}
	s.ignore = gitignore.CompileIgnoreLines(lines...)
}

// ShouldIgnore reports whether relPath (relative to the source root) is
// excluded. isDir lets directory-only patterns such as "build/" match.
func (s *IgnoreList) ShouldIgnore(relPath string, isDir bool) bool {
	if s == nil || s.ignore == nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if s.ignore.MatchesPath(relPath) {
		return true
	}
	return isDir && s.ignore.MatchesPath(relPath+"/")
}
