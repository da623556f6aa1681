package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openmined/syftmirror/internal/mirror"
	"github.com/openmined/syftmirror/internal/utils"
)

const (
	DefaultLogMaxSizeMB  = 1
	DefaultLogMaxBackups = 5
	DefaultLogLevel      = "info"
)

var (
	ErrInvalidInterval  = errors.New("interval must be a positive number of seconds")
	ErrOverlappingPaths = errors.New("paths overlap")
)

type Config struct {
	SourceDir           string        `json:"source"`
	ReplicaDir          string        `json:"replica"`
	LogFile             string        `json:"log_file"`
	Interval            time.Duration `json:"interval"`
	ChunkSize           int           `json:"chunk_size"`
	QuickCheck          bool          `json:"quick_check"`
	CreateMissingSource bool          `json:"create_missing_source"`
	Ignore              []string      `json:"ignore"`
	LogMaxSizeMB        int           `json:"log_max_size_mb"`
	LogMaxBackups       int           `json:"log_max_backups"`
	LogLevel            string        `json:"log_level"`
	Path                string        `json:"-"`
}

// Default returns a Config with everything but the paths and interval set.
func Default() *Config {
	return &Config{
		ChunkSize:           mirror.DefaultChunkSize,
		CreateMissingSource: true,
		LogMaxSizeMB:        DefaultLogMaxSizeMB,
		LogMaxBackups:       DefaultLogMaxBackups,
		LogLevel:            DefaultLogLevel,
	}
}

// Validate resolves all paths to absolute ones and rejects settings that
// would make the mirror destroy its own inputs.
func (c *Config) Validate() error {
	var err error

	if c.SourceDir, err = utils.ResolvePath(c.SourceDir); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if c.ReplicaDir, err = utils.ResolvePath(c.ReplicaDir); err != nil {
		return fmt.Errorf("replica: %w", err)
	}
	if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	if c.Path != "" {
		if c.Path, err = utils.ResolvePath(c.Path); err != nil {
			return fmt.Errorf("config path: %w", err)
		}
	}

	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Interval%time.Second != 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, c.Interval)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.LogMaxSizeMB <= 0 {
		return fmt.Errorf("log max size must be positive, got %d", c.LogMaxSizeMB)
	}
	if c.LogMaxBackups < 0 {
		return fmt.Errorf("log max backups cannot be negative, got %d", c.LogMaxBackups)
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	if c.SourceDir == c.ReplicaDir {
		return fmt.Errorf("%w: source and replica are both %s", ErrOverlappingPaths, c.SourceDir)
	}
	if utils.IsSubPath(c.SourceDir, c.ReplicaDir) {
		return fmt.Errorf("%w: replica %s is inside source %s", ErrOverlappingPaths, c.ReplicaDir, c.SourceDir)
	}
	if utils.IsSubPath(c.ReplicaDir, c.SourceDir) {
		return fmt.Errorf("%w: source %s is inside replica %s", ErrOverlappingPaths, c.SourceDir, c.ReplicaDir)
	}
	// anything under the replica that is not in source gets deleted
	if utils.IsSubPath(c.ReplicaDir, c.LogFile) {
		return fmt.Errorf("%w: log file %s is inside replica %s", ErrOverlappingPaths, c.LogFile, c.ReplicaDir)
	}

	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func (c *Config) MirrorOptions() mirror.Options {
	return mirror.Options{
		ChunkSize:           c.ChunkSize,
		QuickCheck:          c.QuickCheck,
		CreateMissingSource: c.CreateMissingSource,
		Ignore:              append([]string{}, c.Ignore...),
	}
}
