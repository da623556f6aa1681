package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/openmined/syftmirror/internal/config"
	"github.com/openmined/syftmirror/internal/logging"
	"github.com/openmined/syftmirror/internal/mirror"
	"github.com/openmined/syftmirror/internal/version"
)

var errPassHadErrors = errors.New("synchronization finished with errors")

func newRootCmd() *cobra.Command {
	var once bool
	var asJSON bool

	rootCmd := &cobra.Command{
		Use:     "syftmirror <source> <replica> <log_file> <interval_seconds>",
		Short:   "Keep a replica directory an exact copy of a source directory",
		Version: version.Detailed(),
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// all good now, don't print usage for runtime failures
			cmd.SilenceUsage = true
			return runMirror(cmd, cfg, once, asJSON)
		},
	}

	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "With --once, print the pass report as JSON")
	rootCmd.Flags().Bool("quick-check", false, "Treat files with equal size and mtime as unchanged without hashing")
	rootCmd.Flags().Int("chunk-size", mirror.DefaultChunkSize, "Buffer size in bytes used for hashing and copying")
	rootCmd.Flags().StringSlice("ignore", nil, "gitignore-style pattern to leave alone on both sides (repeatable)")
	rootCmd.Flags().String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Optional config file (json, yaml or toml)")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func runMirror(cmd *cobra.Command, cfg *config.Config, once, asJSON bool) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	// keep stdout clean for the JSON report
	console := os.Stdout
	if once && asJSON {
		console = os.Stderr
	}

	logger, closer, err := logging.New(logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Level:      level,
		Console:    console,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closer.Close()

	logger.Info("syftmirror", "version", version.Version, "revision", version.Revision, "build", version.BuildDate)
	if cfg.Path != "" {
		logger.Info("using config", "path", cfg.Path)
	}

	lock := mirror.NewReplicaLock(cfg.ReplicaDir)
	if err := lock.Lock(); err != nil {
		logger.Error("failed to lock replica", "path", lock.Path(), "error", err)
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release replica lock", "path", lock.Path(), "error", err)
		}
	}()

	reconciler := mirror.NewReconciler(afero.NewOsFs(), logger, cfg.MirrorOptions())
	driver := mirror.NewDriver(reconciler, mirror.DriverConfig{
		SourceDir:  cfg.SourceDir,
		ReplicaDir: cfg.ReplicaDir,
		Interval:   cfg.Interval,
		Logger:     logger,
	})

	if !once {
		return driver.Run(cmd.Context())
	}

	report, err := driver.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	if err := printReport(cmd.OutOrStdout(), report, asJSON); err != nil {
		return err
	}
	if !report.Stats.Clean() {
		return errPassHadErrors
	}
	return nil
}
