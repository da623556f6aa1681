package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmined/syftmirror/internal/config"
)

const (
	envPrefix      = "SYFTMIRROR"
	configFileName = "config"
)

var home, _ = os.UserHomeDir()

// loadConfig layers positional args over flags, env, config file and
// defaults, in that order of precedence.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("expected 4 arguments, got %d", len(args))
	}

	v := viper.New()
	defaults := config.Default()
	v.SetDefault("chunk_size", defaults.ChunkSize)
	v.SetDefault("quick_check", defaults.QuickCheck)
	v.SetDefault("create_missing_source", defaults.CreateMissingSource)
	v.SetDefault("ignore", []string{})
	v.SetDefault("log_max_size_mb", defaults.LogMaxSizeMB)
	v.SetDefault("log_max_backups", defaults.LogMaxBackups)
	v.SetDefault("log_level", defaults.LogLevel)

	if flag := cmd.Flag("config"); flag != nil && flag.Changed {
		v.SetConfigFile(flag.Value.String())
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "syftmirror"))
		v.AddConfigPath(filepath.Join(home, ".syftmirror"))
		v.SetConfigName(configFileName)
	}

	configPath := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	} else {
		configPath = v.ConfigFileUsed()
	}

	bindings := map[string]string{
		"quick_check": "quick-check",
		"chunk_size":  "chunk-size",
		"ignore":      "ignore",
		"log_level":   "log-level",
	}
	for key, flagName := range bindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	seconds, err := strconv.Atoi(args[3])
	if err != nil || seconds <= 0 {
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidInterval, args[3])
	}

	return &config.Config{
		SourceDir:           args[0],
		ReplicaDir:          args[1],
		LogFile:             args[2],
		Interval:            time.Duration(seconds) * time.Second,
		ChunkSize:           v.GetInt("chunk_size"),
		QuickCheck:          v.GetBool("quick_check"),
		CreateMissingSource: v.GetBool("create_missing_source"),
		Ignore:              v.GetStringSlice("ignore"),
		LogMaxSizeMB:        v.GetInt("log_max_size_mb"),
		LogMaxBackups:       v.GetInt("log_max_backups"),
		LogLevel:            v.GetString("log_level"),
		Path:                configPath,
	}, nil
}
