// Package config provides XDG path helpers and the TOML configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/constants"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigDir holds the config file, logs and instance lockfiles.
func DefaultConfigDir() string {
	return filepath.Join(XDGConfigHome(), constants.AppName)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// DefaultDataDir holds the state file or database and backups.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), constants.AppName)
}

// DefaultStatePath returns the default JSON state file path.
func DefaultStatePath() string {
	return filepath.Join(DefaultDataDir(), constants.DefaultStateFileName)
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), constants.DefaultDBFileName)
}

// DefaultBackupDir returns the default backup directory.
func DefaultBackupDir() string {
	return filepath.Join(DefaultDataDir(), constants.BackupDirName)
}
