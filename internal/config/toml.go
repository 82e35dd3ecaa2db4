package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/utils"
)

// FileConfig represents the TOML configuration file. Pointer fields
// distinguish an absent key from a zero value.
type FileConfig struct {
	Storage StorageConfig `toml:"storage"`
	App     AppConfig     `toml:"app"`
	Backup  BackupConfig  `toml:"backup"`
}

// StorageConfig maps the persistence medium.
type StorageConfig struct {
	Backend      *string `toml:"backend"`
	Path         *string `toml:"path"`
	Key          *string `toml:"key"`
	URL          *string `toml:"url"`
	PollInterval *string `toml:"poll-interval"`
}

// AppConfig maps general settings.
type AppConfig struct {
	Timezone *string `toml:"timezone"`
	Debug    *bool   `toml:"debug"`
}

// BackupConfig maps backup retention.
type BackupConfig struct {
	Dir *string `toml:"dir"`
	Max *int    `toml:"max"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// WriteDefault writes the resolved settings as a starting config file.
// An existing file is left untouched and false is returned.
func WriteDefault(path string, s Settings) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return false, fmt.Errorf("failed to create config: %w", err)
	}
	defer f.Close()

	poll := s.PollInterval.String()
	cfg := FileConfig{
		Storage: StorageConfig{Backend: &s.Backend, Key: &s.Key, PollInterval: &poll},
		App:     AppConfig{Timezone: &s.Timezone, Debug: &s.Debug},
		Backup:  BackupConfig{Dir: &s.BackupDir, Max: &s.MaxBackups},
	}
	if s.Path != "" {
		cfg.Storage.Path = &s.Path
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return false, fmt.Errorf("failed to encode config: %w", err)
	}
	return true, nil
}

// Settings is the configuration after defaults and overrides are applied.
type Settings struct {
	ConfigDir    string
	Backend      string
	Path         string
	Key          string
	URL          string
	PollInterval time.Duration
	Timezone     string
	Debug        bool
	BackupDir    string
	MaxBackups   int
}

// Overrides carries command-line flags; empty values defer to the file.
type Overrides struct {
	Backend  string
	Path     string
	Timezone string
	Debug    bool
}

// Resolve merges defaults, the file and the overrides, in that order.
func Resolve(file FileConfig, ov Overrides) (Settings, error) {
	s := Settings{
		ConfigDir:    DefaultConfigDir(),
		Backend:      constants.BackendJSON,
		Key:          constants.StateKey,
		PollInterval: constants.DefaultPollInterval,
		Timezone:     "Local",
		BackupDir:    DefaultBackupDir(),
		MaxBackups:   constants.MaxBackups,
	}

	if v := file.Storage.Backend; v != nil {
		s.Backend = *v
	}
	if ov.Backend != "" {
		s.Backend = ov.Backend
	}
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case constants.BackendJSON, constants.BackendSQLite, constants.BackendPostgres,
		constants.BackendRedis, constants.BackendMemory:
	default:
		return Settings{}, fmt.Errorf("unknown storage backend %q", s.Backend)
	}

	if v := file.Storage.Path; v != nil {
		s.Path = *v
	}
	if ov.Path != "" {
		s.Path = ov.Path
	}
	if s.Path == "" {
		switch s.Backend {
		case constants.BackendJSON:
			s.Path = DefaultStatePath()
		case constants.BackendSQLite:
			s.Path = DefaultDBPath()
		}
	}
	s.Path = expandHome(s.Path)

	if v := file.Storage.Key; v != nil && strings.TrimSpace(*v) != "" {
		s.Key = strings.TrimSpace(*v)
	}
	if v := file.Storage.URL; v != nil {
		s.URL = *v
	}
	if v := file.Storage.PollInterval; v != nil {
		d, err := time.ParseDuration(*v)
		if err != nil || d <= 0 {
			return Settings{}, fmt.Errorf("invalid poll-interval %q", *v)
		}
		s.PollInterval = d
	}

	if v := file.App.Timezone; v != nil {
		s.Timezone = *v
	}
	if ov.Timezone != "" {
		s.Timezone = ov.Timezone
	}
	if !utils.ValidateTimezone(s.Timezone) {
		return Settings{}, fmt.Errorf("invalid timezone %q", s.Timezone)
	}

	if v := file.App.Debug; v != nil {
		s.Debug = *v
	}
	if ov.Debug {
		s.Debug = true
	}

	if v := file.Backup.Dir; v != nil && *v != "" {
		s.BackupDir = expandHome(*v)
	}
	if v := file.Backup.Max; v != nil {
		if *v < 1 {
			return Settings{}, fmt.Errorf("backup max must be at least 1, got %d", *v)
		}
		s.MaxBackups = *v
	}

	return s, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
