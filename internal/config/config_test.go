package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Storage.Backend != nil || cfg.App.Timezone != nil {
		t.Errorf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "sqlite"
path = "/tmp/habits.db"
poll-interval = "2s"

[app]
timezone = "UTC"
debug = true

[backup]
max = 3
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.Backend == nil || *cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend not decoded: %+v", cfg.Storage)
	}
	if cfg.App.Debug == nil || !*cfg.App.Debug {
		t.Errorf("debug not decoded")
	}
	if cfg.Backup.Max == nil || *cfg.Backup.Max != 3 {
		t.Errorf("backup max not decoded")
	}
	if cfg.Backup.Dir != nil {
		t.Errorf("absent key must stay nil")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", "[storage\nbackend=", "decode"},
		{"unknown key", "[storage]\nbackend = \"json\"\ncolour = \"red\"\n", "unknown config keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/config")

	s, err := Resolve(FileConfig{}, Overrides{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s.Backend != constants.BackendJSON {
		t.Errorf("Backend = %q", s.Backend)
	}
	if s.Path != filepath.Join("/data", "habitlit", "habitlit.json") {
		t.Errorf("Path = %q", s.Path)
	}
	if s.ConfigDir != filepath.Join("/config", "habitlit") {
		t.Errorf("ConfigDir = %q", s.ConfigDir)
	}
	if s.Key != constants.StateKey || s.PollInterval != constants.DefaultPollInterval {
		t.Errorf("unexpected storage defaults %+v", s)
	}
	if s.MaxBackups != constants.MaxBackups || s.BackupDir != filepath.Join("/data", "habitlit", "backups") {
		t.Errorf("unexpected backup defaults %+v", s)
	}
	if s.Timezone != "Local" || s.Debug {
		t.Errorf("unexpected app defaults %+v", s)
	}
}

func TestResolveSQLiteDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	s, err := Resolve(FileConfig{}, Overrides{Backend: "SQLite"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Backend != constants.BackendSQLite || s.Path != filepath.Join("/data", "habitlit", "habitlit.db") {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestResolveOverridesWin(t *testing.T) {
	backend, path, tz, debug := "sqlite", "/file.db", "Local", false
	poll := "250ms"
	file := FileConfig{
		Storage: StorageConfig{Backend: &backend, Path: &path, PollInterval: &poll},
		App:     AppConfig{Timezone: &tz, Debug: &debug},
	}

	s, err := Resolve(file, Overrides{Backend: "json", Path: "/flag.json", Timezone: "UTC", Debug: true})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s.Backend != "json" || s.Path != "/flag.json" || s.Timezone != "UTC" || !s.Debug {
		t.Errorf("overrides not applied: %+v", s)
	}
	if s.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", s.PollInterval)
	}
}

func TestResolveRejects(t *testing.T) {
	bad := "nope"
	badPoll := "-1s"
	zero := 0
	tests := []struct {
		name string
		file FileConfig
		ov   Overrides
	}{
		{"backend", FileConfig{}, Overrides{Backend: "mongo"}},
		{"timezone", FileConfig{App: AppConfig{Timezone: &bad}}, Overrides{}},
		{"poll interval", FileConfig{Storage: StorageConfig{PollInterval: &badPoll}}, Overrides{}},
		{"backup max", FileConfig{Backup: BackupConfig{Max: &zero}}, Overrides{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.file, tt.ov); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitlit", "config.toml")
	want, err := Resolve(FileConfig{}, Overrides{Backend: "sqlite", Path: "/x.db", Timezone: "UTC"})
	if err != nil {
		t.Fatal(err)
	}

	written, err := WriteDefault(path, want)
	if err != nil || !written {
		t.Fatalf("WriteDefault() = %v, %v", written, err)
	}
	written, err = WriteDefault(path, want)
	if err != nil || written {
		t.Errorf("second WriteDefault should leave the file alone, got %v, %v", written, err)
	}

	file, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	got, err := Resolve(file, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}
