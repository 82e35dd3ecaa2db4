package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/validation"
)

// timestamp layouts tried when parsing backup file names, most precise first
var timestampLayouts = []string{"20060102-150405", "20060102-1504", constants.DateFormat}

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
	// seq orders backups sharing a timestamp
	seq int
}

// Manager handles backup operations
type Manager struct {
	backupDir  string
	maxBackups int
	now        func() time.Time
}

// NewManager creates a backup manager writing into backupDir
func NewManager(backupDir string) *Manager {
	return &Manager{
		backupDir:  backupDir,
		maxBackups: constants.MaxBackups,
		now:        time.Now,
	}
}

// SetMaxBackups overrides the retention limit. Values below 1 are ignored.
func (m *Manager) SetMaxBackups(n int) {
	if n > 0 {
		m.maxBackups = n
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// ensureBackupDir creates the backup directory if it doesn't exist
func (m *Manager) ensureBackupDir() error {
	return os.MkdirAll(m.backupDir, 0700)
}

// CreateBackup writes state to a new timestamped backup file and rotates
// old backups.
func (m *Manager) CreateBackup(state models.HabitState) (string, error) {
	return m.createBackup(state, false)
}

// CreateSafetyBackup writes state without rotating, so a restore never
// evicts the backup it is restoring from.
func (m *Manager) CreateSafetyBackup(state models.HabitState) (string, error) {
	return m.createBackup(state, true)
}

func (m *Manager) createBackup(state models.HabitState, skipRotation bool) (string, error) {
	if err := m.ensureBackupDir(); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := ExportState(f, state); err != nil {
		f.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to sync backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			// Rotation failure never fails the backup itself.
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	return backupPath, nil
}

// nextBackupPath picks a unused file name: minute precision first, then
// seconds, then a counter.
func (m *Manager) nextBackupPath() (string, error) {
	now := m.now()
	name := func(stamp string, counter int) string {
		if counter > 0 {
			stamp = fmt.Sprintf("%s-%d", stamp, counter)
		}
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	}

	backupPath := name(now.Format("20060102-1504"), 0)
	if !exists(backupPath) {
		return backupPath, nil
	}

	stamp := now.Format("20060102-150405")
	for counter := 0; counter <= 100; counter++ {
		backupPath = name(stamp, counter)
		if !exists(backupPath) {
			return backupPath, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListBackups returns a list of all available backups, sorted by timestamp (newest first)
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
		timestamp, seq, ok := parseStamp(stamp)
		if !ok {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      path,
			Timestamp: timestamp,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].seq > backups[j].seq
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// parseStamp parses a file name timestamp with an optional "-N" counter.
func parseStamp(stamp string) (time.Time, int, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, stamp, time.Local); err == nil {
			return t, 0, true
		}
	}

	i := strings.LastIndex(stamp, "-")
	if i < 0 {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(stamp[i+1:])
	if err != nil || seq < 1 {
		return time.Time{}, 0, false
	}
	t, err := time.ParseInLocation("20060102-150405", stamp[:i], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return t, seq, true
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	if len(backups) <= m.maxBackups {
		return nil
	}

	for i := m.maxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}

	return nil
}

// LoadBackup reads and validates a backup file. The file must satisfy the
// full-import contract.
func (m *Manager) LoadBackup(backupPath string) (models.HabitState, error) {
	data, err := os.ReadFile(backupPath)
	if os.IsNotExist(err) {
		return models.HabitState{}, fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err != nil {
		return models.HabitState{}, fmt.Errorf("failed to read backup file: %w", err)
	}

	state, err := validation.ParseBackup(data)
	if err != nil {
		return models.HabitState{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	return state, nil
}

// ResolveBackup finds a backup by path or by file name inside the backup
// directory.
func (m *Manager) ResolveBackup(ref string) (string, error) {
	if exists(ref) {
		return ref, nil
	}
	candidate := filepath.Join(m.backupDir, filepath.Base(ref))
	if exists(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("backup not found: %s", ref)
}

// marshalIndent is shared by backups and exports so both are byte-identical.
func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
