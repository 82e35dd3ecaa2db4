package backup

import (
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// ExportState writes the whole document as indented JSON.
func ExportState(w io.Writer, state models.HabitState) error {
	data, err := marshalIndent(state.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportHabits writes only the habit definitions, as a JSON array.
func ExportHabits(w io.Writer, habits []models.Habit) error {
	if habits == nil {
		habits = []models.Habit{}
	}
	data, err := marshalIndent(habits)
	if err != nil {
		return fmt.Errorf("failed to encode habits: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportFileName returns the default file name for an export taken at t:
// habit-backup-YYYY-MM-DD.json, or habit-config-YYYY-MM-DD.json for a
// habits-only export.
func ExportFileName(habitsOnly bool, t time.Time) string {
	prefix := constants.BackupFilePrefix
	if habitsOnly {
		prefix = constants.HabitsExportFilePrefix
	}
	return prefix + t.Format(constants.DateFormat) + constants.BackupFileSuffix
}
