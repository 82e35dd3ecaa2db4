package backups

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	backupPath, err := ctx.Backups.CreateBackup(ctx.Tracker.State())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	backups, err := ctx.Backups.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", ctx.Backups.GetBackupDir())
		return nil
	}

	fmt.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), ctx.Settings.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		timestamp := b.Timestamp.Format(constants.DateFormat + " 15:04:05")
		fmt.Printf("  %s  %s  (%.1f KB)\n", timestamp, filepath.Base(b.Path), sizeKB)
	}
	fmt.Printf("\nBackup directory: %s\n", ctx.Backups.GetBackupDir())

	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

// stdin is swapped by tests answering the prompt.
var stdin io.Reader = os.Stdin

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	backupPath, err := ctx.Backups.ResolveBackup(c.BackupFile)
	if err != nil {
		return fmt.Errorf("%w: tried %s and %s", err, c.BackupFile, ctx.Backups.GetBackupDir())
	}

	// Validate before asking, so a broken file never reaches the prompt.
	state, err := ctx.Backups.LoadBackup(backupPath)
	if err != nil {
		return err
	}

	if !c.Yes {
		fmt.Println("⚠️  WARNING: This will replace all habits and records with the backup.")
		fmt.Println("   Running watchers will pick up the restored data automatically.")
		fmt.Println("A backup of your current data will be created before restoring.")
		fmt.Printf("\nRestore from: %s (%d habits, %d records)\n", backupPath, len(state.Habits), len(state.Records))
		if !confirm(stdin) {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	safety, err := ctx.Backups.CreateSafetyBackup(ctx.Tracker.State())
	if err != nil {
		return fmt.Errorf("failed to back up current data, restore aborted: %w", err)
	}
	fmt.Printf("✓ Current data saved to: %s\n", filepath.Base(safety))

	if err := ctx.Tracker.ReplaceState(state); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println("✓ Habit data restored successfully!")
	return nil
}

func confirm(in io.Reader) bool {
	fmt.Print("Continue? [y/N]: ")

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
