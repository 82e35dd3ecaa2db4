package backups

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/validation"
)

type ExportCmd struct {
	HabitsOnly bool   `help:"Export habit definitions only, without records."`
	Out        string `short:"o" help:"Output file; '-' writes to stdout. Defaults to a dated file in the current directory."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	state := ctx.Tracker.State()

	write := func(w io.Writer) error {
		if c.HabitsOnly {
			return backup.ExportHabits(w, state.Habits)
		}
		return backup.ExportState(w, state)
	}

	if c.Out == "-" {
		return write(os.Stdout)
	}

	path := c.Out
	if path == "" {
		path = backup.ExportFileName(c.HabitsOnly, ctx.Now())
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	if c.HabitsOnly {
		fmt.Printf("✓ Exported %d habits to %s\n", len(state.Habits), path)
	} else {
		fmt.Printf("✓ Exported %d habits and %d records to %s\n", len(state.Habits), len(state.Records), path)
	}
	return nil
}

type ImportCmd struct {
	File       string `arg:"" type:"existingfile" help:"File produced by export."`
	HabitsOnly bool   `help:"Merge habit definitions by id, leaving records untouched."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	if c.HabitsOnly {
		habits, err := validation.ParseHabits(data)
		if err != nil {
			return err
		}
		ctx.PerformAutomaticBackup()
		if err := ctx.Tracker.MergeHabits(habits); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Printf("✓ Imported %d habits\n", len(habits))
		return nil
	}

	state, err := validation.ParseBackup(data)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Tracker.ReplaceState(state); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("✓ Imported %d habits and %d records\n", len(state.Habits), len(state.Records))
	return nil
}
