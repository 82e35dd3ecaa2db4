package system

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/instances"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/utils"
	"github.com/julianstephens/habitlit/internal/validation"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	reachable := false

	// Check 1: storage reachable
	if err := checkStorageReachable(ctx); err != nil {
		fmt.Printf("❌ Storage reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Storage reachable: OK\n")
		reachable = true
	}

	// Check 2: document present and decodable
	if reachable {
		if err := checkDocument(ctx); err != nil {
			fmt.Printf("⚠ Habit document: WARNING\n")
			fmt.Printf("   %v\n", err)
		} else {
			fmt.Printf("✓ Habit document: OK\n")
		}
	} else {
		fmt.Printf("⊘ Habit document: SKIPPED (storage not reachable)\n")
	}

	// Check 3: validation passes
	if reachable {
		if err := checkValidation(ctx); err != nil {
			fmt.Printf("❌ Data validation: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Data validation: OK\n")
		}
	} else {
		fmt.Printf("⊘ Data validation: SKIPPED (storage not reachable)\n")
	}

	// Check 4: backups present (warning only)
	if err := checkBackupsPresent(ctx); err != nil {
		fmt.Printf("⚠ Backups present: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Backups present: OK\n")
	}

	// Check 5: clock and timezone
	if err := checkClockTimezone(ctx); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	// Check 6: credentials, network backends only
	switch ctx.Settings.Backend {
	case constants.BackendPostgres, constants.BackendRedis:
		if err := checkKeyring(ctx); err != nil {
			fmt.Printf("⚠ Credentials: WARNING\n")
			fmt.Printf("   %v\n", err)
		} else {
			fmt.Printf("✓ Credentials: OK\n")
		}
	default:
		fmt.Printf("⊘ Credentials: SKIPPED (%s backend needs none)\n", ctx.Settings.Backend)
	}

	// Check 7: other contexts watching the same medium
	if n, err := countWatchers(ctx); err != nil {
		fmt.Printf("⚠ Live contexts: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Live contexts: %d watching\n", n)
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStorageReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	if st, ok := ctx.Store.(*sqlite.Store); ok {
		db := st.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}

	if _, err := ctx.Store.Get(ctx.Tracker.Store().Key()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return nil
}

func checkDocument(ctx *cli.Context) error {
	raw, err := ctx.Store.Get(ctx.Tracker.Store().Key())
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no habit document yet - it is created on the first write")
	}
	if err != nil {
		return err
	}
	if _, err := validation.ParseBackup(raw); err != nil {
		return fmt.Errorf("stored document is unreadable and will be treated as empty: %w", err)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	result := validation.New().ValidateState(ctx.Tracker.State())
	if result.HasConflicts() {
		return errors.New(result.FormatReport())
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	backups, err := ctx.Backups.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if !utils.ValidateTimezone(ctx.Settings.Timezone) {
		return fmt.Errorf("invalid timezone %q", ctx.Settings.Timezone)
	}
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if ctx.Settings.URL != "" {
		return nil
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	if _, err := keyring.ResolveConnectionString(ctx.Settings.Backend); err != nil {
		return fmt.Errorf("no stored connection string for %s: %w", ctx.Settings.Backend, err)
	}
	return nil
}

func countWatchers(ctx *cli.Context) (int, error) {
	live, err := instances.List(filepath.Join(ctx.Settings.ConfigDir, constants.InstanceDirName))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, info := range live {
		if info.Backend == ctx.Settings.Backend && info.Location == ctx.Store.GetConfigPath() {
			n++
		}
	}
	return n, nil
}
