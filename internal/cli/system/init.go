package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/redis"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/validation"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing storage before initialization."`
	Source string `help:"Source file path or PostgreSQL/Redis URL to migrate the habit document from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		if !c.Force {
			return err
		}
		// Network media cannot be deleted; reuse them.
		if err := ctx.Store.Load(); err != nil {
			return err
		}
	}
	ctx.Tracker.Store().Refresh()
	fmt.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if ctx.ConfigPath != "" {
		written, err := config.WriteDefault(ctx.ConfigPath, ctx.Settings)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("Wrote default config to: %s\n", ctx.ConfigPath)
		}
	}

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migration completed successfully!")
	}

	return nil
}

// reset removes file-backed storage so Init starts from scratch.
func (c *InitCmd) reset(ctx *cli.Context) error {
	switch ctx.Settings.Backend {
	case constants.BackendJSON, constants.BackendSQLite:
	default:
		return nil
	}

	dbPath := ctx.Store.GetConfigPath()
	if c.Source != "" {
		absDbPath, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDbPath
		}
		absSource, err := filepath.Abs(c.Source)
		if err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing storage: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing storage: %w", err)
		}
		fmt.Printf("Deleted existing storage at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing storage: %w", err)
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context, source string) error {
	sourceStore, err := openSource(source)
	if err != nil {
		return err
	}
	if err := sourceStore.Load(); err != nil {
		return fmt.Errorf("failed to load source storage: %w", err)
	}
	defer sourceStore.Close()

	raw, err := sourceStore.Get(ctx.Tracker.Store().Key())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("  Source holds no habit document, nothing to migrate")
			return nil
		}
		return fmt.Errorf("failed to read source document: %w", err)
	}

	state, err := validation.ParseBackup(raw)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.ReplaceState(state); err != nil {
		return err
	}
	fmt.Printf("    Migrated %d habits\n", len(state.Habits))
	fmt.Printf("    Migrated %d records\n", len(state.Records))
	return nil
}

func openSource(source string) (storage.Provider, error) {
	switch {
	case strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://"):
		if valid, err := postgres.ValidateConnString(source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return nil, err
		}
		return postgres.New(source), nil
	case strings.HasPrefix(source, "redis://") || strings.HasPrefix(source, "rediss://"):
		if err := redis.ValidateURL(source); err != nil {
			return nil, err
		}
		return redis.New(source), nil
	case strings.EqualFold(filepath.Ext(source), ".json"):
		return storage.NewJSONStore(source), nil
	default:
		return sqlite.NewStore(source), nil
	}
}
