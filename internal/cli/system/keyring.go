package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/redis"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a connection string in the OS keyring."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a stored connection string."`
	Status KeyringStatusCmd `cmd:"" help:"Check keyring availability and stored credentials."`
}

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string or Redis URL to store."`
	For              string `help:"Backend the credentials belong to." enum:"postgres,redis" default:"postgres"`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	switch cmd.For {
	case constants.BackendPostgres:
		if !strings.HasPrefix(cmd.ConnectionString, "postgres://") &&
			!strings.HasPrefix(cmd.ConnectionString, "postgresql://") &&
			!strings.Contains(cmd.ConnectionString, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			warnEmbedded()
		}
	case constants.BackendRedis:
		if err := redis.ValidateURL(cmd.ConnectionString); err != nil {
			if !errors.Is(err, redis.ErrEmbeddedCredentials) {
				return err
			}
			warnEmbedded()
		}
	}

	if err := keyring.SetConnectionString(cmd.For, cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	fmt.Printf("✓ %s connection string stored successfully in OS keyring\n", cmd.For)
	fmt.Println("  Stored as:", keyring.MaskPassword(cmd.ConnectionString))
	return nil
}

func warnEmbedded() {
	fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
	fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
}

// KeyringDeleteCmd removes database connection credentials from the OS keyring
type KeyringDeleteCmd struct {
	For string `help:"Backend the credentials belong to." enum:"postgres,redis" default:"postgres"`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	err := keyring.DeleteConnectionString(cmd.For)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	fmt.Printf("✓ %s connection string deleted from OS keyring\n", cmd.For)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	fmt.Println("✓ OS keyring is available")

	for _, backend := range []string{constants.BackendPostgres, constants.BackendRedis} {
		connStr, err := keyring.GetConnectionString(backend)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: %s\n", backend, keyring.MaskPassword(connStr))
		case errors.Is(err, keyring.ErrNotFound):
			fmt.Printf("ℹ %s: no connection string stored\n", backend)
		default:
			fmt.Printf("❌ %s: %v\n", backend, err)
		}
	}
	return nil
}
