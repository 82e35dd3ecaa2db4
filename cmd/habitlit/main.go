package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/cli/backups"
	"github.com/julianstephens/habitlit/internal/cli/habits"
	"github.com/julianstephens/habitlit/internal/cli/records"
	"github.com/julianstephens/habitlit/internal/cli/system"
	"github.com/julianstephens/habitlit/internal/cli/views"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" default:"${config_path}"`
	Backend  string `help:"Storage backend (json, sqlite, postgres, redis, memory). Overrides the config file."`
	Path     string `help:"Storage file path. Overrides the config file."`
	Timezone string `help:"IANA timezone used for day boundaries. Overrides the config file."`
	Debug    bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitlit storage."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Watch   system.WatchCmd   `cmd:"" help:"Follow habit data as other processes change it."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage connection strings in the OS keyring."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits."`
	Record  records.RecordCmd `cmd:"" help:"Record and undo habit progress."`
	Step    records.StepCmd   `cmd:"" help:"Check off habit steps."`
	Today   views.TodayCmd    `cmd:"" help:"Show habits scheduled for a day." default:"1"`
	Journey views.JourneyCmd  `cmd:"" help:"Show the completion heatmap."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage habit data backups."`
	Export backups.ExportCmd `cmd:"" help:"Export habit data to a JSON file."`
	Import backups.ImportCmd `cmd:"" help:"Import habit data from a JSON file."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with shared, live-updating storage"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":      constants.Version,
			"config_path":  config.DefaultConfigPath(),
			"heatmap_days": strconv.Itoa(constants.HeatmapDays),
		},
	)

	fileCfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	settings, err := config.Resolve(fileCfg, config.Overrides{
		Backend:  CLI.Backend,
		Path:     CLI.Path,
		Timezone: CLI.Timezone,
		Debug:    CLI.Debug,
	})
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: settings.Debug, ConfigDir: settings.ConfigDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	command := ctx.Command()
	logger.Debug("Starting", "command", command, "backend", settings.Backend)

	// Keyring commands must work before any credentials exist, so they never
	// open the backend.
	if strings.HasPrefix(command, "keyring") {
		appCtx, err := cli.NewContext(settings, nil)
		if err != nil {
			errors.Fatal(err)
		}
		errors.Fatal(ctx.Run(appCtx))
		return
	}

	store, err := cli.OpenProvider(settings)
	if err != nil {
		errors.Fatal(err)
	}
	defer store.Close()

	// Init handles its own loading.
	if !strings.HasPrefix(command, "init") {
		if err := store.Load(); err != nil {
			store.Close()
			errors.Fatal(err)
		}
	}

	appCtx, err := cli.NewContext(settings, store)
	if err != nil {
		store.Close()
		errors.Fatal(err)
	}
	appCtx.ConfigPath = CLI.Config

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}
