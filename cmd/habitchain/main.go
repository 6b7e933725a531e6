package main

import (
	"context"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitchain/internal/cli"
	"github.com/julianstephens/habitchain/internal/config"
	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/errors"
	"github.com/julianstephens/habitchain/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"string" default:"${config_path}"`
	DB       string `help:"Ledger location: SQLite path, .json file, PostgreSQL connection string without password, or 'keyring'."`
	Timezone string `help:"IANA timezone used for day boundaries."`
	Debug    bool   `help:"Enable debug logging to stderr."`

	Init         cli.InitCmd         `cmd:"" help:"Initialize the habit ledger."`
	Migrate      cli.MigrateCmd      `cmd:"" help:"Run database migrations."`
	Doctor       cli.DoctorCmd       `cmd:"" help:"Run health checks and diagnostics."`
	Tui          cli.TuiCmd          `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit        cli.HabitCmd        `cmd:"" help:"Manage habits."`
	Done         cli.DoneCmd         `cmd:"" help:"Toggle a habit's completion for a day."`
	Streak       cli.StreakCmd       `cmd:"" help:"Show streaks."`
	Heatmap      cli.HeatmapCmd      `cmd:"" help:"Show the completion heatmap for the last year."`
	Achievements cli.AchievementsCmd `cmd:"" help:"List badges and progress."`
	Stats        cli.StatsCmd        `cmd:"" help:"Show the stats overview."`
	Completions  cli.CompletionsCmd  `cmd:"" help:"Manage completions."`
	Backup       struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite ledger backups."`
	Keyring  cli.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	DebugCmd cli.DebugCmd   `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, badges and a yearly heatmap"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.DB != "" {
		cfg.Database = CLI.DB
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
	}
	cfg.Debug = cfg.Debug || CLI.Debug
	if err := cfg.Validate(); err != nil {
		errors.Fatal(err)
	}

	configPath, err := config.ExpandPath(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: filepath.Dir(configPath)}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}

	appCtx, err := cli.NewContext(context.Background(), cfg, configPath)
	if err != nil {
		errors.Fatal(err)
	}

	err = kctx.Run(appCtx)
	if closeErr := appCtx.Store.Close(); closeErr != nil {
		logger.Warn("Failed to close ledger", "error", closeErr)
	}
	if err != nil {
		errors.Fatal(err)
	}
}
