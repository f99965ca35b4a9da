package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/commands"
	"github.com/colonyops/goodvibes/internal/core/config"
	"github.com/colonyops/goodvibes/internal/core/eventbus"
	"github.com/colonyops/goodvibes/internal/core/logging"
	"github.com/colonyops/goodvibes/internal/data/db"
	"github.com/colonyops/goodvibes/internal/data/stores"
	"github.com/colonyops/goodvibes/internal/goodvibes"
	"github.com/colonyops/goodvibes/internal/printer"
	"github.com/colonyops/goodvibes/pkg/executil"
	"github.com/colonyops/goodvibes/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		logCloser func()
		gvApp     = &goodvibes.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "goodvibes",
		Usage:     "Suggest tags for Claude Code sessions",
		UsageText: "goodvibes [global options] command [command options]",
		Description: `GoodVibes imports Claude Code transcripts and asks a headless claude CLI to
suggest tags for each session in the background.

Run 'goodvibes scan run' to import transcripts and scan every pending session.
Run 'goodvibes suggestions ls' to review what was suggested.`,
		Version: build(),
		Flags:   commands.GlobalFlags(flags),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "goodvibes.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			ctx = printer.NewContext(ctx, printer.New(c.Root().Writer, c.Root().ErrWriter))

			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			var recovered bool
			database, recovered, err = stores.OpenWithRecovery(cfg.DataDir, dbOpts)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}
			if recovered {
				log.Warn().Str("data_dir", cfg.DataDir).Msg("database was corrupted; moved aside and recreated")
			}

			bus := eventbus.New()
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*gvApp = *goodvibes.NewApp(cfg, database, &executil.RealExecutor{}, bus)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if gvApp.Claude != nil {
				gvApp.Close()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.RegisterAll(app, flags, gvApp)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
