package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/goodvibes"
)

// GlobalFlags returns the root flags bound to flags.
func GlobalFlags(flags *Flags) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error, fatal, panic)",
			Sources:     cli.EnvVars("GOODVIBES_LOG_LEVEL"),
			Value:       "info",
			Destination: &flags.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "path to log file (defaults to <data-dir>/goodvibes.log, '-' for stderr)",
			Sources:     cli.EnvVars("GOODVIBES_LOG_FILE"),
			Destination: &flags.LogFile,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to config file",
			Sources:     cli.EnvVars("GOODVIBES_CONFIG"),
			Value:       DefaultConfigPath(),
			Destination: &flags.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "path to data directory",
			Sources:     cli.EnvVars("GOODVIBES_DATA_DIR"),
			Value:       DefaultDataDir(),
			Destination: &flags.DataDir,
		},
	}
}

// RegisterAll attaches every subcommand to root. app may be an empty App
// that is populated later in the root Before hook.
func RegisterAll(root *cli.Command, flags *Flags, app *goodvibes.App) *cli.Command {
	root = NewImportCmd(flags, app).Register(root)
	root = NewScanCmd(flags, app).Register(root)
	root = NewSuggestionsCmd(flags, app).Register(root)
	root = NewSettingsCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)
	return root
}
