package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/goodvibes"
	"github.com/colonyops/goodvibes/internal/printer"
)

type ImportCmd struct {
	flags *Flags
	app   *goodvibes.App

	jsonOutput bool
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags, app *goodvibes.App) *ImportCmd {
	return &ImportCmd{flags: flags, app: app}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Import Claude Code transcripts",
		UsageText: "goodvibes import [--json]",
		Description: `Reads every transcript under claude.projects_dir and stores it as a session.

Re-importing is safe: scan status and tags of known sessions are kept. New
sessions start out pending and are picked up by 'goodvibes scan run'.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the import summary as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	result, err := cmd.app.Import.ImportAll(ctx)
	if err != nil {
		return fmt.Errorf("import transcripts: %w", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c.Root().Writer, result)
	}

	p := printer.Ctx(ctx)
	p.Successf("Imported %d session(s)", result.Imported)
	if result.Archived > 0 {
		p.Infof("%d session(s) created by goodvibes were archived", result.Archived)
	}
	if result.Skipped > 0 {
		p.Infof("%d empty transcript(s) skipped", result.Skipped)
	}
	if result.Failed > 0 {
		p.Warnf("%d transcript(s) could not be read; see the log for details", result.Failed)
	}
	return nil
}
