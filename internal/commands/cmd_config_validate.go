package commands

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/core/config"
	"github.com/colonyops/goodvibes/internal/printer"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "goodvibes config validate [options]",
				Description: "Validates the configuration file, checking the claude executable, exclude globs, and directories.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	errs := fieldErrors(cfg.ValidateDeep(cmd.flags.ConfigPath))
	warnings := cfg.Warnings()

	if cmd.format == "json" {
		out := struct {
			Valid    bool                       `json:"valid"`
			Errors   []validationError          `json:"errors,omitempty"`
			Warnings []config.ValidationWarning `json:"warnings,omitempty"`
		}{
			Valid:    len(errs) == 0,
			Errors:   errs,
			Warnings: warnings,
		}
		if err := writeJSON(c.Root().Writer, out); err != nil {
			return err
		}
		if !out.Valid {
			return cli.Exit("", 1)
		}
		return nil
	}

	p := printer.Ctx(ctx)
	for _, warn := range warnings {
		p.Warnf("%s: %s", warn.Category, warn.Message)
		if warn.Item != "" {
			p.Printf("  Item: %s", warn.Item)
		}
	}

	for _, e := range errs {
		p.Errorf("%s: %s", e.Field, e.Message)
	}

	p.Printf("")
	if len(errs) == 0 {
		p.Successf("Configuration is valid")
		return nil
	}

	p.Errorf("%d error(s) found", len(errs))
	return cli.Exit("", 1)
}

// fieldErrors flattens a validation error into per-field entries.
func fieldErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fe criterio.FieldErrors
	if !errors.As(err, &fe) {
		return []validationError{{Field: "config", Message: err.Error()}}
	}

	out := make([]validationError, 0, len(fe))
	for _, f := range fe {
		out = append(out, validationError{Field: f.Field, Message: f.Err.Error()})
	}
	return out
}
