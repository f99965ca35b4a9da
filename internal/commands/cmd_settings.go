package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/data/stores"
	"github.com/colonyops/goodvibes/internal/goodvibes"
	"github.com/colonyops/goodvibes/internal/printer"
)

type SettingsCmd struct {
	flags *Flags
	app   *goodvibes.App
}

// NewSettingsCmd creates a new settings command
func NewSettingsCmd(flags *Flags, app *goodvibes.App) *SettingsCmd {
	return &SettingsCmd{flags: flags, app: app}
}

// Register adds the settings command to the application
func (cmd *SettingsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "settings",
		Usage: "Show or change persisted scanner settings",
		Description: `Settings override the tag_scan values from the config file and persist in
the database. Available keys:

  ` + stores.SettingRateLimitEnabled + `
  ` + stores.SettingScanAgentSessions,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print one or all settings",
				UsageText: "goodvibes settings get [key]",
				Action:    cmd.runGet,
			},
			{
				Name:      "set",
				Usage:     "Change a setting",
				UsageText: "goodvibes settings set <key> <true|false>",
				Action:    cmd.runSet,
			},
			{
				Name:      "reset",
				Usage:     "Restore a setting to its config value",
				UsageText: "goodvibes settings reset <key>",
				Action:    cmd.runReset,
			},
		},
	})

	return app
}

func (cmd *SettingsCmd) runGet(ctx context.Context, c *cli.Command) error {
	keys := stores.SettingKeys
	if c.Args().Len() > 0 {
		keys = c.Args().Slice()
	}

	overridden, err := cmd.app.Settings.Overridden(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		v, err := cmd.app.Settings.Get(ctx, key)
		if err != nil {
			return err
		}
		source := "config"
		if overridden[key] {
			source = "database"
		}
		rows = append(rows, []string{key, strconv.FormatBool(v), source})
	}

	printer.Ctx(ctx).Table([]string{"KEY", "VALUE", "SOURCE"}, rows)
	return nil
}

func (cmd *SettingsCmd) runSet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("usage: goodvibes settings set <key> <true|false>")
	}
	key := c.Args().Get(0)
	value, err := strconv.ParseBool(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid value %q: expected true or false", c.Args().Get(1))
	}

	if err := cmd.app.Settings.Set(ctx, key, value); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("%s = %t", key, value)
	return nil
}

func (cmd *SettingsCmd) runReset(ctx context.Context, c *cli.Command) error {
	key := c.Args().First()
	if key == "" {
		return fmt.Errorf("setting key is required")
	}

	if err := cmd.app.Settings.Reset(ctx, key); err != nil {
		return err
	}
	v, err := cmd.app.Settings.Get(ctx, key)
	if err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("%s reset to %t", key, v)
	return nil
}
