package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/core/tagging"
	"github.com/colonyops/goodvibes/internal/goodvibes"
	"github.com/colonyops/goodvibes/internal/printer"
)

type SuggestionsCmd struct {
	flags *Flags
	app   *goodvibes.App

	sessionID  string
	status     string
	jsonOutput bool
}

// NewSuggestionsCmd creates a new suggestions command
func NewSuggestionsCmd(flags *Flags, app *goodvibes.App) *SuggestionsCmd {
	return &SuggestionsCmd{flags: flags, app: app}
}

// Register adds the suggestions command to the application
func (cmd *SuggestionsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "suggestions",
		Aliases: []string{"sug"},
		Usage:   "Review tag suggestions",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List suggestions",
				UsageText: "goodvibes suggestions ls [--session <id>] [--status <status>] [--json]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "session",
						Aliases:     []string{"s"},
						Usage:       "only show suggestions for this session",
						Destination: &cmd.sessionID,
					},
					&cli.StringFlag{
						Name:        "status",
						Usage:       "filter by status (pending, accepted, rejected, dismissed)",
						Value:       string(tagging.StatusPending),
						Destination: &cmd.status,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			cmd.reviewCommand("accept", "Accept a suggestion and add the tag to its session"),
			cmd.reviewCommand("reject", "Reject a suggestion"),
			cmd.reviewCommand("dismiss", "Dismiss a suggestion without judging it"),
			{
				Name:   "prune",
				Usage:  "Delete resolved suggestions older than tag_scan.suggestion_retention",
				Action: cmd.runPrune,
			},
		},
	})

	return app
}

type reviewFunc func(ctx context.Context, id string) (tagging.Suggestion, error)

// reviewCommand builds accept/reject/dismiss. The service method is looked up
// at run time since App is only populated in the root Before hook.
func (cmd *SuggestionsCmd) reviewCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: fmt.Sprintf("goodvibes suggestions %s <id>...", name),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("at least one suggestion id is required")
			}
			fn := cmd.reviewer(name)
			p := printer.Ctx(ctx)
			for _, id := range c.Args().Slice() {
				sug, err := fn(ctx, id)
				if err != nil {
					return fmt.Errorf("%s %s: %w", name, id, err)
				}
				p.Successf("%s %q on %s: %s", sug.Status, sug.Name, sug.SessionID, sug.ID)
			}
			return nil
		},
	}
}

func (cmd *SuggestionsCmd) reviewer(name string) reviewFunc {
	svc := cmd.app.Suggestions
	switch name {
	case "accept":
		return svc.Accept
	case "reject":
		return svc.Reject
	default:
		return svc.Dismiss
	}
}

func (cmd *SuggestionsCmd) runList(ctx context.Context, c *cli.Command) error {
	status := tagging.Status(cmd.status)
	if cmd.status == "all" {
		status = ""
	}
	if status != "" && !status.IsValid() {
		return fmt.Errorf("invalid status %q", cmd.status)
	}

	suggestions, err := cmd.app.Suggestions.List(ctx, tagging.ListFilter{
		SessionID: cmd.sessionID,
		Status:    status,
	})
	if err != nil {
		return fmt.Errorf("list suggestions: %w", err)
	}

	if cmd.jsonOutput {
		if suggestions == nil {
			suggestions = []tagging.Suggestion{}
		}
		return writeJSON(c.Root().Writer, suggestions)
	}

	if len(suggestions) == 0 {
		printer.Ctx(ctx).Infof("No suggestions")
		return nil
	}
	printSuggestions(printer.Ctx(ctx), suggestions)
	return nil
}

func (cmd *SuggestionsCmd) runPrune(ctx context.Context, c *cli.Command) error {
	n, err := cmd.app.Suggestions.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune suggestions: %w", err)
	}
	printer.Ctx(ctx).Successf("Pruned %d suggestion(s)", n)
	return nil
}
