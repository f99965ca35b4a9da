package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/goodvibes/internal/core/eventbus"
	"github.com/colonyops/goodvibes/internal/core/tagging"
	"github.com/colonyops/goodvibes/internal/goodvibes"
	"github.com/colonyops/goodvibes/internal/printer"
	"github.com/colonyops/goodvibes/internal/tagscan"
)

const idlePoll = 250 * time.Millisecond

type ScanCmd struct {
	flags *Flags
	app   *goodvibes.App

	retryFailed bool
	watch       bool
	follow      bool
	noImport    bool
	jsonOutput  bool
	priority    string
}

// NewScanCmd creates a new scan command
func NewScanCmd(flags *Flags, app *goodvibes.App) *ScanCmd {
	return &ScanCmd{flags: flags, app: app}
}

// Register adds the scan command to the application
func (cmd *ScanCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON",
			Destination: &cmd.jsonOutput,
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "scan",
		Usage: "Generate tag suggestions for sessions",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Scan all pending sessions in the background loop",
				UsageText: "goodvibes scan run [--retry-failed] [--watch] [--follow]",
				Description: `Imports transcripts, queues every pending session and drains the queue in
batches of tag_scan.batch_size, one batch per poll interval, subject to the
rate limit.

Without --watch the command exits once the queue is empty. With --watch it
keeps running and re-scans transcripts as they change.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "retry-failed",
						Usage:       "move failed sessions back to pending before queueing",
						Destination: &cmd.retryFailed,
					},
					&cli.BoolFlag{
						Name:        "watch",
						Usage:       "keep running and scan transcripts as they change",
						Destination: &cmd.watch,
					},
					&cli.BoolFlag{
						Name:        "follow",
						Aliases:     []string{"f"},
						Usage:       "print progress as batches complete",
						Destination: &cmd.follow,
					},
					&cli.BoolFlag{
						Name:        "no-import",
						Usage:       "skip importing transcripts first",
						Destination: &cmd.noImport,
					},
				},
				Action: cmd.runScan,
			},
			{
				Name:      "session",
				Usage:     "Scan one session immediately",
				UsageText: "goodvibes scan session <id> [--json]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runSession,
			},
			{
				Name:      "queue",
				Usage:     "Queue sessions and scan them right away",
				UsageText: "goodvibes scan queue <id>... [--priority high|medium|low]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "priority",
						Usage:       "queue priority (high, medium, low)",
						Value:       string(tagscan.PriorityHigh),
						Destination: &cmd.priority,
					},
					&cli.BoolFlag{
						Name:        "follow",
						Aliases:     []string{"f"},
						Usage:       "print progress as batches complete",
						Destination: &cmd.follow,
					},
				},
				Action: cmd.runQueue,
			},
			{
				Name:      "status",
				Usage:     "Show scanner and queue state",
				UsageText: "goodvibes scan status [--json]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runStatus,
			},
		},
	})

	return app
}

func (cmd *ScanCmd) runScan(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if !cmd.noImport {
		result, err := cmd.app.Import.ImportAll(ctx)
		if err != nil {
			return fmt.Errorf("import transcripts: %w", err)
		}
		p.Infof("Imported %d session(s)", result.Imported)
	}

	if cmd.retryFailed {
		n, err := cmd.app.Sessions.ResetFailed(ctx)
		if err != nil {
			return fmt.Errorf("reset failed sessions: %w", err)
		}
		if n > 0 {
			p.Infof("Retrying %d failed session(s)", n)
		}
	}

	cmd.subscribe(p)
	cmd.app.StartSweep(ctx)

	total, err := cmd.app.Scanner.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("start scan: %w", err)
	}
	p.Infof("Queued %d session(s)", total)

	return cmd.drain(ctx, p)
}

func (cmd *ScanCmd) runQueue(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one session id is required")
	}
	priority, err := tagscan.ParsePriority(cmd.priority)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	for _, id := range c.Args().Slice() {
		if !cmd.app.Scanner.QueueSession(id, priority) {
			p.Warnf("%s is already queued", id)
		}
	}

	cmd.subscribe(p)
	cmd.app.Scanner.Start(ctx)
	return cmd.drain(ctx, p)
}

// drain waits for the scanner to empty its queue, or for ctx when watching.
func (cmd *ScanCmd) drain(ctx context.Context, p *printer.Printer) error {
	scanner := cmd.app.Scanner
	defer func() {
		scanner.Stop()
		scanner.Wait()
		printStatus(p, scanner.Status(context.Background()))
	}()

	if cmd.watch {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return cmd.app.WatchTranscripts(gctx) })
		p.Infof("Watching %s for changes (ctrl+c to stop)", cmd.app.Config.Claude.ProjectsDir)
		return g.Wait()
	}

	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if scanner.Idle() {
				return nil
			}
		}
	}
}

func (cmd *ScanCmd) subscribe(p *printer.Printer) {
	bus := cmd.app.Bus
	bus.SubscribeError(func(e eventbus.ErrorPayload) {
		if e.SessionID != "" {
			p.Errorf("%s: %v", e.SessionID, e.Err)
			return
		}
		p.Errorf("%v", e.Err)
	})

	if !cmd.follow {
		return
	}
	bus.SubscribeComplete(func(e eventbus.CompletePayload) {
		names := make([]string, len(e.Suggestions))
		for i, s := range e.Suggestions {
			names[i] = s.Name
		}
		p.Successf("%s: %d suggestion(s) %v", e.SessionID, len(e.Suggestions), names)
	})
	bus.SubscribeProgress(func(e eventbus.ProgressPayload) {
		p.Infof("%s", formatProgress(e.Progress))
	})
}

func (cmd *ScanCmd) runSession(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("session id is required")
	}

	suggestions, err := cmd.app.Scanner.ScanSession(ctx, id)
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		if suggestions == nil {
			suggestions = []tagging.Suggestion{}
		}
		return writeJSON(c.Root().Writer, suggestions)
	}

	p := printer.Ctx(ctx)
	if len(suggestions) == 0 {
		p.Infof("No suggestions for %s", id)
		return nil
	}
	printSuggestions(p, suggestions)
	return nil
}

type statusOutput struct {
	tagging.ScannerStatus
	Pending  int                 `json:"pending"`
	Progress tagging.Progress    `json:"progress"`
	Queue    []tagscan.QueueItem `json:"queue"`
}

func (cmd *ScanCmd) runStatus(ctx context.Context, c *cli.Command) error {
	pending, err := cmd.app.Sessions.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending sessions: %w", err)
	}

	out := statusOutput{
		ScannerStatus: cmd.app.Scanner.Status(ctx),
		Pending:       pending,
		Progress:      cmd.app.Scanner.Progress(ctx),
		Queue:         cmd.app.Scanner.Queue(),
	}

	if cmd.jsonOutput {
		return writeJSON(c.Root().Writer, out)
	}

	p := printer.Ctx(ctx)
	p.Printf("pending:     %d", pending)
	printStatus(p, out.ScannerStatus)
	return nil
}
