package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tick/internal/core/styles"
	"github.com/colonyops/tick/pkg/iojson"
)

type SessionsCmd struct {
	flags *Flags

	// flags
	checklistID string
	jsonOutput  bool
}

func NewSessionsCmd(flags *Flags) *SessionsCmd {
	return &SessionsCmd{flags: flags}
}

func (cmd *SessionsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sessions",
		Usage:     "List recorded sessions",
		UsageText: "tick sessions [--checklist <id>] [--json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "checklist",
				Usage:       "only show sessions for this checklist id",
				Destination: &cmd.checklistID,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SessionsCmd) run(ctx context.Context, c *cli.Command) error {
	store, err := cmd.flags.Store()
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	entries, err := store.List(cmd.checklistID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, entry := range entries {
			if err := iojson.WriteLine(out, entry); err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHECKLIST\tSTATUS\tANSWERED\tUPDATED")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			entry.ID,
			entry.ChecklistID,
			styles.Status(entry.Status),
			entry.Answered,
			entry.Total,
			entry.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
