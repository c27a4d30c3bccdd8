package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tick/internal/templates"
)

type TemplatesCmd struct {
	flags *Flags
}

func NewTemplatesCmd(flags *Flags) *TemplatesCmd {
	return &TemplatesCmd{flags: flags}
}

func (cmd *TemplatesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "templates",
		Usage:     "List bundled checklist templates",
		UsageText: "tick templates",
		Action:    cmd.run,
	})

	return app
}

func (cmd *TemplatesCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	fmt.Fprintln(out, "Available templates:")
	for _, key := range templates.Keys() {
		fmt.Fprintf(out, "- %s\n", key)
	}
	return nil
}
