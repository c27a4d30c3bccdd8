package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tick/internal/core/styles"
	"github.com/colonyops/tick/internal/templates"
)

type InitCmd struct {
	flags *Flags

	// flags
	output    string
	overwrite bool
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Scaffold a new checklist from a bundled template",
		UsageText: "tick init [--output <file>] <template>",
		Description: `Writes a starter checklist for the given template key to --output, or
to stdout when no output is given. Run 'tick templates' to see the keys.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write the checklist to this file instead of stdout",
				Destination: &cmd.output,
			},
			&cli.BoolFlag{
				Name:        "overwrite",
				Usage:       "replace the output file if it exists",
				Destination: &cmd.overwrite,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	key := c.Args().First()
	if key == "" {
		return fmt.Errorf("template key is required (available: %v)", templates.Keys())
	}

	content, err := templates.Get(key)
	if err != nil {
		return err
	}

	if cmd.output == "" {
		_, err := c.Root().Writer.Write(content)
		return err
	}

	if info, statErr := os.Stat(cmd.output); statErr == nil {
		if info.IsDir() {
			return fmt.Errorf("output path %s is a directory", cmd.output)
		}
		if !cmd.overwrite {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("output file %s already exists, use --overwrite to replace", cmd.output)
			}
			var confirmed bool
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Overwrite %s?", cmd.output)).
				Value(&confirmed).
				Run()
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
			if !confirmed {
				return nil
			}
		}
	}

	if err := os.WriteFile(cmd.output, content, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	fmt.Printf("%s %s\n", styles.SuccessStyle.Render("Wrote checklist to"), cmd.output)
	return nil
}
