package commands

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tick/internal/core/loader"
	"github.com/colonyops/tick/internal/core/styles"
	"github.com/colonyops/tick/pkg/iojson"
)

type ValidateCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
}

func NewValidateCmd(flags *Flags) *ValidateCmd {
	return &ValidateCmd{flags: flags}
}

func (cmd *ValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "validate",
		Usage:     "Validate checklist files without running them",
		UsageText: "tick validate <path-or-glob>...",
		Description: `Checks checklist files for schema problems, duplicate ids, invalid
severities, and condition expressions that reference undeclared variables.

Arguments may be plain paths or globs, including ** patterns:

  tick validate checklists/**/*.yaml`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output issues as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type fileIssues struct {
	File   string         `json:"file"`
	Issues []loader.Issue `json:"issues"`
}

func (cmd *ValidateCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one checklist path or glob is required")
	}

	var paths []string
	for _, arg := range c.Args().Slice() {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return fmt.Errorf("bad glob %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// A literal path that doesn't exist should still error below.
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}

	out := c.Root().Writer
	invalid := 0
	for _, path := range paths {
		issues, err := loader.Validate(path)
		if err != nil {
			return err
		}

		if cmd.jsonOutput {
			if err := iojson.WriteLine(out, fileIssues{File: path, Issues: issues}); err != nil {
				return err
			}
			if len(issues) > 0 {
				invalid++
			}
			continue
		}

		if len(issues) == 0 {
			fmt.Fprintf(out, "%s %s\n", styles.SuccessStyle.Render("ok"), path)
			continue
		}
		invalid++
		fmt.Fprintf(out, "%s %s\n", styles.ErrorStyle.Render("invalid"), path)
		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed validation", invalid, len(paths))
	}
	return nil
}
