package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/loader"
	"github.com/colonyops/tick/internal/templates"
)

type InfoCmd struct {
	flags   *Flags
	version string
}

func NewInfoCmd(flags *Flags, version string) *InfoCmd {
	return &InfoCmd{flags: flags, version: version}
}

func (cmd *InfoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "info",
		Usage:     "Show tool info, or summarize a checklist file",
		UsageText: "tick info [checklist.yaml]",
		Description: `Without arguments, prints version, directories, cache stats, and the
bundled template keys. Given a checklist file, prints its structure and
content digest instead.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *InfoCmd) run(ctx context.Context, c *cli.Command) error {
	if path := c.Args().First(); path != "" {
		return cmd.checklistInfo(c, path)
	}
	return cmd.toolInfo(c)
}

func (cmd *InfoCmd) toolInfo(c *cli.Command) error {
	out := c.Root().Writer
	store := cmd.flags.Cache()
	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	fmt.Fprintf(out, "tick version: %s\n", cmd.version)
	fmt.Fprintf(out, "Data directory: %s\n", cmd.flags.DataDir)
	fmt.Fprintf(out, "Cache directory: %s\n", store.Dir())
	fmt.Fprintf(out, "Cache entries: %d (%d bytes)\n", stats.Entries, stats.TotalBytes)
	fmt.Fprintf(out, "Templates: %s\n", strings.Join(templates.Keys(), ", "))
	return nil
}

func (cmd *InfoCmd) checklistInfo(c *cli.Command, path string) error {
	cl, err := loader.Load(path)
	if err != nil {
		return err
	}
	digest, err := checklist.Digest(cl)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cl.Name)
	fmt.Fprintf(&b, "- **ID**: %s\n", cl.ID())
	fmt.Fprintf(&b, "- **Domain**: %s\n", cl.Domain)
	fmt.Fprintf(&b, "- **Digest**: `%s`\n", digest)
	if cl.Metadata.Author != "" {
		fmt.Fprintf(&b, "- **Author**: %s\n", cl.Metadata.Author)
	}
	if cl.Metadata.EstimatedTime != "" {
		fmt.Fprintf(&b, "- **Estimated time**: %s\n", cl.Metadata.EstimatedTime)
	}
	if len(cl.Metadata.Tags) > 0 {
		fmt.Fprintf(&b, "- **Tags**: %s\n", strings.Join(cl.Metadata.Tags, ", "))
	}

	if len(cl.Variables) > 0 {
		b.WriteString("\n## Variables\n\n")
		for _, v := range cl.Variables {
			line := fmt.Sprintf("- `%s`: %s", v.Name, v.Prompt)
			if v.Required {
				line += " (required)"
			}
			if len(v.Options) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(v.Options, ", "))
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n## Sections\n\n")
	for _, sec := range cl.Sections {
		fmt.Fprintf(&b, "### %s\n\n", sec.Name)
		if sec.Condition != "" {
			fmt.Fprintf(&b, "_when_ `%s`\n\n", sec.Condition)
		}
		for _, item := range sec.Items {
			sev := item.Severity
			if sev == "" {
				sev = checklist.SeverityMedium
			}
			fmt.Fprintf(&b, "- **%s** [%s] %s\n", item.ID, sev, item.Check)
		}
		b.WriteString("\n")
	}

	out := c.Root().Writer
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := fmt.Fprint(out, b.String())
		return err
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		_, werr := fmt.Fprint(out, b.String())
		return werr
	}
	rendered, err := renderer.Render(b.String())
	if err != nil {
		_, werr := fmt.Fprint(out, b.String())
		return werr
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
