package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/loader"
	"github.com/colonyops/tick/internal/core/report"
	"github.com/colonyops/tick/internal/core/run"
	"github.com/colonyops/tick/internal/core/styles"
)

type ReportCmd struct {
	flags *Flags

	// flags
	format        string
	checklistPath string
	outputPath    string
	overwrite     bool
	noPager       bool
}

func NewReportCmd(flags *Flags) *ReportCmd {
	return &ReportCmd{flags: flags}
}

func (cmd *ReportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Generate a report from a finished session",
		UsageText: "tick report [options] <session-id-or-path>",
		Description: `Renders a session's responses as markdown, HTML, or JSON. The checklist
is re-read and its digest compared to the one recorded at run time; a report
is never generated against a checklist that changed since the run.

Markdown reports print to the terminal with styling when no --output is
given; other formats default to a file next to the session.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       fmt.Sprintf("report format (%s)", strings.Join(report.Formats(), ", ")),
				Value:       "md",
				Destination: &cmd.format,
			},
			&cli.StringFlag{
				Name:        "checklist",
				Usage:       "checklist file (defaults to the path stored in the session)",
				Destination: &cmd.checklistPath,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file path",
				Destination: &cmd.outputPath,
			},
			&cli.BoolFlag{
				Name:        "overwrite",
				Usage:       "replace the output file if it exists",
				Destination: &cmd.overwrite,
			},
			&cli.BoolFlag{
				Name:        "no-pager",
				Usage:       "print markdown without terminal styling",
				Destination: &cmd.noPager,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReportCmd) run(ctx context.Context, c *cli.Command) error {
	arg := c.Args().First()
	if arg == "" {
		return fmt.Errorf("session id or path is required. Run 'tick report --help' for usage")
	}

	sess, sessPath, err := cmd.loadSession(arg)
	if err != nil {
		return err
	}

	cl, err := cmd.loadChecklist(sess)
	if err != nil {
		return err
	}

	// Old session files may predate digests; pin one now so later edits
	// to the checklist are caught.
	if sess.ChecklistDigest == "" {
		digest, err := checklist.Digest(cl)
		if err != nil {
			return err
		}
		sess.ChecklistDigest = digest
		store, err := cmd.flags.StoreAt(filepath.Dir(sessPath))
		if err == nil {
			if err := store.Save(sess); err != nil {
				log.Warn().Err(err).Msg("could not pin checklist digest on session")
			}
		}
		fmt.Fprintf(os.Stderr, "%s session had no checklist digest; pinned from the provided checklist\n",
			styles.WarningStyle.Render("note:"))
	}

	reporter, err := report.New(cmd.format)
	if err != nil {
		return err
	}
	content, err := report.Generate(reporter, sess, cl)
	if err != nil {
		return err
	}

	// Markdown with no explicit output goes to the terminal.
	if cmd.outputPath == "" && reporter.Extension() == "md" {
		return cmd.display(c, content)
	}

	outputPath := cmd.outputPath
	if outputPath == "" {
		outputPath = strings.TrimSuffix(sessPath, filepath.Ext(sessPath)) + "." + reporter.Extension()
	}
	if info, err := os.Stat(outputPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("output path %s is a directory", outputPath)
		}
		if !cmd.overwrite {
			return fmt.Errorf("output file %s already exists, use --overwrite to replace", outputPath)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("%s %s\n", styles.SuccessStyle.Render("Report written to"), outputPath)
	return nil
}

// loadSession accepts either a session id or a path to a session file.
func (cmd *ReportCmd) loadSession(arg string) (*run.Session, string, error) {
	if strings.HasSuffix(arg, ".json") {
		store, err := cmd.flags.StoreAt(filepath.Dir(arg))
		if err != nil {
			return nil, "", err
		}
		sess, err := store.LoadPath(arg)
		if err != nil {
			return nil, "", err
		}
		return sess, arg, nil
	}

	store, err := cmd.flags.Store()
	if err != nil {
		return nil, "", err
	}
	sess, err := store.Load(arg)
	if err != nil {
		return nil, "", err
	}
	return sess, filepath.Join(store.Dir(), "session-"+arg+".json"), nil
}

func (cmd *ReportCmd) loadChecklist(sess *run.Session) (*checklist.Checklist, error) {
	path := cmd.checklistPath
	if path == "" {
		path = sess.ChecklistPath
	}
	if path == "" {
		return nil, fmt.Errorf("session does not record a checklist path, pass --checklist")
	}
	return loader.Load(path)
}

// display prints markdown, rendered with glamour when stdout is a
// terminal.
func (cmd *ReportCmd) display(c *cli.Command, content []byte) error {
	out := c.Root().Writer

	if cmd.noPager || !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := out.Write(content)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		_, werr := out.Write(content)
		return werr
	}
	rendered, err := renderer.Render(string(content))
	if err != nil {
		_, werr := out.Write(content)
		return werr
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
