package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tick/internal/core/cache"
	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/loader"
	"github.com/colonyops/tick/internal/core/logging"
	"github.com/colonyops/tick/internal/core/plan"
	"github.com/colonyops/tick/internal/core/run"
	"github.com/colonyops/tick/internal/core/styles"
	"github.com/colonyops/tick/internal/core/vars"
	"github.com/colonyops/tick/internal/store/jsonfile"
	"github.com/colonyops/tick/pkg/iojson"
)

// AnswersFile is the JSON document accepted by --answers and piped stdin.
type AnswersFile struct {
	Variables map[string]any `json:"variables"`
	Responses []AnswersEntry `json:"responses"`
}

// AnswersEntry is one pre-recorded response. ItemID may be a template id
// with Matrix set, or an already-expanded id like "check[region=east]".
type AnswersEntry struct {
	ItemID   string            `json:"item_id"`
	Result   string            `json:"result"`
	Notes    string            `json:"notes"`
	Evidence []string          `json:"evidence"`
	Matrix   map[string]string `json:"matrix"`
}

// planID resolves the entry to the expanded plan item id it answers.
func (e AnswersEntry) planID() string {
	if len(e.Matrix) > 0 {
		return plan.MatrixID(e.ItemID, e.Matrix)
	}
	return e.ItemID
}

type RunCmd struct {
	flags   *Flags
	answers *iojson.FileReader[AnswersFile]

	// flags
	resume    string
	noInput   bool
	dryRun    bool
	noCache   bool
	outputDir string
}

func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{
		flags:   flags,
		answers: iojson.NewFileReader[AnswersFile]("answers", "path to a JSON answers file (or pipe it to stdin)"),
	}
}

func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run a checklist interactively or from an answers file",
		UsageText: "tick run [options] <checklist.yaml>",
		Description: `Starts a guided run through a checklist. Variables are prompted first,
conditions and matrices expand the checklist into a concrete plan, and every
response is saved immediately so an interrupted run can be resumed.

Use --resume with a session id (or 'latest') to pick up where you left off.
Use --no-input with --answers for unattended runs.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "resume",
				Usage:       "resume a session by id, or 'latest' for the most recent in-progress run",
				Destination: &cmd.resume,
			},
			&cli.BoolFlag{
				Name:        "no-input",
				Usage:       "never prompt; take variables and responses from the answers file",
				Destination: &cmd.noInput,
			},
			cmd.answers.Flag(),
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print the expanded plan without starting a session",
				Destination: &cmd.dryRun,
			},
			&cli.BoolFlag{
				Name:        "no-cache",
				Usage:       "skip the plan expansion cache",
				Destination: &cmd.noCache,
			},
			&cli.StringFlag{
				Name:        "output-dir",
				Usage:       "directory for session files (defaults to <data-dir>/sessions)",
				Destination: &cmd.outputDir,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("checklist path is required. Run 'tick run --help' for usage")
	}
	if cmd.resume != "" && (cmd.noInput || cmd.dryRun) {
		return fmt.Errorf("--resume cannot be combined with --no-input or --dry-run")
	}

	cl, err := loader.Load(path)
	if err != nil {
		return err
	}
	log.Debug().Str("checklist", cl.ID()).Msg("checklist loaded")

	answers := AnswersFile{}
	if cmd.noInput || (cmd.dryRun && cmd.answers.Provided()) {
		answers, err = cmd.answers.Read()
		if err != nil {
			return fmt.Errorf("read answers: %w", err)
		}
	}

	if cmd.dryRun {
		return cmd.runDryRun(c, cl, answers)
	}

	sessionsDir := cmd.outputDir
	if sessionsDir == "" {
		sessionsDir = cmd.flags.SessionsDir()
	}
	store, err := cmd.flags.StoreAt(sessionsDir)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	var machine *run.Machine
	if cmd.resume != "" {
		machine, err = cmd.resumeSession(store, cl)
	} else {
		machine, err = cmd.startSession(store, cl, path, answers)
	}
	if err != nil {
		return err
	}

	ctx = logging.WithSessionID(ctx, machine.Session().ID)
	ctx = logging.WithChecklistID(ctx, cl.ID())
	log.Debug().Ctx(ctx).Int("items", len(machine.Plan())).Msg("plan ready")

	if cmd.noInput {
		return cmd.runUnattended(c, machine, answers)
	}
	return cmd.runInteractive(machine)
}

func (cmd *RunCmd) runDryRun(c *cli.Command, cl *checklist.Checklist, answers AnswersFile) error {
	bindings, err := vars.Resolve(cl.Variables, answers.Variables)
	if err != nil {
		var bindErr *vars.BindingError
		if !errors.As(err, &bindErr) {
			return err
		}
		// Preview proceeds with whatever resolved; warn about the rest.
		for _, name := range bindErr.Missing {
			fmt.Fprintf(os.Stderr, "%s missing variable %s\n", styles.WarningStyle.Render("warning:"), name)
		}
		optional := make(checklist.Variables, len(cl.Variables))
		copy(optional, cl.Variables)
		for i := range optional {
			optional[i].Required = false
		}
		bindings, err = vars.Resolve(optional, answers.Variables)
		if err != nil {
			return err
		}
	}

	items, err := cmd.expand(cl, bindings)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	fmt.Fprintln(out, styles.TitleStyle.Render(cl.Name))
	fmt.Fprintf(out, "Version: %s\nDomain: %s\n\n", cl.Version, cl.Domain)
	fmt.Fprintf(out, "Would run %d items:\n", len(items))
	for _, item := range items {
		fmt.Fprintf(out, "  - [%s] %s\n", styles.Severity(item.Severity), item.Check)
	}
	return nil
}

// expand builds the plan, going through the expansion cache unless
// disabled.
func (cmd *RunCmd) expand(cl *checklist.Checklist, bindings map[string]any) ([]plan.Runnable, error) {
	var store *cache.Cache
	if !cmd.noCache {
		store = cmd.flags.Cache()
		if items := store.ReadExpansion(cl, bindings); items != nil {
			log.Debug().Int("items", len(items)).Msg("plan served from cache")
			return items, nil
		}
	}

	items, err := plan.Build(cl, bindings)
	if err != nil {
		return nil, err
	}
	if store != nil {
		store.WriteExpansion(cl, bindings, items)
	}
	return items, nil
}

func (cmd *RunCmd) resumeSession(store *jsonfile.SessionStore, cl *checklist.Checklist) (*run.Machine, error) {
	var sess *run.Session
	var err error
	if cmd.resume == "latest" {
		sess, err = store.LatestInProgress(cl.ID())
		if errors.Is(err, run.ErrNotFound) {
			return nil, fmt.Errorf("no in-progress session found for %s", cl.ID())
		}
	} else {
		sess, err = store.Load(cmd.resume)
	}
	if err != nil {
		return nil, err
	}

	machine, err := run.Resume(store, cl, sess)
	if err != nil {
		return nil, err
	}

	answered, total := machine.Progress()
	fmt.Printf("%s session %s (%d/%d complete)\n",
		styles.WarningStyle.Render("Resuming"), sess.ID, answered, total)
	return machine, nil
}

func (cmd *RunCmd) startSession(store *jsonfile.SessionStore, cl *checklist.Checklist, path string, answers AnswersFile) (*run.Machine, error) {
	var bindings map[string]any
	var err error

	if cmd.noInput {
		bindings, err = vars.Resolve(cl.Variables, answers.Variables)
	} else {
		bindings, err = cmd.promptVariables(cl)
	}
	if err != nil {
		return nil, err
	}

	abs, pathErr := filepath.Abs(path)
	if pathErr != nil {
		abs = path
	}

	machine, err := run.Create(store, cl, bindings, abs)
	if err != nil {
		return nil, err
	}
	if !cmd.noCache {
		cmd.flags.Cache().WriteExpansion(cl, bindings, machine.Plan())
	}
	return machine, nil
}

// promptVariables collects checklist variables through one huh form, in
// declaration order.
func (cmd *RunCmd) promptVariables(cl *checklist.Checklist) (map[string]any, error) {
	if len(cl.Variables) == 0 {
		return map[string]any{}, nil
	}

	values := make([]string, len(cl.Variables))
	fields := make([]huh.Field, 0, len(cl.Variables))
	for i, v := range cl.Variables {
		values[i] = v.Default

		if len(v.Options) > 0 {
			opts := make([]huh.Option[string], 0, len(v.Options)+1)
			if !v.Required {
				opts = append(opts, huh.NewOption("(skip)", ""))
			}
			for _, o := range v.Options {
				opts = append(opts, huh.NewOption(o, o))
			}
			fields = append(fields, huh.NewSelect[string]().
				Title(v.Prompt).
				Options(opts...).
				Value(&values[i]))
			continue
		}

		input := huh.NewInput().
			Title(v.Prompt).
			Value(&values[i])
		if v.Required {
			name := v.Name
			input = input.Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("%s is required", name)
				}
				return nil
			})
		}
		fields = append(fields, input)
	}

	if err := (huh.NewForm(huh.NewGroup(fields...))).Run(); err != nil {
		return nil, err
	}

	supplied := make(map[string]any, len(cl.Variables))
	for i, v := range cl.Variables {
		supplied[v.Name] = values[i]
	}
	return vars.Resolve(cl.Variables, supplied)
}

func (cmd *RunCmd) runInteractive(machine *run.Machine) error {
	sess := machine.Session()
	_, total := machine.Progress()

	for !machine.Done() {
		item := machine.Current()
		answered, _ := machine.Progress()

		fmt.Println()
		fmt.Println(styles.MutedStyle.Render(fmt.Sprintf("[%d/%d] %s", answered+1, total, item.SectionName)))

		result, notes, evidence, back, err := cmd.promptItem(item, sess.CurrentIndex > 0)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				answered, total := machine.Progress()
				fmt.Printf("\n%s Session saved with %d/%d responses.\n",
					styles.WarningStyle.Render("Interrupted."), answered, total)
				fmt.Printf("Resume with: tick run --resume %s <checklist>\n", sess.ID)
				return nil
			}
			return err
		}

		if back {
			if err := machine.Back(); err != nil {
				return err
			}
			continue
		}
		if err := machine.Record(item.ItemID, result, notes, evidence); err != nil {
			return err
		}
	}

	if err := machine.Finalize(run.StatusCompleted); err != nil {
		return err
	}
	fmt.Printf("\n%s\n", styles.SuccessStyle.Render("Session "+sess.ID+" completed."))
	printSummaryTo(os.Stdout, sess)
	return nil
}

// promptItem asks for one item's result, notes, and evidence. back=true
// means the user chose to revisit the previous item.
func (cmd *RunCmd) promptItem(item *plan.Runnable, canGoBack bool) (run.Result, string, []string, bool, error) {
	const goBack = "__back__"

	opts := []huh.Option[string]{
		huh.NewOption("pass", string(run.ResultPass)),
		huh.NewOption("fail", string(run.ResultFail)),
		huh.NewOption("skip", string(run.ResultSkip)),
		huh.NewOption("n/a", string(run.ResultNA)),
	}
	if canGoBack {
		opts = append(opts, huh.NewOption("← previous item", goBack))
	}

	title := fmt.Sprintf("[%s] %s", item.Severity, item.Check)
	var choice, notes, evidenceRaw string

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title(title).
			Description(item.Guidance).
			Options(opts...).
			Value(&choice),
	}
	if err := (huh.NewForm(huh.NewGroup(fields...))).Run(); err != nil {
		return "", "", nil, false, err
	}
	if choice == goBack {
		return "", "", nil, true, nil
	}

	result, err := run.ParseResult(choice)
	if err != nil {
		return "", "", nil, false, err
	}

	detail := []huh.Field{
		huh.NewText().
			Title("Notes").
			Lines(2).
			Value(&notes),
	}
	evidenceInput := huh.NewInput().
		Title("Evidence (comma separated links or paths)").
		Value(&evidenceRaw)
	if item.EvidenceRequired && (result == run.ResultPass || result == run.ResultFail) {
		evidenceInput = evidenceInput.Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("this check requires evidence")
			}
			return nil
		})
	}
	detail = append(detail, evidenceInput)

	if err := (huh.NewForm(huh.NewGroup(detail...))).Run(); err != nil {
		return "", "", nil, false, err
	}

	return result, strings.TrimSpace(notes), splitEvidence(evidenceRaw), false, nil
}

func (cmd *RunCmd) runUnattended(c *cli.Command, machine *run.Machine, answers AnswersFile) error {
	byID := make(map[string][]AnswersEntry)
	for _, entry := range answers.Responses {
		id := entry.planID()
		byID[id] = append(byID[id], entry)
	}

	for !machine.Done() {
		item := machine.Current()

		result := run.ResultSkip
		var notes string
		var evidence []string

		if entries := byID[item.ItemID]; len(entries) > 0 {
			entry := entries[0]
			byID[item.ItemID] = entries[1:]

			if entry.Result != "" {
				parsed, err := run.ParseResult(entry.Result)
				if err != nil {
					return fmt.Errorf("answers entry %s: %w", item.ItemID, err)
				}
				result = parsed
			}
			notes = entry.Notes
			evidence = entry.Evidence
		}

		if err := machine.Record(item.ItemID, result, notes, evidence); err != nil {
			return err
		}
	}

	unused := 0
	for _, entries := range byID {
		unused += len(entries)
	}
	if unused > 0 {
		fmt.Fprintf(os.Stderr, "%s %d answer entries did not match any plan item\n",
			styles.WarningStyle.Render("warning:"), unused)
	}

	if err := machine.Finalize(run.StatusCompleted); err != nil {
		return err
	}

	sess := machine.Session()
	out := c.Root().Writer
	fmt.Fprintf(out, "%s\n", styles.SuccessStyle.Render("Session "+sess.ID+" completed."))
	printSummaryTo(out, sess)
	return nil
}

func splitEvidence(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
