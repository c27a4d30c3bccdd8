package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const testChecklistYAML = `checklist:
  name: Deploy Review
  version: "1.0"
  domain: deployment
  variables:
    environment:
      prompt: Which environment?
      required: true
      options: [staging, prod]
  sections:
    - name: Checks
      items:
        - id: backups
          check: Backups verified
          severity: critical
        - id: regional
          check: "Health checks green in {region}"
          matrix:
            - region: us-east-1
            - region: eu-west-1
    - name: Prod only
      condition: environment == "prod"
      items:
        - id: freeze
          check: Change freeze lifted
`

func writeChecklist(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testChecklistYAML), 0o644))
	return path
}

func testApp(t *testing.T, buf *bytes.Buffer) (*cli.Command, *Flags) {
	t.Helper()
	dir := t.TempDir()
	flags := &Flags{
		DataDir:  filepath.Join(dir, "data"),
		CacheDir: filepath.Join(dir, "cache"),
	}
	app := &cli.Command{
		Name:   "tick",
		Writer: buf,
	}
	return app, flags
}

func TestAnswersEntry_PlanID(t *testing.T) {
	assert.Equal(t, "backups", AnswersEntry{ItemID: "backups"}.planID())
	assert.Equal(t, "regional[region=us-east-1]",
		AnswersEntry{ItemID: "regional", Matrix: map[string]string{"region": "us-east-1"}}.planID())
	// Already-expanded ids pass through untouched.
	assert.Equal(t, "regional[region=us-east-1]",
		AnswersEntry{ItemID: "regional[region=us-east-1]"}.planID())
}

func TestSplitEvidence(t *testing.T) {
	assert.Nil(t, splitEvidence(""))
	assert.Nil(t, splitEvidence(" , ,"))
	assert.Equal(t, []string{"a", "b"}, splitEvidence(" a, b ,"))
}

func TestRunCmd_DryRun(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	path := writeChecklist(t, t.TempDir())

	answers := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(answers, []byte(`{"variables":{"environment":"prod"}}`), 0o644))

	NewRunCmd(flags).Register(app)
	err := app.Run(context.Background(), []string{"tick", "run", "--dry-run", "--answers", answers, path})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Would run 4 items")
	assert.Contains(t, out, "Health checks green in us-east-1")
	assert.Contains(t, out, "Change freeze lifted")
}

func TestRunCmd_Unattended(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	path := writeChecklist(t, t.TempDir())

	answersJSON := `{
  "variables": {"environment": "staging"},
  "responses": [
    {"item_id": "backups", "result": "pass", "notes": "verified"},
    {"item_id": "regional", "result": "fail", "matrix": {"region": "us-east-1"}},
    {"item_id": "regional", "result": "p", "matrix": {"region": "eu-west-1"}}
  ]
}`
	answers := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(answers, []byte(answersJSON), 0o644))

	NewRunCmd(flags).Register(app)
	err := app.Run(context.Background(), []string{"tick", "run", "--no-input", "--answers", answers, path})
	require.NoError(t, err)

	store, err := flags.Store()
	require.NoError(t, err)
	entries, err := store.List("deploy-review-1.0")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Answered)
	assert.Equal(t, 3, entries[0].Total)

	sess, err := store.Load(entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", string(sess.Status))

	results := map[string]string{}
	for _, resp := range sess.Responses {
		results[resp.ItemID] = string(resp.Result)
	}
	assert.Equal(t, "pass", results["backups"])
	assert.Equal(t, "fail", results["regional[region=us-east-1]"])
	assert.Equal(t, "pass", results["regional[region=eu-west-1]"])
}

func TestRunCmd_UnattendedMissingVariable(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	path := writeChecklist(t, t.TempDir())

	answers := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(answers, []byte(`{"variables":{}}`), 0o644))

	NewRunCmd(flags).Register(app)
	err := app.Run(context.Background(), []string{"tick", "run", "--no-input", "--answers", answers, path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestRunCmd_ResumeConflictsWithNoInput(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	path := writeChecklist(t, t.TempDir())

	NewRunCmd(flags).Register(app)
	err := app.Run(context.Background(), []string{"tick", "run", "--resume", "latest", "--no-input", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--resume cannot be combined")
}

func TestValidateCmd(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	dir := t.TempDir()
	good := writeChecklist(t, dir)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("checklist:\n  name: x\n"), 0o644))

	NewValidateCmd(flags).Register(app)
	err := app.Run(context.Background(), []string{"tick", "validate", good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed validation")
	assert.Contains(t, buf.String(), "ok")
	assert.Contains(t, buf.String(), "invalid")
}

func TestReportCmd_DigestMismatch(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	dir := t.TempDir()
	path := writeChecklist(t, dir)

	answers := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(answers, []byte(`{"variables":{"environment":"staging"}}`), 0o644))

	NewRunCmd(flags).Register(app)
	NewReportCmd(flags).Register(app)
	require.NoError(t, app.Run(context.Background(),
		[]string{"tick", "run", "--no-input", "--answers", answers, path}))

	store, err := flags.Store()
	require.NoError(t, err)
	entries, err := store.List("")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Edit the checklist after the run; reporting must refuse.
	edited := strings.Replace(testChecklistYAML, "Backups verified", "Backups double checked", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	err = app.Run(context.Background(), []string{"tick", "report", entries[0].ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match session")
}

func TestReportCmd_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)
	dir := t.TempDir()
	path := writeChecklist(t, dir)

	answers := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(answers, []byte(`{"variables":{"environment":"staging"}}`), 0o644))

	NewRunCmd(flags).Register(app)
	NewReportCmd(flags).Register(app)
	require.NoError(t, app.Run(context.Background(),
		[]string{"tick", "run", "--no-input", "--answers", answers, path}))

	store, err := flags.Store()
	require.NoError(t, err)
	entries, err := store.List("")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	output := filepath.Join(dir, "report.html")
	require.NoError(t, app.Run(context.Background(),
		[]string{"tick", "report", "--format", "html", "--output", output, entries[0].ID}))

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Deploy Review")

	// A second write without --overwrite is refused.
	err = app.Run(context.Background(),
		[]string{"tick", "report", "--format", "html", "--output", output, entries[0].ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCmd_WritesTemplate(t *testing.T) {
	var buf bytes.Buffer
	app, flags := testApp(t, &buf)

	NewInitCmd(flags).Register(app)
	err := app.Run(context.Background(), []string{"tick", "init", "web"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Web Application Review")

	err = app.Run(context.Background(), []string{"tick", "init", "nope"})
	require.Error(t, err)
}
