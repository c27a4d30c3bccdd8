package report

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/plan"
	"github.com/colonyops/tick/internal/core/run"
)

const markdownTemplate = `# {{ .Checklist.Name }}

Version: {{ .Checklist.Version }}
Domain: {{ .Checklist.Domain }}
Session: {{ .Session.ID }}
Status: {{ .Session.Status }}
Started: {{ .Session.StartedAt.Format "2006-01-02 15:04 MST" }}

## Summary

| Pass | Fail | Skip | N/A | Total |
| --- | --- | --- | --- | --- |
| {{ .Stats.Pass }} | {{ .Stats.Fail }} | {{ .Stats.Skip }} | {{ .Stats.NA }} | {{ .Stats.Total }} |

## Results

| ID | Check | Severity | Result | Notes |
| --- | --- | --- | --- | --- |
{{ range .Rows -}}
| {{ cell .ID }} | {{ cell .Check }} | {{ cell .Severity }} | {{ cell .Result }} | {{ cell .Notes }} |
{{ end }}`

// row is one rendered result line, shared by the markdown and HTML
// reporters.
type row struct {
	ID       string
	Check    string
	Severity string
	Result   string
	Notes    string
	Evidence []string
}

// MarkdownReporter renders a results table in GitHub-flavored markdown.
type MarkdownReporter struct{}

func (r *MarkdownReporter) ContentType() string { return "text/markdown" }
func (r *MarkdownReporter) Extension() string   { return "md" }

func (r *MarkdownReporter) Generate(sess *run.Session, cl *checklist.Checklist) ([]byte, error) {
	tmpl, err := template.New("markdown").Funcs(template.FuncMap{
		"cell": escapeCell,
	}).Parse(markdownTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Checklist *checklist.Checklist
		Session   *run.Session
		Stats     Stats
		Rows      []row
	}{
		Checklist: cl,
		Session:   sess,
		Stats:     ComputeStats(sess.Responses),
		Rows:      buildRows(sess, cl),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildRows resolves each response back to its item template for check
// text and severity. Matrix rows substitute their values into the check.
func buildRows(sess *run.Session, cl *checklist.Checklist) []row {
	items := make(map[string]checklist.Item)
	for _, sec := range cl.Sections {
		for _, item := range sec.Items {
			items[item.ID] = item
		}
	}

	rows := make([]row, 0, len(sess.Responses))
	for _, resp := range sess.Responses {
		check := resp.ItemID
		severity := "unknown"
		var evidence []string

		if item, ok := items[templateID(resp.ItemID)]; ok {
			check = plan.Substitute(item.Check, resp.MatrixValues)
			sev := item.Severity
			if sev == "" {
				sev = checklist.SeverityMedium
			}
			severity = string(sev)
		}
		evidence = append(evidence, resp.Evidence...)

		rows = append(rows, row{
			ID:       resp.ItemID,
			Check:    check,
			Severity: severity,
			Result:   string(resp.Result),
			Notes:    resp.Notes,
			Evidence: evidence,
		})
	}
	return rows
}

// templateID strips the matrix suffix from an expanded item id.
// "role-access[role=admin]" -> "role-access"
func templateID(itemID string) string {
	if i := strings.IndexByte(itemID, '['); i >= 0 {
		return itemID[:i]
	}
	return itemID
}

// escapeCell makes arbitrary text safe inside a markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}
