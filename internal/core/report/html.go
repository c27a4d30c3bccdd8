package report

import (
	"bytes"
	"html/template"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/run"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Checklist.Name }}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem auto; max-width: 60rem; color: #1a1a2e; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d0d0e0; padding: 0.4rem 0.7rem; text-align: left; }
th { background: #f4f4fa; }
.result-pass { color: #1a7f37; }
.result-fail { color: #cf222e; font-weight: bold; }
.result-skip, .result-na { color: #6e7781; }
.meta { color: #6e7781; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>{{ .Checklist.Name }}</h1>
<p class="meta">
Version {{ .Checklist.Version }} · Domain {{ .Checklist.Domain }} ·
Session {{ .Session.ID }} · Status {{ .Session.Status }}
</p>
<h2>Summary</h2>
<table>
<tr><th>Pass</th><th>Fail</th><th>Skip</th><th>N/A</th><th>Total</th></tr>
<tr><td>{{ .Stats.Pass }}</td><td>{{ .Stats.Fail }}</td><td>{{ .Stats.Skip }}</td><td>{{ .Stats.NA }}</td><td>{{ .Stats.Total }}</td></tr>
</table>
<h2>Results</h2>
<table>
<tr><th>ID</th><th>Check</th><th>Severity</th><th>Result</th><th>Notes</th><th>Evidence</th></tr>
{{ range .Rows }}
<tr>
<td>{{ .ID }}</td>
<td>{{ .Check }}</td>
<td>{{ .Severity }}</td>
<td class="result-{{ .Result }}">{{ .Result }}</td>
<td>{{ .Notes }}</td>
<td>{{ range .Evidence }}<div>{{ . }}</div>{{ end }}</td>
</tr>
{{ end }}
</table>
</body>
</html>
`

// HTMLReporter renders a standalone HTML document. html/template handles
// escaping, so response notes and evidence can never inject markup.
type HTMLReporter struct{}

func (r *HTMLReporter) ContentType() string { return "text/html" }
func (r *HTMLReporter) Extension() string   { return "html" }

func (r *HTMLReporter) Generate(sess *run.Session, cl *checklist.Checklist) ([]byte, error) {
	tmpl, err := template.New("html").Parse(htmlTemplate)
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
