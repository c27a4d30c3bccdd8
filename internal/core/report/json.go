package report

import (
	"encoding/json"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/run"
)

// JSONReporter emits the full session, checklist, and stats as one
// machine-readable document.
type JSONReporter struct{}

func (r *JSONReporter) ContentType() string { return "application/json" }
func (r *JSONReporter) Extension() string   { return "json" }

func (r *JSONReporter) Generate(sess *run.Session, cl *checklist.Checklist) ([]byte, error) {
	payload := struct {
		Checklist *checklist.Checklist `json:"checklist"`
		Session   *run.Session         `json:"session"`
		Stats     Stats                `json:"stats"`
	}{
		Checklist: cl,
		Session:   sess,
		Stats:     ComputeStats(sess.Responses),
	}
	return json.MarshalIndent(payload, "", "  ")
}
