// Package report renders a session's responses into report documents.
// Reporters only read sessions; they never mutate them.
package report

import (
	"fmt"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/run"
)

// Reporter renders one output format.
type Reporter interface {
	// ContentType returns the MIME type of the generated document.
	ContentType() string
	// Extension returns the file extension without a leading dot.
	Extension() string
	// Generate renders the report.
	Generate(sess *run.Session, cl *checklist.Checklist) ([]byte, error)
}

// DigestMismatchError means the checklist given at report time is not the
// one the session was recorded against.
type DigestMismatchError struct {
	SessionID string
	Expected  string // digest stored in the session
	Actual    string // digest of the checklist presented now
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("checklist does not match session %s: stored digest %s, computed %s",
		e.SessionID, e.Expected, e.Actual)
}

// New returns the reporter for a format name.
func New(format string) (Reporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownReporter{}, nil
	case "html":
		return &HTMLReporter{}, nil
	case "json":
		return &JSONReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (expected md, html, or json)", format)
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"md", "html", "json"}
}

// VerifyDigest recomputes the checklist digest and compares it to the one
// stored in the session. Generation must not proceed on a mismatch: the
// report would attribute responses to checks that may have changed meaning.
func VerifyDigest(sess *run.Session, cl *checklist.Checklist) error {
	digest, err := checklist.Digest(cl)
	if err != nil {
		return err
	}
	if sess.ChecklistDigest != "" && sess.ChecklistDigest != digest {
		return &DigestMismatchError{
			SessionID: sess.ID,
			Expected:  sess.ChecklistDigest,
			Actual:    digest,
		}
	}
	return nil
}

// Generate runs the digest check and renders the report in one step.
func Generate(r Reporter, sess *run.Session, cl *checklist.Checklist) ([]byte, error) {
	if err := VerifyDigest(sess, cl); err != nil {
		return nil, err
	}
	return r.Generate(sess, cl)
}
