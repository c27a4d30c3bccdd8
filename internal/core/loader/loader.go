// Package loader parses checklist YAML files into validated checklist
// objects. Decoding is strict: unknown fields are errors, so typos in
// authored files surface instead of silently disappearing.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/tick/internal/core/checklist"
)

// Document is the top-level YAML shape: a single "checklist" key.
type Document struct {
	Checklist checklist.Checklist `yaml:"checklist"`
}

// Issue is one validation problem found in a checklist file.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Load parses and validates a checklist file. Severities are normalized
// during loading so downstream code never sees an empty severity.
func Load(path string) (*checklist.Checklist, error) {
	issues, cl, err := validateFile(path)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		formatted := make([]string, len(issues))
		for i, issue := range issues {
			formatted[i] = issue.String()
		}
		return nil, fmt.Errorf("checklist validation failed: %s", strings.Join(formatted, "; "))
	}
	return cl, nil
}

// Validate returns the issues found in a checklist file without loading
// it. A nil slice means the file is valid.
func Validate(path string) ([]Issue, error) {
	issues, _, err := validateFile(path)
	return issues, err
}

func validateFile(path string) ([]Issue, *checklist.Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read checklist file: %w", err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return []Issue{{Message: fmt.Sprintf("invalid YAML: %v", err)}}, nil, nil
	}

	cl := doc.Checklist
	if cl.Name == "" && cl.Version == "" && len(cl.Sections) == 0 {
		return []Issue{{Message: "file must contain a top-level 'checklist' mapping"}}, nil, nil
	}

	normalizeSeverities(&cl)

	if err := cl.Validate(); err != nil {
		return toIssues(err), &cl, nil
	}
	return nil, &cl, nil
}

func normalizeSeverities(cl *checklist.Checklist) {
	for si := range cl.Sections {
		for ii := range cl.Sections[si].Items {
			item := &cl.Sections[si].Items[ii]
			if sev, err := checklist.ParseSeverity(string(item.Severity)); err == nil {
				item.Severity = sev
			}
		}
	}
}

// toIssues flattens criterio field errors into loader issues.
func toIssues(err error) []Issue {
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		issues := make([]Issue, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			issues = append(issues, Issue{Path: fe.Field, Message: fe.Err.Error()})
		}
		return issues
	}
	return []Issue{{Message: err.Error()}}
}
