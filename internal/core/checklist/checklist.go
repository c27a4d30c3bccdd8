// Package checklist defines the checklist domain model. A checklist is
// immutable once loaded; execution state lives in the run package.
package checklist

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a name to a URL-safe slug.
// "PCI Pre-Flight Review" -> "pci-pre-flight-review"
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "checklist"
	}
	return s
}

// Severity classifies how serious a failed check is.
// ENUM(low, medium, high, critical).
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a severity string. An empty value defaults to
// medium; anything else outside the enum is an error.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return SeverityMedium, nil
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// Metadata is descriptive information that does not affect execution.
// It is excluded from the content digest so cosmetic edits don't
// invalidate stored sessions.
type Metadata struct {
	Author        string   `yaml:"author" json:"author,omitempty"`
	Tags          []string `yaml:"tags" json:"tags,omitempty"`
	EstimatedTime string   `yaml:"estimated_time" json:"estimated_time,omitempty"`
}

// Variable declares an input the operator supplies before a run.
type Variable struct {
	Name     string   `yaml:"-" json:"name"`
	Prompt   string   `yaml:"prompt" json:"prompt"`
	Required bool     `yaml:"required" json:"required"`
	Options  []string `yaml:"options" json:"options,omitempty"`
	Default  string   `yaml:"default" json:"default,omitempty"`
}

// Variables preserves the authored ordering of the variables mapping.
// yaml.v3 decodes mappings into unordered maps, so this type walks the
// mapping node directly.
type Variables []Variable

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Variables) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("variables must be a mapping, got %s", nodeKind(node))
	}
	out := make(Variables, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var spec Variable
		if err := node.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("variable %q: %w", node.Content[i].Value, err)
		}
		spec.Name = node.Content[i].Value
		out = append(out, spec)
	}
	*v = out
	return nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "document"
	}
}

// Item is a single authored check. Matrix distinguishes nil (no matrix,
// one runnable) from an empty list (zero runnables).
type Item struct {
	ID               string              `yaml:"id" json:"id"`
	Check            string              `yaml:"check" json:"check"`
	Severity         Severity            `yaml:"severity" json:"severity"`
	Guidance         string              `yaml:"guidance" json:"guidance,omitempty"`
	EvidenceRequired bool                `yaml:"evidence_required" json:"evidence_required"`
	Condition        string              `yaml:"condition" json:"condition,omitempty"`
	Matrix           []map[string]string `yaml:"matrix" json:"matrix,omitempty"`
}

// Section groups items under an optional shared condition. A false section
// condition excludes every item without evaluating the items' own
// conditions.
type Section struct {
	Name      string `yaml:"name" json:"name"`
	Condition string `yaml:"condition" json:"condition,omitempty"`
	Items     []Item `yaml:"items" json:"items"`
}

// Checklist is the authored definition of a guided run.
type Checklist struct {
	Name      string    `yaml:"name" json:"name"`
	Version   string    `yaml:"version" json:"version"`
	Domain    string    `yaml:"domain" json:"domain"`
	Metadata  Metadata  `yaml:"metadata" json:"metadata" hash:"ignore"`
	Variables Variables `yaml:"variables" json:"variables"`
	Sections  []Section `yaml:"sections" json:"sections"`
}

// ID returns the stable identifier used to group sessions of this
// checklist: "<slug>-<version>".
func (c *Checklist) ID() string {
	return Slugify(c.Name) + "-" + c.Version
}

// VariableNames returns declared variable names in authored order.
func (c *Checklist) VariableNames() []string {
	names := make([]string, len(c.Variables))
	for i, v := range c.Variables {
		names[i] = v.Name
	}
	return names
}

// Variable returns the declaration for name, if any.
func (c *Checklist) Variable(name string) (Variable, bool) {
	for _, v := range c.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// ItemCount returns the number of authored item templates.
func (c *Checklist) ItemCount() int {
	n := 0
	for _, sec := range c.Sections {
		n += len(sec.Items)
	}
	return n
}
