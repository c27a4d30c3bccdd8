// Package plan turns a checklist plus variable bindings into the ordered
// list of runnable items for a session.
//
// Plan construction is deterministic: the same checklist and bindings always
// produce the same ordered item ids. Resume depends on this to regenerate an
// identical plan across process restarts.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/expr"
)

// Runnable is one concrete plan entry derived from an item template.
type Runnable struct {
	ItemID           string             `json:"item_id"`
	SectionName      string             `json:"section_name"`
	Check            string             `json:"check"`
	Severity         checklist.Severity `json:"severity"`
	Guidance         string             `json:"guidance,omitempty"`
	EvidenceRequired bool               `json:"evidence_required"`
	MatrixValues     map[string]string  `json:"matrix_values,omitempty"`
}

// MatrixID derives the stable identity for a matrix-expanded item. Row keys
// are canonicalized by sorting, so authoring order inside a row never
// changes the id.
//
// "role-access" + {role: admin} -> "role-access[role=admin]"
func MatrixID(templateID string, row map[string]string) string {
	if len(row) == 0 {
		return templateID
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + row[k]
	}
	return templateID + "[" + strings.Join(parts, ",") + "]"
}

// Substitute replaces {key} placeholders in check text with the matrix
// row's values. Unknown placeholders are left verbatim.
func Substitute(check string, row map[string]string) string {
	if len(row) == 0 {
		return check
	}
	for k, v := range row {
		check = strings.ReplaceAll(check, "{"+k+"}", v)
	}
	return check
}

// Expand materializes the runnables for one item template. An absent matrix
// yields exactly one runnable with no matrix values. An empty matrix list
// yields none: the item is excluded from the plan entirely.
func Expand(item checklist.Item, sectionName string) []Runnable {
	severity := item.Severity
	if severity == "" {
		severity = checklist.SeverityMedium
	}

	if item.Matrix == nil {
		return []Runnable{{
			ItemID:           item.ID,
			SectionName:      sectionName,
			Check:            item.Check,
			Severity:         severity,
			Guidance:         item.Guidance,
			EvidenceRequired: item.EvidenceRequired,
		}}
	}

	runnables := make([]Runnable, 0, len(item.Matrix))
	for _, row := range item.Matrix {
		runnables = append(runnables, Runnable{
			ItemID:           MatrixID(item.ID, row),
			SectionName:      sectionName,
			Check:            Substitute(item.Check, row),
			Severity:         severity,
			Guidance:         item.Guidance,
			EvidenceRequired: item.EvidenceRequired,
			MatrixValues:     row,
		})
	}
	return runnables
}

// Build walks sections and items in authored order, evaluating conditions
// and expanding matrices. A false section condition skips the whole section
// without evaluating its items' conditions. Any expression error aborts
// construction; there is no partial plan.
func Build(cl *checklist.Checklist, bindings expr.Bindings) ([]Runnable, error) {
	declared := cl.VariableNames()
	var out []Runnable
	seen := make(map[string]bool)

	for _, sec := range cl.Sections {
		include, err := evalCondition(sec.Condition, declared, bindings)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sec.Name, err)
		}
		if !include {
			continue
		}

		for _, item := range sec.Items {
			include, err := evalCondition(item.Condition, declared, bindings)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", item.ID, err)
			}
			if !include {
				continue
			}

			for _, r := range Expand(item, sec.Name) {
				if seen[r.ItemID] {
					return nil, fmt.Errorf("item %q: duplicate plan id %q", item.ID, r.ItemID)
				}
				seen[r.ItemID] = true
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// IDs returns the ordered item ids of a plan.
func IDs(runnables []Runnable) []string {
	ids := make([]string, len(runnables))
	for i, r := range runnables {
		ids[i] = r.ItemID
	}
	return ids
}

// Find returns the plan position of an item id, or -1.
func Find(runnables []Runnable, itemID string) int {
	for i, r := range runnables {
		if r.ItemID == itemID {
			return i
		}
	}
	return -1
}

func evalCondition(cond string, declared []string, bindings expr.Bindings) (bool, error) {
	if cond == "" {
		return true, nil
	}
	// Undeclared identifiers are rejected regardless of what happens to be
	// bound, so a binding can never mask a checklist authoring error.
	if errs := expr.Validate(cond, declared); len(errs) > 0 {
		return false, errs[0]
	}
	return expr.Evaluate(cond, bindings)
}
