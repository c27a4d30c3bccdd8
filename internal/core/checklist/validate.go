package checklist

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/tick/internal/core/expr"
)

// Validate checks the structural invariants of a loaded checklist:
// unique item ids, unique variable names, well-formed options/defaults,
// known severities, and parseable conditions referencing only declared
// variables.
func (c *Checklist) Validate() error {
	return criterio.ValidateStruct(
		c.validateHeader(),
		c.validateVariables(),
		c.validateSections(),
	)
}

func (c *Checklist) validateHeader() error {
	var errs criterio.FieldErrorsBuilder
	if strings.TrimSpace(c.Name) == "" {
		errs = errs.Append("name", fmt.Errorf("name is required"))
	}
	if strings.TrimSpace(c.Version) == "" {
		errs = errs.Append("version", fmt.Errorf("version is required"))
	}
	if strings.TrimSpace(c.Domain) == "" {
		errs = errs.Append("domain", fmt.Errorf("domain is required"))
	}
	return errs.ToError()
}

func (c *Checklist) validateVariables() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool)

	for _, v := range c.Variables {
		field := "variables." + v.Name

		if seen[v.Name] {
			errs = errs.Append(field, fmt.Errorf("duplicate variable name"))
			continue
		}
		seen[v.Name] = true

		if strings.TrimSpace(v.Prompt) == "" {
			errs = errs.Append(field+".prompt", fmt.Errorf("prompt is required"))
		}
		if v.Options != nil && len(v.Options) == 0 {
			errs = errs.Append(field+".options", fmt.Errorf("options must not be empty when given"))
		}
		if v.Default != "" && len(v.Options) > 0 && !slices.Contains(v.Options, v.Default) {
			errs = errs.Append(field+".default", fmt.Errorf("default %q is not one of the options", v.Default))
		}
	}

	return errs.ToError()
}

func (c *Checklist) validateSections() error {
	var errs criterio.FieldErrorsBuilder
	declared := c.VariableNames()
	seenIDs := make(map[string]bool)

	for si, sec := range c.Sections {
		field := fmt.Sprintf("sections[%d]", si)

		if strings.TrimSpace(sec.Name) == "" {
			errs = errs.Append(field+".name", fmt.Errorf("section name is required"))
		}
		for _, err := range expr.Validate(sec.Condition, declared) {
			errs = errs.Append(field+".condition", err)
		}

		for ii, item := range sec.Items {
			itemField := fmt.Sprintf("%s.items[%d]", field, ii)

			if strings.TrimSpace(item.ID) == "" {
				errs = errs.Append(itemField+".id", fmt.Errorf("item id is required"))
			} else if seenIDs[item.ID] {
				errs = errs.Append(itemField+".id", fmt.Errorf("duplicate item id %q", item.ID))
			}
			seenIDs[item.ID] = true

			if strings.TrimSpace(item.Check) == "" {
				errs = errs.Append(itemField+".check", fmt.Errorf("check text is required"))
			}
			if _, err := ParseSeverity(string(item.Severity)); err != nil {
				errs = errs.Append(itemField+".severity", err)
			}
			for _, err := range expr.Validate(item.Condition, declared) {
				errs = errs.Append(itemField+".condition", err)
			}
		}
	}

	return errs.ToError()
}
