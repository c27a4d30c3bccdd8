// Package vars resolves operator-supplied variable values against a
// checklist's declared variable specs.
package vars

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/expr"
)

// BindingError reports required variables that were left unbound or values
// outside a variable's declared options. It is fatal before plan
// construction begins.
type BindingError struct {
	Missing []string
	Invalid map[string]string // name -> rejected value
}

func (e *BindingError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required variables: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("invalid value for %s: %q", name, e.Invalid[name]))
		}
	}
	return strings.Join(parts, "; ")
}

// Resolve produces the bindings used for plan construction. Defaults fill
// unbound declared variables; required variables without a value or default
// are a hard failure, not a silent default. Values for option-constrained
// variables must be one of the declared options. Supplied values for names
// the checklist never declares are dropped.
func Resolve(declared checklist.Variables, supplied map[string]any) (expr.Bindings, error) {
	bindings := make(expr.Bindings, len(declared))
	bindErr := &BindingError{Invalid: make(map[string]string)}

	for _, spec := range declared {
		value, ok := supplied[spec.Name]
		if isEmpty(value) {
			ok = false
		}
		if !ok && spec.Default != "" {
			value, ok = spec.Default, true
		}
		if !ok {
			if spec.Required {
				bindErr.Missing = append(bindErr.Missing, spec.Name)
			}
			continue
		}

		if len(spec.Options) > 0 {
			str := fmt.Sprintf("%v", value)
			if !slices.Contains(spec.Options, str) {
				bindErr.Invalid[spec.Name] = str
				continue
			}
			bindings[spec.Name] = str
			continue
		}
		bindings[spec.Name] = value
	}

	if len(bindErr.Missing) > 0 || len(bindErr.Invalid) > 0 {
		return nil, bindErr
	}
	return bindings, nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
