// Package expr evaluates the restricted boolean expressions used in
// checklist section and item conditions.
//
// The grammar is a strict allow-list: equality and membership tests between
// a variable reference and scalar literals, combined with and/or/not.
// Conditions are author-supplied content, so anything outside the grammar is
// rejected at parse time and there is no fallback to a general evaluator.
package expr

import "fmt"

// Bindings maps declared variable names to their resolved values.
// Values are strings, bools, float64s, or flat lists of those.
type Bindings map[string]any

// Error describes a rejected or unresolvable expression. Pos is a byte
// offset into Expr.
type Error struct {
	Expr  string
	Pos   int
	Token string
	Msg   string
}

func (e *Error) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid expression %q: %s (at position %d)", e.Expr, e.Msg, e.Pos)
	}
	return fmt.Sprintf("invalid expression %q: %s at position %d: %s", e.Expr, e.Token, e.Pos, e.Msg)
}

// Validate parses the expression and checks every identifier against the
// declared variable names. It needs no bindings, so it is usable at
// checklist-validation time. A nil result means the expression is valid.
func Validate(input string, declared []string) []error {
	if input == "" {
		return nil
	}
	tree, err := parse(input)
	if err != nil {
		return []error{err}
	}

	names := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		names[name] = struct{}{}
	}

	var errs []error
	walkVars(tree, func(v varNode) {
		if _, ok := names[v.name]; !ok {
			errs = append(errs, &Error{
				Expr:  input,
				Pos:   v.pos(),
				Token: fmt.Sprintf("%q", v.name),
				Msg:   "undeclared variable",
			})
		}
	})
	return errs
}

// Evaluate parses and evaluates the expression against the bindings.
// An empty expression is true, matching the "no condition" default.
func Evaluate(input string, bindings Bindings) (bool, error) {
	if input == "" {
		return true, nil
	}
	tree, err := parse(input)
	if err != nil {
		return false, err
	}
	val, err := eval(tree, input, bindings)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, &Error{Expr: input, Pos: tree.pos(), Msg: fmt.Sprintf("expression evaluates to %T, not a boolean", val)}
	}
	return b, nil
}

func eval(n node, input string, bindings Bindings) (any, error) {
	switch v := n.(type) {
	case litNode:
		return v.val, nil
	case varNode:
		val, ok := bindings[v.name]
		if !ok {
			return nil, &Error{
				Expr:  input,
				Pos:   v.pos(),
				Token: fmt.Sprintf("%q", v.name),
				Msg:   "variable has no value and no default",
			}
		}
		return normalize(val), nil
	case listNode:
		elems := make([]any, len(v.elems))
		for i, e := range v.elems {
			elems[i] = e.val
		}
		return elems, nil
	case notNode:
		val, err := eval(v.operand, input, bindings)
		if err != nil {
			return nil, err
		}
		b, ok := val.(bool)
		if !ok {
			return nil, &Error{Expr: input, Pos: v.operand.pos(), Msg: fmt.Sprintf("'not' requires a boolean operand, got %T", val)}
		}
		return !b, nil
	case boolNode:
		left, err := evalBool(v.left, input, bindings)
		if err != nil {
			return nil, err
		}
		// Short-circuit.
		if v.op == opAnd && !left {
			return false, nil
		}
		if v.op == opOr && left {
			return true, nil
		}
		return evalBool(v.right, input, bindings)
	case cmpNode:
		return evalCmp(v, input, bindings)
	default:
		return nil, &Error{Expr: input, Pos: n.pos(), Msg: "unsupported expression node"}
	}
}

func evalBool(n node, input string, bindings Bindings) (bool, error) {
	val, err := eval(n, input, bindings)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, &Error{Expr: input, Pos: n.pos(), Msg: fmt.Sprintf("boolean operator requires boolean operands, got %T", val)}
	}
	return b, nil
}

func evalCmp(n cmpNode, input string, bindings Bindings) (any, error) {
	left, err := eval(n.left, input, bindings)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.right, input, bindings)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case opEq:
		return equal(left, right), nil
	case opNe:
		return !equal(left, right), nil
	case opIn, opNotIn:
		list, ok := right.([]any)
		if !ok {
			return nil, &Error{Expr: input, Pos: n.right.pos(), Msg: "membership test requires a literal list"}
		}
		found := false
		for _, elem := range list {
			if equal(left, elem) {
				found = true
				break
			}
		}
		if n.op == opNotIn {
			return !found, nil
		}
		return found, nil
	default:
		return nil, &Error{Expr: input, Pos: n.pos(), Msg: fmt.Sprintf("unsupported comparison %s", n.op)}
	}
}

// equal compares two normalized scalar values. Values of different types are
// never equal; there is no implicit coercion between strings and numbers.
func equal(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	default:
		return false
	}
}

// normalize widens bound values to the evaluator's canonical scalar types.
func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	default:
		return val
	}
}
