package history

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
)

// Where returns, in position order, the positions whose server record makes
// expression evaluate to true. Server fields are the expression's variables,
// e.g. `owner.gender == "female" && name != "Buzz"`. A field missing from a
// record evaluates to nil.
func (h *History) Where(expression string) ([]int, error) {
	program, err := h.compile(expression)
	if err != nil {
		return nil, h.fail("where", err)
	}

	matches := []int{}
	for i, e := range h.entries {
		result, err := expr.Run(program, cloneRecord(e.Server))
		if err != nil {
			return nil, h.fail("where", fmt.Errorf("history: eval %q at index %d: %w", expression, i, err))
		}
		ok, isBool := result.(bool)
		if !isBool {
			return nil, h.fail("where", fmt.Errorf("history: expression %q returned %T, want bool", expression, result))
		}
		if ok {
			matches = append(matches, i)
		}
	}
	return matches, nil
}

// Lookup evaluates a JSONPath expression against the server record at index
// and returns every matching value.
func (h *History) Lookup(index int, path string) ([]any, error) {
	if err := h.checkIndex("lookup", index); err != nil {
		return nil, err
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, h.fail("lookup", fmt.Errorf("history: parse path %q: %w", path, err))
	}
	return x.Get(cloneRecord(h.entries[index].Server)), nil
}

// compile returns the cached program for expression, compiling it on first use.
func (h *History) compile(expression string) (*vm.Program, error) {
	if program, ok := h.programs[expression]; ok {
		return program, nil
	}
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("history: compile %q: %w", expression, err)
	}
	h.programs[expression] = program
	return program, nil
}
