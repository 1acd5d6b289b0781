package program

import (
	"fmt"
	"strings"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/vocab"
)

// Validation error codes (E200-E299)
const (
	ErrEntryMissing       = "E201" // entry is empty or unknown
	ErrDuplicateOperator  = "E202" // two operators share a name
	ErrDuplicateOperation = "E203" // two operations of one operator share a name
	ErrDuplicateTag       = "E204" // a destination tag is bound twice
	ErrUnknownSource      = "E205" // from names no operation
	ErrInvalidLiteral     = "E206" // constant does not parse
	ErrConflictingBinding = "E207" // constant and from both set
	ErrMissingOperator    = "E208" // operation has no Operator binding
	ErrCarrierCycle       = "E209" // operations depend on each other
	ErrEntryInput         = "E210" // entry input is not a constant
	ErrShadowedName       = "E211" // operator named like a predefined symbol
)

// ValidationError is one static problem found in a Definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a Definition without compiling it.
// Returns all errors found (does not fail-fast).
func Validate(def *Definition) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	names := make(map[string]bool, len(def.Operators))
	for i, od := range def.Operators {
		field := fmt.Sprintf("operators[%d]", i)
		if _, ok := vocab.Lookup(od.Name); ok {
			add(ErrShadowedName, field, "operator %q shadows a predefined symbol", od.Name)
		}
		if names[od.Name] {
			add(ErrDuplicateOperator, field, "duplicate operator %q", od.Name)
		}
		names[od.Name] = true
	}
	known := func(name string) bool {
		_, ok := vocab.Lookup(name)
		return ok || names[name]
	}
	literal := func(field, text string) {
		if kind, value, ok := strings.Cut(text, ":"); ok {
			if kind == "enc" {
				return
			}
			if _, err := parseLiteral(kind, value); err != nil {
				add(ErrInvalidLiteral, field, "invalid literal %q: %v", text, err)
			}
		} else if !known(text) {
			add(ErrInvalidLiteral, field, "unknown name %q", text)
		}
	}

	if def.Entry == "" || !known(def.Entry) {
		add(ErrEntryMissing, "entry", "entry operator %q is not defined", def.Entry)
	}
	for i, in := range def.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		if in.Constant == "" {
			add(ErrEntryInput, field, "entry input %q must be a constant", in.Tag)
			continue
		}
		literal(field, in.Constant)
	}

	for i, od := range def.Operators {
		prefix := fmt.Sprintf("operators[%d]", i)
		operations := make(map[string]bool, len(od.Operations))
		for j, opd := range od.Operations {
			if operations[opd.Name] {
				add(ErrDuplicateOperation, fmt.Sprintf("%s.operations[%d]", prefix, j), "duplicate operation %q", opd.Name)
			}
			operations[opd.Name] = true
		}

		checkBindings := func(field string, bindings []Binding, implicitOperator bool) {
			tags := make(map[string]bool, len(bindings))
			if implicitOperator {
				tags["Operator"] = true
			}
			for k, bind := range bindings {
				bf := fmt.Sprintf("%s.bindings[%d]", field, k)
				if tags[bind.Tag] {
					add(ErrDuplicateTag, bf, "destination tag %q is bound twice", bind.Tag)
				}
				tags[bind.Tag] = true
				switch {
				case bind.Constant != "" && (bind.From != "" || bind.Source != "" || bind.Defer):
					add(ErrConflictingBinding, bf, "binding %q mixes a constant with a carrier", bind.Tag)
				case bind.Constant != "":
					literal(bf, bind.Constant)
				case bind.From != "" && !operations[bind.From]:
					add(ErrUnknownSource, bf, "binding %q refers to unknown operation %q", bind.Tag, bind.From)
				}
			}
		}
		for j, opd := range od.Operations {
			field := fmt.Sprintf("%s.operations[%d]", prefix, j)
			if opd.Operator != "" && !known(opd.Operator) {
				add(ErrMissingOperator, field, "operation %q calls unknown operator %q", opd.Name, opd.Operator)
			}
			if opd.Operator == "" && !bindsOperator(opd.Bindings) {
				add(ErrMissingOperator, field, "operation %q has no Operator binding", opd.Name)
			}
			checkBindings(field, opd.Bindings, opd.Operator != "")
		}
		checkBindings(prefix+".outputs", od.Outputs, false)

		if cycle := operationCycle(od); cycle != nil {
			add(ErrCarrierCycle, prefix, "operations form a cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	return errs
}

func bindsOperator(bindings []Binding) bool {
	for _, b := range bindings {
		if b.Tag == "Operator" {
			return true
		}
	}
	return false
}

// operationCycle returns the names along one carrier cycle between the
// operations of od, or nil.
func operationCycle(od OperatorDef) []string {
	ids := make(map[string]graph.Symbol, len(od.Operations))
	names := make(map[graph.Symbol]string, len(od.Operations))
	for i, opd := range od.Operations {
		sym := graph.MakeSymbol(0, uint32(i+1))
		ids[opd.Name] = sym
		names[sym] = opd.Name
	}
	deps := make(graph.Dependencies, len(od.Operations))
	for _, opd := range od.Operations {
		for _, bind := range opd.Bindings {
			if from, ok := ids[bind.From]; ok && bind.Constant == "" {
				deps[ids[opd.Name]] = append(deps[ids[opd.Name]], from)
			}
		}
	}
	cycles := graph.Cycles(deps)
	if len(cycles) == 0 {
		return nil
	}
	path := graph.CyclePath(cycles[0], deps)
	out := make([]string, len(path))
	for i, sym := range path {
		out[i] = names[sym]
	}
	return out
}
