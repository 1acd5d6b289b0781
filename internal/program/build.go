package program

import (
	"fmt"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/vocab"
)

// Program is a Definition written into a store.
type Program struct {
	*Builder

	// Entry is the operator to compile.
	Entry graph.Symbol

	// Inputs are the operands of the entry invocation, Operator included.
	Inputs graph.Operands

	// Operators maps operator names to their symbols.
	Operators map[string]graph.Symbol
}

// Build writes def into store. Operators are created first so that
// operations and constants may refer to any of them, including recursively.
func Build(store graph.Store, def *Definition) (*Program, error) {
	b := NewBuilder(store)
	for _, od := range def.Operators {
		if _, ok := vocab.Lookup(od.Name); ok {
			return nil, fmt.Errorf("operator %q shadows a predefined symbol", od.Name)
		}
		b.Operator(od.Name)
	}
	for i := range def.Operators {
		if err := b.buildOperator(&def.Operators[i]); err != nil {
			return nil, fmt.Errorf("operator %q: %w", def.Operators[i].Name, err)
		}
	}

	entry, ok := b.Resolve(def.Entry)
	if !ok {
		return nil, fmt.Errorf("unknown entry operator %q", def.Entry)
	}
	inputs := graph.Operands{vocab.Operator: entry}
	for _, in := range def.Inputs {
		if in.Constant == "" {
			return nil, fmt.Errorf("entry input %q: only constants can be bound", in.Tag)
		}
		sym, err := b.Literal(in.Constant)
		if err != nil {
			return nil, fmt.Errorf("entry input %q: %w", in.Tag, err)
		}
		inputs[b.Tag(in.Tag)] = sym
	}

	return &Program{
		Builder:   b,
		Entry:     entry,
		Inputs:    inputs,
		Operators: b.operators,
	}, nil
}

func (b *Builder) buildOperator(od *OperatorDef) error {
	operator := b.operators[od.Name]
	operations := make(map[string]graph.Symbol, len(od.Operations))
	for _, opd := range od.Operations {
		if _, dup := operations[opd.Name]; dup {
			return fmt.Errorf("duplicate operation %q", opd.Name)
		}
		operations[opd.Name] = b.Operation(operator, opd.Name)
	}
	for _, opd := range od.Operations {
		dst := operations[opd.Name]
		if opd.Operator != "" {
			callee, ok := b.Resolve(opd.Operator)
			if !ok {
				return fmt.Errorf("operation %q: unknown operator %q", opd.Name, opd.Operator)
			}
			b.ConstantCarrier(callee, dst, vocab.Operator)
		}
		for _, bind := range opd.Bindings {
			if err := b.bind(operator, operations, dst, bind); err != nil {
				return fmt.Errorf("operation %q: %w", opd.Name, err)
			}
		}
	}
	for _, bind := range od.Outputs {
		if err := b.bind(operator, operations, operator, bind); err != nil {
			return fmt.Errorf("outputs: %w", err)
		}
	}
	return nil
}

func (b *Builder) bind(operator graph.Symbol, operations map[string]graph.Symbol, dst graph.Symbol, bind Binding) error {
	dstTag := b.Tag(bind.Tag)
	if bind.Constant != "" {
		value, err := b.Literal(bind.Constant)
		if err != nil {
			return fmt.Errorf("binding %q: %w", bind.Tag, err)
		}
		b.ConstantCarrier(value, dst, dstTag)
		return nil
	}

	src := operator
	if bind.From != "" {
		var ok bool
		if src, ok = operations[bind.From]; !ok {
			return fmt.Errorf("binding %q: unknown operation %q", bind.Tag, bind.From)
		}
	}
	srcTag := dstTag
	if bind.Source != "" {
		srcTag = b.Tag(bind.Source)
	}
	if bind.Defer {
		b.DeferredCarrier(operator, src, srcTag, dst, dstTag)
	} else {
		b.Carrier(src, srcTag, dst, dstTag)
	}
	return nil
}
