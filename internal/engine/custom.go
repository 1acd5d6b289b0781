package engine

import (
	"strings"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
	"github.com/Symatem/Compiler/internal/vocab"
)

// beginCustom schedules the operations of a custom operator. The operator
// symbol itself is the output node: carriers into it define the outputs.
func (c *Compiler) beginCustom(inst *Instance) error {
	st := inst.state
	st.mode = modeCustom
	st.destOperands = make(map[graph.Symbol]graph.Operands)
	st.destValues = make(map[graph.Symbol]values.Values)
	st.unsatisfied = make(map[graph.Symbol]int)
	st.outputsDue = make(map[graph.Symbol]bool)

	for _, op := range graph.Values(c.store, inst.Operator, vocab.Operation) {
		if err := c.collectDestinations(inst, op); err != nil {
			return err
		}
	}
	if err := c.collectDestinations(inst, inst.Operator); err != nil {
		return err
	}
	src := source{node: inst.Operator, operands: inst.Inputs, values: st.inputValues}
	if err := c.propagate(inst, src); err != nil {
		return err
	}
	return c.resumeCustom(inst)
}

// collectDestinations resolves the constant carriers into node and counts
// the others.
func (c *Compiler) collectDestinations(inst *Instance, node graph.Symbol) error {
	st := inst.state
	byTag := make(map[graph.Symbol]graph.Symbol)
	for _, carrier := range graph.Entities(c.store, vocab.DestinationOperat, node) {
		tag := c.store.GetSolitary(carrier, vocab.DestinationOperandTag)
		if _, dup := byTag[tag]; dup {
			return c.fail(ErrCodeGraphMalformed, []graph.Symbol{node, tag}, "destination operand tag collision")
		}
		byTag[tag] = carrier
	}

	operands := make(graph.Operands)
	vals := make(values.Values)
	if node == inst.Operator {
		operands = inst.Outputs
		st.outputValues = vals
	}
	pending := 0
	for _, tag := range sortedKeys(byTag) {
		carrier := byTag[tag]
		if c.store.GetSolitary(carrier, vocab.SourceOperandTag) != vocab.Constant {
			pending++
			if node == inst.Operator {
				st.outputsDue[tag] = true
			}
			continue
		}
		constant := c.store.GetSolitary(carrier, vocab.SourceOperat)
		if c.bridge.IsPlaceholder(constant) {
			return c.fail(ErrCodeGraphMalformed, []graph.Symbol{node, tag, constant}, "constant carrier sources a placeholder")
		}
		operands[tag] = constant
	}
	st.destOperands[node] = operands
	st.destValues[node] = vals

	if node == inst.Operator {
		return nil
	}
	if pending == 0 {
		st.queue = append(st.queue, node)
	} else {
		st.unsatisfied[node] = pending
	}
	return nil
}

// source is a node whose operands flow along its outgoing carriers.
type source struct {
	node     graph.Symbol
	operands graph.Operands
	values   values.Values

	// bundle is the runtime value of all operands packed together. It is
	// built from values on first use when not supplied.
	bundle    llvm.Value
	hasBundle bool
}

// propagate delivers the operands of src along its carriers and moves
// destination nodes whose last pending carrier arrived to the queue.
func (c *Compiler) propagate(inst *Instance, src source) error {
	st := inst.state
	used := make(map[graph.Symbol]bool)
	for _, carrier := range graph.Entities(c.store, vocab.SourceOperat, src.node) {
		srcTag := c.store.GetSolitary(carrier, vocab.SourceOperandTag)
		if srcTag == vocab.Constant {
			continue
		}
		dest := c.store.GetSolitary(carrier, vocab.DestinationOperat)
		dstTag := c.store.GetSolitary(carrier, vocab.DestinationOperandTag)
		destOps, ok := st.destOperands[dest]
		if !ok {
			return c.fail(ErrCodeGraphMalformed, []graph.Symbol{src.node, dest}, "carrier leads out of the operator")
		}
		destVals := st.destValues[dest]

		var operand graph.Symbol
		var value llvm.Value
		if srcTag == vocab.OperandBundle {
			operand = c.bridge.BundleOperands(src.operands)
			if !src.hasBundle {
				src.bundle = c.bridge.BuildBundle(st.entry, src.values.Sorted())
				src.hasBundle = true
			}
			if src.bundle != nil && !src.bundle.Type().IsVoid() {
				value = src.bundle
			}
			for tag := range src.operands {
				used[tag] = true
			}
		} else {
			used[srcTag] = true
			var present bool
			operand, present = src.operands[srcTag]
			if !present {
				if c.policy == PolicyFail {
					return c.fail(ErrCodeMissingOperand, []graph.Symbol{src.node, srcTag}, "missing operand")
				}
				c.trace.warn("missing operand %s of %s, substituting Void", c.describe(srcTag), c.describe(src.node))
				c.logger.Warn("missing operand", "source", c.describe(src.node), "tag", c.describe(srcTag))
				operand = vocab.Void
			}
			value = src.values[srcTag]
		}

		destOps[dstTag] = operand
		if value != nil {
			destVals[dstTag] = value
		} else {
			delete(destVals, dstTag)
		}

		if dest == inst.Operator {
			delete(st.outputsDue, dstTag)
			continue
		}
		st.unsatisfied[dest]--
		if st.unsatisfied[dest] == 0 {
			delete(st.unsatisfied, dest)
			st.queue = append(st.queue, dest)
		}
	}

	for _, tag := range src.operands.SortedTags() {
		if !used[tag] {
			c.trace.warn("unused operand %s of %s", c.describe(tag), c.describe(src.node))
			c.logger.Warn("unused operand", "source", c.describe(src.node), "tag", c.describe(tag))
		}
	}
	return nil
}

// resumeCustom runs ready operations until none is left, then suspends,
// fails or finishes.
func (c *Compiler) resumeCustom(inst *Instance) error {
	st := inst.state
	for {
		node, ok := st.pop()
		if !ok {
			break
		}
		inv, err := c.call(inst, st.entry, node, st.destOperands[node], st.destValues[node], true)
		if err != nil {
			return err
		}
		if inv == nil {
			continue
		}
		src := source{
			node:      node,
			operands:  inv.callee.Outputs,
			values:    inv.outputs,
			bundle:    inv.result,
			hasBundle: true,
		}
		if err := c.propagate(inst, src); err != nil {
			return err
		}
	}

	if len(st.blocked) > 0 {
		return c.suspend(inst)
	}
	if len(st.unsatisfied) > 0 {
		return c.notADAG(inst)
	}
	if len(st.outputsDue) > 0 {
		return c.fail(ErrCodeGraphMalformed, sortedKeys(st.outputsDue), "outputs never produced")
	}
	if err := c.mixBundle(st.entry, inst.Outputs, st.outputValues); err != nil {
		return err
	}
	ret := c.bridge.BuildBundle(st.entry, st.outputValues.Sorted())
	if st.entry.Len() > 0 || len(st.outputValues) > 0 {
		c.buildFunction(inst, st.entry, ret, false, st.entry)
	}
	return c.finish(inst)
}

// notADAG reports the operations that can never run, naming a cycle among
// them when there is one.
func (c *Compiler) notADAG(inst *Instance) error {
	st := inst.state
	deps := make(graph.Dependencies)
	for node := range st.unsatisfied {
		var from []graph.Symbol
		for _, carrier := range graph.Entities(c.store, vocab.DestinationOperat, node) {
			if c.store.GetSolitary(carrier, vocab.SourceOperandTag) == vocab.Constant {
				continue
			}
			if src := c.store.GetSolitary(carrier, vocab.SourceOperat); src != inst.Operator {
				from = append(from, src)
			}
		}
		graph.SortSymbols(from)
		deps[node] = from
	}
	if cycles := graph.Cycles(deps); len(cycles) > 0 {
		path := graph.CyclePath(cycles[0], deps)
		return c.fail(ErrCodeNotADAG, path,
			"topological sort failed: cycle %s", strings.Join(c.describeAll(path...), " -> "))
	}
	return c.fail(ErrCodeNotADAG, sortedKeys(st.unsatisfied), "topological sort failed: operations never become ready")
}

func sortedKeys[V any](m map[graph.Symbol]V) []graph.Symbol {
	out := make([]graph.Symbol, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	graph.SortSymbols(out)
	return out
}
