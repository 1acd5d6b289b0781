package engine

import (
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
	"github.com/Symatem/Compiler/internal/vocab"
)

// branchState holds the control flow of an If with a runtime condition:
// entry ends in a conditional branch to one block per branch, and both
// jump to exit, which merges the outputs with one phi per tag.
type branchState struct {
	blocks map[graph.Symbol]*llvm.BasicBlock
	exit   *llvm.BasicBlock
	phis   map[graph.Symbol]*llvm.Phi
}

func branchIndex(node graph.Symbol) int {
	if node == vocab.Then {
		return 0
	}
	return 1
}

// primitiveIf invokes Then or Else with the remaining inputs. A constant
// Condition selects one branch statically.
func primitiveIf(c *Compiler, inst *Instance) error {
	st := inst.state
	cond, err := c.input(inst, vocab.Condition)
	if err != nil {
		return err
	}
	st.destOperands = make(map[graph.Symbol]graph.Operands, 2)
	st.destValues = make(map[graph.Symbol]values.Values, 2)
	st.outputValues = make(values.Values)
	shared := inst.Inputs.Without(vocab.Condition, vocab.Then, vocab.Else)
	for _, node := range []graph.Symbol{vocab.Then, vocab.Else} {
		target, err := c.input(inst, node)
		if err != nil {
			return err
		}
		ops := shared.Clone()
		ops[vocab.Operator] = target
		vals := make(values.Values)
		for tag := range shared {
			if v, ok := st.inputValues[tag]; ok {
				vals[tag] = v
			}
		}
		if v, ok := st.inputValues[node]; ok {
			vals[vocab.Operator] = v
		}
		st.destOperands[node] = ops
		st.destValues[node] = vals
	}

	if !isRuntime(inst, vocab.Condition) {
		n, ok := c.bridge.Number(cond)
		if !ok || n.IsFloat() {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{cond}, "Condition is not a boolean")
		}
		st.mode = modeBranchConstant
		if n.Bool() {
			st.queue = []graph.Symbol{vocab.Then}
		} else {
			st.queue = []graph.Symbol{vocab.Else}
		}
		return c.resumeBranch(inst)
	}

	if st.inputValues[vocab.Condition].Type() != c.types.Int(1) {
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{cond}, "Condition is not a boolean")
	}
	st.mode = modeBranchRuntime
	st.branch = &branchState{
		blocks: map[graph.Symbol]*llvm.BasicBlock{
			vocab.Then: llvm.NewBasicBlock(c.types, ""),
			vocab.Else: llvm.NewBasicBlock(c.types, ""),
		},
		exit: llvm.NewBasicBlock(c.types, ""),
		phis: make(map[graph.Symbol]*llvm.Phi),
	}
	st.queue = []graph.Symbol{vocab.Then, vocab.Else}
	return c.resumeBranch(inst)
}

func (c *Compiler) resumeBranch(inst *Instance) error {
	st := inst.state
	for {
		node, ok := st.pop()
		if !ok {
			break
		}
		if st.mode == modeBranchRuntime {
			if err := c.runBranch(inst, node); err != nil {
				return err
			}
			continue
		}
		// constant condition: a tail call of the selected branch
		inv, err := c.call(inst, st.entry, node, st.destOperands[node], st.destValues[node], false)
		if err != nil {
			return err
		}
		if inv == nil {
			continue
		}
		inst.Outputs = inv.callee.Outputs.Clone()
		if inv.callee.Function != nil {
			c.buildFunction(inst, st.entry, inv.result, true, st.entry)
		}
	}
	if len(st.blocked) > 0 {
		return c.suspend(inst)
	}
	return c.finish(inst)
}

// runBranch compiles one branch of a runtime If into its block. The first
// branch to complete fixes the outputs, builds the function and makes the
// instance callable; the second must agree on every output type.
func (c *Compiler) runBranch(inst *Instance, node graph.Symbol) error {
	st := inst.state
	br := st.branch
	block := br.blocks[node]
	inv, err := c.call(inst, block, node, st.destOperands[node], st.destValues[node], true)
	if err != nil || inv == nil {
		return err
	}
	if inv.call != nil {
		inv.call.Attributes = append(inv.call.Attributes, "alwaysinline")
	}

	outputs := make(graph.Operands, len(inv.callee.Outputs))
	vals := make(values.Values, len(inv.callee.Outputs))
	for _, tag := range inv.callee.Outputs.SortedTags() {
		ph, v, err := c.bridge.ToRuntimeValue(tag, inv.callee.Outputs, inv.outputs)
		if err != nil {
			return c.wrap(err)
		}
		outputs[tag] = ph
		vals[tag] = v
	}
	index := branchIndex(node)

	if st.callable {
		if len(outputs) != len(br.phis) {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{inst.Inputs[vocab.Then], inst.Inputs[vocab.Else]}, "branches produce different outputs")
		}
		for _, tag := range outputs.SortedTags() {
			phi, ok := br.phis[tag]
			if !ok || phi.Dest.Type() != vals[tag].Type() || inst.Outputs[tag] != outputs[tag] {
				return c.fail(ErrCodeTypeMismatch, []graph.Symbol{tag, inst.Outputs[tag], outputs[tag]}, "type mismatch between branches")
			}
		}
		for tag, phi := range br.phis {
			phi.Incoming[index].Value = vals[tag]
		}
		block.Append(&llvm.Br{Target: br.exit})
		return nil
	}

	block.Append(&llvm.Br{Target: br.exit})
	then, otherwise := br.blocks[vocab.Then], br.blocks[vocab.Else]
	for _, tag := range outputs.SortedTags() {
		phi := &llvm.Phi{
			Dest:     llvm.NewRegister(vals[tag].Type()),
			Incoming: []llvm.Incoming{{Block: then}, {Block: otherwise}},
		}
		phi.Incoming[index].Value = vals[tag]
		br.exit.Append(phi)
		br.phis[tag] = phi
		st.outputValues[tag] = phi.Dest
		inst.Outputs[tag] = outputs[tag]
	}
	ret := c.bridge.BuildBundle(br.exit, st.outputValues.Sorted())
	st.entry.Append(&llvm.CondBr{Cond: st.inputValues[vocab.Condition], True: then, False: otherwise})
	c.buildFunction(inst, br.exit, ret, true, st.entry, then, otherwise, br.exit)
	st.callable = true
	c.trace.record("Callable", c.describeInstance(inst))
	return nil
}
