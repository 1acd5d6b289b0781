package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir/enum"
	"golang.org/x/text/unicode/norm"

	"github.com/Symatem/Compiler/internal/digest"
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
	"github.com/Symatem/Compiler/internal/vocab"
)

// Execute compiles one invocation. inputs must name the operator under the
// Operator tag. Invocations with equal inputs return the same Instance.
//
// With topLevel set, an instance still suspended after every wake-up has
// been processed is an UNRESOLVED_RECURSION error, and its function loses
// private linkage and is renamed after the operator.
func (c *Compiler) Execute(inputs graph.Operands, topLevel bool) (*Instance, error) {
	if c.poisoned != nil {
		return nil, &CompileError{
			Code:    ErrCodeContextPoisoned,
			Message: "compiler already failed",
			Err:     c.poisoned,
		}
	}
	inst, err := c.run(inputs, topLevel)
	if err != nil {
		var ce *CompileError
		if !errors.As(err, &ce) {
			ce = c.wrap(err).(*CompileError)
		}
		ce.Trace = c.trace.Lines()
		c.poisoned = ce
		c.logger.Error("compilation failed", "session", c.session, "code", string(ce.Code), "error", ce.Message)
		return nil, ce
	}
	return inst, nil
}

func (c *Compiler) run(inputs graph.Operands, topLevel bool) (*Instance, error) {
	inst, err := c.execute(inputs)
	if err != nil {
		return nil, err
	}
	if err := c.drain(); err != nil {
		return nil, err
	}
	if !topLevel {
		return inst, nil
	}
	if !inst.Done() {
		return nil, c.fail(ErrCodeUnresolvedRecursion, []graph.Symbol{inst.Operator},
			"instance %s is still waiting for its own recursion", c.describeInstance(inst))
	}
	// A callable If may have let its caller finish while the other branch
	// stays blocked; its function would then be called but never defined.
	var pending []graph.Symbol
	var names []string
	for _, other := range c.memo.all() {
		if !other.Done() {
			pending = append(pending, other.Operator)
			names = append(names, c.describeInstance(other))
		}
	}
	if len(pending) > 0 {
		return nil, c.fail(ErrCodeUnresolvedRecursion, pending,
			"instances still suspended after top-level call: %s", strings.Join(names, ", "))
	}
	c.export(inst)
	return inst, nil
}

// drain resumes woken instances until the wake queue is empty.
func (c *Compiler) drain() error {
	for {
		inst, ok := c.wake.TryDequeue()
		if !ok {
			return nil
		}
		if inst.Done() {
			continue
		}
		c.trace.record("Resume", c.describeInstance(inst))
		c.trace.push()
		c.active = append(c.active, inst)
		if err := c.resume(inst); err != nil {
			return err
		}
	}
}

// export promotes the function of a top-level instance to external
// linkage under the operator's name.
func (c *Compiler) export(inst *Instance) {
	f := inst.Function
	if f == nil || f.Linkage == enum.LinkageNone {
		return
	}
	base := norm.NFC.String(c.describe(inst.Operator))
	name := base
	for n := 1; c.module.HasGlobal(name); n++ {
		name = base + "." + strconv.Itoa(n)
	}
	f.Linkage = enum.LinkageNone
	f.Name = name
	c.logger.Debug("function exported", "name", name, "instance", inst.Symbol.String())
}

// execute runs or looks up one invocation. The returned instance may still
// be suspended.
func (c *Compiler) execute(inputs graph.Operands) (*Instance, error) {
	key := instanceKey(c.store, inputs)
	hash, err := digest.InstanceHash(key)
	if err != nil {
		return nil, c.wrap(err)
	}
	if inst := c.memo.lookup(hash, key); inst != nil {
		return inst, nil
	}

	operator := inputs[vocab.Operator]
	switch {
	case operator == vocab.Void:
		return nil, c.fail(ErrCodeInvalidOperator, nil, "tried calling Void as operator")
	case c.bridge.IsPlaceholder(operator):
		return nil, c.fail(ErrCodeUnimplemented, []graph.Symbol{operator}, "dynamic dispatch through a runtime operator is not implemented")
	}
	if !c.quota.Check() {
		return nil, c.fail(ErrCodeQuotaExceeded, []graph.Symbol{operator},
			"instance quota exceeded: %d > %d", c.quota.Current(), c.quota.Max())
	}

	inst := &Instance{
		Symbol:   c.store.CreateSymbol(c.namespace),
		Operator: operator,
		Hash:     hash,
		Inputs:   inputs.Without(vocab.Operator),
		Outputs:  make(graph.Operands),
		key:      key,
		state: &schedule{
			entry:   llvm.NewBasicBlock(c.types, ""),
			blocked: make(map[graph.Symbol]bool),
		},
	}
	c.memo.add(inst)
	c.active = append(c.active, inst)
	c.trace.record("Begin", append([]string{c.describeInstance(inst)}, c.describeOperands(inst.Inputs)...)...)
	c.trace.push()
	c.logger.Debug("instance begin", "instance", inst.Symbol.String(), "operator", c.describe(operator))

	st := inst.state
	st.inputValues, err = c.bridge.OperandsToValues(inst.Inputs)
	if err != nil {
		return nil, c.wrap(err)
	}
	for _, v := range st.inputValues.Sorted() {
		st.params = append(st.params, v.(*llvm.Register))
	}
	if err := c.mixBundle(st.entry, inst.Inputs, st.inputValues); err != nil {
		return nil, err
	}
	inst.InputBundle = c.bridge.BundleOperands(inst.Inputs)
	c.store.SetTriple(graph.Triple{Entity: inst.Symbol, Attribute: vocab.Type, Value: vocab.OperatorInstance}, true)
	c.store.SetTriple(graph.Triple{Entity: inst.Symbol, Attribute: vocab.Operator, Value: operator}, true)
	c.store.SetTriple(graph.Triple{Entity: inst.Symbol, Attribute: vocab.InputOperandBundle, Value: inst.InputBundle}, true)

	if prim, ok := c.primitives[operator]; ok {
		return inst, prim(c, inst)
	}
	if !c.store.GetTriple(graph.Triple{Entity: operator, Attribute: vocab.Type, Value: vocab.Operator}) {
		return nil, c.fail(ErrCodeInvalidOperator, []graph.Symbol{operator}, "symbol is not an operator")
	}
	return inst, c.beginCustom(inst)
}

// mixBundle replaces an OperandBundle entry of ops by the operands it
// packs. The runtime value of the bundle, if any, is split into vals.
func (c *Compiler) mixBundle(block *llvm.BasicBlock, ops graph.Operands, vals values.Values) error {
	bundle, ok := ops[vocab.OperandBundle]
	if !ok {
		return nil
	}
	if !c.bridge.IsBundle(bundle) {
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{bundle}, "OperandBundle operand is not a bundle")
	}
	elements := c.bridge.UnbundleOperands(bundle)
	delete(ops, vocab.OperandBundle)
	for _, tag := range elements.SortedTags() {
		if _, clash := ops[tag]; clash {
			return c.fail(ErrCodeGraphMalformed, []graph.Symbol{tag}, "operand bundle collides with an operand tag")
		}
		ops[tag] = elements[tag]
	}

	aggregate, ok := vals[vocab.OperandBundle]
	if !ok {
		return nil
	}
	delete(vals, vocab.OperandBundle)
	return c.spread(block, aggregate, elements, vals)
}

// spread defines the runtime values of elements from one bundle value,
// the inverse of BuildBundle.
func (c *Compiler) spread(block *llvm.BasicBlock, aggregate llvm.Value, elements graph.Operands, into values.Values) error {
	parts, err := c.bridge.OperandsToValues(elements)
	if err != nil {
		return c.wrap(err)
	}
	tags := parts.SortedTags()
	if len(tags) == 1 {
		into[tags[0]] = aggregate
		return nil
	}
	for i, tag := range tags {
		r := parts[tag].(*llvm.Register)
		block.Append(&llvm.ExtractValue{Dest: r, Aggregate: aggregate, Indices: []int{i}})
		into[tag] = r
	}
	return nil
}

// invocation is the result of one call from a schedule node.
type invocation struct {
	callee  *Instance
	outputs values.Values
	call    *llvm.Call
	// result is the bundle value returned by the call, nil when the
	// callee has no runtime outputs.
	result llvm.Value
}

// call executes the operation at node and emits the call into block.
// With unbundle set, extractvalue instructions define the callee's outputs
// in inv.outputs; otherwise only the call result is available.
// It returns nil when the callee is not yet callable; node is then blocked
// on it.
func (c *Compiler) call(inst *Instance, block *llvm.BasicBlock, node graph.Symbol, ops graph.Operands, vals values.Values, unbundle bool) (*invocation, error) {
	operator := ops[vocab.Operator]
	if _, dynamic := vals[vocab.Operator]; dynamic || c.bridge.IsPlaceholder(operator) {
		return nil, c.fail(ErrCodeUnimplemented, []graph.Symbol{node}, "dynamic dispatch through a runtime operator is not implemented")
	}
	if c.store.GetTriple(graph.Triple{Entity: operator, Attribute: vocab.Type, Value: vocab.OperatorInstance}) {
		return nil, c.fail(ErrCodeUnimplemented, []graph.Symbol{node, operator}, "indirect invocation of an operator instance is not implemented")
	}
	c.trace.record("Operation", c.describe(node), c.describe(operator))

	callee, err := c.execute(ops)
	if err != nil {
		return nil, err
	}
	if !callee.Callable() {
		callee.state.addWaiter(inst, node)
		inst.state.blocked[node] = true
		c.logger.Debug("operation blocked", "instance", inst.Symbol.String(), "node", c.describe(node), "callee", callee.Symbol.String())
		return nil, nil
	}

	outputs, err := c.bridge.OperandsToValues(callee.Outputs)
	if err != nil {
		return nil, c.wrap(err)
	}
	inv := &invocation{callee: callee, outputs: outputs}
	if callee.Function == nil {
		if len(outputs) > 0 {
			return nil, c.fail(ErrCodeGraphMalformed, []graph.Symbol{node}, "callee has runtime outputs but no function")
		}
		return inv, nil
	}
	inv.call = &llvm.Call{Callee: callee.Function, Args: vals.Sorted(vocab.Operator)}
	if !unbundle {
		if ret := callee.Function.ReturnType(); !ret.IsVoid() {
			inv.call.Dest = llvm.NewRegister(ret)
			inv.result = inv.call.Dest
		}
		block.Append(inv.call)
		return inv, nil
	}
	at := block.Len()
	result := c.bridge.BuildUnbundle(block, outputs.Sorted())
	if r, ok := result.(*llvm.Register); ok {
		inv.call.Dest = r
		inv.result = r
	}
	block.Insert(at, inv.call)
	return inv, nil
}

// buildFunction terminates exit with a return of ret and assembles the
// function of inst from blocks.
func (c *Compiler) buildFunction(inst *Instance, exit *llvm.BasicBlock, ret llvm.Value, inline bool, blocks ...*llvm.BasicBlock) {
	exit.Append(&llvm.Ret{Value: ret})
	retType := c.types.Void()
	if ret != nil {
		retType = ret.Type()
	}
	params := inst.state.params
	paramTypes := make([]*llvm.Type, len(params))
	for i, p := range params {
		paramTypes[i] = p.Type()
	}
	name := fmt.Sprintf("_%d_%d", inst.Symbol.Namespace(), inst.Symbol.Identity())
	f := llvm.NewFunction(c.types.Function(retType, paramTypes...), name, params, blocks...)
	f.Linkage = enum.LinkagePrivate
	if inline {
		f.Attributes = append(f.Attributes, "alwaysinline")
	}
	inst.Function = f
}

// complete ends a primitive: the function is built when code was emitted
// or a runtime value is returned.
func (c *Compiler) complete(inst *Instance, ret llvm.Value) error {
	st := inst.state
	if st.entry.Len() > 0 || (ret != nil && !ret.Type().IsVoid()) {
		c.buildFunction(inst, st.entry, ret, true, st.entry)
	}
	return c.finish(inst)
}

// finish adds the function to the module, records the output bundle and
// queues every waiter for resumption.
func (c *Compiler) finish(inst *Instance) error {
	st := inst.state
	if inst.Function != nil {
		c.module.AddFunction(inst.Function)
	}
	inst.OutputBundle = c.bridge.BundleOperands(inst.Outputs)
	c.store.SetTriple(graph.Triple{Entity: inst.Symbol, Attribute: vocab.OutputOperandBundle, Value: inst.OutputBundle}, true)

	c.trace.record("Outputs", c.describeOperands(inst.Outputs)...)
	c.trace.pop()
	c.trace.record("Done", c.describeInstance(inst))
	c.leave(inst)
	c.logger.Debug("instance done", "instance", inst.Symbol.String(), "function", inst.Function != nil)

	inst.state = nil
	for _, w := range st.waiters {
		ws := w.state
		for _, node := range st.waitingNodes[w] {
			delete(ws.blocked, node)
			ws.queue = append(ws.queue, node)
		}
		c.wake.Enqueue(w)
	}
	return nil
}

// suspend leaves inst waiting for its blocked nodes.
func (c *Compiler) suspend(inst *Instance) error {
	blocked := make([]graph.Symbol, 0, len(inst.state.blocked))
	for node := range inst.state.blocked {
		blocked = append(blocked, node)
	}
	graph.SortSymbols(blocked)
	c.trace.pop()
	c.trace.record("Blocked", append([]string{c.describeInstance(inst)}, c.describeAll(blocked...)...)...)
	c.leave(inst)
	return nil
}

func (c *Compiler) leave(inst *Instance) {
	if n := len(c.active); n > 0 && c.active[n-1] == inst {
		c.active = c.active[:n-1]
	}
}

// resume continues a suspended instance.
func (c *Compiler) resume(inst *Instance) error {
	switch inst.state.mode {
	case modeCustom:
		return c.resumeCustom(inst)
	case modeBranchConstant, modeBranchRuntime:
		return c.resumeBranch(inst)
	}
	return c.fail(ErrCodeGraphMalformed, []graph.Symbol{inst.Operator}, "primitive instance cannot be resumed")
}
