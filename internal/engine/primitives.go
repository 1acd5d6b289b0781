package engine

import (
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/vocab"
)

// primitive compiles an instance of a built-in operator. It either
// finishes the instance or leaves it suspended.
type primitive func(c *Compiler, inst *Instance) error

func primitiveTable() map[graph.Symbol]primitive {
	return map[graph.Symbol]primitive{
		vocab.DeferEvaluation:      primitiveDeferEvaluation,
		vocab.Bundle:               primitiveBundle,
		vocab.Unbundle:             primitiveUnbundle,
		vocab.StackAllocate:        primitiveStackAllocate,
		vocab.Load:                 primitiveLoad,
		vocab.Store:                primitiveStore,
		vocab.NumericConversion:    conversion(true),
		vocab.Reinterpretation:     conversion(false),
		vocab.MultiplyByPowerOfTwo: binary(opShiftLeft, vocab.Input, vocab.Exponent),
		vocab.DivideByPowerOfTwo:   binary(opShiftRight, vocab.Input, vocab.Exponent),
		vocab.And:                  binary(opAnd, vocab.Input, vocab.OtherInput),
		vocab.Or:                   binary(opOr, vocab.Input, vocab.OtherInput),
		vocab.Xor:                  binary(opXor, vocab.Input, vocab.OtherInput),
		vocab.Addition:             binary(opAdd, vocab.Input, vocab.OtherInput),
		vocab.Subtraction:          binary(opSub, vocab.Minuend, vocab.Subtrahend),
		vocab.Multiplication:       binary(opMul, vocab.Input, vocab.OtherInput),
		vocab.Division:             primitiveDivision,
		vocab.Equal:                comparison(cmpEqual),
		vocab.NotEqual:             comparison(cmpNotEqual),
		vocab.LessThan:             comparison(cmpLess),
		vocab.LessEqual:            comparison(cmpLessEqual),
		vocab.GreaterThan:          comparison(cmpGreater),
		vocab.GreaterEqual:         comparison(cmpGreaterEqual),
		vocab.If:                   primitiveIf,
	}
}

// isRuntime reports whether the input under tag is only known at runtime.
func isRuntime(inst *Instance, tag graph.Symbol) bool {
	_, ok := inst.state.inputValues[tag]
	return ok
}

// input returns the operand under tag, failing when it is absent.
func (c *Compiler) input(inst *Instance, tag graph.Symbol) (graph.Symbol, error) {
	op, ok := inst.Inputs[tag]
	if !ok {
		return vocab.Void, c.fail(ErrCodeMissingOperand, []graph.Symbol{inst.Operator, tag}, "expected input operand")
	}
	return op, nil
}

// runtimeInput returns the placeholder and IR value of the input under tag,
// turning a constant into an IR constant.
func (c *Compiler) runtimeInput(inst *Instance, tag graph.Symbol) (graph.Symbol, llvm.Value, error) {
	ph, v, err := c.bridge.ToRuntimeValue(tag, inst.Inputs, inst.state.inputValues)
	if err != nil {
		return vocab.Void, nil, c.wrap(err)
	}
	return ph, v, nil
}

func primitiveDeferEvaluation(c *Compiler, inst *Instance) error {
	ph, v, err := c.runtimeInput(inst, vocab.Input)
	if err != nil {
		return err
	}
	inst.Outputs[vocab.Output] = ph
	return c.complete(inst, v)
}

func primitiveBundle(c *Compiler, inst *Instance) error {
	st := inst.state
	inst.Outputs[vocab.Output] = inst.InputBundle
	return c.complete(inst, c.bridge.BuildBundle(st.entry, st.inputValues.Sorted()))
}

func primitiveUnbundle(c *Compiler, inst *Instance) error {
	bundle, err := c.input(inst, vocab.Input)
	if err != nil {
		return err
	}
	if !c.bridge.IsBundle(bundle) {
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{bundle}, "Input is not an operand bundle")
	}
	for tag, op := range c.bridge.UnbundleOperands(bundle) {
		inst.Outputs[tag] = op
	}
	return c.complete(inst, inst.state.inputValues[vocab.Input])
}

func primitiveStackAllocate(c *Compiler, inst *Instance) error {
	_, count, err := c.runtimeInput(inst, vocab.Input)
	if err != nil {
		return err
	}
	if !count.Type().IsInteger() {
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{inst.Inputs[vocab.Input]}, "Input is not a natural number")
	}
	byteType := c.types.Int(8)
	alloca := &llvm.Alloca{Dest: llvm.NewRegister(c.types.Pointer(byteType)), Elem: byteType, Count: count}
	inst.state.entry.Append(alloca)
	inst.Outputs[vocab.Output] = vocab.Pointer
	return c.complete(inst, alloca.Dest)
}

// pointerCast converts an address to a pointer to elem, appending the
// cast to block when one is needed.
func (c *Compiler) pointerCast(block *llvm.BasicBlock, address llvm.Value, elem *llvm.Type) (llvm.Value, error) {
	target := c.types.Pointer(elem)
	switch t := address.Type(); {
	case t == target:
		return address, nil
	case t.IsPointer():
		cast := &llvm.Cast{Dest: llvm.NewRegister(target), Op: "bitcast", From: address}
		block.Append(cast)
		return cast.Dest, nil
	case t.IsInteger():
		cast := &llvm.Cast{Dest: llvm.NewRegister(target), Op: "inttoptr", From: address}
		block.Append(cast)
		return cast.Dest, nil
	}
	return nil, c.fail(ErrCodeTypeMismatch, nil, "Address is neither a pointer nor an integer")
}

func primitiveLoad(c *Compiler, inst *Instance) error {
	_, address, err := c.runtimeInput(inst, vocab.Address)
	if err != nil {
		return err
	}
	desc, err := c.input(inst, vocab.PlaceholderEncoding)
	if err != nil {
		return err
	}
	ph, t, err := c.bridge.PlaceholderForDescriptor(desc)
	if err != nil {
		return c.wrap(err)
	}
	block := inst.state.entry
	ptr, err := c.pointerCast(block, address, t)
	if err != nil {
		return err
	}
	load := &llvm.Load{Dest: llvm.NewRegister(t), Address: ptr}
	block.Append(load)
	inst.Outputs[vocab.Output] = ph
	return c.complete(inst, load.Dest)
}

func primitiveStore(c *Compiler, inst *Instance) error {
	_, address, err := c.runtimeInput(inst, vocab.Address)
	if err != nil {
		return err
	}
	_, value, err := c.runtimeInput(inst, vocab.Input)
	if err != nil {
		return err
	}
	block := inst.state.entry
	ptr, err := c.pointerCast(block, address, value.Type())
	if err != nil {
		return err
	}
	block.Append(&llvm.Store{Value: value, Address: ptr})
	return c.complete(inst, nil)
}
