package engine

import (
	"math"

	"github.com/llir/llvm/ir/enum"

	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
	"github.com/Symatem/Compiler/internal/vocab"
)

type binaryOp uint8

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opAnd
	opOr
	opXor
	opShiftLeft
	opShiftRight
)

func (o binaryOp) bitwise() bool { return o >= opAnd }

func (o binaryOp) shift() bool { return o == opShiftLeft || o == opShiftRight }

// instruction returns the opcode for operands of the given encoding.
func (o binaryOp) instruction(encoding graph.Symbol) string {
	switch o {
	case opAnd:
		return "and"
	case opOr:
		return "or"
	case opXor:
		return "xor"
	case opShiftLeft:
		return "shl"
	case opShiftRight:
		if encoding == vocab.TwosComplement {
			return "ashr"
		}
		return "lshr"
	}
	name := [...]string{opAdd: "add", opSub: "sub", opMul: "mul"}[o]
	if encoding == vocab.IEEE754 {
		return "f" + name
	}
	return name
}

// fold computes the operation on the host with the wrap-around semantics
// of the IR instruction.
func (o binaryOp) fold(a, b values.Number) values.Number {
	if a.IsFloat() {
		x, y := a.Float(), b.Float()
		switch o {
		case opSub:
			return values.FloatNumber(a.Width, x-y)
		case opMul:
			return values.FloatNumber(a.Width, x*y)
		default:
			return values.FloatNumber(a.Width, x+y)
		}
	}
	x, y := a.Uint(), b.Uint()
	var r uint64
	switch o {
	case opAdd:
		r = x + y
	case opSub:
		r = x - y
	case opMul:
		r = x * y
	case opAnd:
		r = x & y
	case opOr:
		r = x | y
	case opXor:
		r = x ^ y
	case opShiftLeft:
		if y < uint64(a.Width) {
			r = x << y
		}
	case opShiftRight:
		if a.IsSigned() {
			r = uint64(a.Int() >> min(y, 63))
		} else if y < uint64(a.Width) {
			r = x >> y
		}
	}
	return values.IntNumber(a.Encoding, a.Width, r)
}

func isNumeric(encoding graph.Symbol) bool {
	return encoding == vocab.BinaryNumber || encoding == vocab.TwosComplement || encoding == vocab.IEEE754
}

// checkOperands validates the encodings of two operands. Widths are
// compared by the caller, as IR types or constant lengths.
func (c *Compiler) checkOperands(op binaryOp, a, b, encA, encB graph.Symbol) error {
	switch {
	case !isNumeric(encA):
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{a}, "operand is not a number")
	case op.shift() && encB != vocab.BinaryNumber:
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{b}, "Exponent is not a natural number")
	case !op.shift() && encA != encB:
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{a, b}, "type mismatch")
	case op.bitwise() && encA == vocab.IEEE754:
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{a}, "IEEE754 not supported by bitwise operations")
	}
	return nil
}

// binary returns the primitive for a two-operand arithmetic or bitwise
// operator with result tag Output.
func binary(op binaryOp, tagA, tagB graph.Symbol) primitive {
	return func(c *Compiler, inst *Instance) error {
		a, err := c.input(inst, tagA)
		if err != nil {
			return err
		}
		b, err := c.input(inst, tagB)
		if err != nil {
			return err
		}
		if !isRuntime(inst, tagA) && !isRuntime(inst, tagB) {
			na, nb, err := c.numbers(a, b)
			if err != nil {
				return err
			}
			if err := c.checkOperands(op, a, b, na.Encoding, nb.Encoding); err != nil {
				return err
			}
			if !op.shift() && na.Width != nb.Width {
				return c.fail(ErrCodeTypeMismatch, []graph.Symbol{a, b}, "type mismatch")
			}
			inst.Outputs[vocab.Output] = c.bridge.Constant(op.fold(na, nb))
			return c.complete(inst, nil)
		}

		phA, vA, err := c.runtimeInput(inst, tagA)
		if err != nil {
			return err
		}
		phB, vB, err := c.runtimeInput(inst, tagB)
		if err != nil {
			return err
		}
		encA := c.bridge.EncodingOf(phA)
		if err := c.checkOperands(op, phA, phB, encA, c.bridge.EncodingOf(phB)); err != nil {
			return err
		}
		// A constant shift amount is materialized at the width of the
		// shifted value.
		if op.shift() && !isRuntime(inst, tagB) {
			if n, ok := c.bridge.Number(b); ok {
				vB = values.NumberConstant(vA.Type(), n)
			}
		}
		if vA.Type() != vB.Type() {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{phA, phB}, "type mismatch")
		}
		bin := &llvm.Binary{Dest: llvm.NewRegister(vA.Type()), Op: op.instruction(encA), X: vA, Y: vB}
		inst.state.entry.Append(bin)
		inst.Outputs[vocab.Output] = phA
		return c.complete(inst, bin.Dest)
	}
}

// numbers decodes two constant operands for folding.
func (c *Compiler) numbers(a, b graph.Symbol) (values.Number, values.Number, error) {
	na, ok := c.bridge.Number(a)
	if !ok {
		return values.Number{}, values.Number{}, c.fail(ErrCodeTypeMismatch, []graph.Symbol{a}, "operand is not a foldable number")
	}
	nb, ok := c.bridge.Number(b)
	if !ok {
		return values.Number{}, values.Number{}, c.fail(ErrCodeTypeMismatch, []graph.Symbol{b}, "operand is not a foldable number")
	}
	return na, nb, nil
}

func primitiveDivision(c *Compiler, inst *Instance) error {
	a, err := c.input(inst, vocab.Dividend)
	if err != nil {
		return err
	}
	b, err := c.input(inst, vocab.Divisor)
	if err != nil {
		return err
	}
	if !isRuntime(inst, vocab.Dividend) && !isRuntime(inst, vocab.Divisor) {
		na, nb, err := c.numbers(a, b)
		if err != nil {
			return err
		}
		if err := c.checkOperands(opAdd, a, b, na.Encoding, nb.Encoding); err != nil {
			return err
		}
		if na.Width != nb.Width {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{a, b}, "type mismatch")
		}
		q, r, err := c.divide(na, nb, b)
		if err != nil {
			return err
		}
		inst.Outputs[vocab.Quotient] = c.bridge.Constant(q)
		inst.Outputs[vocab.Rest] = c.bridge.Constant(r)
		return c.complete(inst, nil)
	}

	phA, vA, err := c.runtimeInput(inst, vocab.Dividend)
	if err != nil {
		return err
	}
	phB, vB, err := c.runtimeInput(inst, vocab.Divisor)
	if err != nil {
		return err
	}
	encA := c.bridge.EncodingOf(phA)
	if err := c.checkOperands(opAdd, phA, phB, encA, c.bridge.EncodingOf(phB)); err != nil {
		return err
	}
	if vA.Type() != vB.Type() {
		return c.fail(ErrCodeTypeMismatch, []graph.Symbol{phA, phB}, "type mismatch")
	}
	prefix := "u"
	switch encA {
	case vocab.TwosComplement:
		prefix = "s"
	case vocab.IEEE754:
		prefix = "f"
	}
	div := &llvm.Binary{Dest: llvm.NewRegister(vA.Type()), Op: prefix + "div", X: vA, Y: vB}
	rem := &llvm.Binary{Dest: llvm.NewRegister(vA.Type()), Op: prefix + "rem", X: vA, Y: vB}
	entry := inst.state.entry
	entry.Append(div, rem)
	inst.Outputs[vocab.Quotient] = phA
	inst.Outputs[vocab.Rest] = phA
	return c.complete(inst, c.bridge.BuildBundle(entry, []llvm.Value{div.Dest, rem.Dest}))
}

// divide folds a division. Integer division truncates toward zero like
// sdiv/udiv; the float remainder follows frem.
func (c *Compiler) divide(a, b values.Number, divisor graph.Symbol) (values.Number, values.Number, error) {
	if a.IsFloat() {
		x, y := a.Float(), b.Float()
		return values.FloatNumber(a.Width, x/y), values.FloatNumber(a.Width, math.Mod(x, y)), nil
	}
	if b.Uint() == 0 {
		return values.Number{}, values.Number{}, c.fail(ErrCodeDivisionByZero, []graph.Symbol{divisor}, "division by zero")
	}
	if a.IsSigned() {
		x, y := a.Int(), b.Int()
		return values.IntNumber(a.Encoding, a.Width, uint64(x/y)), values.IntNumber(a.Encoding, a.Width, uint64(x%y)), nil
	}
	x, y := a.Uint(), b.Uint()
	return values.IntNumber(a.Encoding, a.Width, x/y), values.IntNumber(a.Encoding, a.Width, x%y), nil
}

type comparisonOp uint8

const (
	cmpEqual comparisonOp = iota
	cmpNotEqual
	cmpLess
	cmpLessEqual
	cmpGreater
	cmpGreaterEqual
)

var (
	unsignedPredicates = [...]enum.IPred{enum.IPredEQ, enum.IPredNE, enum.IPredULT, enum.IPredULE, enum.IPredUGT, enum.IPredUGE}
	signedPredicates   = [...]enum.IPred{enum.IPredEQ, enum.IPredNE, enum.IPredSLT, enum.IPredSLE, enum.IPredSGT, enum.IPredSGE}
	floatPredicates    = [...]enum.FPred{enum.FPredOEQ, enum.FPredONE, enum.FPredOLT, enum.FPredOLE, enum.FPredOGT, enum.FPredOGE}
)

// predicate selects the compare predicate. Equality of integers does not
// depend on signedness.
func (o comparisonOp) predicate(encoding graph.Symbol) string {
	switch encoding {
	case vocab.IEEE754:
		return floatPredicates[o].String()
	case vocab.TwosComplement:
		return signedPredicates[o].String()
	}
	return unsignedPredicates[o].String()
}

func (o comparisonOp) fold(a, b values.Number) bool {
	var order int
	switch {
	case a.IsFloat():
		x, y := a.Float(), b.Float()
		if math.IsNaN(x) || math.IsNaN(y) {
			// ordered predicates are false on NaN
			return false
		}
		order = compare(x, y)
	case a.IsSigned():
		order = compare(a.Int(), b.Int())
	default:
		order = compare(a.Uint(), b.Uint())
	}
	switch o {
	case cmpEqual:
		return order == 0
	case cmpNotEqual:
		return order != 0
	case cmpLess:
		return order < 0
	case cmpLessEqual:
		return order <= 0
	case cmpGreater:
		return order > 0
	}
	return order >= 0
}

func compare[T int64 | uint64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// comparison returns the primitive comparing Input with Comparand into a
// Boolean Output.
func comparison(op comparisonOp) primitive {
	return func(c *Compiler, inst *Instance) error {
		a, err := c.input(inst, vocab.Input)
		if err != nil {
			return err
		}
		b, err := c.input(inst, vocab.Comparand)
		if err != nil {
			return err
		}
		if !isRuntime(inst, vocab.Input) && !isRuntime(inst, vocab.Comparand) {
			na, nb, err := c.numbers(a, b)
			if err != nil {
				return err
			}
			if err := c.checkOperands(opAdd, a, b, na.Encoding, nb.Encoding); err != nil {
				return err
			}
			if na.Width != nb.Width {
				return c.fail(ErrCodeTypeMismatch, []graph.Symbol{a, b}, "type mismatch")
			}
			inst.Outputs[vocab.Output] = c.bridge.Boolean(op.fold(na, nb))
			return c.complete(inst, nil)
		}

		phA, vA, err := c.runtimeInput(inst, vocab.Input)
		if err != nil {
			return err
		}
		phB, vB, err := c.runtimeInput(inst, vocab.Comparand)
		if err != nil {
			return err
		}
		encA := c.bridge.EncodingOf(phA)
		if err := c.checkOperands(opAdd, phA, phB, encA, c.bridge.EncodingOf(phB)); err != nil {
			return err
		}
		if vA.Type() != vB.Type() {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{phA, phB}, "type mismatch")
		}
		cmp := &llvm.Compare{
			Dest:      llvm.NewRegister(c.types.Int(1)),
			Float:     encA == vocab.IEEE754,
			Predicate: op.predicate(encA),
			X:         vA,
			Y:         vB,
		}
		inst.state.entry.Append(cmp)
		inst.Outputs[vocab.Output] = vocab.Boolean
		return c.complete(inst, cmp.Dest)
	}
}
