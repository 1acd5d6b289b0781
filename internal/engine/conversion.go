package engine

import (
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
	"github.com/Symatem/Compiler/internal/vocab"
)

// conversion returns NumericConversion (numeric) or Reinterpretation. The
// target is given as a PlaceholderEncoding descriptor.
func conversion(numeric bool) primitive {
	return func(c *Compiler, inst *Instance) error {
		in, err := c.input(inst, vocab.Input)
		if err != nil {
			return err
		}
		desc, err := c.input(inst, vocab.PlaceholderEncoding)
		if err != nil {
			return err
		}
		dstPh, dstType, err := c.bridge.PlaceholderForDescriptor(desc)
		if err != nil {
			return c.wrap(err)
		}
		dstEnc := c.store.GetSolitary(desc, vocab.Default)
		dstSize := dstType.SizeInBits()

		value, runtime := inst.state.inputValues[vocab.Input]
		var srcEnc graph.Symbol
		var srcSize int
		if runtime {
			srcEnc = c.bridge.EncodingOf(in)
			srcSize = value.Type().SizeInBits()
		} else {
			srcEnc = c.store.GetSolitary(in, vocab.Encoding)
			srcSize = c.store.GetLength(in)
		}
		if !numeric && srcSize != dstSize {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{in, desc}, "PlaceholderEncoding SlotSize mismatch")
		}
		if numeric && (!isNumeric(srcEnc) || !isNumeric(dstEnc)) {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{in, desc}, "numeric conversion between non-numeric encodings")
		}

		if srcEnc == dstEnc && srcSize == dstSize {
			inst.Outputs[vocab.Output] = in
			return c.complete(inst, value)
		}
		if runtime {
			cast := &llvm.Cast{
				Dest: llvm.NewRegister(dstType),
				Op:   castOp(numeric, srcEnc, srcSize, dstEnc, dstSize),
				From: value,
			}
			inst.state.entry.Append(cast)
			inst.Outputs[vocab.Output] = dstPh
			return c.complete(inst, cast.Dest)
		}

		if !numeric {
			inst.Outputs[vocab.Output] = c.bridge.RawConstant(dstEnc, c.store.GetRawData(in), dstSize)
			return c.complete(inst, nil)
		}
		n, ok := c.bridge.Number(in)
		if !ok {
			return c.fail(ErrCodeTypeMismatch, []graph.Symbol{in}, "Input is not a foldable number")
		}
		if (dstEnc == vocab.IEEE754 && dstSize != 32 && dstSize != 64) || dstSize > 64 {
			return c.fail(ErrCodeUnimplemented, []graph.Symbol{desc}, "constant conversion to %d bits is not implemented", dstSize)
		}
		inst.Outputs[vocab.Output] = c.bridge.Constant(convertNumber(n, dstEnc, dstSize))
		return c.complete(inst, nil)
	}
}

// castOp selects the cast instruction. Reinterpretation always bitcasts.
func castOp(numeric bool, srcEnc graph.Symbol, srcSize int, dstEnc graph.Symbol, dstSize int) string {
	if !numeric {
		return "bitcast"
	}
	if srcEnc == vocab.IEEE754 {
		switch {
		case dstEnc == vocab.IEEE754 && srcSize > dstSize:
			return "fptrunc"
		case dstEnc == vocab.IEEE754:
			return "fpext"
		case dstEnc == vocab.BinaryNumber:
			return "fptoui"
		}
		return "fptosi"
	}
	switch {
	case dstEnc == vocab.IEEE754 && srcEnc == vocab.BinaryNumber:
		return "uitofp"
	case dstEnc == vocab.IEEE754:
		return "sitofp"
	case srcSize > dstSize:
		return "trunc"
	case srcSize == dstSize:
		return "bitcast"
	case srcEnc == vocab.BinaryNumber:
		return "zext"
	}
	return "sext"
}

// convertNumber is the host equivalent of castOp for constants.
func convertNumber(n values.Number, dstEnc graph.Symbol, dstSize int) values.Number {
	if dstEnc == vocab.IEEE754 {
		var f float64
		switch {
		case n.IsFloat():
			f = n.Float()
		case n.IsSigned():
			f = float64(n.Int())
		default:
			f = float64(n.Uint())
		}
		return values.FloatNumber(dstSize, f)
	}
	if n.IsFloat() {
		if dstEnc == vocab.TwosComplement {
			return values.IntNumber(dstEnc, dstSize, uint64(int64(n.Float())))
		}
		return values.IntNumber(dstEnc, dstSize, uint64(n.Float()))
	}
	v := n.Uint()
	if n.IsSigned() {
		v = uint64(n.Int())
	}
	return values.IntNumber(dstEnc, dstSize, v)
}
