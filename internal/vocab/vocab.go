// Package vocab defines the predefined symbols of the compiler: encodings,
// structural attributes, operand tags, predefined placeholders and the
// primitive operators. They live in graph.VocabularyNamespace and are
// stable across stores, so they can be used as Go constants.
package vocab

import "github.com/Symatem/Compiler/internal/graph"

// Predefined symbols. Void must stay first (the zero Symbol).
const (
	Void graph.Symbol = iota

	// Structure
	Type
	Encoding

	// Encodings
	BinaryNumber
	TwosComplement
	IEEE754
	UTF8
	Composite
	Default
	SlotSize
	Count
	Dynamic
	Vector

	// Operator graph
	Operator
	OperatorInstance
	Operation
	Carrier
	Element
	Operand
	OperandTag
	OperandBundle
	InputOperandBundle
	OutputOperandBundle
	SourceOperat
	DestinationOperat
	SourceOperandTag
	DestinationOperandTag
	TypedPlaceholder
	PlaceholderEncoding
	Constant

	// Numbers
	Zero
	One
	Two
	Four
	Eight
	Sixteen
	ThirtyTwo
	SixtyFour

	// Predefined placeholders
	Pointer
	Symbol
	Boolean
	Natural32
	Integer32
	Float32
	Natural64
	Integer64
	Float64

	// Operand tags
	Input
	OtherInput
	Output
	Address
	Exponent
	Minuend
	Subtrahend
	Dividend
	Divisor
	Quotient
	Rest
	Comparand
	Condition
	Then
	Else

	// Primitive operators
	DeferEvaluation
	Bundle
	Unbundle
	StackAllocate
	Load
	Store
	NumericConversion
	Reinterpretation
	MultiplyByPowerOfTwo
	DivideByPowerOfTwo
	And
	Or
	Xor
	Addition
	Subtraction
	Multiplication
	Division
	Equal
	NotEqual
	LessThan
	LessEqual
	GreaterThan
	GreaterEqual
	If

	count
)

var names = [...]string{
	Void: "Void", Type: "Type", Encoding: "Encoding",
	BinaryNumber: "BinaryNumber", TwosComplement: "TwosComplement", IEEE754: "IEEE754",
	UTF8: "UTF8", Composite: "Composite", Default: "Default", SlotSize: "SlotSize",
	Count: "Count", Dynamic: "Dynamic", Vector: "Vector",
	Operator: "Operator", OperatorInstance: "OperatorInstance", Operation: "Operation",
	Carrier: "Carrier", Element: "Element", Operand: "Operand", OperandTag: "OperandTag",
	OperandBundle: "OperandBundle", InputOperandBundle: "InputOperandBundle",
	OutputOperandBundle: "OutputOperandBundle", SourceOperat: "SourceOperat",
	DestinationOperat: "DestinationOperat", SourceOperandTag: "SourceOperandTag",
	DestinationOperandTag: "DestinationOperandTag", TypedPlaceholder: "TypedPlaceholder",
	PlaceholderEncoding: "PlaceholderEncoding", Constant: "Constant",
	Zero: "Zero", One: "One", Two: "Two", Four: "Four", Eight: "Eight",
	Sixteen: "Sixteen", ThirtyTwo: "ThirtyTwo", SixtyFour: "SixtyFour",
	Pointer: "Pointer", Symbol: "Symbol", Boolean: "Boolean",
	Natural32: "Natural32", Integer32: "Integer32", Float32: "Float32",
	Natural64: "Natural64", Integer64: "Integer64", Float64: "Float64",
	Input: "Input", OtherInput: "OtherInput", Output: "Output", Address: "Address",
	Exponent: "Exponent", Minuend: "Minuend", Subtrahend: "Subtrahend",
	Dividend: "Dividend", Divisor: "Divisor", Quotient: "Quotient", Rest: "Rest",
	Comparand: "Comparand", Condition: "Condition", Then: "Then", Else: "Else",
	DeferEvaluation: "DeferEvaluation", Bundle: "Bundle", Unbundle: "Unbundle",
	StackAllocate: "StackAllocate", Load: "Load", Store: "Store",
	NumericConversion: "NumericConversion", Reinterpretation: "Reinterpretation",
	MultiplyByPowerOfTwo: "MultiplyByPowerOfTwo", DivideByPowerOfTwo: "DivideByPowerOfTwo",
	And: "And", Or: "Or", Xor: "Xor", Addition: "Addition", Subtraction: "Subtraction",
	Multiplication: "Multiplication", Division: "Division", Equal: "Equal",
	NotEqual: "NotEqual", LessThan: "LessThan", LessEqual: "LessEqual",
	GreaterThan: "GreaterThan", GreaterEqual: "GreaterEqual", If: "If",
}

var numbers = map[graph.Symbol]uint32{
	Zero: 0, One: 1, Two: 2, Four: 4, Eight: 8, Sixteen: 16, ThirtyTwo: 32, SixtyFour: 64,
}

var byName map[string]graph.Symbol

func init() {
	byName = make(map[string]graph.Symbol, len(names))
	for i, n := range names {
		byName[n] = graph.Symbol(i)
	}
}

// Index returns the symbol used as the i-th child attribute of a
// Composite encoding.
func Index(i uint32) graph.Symbol {
	return graph.MakeSymbol(graph.IndexNamespace, i)
}

// Lookup resolves a predefined symbol by name.
func Lookup(name string) (graph.Symbol, bool) {
	s, ok := byName[name]
	return s, ok
}

// NameOf returns the predefined name of s, or "" for other symbols.
func NameOf(s graph.Symbol) string {
	if s.Namespace() != graph.VocabularyNamespace || s >= count {
		return ""
	}
	return names[s]
}

// Names lists every predefined name in declaration order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}

// IsPredefined reports whether s belongs to the vocabulary.
func IsPredefined(s graph.Symbol) bool {
	return s.Namespace() == graph.VocabularyNamespace && s < count
}

// Bootstrap writes the payloads of predefined symbols into a store:
// names as UTF-8 text, number symbols as 32-bit naturals. Void keeps an
// empty payload. Calling it again is harmless.
func Bootstrap(s graph.Store) {
	for i := graph.Symbol(1); i < count; i++ {
		if s.GetLength(i) > 0 {
			continue
		}
		if n, ok := numbers[i]; ok {
			_ = SetData(s, i, n)
			continue
		}
		_ = SetData(s, i, names[i])
	}
}
