package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Symatem/Compiler/internal/values"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeInvalidOperator indicates Void or a non-operator was invoked.
	ErrCodeInvalidOperator ErrorCode = "INVALID_OPERATOR"

	// ErrCodeTypeMismatch indicates operands that must share a type do not.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeGraphMalformed indicates an inconsistent operator graph.
	ErrCodeGraphMalformed ErrorCode = "GRAPH_MALFORMED"

	// ErrCodeNotADAG indicates operations of an operator that can never run.
	ErrCodeNotADAG ErrorCode = "NOT_A_DAG"

	// ErrCodeUnimplemented indicates dynamic dispatch or indirect invocation.
	ErrCodeUnimplemented ErrorCode = "UNIMPLEMENTED"

	// ErrCodeMissingOperand indicates a carrier source without an operand
	// under PolicyFail.
	ErrCodeMissingOperand ErrorCode = "MISSING_OPERAND"

	// ErrCodeUnresolvedRecursion indicates a top-level instance that is
	// still suspended once every wake-up has been processed.
	ErrCodeUnresolvedRecursion ErrorCode = "UNRESOLVED_RECURSION"

	// ErrCodeQuotaExceeded indicates more instances than WithMaxInstances allows.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeDivisionByZero indicates a constant integer division by zero.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeContextPoisoned indicates use of a Compiler after a failure.
	ErrCodeContextPoisoned ErrorCode = "CONTEXT_POISONED"
)

// CompileError is returned by Execute. Trace holds the indented diagnostic
// log up to the failure.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Instance describes the instance being compiled, if any.
	Instance string

	// Symbols lists the symbols involved, rendered for humans.
	Symbols []string

	// Trace is the diagnostic log, one event per line.
	Trace []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Symbols) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Symbols, ", "))
	}
	if e.Instance != "" {
		fmt.Fprintf(&b, " (instance=%s)", e.Instance)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a CompileError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsTypeMismatch returns true if the error is a type mismatch.
func IsTypeMismatch(err error) bool { return IsCode(err, ErrCodeTypeMismatch) }

// IsNotADAG returns true if an operator body could not be scheduled.
func IsNotADAG(err error) bool { return IsCode(err, ErrCodeNotADAG) }

// IsQuotaError returns true if the instance quota was exceeded.
func IsQuotaError(err error) bool { return IsCode(err, ErrCodeQuotaExceeded) }

// classify maps errors from the value bridge to compile error codes.
func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, values.ErrMissingOperand):
		return ErrCodeMissingOperand
	case errors.Is(err, values.ErrUnsupported):
		return ErrCodeUnimplemented
	default:
		return ErrCodeGraphMalformed
	}
}
