// Package engine compiles operator graphs to LLVM IR.
//
// A Compiler owns one compilation context: a namespace in the graph store,
// a type cache, a value bridge and the module being built. Execute compiles
// one invocation of an operator. Invocations are memoized by the hash of
// their sorted input operands, so compiling the same operator with the same
// inputs twice yields the same Instance and the same function.
//
// SCHEDULING:
//
// A custom operator is a small dataflow graph. Its operations become ready
// once every non-constant carrier feeding them has delivered an operand.
// Ready operations are executed in FIFO order, and their call instructions
// accumulate in the entry block of the instance's function.
//
// An operation whose callee is still being compiled (recursion) blocks. The
// instance then suspends: its schedule stays on the Instance and the callee
// records it as a waiter. When the callee finishes, every waiter is pushed
// onto the wake work-list, which the public Execute drains. Resumption never
// re-enters a suspended schedule from inside another one.
//
// An If instance with a runtime condition becomes callable as soon as one
// branch has fixed its output types, before the other branch finishes.
// This is what lets a recursive chain with a base case unwind.
//
// ERRORS:
//
// Every failure is a *CompileError carrying a code and the diagnostic trace.
// After the first failure the Compiler is poisoned and refuses further work.
package engine
