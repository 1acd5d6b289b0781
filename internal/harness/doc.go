// Package harness runs compile scenarios: a program file, the outcome the
// compilation must have, and assertions over the diagnostic trace, the
// module text and the recorded compilation.
//
// # Scenario Format
//
// Scenarios are YAML files. The program path is relative to the scenario:
//
//	name: fib_runtime
//	description: "Fib over a runtime input recurses through If"
//	program: ../programs/fib.yaml
//	expect:
//	  function: Fib
//	assertions:
//	  - type: trace_contains
//	    event: "Callable If#"
//	  - type: trace_order
//	    events: ["Blocked FibStep#", "Resume FibStep#"]
//	  - type: ir_count
//	    text: "call i32 @Fib("
//	    count: 2
//	  - type: final_state
//	    table: compilations
//	    expect: { status: ok }
//
// An expected error names an engine code (TYPE_MISMATCH) or a program
// validation code (E209); a scenario without one must compile.
//
// # Assertion Types
//
//   - trace_contains: some trace line contains the event text
//   - trace_order: the events first appear in the given order
//   - trace_count: exactly N trace lines contain the event text
//   - ir_contains: the module text contains the text
//   - ir_count: the module text contains the text exactly N times
//   - final_state: one row of a store table matches the expected columns
//
// # Deterministic Testing
//
// Every scenario compiles in a fresh graph with a fixed session id and is
// recorded in a fresh in-memory SQLite store, so traces and module text are
// identical across runs and golden files can pin them.
package harness
