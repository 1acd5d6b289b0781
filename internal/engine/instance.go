package engine

import (
	"github.com/Symatem/Compiler/internal/digest"
	"github.com/Symatem/Compiler/internal/graph"
	"github.com/Symatem/Compiler/internal/llvm"
	"github.com/Symatem/Compiler/internal/values"
)

// Instance is one memoized compilation of an operator for a specific input
// map.
type Instance struct {
	Symbol   graph.Symbol
	Operator graph.Symbol
	Hash     string

	// Inputs excludes the Operator tag. An OperandBundle input has
	// already been mixed into the map.
	Inputs  graph.Operands
	Outputs graph.Operands

	InputBundle  graph.Symbol
	OutputBundle graph.Symbol

	// Function is nil when every output is a compile-time constant and no
	// code was emitted.
	Function *llvm.Function

	key   []digest.KeyEntry
	state *schedule
}

// Done reports whether the instance has finished.
func (i *Instance) Done() bool {
	return i.state == nil
}

// Callable reports whether callers may already use the outputs and the
// function signature. An unfinished If becomes callable once one branch
// has fixed its outputs.
func (i *Instance) Callable() bool {
	return i.state == nil || i.state.callable
}

// scheduleMode selects how resume continues an instance.
type scheduleMode uint8

const (
	modePrimitive scheduleMode = iota
	modeCustom
	modeBranchConstant
	modeBranchRuntime
)

// schedule is the state of an unfinished instance. Nodes are operation
// symbols of a custom operator, or Then/Else for an If.
type schedule struct {
	mode  scheduleMode
	entry *llvm.BasicBlock

	// params are the function parameters: the runtime inputs by tag,
	// fixed before any OperandBundle input is mixed in.
	params      []*llvm.Register
	inputValues values.Values

	destOperands map[graph.Symbol]graph.Operands
	destValues   map[graph.Symbol]values.Values
	outputValues values.Values
	outputsDue   map[graph.Symbol]bool

	unsatisfied map[graph.Symbol]int
	queue       []graph.Symbol
	blocked     map[graph.Symbol]bool

	// waiters lists instances blocked on this one, in blocking order,
	// with the nodes each one blocked.
	waiters      []*Instance
	waitingNodes map[*Instance][]graph.Symbol

	callable bool
	branch   *branchState
}

// addWaiter records that node of w blocks until this schedule finishes.
func (s *schedule) addWaiter(w *Instance, node graph.Symbol) {
	if s.waitingNodes == nil {
		s.waitingNodes = make(map[*Instance][]graph.Symbol)
	}
	if _, ok := s.waitingNodes[w]; !ok {
		s.waiters = append(s.waiters, w)
	}
	s.waitingNodes[w] = append(s.waitingNodes[w], node)
}

// pop removes the next ready node.
func (s *schedule) pop() (graph.Symbol, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	node := s.queue[0]
	s.queue = s.queue[1:]
	return node, true
}
