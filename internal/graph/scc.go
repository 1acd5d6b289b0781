package graph

// Dependencies maps a node to the nodes it depends on.
type Dependencies map[Symbol][]Symbol

// StronglyConnected finds strongly connected components using Tarjan's
// algorithm. Nodes are visited in ascending order so the result is
// deterministic.
func StronglyConnected(deps Dependencies) [][]Symbol {
	var (
		index   = 0
		stack   []Symbol
		indices = make(map[Symbol]int)
		lowlink = make(map[Symbol]int)
		onStack = make(map[Symbol]bool)
		sccs    [][]Symbol
	)

	var strongConnect func(Symbol)
	strongConnect = func(v Symbol) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range deps[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []Symbol
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]Symbol, 0, len(deps))
	for node := range deps {
		nodes = append(nodes, node)
	}
	SortSymbols(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// Cycles returns the components that form a cycle: more than one node, or
// a single node depending on itself.
func Cycles(deps Dependencies) [][]Symbol {
	var out [][]Symbol
	for _, scc := range StronglyConnected(deps) {
		if len(scc) > 1 || hasSelfLoop(scc[0], deps) {
			out = append(out, scc)
		}
	}
	return out
}

// CyclePath reconstructs a closed path through a component, starting and
// ending at its smallest node.
func CyclePath(scc []Symbol, deps Dependencies) []Symbol {
	if len(scc) == 0 {
		return nil
	}
	members := make(map[Symbol]bool, len(scc))
	start := scc[0]
	for _, node := range scc {
		members[node] = true
		start = min(start, node)
	}
	current := start
	path := []Symbol{current}
	visited := make(map[Symbol]bool)
	for {
		visited[current] = true
		next, found := Symbol(0), false
		for _, w := range deps[current] {
			if members[w] && (!visited[w] || w == start) {
				next, found = w, true
				break
			}
		}
		if !found {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

func hasSelfLoop(node Symbol, deps Dependencies) bool {
	for _, w := range deps[node] {
		if w == node {
			return true
		}
	}
	return false
}
