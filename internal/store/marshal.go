package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Symatem/Compiler/internal/digest"
	"github.com/Symatem/Compiler/internal/graph"
)

// marshalInputs stores operands as canonical JSON [[tag, operand], ...]
// sorted by tag.
func marshalInputs(inputs graph.Operands) (string, error) {
	pairs := make([]any, 0, len(inputs))
	for _, tag := range inputs.SortedTags() {
		pairs = append(pairs, []any{uint64(tag), uint64(inputs[tag])})
	}
	data, err := digest.MarshalCanonical(pairs)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	return string(data), nil
}

// unmarshalInputs parses the pair list. Symbols decode as uint64 directly so
// values above 2^53 keep their precision.
func unmarshalInputs(data string) (graph.Operands, error) {
	var pairs [][2]uint64
	if err := json.Unmarshal([]byte(data), &pairs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	out := make(graph.Operands, len(pairs))
	for _, p := range pairs {
		out[graph.Symbol(p[0])] = graph.Symbol(p[1])
	}
	return out, nil
}

func marshalTrace(lines []string) (string, error) {
	arr := make([]any, len(lines))
	for i, l := range lines {
		arr[i] = l
	}
	data, err := digest.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal trace: %w", err)
	}
	return string(data), nil
}

func unmarshalTrace(data string) ([]string, error) {
	var lines []string
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}

func sortTriples(triples []graph.Triple) {
	sort.Slice(triples, func(i, j int) bool { return triples[i].Less(triples[j]) })
}

func sortData(data []graph.SymbolData) {
	sort.Slice(data, func(i, j int) bool { return data[i].Symbol < data[j].Symbol })
}
