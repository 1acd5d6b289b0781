package program

import (
	"encoding/json"
	"fmt"

	"github.com/Symatem/Compiler/internal/digest"
)

// Hash returns the content hash of a definition. Two definitions with the
// same fields hash equally regardless of the format they were loaded from.
func Hash(def *Definition) (string, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("unmarshal definition: %w", err)
	}
	return digest.ProgramHash(generic)
}
