// Package testutil holds fixtures shared by the compiler tests: fixed
// session ids and small operator programs.
package testutil

// FixedSessionGenerator returns the same session id every time.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out, so a test may create any number of compilers that all
// render identical history records.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements engine.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
