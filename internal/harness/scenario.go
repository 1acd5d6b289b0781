package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the program file to compile, relative to the scenario file.
	Program string `yaml:"program"`

	// Session is the fixed session id. Defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Strict selects the failing missing-operand policy.
	Strict bool `yaml:"strict,omitempty"`

	// MaxInstances overrides the instance quota when positive.
	MaxInstances int `yaml:"max_instances,omitempty"`

	// Expect is the required outcome.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the trace, module text and recorded state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected compilation outcome.
type ExpectClause struct {
	// Error is the expected error code. Empty means the compilation succeeds.
	Error string `yaml:"error,omitempty"`

	// Function is the expected name of the exported entry function.
	Function string `yaml:"function,omitempty"`
}

// Assertion validates the trace, the module text or the final store state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is a trace line substring (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Events are trace line substrings in expected order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Text is a module text substring (ir_contains, ir_count).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of occurrences (trace_count, ir_count).
	Count int `yaml:"count,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state). All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	// Subset match - only specified columns are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertIRContains    = "ir_contains"
	AssertIRCount       = "ir_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file and resolves its
// program path. Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program file not found: %s", s.Program)
	}
	if s.MaxInstances < 0 {
		return fmt.Errorf("max_instances must be non-negative")
	}
	if s.Expect.Error != "" && s.Expect.Function != "" {
		return fmt.Errorf("expect: error and function are mutually exclusive")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) < 2 {
			return fmt.Errorf("assertions[%d]: at least two events are required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
	case AssertIRContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for ir_contains", index)
		}
	case AssertIRCount:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for ir_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
