package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Symatem/Compiler/internal/digest"
)

// Snapshot is the golden-file form of a scenario outcome: the module text
// and error code, keyed by scenario name. The trace is left out so that
// golden files only change when emitted code does.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	m := map[string]any{
		"scenario_name": scenarioName,
		"ir":            result.IR,
	}
	if result.Function != "" {
		m["function"] = result.Function
	}
	if result.ErrorCode != "" {
		m["error_code"] = result.ErrorCode
	}
	return digest.MarshalCanonical(m)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
