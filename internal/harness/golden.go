package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cypherql/internal/canonical"
)

// Snapshot renders a result for golden comparison: one section per
// statement with its Cypher and canonical-JSON parameters, or the error
// code when translation failed.
//
//	// movies (read)
//	MATCH (this:Movie)
//	RETURN this { .title } AS this
//	// params {}
func Snapshot(result *Result) ([]byte, error) {
	var buf strings.Builder
	if result.ErrorCode != "" {
		fmt.Fprintf(&buf, "// error %s\n", result.ErrorCode)
		return []byte(buf.String()), nil
	}

	for i, st := range result.Statements {
		if i > 0 {
			buf.WriteByte('\n')
		}
		params := st.Params
		if params == nil {
			params = map[string]any{}
		}
		paramsJSON, err := canonical.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", st.Field, err)
		}
		fmt.Fprintf(&buf, "// %s (%s)\n", st.Field, st.Operation)
		buf.WriteString(st.Cypher)
		fmt.Fprintf(&buf, "\n// params %s\n", paramsJSON)
	}
	return []byte(buf.String()), nil
}

// RunWithGolden runs a scenario, fails t on unmet expectations and
// compares its snapshot with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Error(e)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's snapshot with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
