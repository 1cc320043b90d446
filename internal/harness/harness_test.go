package harness

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenarios(t *testing.T) []*Scenario {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		require.NoError(t, err, p)
		scenarios = append(scenarios, s)
	}
	return scenarios
}

func TestScenarios_Golden(t *testing.T) {
	for _, s := range loadTestScenarios(t) {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestRunAll(t *testing.T) {
	scenarios := loadTestScenarios(t)

	results, err := RunAll(context.Background(), scenarios, 3)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Name)
		assert.True(t, r.Pass, "%s: %v", r.Name, r.Errors)
	}
}

func TestRunAll_SchemaFailureStops(t *testing.T) {
	scenarios := []*Scenario{
		{Name: "ok", Description: "d", SDL: "type Movie { title: String }", Query: "{ movies { title } }"},
		{Name: "broken", Description: "d", SDL: "type {", Query: "{ movies { title } }"},
	}

	_, err := RunAll(context.Background(), scenarios, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario broken")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{Name: "c", Description: "d", SDL: "type Movie { title: String }", Query: "{ movies { title } }"}
	_, err := Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_FailedExpectations(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:        "f",
			Description: "d",
			SDL:         "type Movie { title: String }",
			Query:       `{ movies(where: {title: "x"}) { title } }`,
		}
	}

	testCases := []struct {
		name   string
		query  string
		expect *Expect
		want   string
	}{
		{
			name:   "cypher mismatch",
			expect: &Expect{Cypher: "MATCH (n) RETURN n"},
			want:   "Assertion failed: cypher",
		},
		{
			name:   "missing substring",
			expect: &Expect{Contains: []string{"ORDER BY"}},
			want:   `cypher containing "ORDER BY"`,
		},
		{
			name:   "param value",
			expect: &Expect{Params: map[string]any{"param0": "y"}},
			want:   "param0 = y",
		},
		{
			name:   "missing param",
			expect: &Expect{Params: map[string]any{"param7": 1}},
			want:   "parameter param7",
		},
		{
			name:   "expected error",
			expect: &Expect{Error: "ATTRIBUTE_NOT_FOUND"},
			want:   "successful translation",
		},
		{
			name:   "wrong error code",
			query:  `{ movies(where: {budget: 1}) { title } }`,
			expect: &Expect{Error: "ENTITY_NOT_FOUND"},
			want:   "ATTRIBUTE_NOT_FOUND",
		},
		{
			name:  "unexpected error",
			query: `{ planets { name } }`,
			want:  "ENTITY_NOT_FOUND",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			s.Expect = tc.expect
			if tc.query != "" {
				s.Query = tc.query
			}

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tc.want)
		})
	}
}

func TestRun_ParamsCompareNumerically(t *testing.T) {
	s := &Scenario{
		Name:        "n",
		Description: "d",
		SDL:         "type Movie { released: Int }",
		Query:       `{ movies(where: {released_IN: [1999, 2003]}) { released } }`,
		Expect:      &Expect{Params: map[string]any{"param0": []any{1999, 2003}}},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestParseScenario_Errors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: a\ndescription: d\nsdl: x\nquery: q\nexpected: {}\n", "field expected not found"},
		{"missing name", "description: d\nsdl: x\nquery: q\n", "name is required"},
		{"missing description", "name: a\nsdl: x\nquery: q\n", "description is required"},
		{"missing query", "name: a\ndescription: d\nsdl: x\n", "query is required"},
		{"no schema", "name: a\ndescription: d\nquery: q\n", "one of schema or sdl is required"},
		{"both schemas", "name: a\ndescription: d\nsdl: x\nschema: s.graphql\nquery: q\n", "mutually exclusive"},
		{"bad limits", "name: a\ndescription: d\nsdl: x\nquery: q\nlimits: {default: 9, max: 3}\n", "exceeds limits.max"},
		{"empty rule", "name: a\ndescription: d\nsdl: x\nquery: q\nauthorization: {Movie: {where: {}}}\n", "authorization.Movie"},
		{"error with cypher", "name: a\ndescription: d\nsdl: x\nquery: q\nexpect: {error: X, cypher: y}\n", "error excludes"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadScenario_ResolvesSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.graphql"), []byte("type Movie { title: String }"), 0644))
	path := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\ndescription: d\nschema: s.graphql\nquery: \"{ movies { title } }\"\n"), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s.graphql"), s.Schema)

	require.NoError(t, os.WriteFile(path, []byte("name: a\ndescription: d\nschema: missing.graphql\nquery: q\n"), 0644))
	_, err = LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestSnapshot(t *testing.T) {
	s := &Scenario{Name: "s", Description: "d", SDL: "type Movie { title: String }", Query: `{ movies(where: {title: "é"}) { title } }`}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	snap, err := Snapshot(result)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"// movies (read)",
		"MATCH (this:Movie)",
		"WHERE this.title = $param0",
		"RETURN this { .title } AS this",
		`// params {"param0":"é"}`,
		"",
	}, "\n"), string(snap))

	snap, err = Snapshot(&Result{ErrorCode: "INVARIANT"})
	require.NoError(t, err)
	assert.Equal(t, "// error INVARIANT\n", string(snap))
}
