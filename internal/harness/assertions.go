package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/cypherql/internal/canonical"
)

// AssertionError is a failed expectation.
type AssertionError struct {
	Type     string // cypher, contains, params or error
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", indentLines(e.Expected))
	fmt.Fprintf(&buf, "  Actual: %s", indentLines(e.Actual))
	return buf.String()
}

func indentLines(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}

// EvaluateExpect checks a result against expect. translateErr is the error
// translation failed with, if any. Returns one message per failed
// expectation.
func EvaluateExpect(result *Result, expect *Expect, translateErr error) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if expect == nil || expect.Error == "" {
		if translateErr != nil {
			add(&AssertionError{Type: "error", Expected: "successful translation", Actual: translateErr.Error()})
			return errs
		}
	}
	if expect == nil {
		return nil
	}

	if expect.Error != "" {
		add(assertError(result, expect.Error, translateErr))
		return errs
	}

	text := CypherText(result)
	if expect.Cypher != "" {
		add(assertCypher(text, expect.Cypher))
	}
	for _, sub := range expect.Contains {
		add(assertContains(text, sub))
	}
	if len(expect.Params) > 0 {
		add(assertParams(result, expect.Params))
	}
	return errs
}

// CypherText joins the Cypher of every statement with a blank line.
func CypherText(result *Result) string {
	parts := make([]string, len(result.Statements))
	for i, st := range result.Statements {
		parts[i] = st.Cypher
	}
	return strings.Join(parts, "\n\n")
}

func assertError(result *Result, want string, translateErr error) error {
	if translateErr == nil {
		return &AssertionError{Type: "error", Expected: want, Actual: "successful translation"}
	}
	if result.ErrorCode != want {
		return &AssertionError{Type: "error", Expected: want, Actual: fmt.Sprintf("%s (%v)", result.ErrorCode, translateErr)}
	}
	return nil
}

func assertCypher(actual, want string) error {
	if strings.TrimSpace(actual) == strings.TrimSpace(want) {
		return nil
	}
	return &AssertionError{Type: "cypher", Expected: strings.TrimSpace(want), Actual: actual}
}

func assertContains(actual, sub string) error {
	if strings.Contains(actual, sub) {
		return nil
	}
	return &AssertionError{Type: "contains", Expected: fmt.Sprintf("cypher containing %q", sub), Actual: actual}
}

// assertParams is a subset match on the first statement's parameters.
// Values compare by canonical JSON so YAML ints match int64 parameters.
func assertParams(result *Result, want map[string]any) error {
	if len(result.Statements) == 0 {
		return &AssertionError{Type: "params", Expected: fmt.Sprintf("%v", want), Actual: "no statements"}
	}
	got := result.Statements[0].Params

	for _, name := range canonical.SortedKeys(want) {
		actual, ok := got[name]
		if !ok {
			return &AssertionError{Type: "params", Expected: fmt.Sprintf("parameter %s", name), Actual: "missing"}
		}
		equal, err := sameValue(actual, want[name])
		if err != nil {
			return &AssertionError{Type: "params", Expected: fmt.Sprintf("%s = %v", name, want[name]), Actual: err.Error()}
		}
		if !equal {
			return &AssertionError{Type: "params", Expected: fmt.Sprintf("%s = %v", name, want[name]), Actual: fmt.Sprintf("%s = %v", name, actual)}
		}
	}
	return nil
}

func sameValue(a, b any) (bool, error) {
	ab, err := canonical.Marshal(a)
	if err != nil {
		return false, err
	}
	bb, err := canonical.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}
