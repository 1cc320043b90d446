package cypher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Result is a rendered query: text plus the parameter map it references.
type Result struct {
	Cypher string         `json:"cypher"`
	Params map[string]any `json:"params"`
}

// Build renders a clause tree. Variable and parameter names are assigned in
// order of first appearance.
func Build(c Clause) Result {
	e := newEnv()
	text := ""
	if c != nil {
		text = c.clause(e)
	}
	return Result{Cypher: text, Params: e.values}
}

// env holds the naming state of one Build call.
type env struct {
	names      map[*Variable]string
	varCount   int
	params     map[*Param]string
	paramCount int
	values     map[string]any
}

func newEnv() *env {
	return &env{
		names:  make(map[*Variable]string),
		params: make(map[*Param]string),
		values: make(map[string]any),
	}
}

func (e *env) variableName(v *Variable) string {
	if v.name != "" {
		return v.name
	}
	if n, ok := e.names[v]; ok {
		return n
	}
	n := fmt.Sprintf("%s%d", v.prefix, e.varCount)
	e.varCount++
	e.names[v] = n
	return n
}

func (e *env) paramName(p *Param) string {
	if n, ok := e.params[p]; ok {
		return n
	}
	n := fmt.Sprintf("param%d", e.paramCount)
	e.paramCount++
	e.params[p] = n
	e.values[n] = p.Value
	return n
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// escapeName quotes labels, relationship types and property keys that are
// not plain identifiers.
func escapeName(name string) string {
	if plainIdentifier.MatchString(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// indent prefixes every line of s with four spaces.
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}

func renderLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = renderLiteral(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = quoteString(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return quoteString(fmt.Sprint(val))
	}
}

func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
