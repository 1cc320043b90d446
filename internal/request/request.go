// Package request turns GraphQL request text into the resolved selection
// tree consumed by the query AST factories.
//
// Parsing is purely syntactic: the request is not validated against a
// generated GraphQL API schema. Variables are substituted, fragments are
// expanded, and argument values are normalised to plain Go values
// (int64, float64, string, bool, nil, []any, map[string]any).
package request

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Field is one selected field with its arguments and sub-selection.
type Field struct {
	Name      string
	Alias     string
	Args      map[string]any
	Selection Selection
}

// ResponseKey is the alias if present, otherwise the field name.
func (f *Field) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Arg returns an argument value.
func (f *Field) Arg(name string) (any, bool) {
	v, ok := f.Args[name]
	return v, ok
}

// Selection is a selection set. Fields apply to every possible type;
// ByType holds fields selected under a type condition.
type Selection struct {
	Fields []*Field
	ByType map[string][]*Field
}

// Find returns the first selected field with the given name.
func (s Selection) Find(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// ForType returns the fields that apply to typeName, in selection order:
// unconditioned fields first, then those under matching type conditions.
func (s Selection) ForType(typeNames ...string) []*Field {
	out := append([]*Field(nil), s.Fields...)
	for _, tn := range typeNames {
		out = append(out, s.ByType[tn]...)
	}
	return out
}

// Document is a parsed request: the root fields of one operation.
type Document struct {
	OperationName string
	Fields        []*Field
}

// Parse parses query text and resolves the operation named operationName,
// or the only operation when operationName is empty.
func Parse(query string, variables map[string]any, operationName string) (*Document, error) {
	doc, perr := parser.ParseQuery(&ast.Source{Name: "request.graphql", Input: query})
	if perr != nil {
		return nil, fmt.Errorf("parse request: %w", perr)
	}

	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}
	if op.Operation != ast.Query {
		return nil, fmt.Errorf("parse request: only query operations are supported, got %s", op.Operation)
	}

	r := &resolver{doc: doc, vars: make(map[string]any)}
	for _, def := range op.VariableDefinitions {
		if v, ok := variables[def.Variable]; ok {
			r.vars[def.Variable] = normalize(v)
			continue
		}
		if def.DefaultValue != nil {
			dv, err := def.DefaultValue.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("parse request: default for $%s: %w", def.Variable, err)
			}
			r.vars[def.Variable] = normalize(dv)
		}
	}

	sel, err := r.selection(op.SelectionSet, 0)
	if err != nil {
		return nil, err
	}
	return &Document{OperationName: op.Name, Fields: sel.Fields}, nil
}

func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if name != "" {
		op := doc.Operations.ForName(name)
		if op == nil {
			return nil, fmt.Errorf("parse request: operation %q not found", name)
		}
		return op, nil
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("parse request: expected exactly one operation, found %d", len(doc.Operations))
	}
	return doc.Operations[0], nil
}

// maxFragmentDepth bounds fragment expansion so cyclic fragments fail
// instead of recursing forever.
const maxFragmentDepth = 32

type resolver struct {
	doc  *ast.QueryDocument
	vars map[string]any
}

func (r *resolver) selection(set ast.SelectionSet, depth int) (Selection, error) {
	out := Selection{ByType: make(map[string][]*Field)}
	if depth > maxFragmentDepth {
		return out, fmt.Errorf("parse request: fragment nesting exceeds %d", maxFragmentDepth)
	}
	for _, s := range set {
		switch sel := s.(type) {
		case *ast.Field:
			f, err := r.field(sel)
			if err != nil {
				return out, err
			}
			out.Fields = append(out.Fields, f)
		case *ast.InlineFragment:
			if err := r.fragment(&out, sel.TypeCondition, sel.SelectionSet, depth); err != nil {
				return out, err
			}
		case *ast.FragmentSpread:
			def := r.doc.Fragments.ForName(sel.Name)
			if def == nil {
				return out, fmt.Errorf("parse request: fragment %q not found", sel.Name)
			}
			if err := r.fragment(&out, def.TypeCondition, def.SelectionSet, depth); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func (r *resolver) fragment(out *Selection, typeCondition string, set ast.SelectionSet, depth int) error {
	inner, err := r.selection(set, depth+1)
	if err != nil {
		return err
	}
	if typeCondition == "" {
		out.Fields = append(out.Fields, inner.Fields...)
	} else {
		out.ByType[typeCondition] = append(out.ByType[typeCondition], inner.Fields...)
	}
	for tn, fields := range inner.ByType {
		out.ByType[tn] = append(out.ByType[tn], fields...)
	}
	return nil
}

func (r *resolver) field(f *ast.Field) (*Field, error) {
	out := &Field{Name: f.Name, Args: make(map[string]any)}
	if f.Alias != f.Name {
		out.Alias = f.Alias
	}
	for _, arg := range f.Arguments {
		v, err := arg.Value.Value(r.vars)
		if err != nil {
			return nil, fmt.Errorf("parse request: argument %s.%s: %w", f.Name, arg.Name, err)
		}
		out.Args[arg.Name] = normalize(v)
	}
	sel, err := r.selection(f.SelectionSet, 0)
	if err != nil {
		return nil, err
	}
	out.Selection = sel
	return out, nil
}

// normalize converts decoded values to the canonical Go shapes used by the
// factories.
func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case json.Number:
		if i, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}

// Normalize exposes value normalisation for values decoded elsewhere
// (JSON variables, configuration).
func Normalize(v any) any {
	return normalize(v)
}
