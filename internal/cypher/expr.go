package cypher

import "strings"

// Expr is any Cypher expression.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	cypher(e *env) string
}

// PropertyRef is a property access such as this.title or $param0.distance.
type PropertyRef struct {
	target Expr
	name   string
}

// Property returns a property access on an arbitrary expression.
func Property(target Expr, name string) *PropertyRef {
	return &PropertyRef{target: target, name: name}
}

func (p *PropertyRef) cypher(e *env) string {
	return p.target.cypher(e) + "." + escapeName(p.name)
}

// Literal is an inline value. Strings are quoted, lists rendered inline.
type Literal struct {
	value any
}

// Lit creates a literal.
func Lit(v any) *Literal {
	return &Literal{value: v}
}

// Null is the NULL literal.
var Null = &Literal{}

func (l *Literal) cypher(*env) string {
	return renderLiteral(l.value)
}

type comparison struct {
	left  Expr
	op    string
	right Expr
}

func (c *comparison) cypher(e *env) string {
	return c.left.cypher(e) + " " + c.op + " " + c.right.cypher(e)
}

// Eq renders left = right.
func Eq(left, right Expr) Expr { return &comparison{left, "=", right} }

// Lt renders left < right.
func Lt(left, right Expr) Expr { return &comparison{left, "<", right} }

// Lte renders left <= right.
func Lte(left, right Expr) Expr { return &comparison{left, "<=", right} }

// Gt renders left > right.
func Gt(left, right Expr) Expr { return &comparison{left, ">", right} }

// Gte renders left >= right.
func Gte(left, right Expr) Expr { return &comparison{left, ">=", right} }

// Contains renders left CONTAINS right.
func Contains(left, right Expr) Expr { return &comparison{left, "CONTAINS", right} }

// StartsWith renders left STARTS WITH right.
func StartsWith(left, right Expr) Expr { return &comparison{left, "STARTS WITH", right} }

// EndsWith renders left ENDS WITH right.
func EndsWith(left, right Expr) Expr { return &comparison{left, "ENDS WITH", right} }

// Matches renders left =~ right.
func Matches(left, right Expr) Expr { return &comparison{left, "=~", right} }

// In renders left IN right.
func In(left, right Expr) Expr { return &comparison{left, "IN", right} }

type nullCheck struct {
	expr Expr
	not  bool
}

func (n *nullCheck) cypher(e *env) string {
	if n.not {
		return n.expr.cypher(e) + " IS NOT NULL"
	}
	return n.expr.cypher(e) + " IS NULL"
}

// IsNull renders expr IS NULL.
func IsNull(expr Expr) Expr { return &nullCheck{expr: expr} }

// IsNotNull renders expr IS NOT NULL.
func IsNotNull(expr Expr) Expr { return &nullCheck{expr: expr, not: true} }

type boolOp struct {
	op    string
	exprs []Expr
}

func (b *boolOp) cypher(e *env) string {
	parts := make([]string, len(b.exprs))
	for i, x := range b.exprs {
		parts[i] = x.cypher(e)
	}
	return "(" + strings.Join(parts, " "+b.op+" ") + ")"
}

// And conjoins the non-nil expressions. It returns nil when none remain and
// the single expression itself when only one does.
func And(exprs ...Expr) Expr { return combine("AND", exprs) }

// Or disjoins the non-nil expressions with the same nil rules as And.
func Or(exprs ...Expr) Expr { return combine("OR", exprs) }

func combine(op string, exprs []Expr) Expr {
	var kept []Expr
	for _, x := range exprs {
		if x != nil {
			kept = append(kept, x)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &boolOp{op: op, exprs: kept}
	}
}

type notExpr struct {
	expr Expr
}

func (n *notExpr) cypher(e *env) string {
	return "NOT (" + n.expr.cypher(e) + ")"
}

// Not negates expr. Not(nil) is nil.
func Not(expr Expr) Expr {
	if expr == nil {
		return nil
	}
	return &notExpr{expr: expr}
}

// FuncCall is a function invocation.
type FuncCall struct {
	name string
	args []Expr
}

// Fn creates a call to the named function.
func Fn(name string, args ...Expr) *FuncCall {
	return &FuncCall{name: name, args: args}
}

func (f *FuncCall) cypher(e *env) string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.cypher(e)
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func Count(x Expr) *FuncCall    { return Fn("count", x) }
func Collect(x Expr) *FuncCall  { return Fn("collect", x) }
func Size(x Expr) *FuncCall     { return Fn("size", x) }
func Head(x Expr) *FuncCall     { return Fn("head", x) }
func Last(x Expr) *FuncCall     { return Fn("last", x) }
func Min(x Expr) *FuncCall      { return Fn("min", x) }
func Max(x Expr) *FuncCall      { return Fn("max", x) }
func Avg(x Expr) *FuncCall      { return Fn("avg", x) }
func Sum(x Expr) *FuncCall      { return Fn("sum", x) }
func ToString(x Expr) *FuncCall { return Fn("toString", x) }
func Point(x Expr) *FuncCall    { return Fn("point", x) }

// PointDistance renders point.distance(a, b).
func PointDistance(a, b Expr) *FuncCall { return Fn("point.distance", a, b) }

// MapExpr is a map literal with ordered keys.
type MapExpr struct {
	keys   []string
	values []Expr
}

// NewMap creates an empty map literal.
func NewMap() *MapExpr {
	return &MapExpr{}
}

// Set appends key: value. Keys keep insertion order.
func (m *MapExpr) Set(key string, value Expr) *MapExpr {
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return m
}

// Len returns the number of entries.
func (m *MapExpr) Len() int {
	return len(m.keys)
}

func (m *MapExpr) cypher(e *env) string {
	if len(m.keys) == 0 {
		return "{}"
	}
	parts := make([]string, len(m.keys))
	for i, k := range m.keys {
		parts[i] = escapeName(k) + ": " + m.values[i].cypher(e)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

type projectionEntry struct {
	key   string
	value Expr // nil for .key shorthand
}

// MapProjection renders v { .prop, key: expr }.
type MapProjection struct {
	v       *Variable
	entries []projectionEntry
}

// NewMapProjection creates an empty projection on v.
func NewMapProjection(v *Variable) *MapProjection {
	return &MapProjection{v: v}
}

// AddShorthand appends .prop.
func (m *MapProjection) AddShorthand(prop string) *MapProjection {
	m.entries = append(m.entries, projectionEntry{key: prop})
	return m
}

// Add appends key: value.
func (m *MapProjection) Add(key string, value Expr) *MapProjection {
	m.entries = append(m.entries, projectionEntry{key: key, value: value})
	return m
}

func (m *MapProjection) cypher(e *env) string {
	if len(m.entries) == 0 {
		return m.v.cypher(e) + " {}"
	}
	parts := make([]string, len(m.entries))
	for i, entry := range m.entries {
		if entry.value == nil {
			parts[i] = "." + escapeName(entry.key)
			continue
		}
		parts[i] = escapeName(entry.key) + ": " + entry.value.cypher(e)
	}
	return m.v.cypher(e) + " { " + strings.Join(parts, ", ") + " }"
}

type caseExpr struct {
	when Expr
	then Expr
	els  Expr
}

func (c *caseExpr) cypher(e *env) string {
	return "CASE WHEN " + c.when.cypher(e) + " THEN " + c.then.cypher(e) + " ELSE " + c.els.cypher(e) + " END"
}

// Case renders CASE WHEN when THEN then ELSE els END.
func Case(when, then, els Expr) Expr {
	return &caseExpr{when: when, then: then, els: els}
}

type listComprehension struct {
	v       *Variable
	list    Expr
	where   Expr
	mapExpr Expr
}

func (l *listComprehension) cypher(e *env) string {
	s := "[" + l.v.cypher(e) + " IN " + l.list.cypher(e)
	if l.where != nil {
		s += " WHERE " + l.where.cypher(e)
	}
	if l.mapExpr != nil {
		s += " | " + l.mapExpr.cypher(e)
	}
	return s + "]"
}

// ListComprehension renders [v IN list WHERE where | mapExpr]; where and
// mapExpr are optional.
func ListComprehension(v *Variable, list, where, mapExpr Expr) Expr {
	return &listComprehension{v: v, list: list, where: where, mapExpr: mapExpr}
}

type patternComprehension struct {
	pattern *Pattern
	where   Expr
	mapExpr Expr
}

func (p *patternComprehension) cypher(e *env) string {
	s := "[" + p.pattern.cypher(e)
	if p.where != nil {
		s += " WHERE " + p.where.cypher(e)
	}
	return s + " | " + p.mapExpr.cypher(e) + "]"
}

// PatternComprehension renders [pattern WHERE where | mapExpr].
func PatternComprehension(pattern *Pattern, where, mapExpr Expr) Expr {
	return &patternComprehension{pattern: pattern, where: where, mapExpr: mapExpr}
}

type singleExpr struct {
	v     *Variable
	list  Expr
	where Expr
}

func (s *singleExpr) cypher(e *env) string {
	return "single(" + s.v.cypher(e) + " IN " + s.list.cypher(e) + " WHERE " + s.where.cypher(e) + ")"
}

// Single renders single(v IN list WHERE where).
func Single(v *Variable, list, where Expr) Expr {
	return &singleExpr{v: v, list: list, where: where}
}

type existsExpr struct {
	pattern *Pattern
	where   Expr
}

func (x *existsExpr) cypher(e *env) string {
	body := "MATCH " + x.pattern.cypher(e)
	if x.where != nil {
		body += "\nWHERE " + x.where.cypher(e)
	}
	return "EXISTS {\n" + indent(body) + "\n}"
}

// Exists renders an existential subquery over pattern filtered by where.
func Exists(pattern *Pattern, where Expr) Expr {
	return &existsExpr{pattern: pattern, where: where}
}

type listExpr struct {
	items []Expr
}

func (l *listExpr) cypher(e *env) string {
	parts := make([]string, len(l.items))
	for i, x := range l.items {
		parts[i] = x.cypher(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// List renders [a, b, ...].
func List(items ...Expr) Expr {
	return &listExpr{items: items}
}

// Raw embeds literal Cypher text as an expression.
type Raw string

func (r Raw) cypher(*env) string {
	return string(r)
}

type existsSubquery struct {
	body Clause
}

func (x *existsSubquery) cypher(e *env) string {
	return "EXISTS {\n" + indent(x.body.clause(e)) + "\n}"
}

// ExistsSubquery renders EXISTS { body } for a full subquery body.
func ExistsSubquery(body Clause) Expr {
	return &existsSubquery{body: body}
}

type labelCheck struct {
	v      *Variable
	labels []string
}

func (l *labelCheck) cypher(e *env) string {
	escaped := make([]string, len(l.labels))
	for i, label := range l.labels {
		escaped[i] = escapeName(label)
	}
	return l.v.cypher(e) + ":" + strings.Join(escaped, ":")
}

// HasLabels renders v:A:B.
func HasLabels(v *Variable, labels ...string) Expr {
	return &labelCheck{v: v, labels: labels}
}
