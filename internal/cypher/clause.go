package cypher

import "strings"

// Clause is a Cypher clause or a composition of clauses.
//
// This is a sealed interface - only types in this package implement it.
type Clause interface {
	clause(e *env) string
}

// Projection is one item of a WITH or RETURN.
type Projection struct {
	expr  Expr
	alias *Variable
}

// As projects expr under alias.
func As(expr Expr, alias *Variable) Projection {
	return Projection{expr: expr, alias: alias}
}

// Var projects a variable under its own name.
func Var(v *Variable) Projection {
	return Projection{expr: v}
}

func (p Projection) cypher(e *env) string {
	s := p.expr.cypher(e)
	if p.alias == nil {
		return s
	}
	if v, ok := p.expr.(*Variable); ok && v == p.alias {
		return s
	}
	return s + " AS " + p.alias.cypher(e)
}

// Order is an ORDER BY item.
type Order struct {
	Expr Expr
	Desc bool
}

// projectionClause holds what WITH and RETURN share.
type projectionClause struct {
	keyword string
	star    bool
	items   []Projection
	orderBy []Order
	skip    Expr
	limit   Expr
	where   Expr
}

func (p *projectionClause) render(e *env) string {
	var parts []string
	if p.star {
		parts = append(parts, "*")
	}
	for _, item := range p.items {
		parts = append(parts, item.cypher(e))
	}
	s := p.keyword + " " + strings.Join(parts, ", ")
	if len(p.orderBy) > 0 {
		orders := make([]string, len(p.orderBy))
		for i, o := range p.orderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			orders[i] = o.Expr.cypher(e) + " " + dir
		}
		s += "\nORDER BY " + strings.Join(orders, ", ")
	}
	if p.skip != nil {
		s += "\nSKIP " + p.skip.cypher(e)
	}
	if p.limit != nil {
		s += "\nLIMIT " + p.limit.cypher(e)
	}
	if p.where != nil {
		s += "\nWHERE " + p.where.cypher(e)
	}
	return s
}

// With is a WITH clause.
type With struct {
	projectionClause
}

// NewWith creates WITH items.
func NewWith(items ...Projection) *With {
	return &With{projectionClause{keyword: "WITH", items: items}}
}

// WithStar creates WITH *.
func WithStar() *With {
	return &With{projectionClause{keyword: "WITH", star: true}}
}

// Where sets the WHERE of the WITH. A nil predicate is ignored.
func (w *With) Where(pred Expr) *With {
	w.where = And(w.where, pred)
	return w
}

// OrderBy appends ordering items.
func (w *With) OrderBy(orders ...Order) *With {
	w.orderBy = append(w.orderBy, orders...)
	return w
}

// Skip sets SKIP.
func (w *With) Skip(x Expr) *With {
	w.skip = x
	return w
}

// Limit sets LIMIT.
func (w *With) Limit(x Expr) *With {
	w.limit = x
	return w
}

func (w *With) clause(e *env) string {
	return w.render(e)
}

// Return is a RETURN clause.
type Return struct {
	projectionClause
}

// NewReturn creates RETURN items.
func NewReturn(items ...Projection) *Return {
	return &Return{projectionClause{keyword: "RETURN", items: items}}
}

func (r *Return) clause(e *env) string {
	return r.render(e)
}

// Match is a MATCH clause with an optional WHERE.
type Match struct {
	pattern *Pattern
	where   Expr
}

// NewMatch creates MATCH pattern.
func NewMatch(pattern *Pattern) *Match {
	return &Match{pattern: pattern}
}

// Where conjoins pred into the WHERE. A nil predicate is ignored.
func (m *Match) Where(pred Expr) *Match {
	m.where = And(m.where, pred)
	return m
}

func (m *Match) clause(e *env) string {
	s := "MATCH " + m.pattern.cypher(e)
	if m.where != nil {
		s += "\nWHERE " + m.where.cypher(e)
	}
	return s
}

// Call is a CALL { ... } subquery importing the given variables.
type Call struct {
	imports []*Variable
	body    Clause
}

// NewCall wraps body in a subquery importing imports.
func NewCall(body Clause, imports ...*Variable) *Call {
	return &Call{imports: imports, body: body}
}

func (c *Call) clause(e *env) string {
	var inner []string
	if len(c.imports) > 0 {
		names := make([]string, len(c.imports))
		for i, v := range c.imports {
			names[i] = v.cypher(e)
		}
		inner = append(inner, "WITH "+strings.Join(names, ", "))
	}
	inner = append(inner, c.body.clause(e))
	return "CALL {\n" + indent(strings.Join(inner, "\n")) + "\n}"
}

// Unwind is UNWIND expr AS alias.
type Unwind struct {
	expr  Expr
	alias *Variable
}

// NewUnwind creates UNWIND expr AS alias.
func NewUnwind(expr Expr, alias *Variable) *Unwind {
	return &Unwind{expr: expr, alias: alias}
}

func (u *Unwind) clause(e *env) string {
	return "UNWIND " + u.expr.cypher(e) + " AS " + u.alias.cypher(e)
}

type union struct {
	branches []Clause
}

func (u *union) clause(e *env) string {
	parts := make([]string, len(u.branches))
	for i, b := range u.branches {
		parts[i] = b.clause(e)
	}
	return strings.Join(parts, "\nUNION\n")
}

// Union joins branches with UNION.
func Union(branches ...Clause) Clause {
	if len(branches) == 1 {
		return branches[0]
	}
	return &union{branches: branches}
}

type sequence struct {
	clauses []Clause
}

func (s *sequence) clause(e *env) string {
	parts := make([]string, 0, len(s.clauses))
	for _, c := range s.clauses {
		parts = append(parts, c.clause(e))
	}
	return strings.Join(parts, "\n")
}

// Concat composes clauses in order, dropping nils and flattening nested
// sequences. Order is preserved exactly.
func Concat(clauses ...Clause) Clause {
	var flat []Clause
	for _, c := range clauses {
		switch v := c.(type) {
		case nil:
			continue
		case *sequence:
			flat = append(flat, v.clauses...)
		default:
			flat = append(flat, c)
		}
	}
	return &sequence{clauses: flat}
}

// RawClause embeds literal Cypher text as a clause.
type RawClause string

func (r RawClause) clause(*env) string {
	return string(r)
}
