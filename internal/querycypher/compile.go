package querycypher

import (
	"github.com/roach88/cypherql/internal/cypher"
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/schema"
)

// Transpile compiles ast into a single composed clause.
func Transpile(ast *queryast.QueryAST) (cypher.Clause, error) {
	if ast == nil || ast.Operation == nil {
		return nil, invariant("cannot compile empty query AST")
	}

	switch op := ast.Operation.(type) {
	case *queryast.ReadOperation:
		return compileRootRead(op)
	case *queryast.ConnectionReadOperation:
		out := cypher.NamedVariable("this")
		clauses, err := compileConnection(op, nil, nil, out)
		if err != nil {
			return nil, err
		}
		return cypher.Concat(clauses...), nil
	case *queryast.AggregationOperation:
		return compileRootAggregation(op)
	default:
		return nil, invariant("unsupported operation %T", op)
	}
}

// Compile transpiles ast and renders it to Cypher text and parameters.
func Compile(ast *queryast.QueryAST) (cypher.Result, error) {
	clause, err := Transpile(ast)
	if err != nil {
		return cypher.Result{}, err
	}
	return cypher.Build(clause), nil
}

// scope holds the variables filters and fields are compiled against. rel
// is set only where the relationship itself is bound.
type scope struct {
	node *cypher.Variable
	rel  *cypher.Variable
}

func compileRootRead(op *queryast.ReadOperation) (cypher.Clause, error) {
	out := cypher.NamedVariable("this")
	if len(op.Branches) == 0 {
		return cypher.Concat(cypher.NewUnwind(cypher.List(), out), cypher.NewReturn(cypher.Var(out))), nil
	}

	if !op.IsComposite() {
		branch := op.Branches[0]
		clauses, err := compileMatch(cypher.NewPattern(cypher.Node(out, branch.Entity.Labels...)), branch.AllFilters(), scope{node: out})
		if err != nil {
			return nil, err
		}
		if with := orderAndPage(cypher.WithStar(), nodeOrders(op.Sort, out), op.Pagination); with != nil {
			clauses = append(clauses, with)
		}
		projection, subqueries, err := compileProjection(branch.Fields, scope{node: out})
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, subqueries...)
		clauses = append(clauses, cypher.NewReturn(cypher.As(projection, out)))
		return cypher.Concat(clauses...), nil
	}

	keys := newSortKeys(op.Sort)
	branches, err := compileBranches(op.Branches, nil, nil, out, keys)
	if err != nil {
		return nil, err
	}
	clauses := []cypher.Clause{cypher.NewCall(cypher.Union(branches...))}
	if with := orderAndPage(cypher.NewWith(keys.items(out)...), keys.orders(), op.Pagination); with != nil {
		clauses = append(clauses, with)
	}
	clauses = append(clauses, cypher.NewReturn(cypher.Var(out)))
	return cypher.Concat(clauses...), nil
}

// compileBranches compiles one UNION branch per composite member. Each
// branch projects its node into out and returns the stored value of every
// sort key beside it. Nested branches re-import parent and traverse rel.
func compileBranches(branches []*queryast.ReadBranch, parent *cypher.Variable, rel *schema.Relationship, out *cypher.Variable, keys sortKeys) ([]cypher.Clause, error) {
	var compiled []cypher.Clause
	for _, branch := range branches {
		node := cypher.NewNode()
		var clauses []cypher.Clause
		pattern := cypher.NewPattern(cypher.Node(node, branch.Entity.Labels...))
		if parent != nil {
			clauses = append(clauses, cypher.NewWith(cypher.Var(parent)))
			pattern = relatedPattern(parent, rel, nil, node, branch.Entity)
		}

		match, err := compileMatch(pattern, branch.AllFilters(), scope{node: node})
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, match...)

		projection, subqueries, err := compileProjection(branch.Fields, scope{node: node})
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, subqueries...)
		items := []cypher.Projection{cypher.As(projection, out)}
		for _, k := range keys {
			items = append(items, cypher.As(sortValue(k.field, scope{node: node}, branch.Entity), k.v))
		}
		clauses = append(clauses,
			cypher.NewWith(items...),
			cypher.NewReturn(keys.items(out)...))
		compiled = append(compiled, cypher.Concat(clauses...))
	}
	return compiled, nil
}

// compileMatch emits MATCH pattern with the filters' WHERE. When a filter
// needs subqueries, they run after the MATCH and the predicate moves to a
// following WITH * WHERE.
func compileMatch(pattern *cypher.Pattern, filters []queryast.Filter, s scope) ([]cypher.Clause, error) {
	pred, subqueries, err := compileFilters(filters, s)
	if err != nil {
		return nil, err
	}
	match := cypher.NewMatch(pattern)
	if len(subqueries) == 0 {
		return []cypher.Clause{match.Where(pred)}, nil
	}
	clauses := append([]cypher.Clause{match}, subqueries...)
	return append(clauses, cypher.WithStar().Where(pred)), nil
}

// orderAndPage applies orders, SKIP and LIMIT to with. It returns nil when
// there is nothing to apply.
func orderAndPage(with *cypher.With, orders []cypher.Order, p *queryast.Pagination) *cypher.With {
	if len(orders) == 0 && p.IsEmpty() {
		return nil
	}
	with.OrderBy(orders...)
	if p != nil && p.Skip != nil {
		with.Skip(cypher.NewParam(*p.Skip))
	}
	if p != nil && p.Limit != nil {
		with.Limit(cypher.NewParam(*p.Limit))
	}
	return with
}

// nodeOrders sorts on stored properties of node.
func nodeOrders(sort []queryast.SortField, node *cypher.Variable) []cypher.Order {
	orders := make([]cypher.Order, 0, len(sort))
	for _, s := range sort {
		orders = append(orders, cypher.Order{Expr: node.Property(s.Attribute.DatabaseName), Desc: s.Desc()})
	}
	return orders
}

// sortKeys bind the stored value of each sort field next to a projected
// row, so rows sort on what the database holds rather than on the
// projection. Projected date-times are strings and may not be projected
// at all.
type sortKeys []sortKey

type sortKey struct {
	field queryast.SortField
	v     *cypher.Variable
}

func newSortKeys(sort []queryast.SortField) sortKeys {
	keys := make(sortKeys, len(sort))
	for i, s := range sort {
		keys[i] = sortKey{field: s, v: cypher.NewVariable()}
	}
	return keys
}

// items is out followed by every key variable.
func (keys sortKeys) items(out *cypher.Variable) []cypher.Projection {
	items := []cypher.Projection{cypher.Var(out)}
	for _, k := range keys {
		items = append(items, cypher.Var(k.v))
	}
	return items
}

func (keys sortKeys) orders() []cypher.Order {
	orders := make([]cypher.Order, 0, len(keys))
	for _, k := range keys {
		orders = append(orders, cypher.Order{Expr: k.v, Desc: k.field.Desc()})
	}
	return orders
}

// sortValue reads the stored property a sort field names, preferring the
// member's own attribute when the field was declared on a composite.
func sortValue(field queryast.SortField, s scope, member *schema.ConcreteEntity) cypher.Expr {
	attr := field.Attribute
	if field.Attachment == queryast.OnRelationship {
		return s.rel.Property(attr.DatabaseName)
	}
	if own, ok := member.FindAttribute(attr.Name); ok {
		attr = own
	}
	return s.node.Property(attr.DatabaseName)
}

// relatedPattern builds (from)-[relVar:TYPE]->(to:Labels) with the
// direction taken from the schema. relVar may be nil.
func relatedPattern(from *cypher.Variable, rel *schema.Relationship, relVar, to *cypher.Variable, target schema.Entity) *cypher.Pattern {
	dir := cypher.Outgoing
	if rel.Direction == schema.DirectionIn {
		dir = cypher.Incoming
	}
	return cypher.NewPattern(cypher.Node(from)).Related(relVar, rel.Type, dir, targetNode(to, target))
}

// targetNode matches a concrete entity by all of its labels, and a
// composite by any member's primary label. Callers handle composites
// without members before building a pattern.
func targetNode(v *cypher.Variable, entity schema.Entity) *cypher.NodePattern {
	if concrete, ok := entity.(*schema.ConcreteEntity); ok {
		return cypher.Node(v, concrete.Labels...)
	}
	var labels []string
	for _, member := range entity.ConcreteEntities() {
		if len(member.Labels) > 0 {
			labels = append(labels, member.Labels[0])
		}
	}
	return cypher.NodeWithAnyLabel(v, labels...)
}

func invariant(format string, args ...any) error {
	return queryast.Errorf(queryast.ErrCodeInvariant, format, args...)
}
