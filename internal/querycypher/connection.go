package querycypher

import (
	"strconv"

	"github.com/roach88/cypherql/internal/cypher"
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/schema"
)

// compileConnection compiles a connection whose result map
// { edges, totalCount } is returned as out:
//
//	MATCH (parent)-[r:TYPE]->(node:Label)
//	WHERE ...
//	WITH { node: node { ... }, prop: r.prop } AS edge
//	WITH collect(edge) AS edges
//	WITH edges, size(edges) AS totalCount
//	CALL {
//	    WITH edges
//	    UNWIND edges AS edge
//	    WITH edge
//	    ORDER BY ... SKIP ... LIMIT ...
//	    RETURN collect(edge) AS page
//	}
//	RETURN { edges: page, totalCount: totalCount } AS out
//
// totalCount is the size of every matched edge, before pagination. The
// paging CALL is omitted when there is no sort or pagination. collect is
// not grouped by anything, so no match still yields one row holding
// { edges: [], totalCount: 0 }. A composite target matches each member in
// a UNION branch first.
//
// With a sort, each collected row is { edge: {...}, sort0: v0, ... }
// carrying the stored values to order by, and the page collects row.edge.
//
// parent and rel are nil for a root connection.
func compileConnection(conn *queryast.ConnectionReadOperation, rel *schema.Relationship, parent, out *cypher.Variable) ([]cypher.Clause, error) {
	if len(conn.Branches) == 0 {
		empty := cypher.NewMap().Set("edges", cypher.List()).Set("totalCount", cypher.Lit(0))
		return []cypher.Clause{cypher.NewReturn(cypher.As(empty, out))}, nil
	}

	edge := cypher.NewVariable()
	var clauses []cypher.Clause
	if len(conn.Branches) == 1 {
		branch, err := compileEdgeBranch(conn.Branches[0], conn.Sort, rel, parent, edge, false)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, branch...)
	} else {
		var branches []cypher.Clause
		for _, b := range conn.Branches {
			branch, err := compileEdgeBranch(b, conn.Sort, rel, parent, edge, true)
			if err != nil {
				return nil, err
			}
			branches = append(branches, cypher.Concat(branch...))
		}
		clauses = append(clauses, cypher.NewCall(cypher.Union(branches...)))
	}

	edges := cypher.NewVariable()
	totalCount := cypher.NewVariable()
	clauses = append(clauses,
		cypher.NewWith(cypher.As(cypher.Collect(edge), edges)),
		cypher.NewWith(cypher.Var(edges), cypher.As(cypher.Size(edges), totalCount)))

	page := edges
	if with := orderAndPage(cypher.NewWith(cypher.Var(edge)), edgeOrders(conn.Sort, edge), conn.Pagination); with != nil {
		page = cypher.NewVariable()
		collected := cypher.Expr(edge)
		if len(conn.Sort) > 0 {
			collected = edge.Property("edge")
		}
		clauses = append(clauses, cypher.NewCall(cypher.Concat(
			cypher.NewUnwind(edges, edge),
			with,
			cypher.NewReturn(cypher.As(cypher.Collect(collected), page)),
		), edges))
	}

	result := cypher.NewMap().Set("edges", page).Set("totalCount", totalCount)
	return append(clauses, cypher.NewReturn(cypher.As(result, out))), nil
}

// compileEdgeBranch matches one concrete target and projects each match as
// an edge map into edge, wrapped with its sort values when sort is set. In
// a UNION branch the parent is re-imported and edge is returned.
func compileEdgeBranch(branch *queryast.ConnectionBranch, sort []queryast.SortField, rel *schema.Relationship, parent, edge *cypher.Variable, inUnion bool) ([]cypher.Clause, error) {
	node := cypher.NewNode()
	var (
		relVar  *cypher.Variable
		pattern *cypher.Pattern
		clauses []cypher.Clause
	)
	if rel != nil {
		relVar = cypher.NewRelationship()
		pattern = relatedPattern(parent, rel, relVar, node, branch.Entity)
		if inUnion {
			clauses = append(clauses, cypher.NewWith(cypher.Var(parent)))
		}
	} else {
		pattern = cypher.NewPattern(cypher.Node(node, branch.Entity.Labels...))
	}
	s := scope{node: node, rel: relVar}

	match, err := compileMatch(pattern, branch.AllFilters(), s)
	if err != nil {
		return nil, err
	}
	clauses = append(clauses, match...)

	edgeMap := cypher.NewMap()
	if branch.NodeAlias != "" {
		projection, subqueries, err := compileProjection(branch.NodeFields, scope{node: node})
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, subqueries...)
		edgeMap.Set(branch.NodeAlias, projection)
	}
	entries, _, err := compileEntries(branch.EdgeFields, s)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		value := e.value
		if value == nil {
			value = relVar.Property(e.key)
		}
		edgeMap.Set(e.key, value)
	}

	row := cypher.Expr(edgeMap)
	if len(sort) > 0 {
		wrapped := cypher.NewMap().Set("edge", edgeMap)
		for i, field := range sort {
			wrapped.Set(sortColumn(i), sortValue(field, s, branch.Entity))
		}
		row = wrapped
	}
	clauses = append(clauses, cypher.NewWith(cypher.As(row, edge)))
	if inUnion {
		clauses = append(clauses, cypher.NewReturn(cypher.Var(edge)))
	}
	return clauses, nil
}

// edgeOrders sorts collected rows on the stored values beside each edge.
func edgeOrders(sort []queryast.SortField, row *cypher.Variable) []cypher.Order {
	orders := make([]cypher.Order, 0, len(sort))
	for i, field := range sort {
		orders = append(orders, cypher.Order{Expr: row.Property(sortColumn(i)), Desc: field.Desc()})
	}
	return orders
}

func sortColumn(i int) string {
	return "sort" + strconv.Itoa(i)
}
