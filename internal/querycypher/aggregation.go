package querycypher

import (
	"github.com/roach88/cypherql/internal/cypher"
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/schema"
)

func compileRootAggregation(op *queryast.AggregationOperation) (cypher.Clause, error) {
	value, subqueries, err := compileAggregation(op.Aggregation, nil, nil)
	if err != nil {
		return nil, err
	}
	clauses := append(subqueries, cypher.NewReturn(cypher.As(value, cypher.NamedVariable("this"))))
	return cypher.Concat(clauses...), nil
}

// compileAggregation compiles every selected part of agg into its own
// subquery and returns the map combining their results:
//
//	{ count: c, node: { attr: a, ... }, edge: { prop: p, ... } }
//
// At the root (rel nil) node attributes sit directly in the map. Each
// subquery matches the aggregated set afresh with its own variables and
// applies agg.Filters, authorization included.
//
// A composite with no concrete members has nothing to match, so its
// aggregates are the values of an empty set and no subquery is emitted.
func compileAggregation(agg *queryast.Aggregation, rel *schema.Relationship, parent *cypher.Variable) (*cypher.MapExpr, []cypher.Clause, error) {
	if len(agg.Entity.ConcreteEntities()) == 0 {
		return emptyAggregation(agg, rel), nil, nil
	}

	result := cypher.NewMap()
	var subqueries []cypher.Clause

	if agg.CountAlias != "" {
		match, s, err := aggregationMatch(agg, rel, parent)
		if err != nil {
			return nil, nil, err
		}
		body := append(match, cypher.NewReturn(cypher.As(cypher.Count(s.node), agg.CountVar)))
		subqueries = append(subqueries, subquery(body, parent))
		result.Set(agg.CountAlias, agg.CountVar)
	}

	nodeMap := result
	if rel != nil && agg.NodeAlias != "" {
		nodeMap = cypher.NewMap()
	}
	for _, attr := range agg.NodeFields {
		sub, err := attributeAggregation(agg, rel, parent, attr, queryast.OnNode)
		if err != nil {
			return nil, nil, err
		}
		subqueries = append(subqueries, sub)
		nodeMap.Set(attr.Alias, attr.ResultVar)
	}
	if nodeMap != result {
		result.Set(agg.NodeAlias, nodeMap)
	}

	if rel != nil && agg.EdgeAlias != "" {
		edgeMap := cypher.NewMap()
		for _, attr := range agg.EdgeFields {
			sub, err := attributeAggregation(agg, rel, parent, attr, queryast.OnRelationship)
			if err != nil {
				return nil, nil, err
			}
			subqueries = append(subqueries, sub)
			edgeMap.Set(attr.Alias, attr.ResultVar)
		}
		result.Set(agg.EdgeAlias, edgeMap)
	}
	return result, subqueries, nil
}

// emptyAggregation is the result map of compileAggregation over no nodes:
// count is 0, sums are 0 and every other aggregate is null.
func emptyAggregation(agg *queryast.Aggregation, rel *schema.Relationship) *cypher.MapExpr {
	result := cypher.NewMap()
	if agg.CountAlias != "" {
		result.Set(agg.CountAlias, cypher.Lit(0))
	}

	nodeMap := result
	if rel != nil && agg.NodeAlias != "" {
		nodeMap = cypher.NewMap()
	}
	for _, attr := range agg.NodeFields {
		nodeMap.Set(attr.Alias, emptyAggregates(attr))
	}
	if nodeMap != result {
		result.Set(agg.NodeAlias, nodeMap)
	}

	if rel != nil && agg.EdgeAlias != "" {
		edgeMap := cypher.NewMap()
		for _, attr := range agg.EdgeFields {
			edgeMap.Set(attr.Alias, emptyAggregates(attr))
		}
		result.Set(agg.EdgeAlias, edgeMap)
	}
	return result
}

func emptyAggregates(attr *queryast.AggregateAttribute) *cypher.MapExpr {
	values := cypher.NewMap()
	for _, key := range attr.Keys {
		if key == "sum" {
			values.Set(key, cypher.Lit(0))
			continue
		}
		values.Set(key, cypher.Null)
	}
	return values
}

// aggregationMatch matches the aggregated set with fresh variables.
func aggregationMatch(agg *queryast.Aggregation, rel *schema.Relationship, parent *cypher.Variable) ([]cypher.Clause, scope, error) {
	node := cypher.NewNode()
	s := scope{node: node}
	pattern := cypher.NewPattern(targetNode(node, agg.Entity))
	if rel != nil {
		s.rel = cypher.NewRelationship()
		pattern = relatedPattern(parent, rel, s.rel, node, agg.Entity)
	}
	clauses, err := compileMatch(pattern, agg.Filters, scope{node: node, rel: s.rel})
	return clauses, s, err
}

// attributeAggregation aggregates one attribute. Strings yield the
// longest and shortest value, by sorting on length and taking the head and
// last of the collected list. Numbers yield min, max, average and sum.
// Other types yield min and max, with date-times normalised to offset
// format. Only the requested keys are projected.
func attributeAggregation(agg *queryast.Aggregation, rel *schema.Relationship, parent *cypher.Variable, attr *queryast.AggregateAttribute, attachment queryast.Attachment) (cypher.Clause, error) {
	match, s, err := aggregationMatch(agg, rel, parent)
	if err != nil {
		return nil, err
	}
	target := s.node
	if attachment == queryast.OnRelationship {
		target = s.rel
	}
	prop := target.Property(attr.Attribute.DatabaseName)
	t := attr.Attribute.Type
	values := cypher.NewMap()
	body := match

	if t.IsString() {
		list := cypher.NewVariable()
		body = append(body,
			cypher.NewWith(cypher.Var(target)).OrderBy(cypher.Order{Expr: cypher.Size(prop), Desc: true}),
			cypher.NewWith(cypher.As(cypher.Collect(prop), list)))
		for _, key := range attr.Keys {
			switch key {
			case "longest":
				values.Set(key, cypher.Head(list))
			case "shortest":
				values.Set(key, cypher.Last(list))
			default:
				return nil, invariant("invalid string aggregate %s", key)
			}
		}
	} else {
		for _, key := range attr.Keys {
			var value cypher.Expr
			switch key {
			case "min":
				value = cypher.Min(prop)
			case "max":
				value = cypher.Max(prop)
			case "average":
				value = cypher.Avg(prop)
			case "sum":
				value = cypher.Sum(prop)
			default:
				return nil, invariant("invalid aggregate %s", key)
			}
			if t.IsDateTime() {
				value = formatDateTime(value)
			}
			values.Set(key, value)
		}
	}

	body = append(body, cypher.NewReturn(cypher.As(values, attr.ResultVar)))
	return subquery(body, parent), nil
}

// subquery wraps body in CALL, importing parent when there is one.
func subquery(body []cypher.Clause, parent *cypher.Variable) cypher.Clause {
	if parent == nil {
		return cypher.NewCall(cypher.Concat(body...))
	}
	return cypher.NewCall(cypher.Concat(body...), parent)
}
