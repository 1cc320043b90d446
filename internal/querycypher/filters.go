package querycypher

import (
	"github.com/roach88/cypherql/internal/cypher"
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/schema"
)

// compileFilters returns the conjunction of the filters' predicates and
// the subqueries those predicates read. Filters that constrain nothing are
// skipped; if none constrains anything the predicate is nil.
func compileFilters(filters []queryast.Filter, s scope) (cypher.Expr, []cypher.Clause, error) {
	var (
		preds      []cypher.Expr
		subqueries []cypher.Clause
	)
	for _, f := range filters {
		pred, subs, err := compileFilter(f, s)
		if err != nil {
			return nil, nil, err
		}
		preds = append(preds, pred)
		subqueries = append(subqueries, subs...)
	}
	return cypher.And(preds...), subqueries, nil
}

func compileFilter(f queryast.Filter, s scope) (cypher.Expr, []cypher.Clause, error) {
	switch f := f.(type) {
	case *queryast.PropertyFilter:
		pred, err := propertyPredicate(f, s)
		return pred, nil, err
	case *queryast.LogicalFilter:
		return logicalPredicate(f, s, compileFilter)
	case *queryast.RelationshipFilter:
		return quantifiedPredicate(f.Relationship, f.Operator, f.IsNot, f.Filters, s, false)
	case *queryast.ConnectionFilter:
		return quantifiedPredicate(f.Relationship, f.Operator, f.IsNot, f.Filters, s, true)
	case *queryast.LabelFilter:
		return cypher.HasLabels(s.node, f.Entity.Labels...), nil, nil
	case *queryast.AggregationFilter:
		return aggregationFilterPredicate(f, s)
	default:
		return nil, nil, invariant("unexpected filter %T outside aggregation", f)
	}
}

type filterCompiler func(queryast.Filter, scope) (cypher.Expr, []cypher.Clause, error)

// logicalPredicate combines child predicates. Children yielding nothing
// are dropped, so a logical filter over no constraints yields nil for
// every operator.
func logicalPredicate(f *queryast.LogicalFilter, s scope, compile filterCompiler) (cypher.Expr, []cypher.Clause, error) {
	var (
		preds      []cypher.Expr
		subqueries []cypher.Clause
	)
	for _, child := range f.Children {
		pred, subs, err := compile(child, s)
		if err != nil {
			return nil, nil, err
		}
		preds = append(preds, pred)
		subqueries = append(subqueries, subs...)
	}

	switch f.Operator {
	case queryast.LogicalAnd:
		return cypher.And(preds...), subqueries, nil
	case queryast.LogicalOr:
		return cypher.Or(preds...), subqueries, nil
	case queryast.LogicalNot:
		return cypher.Not(cypher.And(preds...)), subqueries, nil
	default:
		return nil, nil, invariant("invalid logical operator %s", f.Operator)
	}
}

// propertyPredicate compares one attribute against a parameter. Negation
// applies to the finished comparison.
func propertyPredicate(f *queryast.PropertyFilter, s scope) (cypher.Expr, error) {
	target := s.node
	if f.Attachment == queryast.OnRelationship {
		target = s.rel
	}
	if target == nil {
		return nil, invariant("relationship property %s filtered without a bound relationship", f.Attribute.Name)
	}
	prop := target.Property(f.Attribute.DatabaseName)

	if f.Value == nil {
		if f.IsNot {
			return cypher.IsNotNull(prop), nil
		}
		return cypher.IsNull(prop), nil
	}

	param := cypher.NewParam(f.Value)
	var (
		pred cypher.Expr
		err  error
	)
	if f.Attribute.Type.IsPoint() {
		pred, err = pointPredicate(prop, param, f.Operator, f.Attribute.Type)
	} else {
		pred, err = scalarPredicate(prop, param, f.Operator, f.Attribute.Type)
	}
	if err != nil {
		return nil, err
	}
	if f.IsNot {
		return cypher.Not(pred), nil
	}
	return pred, nil
}

// pointPredicate compares spatial values. Ordering operators and DISTANCE
// compare point.distance against $param.distance.
func pointPredicate(prop *cypher.PropertyRef, param *cypher.Param, op queryast.Operator, t schema.AttributeType) (cypher.Expr, error) {
	switch op {
	case queryast.OpLt, queryast.OpLte, queryast.OpGt, queryast.OpGte, queryast.OpDistance:
		distance := cypher.PointDistance(prop, cypher.Point(param.Property("point")))
		return comparator(op)(distance, param.Property("distance")), nil
	case "", queryast.OpEq:
		if t.IsList {
			return cypher.Eq(prop, mapList(param, "point")), nil
		}
		return cypher.Eq(prop, cypher.Point(param)), nil
	case queryast.OpIn:
		return cypher.In(prop, mapList(param, "point")), nil
	case queryast.OpIncludes:
		return cypher.In(cypher.Point(param), prop), nil
	}
	return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "Invalid operator %s", op)
}

// scalarPredicate compares non-spatial values. Temporal parameters are
// wrapped in their constructor.
func scalarPredicate(prop *cypher.PropertyRef, param *cypher.Param, op queryast.Operator, t schema.AttributeType) (cypher.Expr, error) {
	ctor := t.TemporalConstructor()
	value := cypher.Expr(param)
	list := cypher.Expr(param)
	if ctor != "" {
		value = cypher.Fn(ctor, param)
		list = mapList(param, ctor)
	}

	switch op {
	case "", queryast.OpEq:
		if t.IsList {
			return cypher.Eq(prop, list), nil
		}
		return cypher.Eq(prop, value), nil
	case queryast.OpLt, queryast.OpLte, queryast.OpGt, queryast.OpGte:
		return comparator(op)(prop, value), nil
	case queryast.OpContains:
		return cypher.Contains(prop, param), nil
	case queryast.OpStartsWith:
		return cypher.StartsWith(prop, param), nil
	case queryast.OpEndsWith:
		return cypher.EndsWith(prop, param), nil
	case queryast.OpMatches:
		return cypher.Matches(prop, param), nil
	case queryast.OpIn:
		return cypher.In(prop, list), nil
	case queryast.OpIncludes:
		return cypher.In(value, prop), nil
	case queryast.OpDistance:
		return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "Invalid operator %s for non-spatial attribute", op)
	}
	return nil, invariant("Invalid operator %s", op)
}

// mapList renders [v IN list | fn(v)].
func mapList(list cypher.Expr, fn string) cypher.Expr {
	v := cypher.NewVariable()
	return cypher.ListComprehension(v, list, nil, cypher.Fn(fn, v))
}

func comparator(op queryast.Operator) func(l, r cypher.Expr) cypher.Expr {
	switch op {
	case queryast.OpLt:
		return cypher.Lt
	case queryast.OpLte:
		return cypher.Lte
	case queryast.OpGt:
		return cypher.Gt
	case queryast.OpGte:
		return cypher.Gte
	default:
		return cypher.Eq
	}
}

// quantifiedPredicate compiles relationship and connection filters over
// (s.node)-[:TYPE]->(related):
//
//	SOME    EXISTS { MATCH pattern WHERE P }
//	ALL     EXISTS { MATCH pattern WHERE P } AND NOT (EXISTS { MATCH pattern WHERE NOT (P) })
//	SINGLE  single(v IN [pattern WHERE P | 1] WHERE true)
//
// With no inner predicate it yields nil. A target without concrete members
// relates to nothing, so every quantifier is false before negation.
func quantifiedPredicate(rel *schema.Relationship, op queryast.Operator, isNot bool, filters []queryast.Filter, s scope, bindRel bool) (cypher.Expr, []cypher.Clause, error) {
	related := cypher.NewNode()
	var relVar *cypher.Variable
	if bindRel {
		relVar = cypher.NewRelationship()
	}
	inner, subqueries, err := compileFilters(filters, scope{node: related, rel: relVar})
	if err != nil {
		return nil, nil, err
	}
	if inner == nil {
		return nil, nil, nil
	}
	if len(rel.Target.ConcreteEntities()) == 0 {
		return cypher.Lit(isNot), nil, nil
	}
	pattern := func() *cypher.Pattern {
		return relatedPattern(s.node, rel, relVar, related, rel.Target)
	}

	var pred cypher.Expr
	switch op {
	case "", queryast.OpSome:
		pred = exists(pattern(), inner, subqueries)
	case queryast.OpAll:
		pred = cypher.And(
			exists(pattern(), inner, subqueries),
			cypher.Not(exists(pattern(), cypher.Not(inner), subqueries)))
	case queryast.OpSingle:
		if len(subqueries) > 0 {
			return nil, nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "aggregation filters are not supported inside %s_SINGLE", rel.Name)
		}
		v := cypher.NewVariable()
		pred = cypher.Single(v, cypher.PatternComprehension(pattern(), inner, cypher.Lit(1)), cypher.Lit(true))
	default:
		return nil, nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "invalid operator %s for relationship %s", op, rel.Name)
	}

	if isNot {
		pred = cypher.Not(pred)
	}
	return pred, nil, nil
}

// exists uses the short EXISTS form unless the predicate reads subquery
// results, in which case the subqueries run inside the EXISTS body.
func exists(pattern *cypher.Pattern, pred cypher.Expr, subqueries []cypher.Clause) cypher.Expr {
	if len(subqueries) == 0 {
		return cypher.Exists(pattern, pred)
	}
	body := append([]cypher.Clause{cypher.NewMatch(pattern)}, subqueries...)
	body = append(body, cypher.WithStar().Where(pred))
	return cypher.ExistsSubquery(cypher.Concat(body...))
}

// aggregationFilterPredicate runs the aggregate comparison in a subquery
// over the related set and tests its boolean result. A target without
// concrete members is aggregated over UNWIND [], which yields the values
// of an empty set.
func aggregationFilterPredicate(f *queryast.AggregationFilter, s scope) (cypher.Expr, []cypher.Clause, error) {
	related := cypher.NewNode()
	relVar := cypher.NewRelationship()
	inner := scope{node: related, rel: relVar}

	var preds []cypher.Expr
	for _, child := range f.Filters {
		pred, _, err := aggregatePredicate(child, inner)
		if err != nil {
			return nil, nil, err
		}
		preds = append(preds, pred)
	}
	pred := cypher.And(preds...)
	if pred == nil {
		return nil, nil, nil
	}

	result := cypher.NewVariable()
	var body []cypher.Clause
	if len(f.Relationship.Target.ConcreteEntities()) == 0 {
		body = []cypher.Clause{
			cypher.NewUnwind(cypher.List(), relVar),
			cypher.NewUnwind(cypher.List(), related),
		}
	} else {
		body = []cypher.Clause{cypher.NewMatch(relatedPattern(s.node, f.Relationship, relVar, related, f.Relationship.Target))}
	}
	body = append(body, cypher.NewReturn(cypher.As(pred, result)))
	subquery := cypher.NewCall(cypher.Concat(body...), s.node)
	return cypher.Eq(result, cypher.Lit(true)), []cypher.Clause{subquery}, nil
}

// aggregatePredicate compiles the filters allowed inside an aggregation
// filter. It has the filterCompiler shape so logical filters recurse.
func aggregatePredicate(f queryast.Filter, s scope) (cypher.Expr, []cypher.Clause, error) {
	switch f := f.(type) {
	case *queryast.CountFilter:
		return comparator(f.Operator)(cypher.Count(s.node), cypher.NewParam(f.Value)), nil, nil
	case *queryast.AggregationPropertyFilter:
		target := s.node
		if f.Attachment == queryast.OnRelationship {
			target = s.rel
		}
		prop := target.Property(f.Attribute.DatabaseName)
		param := cypher.Expr(cypher.NewParam(f.Value))
		if ctor := f.Attribute.Type.TemporalConstructor(); ctor != "" {
			param = cypher.Fn(ctor, param)
		}

		var agg cypher.Expr
		switch f.Aggregation {
		case queryast.AggAverage:
			agg = cypher.Avg(prop)
		case queryast.AggSum:
			agg = cypher.Sum(prop)
		case queryast.AggMin:
			agg = cypher.Min(prop)
		case queryast.AggMax:
			agg = cypher.Max(prop)
		case queryast.AggShortestLength:
			agg = cypher.Min(cypher.Size(prop))
		case queryast.AggLongestLength:
			agg = cypher.Max(cypher.Size(prop))
		case queryast.AggAverageLength:
			agg = cypher.Avg(cypher.Size(prop))
		default:
			return nil, nil, invariant("invalid aggregation %s", f.Aggregation)
		}
		return comparator(f.Operator)(agg, param), nil, nil
	case *queryast.LogicalFilter:
		return logicalPredicate(f, s, aggregatePredicate)
	default:
		return nil, nil, invariant("unexpected filter %T inside aggregation", f)
	}
}
