package queryfactory

import (
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/schema"
)

// CreateFilters builds the filters of a where object against entity. The
// returned filters are implicitly conjoined.
//
// Keys AND, OR and NOT combine nested where objects. Every other key is
// decoded with queryast.ParseWhereField and resolves to an aggregation,
// connection or relationship filter when it names a relationship, and to a
// property filter otherwise.
func (f *Factory) CreateFilters(where map[string]any, entity schema.Entity) ([]queryast.Filter, error) {
	var filters []queryast.Filter
	for _, key := range sortedKeys(where) {
		value := where[key]
		if queryast.IsLogicalKey(key) {
			lf, err := f.createLogicalFilter(queryast.LogicalOperator(key), value, func(m map[string]any) ([]queryast.Filter, error) {
				return f.CreateFilters(m, entity)
			})
			if err != nil {
				return nil, err
			}
			if lf != nil {
				filters = append(filters, lf)
			}
			continue
		}

		filter, err := f.createFilter(key, value, entity)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

func (f *Factory) createFilter(key string, value any, entity schema.Entity) (queryast.Filter, error) {
	wf := queryast.ParseWhereField(key)

	if rel, ok := entity.FindRelationship(wf.FieldName); ok {
		if wf.Operator != "" && !queryast.IsRelationshipOperator(wf.Operator) {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "invalid operator %s for relationship %s", wf.Operator, rel.Name).
				WithEntity(entity.EntityName(), key)
		}
		switch {
		case wf.IsAggregate:
			if wf.Operator != "" || wf.IsNot {
				return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "aggregation filter %s takes no operator", rel.AggregateFieldName()).
					WithEntity(entity.EntityName(), key)
			}
			return f.createAggregationFilter(rel, value)
		case wf.IsConnection:
			return f.createConnectionFilter(rel, wf, value)
		default:
			return f.createRelationshipFilter(rel, wf, value)
		}
	}
	if wf.IsConnection || wf.IsAggregate {
		return nil, queryast.Errorf(queryast.ErrCodeRelationshipNotFound, "no filter relationship %s", wf.FieldName).
			WithEntity(entity.EntityName(), key)
	}

	attr, ok := entity.FindAttribute(wf.FieldName)
	if !ok {
		return nil, queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no filter attribute %s", wf.FieldName).
			WithEntity(entity.EntityName(), key)
	}
	if queryast.IsRelationshipOperator(wf.Operator) {
		return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "invalid operator %s for attribute %s", wf.Operator, attr.Name).
			WithEntity(entity.EntityName(), key)
	}
	if attr.Cypher != nil {
		return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "cannot filter on custom cypher attribute %s", attr.Name).
			WithEntity(entity.EntityName(), key)
	}
	return &queryast.PropertyFilter{
		Attribute:  attr,
		Value:      value,
		Operator:   wf.Operator,
		IsNot:      wf.IsNot,
		Attachment: queryast.OnNode,
	}, nil
}

// createLogicalFilter wraps the filters of one or more nested where
// objects. AND and OR take each object as a conjunction; NOT negates the
// conjunction of all of them. Nothing to combine yields nil.
func (f *Factory) createLogicalFilter(op queryast.LogicalOperator, value any, build func(map[string]any) ([]queryast.Filter, error)) (queryast.Filter, error) {
	var children []queryast.Filter
	for _, item := range asList(value) {
		m, err := asMap(item, string(op))
		if err != nil {
			return nil, err
		}
		filters, err := build(m)
		if err != nil {
			return nil, err
		}
		if op == queryast.LogicalNot {
			children = append(children, filters...)
			continue
		}
		if c := conjunction(filters); c != nil {
			children = append(children, c)
		}
	}
	if len(children) == 0 {
		return nil, nil
	}
	return &queryast.LogicalFilter{Operator: op, Children: children}, nil
}

func (f *Factory) createRelationshipFilter(rel *schema.Relationship, wf queryast.WhereField, value any) (queryast.Filter, error) {
	m, err := asMap(value, wf.String())
	if err != nil {
		return nil, err
	}
	filters, err := f.createTargetFilters(m, rel.Target)
	if err != nil {
		return nil, err
	}
	return &queryast.RelationshipFilter{
		Relationship: rel,
		Operator:     wf.Operator,
		IsNot:        wf.IsNot,
		Filters:      filters,
	}, nil
}

// createTargetFilters builds filters on a relationship target. Where
// objects over a union are keyed by member name; each member's filters
// apply only to nodes of that member.
func (f *Factory) createTargetFilters(where map[string]any, target schema.Entity) ([]queryast.Filter, error) {
	composite, ok := target.(*schema.CompositeEntity)
	if !ok || composite.Kind != schema.KindUnion {
		return f.CreateFilters(where, target)
	}

	var alternatives []queryast.Filter
	for _, key := range sortedKeys(where) {
		member, ok := composite.Member(key)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeEntityNotFound, "%s is not a member of %s", key, composite.Name).
				WithEntity(composite.Name, key)
		}
		m, err := asMap(where[key], key)
		if err != nil {
			return nil, err
		}
		filters, err := f.CreateFilters(m, member)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, conjunction(append([]queryast.Filter{&queryast.LabelFilter{Entity: member}}, filters...)))
	}
	switch len(alternatives) {
	case 0:
		return nil, nil
	case 1:
		return alternatives, nil
	}
	return []queryast.Filter{&queryast.LogicalFilter{Operator: queryast.LogicalOr, Children: alternatives}}, nil
}

func (f *Factory) createConnectionFilter(rel *schema.Relationship, wf queryast.WhereField, value any) (queryast.Filter, error) {
	m, err := asMap(value, wf.String())
	if err != nil {
		return nil, err
	}
	filters, err := f.createConnectionWhere(m, rel)
	if err != nil {
		return nil, err
	}
	return &queryast.ConnectionFilter{
		Relationship: rel,
		Operator:     wf.Operator,
		IsNot:        wf.IsNot,
		Filters:      filters,
	}, nil
}

// createConnectionWhere builds filters from a connection where object with
// keys node, node_NOT, edge, edge_NOT, AND, OR and NOT.
func (f *Factory) createConnectionWhere(where map[string]any, rel *schema.Relationship) ([]queryast.Filter, error) {
	var filters []queryast.Filter
	for _, key := range sortedKeys(where) {
		value := where[key]
		if queryast.IsLogicalKey(key) {
			lf, err := f.createLogicalFilter(queryast.LogicalOperator(key), value, func(m map[string]any) ([]queryast.Filter, error) {
				return f.createConnectionWhere(m, rel)
			})
			if err != nil {
				return nil, err
			}
			if lf != nil {
				filters = append(filters, lf)
			}
			continue
		}

		target, isNot, ok := queryast.ParseConnectionWhereKey(key)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "invalid connection where key %s", key).
				WithEntity(rel.Source.EntityName(), rel.ConnectionFieldName())
		}
		m, err := asMap(value, key)
		if err != nil {
			return nil, err
		}

		var inner []queryast.Filter
		if target == queryast.ConnectionNode {
			inner, err = f.createTargetFilters(m, rel.Target)
		} else {
			inner, err = f.createEdgeFilters(m, rel)
		}
		if err != nil {
			return nil, err
		}
		if len(inner) == 0 {
			continue
		}
		if isNot {
			filters = append(filters, &queryast.LogicalFilter{Operator: queryast.LogicalNot, Children: inner})
			continue
		}
		filters = append(filters, inner...)
	}
	return filters, nil
}

// createEdgeFilters builds property filters on relationship properties.
func (f *Factory) createEdgeFilters(where map[string]any, rel *schema.Relationship) ([]queryast.Filter, error) {
	var filters []queryast.Filter
	for _, key := range sortedKeys(where) {
		value := where[key]
		if queryast.IsLogicalKey(key) {
			lf, err := f.createLogicalFilter(queryast.LogicalOperator(key), value, func(m map[string]any) ([]queryast.Filter, error) {
				return f.createEdgeFilters(m, rel)
			})
			if err != nil {
				return nil, err
			}
			if lf != nil {
				filters = append(filters, lf)
			}
			continue
		}

		wf := queryast.ParseWhereField(key)
		attr, ok := rel.FindAttribute(wf.FieldName)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no filter attribute %s on relationship %s", wf.FieldName, rel.Name).
				WithEntity(rel.Source.EntityName(), key)
		}
		if wf.IsConnection || wf.IsAggregate || queryast.IsRelationshipOperator(wf.Operator) {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "invalid edge filter %s", key).
				WithEntity(rel.Source.EntityName(), key)
		}
		filters = append(filters, &queryast.PropertyFilter{
			Attribute:  attr,
			Value:      value,
			Operator:   wf.Operator,
			IsNot:      wf.IsNot,
			Attachment: queryast.OnRelationship,
		})
	}
	return filters, nil
}

func (f *Factory) createAggregationFilter(rel *schema.Relationship, value any) (queryast.Filter, error) {
	m, err := asMap(value, rel.AggregateFieldName())
	if err != nil {
		return nil, err
	}
	filters, err := f.createAggregationWhere(m, rel)
	if err != nil {
		return nil, err
	}
	return &queryast.AggregationFilter{Relationship: rel, Filters: filters}, nil
}

// createAggregationWhere builds count and aggregate filters from an
// aggregation where object: count[_OP], node{...}, edge{...} and logical
// keys.
func (f *Factory) createAggregationWhere(where map[string]any, rel *schema.Relationship) ([]queryast.Filter, error) {
	var filters []queryast.Filter
	for _, key := range sortedKeys(where) {
		value := where[key]
		if queryast.IsLogicalKey(key) {
			lf, err := f.createLogicalFilter(queryast.LogicalOperator(key), value, func(m map[string]any) ([]queryast.Filter, error) {
				return f.createAggregationWhere(m, rel)
			})
			if err != nil {
				return nil, err
			}
			if lf != nil {
				filters = append(filters, lf)
			}
			continue
		}

		switch key {
		case "node", "edge":
			m, err := asMap(value, key)
			if err != nil {
				return nil, err
			}
			inner, err := f.createAggregationPropertyFilters(m, rel, key == "edge")
			if err != nil {
				return nil, err
			}
			filters = append(filters, inner...)
			continue
		}

		wf := queryast.ParseWhereField(key)
		if wf.FieldName != "count" || wf.IsNot || wf.IsConnection || wf.IsAggregate {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "invalid aggregation filter %s", key).
				WithEntity(rel.Source.EntityName(), rel.AggregateFieldName())
		}
		op := wf.Operator
		switch op {
		case "":
			op = queryast.OpEq
		case queryast.OpLt, queryast.OpLte, queryast.OpGt, queryast.OpGte:
		default:
			return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "invalid operator %s for count", op).
				WithEntity(rel.Source.EntityName(), key)
		}
		filters = append(filters, &queryast.CountFilter{Operator: op, Value: value})
	}
	return filters, nil
}

func (f *Factory) createAggregationPropertyFilters(where map[string]any, rel *schema.Relationship, onEdge bool) ([]queryast.Filter, error) {
	var filters []queryast.Filter
	for _, key := range sortedKeys(where) {
		value := where[key]
		if queryast.IsLogicalKey(key) {
			lf, err := f.createLogicalFilter(queryast.LogicalOperator(key), value, func(m map[string]any) ([]queryast.Filter, error) {
				return f.createAggregationPropertyFilters(m, rel, onEdge)
			})
			if err != nil {
				return nil, err
			}
			if lf != nil {
				filters = append(filters, lf)
			}
			continue
		}

		ak, ok := queryast.ParseAggregationKey(key)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "invalid aggregation filter %s", key).
				WithEntity(rel.Source.EntityName(), rel.AggregateFieldName())
		}

		var (
			attr       *schema.Attribute
			attachment = queryast.OnNode
		)
		if onEdge {
			attr, ok = rel.FindAttribute(ak.FieldName)
			attachment = queryast.OnRelationship
		} else {
			attr, ok = rel.Target.FindAttribute(ak.FieldName)
		}
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no aggregation attribute %s", ak.FieldName).
				WithEntity(rel.Target.EntityName(), key)
		}
		if !aggregationApplies(ak.Aggregation, attr.Type) {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidOperator, "%s does not apply to %s attribute %s", ak.Aggregation, attr.Type.Name, attr.Name).
				WithEntity(rel.Target.EntityName(), key)
		}
		filters = append(filters, &queryast.AggregationPropertyFilter{
			Attribute:   attr,
			Aggregation: ak.Aggregation,
			Operator:    ak.Operator,
			Value:       value,
			Attachment:  attachment,
		})
	}
	return filters, nil
}

func aggregationApplies(agg queryast.AggregationFunction, t schema.AttributeType) bool {
	if t.IsList {
		return false
	}
	switch agg {
	case queryast.AggShortestLength, queryast.AggLongestLength, queryast.AggAverageLength:
		return t.IsString()
	case queryast.AggAverage, queryast.AggSum:
		return t.IsNumeric()
	case queryast.AggMin, queryast.AggMax:
		return t.IsNumeric() || t.IsTemporal()
	}
	return false
}

// conjunction folds filters into one: nil for none, the filter itself for
// one, AND otherwise.
func conjunction(filters []queryast.Filter) queryast.Filter {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	}
	return &queryast.LogicalFilter{Operator: queryast.LogicalAnd, Children: filters}
}
