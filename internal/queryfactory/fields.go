package queryfactory

import (
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/request"
	"github.com/roach88/cypherql/internal/schema"
)

// CreateFields builds the projection of entity from its selected fields,
// in selection order.
//
// An exact attribute or relationship name wins over suffix decoding, so an
// attribute may itself end in Connection or Aggregate. A composite target
// with no concrete members, and an Aggregate field with no matching
// relationship, project nothing.
func (f *Factory) CreateFields(selected []*request.Field, entity *schema.ConcreteEntity) ([]queryast.Field, error) {
	var fields []queryast.Field
	for _, rf := range selected {
		field, err := f.createField(rf, entity)
		if err != nil {
			return nil, err
		}
		if field != nil {
			fields = append(fields, field)
		}
	}
	return fields, nil
}

func (f *Factory) createField(rf *request.Field, entity *schema.ConcreteEntity) (queryast.Field, error) {
	if rf.Name == "__typename" {
		return &queryast.TypenameField{Alias: rf.ResponseKey(), TypeName: entity.Name}, nil
	}
	if attr, ok := entity.FindAttribute(rf.Name); ok {
		if attr.Cypher != nil {
			return queryast.NewCypherAttributeField(rf.ResponseKey(), attr), nil
		}
		return attributeField(rf, attr, queryast.OnNode), nil
	}
	if rel, ok := entity.FindRelationship(rf.Name); ok {
		read, err := f.createRead(rf, rel.Target, rel)
		if err != nil {
			return nil, err
		}
		if len(read.Branches) == 0 {
			return nil, nil
		}
		return queryast.NewRelationshipField(rf.ResponseKey(), rel, read), nil
	}

	wf := queryast.ParseWhereField(rf.Name)
	if wf.Operator == "" && !wf.IsNot {
		switch {
		case wf.IsConnection && !wf.IsAggregate:
			if rel, ok := entity.FindRelationship(wf.FieldName); ok {
				conn, err := f.createConnectionRead(rf, rel.Target, rel)
				if err != nil {
					return nil, err
				}
				if len(conn.Branches) == 0 {
					return nil, nil
				}
				return queryast.NewConnectionField(rf.ResponseKey(), rel, conn), nil
			}
		case wf.IsAggregate && !wf.IsConnection:
			rel, ok := entity.FindRelationship(wf.FieldName)
			if !ok || len(rel.Target.ConcreteEntities()) == 0 {
				return nil, nil
			}
			agg, err := f.createAggregation(rf, rel.Target, rel)
			if err != nil {
				return nil, err
			}
			return &queryast.AggregationField{Alias: rf.ResponseKey(), Relationship: rel, Aggregation: agg}, nil
		}
	}

	return nil, queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no field %s", rf.Name).WithEntity(entity.Name, rf.Name)
}

func attributeField(rf *request.Field, attr *schema.Attribute, attachment queryast.Attachment) *queryast.AttributeField {
	af := &queryast.AttributeField{Alias: rf.ResponseKey(), Attribute: attr, Attachment: attachment}
	if attr.Type.IsPoint() {
		_, af.IncludeCRS = rf.Selection.Find("crs")
	}
	return af
}

// createAggregation builds the aggregation selection of entity, over every
// node when rel is nil or over the nodes related through rel.
//
// At the root, attribute aggregates are selected directly; through a
// relationship they sit under node and edge.
func (f *Factory) createAggregation(field *request.Field, entity schema.Entity, rel *schema.Relationship) (*queryast.Aggregation, error) {
	where, err := mapArg(field.Args, "where")
	if err != nil {
		return nil, err
	}
	agg := &queryast.Aggregation{Entity: entity}
	if agg.Filters, err = f.CreateFilters(where, entity); err != nil {
		return nil, err
	}
	auth, err := f.compositeAuthorizationFilters(entity)
	if err != nil {
		return nil, err
	}
	agg.Filters = append(agg.Filters, auth...)

	for _, sf := range field.Selection.Fields {
		switch {
		case sf.Name == "__typename":
		case sf.Name == "count":
			agg.SelectCount(sf.ResponseKey())
		case sf.Name == "node" && rel != nil:
			agg.NodeAlias = sf.ResponseKey()
			if agg.NodeFields, err = createAggregateAttributes(sf.Selection.Fields, entity.FindAttribute, entity.EntityName()); err != nil {
				return nil, err
			}
		case sf.Name == "edge" && rel != nil:
			agg.EdgeAlias = sf.ResponseKey()
			if agg.EdgeFields, err = createAggregateAttributes(sf.Selection.Fields, rel.FindAttribute, rel.Name); err != nil {
				return nil, err
			}
		case rel == nil:
			attrs, err := createAggregateAttributes([]*request.Field{sf}, entity.FindAttribute, entity.EntityName())
			if err != nil {
				return nil, err
			}
			agg.NodeFields = append(agg.NodeFields, attrs...)
		default:
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "invalid aggregation field %s", sf.Name).
				WithEntity(entity.EntityName(), field.Name)
		}
	}
	return agg, nil
}

func createAggregateAttributes(selected []*request.Field, lookup func(string) (*schema.Attribute, bool), owner string) ([]*queryast.AggregateAttribute, error) {
	var out []*queryast.AggregateAttribute
	for _, sf := range selected {
		if sf.Name == "__typename" {
			continue
		}
		attr, ok := lookup(sf.Name)
		if !ok {
			return nil, queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no aggregation attribute %s", sf.Name).WithEntity(owner, sf.Name)
		}
		if attr.Cypher != nil || attr.Type.IsList {
			return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "cannot aggregate attribute %s", sf.Name).WithEntity(owner, sf.Name)
		}

		allowed := aggregateKeys(attr.Type)
		var keys []string
		for _, kf := range sf.Selection.Fields {
			if kf.Name == "__typename" {
				continue
			}
			if !allowed[kf.Name] {
				return nil, queryast.Errorf(queryast.ErrCodeInvalidArgument, "%s is not an aggregate of %s attribute %s", kf.Name, attr.Type.Name, attr.Name).
					WithEntity(owner, sf.Name)
			}
			keys = append(keys, kf.Name)
		}
		if len(keys) == 0 {
			continue
		}
		out = append(out, queryast.NewAggregateAttribute(sf.ResponseKey(), attr, keys))
	}
	return out, nil
}

// aggregateKeys lists the aggregates available for an attribute type.
func aggregateKeys(t schema.AttributeType) map[string]bool {
	switch {
	case t.IsString():
		return map[string]bool{"shortest": true, "longest": true}
	case t.IsNumeric():
		return map[string]bool{"min": true, "max": true, "average": true, "sum": true}
	default:
		return map[string]bool{"min": true, "max": true}
	}
}
