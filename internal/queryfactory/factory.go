package queryfactory

import (
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/request"
	"github.com/roach88/cypherql/internal/schema"
)

// FilterFactory builds filters from a where object. Factory implements it;
// authorization sources receive it to turn their rules into filters.
type FilterFactory interface {
	CreateFilters(where map[string]any, entity schema.Entity) ([]queryast.Filter, error)
}

// AuthorizationSource supplies extra filters gating reads of an entity.
// They are injected at every read, connection and aggregation boundary.
type AuthorizationSource interface {
	AuthorizationFilters(entity *schema.ConcreteEntity, filters FilterFactory) ([]queryast.Filter, error)
}

// Factory builds Query ASTs for one request.
type Factory struct {
	model        *schema.Model
	auth         AuthorizationSource
	defaultLimit int64
	maxLimit     int64
}

// Option configures a Factory.
type Option func(*Factory)

// WithAuthorization injects authorization filters from src.
func WithAuthorization(src AuthorizationSource) Option {
	return func(f *Factory) {
		f.auth = src
	}
}

// WithLimits sets the limit applied to list reads without one, and the
// largest limit a request may ask for. Zero disables either.
func WithLimits(defaultLimit, maxLimit int64) Option {
	return func(f *Factory) {
		f.defaultLimit = defaultLimit
		f.maxLimit = maxLimit
	}
}

// New creates a Factory over model.
func New(model *schema.Model, opts ...Option) *Factory {
	f := &Factory{model: model}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateQueryAST builds the AST for one root field.
func (f *Factory) CreateQueryAST(field *request.Field) (*queryast.QueryAST, error) {
	wf := queryast.ParseWhereField(field.Name)
	entity, ok := f.model.EntityByPlural(wf.FieldName)
	if !ok || wf.Operator != "" || wf.IsNot || (wf.IsConnection && wf.IsAggregate) {
		return nil, queryast.Errorf(queryast.ErrCodeEntityNotFound, "no root field %s", field.Name)
	}

	var (
		op  queryast.Operation
		err error
	)
	switch {
	case wf.IsAggregate:
		var agg *queryast.Aggregation
		agg, err = f.createAggregation(field, entity, nil)
		op = &queryast.AggregationOperation{Aggregation: agg}
	case wf.IsConnection:
		op, err = f.createConnectionRead(field, entity, nil)
	default:
		op, err = f.createRead(field, entity, nil)
	}
	if err != nil {
		return nil, err
	}
	return queryast.New(field.ResponseKey(), op), nil
}

// createRead builds a read of entity, at the root when rel is nil or
// through rel otherwise.
func (f *Factory) createRead(field *request.Field, entity schema.Entity, rel *schema.Relationship) (*queryast.ReadOperation, error) {
	where, err := mapArg(field.Args, "where")
	if err != nil {
		return nil, err
	}

	read := &queryast.ReadOperation{Entity: entity}
	composite, isComposite := entity.(*schema.CompositeEntity)

	for _, concrete := range entity.ConcreteEntities() {
		branchWhere := where
		if isComposite && composite.Kind == schema.KindUnion && len(where) > 0 {
			memberWhere, present := where[concrete.Name]
			if !present {
				continue
			}
			if branchWhere, err = asMap(memberWhere, concrete.Name); err != nil {
				return nil, err
			}
		}

		branch := &queryast.ReadBranch{Entity: concrete}
		if branch.Filters, err = f.CreateFilters(branchWhere, concrete); err != nil {
			return nil, err
		}
		if branch.AuthFilters, err = f.authorizationFilters(concrete); err != nil {
			return nil, err
		}
		if branch.Fields, err = f.CreateFields(field.Selection.ForType(typeNames(concrete, entity)...), concrete); err != nil {
			return nil, err
		}
		if isComposite {
			branch.Fields = append([]queryast.Field{&queryast.TypenameField{Alias: "__resolveType", TypeName: concrete.Name}}, branch.Fields...)
		}
		read.Branches = append(read.Branches, branch)
	}

	if read.Sort, err = f.CreateSort(sortArg(field.Args), entity); err != nil {
		return nil, err
	}
	if read.Pagination, err = f.CreatePagination(field.Args); err != nil {
		return nil, err
	}
	if rel == nil || rel.IsList {
		read.Pagination = f.applyLimits(read.Pagination)
	}

	return read, nil
}

// createConnectionRead builds a connection over entity, at the root when
// rel is nil or through rel otherwise.
func (f *Factory) createConnectionRead(field *request.Field, entity schema.Entity, rel *schema.Relationship) (*queryast.ConnectionReadOperation, error) {
	where, err := mapArg(field.Args, "where")
	if err != nil {
		return nil, err
	}

	conn := &queryast.ConnectionReadOperation{Entity: entity}
	_, isComposite := entity.(*schema.CompositeEntity)
	edges, _ := field.Selection.Find("edges")

	for _, concrete := range entity.ConcreteEntities() {
		branch := &queryast.ConnectionBranch{Entity: concrete}
		if rel != nil {
			branch.Filters, err = f.createConnectionWhere(where, rel)
		} else {
			branch.Filters, err = f.createTargetFilters(where, entity)
		}
		if err != nil {
			return nil, err
		}
		if branch.AuthFilters, err = f.authorizationFilters(concrete); err != nil {
			return nil, err
		}

		if edges != nil {
			if err := f.createEdgeSelection(branch, edges, concrete, entity, rel); err != nil {
				return nil, err
			}
		}
		if isComposite && branch.NodeAlias != "" {
			branch.NodeFields = append([]queryast.Field{&queryast.TypenameField{Alias: "__resolveType", TypeName: concrete.Name}}, branch.NodeFields...)
		}
		conn.Branches = append(conn.Branches, branch)
	}

	if rel != nil {
		conn.Sort, err = f.CreateConnectionSort(field.Args["sort"], entity, rel)
	} else {
		conn.Sort, err = f.CreateSort(field.Args["sort"], entity)
	}
	if err != nil {
		return nil, err
	}
	if conn.Pagination, err = f.CreateConnectionPagination(field.Args); err != nil {
		return nil, err
	}
	conn.Pagination = f.applyLimits(conn.Pagination)
	return conn, nil
}

func (f *Factory) createEdgeSelection(branch *queryast.ConnectionBranch, edges *request.Field, concrete *schema.ConcreteEntity, entity schema.Entity, rel *schema.Relationship) error {
	for _, ef := range edges.Selection.Fields {
		switch ef.Name {
		case "node":
			fields, err := f.CreateFields(ef.Selection.ForType(typeNames(concrete, entity)...), concrete)
			if err != nil {
				return err
			}
			branch.NodeAlias = ef.ResponseKey()
			branch.NodeFields = fields
		case "cursor", "__typename":
			// cursors are derived from offsets when shaping the result
		default:
			if rel == nil {
				return queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no edge field %s", ef.Name).WithEntity(concrete.Name, ef.Name)
			}
			attr, ok := rel.FindAttribute(ef.Name)
			if !ok {
				return queryast.Errorf(queryast.ErrCodeAttributeNotFound, "no edge property %s on %s", ef.Name, rel.Name).WithEntity(concrete.Name, ef.Name)
			}
			branch.EdgeFields = append(branch.EdgeFields, attributeField(ef, attr, queryast.OnRelationship))
		}
	}
	return nil
}

// authorizationFilters asks the authorization source for filters gating
// entity. A missing source yields none.
func (f *Factory) authorizationFilters(entity *schema.ConcreteEntity) ([]queryast.Filter, error) {
	if f.auth == nil {
		return nil, nil
	}
	return f.auth.AuthorizationFilters(entity, f)
}

// compositeAuthorizationFilters gates a read that matches any member of a
// composite: a node passes when it is some member and satisfies that
// member's rules.
func (f *Factory) compositeAuthorizationFilters(entity schema.Entity) ([]queryast.Filter, error) {
	if concrete, ok := entity.(*schema.ConcreteEntity); ok {
		return f.authorizationFilters(concrete)
	}

	var (
		alternatives []queryast.Filter
		gated        bool
	)
	for _, member := range entity.ConcreteEntities() {
		filters, err := f.authorizationFilters(member)
		if err != nil {
			return nil, err
		}
		gated = gated || len(filters) > 0
		alternatives = append(alternatives, conjunction(append([]queryast.Filter{&queryast.LabelFilter{Entity: member}}, filters...)))
	}
	if !gated {
		return nil, nil
	}
	return []queryast.Filter{&queryast.LogicalFilter{Operator: queryast.LogicalOr, Children: alternatives}}, nil
}

func (f *Factory) applyLimits(p *queryast.Pagination) *queryast.Pagination {
	if f.defaultLimit <= 0 && f.maxLimit <= 0 {
		return p
	}
	out := &queryast.Pagination{}
	if p != nil {
		*out = *p
	}
	if out.Limit == nil && f.defaultLimit > 0 {
		limit := f.defaultLimit
		out.Limit = &limit
	}
	if f.maxLimit > 0 && (out.Limit == nil || *out.Limit > f.maxLimit) {
		limit := f.maxLimit
		out.Limit = &limit
	}
	return out
}

// typeNames lists the type conditions whose fragments apply to concrete
// when it is read as entity.
func typeNames(concrete *schema.ConcreteEntity, entity schema.Entity) []string {
	names := []string{concrete.Name}
	if entity.EntityName() != concrete.Name {
		names = append(names, entity.EntityName())
	}
	for _, iface := range concrete.Interfaces {
		if iface != entity.EntityName() {
			names = append(names, iface)
		}
	}
	return names
}
