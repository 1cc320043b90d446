package queryast

import "github.com/roach88/cypherql/internal/schema"

// Operation is the root of a QueryAST, and the body of nested reads.
//
// This is a sealed interface - only types in this package implement it.
//
// Operation types:
//   - ReadOperation: a list read of an entity, concrete or composite
//   - ConnectionReadOperation: {edges, totalCount} over an entity
//   - AggregationOperation: count and attribute aggregates over an entity
type Operation interface {
	operationNode() // Marker method - seals interface to this package
}

// QueryAST is the translation of one root request field. It is built once
// per field and compiled once.
type QueryAST struct {
	// Field is the response key of the root field.
	Field     string
	Operation Operation
}

// New wraps op as the AST of the root field responseKey.
func New(responseKey string, op Operation) *QueryAST {
	return &QueryAST{Field: responseKey, Operation: op}
}

// ReadOperation reads nodes of Entity. A concrete entity has one branch; a
// composite entity has one branch per concrete member, joined with UNION
// when compiled. Sort and Pagination apply after the branches are joined.
type ReadOperation struct {
	Entity     schema.Entity
	Branches   []*ReadBranch
	Sort       []SortField
	Pagination *Pagination
}

func (*ReadOperation) operationNode() {}

// IsComposite reports whether the read spans an interface or union.
func (r *ReadOperation) IsComposite() bool {
	_, ok := r.Entity.(*schema.CompositeEntity)
	return ok
}

// ReadBranch is the part of a read that targets one concrete entity.
type ReadBranch struct {
	Entity      *schema.ConcreteEntity
	Filters     []Filter
	AuthFilters []Filter
	Fields      []Field
}

// AllFilters returns request filters followed by authorization filters.
func (b *ReadBranch) AllFilters() []Filter {
	return concatFilters(b.Filters, b.AuthFilters)
}

// ConnectionReadOperation reads nodes of Entity as connection edges.
// totalCount is the size of the whole matched edge set; Sort and
// Pagination then select the returned edges.
type ConnectionReadOperation struct {
	Entity     schema.Entity
	Branches   []*ConnectionBranch
	Sort       []SortField
	Pagination *Pagination
}

func (*ConnectionReadOperation) operationNode() {}

// ConnectionBranch is the part of a connection that targets one concrete
// entity. Filters may be attached to the node or to the relationship.
type ConnectionBranch struct {
	Entity      *schema.ConcreteEntity
	Filters     []Filter
	AuthFilters []Filter
	// NodeAlias is the edge key holding the node projection, "" when the
	// node is not selected.
	NodeAlias  string
	NodeFields []Field
	// EdgeFields project relationship properties directly onto the edge.
	EdgeFields []Field
}

// AllFilters returns request filters followed by authorization filters.
func (b *ConnectionBranch) AllFilters() []Filter {
	return concatFilters(b.Filters, b.AuthFilters)
}

// AggregationOperation aggregates over every node of an entity.
type AggregationOperation struct {
	Aggregation *Aggregation
}

func (*AggregationOperation) operationNode() {}

func concatFilters(a, b []Filter) []Filter {
	out := make([]Filter, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
