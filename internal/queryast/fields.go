package queryast

import (
	"github.com/roach88/cypherql/internal/cypher"
	"github.com/roach88/cypherql/internal/schema"
)

// Field is a node of a projection tree. Every field contributes exactly
// one key to its parent's map projection, and may also contribute a
// subquery that must run before that projection.
//
// This is a sealed interface - only types in this package implement it.
type Field interface {
	fieldNode() // Marker method - seals interface to this package

	// ResponseKey is the key the field projects under.
	ResponseKey() string
}

// AttributeField projects one attribute of the node or relationship.
type AttributeField struct {
	Alias      string
	Attribute  *schema.Attribute
	Attachment Attachment
	// IncludeCRS requests the crs of a point attribute.
	IncludeCRS bool
}

func (*AttributeField) fieldNode() {}

func (f *AttributeField) ResponseKey() string { return f.Alias }

// TypenameField projects a fixed string, the concrete type name of a
// composite member.
type TypenameField struct {
	Alias    string
	TypeName string
}

func (*TypenameField) fieldNode() {}

func (f *TypenameField) ResponseKey() string { return f.Alias }

// CypherAttributeField projects an attribute computed by a user supplied
// @cypher statement.
type CypherAttributeField struct {
	Alias     string
	Attribute *schema.Attribute
	ResultVar *cypher.Variable
}

// NewCypherAttributeField allocates the field's result variable.
func NewCypherAttributeField(alias string, attr *schema.Attribute) *CypherAttributeField {
	return &CypherAttributeField{Alias: alias, Attribute: attr, ResultVar: cypher.NewVariable()}
}

func (*CypherAttributeField) fieldNode() {}

func (f *CypherAttributeField) ResponseKey() string { return f.Alias }

// RelationshipField projects the nodes related through Relationship as a
// list, or a single value when the relationship is not a list.
type RelationshipField struct {
	Alias        string
	Relationship *schema.Relationship
	Read         *ReadOperation
	ResultVar    *cypher.Variable
}

// NewRelationshipField allocates the field's result variable.
func NewRelationshipField(alias string, rel *schema.Relationship, read *ReadOperation) *RelationshipField {
	return &RelationshipField{Alias: alias, Relationship: rel, Read: read, ResultVar: cypher.NewVariable()}
}

func (*RelationshipField) fieldNode() {}

func (f *RelationshipField) ResponseKey() string { return f.Alias }

// ConnectionField projects a relationship as {edges, totalCount}.
type ConnectionField struct {
	Alias        string
	Relationship *schema.Relationship
	Connection   *ConnectionReadOperation
	ResultVar    *cypher.Variable
}

// NewConnectionField allocates the field's result variable.
func NewConnectionField(alias string, rel *schema.Relationship, conn *ConnectionReadOperation) *ConnectionField {
	return &ConnectionField{Alias: alias, Relationship: rel, Connection: conn, ResultVar: cypher.NewVariable()}
}

func (*ConnectionField) fieldNode() {}

func (f *ConnectionField) ResponseKey() string { return f.Alias }

// AggregationField projects count and per-attribute aggregates over the
// nodes related through Relationship.
type AggregationField struct {
	Alias        string
	Relationship *schema.Relationship
	Aggregation  *Aggregation
}

func (*AggregationField) fieldNode() {}

func (f *AggregationField) ResponseKey() string { return f.Alias }

// Aggregation is the selection of an aggregate field: a count, node
// attribute aggregates and edge attribute aggregates. Each part compiles
// to its own subquery.
type Aggregation struct {
	Entity schema.Entity
	// Filters restrict the aggregated set. Authorization filters are
	// included and compiled afresh in every subquery.
	Filters []Filter

	CountAlias string // "" when count is not selected
	CountVar   *cypher.Variable

	NodeAlias  string
	NodeFields []*AggregateAttribute
	EdgeAlias  string
	EdgeFields []*AggregateAttribute
}

// SelectCount requests the count under alias.
func (a *Aggregation) SelectCount(alias string) {
	a.CountAlias = alias
	a.CountVar = cypher.NewVariable()
}

// AggregateAttribute is one attribute of an aggregation selection together
// with the aggregate keys requested for it (min, max, average, sum,
// shortest, longest).
type AggregateAttribute struct {
	Alias     string
	Attribute *schema.Attribute
	Keys      []string
	ResultVar *cypher.Variable
}

// NewAggregateAttribute allocates the aggregate's result variable.
func NewAggregateAttribute(alias string, attr *schema.Attribute, keys []string) *AggregateAttribute {
	return &AggregateAttribute{Alias: alias, Attribute: attr, Keys: keys, ResultVar: cypher.NewVariable()}
}
