package schema

// Entity is a schema-level type: a concrete node entity, or an interface or
// union composed of concrete entities.
//
// This is a sealed interface - only types in this package implement it.
type Entity interface {
	entity()

	// EntityName is the GraphQL type name.
	EntityName() string

	// Plural is the root query field name, e.g. "movies".
	Plural() string

	// FindAttribute looks up an attribute by GraphQL field name.
	FindAttribute(name string) (*Attribute, bool)

	// FindRelationship looks up a relationship by GraphQL field name.
	FindRelationship(name string) (*Relationship, bool)

	// ConcreteEntities returns the concrete entities the entity decomposes to.
	// A concrete entity returns itself.
	ConcreteEntities() []*ConcreteEntity
}

// fieldSet holds attributes and relationships in declaration order.
type fieldSet struct {
	attributes        map[string]*Attribute
	attributeOrder    []string
	relationships     map[string]*Relationship
	relationshipOrder []string
}

func newFieldSet() fieldSet {
	return fieldSet{
		attributes:    make(map[string]*Attribute),
		relationships: make(map[string]*Relationship),
	}
}

func (f *fieldSet) addAttribute(a *Attribute) {
	f.attributes[a.Name] = a
	f.attributeOrder = append(f.attributeOrder, a.Name)
}

func (f *fieldSet) addRelationship(r *Relationship) {
	f.relationships[r.Name] = r
	f.relationshipOrder = append(f.relationshipOrder, r.Name)
}

func (f *fieldSet) FindAttribute(name string) (*Attribute, bool) {
	a, ok := f.attributes[name]
	return a, ok
}

func (f *fieldSet) FindRelationship(name string) (*Relationship, bool) {
	r, ok := f.relationships[name]
	return r, ok
}

// Attributes returns attributes in declaration order.
func (f *fieldSet) Attributes() []*Attribute {
	out := make([]*Attribute, 0, len(f.attributeOrder))
	for _, n := range f.attributeOrder {
		out = append(out, f.attributes[n])
	}
	return out
}

// Relationships returns relationships in declaration order.
func (f *fieldSet) Relationships() []*Relationship {
	out := make([]*Relationship, 0, len(f.relationshipOrder))
	for _, n := range f.relationshipOrder {
		out = append(out, f.relationships[n])
	}
	return out
}

// ConcreteEntity is a node type with labels.
type ConcreteEntity struct {
	fieldSet

	Name       string
	Labels     []string
	Interfaces []string

	plural string
}

func (*ConcreteEntity) entity() {}

func (e *ConcreteEntity) EntityName() string { return e.Name }

func (e *ConcreteEntity) Plural() string { return e.plural }

func (e *ConcreteEntity) ConcreteEntities() []*ConcreteEntity {
	return []*ConcreteEntity{e}
}

// CompositeKind distinguishes interfaces from unions.
type CompositeKind int

const (
	KindInterface CompositeKind = iota
	KindUnion
)

// CompositeEntity is an interface or union over concrete entities.
// Interfaces may declare shared attributes and relationships; unions never do.
type CompositeEntity struct {
	fieldSet

	Name string
	Kind CompositeKind

	plural      string
	members     []*ConcreteEntity
	memberNames []string
}

func (*CompositeEntity) entity() {}

func (e *CompositeEntity) EntityName() string { return e.Name }

func (e *CompositeEntity) Plural() string { return e.plural }

func (e *CompositeEntity) ConcreteEntities() []*ConcreteEntity {
	return e.members
}

// Member returns the concrete member with the given name.
func (e *CompositeEntity) Member(name string) (*ConcreteEntity, bool) {
	for _, m := range e.members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}
