package schema

import (
	"fmt"
	"sort"
)

// Model is the read-only schema registry: entities indexed by type name and
// by root field plural. It is built once and safe for concurrent reads.
type Model struct {
	entities map[string]Entity
	plurals  map[string]Entity
	order    []string
}

func newModel() *Model {
	return &Model{
		entities: make(map[string]Entity),
		plurals:  make(map[string]Entity),
	}
}

func (m *Model) register(e Entity) error {
	if _, exists := m.entities[e.EntityName()]; exists {
		return &Error{Type: e.EntityName(), Message: "duplicate type definition"}
	}
	if other, exists := m.plurals[e.Plural()]; exists {
		return &Error{Type: e.EntityName(), Message: fmt.Sprintf("plural %q already used by %s", e.Plural(), other.EntityName())}
	}
	m.entities[e.EntityName()] = e
	m.plurals[e.Plural()] = e
	m.order = append(m.order, e.EntityName())
	return nil
}

// Entity returns an entity by GraphQL type name.
func (m *Model) Entity(name string) (Entity, bool) {
	e, ok := m.entities[name]
	return e, ok
}

// EntityByPlural returns the entity whose root field is plural.
func (m *Model) EntityByPlural(plural string) (Entity, bool) {
	e, ok := m.plurals[plural]
	return e, ok
}

// Entities returns every entity in declaration order.
func (m *Model) Entities() []Entity {
	out := make([]Entity, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.entities[n])
	}
	return out
}

// Plurals returns the root field names, sorted.
func (m *Model) Plurals() []string {
	out := make([]string, 0, len(m.plurals))
	for p := range m.plurals {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Error reports an invalid schema definition.
type Error struct {
	Type    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: %s.%s: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("schema: %s: %s", e.Type, e.Message)
}
