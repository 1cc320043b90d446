package schema

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Directive names understood by Parse.
const (
	directiveNode                   = "node"
	directiveRelationship           = "relationship"
	directiveRelationshipProperties = "relationshipProperties"
	directiveAlias                  = "alias"
	directiveCypher                 = "cypher"
	directivePlural                 = "plural"
)

var rootOperationTypes = map[string]bool{
	"Query":        true,
	"Mutation":     true,
	"Subscription": true,
}

var builtinScalars = map[string]ScalarName{
	"ID":             ScalarID,
	"String":         ScalarString,
	"Int":            ScalarInt,
	"Float":          ScalarFloat,
	"BigInt":         ScalarBigInt,
	"Boolean":        ScalarBoolean,
	"DateTime":       ScalarDateTime,
	"Date":           ScalarDate,
	"Time":           ScalarTime,
	"LocalDateTime":  ScalarLocalDateTime,
	"LocalTime":      ScalarLocalTime,
	"Duration":       ScalarDuration,
	"Point":          ScalarPoint,
	"CartesianPoint": ScalarCartesianPoint,
}

// Parse builds a Model from GraphQL type definitions.
//
// Object types become concrete entities; interfaces and unions become
// composite entities. Fields carrying @relationship become relationships,
// every other field becomes an attribute. Directive definitions are not
// required in the SDL.
func Parse(sdl string) (*Model, error) {
	doc, perr := parser.ParseSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if perr != nil {
		return nil, fmt.Errorf("parse schema: %w", perr)
	}

	b := &builder{
		defs:       make(map[string]*ast.Definition),
		enums:      make(map[string]bool),
		properties: make(map[string]*ast.Definition),
		concrete:   make(map[string]*ConcreteEntity),
		composite:  make(map[string]*CompositeEntity),
	}
	return b.build(doc.Definitions)
}

// builder resolves type references in two passes: declare, then link.
type builder struct {
	defs       map[string]*ast.Definition
	enums      map[string]bool
	properties map[string]*ast.Definition
	concrete   map[string]*ConcreteEntity
	composite  map[string]*CompositeEntity
	rels       []*Relationship
	order      []Entity
}

func (b *builder) build(defs ast.DefinitionList) (*Model, error) {
	for _, def := range defs {
		b.defs[def.Name] = def
		if def.Kind == ast.Enum {
			b.enums[def.Name] = true
		}
		if def.Directives.ForName(directiveRelationshipProperties) != nil {
			b.properties[def.Name] = def
		}
	}
	// Types named by @relationship(properties:) are properties types even
	// without the marker directive.
	for _, def := range defs {
		for _, field := range def.Fields {
			if d := field.Directives.ForName(directiveRelationship); d != nil {
				if name := stringArg(d, "properties"); name != "" {
					if pdef, ok := b.defs[name]; ok {
						b.properties[name] = pdef
					}
				}
			}
		}
	}

	for _, def := range defs {
		if rootOperationTypes[def.Name] || b.properties[def.Name] != nil {
			continue
		}
		switch def.Kind {
		case ast.Object:
			e := &ConcreteEntity{
				fieldSet:   newFieldSet(),
				Name:       def.Name,
				Labels:     labelsOf(def),
				Interfaces: def.Interfaces,
				plural:     pluralOf(def),
			}
			b.concrete[def.Name] = e
			b.order = append(b.order, e)
		case ast.Interface, ast.Union:
			kind := KindInterface
			if def.Kind == ast.Union {
				kind = KindUnion
			}
			e := &CompositeEntity{
				fieldSet:    newFieldSet(),
				Name:        def.Name,
				Kind:        kind,
				plural:      pluralOf(def),
				memberNames: def.Types,
			}
			b.composite[def.Name] = e
			b.order = append(b.order, e)
		}
	}

	for _, e := range b.order {
		def := b.defs[e.EntityName()]
		var fs *fieldSet
		switch ent := e.(type) {
		case *ConcreteEntity:
			fs = &ent.fieldSet
		case *CompositeEntity:
			fs = &ent.fieldSet
		}
		if err := b.readFields(e, def, fs); err != nil {
			return nil, err
		}
	}

	if err := b.link(); err != nil {
		return nil, err
	}

	m := newModel()
	for _, e := range b.order {
		if err := m.register(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (b *builder) readFields(owner Entity, def *ast.Definition, fs *fieldSet) error {
	for _, field := range def.Fields {
		if d := field.Directives.ForName(directiveRelationship); d != nil {
			rel, err := b.relationshipOf(owner, field, d)
			if err != nil {
				return err
			}
			fs.addRelationship(rel)
			continue
		}
		if b.isEntityType(field.Type.Name()) {
			return &Error{Type: def.Name, Field: field.Name, Message: fmt.Sprintf("references %s without @relationship", field.Type.Name())}
		}
		fs.addAttribute(b.attributeOf(field))
	}
	return nil
}

func (b *builder) isEntityType(name string) bool {
	_, c := b.concrete[name]
	_, p := b.composite[name]
	return c || p
}

func (b *builder) relationshipOf(owner Entity, field *ast.FieldDefinition, d *ast.Directive) (*Relationship, error) {
	relType := stringArg(d, "type")
	if relType == "" {
		return nil, &Error{Type: owner.EntityName(), Field: field.Name, Message: "@relationship requires type"}
	}
	dir := Direction(stringArg(d, "direction"))
	if dir != DirectionIn && dir != DirectionOut {
		return nil, &Error{Type: owner.EntityName(), Field: field.Name, Message: fmt.Sprintf("invalid direction %q", dir)}
	}
	rel := &Relationship{
		Name:       field.Name,
		Type:       relType,
		Direction:  dir,
		Source:     owner,
		IsList:     field.Type.Elem != nil,
		Properties: stringArg(d, "properties"),
		attributes: make(map[string]*Attribute),
		targetName: field.Type.Name(),
	}
	if rel.Properties != "" {
		pdef, ok := b.properties[rel.Properties]
		if !ok {
			return nil, &Error{Type: owner.EntityName(), Field: field.Name, Message: fmt.Sprintf("properties type %s not found", rel.Properties)}
		}
		for _, pf := range pdef.Fields {
			a := b.attributeOf(pf)
			rel.attributes[a.Name] = a
			rel.attributeOrder = append(rel.attributeOrder, a.Name)
		}
	}
	b.rels = append(b.rels, rel)
	return rel, nil
}

func (b *builder) attributeOf(field *ast.FieldDefinition) *Attribute {
	named := field.Type.Name()
	t := AttributeType{
		Name:     ScalarName(named),
		IsList:   field.Type.Elem != nil,
		Required: field.Type.NonNull,
	}
	if s, ok := builtinScalars[named]; ok {
		t.Name = s
	} else if b.enums[named] {
		t.Name = ScalarString
		t.IsEnum = true
	}

	a := &Attribute{Name: field.Name, DatabaseName: field.Name, Type: t}
	if d := field.Directives.ForName(directiveAlias); d != nil {
		if prop := stringArg(d, "property"); prop != "" {
			a.DatabaseName = prop
		}
	}
	if d := field.Directives.ForName(directiveCypher); d != nil {
		a.Cypher = &CypherAnnotation{
			Statement:  stringArg(d, "statement"),
			ColumnName: stringArg(d, "columnName"),
		}
		if a.Cypher.ColumnName == "" {
			a.Cypher.ColumnName = field.Name
		}
	}
	return a
}

// link resolves relationship targets and composite members.
func (b *builder) link() error {
	for _, rel := range b.rels {
		if c, ok := b.concrete[rel.targetName]; ok {
			rel.Target = c
			continue
		}
		if c, ok := b.composite[rel.targetName]; ok {
			rel.Target = c
			continue
		}
		return &Error{Type: rel.Source.EntityName(), Field: rel.Name, Message: fmt.Sprintf("target %s not found", rel.targetName)}
	}

	for _, e := range b.order {
		comp, ok := e.(*CompositeEntity)
		if !ok {
			continue
		}
		if comp.Kind == KindUnion {
			for _, name := range comp.memberNames {
				member, ok := b.concrete[name]
				if !ok {
					return &Error{Type: comp.Name, Message: fmt.Sprintf("union member %s is not a node type", name)}
				}
				comp.members = append(comp.members, member)
			}
			continue
		}
		for _, candidate := range b.order {
			c, ok := candidate.(*ConcreteEntity)
			if !ok {
				continue
			}
			for _, iface := range c.Interfaces {
				if iface == comp.Name {
					comp.members = append(comp.members, c)
					comp.memberNames = append(comp.memberNames, c.Name)
					break
				}
			}
		}
	}
	return nil
}

func labelsOf(def *ast.Definition) []string {
	d := def.Directives.ForName(directiveNode)
	if d == nil {
		return []string{def.Name}
	}
	arg := d.Arguments.ForName("labels")
	if arg == nil || arg.Value == nil || len(arg.Value.Children) == 0 {
		return []string{def.Name}
	}
	labels := make([]string, 0, len(arg.Value.Children))
	for _, child := range arg.Value.Children {
		labels = append(labels, child.Value.Raw)
	}
	return labels
}

func pluralOf(def *ast.Definition) string {
	if d := def.Directives.ForName(directivePlural); d != nil {
		if v := stringArg(d, "value"); v != "" {
			return v
		}
	}
	return lowerFirst(inflect.Pluralize(def.Name))
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func stringArg(d *ast.Directive, name string) string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return ""
	}
	return arg.Value.Raw
}
