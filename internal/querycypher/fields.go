package querycypher

import (
	"github.com/roach88/cypherql/internal/cypher"
	"github.com/roach88/cypherql/internal/queryast"
)

// entry is one key of a projection. A nil value projects the stored
// property of the same name with the .key shorthand.
type entry struct {
	key   string
	value cypher.Expr
}

// compileEntries visits fields depth-first in selection order, returning
// their projection entries and the subqueries those entries read.
func compileEntries(fields []queryast.Field, s scope) ([]entry, []cypher.Clause, error) {
	var (
		entries    []entry
		subqueries []cypher.Clause
	)
	for _, field := range fields {
		switch f := field.(type) {
		case *queryast.AttributeField:
			e, err := attributeEntry(f, s)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, e)
		case *queryast.TypenameField:
			entries = append(entries, entry{key: f.Alias, value: cypher.Lit(f.TypeName)})
		case *queryast.CypherAttributeField:
			subqueries = append(subqueries, cypherAttributeSubquery(f, s))
			entries = append(entries, entry{key: f.Alias, value: f.ResultVar})
		case *queryast.RelationshipField:
			sub, err := relationshipSubquery(f, s)
			if err != nil {
				return nil, nil, err
			}
			subqueries = append(subqueries, sub)
			entries = append(entries, entry{key: f.Alias, value: f.ResultVar})
		case *queryast.ConnectionField:
			clauses, err := compileConnection(f.Connection, f.Relationship, s.node, f.ResultVar)
			if err != nil {
				return nil, nil, err
			}
			subqueries = append(subqueries, cypher.NewCall(cypher.Concat(clauses...), s.node))
			entries = append(entries, entry{key: f.Alias, value: f.ResultVar})
		case *queryast.AggregationField:
			value, subs, err := compileAggregation(f.Aggregation, f.Relationship, s.node)
			if err != nil {
				return nil, nil, err
			}
			subqueries = append(subqueries, subs...)
			entries = append(entries, entry{key: f.Alias, value: value})
		default:
			return nil, nil, invariant("unsupported field %T", field)
		}
	}
	return entries, subqueries, nil
}

// compileProjection builds node { ... } from fields.
func compileProjection(fields []queryast.Field, s scope) (*cypher.MapProjection, []cypher.Clause, error) {
	entries, subqueries, err := compileEntries(fields, s)
	if err != nil {
		return nil, nil, err
	}
	projection := cypher.NewMapProjection(s.node)
	for _, e := range entries {
		if e.value == nil {
			projection.AddShorthand(e.key)
			continue
		}
		projection.Add(e.key, e.value)
	}
	return projection, subqueries, nil
}

// attributeEntry projects an attribute. Points are projected whole and
// rebuilt, date-times are normalised to offset format, and a plain
// property uses the shorthand when its key is its stored name.
func attributeEntry(f *queryast.AttributeField, s scope) (entry, error) {
	target := s.node
	if f.Attachment == queryast.OnRelationship {
		target = s.rel
	}
	if target == nil {
		return entry{}, invariant("relationship property %s projected without a bound relationship", f.Attribute.Name)
	}
	prop := target.Property(f.Attribute.DatabaseName)
	t := f.Attribute.Type

	switch {
	case t.IsPoint():
		return entry{key: f.Alias, value: pointProjection(prop, t.IsList, f.IncludeCRS)}, nil
	case t.IsDateTime():
		if t.IsList {
			v := cypher.NewVariable()
			return entry{key: f.Alias, value: cypher.ListComprehension(v, prop, nil, formatDateTime(v))}, nil
		}
		return entry{key: f.Alias, value: formatDateTime(prop)}, nil
	case f.Attachment == queryast.OnNode && f.Alias == f.Attribute.DatabaseName:
		return entry{key: f.Alias}, nil
	default:
		return entry{key: f.Alias, value: prop}, nil
	}
}

// pointProjection renders
// CASE WHEN p IS NOT NULL THEN { point: p, crs: p.crs } ELSE NULL END,
// mapping each element for point lists.
func pointProjection(prop *cypher.PropertyRef, isList, includeCRS bool) cypher.Expr {
	wrap := func(p cypher.Expr) cypher.Expr {
		m := cypher.NewMap().Set("point", p)
		if includeCRS {
			m.Set("crs", cypher.Property(p, "crs"))
		}
		return m
	}
	value := wrap(prop)
	if isList {
		v := cypher.NewVariable()
		value = cypher.ListComprehension(v, prop, nil, wrap(v))
	}
	return cypher.Case(cypher.IsNotNull(prop), value, cypher.Null)
}

func formatDateTime(x cypher.Expr) cypher.Expr {
	return cypher.Fn("apoc.date.convertFormat", cypher.ToString(x), cypher.Lit("iso_zoned_date_time"), cypher.Lit("iso_offset_date_time"))
}

// cypherAttributeSubquery runs a user statement with the current node
// bound as this:
//
//	CALL {
//	    WITH node
//	    CALL {
//	        WITH node
//	        WITH node AS this
//	        <statement>
//	    }
//	    WITH <column> AS v
//	    RETURN head(collect(v)) AS result
//	}
func cypherAttributeSubquery(f *queryast.CypherAttributeField, s scope) cypher.Clause {
	statement := cypher.NewCall(cypher.Concat(
		cypher.NewWith(cypher.As(s.node, cypher.NamedVariable("this"))),
		cypher.RawClause(f.Attribute.Cypher.Statement),
	), s.node)

	item := cypher.NewVariable()
	var collected cypher.Expr = cypher.Head(cypher.Collect(item))
	if f.Attribute.Type.IsList {
		collected = cypher.Collect(item)
	}
	return cypher.NewCall(cypher.Concat(
		statement,
		cypher.NewWith(cypher.As(cypher.NamedVariable(f.Attribute.Cypher.ColumnName), item)),
		cypher.NewReturn(cypher.As(collected, f.ResultVar)),
	), s.node)
}

// relationshipSubquery traverses to the related nodes, projects each, and
// collects them into the field's result variable. Non-list relationships
// take the head of the collection.
func relationshipSubquery(f *queryast.RelationshipField, s scope) (cypher.Clause, error) {
	read := f.Read
	rel := f.Relationship

	if !read.IsComposite() {
		branch := read.Branches[0]
		node := cypher.NewNode()
		clauses, err := compileMatch(relatedPattern(s.node, rel, nil, node, branch.Entity), branch.AllFilters(), scope{node: node})
		if err != nil {
			return nil, err
		}
		if with := orderAndPage(cypher.WithStar(), nodeOrders(read.Sort, node), read.Pagination); with != nil {
			clauses = append(clauses, with)
		}
		projection, subqueries, err := compileProjection(branch.Fields, scope{node: node})
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, subqueries...)
		clauses = append(clauses,
			cypher.NewWith(cypher.As(projection, node)),
			cypher.NewReturn(cypher.As(collectResult(node, rel.IsList), f.ResultVar)))
		return cypher.NewCall(cypher.Concat(clauses...), s.node), nil
	}

	out := cypher.NewVariable()
	keys := newSortKeys(read.Sort)
	branches, err := compileBranches(read.Branches, s.node, rel, out, keys)
	if err != nil {
		return nil, err
	}
	clauses := []cypher.Clause{cypher.NewCall(cypher.Union(branches...))}
	if with := orderAndPage(cypher.NewWith(keys.items(out)...), keys.orders(), read.Pagination); with != nil {
		clauses = append(clauses, with)
	}
	clauses = append(clauses, cypher.NewReturn(cypher.As(collectResult(out, rel.IsList), f.ResultVar)))
	return cypher.NewCall(cypher.Concat(clauses...), s.node), nil
}

func collectResult(v *cypher.Variable, isList bool) cypher.Expr {
	if isList {
		return cypher.Collect(v)
	}
	return cypher.Head(cypher.Collect(v))
}
