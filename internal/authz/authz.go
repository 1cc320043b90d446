// Package authz gates entity reads with rule-based filters.
//
// A rule is a where object in the request filter grammar. String values of
// the form "$jwt.<claim>" are replaced with the caller's claims before the
// filter factory turns the rule into filters, so
//
//	{"owner": "$jwt.sub"}
//
// restricts reads to nodes whose owner property equals the sub claim.
// Nested claims use dotted paths: "$jwt.org.id".
package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/queryfactory"
	"github.com/roach88/cypherql/internal/request"
	"github.com/roach88/cypherql/internal/schema"
)

const claimPrefix = "$jwt."

// ErrMissingClaim is returned when a rule references a claim the request
// does not carry. A rule that cannot be evaluated denies the read.
var ErrMissingClaim = errors.New("missing claim")

// Rule gates reads of one entity.
type Rule struct {
	Where map[string]any
}

// Rules maps entity names to their rule.
type Rules map[string]Rule

// WithClaims binds rules to one request's claims.
func (r Rules) WithClaims(claims map[string]any) *Source {
	return &Source{rules: r, claims: claims}
}

// Entities returns the names of gated entities in sorted order.
func (r Rules) Entities() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source is an authorization source for a single request.
type Source struct {
	rules  Rules
	claims map[string]any
}

var _ queryfactory.AuthorizationSource = (*Source)(nil)

// AuthorizationFilters implements queryfactory.AuthorizationSource.
func (s *Source) AuthorizationFilters(entity *schema.ConcreteEntity, filters queryfactory.FilterFactory) ([]queryast.Filter, error) {
	rule, ok := s.rules[entity.Name]
	if !ok || len(rule.Where) == 0 {
		return nil, nil
	}
	where, err := s.substitute(rule.Where)
	if err != nil {
		return nil, fmt.Errorf("authorization for %s: %w", entity.Name, err)
	}
	// Rules decoded from YAML or CUE carry plain ints.
	return filters.CreateFilters(request.Normalize(where).(map[string]any), entity)
}

func (s *Source) substitute(v any) (any, error) {
	switch v := v.(type) {
	case string:
		path, ok := strings.CutPrefix(v, claimPrefix)
		if !ok {
			return v, nil
		}
		return s.claim(path)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			sub, err := s.substitute(item)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			sub, err := s.substitute(item)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	}
	return v, nil
}

func (s *Source) claim(path string) (any, error) {
	var cur any = s.claims
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingClaim, path)
		}
		cur, ok = m[part]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingClaim, path)
		}
	}
	return cur, nil
}
