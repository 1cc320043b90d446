package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cypherql/internal/authz"
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/translate"
)

// DefaultConcurrency bounds RunAll when no limit is given.
const DefaultConcurrency = 8

// Run translates a scenario's request and checks its expectations.
//
// An error is returned only when the scenario cannot run at all, e.g. its
// schema does not load. A translation failure is part of the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	tr, err := newTranslator(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Name)
	res, terr := tr.Translate(ctx, translate.Request{
		Query:         scenario.Query,
		Variables:     scenario.Variables,
		OperationName: scenario.OperationName,
		Claims:        scenario.Claims,
	})
	switch {
	case terr != nil && errors.Is(terr, ctx.Err()):
		return nil, terr
	case terr != nil:
		result.ErrorCode = errorCode(terr)
	default:
		result.Statements = res.Statements
	}

	for _, msg := range EvaluateExpect(result, scenario.Expect, terr) {
		result.AddError(msg)
	}
	return result, nil
}

// RunAll runs scenarios concurrently, at most concurrency at a time, and
// returns results in scenario order. The first scenario that cannot run
// cancels the rest.
func RunAll(ctx context.Context, scenarios []*Scenario, concurrency int) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, s := range scenarios {
		g.Go(func() error {
			r, err := Run(gctx, s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func newTranslator(s *Scenario) (*translate.Translator, error) {
	sdl := s.SDL
	if s.Schema != "" {
		data, err := os.ReadFile(s.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		sdl = string(data)
	}

	opts := []translate.Option{
		translate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if s.Limits != nil {
		opts = append(opts, translate.WithLimits(s.Limits.Default, s.Limits.Max))
	}
	if len(s.Authorization) > 0 {
		rules := make(authz.Rules, len(s.Authorization))
		for entity, rule := range s.Authorization {
			rules[entity] = authz.Rule{Where: rule.Where}
		}
		opts = append(opts, translate.WithAuthorization(rules))
	}

	tr, err := translate.FromSDL(sdl, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return tr, nil
}

// errorCode reports the most specific code of a translation failure.
func errorCode(err error) string {
	if code := queryast.CodeOf(err); code != "" {
		return string(code)
	}
	if code := translate.CodeOf(err); code != "" {
		return string(code)
	}
	return "UNKNOWN"
}
