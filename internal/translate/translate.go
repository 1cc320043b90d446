package translate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/cypherql/internal/authz"
	"github.com/roach88/cypherql/internal/canonical"
	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/querycypher"
	"github.com/roach88/cypherql/internal/queryfactory"
	"github.com/roach88/cypherql/internal/request"
	"github.com/roach88/cypherql/internal/schema"
	"github.com/roach88/cypherql/internal/store"
)

// Operation kinds reported in results, logs and metrics.
const (
	OperationRead       = "read"
	OperationConnection = "connection"
	OperationAggregate  = "aggregate"
)

// Recorder persists translations. *store.Store implements it.
type Recorder interface {
	WriteTranslation(ctx context.Context, tr store.Translation) (string, bool, error)
}

// Request is one GraphQL request to translate.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`

	// Claims are the caller's JWT claims, read by authorization rules.
	Claims map[string]any `json:"claims,omitempty"`
}

// Statement is the translation of one root field.
type Statement struct {
	Field     string         `json:"field"`
	Operation string         `json:"operation"`
	Cypher    string         `json:"cypher"`
	Params    map[string]any `json:"params"`

	// ID is the translation log id, set when a store is configured.
	ID string `json:"id,omitempty"`

	// Offset is the index of the first returned edge of a connection,
	// for ShapeConnection.
	Offset int64 `json:"offset,omitempty"`
}

// Result is the translation of a request.
type Result struct {
	RequestHash string      `json:"request_hash"`
	Statements  []Statement `json:"statements"`
}

// Translator translates requests against one schema. It is safe for
// concurrent use.
type Translator struct {
	model        *schema.Model
	schemaHash   string
	logger       *slog.Logger
	rules        authz.Rules
	defaultLimit int64
	maxLimit     int64
	recorder     Recorder
	metrics      *Metrics
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithAuthorization gates reads with rules evaluated against each
// request's claims.
func WithAuthorization(rules authz.Rules) Option {
	return func(t *Translator) {
		t.rules = rules
	}
}

// WithLimits sets the default and maximum list limits. Zero disables either.
func WithLimits(defaultLimit, maxLimit int64) Option {
	return func(t *Translator) {
		t.defaultLimit = defaultLimit
		t.maxLimit = maxLimit
	}
}

// WithStore records every translated statement to rec.
func WithStore(rec Recorder) Option {
	return func(t *Translator) {
		t.recorder = rec
	}
}

// WithMetrics instruments the translator.
func WithMetrics(m *Metrics) Option {
	return func(t *Translator) {
		t.metrics = m
	}
}

// WithSchemaHash sets the schema hash recorded with translations.
func WithSchemaHash(hash string) Option {
	return func(t *Translator) {
		t.schemaHash = hash
	}
}

// New creates a Translator over model.
func New(model *schema.Model, opts ...Option) *Translator {
	t := &Translator{
		model:  model,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromSDL parses sdl and creates a Translator whose schema hash is the
// hash of sdl.
func FromSDL(sdl string, opts ...Option) (*Translator, error) {
	model, err := schema.Parse(sdl)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithSchemaHash(SchemaHash(sdl))}, opts...)
	return New(model, opts...), nil
}

// SchemaHash hashes schema source text.
func SchemaHash(sdl string) string {
	return canonical.HashBytes(canonical.DomainSchema, []byte(sdl))
}

// Model returns the schema model.
func (t *Translator) Model() *schema.Model {
	return t.model
}

// Translate translates every root field of the request's operation.
// Fields are translated in request order; the first failure aborts the
// request.
func (t *Translator) Translate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		t.metrics.observeDuration(time.Since(start).Seconds())
	}()

	reqHash, err := RequestHash(req)
	if err != nil {
		return nil, t.fail(&Error{Code: ErrCodeParse, Err: err}, "")
	}

	doc, err := request.Parse(req.Query, req.Variables, req.OperationName)
	if err != nil {
		return nil, t.fail(&Error{Code: ErrCodeParse, Err: err}, "")
	}

	factory := t.factory(req.Claims)
	res := &Result{RequestHash: reqHash, Statements: make([]Statement, 0, len(doc.Fields))}

	for _, field := range doc.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st, err := t.translateField(factory, field)
		if err != nil {
			return nil, t.fail(&Error{Code: ErrCodeTranslate, Field: field.ResponseKey(), Err: err}, st.Operation)
		}

		if t.recorder != nil {
			id, _, err := t.recorder.WriteTranslation(ctx, store.Translation{
				RequestHash: reqHash,
				SchemaHash:  t.schemaHash,
				RootField:   st.Field,
				Operation:   st.Operation,
				Cypher:      st.Cypher,
				CypherHash:  canonical.HashBytes(canonical.DomainCypher, []byte(st.Cypher)),
				Params:      st.Params,
			})
			if err != nil {
				return nil, t.fail(&Error{Code: ErrCodeRecord, Field: st.Field, Err: err}, st.Operation)
			}
			st.ID = id
		}

		t.metrics.observe(st.Operation, "ok")
		t.logger.Debug("translate.done",
			"request_hash", reqHash,
			"field", st.Field,
			"operation", st.Operation,
			"cypher", st.Cypher,
			"params", len(st.Params),
		)
		res.Statements = append(res.Statements, st)
	}
	return res, nil
}

func (t *Translator) factory(claims map[string]any) *queryfactory.Factory {
	opts := []queryfactory.Option{queryfactory.WithLimits(t.defaultLimit, t.maxLimit)}
	if len(t.rules) > 0 {
		opts = append(opts, queryfactory.WithAuthorization(t.rules.WithClaims(claims)))
	}
	return queryfactory.New(t.model, opts...)
}

// translateField builds and compiles one root field. The returned
// statement carries the operation kind even on failure, once known.
func (t *Translator) translateField(factory *queryfactory.Factory, field *request.Field) (Statement, error) {
	st := Statement{Field: field.ResponseKey()}

	ast, err := factory.CreateQueryAST(field)
	if err != nil {
		return st, err
	}
	st.Operation = operationKind(ast.Operation)
	if op, ok := ast.Operation.(*queryast.ConnectionReadOperation); ok && op.Pagination != nil && op.Pagination.Skip != nil {
		st.Offset = *op.Pagination.Skip
	}

	compiled, err := querycypher.Compile(ast)
	if err != nil {
		return st, err
	}
	st.Cypher = compiled.Cypher
	st.Params = compiled.Params
	return st, nil
}

func (t *Translator) fail(err *Error, operation string) error {
	if operation == "" {
		operation = "unknown"
	}
	t.metrics.observe(operation, "error")
	t.logger.Warn("translate.failed",
		"code", string(err.Code),
		"field", err.Field,
		"error", err.Err,
	)
	return err
}

func operationKind(op queryast.Operation) string {
	switch op.(type) {
	case *queryast.ConnectionReadOperation:
		return OperationConnection
	case *queryast.AggregationOperation:
		return OperationAggregate
	default:
		return OperationRead
	}
}

// RequestHash is the canonical content hash of a request. Requests that
// differ only in map order or Unicode normalisation hash the same.
func RequestHash(req Request) (string, error) {
	content := map[string]any{
		"query":         req.Query,
		"operationName": req.OperationName,
	}
	if len(req.Variables) > 0 {
		content["variables"] = request.Normalize(req.Variables)
	}
	if len(req.Claims) > 0 {
		content["claims"] = request.Normalize(req.Claims)
	}
	h, err := canonical.Hash(canonical.DomainRequest, content)
	if err != nil {
		return "", fmt.Errorf("request hash: %w", err)
	}
	return h, nil
}
