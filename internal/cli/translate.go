package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherql/internal/queryast"
	"github.com/roach88/cypherql/internal/translate"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Query         string
	Variables     string // JSON object
	Claims        string // JSON object
	OperationName string
	MetricsFile   string
}

// translationOutput renders a translation result as text.
type translationOutput struct {
	*translate.Result
}

func (o translationOutput) RenderText(w io.Writer) error {
	for i, st := range o.Statements {
		if i > 0 {
			fmt.Fprintln(w)
		}
		params, err := json.Marshal(st.Params)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "// %s (%s)\n%s\n// params %s\n", st.Field, st.Operation, st.Cypher, params)
	}
	return nil
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate [request-file]",
		Short: "Translate a GraphQL request to Cypher",
		Long: `Translate a GraphQL read request into Cypher, one statement per root field.

The request is read from --query, from the given file, or from stdin.
Variables and claims are JSON objects. Claims feed authorization rules.

Exit codes:
  0 - Request translated
  1 - Request could not be translated
  2 - Command error (missing config or schema, bad input)

Examples:
  cypherql translate -q '{ movies { title } }'
  cypherql translate request.graphql --variables '{"title": "Heat"}'
  cypherql translate -s schema.graphql -q '{ moviesAggregate { count } }' --format json
  cypherql translate request.graphql --metrics-file /var/lib/node_exporter/cypherql.prom`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "GraphQL request text")
	cmd.Flags().StringVar(&opts.Variables, "variables", "", "request variables as a JSON object")
	cmd.Flags().StringVar(&opts.Claims, "claims", "", "JWT claims as a JSON object")
	cmd.Flags().StringVar(&opts.OperationName, "operation", "", "operation to translate when the request has several")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write translation metrics to this file (Prometheus text format)")

	return cmd
}

func runTranslate(opts *TranslateOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	req, err := readRequest(opts, args, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, err, nil)
	}

	env, err := loadEnvironment(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err, nil)
	}
	defer env.Close()

	formatter.VerboseLog("Translating against %s", env.cfg.SchemaPath())

	res, err := env.translator.Translate(cmd.Context(), req)
	if merr := env.writeMetrics(opts.MetricsFile); merr != nil {
		return formatter.Fail(ExitCommandError, ErrCodeMetrics, merr, nil)
	}
	if err != nil {
		code, details := translateErrorCode(err)
		return formatter.Fail(ExitFailure, code, err, details)
	}

	if opts.Format == "json" {
		return formatter.Success(res)
	}
	return formatter.Success(translationOutput{res})
}

// readRequest assembles the request from flags, a file argument or stdin.
func readRequest(opts *TranslateOptions, args []string, stdin io.Reader) (translate.Request, error) {
	req := translate.Request{Query: opts.Query, OperationName: opts.OperationName}

	switch {
	case req.Query != "" && len(args) > 0:
		return req, fmt.Errorf("pass the request with --query or as a file, not both")
	case req.Query != "":
	case len(args) > 0 && args[0] != "-":
		data, err := os.ReadFile(args[0])
		if err != nil {
			return req, fmt.Errorf("read request: %w", err)
		}
		req.Query = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return req, fmt.Errorf("read request: %w", err)
		}
		req.Query = string(data)
	}
	if len(bytes.TrimSpace([]byte(req.Query))) == 0 {
		return req, fmt.Errorf("empty request")
	}

	var err error
	if req.Variables, err = decodeObject("variables", opts.Variables); err != nil {
		return req, err
	}
	if req.Claims, err = decodeObject("claims", opts.Claims); err != nil {
		return req, err
	}
	return req, nil
}

// decodeObject decodes a JSON object flag. Numbers stay json.Number so
// integers are not widened to float64.
func decodeObject(name, text string) (map[string]any, error) {
	if text == "" {
		return nil, nil
	}
	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return obj, nil
}

// translateErrorCode maps a translation failure to a CLI code and, for
// schema-level failures, the translation error code as details.
func translateErrorCode(err error) (string, any) {
	var details any
	if code := queryast.CodeOf(err); code != "" {
		details = map[string]string{"translation_code": string(code)}
	}
	switch translate.CodeOf(err) {
	case translate.ErrCodeParse:
		return ErrCodeParse, details
	case translate.ErrCodeRecord:
		return ErrCodeRecord, details
	case translate.ErrCodeTranslate:
		return ErrCodeTranslation, details
	}
	return ErrCodeGeneric, details
}
