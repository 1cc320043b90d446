package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherql/internal/config"
	"github.com/roach88/cypherql/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database    string
	ID          string
	RequestHash string
	SchemaHash  string
	Limit       int
}

// HistoryResult is the history command output.
type HistoryResult struct {
	Translations []store.Translation `json:"translations"`
}

// RenderText implements TextRenderer.
func (r HistoryResult) RenderText(w io.Writer) error {
	if len(r.Translations) == 0 {
		fmt.Fprintln(w, "No translations recorded.")
		return nil
	}
	for i, tr := range r.Translations {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%d] %s %s (%s) request=%s\n", tr.Seq, tr.ID, tr.RootField, tr.Operation, shortHash(tr.RequestHash))
		for _, line := range strings.Split(tr.Cypher, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the translation log",
		Long: `List recorded translations, most recent first.

The log is the database named by store.path in the config, or --db.

Examples:
  cypherql history
  cypherql history --db ./cypherql.db --limit 5
  cypherql history --request <request-hash>
  cypherql history --id <translation-id> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to translation log (overrides config)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show one translation")
	cmd.Flags().StringVar(&opts.RequestHash, "request", "", "show the translations of one request")
	cmd.Flags().StringVar(&opts.SchemaHash, "schema-hash", "", "only translations against this schema")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum translations to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path, err := historyDatabase(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err, nil)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("translation log not found: %s", path), nil)
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	defer st.Close()

	formatter.VerboseLog("Reading translation log %s", path)

	ctx := cmd.Context()
	var rows []store.Translation
	switch {
	case opts.ID != "":
		tr, err := st.ReadTranslation(ctx, opts.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Errorf("translation not found: %s", opts.ID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
		}
		rows = []store.Translation{tr}
	case opts.RequestHash != "":
		rows, err = st.FindByRequest(ctx, opts.RequestHash)
	default:
		rows, err = st.ListTranslations(ctx, store.ListOptions{SchemaHash: opts.SchemaHash, Limit: opts.Limit})
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}

	return formatter.Success(HistoryResult{Translations: rows})
}

func historyDatabase(opts *HistoryOptions) (string, error) {
	if opts.Database != "" {
		return opts.Database, nil
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return "", &LoadError{Code: ErrCodeConfig, Message: "load config", Err: err}
	}
	if cfg.StorePath() == "" {
		return "", &LoadError{Code: ErrCodeStore, Message: "no translation log configured (set store.path or pass --db)"}
	}
	return cfg.StorePath(), nil
}
