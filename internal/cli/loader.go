package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/cypherql/internal/authz"
	"github.com/roach88/cypherql/internal/config"
	"github.com/roach88/cypherql/internal/store"
	"github.com/roach88/cypherql/internal/translate"
)

// CLI error codes, reported as CLIError.Code. E0xx codes stop a command
// before anything is translated; E1xx codes come from a translation run.
const (
	ErrCodeGeneric     = "E001" // Unclassified
	ErrCodeNotFound    = "E005" // Config, schema, log or translation missing
	ErrCodeConfig      = "E010" // Invalid config
	ErrCodeSchema      = "E020" // Schema read or parse failed
	ErrCodeStore       = "E030" // Translation log unavailable
	ErrCodeInput       = "E040" // Malformed request input
	ErrCodeParse       = "E100" // Request text does not parse
	ErrCodeTranslation = "E101" // Root field cannot be translated
	ErrCodeRecord      = "E102" // Translation log write failed
	ErrCodeMetrics     = "E110" // Metrics file write failed
)

// LoadError is a failure preparing a command's environment.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadConfig reads the config file. With --schema set a missing config
// file falls back to defaults, and the flag replaces the config's schema.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	switch {
	case err == nil:
	case opts.Schema != "" && errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case errors.Is(err, fs.ErrNotExist):
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", opts.ConfigPath)}
	default:
		return nil, &LoadError{Code: ErrCodeConfig, Message: "invalid config", Err: err}
	}

	if opts.Schema != "" {
		abs, err := filepath.Abs(opts.Schema)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "resolve schema path", Err: err}
		}
		cfg.Schema = abs
	}
	if cfg.Schema == "" {
		return nil, &LoadError{Code: ErrCodeConfig, Message: "no schema configured (set schema in config or pass --schema)"}
	}
	return cfg, nil
}

// readSchema returns the configured schema source.
func readSchema(cfg *config.Config) (string, error) {
	data, err := os.ReadFile(cfg.SchemaPath())
	if os.IsNotExist(err) {
		return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", cfg.SchemaPath())}
	}
	if err != nil {
		return "", &LoadError{Code: ErrCodeSchema, Message: "read schema", Err: err}
	}
	return string(data), nil
}

// environment is everything a translating command needs. The translator
// reports to registry, which writeMetrics exports.
type environment struct {
	cfg        *config.Config
	translator *translate.Translator
	store      *store.Store
	registry   *prometheus.Registry
}

// loadEnvironment loads config and schema and builds a translator that
// logs to logW and records to the configured translation log, if any.
func loadEnvironment(opts *RootOptions, logW io.Writer) (*environment, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	sdl, err := readSchema(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	topts := []translate.Option{
		translate.WithLogger(newLogger(logW, cfg, opts.Verbose)),
		translate.WithLimits(cfg.DefaultLimit, cfg.MaxLimit),
		translate.WithMetrics(translate.NewMetrics(registry)),
	}
	if len(cfg.Authorization) > 0 {
		rules := make(authz.Rules, len(cfg.Authorization))
		for entity, rule := range cfg.Authorization {
			rules[entity] = authz.Rule{Where: rule.Where}
		}
		topts = append(topts, translate.WithAuthorization(rules))
	}

	env := &environment{cfg: cfg, registry: registry}
	if path := cfg.StorePath(); path != "" {
		st, err := store.Open(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeStore, Message: "open translation log", Err: err}
		}
		env.store = st
		topts = append(topts, translate.WithStore(st))
	}

	env.translator, err = translate.FromSDL(sdl, topts...)
	if err != nil {
		env.Close()
		return nil, &LoadError{Code: ErrCodeSchema, Message: "invalid schema", Err: err}
	}
	return env, nil
}

// writeMetrics writes the translator's metrics to path in the Prometheus
// text format, for a node exporter textfile collector. An empty path
// writes nothing.
func (e *environment) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return &LoadError{Code: ErrCodeMetrics, Message: "write metrics", Err: err}
	}
	return nil
}

// Close releases the translation log.
func (e *environment) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// loadErrorCode extracts the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
