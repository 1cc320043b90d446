// Package config loads cypherql configuration from CUE.
//
// A config file is plain CUE data unified with the embedded #Config
// definition, which supplies defaults and rejects unknown fields:
//
//	schema:       "schema.graphql"
//	defaultLimit: 50
//	maxLimit:     500
//	log: level: "debug"
//	store: path: "cypherql.db"
//	authorization: Movie: where: {public: true}
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed config.cue
var definitionCUE string

// Config is the decoded configuration.
type Config struct {
	Schema        string              `json:"schema"`
	DefaultLimit  int64               `json:"defaultLimit"`
	MaxLimit      int64               `json:"maxLimit"`
	Log           Log                 `json:"log"`
	Store         Store               `json:"store"`
	Authorization map[string]AuthRule `json:"authorization"`

	// dir is the directory of the config file; relative paths resolve
	// against it.
	dir string
}

// Log configures the slog handler.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Store configures the translation log.
type Store struct {
	Path string `json:"path"`
}

// AuthRule gates reads of one entity with a where object. String values
// of the form "$jwt.<claim>" are replaced by request claims.
type AuthRule struct {
	Where map[string]any `json:"where"`
}

// Error reports an invalid configuration with its CUE position when known.
type Error struct {
	File    string
	Message string
}

func (e *Error) Error() string {
	if e.File == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %s: %s", e.File, e.Message)
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	return &Config{Log: Log{Level: "info", Format: "text"}}
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse validates CUE source against #Config and decodes it. filename is
// used in error messages only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(definitionCUE, cue.Filename("config.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile config definition: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &Error{File: filename, Message: errors.Details(err, nil)}
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{File: filename, Message: errors.Details(err, nil)}
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, &Error{File: filename, Message: errors.Details(err, nil)}
	}
	if cfg.MaxLimit > 0 && cfg.DefaultLimit > cfg.MaxLimit {
		return nil, &Error{File: filename, Message: fmt.Sprintf("defaultLimit %d exceeds maxLimit %d", cfg.DefaultLimit, cfg.MaxLimit)}
	}
	return &cfg, nil
}

// SchemaPath is the schema file resolved against the config directory.
func (c *Config) SchemaPath() string {
	return c.resolve(c.Schema)
}

// StorePath is the translation log path resolved against the config
// directory, or empty when recording is disabled.
func (c *Config) StorePath() string {
	if c.Store.Path == "" || c.Store.Path == ":memory:" {
		return c.Store.Path
	}
	return c.resolve(c.Store.Path)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// SlogLevel maps the configured level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
