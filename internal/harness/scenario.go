package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one translation test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is a path to an SDL file. Relative paths resolve against
	// the base path given to the loader.
	Schema string `yaml:"schema,omitempty"`

	// SDL is inline schema source, used when Schema is empty.
	SDL string `yaml:"sdl,omitempty"`

	Query         string         `yaml:"query"`
	Variables     map[string]any `yaml:"variables,omitempty"`
	OperationName string         `yaml:"operation_name,omitempty"`
	Claims        map[string]any `yaml:"claims,omitempty"`

	// Authorization maps entity names to rules.
	Authorization map[string]AuthRule `yaml:"authorization,omitempty"`

	Limits *Limits `yaml:"limits,omitempty"`

	// Expect validates the translation. Nil only requires success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// AuthRule gates reads of one entity.
type AuthRule struct {
	Where map[string]any `yaml:"where"`
}

// Limits configures default and maximum list limits.
type Limits struct {
	Default int64 `yaml:"default"`
	Max     int64 `yaml:"max"`
}

// Expect specifies the expected translation.
type Expect struct {
	// Error is the expected error code. Either a translation code such as
	// ATTRIBUTE_NOT_FOUND or a request-level code such as PARSE_ERROR.
	Error string `yaml:"error,omitempty"`

	// Cypher is the exact expected text; surrounding whitespace is ignored.
	Cypher string `yaml:"cypher,omitempty"`

	// Contains lists substrings of the Cypher text.
	Contains []string `yaml:"contains,omitempty"`

	// Params is a subset of the first statement's parameters.
	Params map[string]any `yaml:"params,omitempty"`
}

// LoadScenario reads a scenario, resolving its schema path against the
// scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario, resolving a relative schema
// path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) && basePath != "" {
		scenario.Schema = filepath.Join(basePath, scenario.Schema)
	}
	if scenario.Schema != "" {
		if _, err := os.Stat(scenario.Schema); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: schema file not found: %s", scenario.Schema)
		}
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Query == "" {
		return fmt.Errorf("query is required")
	}

	switch {
	case s.Schema == "" && s.SDL == "":
		return fmt.Errorf("one of schema or sdl is required")
	case s.Schema != "" && s.SDL != "":
		return fmt.Errorf("schema and sdl are mutually exclusive")
	}

	if s.Limits != nil {
		if s.Limits.Default < 0 || s.Limits.Max < 0 {
			return fmt.Errorf("limits must be non-negative")
		}
		if s.Limits.Max > 0 && s.Limits.Default > s.Limits.Max {
			return fmt.Errorf("limits.default %d exceeds limits.max %d", s.Limits.Default, s.Limits.Max)
		}
	}

	for entity, rule := range s.Authorization {
		if len(rule.Where) == 0 {
			return fmt.Errorf("authorization.%s: where is required", entity)
		}
	}

	if e := s.Expect; e != nil && e.Error != "" {
		if e.Cypher != "" || len(e.Contains) > 0 || len(e.Params) > 0 {
			return fmt.Errorf("expect: error excludes other expectations")
		}
	}
	return nil
}
