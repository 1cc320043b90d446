package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherql/internal/schema"
	"github.com/roach88/cypherql/internal/translate"
)

// AttributeInfo describes one attribute.
type AttributeInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Property string `json:"property,omitempty"` // database name when aliased
	Cypher   bool   `json:"cypher,omitempty"`
}

// RelationshipInfo describes one relationship.
type RelationshipInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Direction  string `json:"direction"`
	Target     string `json:"target"`
	List       bool   `json:"list"`
	Properties string `json:"properties,omitempty"`
}

// EntityInfo describes one entity and its root fields.
type EntityInfo struct {
	Name          string             `json:"name"`
	Kind          string             `json:"kind"` // node, interface or union
	Labels        []string           `json:"labels,omitempty"`
	Members       []string           `json:"members,omitempty"`
	RootFields    []string           `json:"root_fields"`
	Attributes    []AttributeInfo    `json:"attributes"`
	Relationships []RelationshipInfo `json:"relationships"`
}

// SchemaResult is the schema command output.
type SchemaResult struct {
	Path       string       `json:"path"`
	SchemaHash string       `json:"schema_hash"`
	Entities   []EntityInfo `json:"entities"`
}

// RenderText implements TextRenderer.
func (r SchemaResult) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Schema %s (%s)\n", r.Path, shortHash(r.SchemaHash))
	for _, e := range r.Entities {
		fmt.Fprintln(w)
		switch e.Kind {
		case "node":
			fmt.Fprintf(w, "%s :%s\n", e.Name, strings.Join(e.Labels, ":"))
		default:
			fmt.Fprintf(w, "%s %s of %s\n", e.Kind, e.Name, strings.Join(e.Members, " | "))
		}
		fmt.Fprintf(w, "  root: %s\n", strings.Join(e.RootFields, ", "))
		for _, a := range e.Attributes {
			line := fmt.Sprintf("  %s: %s", a.Name, a.Type)
			if a.Property != "" {
				line += fmt.Sprintf(" (property %s)", a.Property)
			}
			if a.Cypher {
				line += " (cypher)"
			}
			fmt.Fprintln(w, line)
		}
		for _, rel := range e.Relationships {
			arrow := fmt.Sprintf("-[:%s]->", rel.Type)
			if rel.Direction == string(schema.DirectionIn) {
				arrow = fmt.Sprintf("<-[:%s]-", rel.Type)
			}
			target := rel.Target
			if rel.List {
				target = "[" + target + "]"
			}
			fmt.Fprintf(w, "  %s: %s %s\n", rel.Name, arrow, target)
		}
	}
	return nil
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the schema model",
		Long: `Parse the configured schema and print the entities, attributes and
relationships translation works with, along with the root fields each
entity answers.

Examples:
  cypherql schema
  cypherql schema -s schema.graphql --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
	return cmd
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err, nil)
	}
	sdl, err := readSchema(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err, nil)
	}
	model, err := schema.Parse(sdl)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeSchema, err, nil)
	}

	result := SchemaResult{
		Path:       cfg.SchemaPath(),
		SchemaHash: translate.SchemaHash(sdl),
		Entities:   describeEntities(model),
	}
	return formatter.Success(result)
}

func describeEntities(model *schema.Model) []EntityInfo {
	entities := model.Entities()
	out := make([]EntityInfo, 0, len(entities))
	for _, e := range entities {
		info := EntityInfo{
			Name:          e.EntityName(),
			RootFields:    []string{e.Plural(), e.Plural() + "Connection", e.Plural() + "Aggregate"},
			Attributes:    []AttributeInfo{},
			Relationships: []RelationshipInfo{},
		}

		var (
			attrs []*schema.Attribute
			rels  []*schema.Relationship
		)
		switch e := e.(type) {
		case *schema.ConcreteEntity:
			info.Kind = "node"
			info.Labels = e.Labels
			attrs, rels = e.Attributes(), e.Relationships()
		case *schema.CompositeEntity:
			info.Kind = "interface"
			if e.Kind == schema.KindUnion {
				info.Kind = "union"
			}
			for _, m := range e.ConcreteEntities() {
				info.Members = append(info.Members, m.Name)
			}
			attrs, rels = e.Attributes(), e.Relationships()
		}

		for _, a := range attrs {
			info.Attributes = append(info.Attributes, describeAttribute(a))
		}
		for _, r := range rels {
			info.Relationships = append(info.Relationships, RelationshipInfo{
				Name:       r.Name,
				Type:       r.Type,
				Direction:  string(r.Direction),
				Target:     r.Target.EntityName(),
				List:       r.IsList,
				Properties: r.Properties,
			})
		}
		out = append(out, info)
	}
	return out
}

func describeAttribute(a *schema.Attribute) AttributeInfo {
	typ := string(a.Type.Name)
	if a.Type.IsList {
		typ = "[" + typ + "]"
	}
	if a.Type.Required {
		typ += "!"
	}
	info := AttributeInfo{Name: a.Name, Type: typ, Cypher: a.Cypher != nil}
	if a.DatabaseName != "" && a.DatabaseName != a.Name {
		info.Property = a.DatabaseName
	}
	return info
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
