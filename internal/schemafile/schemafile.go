// Package schemafile parses YAML schema definition files into registrable
// definitions. The file format mirrors what application code would declare
// directly, so the CLI can validate a project's schemas without compiling
// them.
package schemafile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strataorm/strata/pkg/schema"
)

// File is the top-level YAML document.
type File struct {
	Kinds []Kind `yaml:"kinds"`
}

// Kind declares one record kind.
type Kind struct {
	Name              string        `yaml:"name"`
	Source            string        `yaml:"source"`
	WithoutPrimaryKey bool          `yaml:"without_primary_key"`
	Fields            []Field       `yaml:"fields"`
	Associations      []Association `yaml:"associations"`
}

// Field declares one field of a kind.
type Field struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Values     []string    `yaml:"values"` // Enum only
	Default    interface{} `yaml:"default"`
	PrimaryKey bool        `yaml:"primary_key"`
	Nullable   bool        `yaml:"nullable"`
	Unique     bool        `yaml:"unique"`
}

// Association declares a relationship to another kind.
type Association struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Target     string `yaml:"target"`
	ForeignKey string `yaml:"foreign_key"`
}

// Load reads and converts one schema definition file.
func Load(path string) ([]schema.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse converts YAML content into definitions.
func Parse(data []byte) ([]schema.Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	defs := make([]schema.Definition, 0, len(f.Kinds))
	for _, k := range f.Kinds {
		def := schema.Definition{
			Name:              k.Name,
			Source:            k.Source,
			WithoutPrimaryKey: k.WithoutPrimaryKey,
		}
		for _, fd := range k.Fields {
			ft, err := fieldType(fd)
			if err != nil {
				return nil, fmt.Errorf("kind %q, field %q: %w", k.Name, fd.Name, err)
			}
			def.Fields = append(def.Fields, schema.FieldSpec{
				Name:       fd.Name,
				Type:       ft,
				Default:    fd.Default,
				PrimaryKey: fd.PrimaryKey,
				Nullable:   fd.Nullable,
				Unique:     fd.Unique,
			})
		}
		for _, a := range k.Associations {
			kind, err := assocKind(a.Kind)
			if err != nil {
				return nil, fmt.Errorf("kind %q, association %q: %w", k.Name, a.Name, err)
			}
			def.Associations = append(def.Associations, schema.AssociationSpec{
				Name:       a.Name,
				Kind:       kind,
				Target:     a.Target,
				ForeignKey: a.ForeignKey,
			})
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// RegisterAll registers every definition into reg, stopping at the first
// failure.
func RegisterAll(reg *schema.Registry, defs []schema.Definition) error {
	for _, def := range defs {
		if _, err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func fieldType(f Field) (schema.FieldType, error) {
	switch f.Type {
	case "String":
		return schema.TypeString, nil
	case "Int":
		return schema.TypeInt, nil
	case "Float":
		return schema.TypeFloat, nil
	case "Bool":
		return schema.TypeBool, nil
	case "Decimal":
		return schema.TypeDecimal, nil
	case "UUID":
		return schema.TypeUUID, nil
	case "Timestamp":
		return schema.TypeTimestamp, nil
	case "Date":
		return schema.TypeDate, nil
	case "Enum":
		if len(f.Values) == 0 {
			return schema.FieldType{}, fmt.Errorf("enum type needs a values list")
		}
		return schema.TypeEnum(f.Values...), nil
	default:
		return schema.FieldType{}, fmt.Errorf("unknown field type %q", f.Type)
	}
}

func assocKind(s string) (schema.AssociationKind, error) {
	switch s {
	case "HasOne":
		return schema.HasOne, nil
	case "HasMany":
		return schema.HasMany, nil
	case "BelongsTo":
		return schema.BelongsTo, nil
	default:
		return "", fmt.Errorf("unknown association kind %q", s)
	}
}
