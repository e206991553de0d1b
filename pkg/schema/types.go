package schema

import "fmt"

// FieldType describes the declared type of a field. Simple kinds carry no
// parameter; Enum carries the list of allowed values.
type FieldType struct {
	Kind  string
	Param interface{} // e.g. allowed values for Enum
}

// Simple field type constants
var (
	TypeString    = FieldType{Kind: "String"}
	TypeInt       = FieldType{Kind: "Int"}
	TypeFloat     = FieldType{Kind: "Float"}
	TypeBool      = FieldType{Kind: "Bool"}
	TypeDecimal   = FieldType{Kind: "Decimal"}
	TypeUUID      = FieldType{Kind: "UUID"}
	TypeTimestamp = FieldType{Kind: "Timestamp"}
	TypeDate      = FieldType{Kind: "Date"}
)

// TypeEnum returns an enum field type restricted to the given values.
func TypeEnum(values ...string) FieldType {
	return FieldType{Kind: "Enum", Param: values}
}

// EnumValues returns the allowed values of an Enum type, or nil for other kinds.
func (ft FieldType) EnumValues() []string {
	vs, _ := ft.Param.([]string)
	return vs
}

// String returns a string representation of the FieldType
func (ft FieldType) String() string {
	if ft.Param == nil {
		return ft.Kind
	}
	return fmt.Sprintf("%s(%v)", ft.Kind, ft.Param)
}

// FieldSpec describes a single field of a record kind. Immutable once the
// owning definition has been registered.
type FieldSpec struct {
	Name       string
	Type       FieldType
	Default    interface{}
	PrimaryKey bool
	Nullable   bool
	Unique     bool
}

// AssociationKind represents the type of relationship between record kinds.
type AssociationKind string

const (
	HasOne    AssociationKind = "HasOne"
	HasMany   AssociationKind = "HasMany"
	BelongsTo AssociationKind = "BelongsTo"
)

// AssociationSpec describes a relationship to another record kind.
// Target is the registered name of the related kind; ForeignKey is the
// field holding the reference (on the target side for has_one/has_many,
// on the owning side for belongs_to).
type AssociationSpec struct {
	Name       string
	Kind       AssociationKind
	Target     string
	ForeignKey string
}

// Definition is the application-declared metadata for a record kind,
// handed to Register once at startup.
type Definition struct {
	Name         string
	Source       string // storage source name; derived from Name when empty
	Fields       []FieldSpec
	Associations []AssociationSpec

	// WithoutPrimaryKey allows a definition with no primary key field.
	WithoutPrimaryKey bool
}
