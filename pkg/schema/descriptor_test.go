package schema

import "testing"

func userDefinition() Definition {
	return Definition{
		Name: "User",
		Fields: []FieldSpec{
			{Name: "id", Type: TypeUUID, PrimaryKey: true},
			{Name: "email", Type: TypeString, Unique: true},
			{Name: "name", Type: TypeString},
			{Name: "age", Type: TypeInt, Nullable: true},
			{Name: "active", Type: TypeBool, Default: true},
		},
		Associations: []AssociationSpec{
			{Name: "orders", Kind: HasMany, Target: "Order", ForeignKey: "user_id"},
		},
	}
}

func TestRegister_Success(t *testing.T) {
	reg := NewRegistry()
	desc, err := reg.Register(userDefinition())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if desc.Name() != "User" {
		t.Errorf("Expected name User, got %s", desc.Name())
	}
	if desc.Source() != "users" {
		t.Errorf("Expected derived source \"users\", got %s", desc.Source())
	}
	if desc.Field("email") == nil {
		t.Error("Expected email field to resolve")
	}
	if desc.Field("nope") != nil {
		t.Error("Expected unknown field to return nil")
	}
	if desc.PrimaryKey() == nil || desc.PrimaryKey().Name != "id" {
		t.Error("Expected id as primary key")
	}
	if desc.Association("orders") == nil {
		t.Error("Expected orders association to resolve")
	}
}

func TestRegister_DerivesSnakeCaseSource(t *testing.T) {
	reg := NewRegistry()
	desc, err := reg.Register(Definition{
		Name:   "OrderItem",
		Fields: []FieldSpec{{Name: "id", Type: TypeUUID, PrimaryKey: true}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if desc.Source() != "order_items" {
		t.Errorf("Expected source \"order_items\", got %s", desc.Source())
	}
}

func TestRegister_ExplicitSourceWins(t *testing.T) {
	reg := NewRegistry()
	desc, err := reg.Register(Definition{
		Name:   "Person",
		Source: "humans",
		Fields: []FieldSpec{{Name: "id", Type: TypeUUID, PrimaryKey: true}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if desc.Source() != "humans" {
		t.Errorf("Expected source \"humans\", got %s", desc.Source())
	}
}

func TestRegister_DuplicateField(t *testing.T) {
	reg := NewRegistry()
	def := Definition{
		Name: "Broken",
		Fields: []FieldSpec{
			{Name: "id", Type: TypeUUID, PrimaryKey: true},
			{Name: "email", Type: TypeString},
			{Name: "email", Type: TypeString},
		},
	}

	_, err := reg.Register(def)
	if err == nil {
		t.Fatal("Expected error for duplicate field")
	}
	dupErr, ok := err.(*DuplicateFieldError)
	if !ok {
		t.Fatalf("Expected DuplicateFieldError, got %T", err)
	}
	if dupErr.Field != "email" {
		t.Errorf("Expected field email, got %s", dupErr.Field)
	}
}

func TestRegister_NoPrimaryKey(t *testing.T) {
	reg := NewRegistry()
	def := Definition{
		Name:   "Audit",
		Fields: []FieldSpec{{Name: "note", Type: TypeString}},
	}

	_, err := reg.Register(def)
	if err == nil {
		t.Fatal("Expected error for missing primary key")
	}
	pkErr, ok := err.(*PrimaryKeyError)
	if !ok {
		t.Fatalf("Expected PrimaryKeyError, got %T", err)
	}
	if pkErr.Count != 0 {
		t.Errorf("Expected count 0, got %d", pkErr.Count)
	}

	// Explicitly primary-key-less is allowed.
	def.WithoutPrimaryKey = true
	desc, err := reg.Register(def)
	if err != nil {
		t.Fatalf("Expected no error with WithoutPrimaryKey, got: %v", err)
	}
	if desc.PrimaryKey() != nil {
		t.Error("Expected nil primary key")
	}
}

func TestRegister_MultiplePrimaryKeys(t *testing.T) {
	reg := NewRegistry()
	def := Definition{
		Name: "Broken",
		Fields: []FieldSpec{
			{Name: "a", Type: TypeUUID, PrimaryKey: true},
			{Name: "b", Type: TypeUUID, PrimaryKey: true},
		},
	}

	_, err := reg.Register(def)
	pkErr, ok := err.(*PrimaryKeyError)
	if !ok {
		t.Fatalf("Expected PrimaryKeyError, got %T", err)
	}
	if pkErr.Count != 2 {
		t.Errorf("Expected count 2, got %d", pkErr.Count)
	}
}

func TestRegister_IdenticalReRegistration(t *testing.T) {
	reg := NewRegistry()
	first, err := reg.Register(userDefinition())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	second, err := reg.Register(userDefinition())
	if err != nil {
		t.Fatalf("Expected identical re-registration to succeed, got: %v", err)
	}
	if first != second {
		t.Error("Expected the same descriptor back")
	}
}

func TestRegister_ConflictingReRegistration(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Register(userDefinition()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	conflicting := userDefinition()
	conflicting.Fields[1].Type = TypeInt

	_, err := reg.Register(conflicting)
	if err == nil {
		t.Fatal("Expected error for conflicting re-registration")
	}
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("Expected ConflictError, got %T", err)
	}
}

func TestLookup(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(userDefinition())

	desc, err := reg.Lookup("User")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if desc.Name() != "User" {
		t.Errorf("Expected User, got %s", desc.Name())
	}

	_, err = reg.Lookup("Ghost")
	if _, ok := err.(*UnknownKindError); !ok {
		t.Fatalf("Expected UnknownKindError, got %T", err)
	}
}

func TestDescriptorMetadataImmutable(t *testing.T) {
	reg := NewRegistry()
	desc := reg.MustRegister(userDefinition())

	// Mutating a returned spec must not reach the descriptor.
	field := desc.Field("email")
	field.Type = TypeInt
	field.Unique = false
	if got := desc.Field("email"); got.Type != TypeString || !got.Unique {
		t.Errorf("Field() leaked mutable internal state: %+v", got)
	}

	assoc := desc.Association("orders")
	assoc.Target = "Invoice"
	if got := desc.Association("orders"); got.Target != "Order" {
		t.Errorf("Association() leaked mutable internal state: %+v", got)
	}

	fields := desc.Fields()
	fields[0].Name = "hacked"
	if desc.Fields()[0].Name == "hacked" {
		t.Error("Fields() leaked mutable internal state")
	}
}
