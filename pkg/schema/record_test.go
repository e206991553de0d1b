package schema

import (
	"testing"

	"github.com/google/uuid"
)

func testUserDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	reg := NewRegistry()
	return reg.MustRegister(userDefinition())
}

func TestNewRecord_SlotsAndDefaults(t *testing.T) {
	desc := testUserDescriptor(t)
	rec := NewRecord(desc)

	if rec.Get("name") != nil {
		t.Errorf("Expected nil for unset field, got %v", rec.Get("name"))
	}
	if rec.Get("active") != true {
		t.Errorf("Expected default true for active, got %v", rec.Get("active"))
	}

	assoc := rec.Association("orders")
	if assoc.State != AssocUnloaded {
		t.Errorf("Expected orders to start unloaded, got %v", assoc.State)
	}
}

func TestRecord_SetIsCopyOnWrite(t *testing.T) {
	desc := testUserDescriptor(t)
	rec := NewRecord(desc)

	updated, err := rec.Set("name", "Al")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if rec.Get("name") != nil {
		t.Error("Original record was mutated")
	}
	if updated.Get("name") != "Al" {
		t.Errorf("Expected \"Al\", got %v", updated.Get("name"))
	}
}

func TestRecord_SetUnknownField(t *testing.T) {
	desc := testUserDescriptor(t)
	rec := NewRecord(desc)

	_, err := rec.Set("ghost", 1)
	if _, ok := err.(*UnknownFieldError); !ok {
		t.Fatalf("Expected UnknownFieldError, got %T", err)
	}
}

func TestRecord_WithAssociationThreeStates(t *testing.T) {
	desc := testUserDescriptor(t)
	rec := NewRecord(desc)

	empty, err := rec.WithAssociation("orders", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if empty.Association("orders").State != AssocLoadedEmpty {
		t.Error("Expected LoadedEmpty for empty load")
	}

	child := NewRecord(desc)
	loaded, err := rec.WithAssociation("orders", []*Record{child})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded.Association("orders").State != AssocLoaded {
		t.Error("Expected Loaded for populated load")
	}
	if len(loaded.Association("orders").Records) != 1 {
		t.Error("Expected one loaded record")
	}

	// Original still untouched.
	if rec.Association("orders").State != AssocUnloaded {
		t.Error("Original record's association was mutated")
	}
}

func TestRecord_FromRowToRow(t *testing.T) {
	desc := testUserDescriptor(t)
	id := uuid.New()

	rec, err := FromRow(desc, Row{
		"id":    id.String(),
		"email": "al@mail.com",
		"name":  "Al",
		"age":   int64(30),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if rec.Get("id") != id {
		t.Errorf("Expected id loaded as uuid, got %v (%T)", rec.Get("id"), rec.Get("id"))
	}
	if rec.PrimaryKeyValue() != id {
		t.Errorf("Expected primary key value %v, got %v", id, rec.PrimaryKeyValue())
	}

	row, err := rec.ToRow()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if row["id"] != id.String() {
		t.Errorf("Expected id dumped to string, got %v (%T)", row["id"], row["id"])
	}
	if row["age"] != int64(30) {
		t.Errorf("Expected age 30, got %v", row["age"])
	}
}

func TestRecord_FromRowBadValue(t *testing.T) {
	desc := testUserDescriptor(t)

	_, err := FromRow(desc, Row{"id": "not-a-uuid"})
	if err == nil {
		t.Fatal("Expected error for unloadable value")
	}
}
