package schema

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCast_String(t *testing.T) {
	v, err := Cast(TypeString, "hello")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != "hello" {
		t.Errorf("Expected \"hello\", got %v", v)
	}

	if _, err := Cast(TypeString, 42); err == nil {
		t.Error("Expected CastError for int into String")
	}
}

func TestCast_IntFromString(t *testing.T) {
	v, err := Cast(TypeInt, "42")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != int64(42) {
		t.Errorf("Expected 42, got %v", v)
	}
}

func TestCast_IntRejectsNonNumeric(t *testing.T) {
	_, err := Cast(TypeInt, "thirty")
	if err == nil {
		t.Fatal("Expected error for non-numeric string")
	}
	if !IsCastError(err) {
		t.Errorf("Expected CastError, got %T", err)
	}
}

func TestCast_IntFromFloat(t *testing.T) {
	v, err := Cast(TypeInt, float64(30))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != int64(30) {
		t.Errorf("Expected 30, got %v", v)
	}

	if _, err := Cast(TypeInt, 30.5); err == nil {
		t.Error("Expected error for fractional float into Int")
	}
}

func TestCast_NilIsNoValue(t *testing.T) {
	v, err := Cast(TypeInt, nil)
	if err != nil {
		t.Fatalf("Expected no error for nil, got: %v", err)
	}
	if v != nil {
		t.Errorf("Expected nil value, got %v", v)
	}
}

func TestCast_Float(t *testing.T) {
	v, err := Cast(TypeFloat, "3.25")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != 3.25 {
		t.Errorf("Expected 3.25, got %v", v)
	}

	v, err = Cast(TypeFloat, 7)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != 7.0 {
		t.Errorf("Expected 7.0, got %v", v)
	}
}

func TestCast_Bool(t *testing.T) {
	cases := map[interface{}]bool{
		true:    true,
		"true":  true,
		"1":     true,
		"false": false,
		"0":     false,
	}
	for raw, want := range cases {
		v, err := Cast(TypeBool, raw)
		if err != nil {
			t.Fatalf("Cast(%v): unexpected error %v", raw, err)
		}
		if v != want {
			t.Errorf("Cast(%v): expected %v, got %v", raw, want, v)
		}
	}

	if _, err := Cast(TypeBool, "yes"); err == nil {
		t.Error("Expected error for \"yes\"")
	}
}

func TestCast_UUID(t *testing.T) {
	id := uuid.New()
	v, err := Cast(TypeUUID, id.String())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != id {
		t.Errorf("Expected %v, got %v", id, v)
	}

	if _, err := Cast(TypeUUID, "not-a-valid-uuid"); err == nil {
		t.Error("Expected error for invalid UUID string")
	}
}

func TestCast_Timestamp(t *testing.T) {
	v, err := Cast(TypeTimestamp, "2024-06-01T12:30:00Z")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	ts, ok := v.(time.Time)
	if !ok {
		t.Fatalf("Expected time.Time, got %T", v)
	}
	if ts.Hour() != 12 || ts.Minute() != 30 {
		t.Errorf("Unexpected time: %v", ts)
	}
}

func TestCast_Date(t *testing.T) {
	v, err := Cast(TypeDate, "2024-06-01")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	d := v.(time.Time)
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Errorf("Expected midnight, got %v", d)
	}
}

func TestCast_Enum(t *testing.T) {
	ft := TypeEnum("draft", "published")

	v, err := Cast(ft, "draft")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != "draft" {
		t.Errorf("Expected \"draft\", got %v", v)
	}

	if _, err := Cast(ft, "deleted"); err == nil {
		t.Error("Expected error for value outside enum")
	}
}

// Round-trip law: load(dump(cast(x))) is value-equal to cast(x).
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		ft  FieldType
		raw interface{}
	}{
		{TypeString, "Al"},
		{TypeInt, "42"},
		{TypeFloat, "3.25"},
		{TypeBool, "true"},
		{TypeUUID, uuid.New().String()},
		{TypeTimestamp, "2024-06-01T12:30:00Z"},
		{TypeDate, "2024-06-01"},
		{TypeEnum("a", "b"), "a"},
	}

	for _, c := range cases {
		typed, err := Cast(c.ft, c.raw)
		if err != nil {
			t.Fatalf("%s: cast failed: %v", c.ft, err)
		}
		stored, err := Dump(c.ft, typed)
		if err != nil {
			t.Fatalf("%s: dump failed: %v", c.ft, err)
		}
		back, err := Load(c.ft, stored)
		if err != nil {
			t.Fatalf("%s: load failed: %v", c.ft, err)
		}
		if back != typed {
			t.Errorf("%s: round trip changed value: %v != %v", c.ft, back, typed)
		}
	}
}
