package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The type registry maps a FieldType kind to its cast/dump/load functions.
// All three are pure: no I/O, no shared state.
//
//	Cast: untrusted input → typed value (permissive on convertible strings,
//	      strict on structurally wrong input)
//	Dump: typed value → storage value
//	Load: storage value → typed value
type typeOps struct {
	cast func(ft FieldType, raw interface{}) (interface{}, error)
	dump func(ft FieldType, v interface{}) (interface{}, error)
	load func(ft FieldType, v interface{}) (interface{}, error)
}

var typeRegistry = map[string]typeOps{
	"String":    {castString, dumpIdentity, loadString},
	"Int":       {castInt, dumpIdentity, loadInt},
	"Float":     {castFloat, dumpIdentity, loadFloat},
	"Decimal":   {castFloat, dumpIdentity, loadFloat},
	"Bool":      {castBool, dumpIdentity, loadBool},
	"UUID":      {castUUID, dumpUUID, loadUUID},
	"Timestamp": {castTimestamp, dumpIdentity, loadTime},
	"Date":      {castDate, dumpIdentity, loadDate},
	"Enum":      {castEnum, dumpIdentity, loadString},
}

// Cast converts raw untrusted input to the typed value for ft.
// A nil raw value casts to (nil, nil): an explicit "no value", distinct
// from a cast failure.
func Cast(ft FieldType, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	ops, ok := typeRegistry[ft.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown field type %q", ft.Kind)
	}
	return ops.cast(ft, raw)
}

// Dump converts a typed value to its storage representation.
func Dump(ft FieldType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	ops, ok := typeRegistry[ft.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown field type %q", ft.Kind)
	}
	return ops.dump(ft, v)
}

// Load converts a storage value back to its typed representation.
func Load(ft FieldType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	ops, ok := typeRegistry[ft.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown field type %q", ft.Kind)
	}
	return ops.load(ft, v)
}

// Cast functions.

func castString(ft FieldType, raw interface{}) (interface{}, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return nil, &CastError{Type: ft, Value: raw}
}

func castInt(ft FieldType, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return int64(v), nil
	case float64:
		// JSON numbers arrive as float64; accept only integral values.
		if v != math.Trunc(v) {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return n, nil
	default:
		return nil, &CastError{Type: ft, Value: raw}
	}
}

func castFloat(ft FieldType, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return f, nil
	default:
		return nil, &CastError{Type: ft, Value: raw}
	}
}

func castBool(ft FieldType, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return nil, &CastError{Type: ft, Value: raw}
}

func castUUID(ft FieldType, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return id, nil
	default:
		return nil, &CastError{Type: ft, Value: raw}
	}
}

func castTimestamp(ft FieldType, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return t.UTC(), nil
	default:
		return nil, &CastError{Type: ft, Value: raw}
	}
}

const dateLayout = "2006-01-02"

func castDate(ft FieldType, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case time.Time:
		return truncateDate(v), nil
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, &CastError{Type: ft, Value: raw}
		}
		return t, nil
	default:
		return nil, &CastError{Type: ft, Value: raw}
	}
}

func castEnum(ft FieldType, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, &CastError{Type: ft, Value: raw}
	}
	for _, allowed := range ft.EnumValues() {
		if s == allowed {
			return s, nil
		}
	}
	return nil, &CastError{Type: ft, Value: raw}
}

// Dump and load functions for the storage representation.

func dumpIdentity(_ FieldType, v interface{}) (interface{}, error) {
	return v, nil
}

func dumpUUID(ft FieldType, v interface{}) (interface{}, error) {
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil, &CastError{Type: ft, Value: v}
	}
	return id.String(), nil
}

func loadString(ft FieldType, v interface{}) (interface{}, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, &CastError{Type: ft, Value: v}
}

func loadInt(ft FieldType, v interface{}) (interface{}, error) {
	return castInt(ft, v)
}

func loadFloat(ft FieldType, v interface{}) (interface{}, error) {
	return castFloat(ft, v)
}

func loadBool(ft FieldType, v interface{}) (interface{}, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, &CastError{Type: ft, Value: v}
}

func loadUUID(ft FieldType, v interface{}) (interface{}, error) {
	return castUUID(ft, v)
}

func loadTime(ft FieldType, v interface{}) (interface{}, error) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	return castTimestamp(ft, v)
}

func loadDate(ft FieldType, v interface{}) (interface{}, error) {
	if t, ok := v.(time.Time); ok {
		return truncateDate(t), nil
	}
	return castDate(ft, v)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
