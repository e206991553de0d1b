package changeset

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/strataorm/strata/pkg/schema"
)

func TestValidators_OnlyRunAgainstChanges(t *testing.T) {
	base := baseUser(t)
	base, _ = base.Set("email", "not-an-email")
	base, _ = base.Set("age", int64(-5))

	// Neither field changed this round, so neither validator fires even
	// though the base values would fail.
	cs := Cast(base, map[string]interface{}{"name": "Al"}, nil, []string{"name"}).
		ValidateFormat("email", regexp.MustCompile(`@`)).
		ValidateNumber("age", Min(0))

	if !cs.Valid() {
		t.Fatalf("Unchanged fields must not be validated, errors: %v", cs.Errors())
	}
}

func TestValidators_Accumulate(t *testing.T) {
	base := baseUser(t)

	cs := Cast(base, map[string]interface{}{
		"email": "bad",
		"age":   "200",
	}, nil, []string{"email", "age"}).
		ValidateFormat("email", regexp.MustCompile(`@`)).
		ValidateLength("email", 5, 100).
		ValidateNumber("age", Max(150))

	errs := cs.Errors()
	if len(errs) != 3 {
		t.Fatalf("Expected 3 accumulated errors, got %d: %v", len(errs), errs)
	}
}

func TestValidateFormat(t *testing.T) {
	base := baseUser(t)
	re := regexp.MustCompile(`^[^@]+@[^@]+$`)

	ok := Cast(base, map[string]interface{}{"email": "al@mail.com"}, nil, []string{"email"}).
		ValidateFormat("email", re)
	if !ok.Valid() {
		t.Errorf("Expected valid, errors: %v", ok.Errors())
	}

	bad := Cast(base, map[string]interface{}{"email": "nope"}, nil, []string{"email"}).
		ValidateFormat("email", re)
	if bad.Valid() {
		t.Error("Expected format error")
	}
	if bad.Errors()[0].Message != "has invalid format" {
		t.Errorf("Unexpected message %q", bad.Errors()[0].Message)
	}
}

func TestValidateInclusionExclusion(t *testing.T) {
	base := baseUser(t)

	cs := Cast(base, map[string]interface{}{"name": "root"}, nil, []string{"name"})

	if out := cs.ValidateInclusion("name", "root", "admin"); !out.Valid() {
		t.Errorf("Expected inclusion pass, errors: %v", out.Errors())
	}
	if out := cs.ValidateInclusion("name", "alice", "bob"); out.Valid() {
		t.Error("Expected inclusion failure")
	}
	if out := cs.ValidateExclusion("name", "root", "admin"); out.Valid() {
		t.Error("Expected exclusion failure for reserved name")
	} else if out.Errors()[0].Message != "is reserved" {
		t.Errorf("Unexpected message %q", out.Errors()[0].Message)
	}
	if out := cs.ValidateExclusion("name", "alice"); !out.Valid() {
		t.Errorf("Expected exclusion pass, errors: %v", out.Errors())
	}
}

func TestValidateLength(t *testing.T) {
	base := baseUser(t)
	cs := Cast(base, map[string]interface{}{"name": "Al"}, nil, []string{"name"})

	if out := cs.ValidateLength("name", 1, 10); !out.Valid() {
		t.Errorf("Expected in-bounds, errors: %v", out.Errors())
	}
	if out := cs.ValidateLength("name", 3, -1); out.Valid() {
		t.Error("Expected too-short error")
	}
	if out := cs.ValidateLength("name", -1, 1); out.Valid() {
		t.Error("Expected too-long error")
	}
}

func TestValidateNumber(t *testing.T) {
	base := baseUser(t)
	cs := Cast(base, map[string]interface{}{"age": "30"}, nil, []string{"age"})

	if out := cs.ValidateNumber("age", Min(18), Max(150)); !out.Valid() {
		t.Errorf("Expected in-bounds, errors: %v", out.Errors())
	}
	if out := cs.ValidateNumber("age", GreaterThan(30)); out.Valid() {
		t.Error("Expected strict bound failure")
	}
	if out := cs.ValidateNumber("age", LessThan(31)); !out.Valid() {
		t.Errorf("Expected strict bound pass, errors: %v", out.Errors())
	}
	// Both bounds can fail in one pass.
	out := cs.ValidateNumber("age", Min(40), LessThan(20))
	if len(out.Errors()) != 2 {
		t.Errorf("Expected 2 errors, got %v", out.Errors())
	}
}

func TestValidateChange(t *testing.T) {
	base := baseUser(t)
	cs := Cast(base, map[string]interface{}{"name": "Al"}, nil, []string{"name"})

	out := cs.ValidateChange("name", func(v interface{}) string {
		if v == "Al" {
			return "is too informal"
		}
		return ""
	})
	if out.Valid() || out.Errors()[0].Message != "is too informal" {
		t.Errorf("Expected custom rule error, got %v", out.Errors())
	}
}

func TestValidateRequired_AfterChange(t *testing.T) {
	base := baseUser(t)

	cs := Change(base, map[string]interface{}{"name": "Al"}).
		ValidateRequired("name", "email")

	errs := cs.Errors()
	if len(errs) != 1 || errs[0].Field != "email" {
		t.Errorf("Expected only email blank, got %v", errs)
	}
}

// fakeChecker answers uniqueness lookups from a canned map, or fails.
type fakeChecker struct {
	taken map[string]bool
	err   error
	calls int
}

func (f *fakeChecker) Exists(ctx context.Context, desc *schema.Descriptor, field string, value interface{}) (bool, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.err != nil {
		return false, f.err
	}
	s, _ := value.(string)
	return f.taken[s], nil
}

func TestValidateUnique(t *testing.T) {
	base := baseUser(t)
	cs := Cast(base, map[string]interface{}{"email": "al@mail.com"}, nil, []string{"email"})

	t.Run("available", func(t *testing.T) {
		out, err := cs.ValidateUnique(context.Background(), "email", &fakeChecker{})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !out.Valid() {
			t.Errorf("Expected valid, errors: %v", out.Errors())
		}
	})

	t.Run("taken", func(t *testing.T) {
		checker := &fakeChecker{taken: map[string]bool{"al@mail.com": true}}
		out, err := cs.ValidateUnique(context.Background(), "email", checker)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		errs := out.Errors()
		if len(errs) != 1 || errs[0].Message != "has already been taken" {
			t.Errorf("Expected taken error, got %v", errs)
		}
	})

	t.Run("unchanged field skips the lookup", func(t *testing.T) {
		checker := &fakeChecker{}
		out, err := cs.ValidateUnique(context.Background(), "name", checker)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if checker.calls != 0 {
			t.Error("Checker must not be consulted for unchanged fields")
		}
		if out != cs {
			t.Error("Expected the changeset back unmodified")
		}
	})

	t.Run("infrastructure failure is a hard error", func(t *testing.T) {
		checker := &fakeChecker{err: errors.New("connection reset")}
		out, err := cs.ValidateUnique(context.Background(), "email", checker)
		if err == nil {
			t.Fatal("Expected hard error")
		}
		if !out.Valid() {
			t.Error("Infrastructure failure must not become a field error")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := cs.ValidateUnique(ctx, "email", &fakeChecker{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got: %v", err)
		}
	})
}
