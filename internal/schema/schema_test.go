package schema

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(Schema{
		Operation: "create_widget",
		Fields: []Field{
			{Name: "name", Kind: KindString, Required: true, MaxLen: 10},
			{Name: "parent_id", Kind: KindUUID, Required: true},
			{Name: "count", Kind: KindInt, Min: 1, Max: 100, Default: 10},
			{Name: "status", Kind: KindEnum, Enum: []string{"on", "off"}, Default: "on"},
			{Name: "active", Kind: KindBool, Default: false},
			{Name: "labels", Kind: KindStringList, MaxLen: 3},
			{Name: "since", Kind: KindTime},
			{Name: "meta", Kind: KindBag, MaxLen: 2},
			{Name: "refs", Kind: KindObjectList, MaxLen: 2, Object: []Field{
				{Name: "source", Kind: KindString, Required: true},
				{Name: "note", Kind: KindString},
			}},
		},
	})
	r.Register(Schema{
		Operation: "patch_widget",
		Fields: []Field{
			{Name: "id", Kind: KindUUID, Required: true},
			{Name: "name", Kind: KindString},
			{Name: "count", Kind: KindInt},
		},
		AtLeastOne: []string{"name", "count"},
	})
	return r
}

const validUUID = "0c4e0fb4-9d56-4e36-9e38-f9e1f9dc4a6a"

func validArgs() map[string]any {
	return map[string]any{
		"name":      "widget",
		"parent_id": validUUID,
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	r := testRegistry()

	args, err := r.Validate("create_widget", validArgs())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if got := args.Int("count"); got != 10 {
		t.Errorf("expected default count 10, got %d", got)
	}
	if got := args.String("status"); got != "on" {
		t.Errorf("expected default status 'on', got %q", got)
	}
	if args.Bool("active") {
		t.Error("expected default active=false")
	}
	if args.Has("since") {
		t.Error("optional field without default should stay absent")
	}
}

func TestValidateUnknownOperation(t *testing.T) {
	r := testRegistry()

	_, err := r.Validate("no_such_op", map[string]any{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "operation" {
		t.Fatalf("expected a single 'operation' violation, got %+v", ve.Fields)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	r := testRegistry()

	_, err := r.Validate("create_widget", map[string]any{
		"name":    strings.Repeat("x", 11), // too long
		"count":   0,                       // below min
		"status":  "maybe",                 // not in enum
		"labels":  []any{"a", 1},           // non-string element
		"unknown": true,                    // undeclared
		// parent_id missing
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 6 {
		t.Fatalf("expected 6 violations, got %d: %+v", len(ve.Fields), ve.Fields)
	}

	// Violations are sorted by field name for a stable envelope.
	for i := 1; i < len(ve.Fields); i++ {
		if ve.Fields[i-1].Field > ve.Fields[i].Field {
			t.Fatalf("violations not sorted: %+v", ve.Fields)
		}
	}
}

func TestValidateFieldKinds(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr string // substring of the violated field name, "" for success
	}{
		{"valid uuid", func(m map[string]any) {}, ""},
		{"malformed uuid", func(m map[string]any) { m["parent_id"] = "not-a-uuid" }, "parent_id"},
		{"uuid wrong type", func(m map[string]any) { m["parent_id"] = 7 }, "parent_id"},
		{"required blank string", func(m map[string]any) { m["name"] = "   " }, "name"},
		{"json number as int", func(m map[string]any) { m["count"] = float64(5) }, ""},
		{"fractional number", func(m map[string]any) { m["count"] = 5.5 }, "count"},
		{"int above max", func(m map[string]any) { m["count"] = 101 }, "count"},
		{"bool wrong type", func(m map[string]any) { m["active"] = "yes" }, "active"},
		{"valid time", func(m map[string]any) { m["since"] = "2026-08-30T12:00:00Z" }, ""},
		{"time with fraction", func(m map[string]any) { m["since"] = "2026-08-30T12:00:00.123456Z" }, ""},
		{"malformed time", func(m map[string]any) { m["since"] = "yesterday" }, "since"},
		{"list too long", func(m map[string]any) { m["labels"] = []any{"a", "b", "c", "d"} }, "labels"},
		{"valid bag", func(m map[string]any) { m["meta"] = map[string]any{"k": "v", "n": float64(1)} }, ""},
		{"bag too many keys", func(m map[string]any) {
			m["meta"] = map[string]any{"a": "1", "b": "2", "c": "3"}
		}, "meta"},
		{"bag nested object", func(m map[string]any) {
			m["meta"] = map[string]any{"k": map[string]any{"nested": true}}
		}, "meta"},
		{"bag empty key", func(m map[string]any) { m["meta"] = map[string]any{"": "v"} }, "meta"},
		{"bag string array value", func(m map[string]any) {
			m["meta"] = map[string]any{"k": []any{"a", "b"}}
		}, ""},
		{"bag mixed array value", func(m map[string]any) {
			m["meta"] = map[string]any{"k": []any{"a", 1}}
		}, "meta"},
		{"valid object list", func(m map[string]any) {
			m["refs"] = []any{map[string]any{"source": "a", "note": "b"}}
		}, ""},
		{"object missing required sub-field", func(m map[string]any) {
			m["refs"] = []any{map[string]any{"note": "b"}}
		}, "refs"},
		{"object list element not an object", func(m map[string]any) {
			m["refs"] = []any{"nope"}
		}, "refs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validArgs()
			tt.mutate(raw)
			_, err := r.Validate("create_widget", raw)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			found := false
			for _, f := range ve.Fields {
				if f.Field == tt.wantErr {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected a violation on %q, got %+v", tt.wantErr, ve.Fields)
			}
		})
	}
}

func TestValidateAtLeastOne(t *testing.T) {
	r := testRegistry()

	_, err := r.Validate("patch_widget", map[string]any{"id": validUUID})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Fields[0].Field != "name|count" {
		t.Fatalf("expected the cross-field violation, got %+v", ve.Fields)
	}

	if _, err := r.Validate("patch_widget", map[string]any{"id": validUUID, "name": "n"}); err != nil {
		t.Fatalf("expected success with one of the fields, got %v", err)
	}
}

func TestValidateNormalizesTime(t *testing.T) {
	r := testRegistry()

	raw := validArgs()
	raw["since"] = "2026-08-30T12:00:00+02:00"
	args, err := r.Validate("create_widget", raw)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	want := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if !args.Time("since").Equal(want) {
		t.Errorf("expected %v, got %v", want, args.Time("since"))
	}
}

func TestOperationsSorted(t *testing.T) {
	r := testRegistry()
	ops := r.Operations()
	if len(ops) != 2 || ops[0] != "create_widget" || ops[1] != "patch_widget" {
		t.Fatalf("unexpected operations: %v", ops)
	}
	if !r.Known("create_widget") || r.Known("no_such_op") {
		t.Error("Known misreports registered operations")
	}
}

func TestArgsAccessorsZeroValues(t *testing.T) {
	var a Args = map[string]any{}
	if a.String("x") != "" || a.Int("x") != 0 || a.Bool("x") || !a.Time("x").IsZero() {
		t.Error("expected zero values for absent fields")
	}
	if a.StringList("x") != nil || a.ObjectList("x") != nil || a.Bag("x") != nil {
		t.Error("expected nil collections for absent fields")
	}
	if a.Has("x") {
		t.Error("Has must report absent fields")
	}
}
