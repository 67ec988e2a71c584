// Package schema provides declarative argument validation for operations.
//
// Each operation registers a shape: required/optional fields, primitive
// kinds, bounds, enum membership, and defaults. Validation is total and
// side-effect free; it reports every violated field, not just the first,
// and applies defaults before returning the validated arguments.
package schema

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Kind is the primitive type of a field.
type Kind int

const (
	// KindString is free text, optionally bounded by MaxLen (runes).
	KindString Kind = iota
	// KindInt is an integer; JSON numbers are accepted when integral.
	KindInt
	// KindBool is a boolean flag.
	KindBool
	// KindUUID is a string that must parse as an RFC 4122 UUID.
	KindUUID
	// KindEnum is a string restricted to the Enum member list.
	KindEnum
	// KindStringList is an ordered list of strings.
	KindStringList
	// KindTime is an RFC 3339 timestamp string.
	KindTime
	// KindBag is a string-keyed map whose values are restricted to
	// JSON-compatible scalars and string arrays.
	KindBag
	// KindObjectList is an ordered list of objects, each validated
	// against the field's Object sub-schema.
	KindObjectList
)

// Field declares one argument of an operation.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Default is applied when an optional field is omitted. Nil means the
	// field stays absent from the validated arguments.
	Default any
	// MaxLen bounds string length in runes, or list/bag size in elements.
	// Zero means unbounded.
	MaxLen int
	// Min/Max bound KindInt values. Both zero means unbounded.
	Min, Max int
	// Enum lists the allowed values for KindEnum.
	Enum []string
	// Object declares the element shape for KindObjectList.
	Object []Field
}

// Schema is the declared argument shape for one operation.
type Schema struct {
	Operation string
	Fields    []Field
	// AtLeastOne, when set, requires that at least one of the named
	// fields is present in the raw arguments.
	AtLeastOne []string
}

// FieldError names one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field of one validation pass.
// It is always safe to show verbatim to the caller.
type ValidationError struct {
	Operation string       `json:"operation"`
	Fields    []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Operation, strings.Join(parts, "; "))
}

// Registry holds the declared schemas, keyed by operation name.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register adds or replaces the schema for an operation.
func (r *Registry) Register(s Schema) {
	r.schemas[s.Operation] = s
}

// Known reports whether an operation has a registered schema.
func (r *Registry) Known(operation string) bool {
	_, ok := r.schemas[operation]
	return ok
}

// Operations returns the registered operation names, sorted.
func (r *Registry) Operations() []string {
	ops := make([]string, 0, len(r.schemas))
	for op := range r.schemas {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Validate checks raw against the operation's schema. On success it returns
// the validated arguments with defaults applied; on failure it returns a
// *ValidationError listing all violations. It never touches the database or
// the network.
func (r *Registry) Validate(operation string, raw map[string]any) (Args, error) {
	s, ok := r.schemas[operation]
	if !ok {
		return nil, &ValidationError{
			Operation: operation,
			Fields:    []FieldError{{Field: "operation", Message: "unknown operation"}},
		}
	}

	declared := make(map[string]bool, len(s.Fields))
	args := make(Args, len(s.Fields))
	var violations []FieldError

	for _, f := range s.Fields {
		declared[f.Name] = true
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Required {
				violations = append(violations, FieldError{Field: f.Name, Message: "required"})
				continue
			}
			if f.Default != nil {
				args[f.Name] = f.Default
			}
			continue
		}
		norm, ferr := checkField(f, v)
		if ferr != nil {
			violations = append(violations, *ferr)
			continue
		}
		args[f.Name] = norm
	}

	for name := range raw {
		if !declared[name] {
			violations = append(violations, FieldError{Field: name, Message: "unknown field"})
		}
	}

	if len(s.AtLeastOne) > 0 {
		found := false
		for _, name := range s.AtLeastOne {
			if v, ok := raw[name]; ok && v != nil {
				found = true
				break
			}
		}
		if !found {
			violations = append(violations, FieldError{
				Field:   strings.Join(s.AtLeastOne, "|"),
				Message: "at least one of these fields is required",
			})
		}
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
		return nil, &ValidationError{Operation: operation, Fields: violations}
	}
	return args, nil
}

// checkField validates a single present value and returns its normalized
// form (e.g. JSON float64 becomes int for KindInt).
func checkField(f Field, v any) (any, *FieldError) {
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be a string"}
		}
		if f.Required && strings.TrimSpace(s) == "" {
			return nil, &FieldError{Field: f.Name, Message: "must not be empty"}
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(s) > f.MaxLen {
			return nil, &FieldError{Field: f.Name, Message: fmt.Sprintf("must be at most %d characters", f.MaxLen)}
		}
		return s, nil

	case KindInt:
		n, ok := asInt(v)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be an integer"}
		}
		if (f.Min != 0 || f.Max != 0) && (n < f.Min || (f.Max != 0 && n > f.Max)) {
			if f.Max != 0 {
				return nil, &FieldError{Field: f.Name, Message: fmt.Sprintf("must be between %d and %d", f.Min, f.Max)}
			}
			return nil, &FieldError{Field: f.Name, Message: fmt.Sprintf("must be at least %d", f.Min)}
		}
		return n, nil

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be a boolean"}
		}
		return b, nil

	case KindUUID:
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be a string"}
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, &FieldError{Field: f.Name, Message: "must be a valid UUID"}
		}
		return s, nil

	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be a string"}
		}
		for _, allowed := range f.Enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, &FieldError{Field: f.Name, Message: "must be one of: " + strings.Join(f.Enum, ", ")}

	case KindStringList:
		list, ferr := asStringList(f.Name, v)
		if ferr != nil {
			return nil, ferr
		}
		if f.MaxLen > 0 && len(list) > f.MaxLen {
			return nil, &FieldError{Field: f.Name, Message: fmt.Sprintf("must have at most %d elements", f.MaxLen)}
		}
		return list, nil

	case KindTime:
		s, ok := v.(string)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be an RFC 3339 timestamp string"}
		}
		t, err := parseTime(s)
		if err != nil {
			return nil, &FieldError{Field: f.Name, Message: "must be an RFC 3339 timestamp"}
		}
		return t, nil

	case KindBag:
		bag, ferr := asBag(f.Name, v)
		if ferr != nil {
			return nil, ferr
		}
		if f.MaxLen > 0 && len(bag) > f.MaxLen {
			return nil, &FieldError{Field: f.Name, Message: fmt.Sprintf("must have at most %d keys", f.MaxLen)}
		}
		return bag, nil

	case KindObjectList:
		list, ok := v.([]any)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be a list of objects"}
		}
		if f.MaxLen > 0 && len(list) > f.MaxLen {
			return nil, &FieldError{Field: f.Name, Message: fmt.Sprintf("must have at most %d elements", f.MaxLen)}
		}
		out := make([]map[string]any, len(list))
		for i, e := range list {
			obj, ok := e.(map[string]any)
			if !ok {
				return nil, &FieldError{Field: f.Name, Message: "must be a list of objects"}
			}
			norm := make(map[string]any, len(f.Object))
			for _, sub := range f.Object {
				sv, present := obj[sub.Name]
				if !present || sv == nil {
					if sub.Required {
						return nil, &FieldError{
							Field:   f.Name,
							Message: fmt.Sprintf("element %d: %s is required", i, sub.Name),
						}
					}
					continue
				}
				nv, ferr := checkField(sub, sv)
				if ferr != nil {
					return nil, &FieldError{
						Field:   f.Name,
						Message: fmt.Sprintf("element %d: %s", i, ferr.Message),
					}
				}
				norm[sub.Name] = nv
			}
			out[i] = norm
		}
		return out, nil
	}
	return nil, &FieldError{Field: f.Name, Message: "unsupported field kind"}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// asInt accepts native ints and integral JSON numbers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func asStringList(field string, v any) ([]string, *FieldError) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, &FieldError{Field: field, Message: "must be a list of strings"}
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, &FieldError{Field: field, Message: "must be a list of strings"}
}

// asBag validates the free-form attribute bag: string keys mapped to
// scalars (string, number, bool) or string arrays. Anything else is
// rejected so merge semantics stay well-defined.
func asBag(field string, v any) (map[string]any, *FieldError) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &FieldError{Field: field, Message: "must be an object"}
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		if k == "" {
			return nil, &FieldError{Field: field, Message: "keys must not be empty"}
		}
		switch tv := val.(type) {
		case string, bool, float64, int, int64:
			out[k] = tv
		case []any:
			list, ferr := asStringList(field, tv)
			if ferr != nil {
				return nil, &FieldError{Field: field, Message: fmt.Sprintf("key %q: array values must contain only strings", k)}
			}
			out[k] = list
		case []string:
			out[k] = tv
		default:
			return nil, &FieldError{Field: field, Message: fmt.Sprintf("key %q: values must be scalars or string arrays", k)}
		}
	}
	return out, nil
}
