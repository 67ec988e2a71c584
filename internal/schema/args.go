package schema

import "time"

// Args holds validated, default-applied arguments. Accessors return the
// zero value for absent fields; Has distinguishes absent from zero.
type Args map[string]any

// Has reports whether the field is present after validation.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns a string field, or "" if absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an integer field, or 0 if absent.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Bool returns a boolean field, or false if absent.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Time returns a timestamp field, or the zero time if absent.
func (a Args) Time(name string) time.Time {
	t, _ := a[name].(time.Time)
	return t
}

// StringList returns a string-list field, or nil if absent.
func (a Args) StringList(name string) []string {
	l, _ := a[name].([]string)
	return l
}

// ObjectList returns an object-list field, or nil if absent.
func (a Args) ObjectList(name string) []map[string]any {
	l, _ := a[name].([]map[string]any)
	return l
}

// Bag returns an attribute-bag field, or nil if absent.
func (a Args) Bag(name string) map[string]any {
	m, _ := a[name].(map[string]any)
	return m
}
