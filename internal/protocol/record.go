// Package protocol defines the messages exchanged between the front-end and
// the back-end process, and the line codec that carries them.
//
// Every message is a Record: a variant name plus an open, ordered set of
// named fields. Records compare by value, render deterministically and
// survive Encode/Decode unchanged.
package protocol

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Field is a name/value pair used when constructing records.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for Field{name, value}.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Record is a structurally typed value with open attributes.
type Record struct {
	kind   Kind
	order  []string
	values map[string]Value
}

// NewRecord creates a record of the given kind with fields set in order.
func NewRecord(kind Kind, fields ...Field) *Record {
	r := &Record{kind: kind, values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Kind returns the record's variant.
func (r *Record) Kind() Kind {
	return r.kind
}

// Get returns the field value or ErrMissingField.
func (r *Record) Get(name string) (Value, error) {
	v, ok := r.values[name]
	if !ok {
		return nil, missingField(r.kind, name)
	}
	return v, nil
}

// MustGet is Get for fields the caller knows are present. It panics otherwise.
func (r *Record) MustGet(name string) Value {
	v, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Lookup returns the field value, or def if the field is absent.
func (r *Record) Lookup(name string, def Value) Value {
	if v, ok := r.values[name]; ok {
		return v
	}
	return def
}

// GetString returns a string field.
func (r *Record) GetString(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s: want string, got %s", r.kind, name, typeName(v))
	}
	return s, nil
}

// GetInt returns an integer field.
func (r *Record) GetInt(name string) (int64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%s.%s: want int, got %s", r.kind, name, typeName(v))
	}
	return n, nil
}

// GetList returns a sequence field.
func (r *Record) GetList(name string) (List, error) {
	v, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	l, ok := v.(List)
	if !ok {
		return nil, fmt.Errorf("%s.%s: want list, got %s", r.kind, name, typeName(v))
	}
	return l, nil
}

// GetDict returns a mapping field.
func (r *Record) GetDict(name string) (*Dict, error) {
	v, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*Dict)
	if !ok {
		return nil, fmt.Errorf("%s.%s: want dict, got %s", r.kind, name, typeName(v))
	}
	return d, nil
}

// GetRecord returns a nested record field.
func (r *Record) GetRecord(name string) (*Record, error) {
	v, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("%s.%s: want record, got %s", r.kind, name, typeName(v))
	}
	return rec, nil
}

// Set writes a field, appending it to the insertion order if new.
// The name must be an identifier and the value must be representable;
// anything else is a programming error and panics.
func (r *Record) Set(name string, value any) {
	if !isIdent(name) {
		panic(fmt.Sprintf("protocol: invalid field name %q", name))
	}
	v := normalize(value)
	if _, ok := r.values[name]; !ok {
		r.order = append(r.order, name)
	}
	r.values[name] = v
}

// Delete removes a field if present.
func (r *Record) Delete(name string) {
	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Has reports whether the field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// SetDefault sets the field only if it is absent and reports whether it did.
func (r *Record) SetDefault(name string, value any) bool {
	if r.Has(name) {
		return false
	}
	r.Set(name, value)
	return true
}

// SetDefaults applies SetDefault to each field.
func (r *Record) SetDefaults(fields ...Field) {
	for _, f := range fields {
		r.SetDefault(f.Name, f.Value)
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.values)
}

// Names returns field names in render order: declared fields first, then
// the remaining fields in insertion order.
func (r *Record) Names() []string {
	declared := r.kind.declared()
	out := make([]string, 0, len(r.order))
	seen := make(map[string]bool, len(declared))
	for _, name := range declared {
		if r.Has(name) {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range r.order {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// Equal reports same kind and same field set with pairwise equal values.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.kind != other.kind || len(r.values) != len(other.values) {
		return false
	}
	for name, v := range r.values {
		ov, ok := other.values[name]
		if !ok || !equalValues(v, ov) {
			return false
		}
	}
	return true
}

// Hash is derived from the canonical rendering, so equal records hash
// equally regardless of field insertion order at any depth.
func (r *Record) Hash() uint64 {
	var b strings.Builder
	writeRecord(&b, r, r.namesFor(canonical), canonical)
	return xxhash.Sum64String(b.String())
}

// Repr renders the record in wire order. Decode(Encode(r)) parses it back.
func (r *Record) Repr() string {
	var b strings.Builder
	writeRecord(&b, r, r.Names(), wireOrder)
	return b.String()
}

// String is the canonical rendering: fields sorted by name at every depth.
func (r *Record) String() string {
	var b strings.Builder
	writeRecord(&b, r, r.namesFor(canonical), canonical)
	return b.String()
}

func (r *Record) namesFor(mode renderMode) []string {
	if mode == wireOrder {
		return r.Names()
	}
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{
		kind:   r.kind,
		order:  append([]string(nil), r.order...),
		values: make(map[string]Value, len(r.values)),
	}
	for name, v := range r.values {
		c.values[name] = cloneValue(v)
	}
	return c
}

func typeName(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case List:
		return "list"
	case *Dict:
		return "dict"
	case *Record:
		return string(x.kind)
	}
	return fmt.Sprintf("%T", v)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
