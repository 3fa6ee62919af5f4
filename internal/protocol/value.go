package protocol

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Value is one of: nil, bool, int64, float64, string, List, *Dict, *Record.
type Value = any

// List is an ordered sequence of values.
type List []Value

// DictEntry is one key/value pair of a Dict.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dict is a mapping with scalar keys (nil, bool, int64, float64, string).
// Entries keep insertion order; equality ignores it.
type Dict struct {
	entries []DictEntry
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{}
}

// DictOf builds a Dict from a Go map, inserting keys in sorted order.
func DictOf[V any](m map[string]V) *Dict {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := &Dict{entries: make([]DictEntry, 0, len(keys))}
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Set inserts or replaces the value for key.
func (d *Dict) Set(key, value any) {
	k := normalize(key)
	if !isScalar(k) {
		panic(fmt.Sprintf("protocol: unsupported dict key type %T", key))
	}
	v := normalize(value)
	for i := range d.entries {
		if equalValues(d.entries[i].Key, k) {
			d.entries[i].Value = v
			return
		}
	}
	d.entries = append(d.entries, DictEntry{Key: k, Value: v})
}

// Get returns the value stored under key.
func (d *Dict) Get(key any) (Value, bool) {
	if d == nil {
		return nil, false
	}
	k := normalize(key)
	for _, e := range d.entries {
		if equalValues(e.Key, k) {
			return e.Value, true
		}
	}
	return nil, false
}

// Delete removes key if present.
func (d *Dict) Delete(key any) {
	k := normalize(key)
	for i, e := range d.entries {
		if equalValues(e.Key, k) {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns a copy of the entries in insertion order.
func (d *Dict) Entries() []DictEntry {
	if d == nil {
		return nil
	}
	return append([]DictEntry(nil), d.entries...)
}

// Equal reports whether both dicts hold the same keys with equal values.
func (d *Dict) Equal(other *Dict) bool {
	if d.Len() != other.Len() {
		return false
	}
	for _, e := range d.Entries() {
		v, ok := other.Get(e.Key)
		if !ok || !equalValues(e.Value, v) {
			return false
		}
	}
	return true
}

func (d *Dict) sortedEntries() []DictEntry {
	out := d.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return keyLess(out[i].Key, out[j].Key)
	})
	return out
}

func (d *Dict) clone() *Dict {
	if d == nil {
		return nil
	}
	c := &Dict{entries: make([]DictEntry, len(d.entries))}
	for i, e := range d.entries {
		c.entries[i] = DictEntry{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return c
}

// normalize converts convenience Go values to the value model.
// Unsupported types panic: they can never be rendered.
func normalize(v any) Value {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x
	case *Dict:
		if x == nil {
			return nil
		}
		return x
	case *Record:
		if x == nil {
			return nil
		}
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			panic(fmt.Sprintf("protocol: integer %d overflows int64", x))
		}
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			panic(fmt.Sprintf("protocol: integer %d overflows int64", x))
		}
		return int64(x)
	case float32:
		return float64(x)
	case List:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case []any:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case []string:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = item
		}
		return out
	case map[string]any:
		return DictOf(x)
	case map[string]string:
		return DictOf(x)
	case TextRange:
		return x.Record()
	case *TextRange:
		if x == nil {
			return nil
		}
		return x.Record()
	case FrameInfo:
		return x.Record()
	default:
		panic(fmt.Sprintf("protocol: unsupported value type %T", v))
	}
}

func isScalar(v Value) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	}
	return false
}

// equalValues compares with strict typing at every depth. NaN equals NaN.
func equalValues(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case int64:
		y, ok := b.(int64)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.IsNaN(x) && math.IsNaN(y)
		}
		return x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalValues(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		return ok && x.Equal(y)
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	}
	return false
}

func cloneValue(v Value) Value {
	switch x := v.(type) {
	case List:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case *Dict:
		return x.clone()
	case *Record:
		return x.Clone()
	}
	return v
}

// keyRank orders scalar key types: null < bool < number < string.
func keyRank(v Value) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	}
	return 4
}

func keyLess(a, b Value) bool {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra < rb
	}
	switch x := a.(type) {
	case bool:
		return !x && b.(bool)
	case string:
		return strings.Compare(x, b.(string)) < 0
	case int64, float64:
		fa, fb := asFloat(a), asFloat(b)
		if fa != fb {
			return fa < fb
		}
		// ints before floats of equal magnitude; NaN sorts via its rendering
		_, aInt := a.(int64)
		_, bInt := b.(int64)
		if aInt != bInt {
			return aInt
		}
		return renderValue(a) < renderValue(b)
	}
	return false
}

func asFloat(v Value) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		if math.IsNaN(x) {
			return math.Inf(1)
		}
		return x
	}
	return 0
}
