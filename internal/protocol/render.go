package protocol

import (
	"math"
	"strconv"
	"strings"
)

// canonical rendering sorts field names at every depth and folds -0.0 into
// 0.0, so records that are Equal render identically.
type renderMode int

const (
	wireOrder renderMode = iota
	canonical
)

func writeRecord(b *strings.Builder, r *Record, names []string, mode renderMode) {
	b.WriteString(string(r.kind))
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		writeValue(b, r.values[name], mode)
	}
	b.WriteByte(')')
}

func writeValue(b *strings.Builder, v Value, mode renderMode) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float64:
		if mode == canonical && x == 0 {
			x = 0
		}
		b.WriteString(formatFloat(x))
	case string:
		b.WriteString(strconv.Quote(x))
	case List:
		b.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item, mode)
		}
		b.WriteByte(']')
	case *Dict:
		b.WriteByte('{')
		for i, e := range x.sortedEntries() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e.Key, mode)
			b.WriteString(": ")
			writeValue(b, e.Value, mode)
		}
		b.WriteByte('}')
	case *Record:
		if x == nil {
			b.WriteString("null")
			return
		}
		writeRecord(b, x, x.namesFor(mode), mode)
	}
}

func renderValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v, wireOrder)
	return b.String()
}

// formatFloat always yields a token the parser reads back as a float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
