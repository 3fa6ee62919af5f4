package protocol

import (
	"fmt"
	"math"
	"strconv"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 256

// ParseRecord parses a canonical rendering (as produced by Record.Repr)
// back into a record. Only literals, lists, dicts and constructor calls of
// known kinds are accepted; nothing is evaluated.
func ParseRecord(src string) (*Record, error) {
	p := &parser{src: src}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.rest(16))
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, &DecodeError{Offset: 0, Msg: "top-level value is " + typeName(v) + ", want record"}
	}
	return rec, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &DecodeError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) rest(n int) string {
	if p.pos+n > len(p.src) {
		return p.src[p.pos:]
	}
	return p.src[p.pos:p.pos+n] + "..."
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.pos >= len(p.src) {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) value(depth int) (Value, error) {
	if depth > maxDepth {
		return nil, p.errorf("nesting deeper than %d", maxDepth)
	}
	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '"':
		return p.str()
	case c == '[':
		return p.list(depth)
	case c == '{':
		return p.dict(depth)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.word(depth)
	}
	return nil, p.errorf("unexpected character %q", c)
}

func (p *parser) str() (Value, error) {
	start := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return nil, &DecodeError{Offset: start, Msg: "invalid string literal", Err: err}
			}
			return s, nil
		}
		p.pos++
	}
	return nil, &DecodeError{Offset: start, Msg: "unterminated string literal"}
}

func (p *parser) number() (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
		if p.hasWord("inf") {
			p.pos += len("inf")
			return math.Inf(-1), nil
		}
	}
	digits := p.digits()
	isFloat := false
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		digits += p.digits()
	}
	if digits == 0 {
		return nil, p.errorf("malformed number %q", p.src[start:p.pos])
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		isFloat = true
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if p.digits() == 0 {
			return nil, p.errorf("malformed exponent in %q", p.src[start:p.pos])
		}
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &DecodeError{Offset: start, Msg: "invalid float " + strconv.Quote(text), Err: err}
		}
		return f, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &DecodeError{Offset: start, Msg: "invalid integer " + strconv.Quote(text), Err: err}
	}
	return n, nil
}

func (p *parser) digits() int {
	n := 0
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}

func (p *parser) hasWord(w string) bool {
	end := p.pos + len(w)
	if end > len(p.src) || p.src[p.pos:end] != w {
		return false
	}
	return end == len(p.src) || !isIdentChar(p.src[end])
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) word(depth int) (Value, error) {
	start := p.pos
	name := p.ident()
	switch name {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	}
	p.skipSpace()
	if p.peek() != '(' {
		return nil, &DecodeError{Offset: start, Msg: "unknown name " + strconv.Quote(name)}
	}
	kind := Kind(name)
	if !kind.Known() {
		return nil, &DecodeError{Offset: start, Msg: "unknown constructor " + strconv.Quote(name)}
	}
	p.pos++
	rec := &Record{kind: kind, values: make(map[string]Value)}
	for i := 0; ; i++ {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			break
		}
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
			p.skipSpace()
		}
		fieldAt := p.pos
		field := p.ident()
		if !isIdent(field) {
			return nil, p.errorf("expected field name")
		}
		if rec.Has(field) {
			return nil, &DecodeError{Offset: fieldAt, Msg: "duplicate field " + strconv.Quote(field)}
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		rec.order = append(rec.order, field)
		rec.values[field] = v
	}
	if check := kinds[kind].check; check != nil {
		if err := check(rec); err != nil {
			return nil, &DecodeError{Offset: start, Msg: "invalid " + name, Err: err}
		}
	}
	return rec, nil
}

func (p *parser) list(depth int) (Value, error) {
	p.pos++
	out := List{}
	for i := 0; ; i++ {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			return out, nil
		}
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (p *parser) dict(depth int) (Value, error) {
	p.pos++
	d := NewDict()
	for i := 0; ; i++ {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return d, nil
		}
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		p.skipSpace()
		keyAt := p.pos
		k, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		if !isScalar(k) {
			return nil, &DecodeError{Offset: keyAt, Msg: "dict key must be a scalar, got " + typeName(k)}
		}
		if _, dup := d.Get(k); dup {
			return nil, &DecodeError{Offset: keyAt, Msg: "duplicate dict key " + renderValue(k)}
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, DictEntry{Key: k, Value: v})
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
