package protocol

import (
	"fmt"

	"github.com/emersion/go-imap/utf7"
)

// Encode renders rec and maps the rendering onto printable ASCII with
// modified UTF-7, so the result never contains a line terminator.
func Encode(rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("encoding message: nil record")
	}
	if err := checkKinds(rec, 0); err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}
	line, err := utf7.Encoding.NewEncoder().String(rec.Repr())
	if err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}
	return line, nil
}

// Decode reverses Encode. Any failure wraps ErrProtocolDecode and no
// partial record is returned.
func Decode(line string) (*Record, error) {
	for i := 0; i < len(line); i++ {
		if c := line[i]; c < 0x20 || c > 0x7e {
			return nil, &DecodeError{Offset: i, Msg: fmt.Sprintf("non-printable byte 0x%02x on the wire", c)}
		}
	}
	src, err := utf7.Encoding.NewDecoder().String(line)
	if err != nil {
		return nil, &DecodeError{Offset: 0, Msg: "invalid transport encoding", Err: err}
	}
	return ParseRecord(src)
}

func checkKinds(v Value, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("nesting deeper than %d", maxDepth)
	}
	switch x := v.(type) {
	case *Record:
		if !x.kind.Known() {
			return fmt.Errorf("unknown record kind %q", x.kind)
		}
		if err := checkVariant(x); err != nil {
			return err
		}
		for _, item := range x.values {
			if err := checkKinds(item, depth+1); err != nil {
				return err
			}
		}
	case List:
		for _, item := range x {
			if err := checkKinds(item, depth+1); err != nil {
				return err
			}
		}
	case *Dict:
		for _, e := range x.entries {
			if err := checkKinds(e.Value, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkVariant runs the decode-side check on a copy of r. A record the
// check rejects, or would fill in, cannot survive a round trip.
func checkVariant(r *Record) error {
	check := kinds[r.kind].check
	if check == nil {
		return nil
	}
	c := r.Clone()
	if err := check(c); err != nil {
		return fmt.Errorf("invalid %s: %w", r.kind, err)
	}
	if !c.Equal(r) {
		return fmt.Errorf("invalid %s: missing fields %v", r.kind, missingNames(r, c))
	}
	return nil
}

func missingNames(r, filled *Record) []string {
	var out []string
	for _, name := range filled.Names() {
		if !r.Has(name) {
			out = append(out, name)
		}
	}
	return out
}
