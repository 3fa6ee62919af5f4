package protocol

import (
	"fmt"
	"strconv"
)

var textRangeFields = []string{"lineno", "col_offset", "end_lineno", "end_col_offset"}

// TextRange is the half-open span [start, end) between two (line, column)
// positions. Lines are 1-based, columns 0-based.
type TextRange struct {
	Lineno       int
	ColOffset    int
	EndLineno    int
	EndColOffset int
}

// NewTextRange returns a validated range.
func NewTextRange(lineno, colOffset, endLineno, endColOffset int) (TextRange, error) {
	r := TextRange{Lineno: lineno, ColOffset: colOffset, EndLineno: endLineno, EndColOffset: endColOffset}
	if !r.Valid() {
		return TextRange{}, fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return r, nil
}

// Valid reports 1-based lines, non-negative columns and start <= end.
func (r TextRange) Valid() bool {
	if r.Lineno < 1 || r.EndLineno < 1 || r.ColOffset < 0 || r.EndColOffset < 0 {
		return false
	}
	return comparePos(r.Lineno, r.ColOffset, r.EndLineno, r.EndColOffset) <= 0
}

// ContainsStrictly reports whether other lies inside r and differs from it.
func (r TextRange) ContainsStrictly(other TextRange) bool {
	startCmp := comparePos(r.Lineno, r.ColOffset, other.Lineno, other.ColOffset)
	endCmp := comparePos(r.EndLineno, r.EndColOffset, other.EndLineno, other.EndColOffset)
	return startCmp <= 0 && endCmp >= 0 && (startCmp < 0 || endCmp > 0)
}

// ContainsOrEqual reports whether other lies inside r or equals it.
func (r TextRange) ContainsOrEqual(other TextRange) bool {
	return r == other || r.ContainsStrictly(other)
}

// IsNestedStrictlyIn is ContainsStrictly with the operands swapped.
func (r TextRange) IsNestedStrictlyIn(other TextRange) bool {
	return other.ContainsStrictly(r)
}

// IsNestedOrEqualIn is ContainsOrEqual with the operands swapped.
func (r TextRange) IsNestedOrEqualIn(other TextRange) bool {
	return other.ContainsOrEqual(r)
}

// StartMarker renders the start as "line.col", the text widget index form.
func (r TextRange) StartMarker() string {
	return strconv.Itoa(r.Lineno) + "." + strconv.Itoa(r.ColOffset)
}

// EndMarker renders the end as "line.col".
func (r TextRange) EndMarker() string {
	return strconv.Itoa(r.EndLineno) + "." + strconv.Itoa(r.EndColOffset)
}

func (r TextRange) String() string {
	return "TR(" + r.StartMarker() + ", " + r.EndMarker() + ")"
}

// Record converts the range to its wire record.
func (r TextRange) Record() *Record {
	return NewRecord(KindTextRange,
		F("lineno", r.Lineno),
		F("col_offset", r.ColOffset),
		F("end_lineno", r.EndLineno),
		F("end_col_offset", r.EndColOffset),
	)
}

// TextRangeFromRecord converts a TextRange record back, validating it.
func TextRangeFromRecord(rec *Record) (TextRange, error) {
	if rec == nil || rec.Kind() != KindTextRange {
		return TextRange{}, fmt.Errorf("%w: not a %s record", ErrInvalidRange, KindTextRange)
	}
	var coords [4]int
	for i, name := range textRangeFields {
		n, err := rec.GetInt(name)
		if err != nil {
			return TextRange{}, err
		}
		coords[i] = int(n)
	}
	return NewTextRange(coords[0], coords[1], coords[2], coords[3])
}

func checkTextRange(r *Record) error {
	_, err := TextRangeFromRecord(r)
	return err
}

func comparePos(line1, col1, line2, col2 int) int {
	switch {
	case line1 < line2:
		return -1
	case line1 > line2:
		return 1
	case col1 < col2:
		return -1
	case col1 > col2:
		return 1
	}
	return 0
}
