package protocol

import (
	"fmt"
	"strconv"
)

// FrameInfo describes one stack frame of a paused program.
type FrameInfo struct {
	ID       int64
	CodeName string
	Filename string
	Focus    *TextRange
}

// Description is a one-line summary for logs and debugger views.
func (f FrameInfo) Description() string {
	focus := "None"
	if f.Focus != nil {
		focus = f.Focus.String()
	}
	return "[" + strconv.FormatInt(f.ID, 10) + "] " + f.CodeName + " in " + f.Filename + ", focus=" + focus
}

// Record converts the frame to its wire record.
func (f FrameInfo) Record() *Record {
	var focus Value
	if f.Focus != nil {
		focus = f.Focus.Record()
	}
	return NewRecord(KindFrameInfo,
		F("id", f.ID),
		F("code_name", f.CodeName),
		F("filename", f.Filename),
		F("focus", focus),
	)
}

// FrameInfoFromRecord converts a FrameInfo record back.
func FrameInfoFromRecord(rec *Record) (FrameInfo, error) {
	if rec == nil || rec.Kind() != KindFrameInfo {
		return FrameInfo{}, fmt.Errorf("not a %s record", KindFrameInfo)
	}
	var (
		f   FrameInfo
		err error
	)
	if f.ID, err = rec.GetInt("id"); err != nil {
		return FrameInfo{}, err
	}
	if f.CodeName, err = rec.GetString("code_name"); err != nil {
		return FrameInfo{}, err
	}
	if f.Filename, err = rec.GetString("filename"); err != nil {
		return FrameInfo{}, err
	}
	switch focus := rec.Lookup("focus", nil).(type) {
	case nil:
	case *Record:
		tr, err := TextRangeFromRecord(focus)
		if err != nil {
			return FrameInfo{}, fmt.Errorf("%s.focus: %w", KindFrameInfo, err)
		}
		f.Focus = &tr
	default:
		return FrameInfo{}, fmt.Errorf("%s.focus: want %s or null, got %s", KindFrameInfo, KindTextRange, typeName(focus))
	}
	return f, nil
}

func checkFrameInfo(r *Record) error {
	r.SetDefault("focus", nil)
	_, err := FrameInfoFromRecord(r)
	return err
}
