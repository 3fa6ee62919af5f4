package protocol

// Kind names a record variant. It is the constructor name on the wire.
type Kind string

const (
	KindRecord           Kind = "Record"
	KindTextRange        Kind = "TextRange"
	KindFrameInfo        Kind = "FrameInfo"
	KindInputSubmission  Kind = "InputSubmission"
	KindToplevelCommand  Kind = "ToplevelCommand"
	KindDebuggerCommand  Kind = "DebuggerCommand"
	KindInlineCommand    Kind = "InlineCommand"
	KindToplevelResponse Kind = "ToplevelResponse"
	KindDebuggerResponse Kind = "DebuggerResponse"
	KindBackendEvent     Kind = "BackendEvent"
	KindInlineResponse   Kind = "InlineResponse"
)

type kindSpec struct {
	// declared fields, rendered first and in this order
	fields []string
	// fills defaults and checks required fields after decoding
	check func(r *Record) error
}

var kinds = map[Kind]kindSpec{
	KindRecord:           {},
	KindTextRange:        {fields: textRangeFields, check: checkTextRange},
	KindFrameInfo:        {fields: []string{"id", "code_name", "filename", "focus"}, check: checkFrameInfo},
	KindInputSubmission:  {fields: []string{"data"}, check: requireStrings("data")},
	KindToplevelCommand:  {fields: []string{"name", "argv"}, check: checkToplevelCommand},
	KindDebuggerCommand:  {fields: []string{"name"}, check: requireStrings("name")},
	KindInlineCommand:    {fields: []string{"name"}, check: requireStrings("name")},
	KindToplevelResponse: {fields: []string{"event_type"}, check: defaultEventType(KindToplevelResponse)},
	KindDebuggerResponse: {fields: []string{"event_type"}, check: defaultEventType(KindDebuggerResponse)},
	KindBackendEvent:     {fields: []string{"event_type"}, check: requireStrings("event_type")},
	KindInlineResponse:   {fields: []string{"event_type", "command_name"}, check: checkInlineResponse},
}

// Known reports whether k is a variant the codec can construct.
func (k Kind) Known() bool {
	_, ok := kinds[k]
	return ok
}

// IsCommand reports whether k is addressed to the back-end.
func (k Kind) IsCommand() bool {
	switch k {
	case KindToplevelCommand, KindDebuggerCommand, KindInlineCommand:
		return true
	}
	return false
}

// IsBackendMessage reports whether k is routed by the front-end on event_type.
func (k Kind) IsBackendMessage() bool {
	switch k {
	case KindToplevelResponse, KindDebuggerResponse, KindBackendEvent, KindInlineResponse:
		return true
	}
	return false
}

func (k Kind) declared() []string {
	return kinds[k].fields
}
