package protocol

import "fmt"

// ResponseSuffix links an inline response to the command that caused it.
const ResponseSuffix = "_response"

// NewInputSubmission carries data for the back-end program's stdin.
func NewInputSubmission(data string, extra ...Field) *Record {
	return build(KindInputSubmission, []Field{F("data", data)}, extra)
}

// NewToplevelCommand builds a command for the top-level (REPL) context.
// A nil argv becomes a fresh empty list owned by this record.
func NewToplevelCommand(name string, argv []string, extra ...Field) *Record {
	args := make(List, 0, len(argv))
	for _, a := range argv {
		args = append(args, a)
	}
	return build(KindToplevelCommand, []Field{F("name", name), F("argv", args)}, extra)
}

// NewDebuggerCommand builds a command issued while stepping.
func NewDebuggerCommand(name string, extra ...Field) *Record {
	return build(KindDebuggerCommand, []Field{F("name", name)}, extra)
}

// NewInlineCommand builds a state query valid in any context.
func NewInlineCommand(name string, extra ...Field) *Record {
	return build(KindInlineCommand, []Field{F("name", name)}, extra)
}

// NewToplevelResponse builds a response whose event_type defaults to
// "ToplevelResponse"; extra may override it.
func NewToplevelResponse(extra ...Field) *Record {
	r := build(KindToplevelResponse, nil, extra)
	r.SetDefault("event_type", string(KindToplevelResponse))
	return r
}

// NewDebuggerResponse builds a response whose event_type defaults to
// "DebuggerResponse"; extra may override it.
func NewDebuggerResponse(extra ...Field) *Record {
	r := build(KindDebuggerResponse, nil, extra)
	r.SetDefault("event_type", string(KindDebuggerResponse))
	return r
}

// NewBackendEvent builds an asynchronous notification such as program output.
func NewBackendEvent(eventType string, extra ...Field) *Record {
	r := build(KindBackendEvent, nil, extra)
	r.Set("event_type", eventType)
	return r
}

// NewInlineResponse answers the inline command named commandName. Its
// event_type is always commandName + "_response".
func NewInlineResponse(commandName string, extra ...Field) *Record {
	r := build(KindInlineResponse, nil, extra)
	r.Set("command_name", commandName)
	r.Set("event_type", commandName+ResponseSuffix)
	return r
}

// ResponseEventType is the event_type of the response to an inline command.
func ResponseEventType(commandName string) string {
	return commandName + ResponseSuffix
}

// EventType returns the dispatch key of a back-end message.
func EventType(msg *Record) (string, error) {
	if msg == nil || !msg.Kind().IsBackendMessage() {
		return "", fmt.Errorf("not a back-end message: %v", msg)
	}
	return msg.GetString("event_type")
}

// CommandName returns the dispatch name of a command.
func CommandName(cmd *Record) (string, error) {
	if cmd == nil || !cmd.Kind().IsCommand() {
		return "", fmt.Errorf("not a command: %v", cmd)
	}
	return cmd.GetString("name")
}

func build(kind Kind, fixed, extra []Field) *Record {
	r := &Record{kind: kind, values: make(map[string]Value, len(fixed)+len(extra))}
	for _, f := range extra {
		r.Set(f.Name, f.Value)
	}
	for _, f := range fixed {
		r.Set(f.Name, f.Value)
	}
	return r
}

func requireStrings(names ...string) func(*Record) error {
	return func(r *Record) error {
		for _, name := range names {
			if _, err := r.GetString(name); err != nil {
				return err
			}
		}
		return nil
	}
}

func checkToplevelCommand(r *Record) error {
	r.SetDefault("argv", List{})
	if _, err := r.GetString("name"); err != nil {
		return err
	}
	argv, err := r.GetList("argv")
	if err != nil {
		return err
	}
	for i, a := range argv {
		if _, ok := a.(string); !ok {
			return fmt.Errorf("%s.argv[%d]: want string, got %s", r.kind, i, typeName(a))
		}
	}
	return nil
}

func defaultEventType(kind Kind) func(*Record) error {
	return func(r *Record) error {
		r.SetDefault("event_type", string(kind))
		_, err := r.GetString("event_type")
		return err
	}
}

func checkInlineResponse(r *Record) error {
	name, err := r.GetString("command_name")
	if err != nil {
		return err
	}
	r.SetDefault("event_type", name+ResponseSuffix)
	_, err = r.GetString("event_type")
	return err
}
