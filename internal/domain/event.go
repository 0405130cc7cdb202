package domain

import "time"

// EventKind discriminates the parsed record shapes found in session logs.
type EventKind string

const (
	EventUser       EventKind = "user"
	EventAssistant  EventKind = "assistant"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventSystem     EventKind = "system"
)

// Event is one parsed record from a session log. Only the fields relevant
// to its Kind are populated; the zero value of the rest means "absent".
type Event struct {
	Kind      EventKind
	Timestamp time.Time
	Text      string // user/assistant/system message text
	ToolName  string // tool_call only
	ToolInput string // tool_call only, raw JSON
	IsError   bool   // tool_result only
}
