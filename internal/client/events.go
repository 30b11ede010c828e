package client

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventType identifies the kind of event a CLI emitted.
type EventType string

// Unified event types. Provider parsers map their CLI's native event
// vocabulary onto these.
const (
	EventSystem     EventType = "system"
	EventAssistant  EventType = "assistant"
	EventUser       EventType = "user"
	EventResult     EventType = "result"
	EventToolUse    EventType = "tool_use"
	EventToolResult EventType = "tool_result"
	EventError      EventType = "error"
)

// ErrSkipEvent is returned by ParseEvent for lines that carry no
// information the caller needs (heartbeats, deltas, blank padding).
var ErrSkipEvent = errors.New("skip event")

// ErrReasonContextExceeded marks an error as context-window exhaustion.
const ErrReasonContextExceeded = "context_exceeded"

// OutputEvent is the unified representation of one line of CLI output.
type OutputEvent struct {
	Type          EventType
	SubType       string
	SessionID     string
	WorkDir       string
	Message       *MessageContent
	Tool          *ToolContent
	Usage         *UsageInfo
	Error         *ErrorInfo
	Result        string
	IsErrorResult bool
	TotalCostUSD  float64
	DurationMs    int64

	// Raw holds the original line for debugging and session extraction.
	Raw []byte
}

// MessageContent is the message body of assistant and user events.
type MessageContent struct {
	ID      string
	Role    string
	Model   string
	Content []ContentBlock
}

// ContentBlock is a single block inside a message (text or tool_use).
type ContentBlock struct {
	Type  string
	Text  string
	ID    string
	Name  string
	Input json.RawMessage
}

// GetText concatenates the text blocks of the message.
func (m *MessageContent) GetText() string {
	if m == nil {
		return ""
	}
	var parts []string
	for _, block := range m.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// HasToolUses reports whether the message contains any tool_use blocks.
func (m *MessageContent) HasToolUses() bool {
	if m == nil {
		return false
	}
	for _, block := range m.Content {
		if block.Type == "tool_use" {
			return true
		}
	}
	return false
}

// ToolContent describes a tool invocation or its result.
type ToolContent struct {
	ID     string
	Name   string
	Input  json.RawMessage
	Output string
}

// UsageInfo holds token accounting extracted from events.
type UsageInfo struct {
	TokensUsed   int
	TotalTokens  int
	OutputTokens int
}

// ErrorInfo is the normalized error payload of an event.
type ErrorInfo struct {
	Code    string
	Message string
	Reason  string
}

// ParsePolymorphicError handles error fields that CLIs emit either as a
// bare string or as a {code, message} object. Returns nil when raw is
// empty or unparseable.
func ParsePolymorphicError(raw json.RawMessage) *ErrorInfo {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return &ErrorInfo{Message: s}
	}

	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && (obj.Code != "" || obj.Message != "") {
		return &ErrorInfo{Code: obj.Code, Message: obj.Message}
	}
	return nil
}
