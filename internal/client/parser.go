package client

import "strings"

// EventParser converts one line of CLI stdout into a unified OutputEvent.
// Implementations return ErrSkipEvent for lines that carry nothing the
// caller needs.
type EventParser interface {
	ParseEvent(data []byte) (OutputEvent, error)

	// IsContextExhausted reports whether the event indicates the model
	// ran out of context window.
	IsContextExhausted(event OutputEvent) bool
}

// BaseParser carries the behavior shared by provider parsers: the
// assumed context window size and generic exhaustion detection.
type BaseParser struct {
	contextWindowSize int
}

// NewBaseParser creates a BaseParser with the given context window size.
func NewBaseParser(contextWindowSize int) BaseParser {
	return BaseParser{contextWindowSize: contextWindowSize}
}

// ContextWindowSize returns the assumed context window size in tokens.
func (p BaseParser) ContextWindowSize() int {
	return p.contextWindowSize
}

// IsContextExhausted performs the checks common to all providers: an
// explicit exhaustion reason, or the well-known "Prompt is too long"
// result text.
func (p BaseParser) IsContextExhausted(event OutputEvent) bool {
	if event.Error != nil && event.Error.Reason == ErrReasonContextExceeded {
		return true
	}
	if event.Type == EventResult && event.IsErrorResult &&
		strings.Contains(event.Result, "Prompt is too long") {
		return true
	}
	return false
}
