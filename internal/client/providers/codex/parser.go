package codex

import (
	"encoding/json"
	"strings"

	"github.com/zjrosen/clilm/internal/client"
)

// CodexContextWindowSize is the assumed context window for Codex models.
// The CLI does not report the window size.
const CodexContextWindowSize = 272000

// Parser implements client.EventParser for Codex CLI JSONL events,
// mapping the thread/turn/item vocabulary onto the unified event types.
type Parser struct {
	client.BaseParser
}

// NewParser creates a Codex EventParser with the default context window
// size.
func NewParser() *Parser {
	return &Parser{
		BaseParser: client.NewBaseParser(CodexContextWindowSize),
	}
}

// ParseEvent converts one Codex JSONL line to a client.OutputEvent.
func (p *Parser) ParseEvent(data []byte) (client.OutputEvent, error) {
	var raw codexEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{}, err
	}

	var event client.OutputEvent

	switch raw.Type {
	case eventThreadStarted:
		// Maps to the system/init shape so session extraction works the
		// same way as for Claude.
		event.Type = client.EventSystem
		event.SubType = "init"
		event.SessionID = raw.ThreadID

	case eventItemCompleted:
		if raw.Item == nil {
			return client.OutputEvent{}, client.ErrSkipEvent
		}
		converted, err := p.parseItem(raw.Item)
		if err != nil {
			return client.OutputEvent{}, err
		}
		event = converted

	case eventTurnCompleted:
		event.Type = client.EventResult
		event.SubType = "success"
		if raw.Usage != nil {
			event.Usage = &client.UsageInfo{
				TokensUsed:   raw.Usage.InputTokens + raw.Usage.CachedInputTokens,
				TotalTokens:  p.ContextWindowSize(),
				OutputTokens: raw.Usage.OutputTokens,
			}
		}

	case eventTurnFailed, eventError:
		event.Type = client.EventError
		event.Error = &client.ErrorInfo{Message: raw.Message}
		if strings.Contains(raw.Message, "context window") ||
			strings.Contains(raw.Message, "Prompt is too long") {
			event.Error.Reason = client.ErrReasonContextExceeded
		}

	default:
		// thread/turn lifecycle noise, item.started, deltas
		return client.OutputEvent{}, client.ErrSkipEvent
	}

	event.Raw = make([]byte, len(data))
	copy(event.Raw, data)

	return event, nil
}

// parseItem converts a completed item to a unified event. Only
// agent_message and command_execution items carry content the caller
// needs; reasoning and the rest are skipped.
func (p *Parser) parseItem(item *codexItem) (client.OutputEvent, error) {
	switch item.itemType() {
	case "agent_message":
		text := strings.TrimSpace(item.Text)
		if text == "" {
			return client.OutputEvent{}, client.ErrSkipEvent
		}
		return client.OutputEvent{
			Type: client.EventAssistant,
			Message: &client.MessageContent{
				ID:      item.ID,
				Role:    "assistant",
				Content: []client.ContentBlock{{Type: "text", Text: text}},
			},
		}, nil

	case "command_execution":
		return client.OutputEvent{
			Type: client.EventToolResult,
			Tool: &client.ToolContent{
				ID:     item.ID,
				Name:   "Shell",
				Output: item.AggregatedOutput,
			},
		}, nil

	default:
		return client.OutputEvent{}, client.ErrSkipEvent
	}
}

// Verify Parser implements EventParser at compile time.
var _ client.EventParser = (*Parser)(nil)
