package claude

import (
	"encoding/json"
	"strings"

	"github.com/zjrosen/clilm/internal/client"
)

// ClaudeContextWindowSize is the assumed context window for Claude
// models. The CLI does not report the window size, so this value is used
// for usage percentage estimates.
const ClaudeContextWindowSize = 200000

// Parser implements client.EventParser for Claude Code stream-json.
type Parser struct {
	client.BaseParser
}

// NewParser creates a Claude EventParser with the default context window
// size.
func NewParser() *Parser {
	return &Parser{
		BaseParser: client.NewBaseParser(ClaudeContextWindowSize),
	}
}

// ParseEvent converts one Claude stream-json line to a client.OutputEvent.
func (p *Parser) ParseEvent(data []byte) (client.OutputEvent, error) {
	var raw claudeEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{}, err
	}

	event := client.OutputEvent{
		Type:          raw.Type,
		SubType:       raw.SubType,
		SessionID:     raw.SessionID,
		WorkDir:       raw.WorkDir,
		TotalCostUSD:  raw.TotalCostUSD,
		DurationMs:    raw.DurationMs,
		IsErrorResult: raw.IsErrorResult,
		Result:        raw.Result,
	}

	event.Error = client.ParsePolymorphicError(raw.Error)

	if raw.Message != nil {
		event.Message = &client.MessageContent{
			ID:    raw.Message.ID,
			Role:  raw.Message.Role,
			Model: raw.Message.Model,
		}
		for _, block := range raw.Message.Content {
			event.Message.Content = append(event.Message.Content, client.ContentBlock{
				Type:  block.Type,
				Text:  block.Text,
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
			// Surface tool activity as unified Tool content so callers
			// need not dig through message blocks.
			switch block.Type {
			case "tool_use":
				event.Tool = &client.ToolContent{ID: block.ID, Name: block.Name, Input: block.Input}
			case "tool_result":
				event.Tool = &client.ToolContent{ID: block.ToolUseID, Output: string(block.Content)}
			}
		}
	}

	// Token usage lives on the message for assistant events and at the
	// top level for result events.
	if usage := p.pickUsage(raw); usage != nil {
		event.Usage = &client.UsageInfo{
			TokensUsed:   usage.tokensUsed(),
			TotalTokens:  p.ContextWindowSize(),
			OutputTokens: usage.OutputTokens,
		}
	}

	// A failed result with the well-known prompt-length message marks
	// context exhaustion.
	if raw.Type == client.EventResult && raw.IsErrorResult &&
		strings.Contains(raw.Result, "Prompt is too long") {
		event.Error = &client.ErrorInfo{
			Message: raw.Result,
			Reason:  client.ErrReasonContextExceeded,
		}
	}

	event.Raw = make([]byte, len(data))
	copy(event.Raw, data)

	return event, nil
}

func (p *Parser) pickUsage(raw claudeEvent) *claudeUsage {
	if raw.Message != nil && raw.Message.Usage != nil && raw.Type == client.EventAssistant {
		return raw.Message.Usage
	}
	if raw.Type == client.EventResult && raw.Usage != nil {
		return raw.Usage
	}
	return nil
}

// Verify Parser implements EventParser at compile time.
var _ client.EventParser = (*Parser)(nil)
