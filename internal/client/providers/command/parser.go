package command

import (
	"encoding/json"
	"strings"

	"github.com/zjrosen/clilm/internal/client"
)

// Parser implements client.EventParser for arbitrary command output.
// Only the Codex-style item.completed/agent_message JSONL shape becomes
// an event; any other line is skipped here and reaches the caller via
// the process's raw stdout fallback instead.
type Parser struct {
	client.BaseParser
}

// NewParser creates a lenient parser. The context window size is unknown
// for arbitrary commands; zero disables usage estimates.
func NewParser() *Parser {
	return &Parser{BaseParser: client.NewBaseParser(0)}
}

// ParseEvent inspects one stdout line. Non-JSON lines and JSON without
// the agent_message shape are skipped, never errors.
func (p *Parser) ParseEvent(data []byte) (client.OutputEvent, error) {
	var raw struct {
		Type string `json:"type"`
		Item *struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"item"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return client.OutputEvent{}, client.ErrSkipEvent
	}

	if raw.Type != "item.completed" || raw.Item == nil || raw.Item.Type != "agent_message" {
		return client.OutputEvent{}, client.ErrSkipEvent
	}

	text := strings.TrimSpace(raw.Item.Text)
	if text == "" {
		return client.OutputEvent{}, client.ErrSkipEvent
	}

	event := client.OutputEvent{
		Type: client.EventAssistant,
		Message: &client.MessageContent{
			Role:    "assistant",
			Content: []client.ContentBlock{{Type: "text", Text: text}},
		},
	}
	event.Raw = make([]byte, len(data))
	copy(event.Raw, data)
	return event, nil
}

// Verify Parser implements EventParser at compile time.
var _ client.EventParser = (*Parser)(nil)
