package codex

// codexEvent represents the raw Codex CLI JSONL output structure:
//
//	{"type":"thread.started","thread_id":"th_..."}
//	{"type":"turn.started"}
//	{"type":"item.started","item":{"id":"item_0","type":"command_execution",...}}
//	{"type":"item.completed","item":{"id":"item_1","type":"agent_message","text":"..."}}
//	{"type":"turn.completed","usage":{"input_tokens":100,"cached_input_tokens":20,"output_tokens":50}}
//	{"type":"error","message":"..."}
type codexEvent struct {
	Type     string      `json:"type"`
	ThreadID string      `json:"thread_id,omitempty"`
	Item     *codexItem  `json:"item,omitempty"`
	Usage    *codexUsage `json:"usage,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// Codex native event types.
const (
	eventThreadStarted = "thread.started"
	eventItemCompleted = "item.completed"
	eventTurnCompleted = "turn.completed"
	eventTurnFailed    = "turn.failed"
	eventError         = "error"
)

// codexItem is the item body of item.* events. The type field
// discriminates: agent_message, reasoning, command_execution,
// file_change, mcp_tool_call, web_search, todo_list.
type codexItem struct {
	ID               string `json:"id,omitempty"`
	Type             string `json:"type,omitempty"`
	TypeOld          string `json:"item_type,omitempty"`
	Text             string `json:"text,omitempty"`
	Command          string `json:"command,omitempty"`
	AggregatedOutput string `json:"aggregated_output,omitempty"`
	ExitCode         *int   `json:"exit_code,omitempty"`
	Status           string `json:"status,omitempty"`
}

// itemType returns the item's type regardless of which JSON key the CLI
// used ("type" in current releases, "item_type" in older ones).
func (i *codexItem) itemType() string {
	if i.Type != "" {
		return i.Type
	}
	return i.TypeOld
}

// codexUsage holds token usage from turn.completed events.
type codexUsage struct {
	InputTokens       int `json:"input_tokens,omitempty"`
	CachedInputTokens int `json:"cached_input_tokens,omitempty"`
	OutputTokens      int `json:"output_tokens,omitempty"`
}
