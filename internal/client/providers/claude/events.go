package claude

import (
	"encoding/json"

	"github.com/zjrosen/clilm/internal/client"
)

// claudeEvent represents the raw Claude Code stream-json output:
//
//	{"type":"system","subtype":"init","session_id":"...","cwd":"...","model":"..."}
//	{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"..."}],"usage":{...}}}
//	{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"...","content":"..."}]}}
//	{"type":"result","subtype":"success","result":"...","total_cost_usd":0.05,"duration_ms":1234,"is_error":false}
type claudeEvent struct {
	Type          client.EventType `json:"type"`
	SubType       string           `json:"subtype,omitempty"`
	SessionID     string           `json:"session_id,omitempty"`
	WorkDir       string           `json:"cwd,omitempty"`
	Message       *claudeMessage   `json:"message,omitempty"`
	Error         json.RawMessage  `json:"error,omitempty"`
	TotalCostUSD  float64          `json:"total_cost_usd,omitempty"`
	DurationMs    int64            `json:"duration_ms,omitempty"`
	IsErrorResult bool             `json:"is_error,omitempty"`
	Result        string           `json:"result,omitempty"`
	Usage         *claudeUsage     `json:"usage,omitempty"`
}

// claudeMessage represents the message object in assistant/user events.
type claudeMessage struct {
	ID         string               `json:"id,omitempty"`
	Role       string               `json:"role,omitempty"`
	Model      string               `json:"model,omitempty"`
	Content    []claudeContentBlock `json:"content,omitempty"`
	Usage      *claudeUsage         `json:"usage,omitempty"`
	StopReason string               `json:"stop_reason,omitempty"`
}

// claudeContentBlock is a single content block: text, tool_use, or
// tool_result.
type claudeContentBlock struct {
	Type      string          `json:"type,omitempty"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// claudeUsage holds token usage as reported in assistant and result
// events.
type claudeUsage struct {
	InputTokens              int `json:"input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
}

// tokensUsed sums the input-side token counts, which together approximate
// context window occupancy.
func (u *claudeUsage) tokensUsed() int {
	if u == nil {
		return 0
	}
	return u.InputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens
}
