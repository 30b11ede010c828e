package lm

import (
	"github.com/zjrosen/clilm/internal/client"
)

// Choice is one generation in a Response.
type Choice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// Response is the chat-completion-shaped result of Generate.
type Response struct {
	ID       string            `json:"id"`
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Created  int64             `json:"created"`
	Choices  []Choice          `json:"choices"`
	Usage    *client.UsageInfo `json:"usage,omitempty"`

	// SessionRef is the provider session ID of the last generation,
	// when the provider reports one.
	SessionRef string `json:"session_ref,omitempty"`

	// TotalCostUSD sums the per-generation cost when the provider
	// reports it.
	TotalCostUSD float64 `json:"total_cost_usd,omitempty"`
}

// Outputs returns the choice texts in order.
func (r *Response) Outputs() []string {
	outputs := make([]string, len(r.Choices))
	for i, c := range r.Choices {
		outputs[i] = c.Message.Content
	}
	return outputs
}
