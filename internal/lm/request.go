package lm

import (
	"fmt"
	"strings"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one LM call.
type Request struct {
	// Prompt is a bare user prompt. Ignored when Messages is set.
	Prompt string

	// Messages is the chat conversation. Takes precedence over Prompt.
	Messages []Message

	// N is the number of generations to produce. Zero means 1.
	N int

	// Env is overlaid on the configured environment for this call only.
	Env map[string]string

	// SessionID resumes a provider session when the provider supports it.
	SessionID string
}

// generations returns the effective generation count.
func (r Request) generations() int {
	if r.N > 0 {
		return r.N
	}
	return 1
}

// flatten renders the conversation as the text CLIs receive: each
// message becomes "ROLE:\ncontent", joined by blank lines. A bare prompt
// is treated as a single user message.
func (r Request) flatten() (string, error) {
	messages := r.Messages
	if len(messages) == 0 && r.Prompt != "" {
		messages = []Message{{Role: "user", Content: r.Prompt}}
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no prompt or messages provided")
	}

	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		parts = append(parts, strings.ToUpper(role)+":\n"+m.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// splitSystem separates a leading system message from the rest of the
// conversation, for providers with a dedicated system-prompt flag.
func (r Request) splitSystem() (system string, rest Request) {
	rest = r
	if len(r.Messages) > 0 && r.Messages[0].Role == "system" {
		system = r.Messages[0].Content
		rest.Messages = r.Messages[1:]
	}
	return system, rest
}
