package claude

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zjrosen/clilm/internal/client"
)

func TestConfigFromClient(t *testing.T) {
	tests := []struct {
		name     string
		input    client.Config
		expected Config
	}{
		{
			name: "basic fields pass through",
			input: client.Config{
				WorkDir: "/work/dir",
				Prompt:  "Hello",
				Timeout: 5 * time.Minute,
			},
			expected: Config{
				WorkDir: "/work/dir",
				Prompt:  "Hello",
				Model:   client.DefaultClaudeModel,
				Timeout: 5 * time.Minute,
			},
		},
		{
			name: "system prompt carried separately",
			input: client.Config{
				SystemPrompt: "You are a helpful assistant.",
				Prompt:       "Do the task",
			},
			expected: Config{
				SystemPrompt: "You are a helpful assistant.",
				Prompt:       "Do the task",
				Model:        client.DefaultClaudeModel,
			},
		},
		{
			name: "model extension extracted",
			input: client.Config{
				Extensions: map[string]any{client.ExtClaudeModel: "opus"},
			},
			expected: Config{Model: "opus"},
		},
		{
			name: "skip permissions passed through",
			input: client.Config{
				SkipPermissions: true,
			},
			expected: Config{
				SkipPermissions: true,
				Model:           client.DefaultClaudeModel,
			},
		},
		{
			name: "generation coordinates passed through",
			input: client.Config{
				GenerationIndex: 2,
				GenerationTotal: 5,
			},
			expected: Config{
				Model:           client.DefaultClaudeModel,
				GenerationIndex: 2,
				GenerationTotal: 5,
			},
		},
		{
			name: "session id passed through",
			input: client.Config{
				SessionID: "ses_xyz",
			},
			expected: Config{
				SessionID: "ses_xyz",
				Model:     client.DefaultClaudeModel,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, configFromClient(tt.input))
		})
	}
}
