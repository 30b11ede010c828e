package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolymorphicError(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *ErrorInfo
	}{
		{
			name:     "bare string",
			raw:      `"something failed"`,
			expected: &ErrorInfo{Message: "something failed"},
		},
		{
			name:     "object with code and message",
			raw:      `{"code":"overloaded","message":"try later"}`,
			expected: &ErrorInfo{Code: "overloaded", Message: "try later"},
		},
		{
			name:     "object with message only",
			raw:      `{"message":"boom"}`,
			expected: &ErrorInfo{Message: "boom"},
		},
		{
			name:     "empty string is nil",
			raw:      `""`,
			expected: nil,
		},
		{
			name:     "empty object is nil",
			raw:      `{}`,
			expected: nil,
		},
		{
			name:     "unparseable is nil",
			raw:      `[1,2,3]`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParsePolymorphicError(json.RawMessage(tt.raw))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParsePolymorphicError_EmptyRaw(t *testing.T) {
	assert.Nil(t, ParsePolymorphicError(nil))
	assert.Nil(t, ParsePolymorphicError(json.RawMessage{}))
}

func TestMessageContent_GetText(t *testing.T) {
	m := &MessageContent{Content: []ContentBlock{
		{Type: "text", Text: "first"},
		{Type: "tool_use", Name: "Bash"},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", m.GetText())
}

func TestMessageContent_GetText_NilSafe(t *testing.T) {
	var m *MessageContent
	assert.Equal(t, "", m.GetText())
}

func TestMessageContent_HasToolUses(t *testing.T) {
	var nilMsg *MessageContent
	assert.False(t, nilMsg.HasToolUses())

	noTools := &MessageContent{Content: []ContentBlock{{Type: "text", Text: "hi"}}}
	assert.False(t, noTools.HasToolUses())

	withTools := &MessageContent{Content: []ContentBlock{{Type: "tool_use", Name: "Read"}}}
	assert.True(t, withTools.HasToolUses())
}

func TestBaseParser_IsContextExhausted(t *testing.T) {
	p := NewBaseParser(1000)

	require.True(t, p.IsContextExhausted(OutputEvent{
		Type:  EventError,
		Error: &ErrorInfo{Reason: ErrReasonContextExceeded},
	}))
	require.False(t, p.IsContextExhausted(OutputEvent{
		Type:  EventError,
		Error: &ErrorInfo{Message: "some other error"},
	}))
	require.False(t, p.IsContextExhausted(OutputEvent{Type: EventAssistant}))
}
