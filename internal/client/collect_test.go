package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcess feeds scripted events through the HeadlessProcess interface.
type fakeProcess struct {
	events     chan OutputEvent
	errs       chan error
	waitErr    error
	sessionRef string
	stderr     string
	rawStdout  string
	cancelled  bool
}

func newFakeProcess(events ...OutputEvent) *fakeProcess {
	p := &fakeProcess{
		events: make(chan OutputEvent, len(events)+1),
		errs:   make(chan error, 1),
	}
	for _, e := range events {
		p.events <- e
	}
	close(p.events)
	return p
}

func (p *fakeProcess) Events() <-chan OutputEvent { return p.events }
func (p *fakeProcess) Errors() <-chan error       { return p.errs }
func (p *fakeProcess) Wait() error                { return p.waitErr }
func (p *fakeProcess) Cancel() error              { p.cancelled = true; return nil }
func (p *fakeProcess) SessionRef() string         { return p.sessionRef }
func (p *fakeProcess) Status() ProcessStatus      { return StatusCompleted }
func (p *fakeProcess) IsRunning() bool            { return false }
func (p *fakeProcess) WorkDir() string            { return "" }
func (p *fakeProcess) PID() int                   { return -1 }
func (p *fakeProcess) Stderr() string             { return p.stderr }
func (p *fakeProcess) RawStdout() string          { return p.rawStdout }

func assistantEvent(text string) OutputEvent {
	return OutputEvent{
		Type: EventAssistant,
		Message: &MessageContent{
			Role:    "assistant",
			Content: []ContentBlock{{Type: "text", Text: text}},
		},
	}
}

func TestCollect_ResultTextWins(t *testing.T) {
	p := newFakeProcess(
		assistantEvent("intermediate thought"),
		OutputEvent{Type: EventResult, Result: "final answer", TotalCostUSD: 0.02, DurationMs: 1500},
	)

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "final answer", res.Text)
	assert.Equal(t, []string{"intermediate thought"}, res.Messages)
	assert.Equal(t, 0.02, res.TotalCostUSD)
	assert.Equal(t, int64(1500), res.DurationMs)
}

func TestCollect_LastAssistantMessageFallback(t *testing.T) {
	p := newFakeProcess(
		assistantEvent("first"),
		assistantEvent("second"),
	)

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Text)
	assert.Equal(t, []string{"first", "second"}, res.Messages)
}

func TestCollect_RawStdoutFallback(t *testing.T) {
	p := newFakeProcess()
	p.rawStdout = "  plain output from an unstructured CLI  \n"

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "plain output from an unstructured CLI", res.Text)
}

func TestCollect_EmptyResultFallsBackToMessages(t *testing.T) {
	p := newFakeProcess(
		assistantEvent("the message"),
		OutputEvent{Type: EventResult, Result: "   "},
	)

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "the message", res.Text)
}

func TestCollect_UsagePropagated(t *testing.T) {
	p := newFakeProcess(
		OutputEvent{
			Type:    EventAssistant,
			Message: &MessageContent{Content: []ContentBlock{{Type: "text", Text: "hi"}}},
			Usage:   &UsageInfo{TokensUsed: 1200, TotalTokens: 200000, OutputTokens: 40},
		},
	)

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 1200, res.Usage.TokensUsed)
}

func TestCollect_ErrorEventCaptured(t *testing.T) {
	p := newFakeProcess(
		OutputEvent{Type: EventError, Error: &ErrorInfo{Message: "stream error"}},
	)

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "stream error", res.ErrorMessage)
}

func TestCollect_ContextExhaustionFlagged(t *testing.T) {
	p := newFakeProcess(
		OutputEvent{
			Type:          EventResult,
			IsErrorResult: true,
			Result:        "Prompt is too long",
		},
	)

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.ContextExhausted)
}

func TestCollect_WaitErrorReturnedWithPartialResult(t *testing.T) {
	p := newFakeProcess(assistantEvent("partial"))
	p.waitErr = &ExitError{Provider: "test", Code: 1}
	p.stderr = "boom"

	res, err := Collect(context.Background(), p)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "partial", res.Text)
	assert.Equal(t, "boom", res.Stderr)
}

func TestCollect_SessionRefCarried(t *testing.T) {
	p := newFakeProcess(assistantEvent("hi"))
	p.sessionRef = "ses_123"

	res, err := Collect(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "ses_123", res.SessionRef)
}

func TestCollect_CancelledContext(t *testing.T) {
	// An already-cancelled context cancels the process and still
	// finalizes with whatever was drained.
	p := &fakeProcess{
		events: make(chan OutputEvent),
		errs:   make(chan error, 1),
	}
	close(p.events)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Collect(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, res)
}
