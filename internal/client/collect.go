package client

import (
	"context"
	"strings"
)

// Result is the assembled outcome of a single CLI run.
type Result struct {
	// Text is the final answer: the result event's text when present,
	// otherwise the last assistant message, otherwise trimmed raw
	// stdout.
	Text string

	// Messages holds every assistant text message in arrival order.
	Messages []string

	Usage        *UsageInfo
	TotalCostUSD float64
	DurationMs   int64
	SessionRef   string
	Stderr       string

	// ErrorMessage carries the CLI's own error event text, if any.
	ErrorMessage string

	// ContextExhausted is set when the run failed because the prompt
	// no longer fits the model's context window.
	ContextExhausted bool
}

// Collect drains a process to completion and assembles its Result.
// It returns the process's terminal error (timeout, non-zero exit),
// with the partial Result still populated for diagnostics.
func Collect(ctx context.Context, p HeadlessProcess) (*Result, error) {
	res := &Result{}
	var resultText string
	var sawResult bool

	exhausted := BaseParser{}

	for {
		select {
		case event, ok := <-p.Events():
			if !ok {
				return finalize(res, p, resultText, sawResult)
			}
			if exhausted.IsContextExhausted(event) {
				res.ContextExhausted = true
			}
			switch event.Type {
			case EventAssistant:
				if text := event.Message.GetText(); text != "" {
					res.Messages = append(res.Messages, text)
				}
				if event.Usage != nil {
					res.Usage = event.Usage
				}
			case EventResult:
				sawResult = true
				resultText = event.Result
				res.TotalCostUSD = event.TotalCostUSD
				res.DurationMs = event.DurationMs
				if event.Usage != nil {
					res.Usage = event.Usage
				}
			case EventError:
				if event.Error != nil && event.Error.Message != "" {
					res.ErrorMessage = event.Error.Message
				}
			}
		case <-ctx.Done():
			_ = p.Cancel()
			// Drain until the event channel closes so Wait can settle.
			for range p.Events() { //nolint:revive // intentional drain
			}
			return finalize(res, p, resultText, sawResult)
		}
	}
}

// finalize waits for the process and picks the final text.
func finalize(res *Result, p HeadlessProcess, resultText string, sawResult bool) (*Result, error) {
	err := p.Wait()
	res.SessionRef = p.SessionRef()
	res.Stderr = p.Stderr()

	switch {
	case sawResult && strings.TrimSpace(resultText) != "":
		res.Text = strings.TrimSpace(resultText)
	case len(res.Messages) > 0:
		res.Text = strings.TrimSpace(res.Messages[len(res.Messages)-1])
	default:
		res.Text = strings.TrimSpace(p.RawStdout())
	}

	return res, err
}
