// Package claude implements the headless client for the Claude Code CLI.
//
// The CLI runs in print mode with stream-json output:
//
//	claude -p --verbose --output-format stream-json [flags] "prompt"
//
// Each stdout line is a JSON event: a system/init event carrying the
// session ID, assistant events with message content blocks, tool events,
// and a final result event with the answer text, cost, and token usage.
package claude
