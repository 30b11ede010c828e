// Package codex implements the headless client for the Codex CLI.
//
// The CLI runs in non-interactive exec mode with JSONL output:
//
//	codex --ask-for-approval never --sandbox read-only exec --json "prompt"
//
// Events arrive one JSON object per line: thread.started carries the
// session (thread) ID, item.completed events with an agent_message item
// carry assistant text, and turn.completed carries token usage.
package codex
