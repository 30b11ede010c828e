// Package command implements the generic headless client: it runs any
// user-supplied command and feeds the prompt on stdin.
//
// Output handling is lenient. Lines that parse as JSONL events of the
// form
//
//	{"type":"item.completed","item":{"type":"agent_message","text":"..."}}
//
// yield assistant messages; everything else accumulates as raw text.
// When no structured message arrives, the trimmed raw stdout is the
// answer. This makes plain-text programs, bridge scripts, and Codex-style
// JSONL emitters all usable without configuration.
package command
