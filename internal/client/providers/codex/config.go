package codex

import (
	"time"

	"github.com/zjrosen/clilm/internal/client"
)

// Config holds configuration for spawning a Codex process.
type Config struct {
	WorkDir         string
	Prompt          string // includes prepended system prompt (Codex has no system-prompt flag)
	Model           string // passed via -m
	Sandbox         string // --sandbox policy: read-only, workspace-write, danger-full-access
	Approvals       string // --ask-for-approval policy; "never" for headless runs
	SessionID       string // for "exec resume" to continue an existing thread
	SkipGitCheck    bool   // maps to --skip-git-repo-check
	Timeout         time.Duration
	Env             map[string]string
	GenerationIndex int
	GenerationTotal int
}

// configFromClient converts a client.Config to a codex.Config. Codex has
// no dedicated system-prompt flag, so the system prompt is prepended to
// the main prompt.
func configFromClient(cfg client.Config) Config {
	prompt := cfg.Prompt
	if cfg.SystemPrompt != "" && cfg.Prompt != "" {
		prompt = cfg.SystemPrompt + "\n\n" + cfg.Prompt
	} else if cfg.SystemPrompt != "" {
		prompt = cfg.SystemPrompt
	}

	sandbox := cfg.CodexSandbox()
	if cfg.SkipPermissions {
		sandbox = "workspace-write"
	}

	return Config{
		WorkDir:         cfg.WorkDir,
		Prompt:          prompt,
		Model:           cfg.CodexModel(),
		Sandbox:         sandbox,
		Approvals:       cfg.CodexApprovals(),
		SessionID:       cfg.SessionID,
		SkipGitCheck:    cfg.CodexSkipGitCheck(),
		Timeout:         cfg.Timeout,
		Env:             cfg.Env,
		GenerationIndex: cfg.GenerationIndex,
		GenerationTotal: cfg.GenerationTotal,
	}
}
