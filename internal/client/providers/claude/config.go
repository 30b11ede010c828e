package claude

import (
	"time"

	"github.com/zjrosen/clilm/internal/client"
)

// Config holds configuration for spawning a Claude Code process.
type Config struct {
	WorkDir         string
	Prompt          string
	SystemPrompt    string // passed via --append-system-prompt
	Model           string // alias ("sonnet", "opus") or full model name
	SessionID       string // for --resume to continue an existing session
	SkipPermissions bool   // maps to --dangerously-skip-permissions
	Timeout         time.Duration
	Env             map[string]string
	GenerationIndex int
	GenerationTotal int
}

// configFromClient converts a client.Config to a claude.Config.
func configFromClient(cfg client.Config) Config {
	return Config{
		WorkDir:         cfg.WorkDir,
		Prompt:          cfg.Prompt,
		SystemPrompt:    cfg.SystemPrompt,
		Model:           cfg.ClaudeModel(),
		SessionID:       cfg.SessionID,
		SkipPermissions: cfg.SkipPermissions,
		Timeout:         cfg.Timeout,
		Env:             cfg.Env,
		GenerationIndex: cfg.GenerationIndex,
		GenerationTotal: cfg.GenerationTotal,
	}
}
